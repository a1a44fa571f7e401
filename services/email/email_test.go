package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core"
	logsvc "github.com/trezcool/ministry/services/logger"
)

func TestConsoleService_render(t *testing.T) {
	out := new(bytes.Buffer)
	svc := &consoleService{
		defaultFromEmail: mail.Address{Name: "Ministry", Address: "noreply@test.test"},
		subjPrefix:       "[Ministry] ",
		out:              out,
		logger:           logsvc.NewNopLogger(),
	}

	msg := &core.EmailMessage{
		To:          []mail.Address{{Address: "secretary@test.test"}},
		Subject:     "Report audit 2025-07",
		TextContent: "Duplicate reports discarded: 1",
	}
	require.NoError(t, msg.Attach(strings.NewReader(`{"duplicates":[]}`), "audit.json", "application/json"))

	svc.SendMessages(msg, &core.EmailMessage{Subject: "no recipients"})

	body := out.String()
	assert.Contains(t, body, "Subject: [Ministry] Report audit 2025-07")
	assert.Contains(t, body, "To: <secretary@test.test>")
	assert.Contains(t, body, "Duplicate reports discarded: 1")
	assert.Contains(t, body, "attachment; filename=audit.json")
	assert.NotContains(t, body, "no recipients")
}

func TestServiceMock(t *testing.T) {
	svc := NewServiceMock()
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.test"}}, TextContent: "hi"},
		&core.EmailMessage{To: []mail.Address{{Address: "b@test.test"}}}, // no content
	)
	assert.Len(t, svc.Sent(), 1)
}
