package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

// NewEmailMessage renders the summary of res for the congregation's secretaries.
// Both ledgers are attached as JSON for drill-down.
func NewEmailMessage(res Result, to []mail.Address) (*core.EmailMessage, error) {
	counts := res.Counts()

	var text strings.Builder
	fmt.Fprintf(&text, "Audit of %s to %s (run on %s)\n\n", res.From, res.To, res.RunDate.Format("2006-01-02"))
	fmt.Fprintf(&text, "Reports scanned: %d\n", counts.Reports)
	fmt.Fprintf(&text, "Months recomputed: %d\n", counts.Months)
	fmt.Fprintf(&text, "Duplicate reports discarded: %d\n", counts.Duplicates)
	fmt.Fprintf(&text, "Orphaned reports: %d\n", counts.Orphans)

	if len(res.Duplicates) > 0 {
		text.WriteString("\nDuplicates:\n")
		for _, d := range res.Duplicates {
			fmt.Fprintf(&text, "  %s: %s\n", d.PublisherID, joinMonths(d.Months))
		}
	}
	if len(res.Orphans) > 0 {
		text.WriteString("\nOrphans:\n")
		for _, o := range res.Orphans {
			fmt.Fprintf(&text, "  %s: %s\n", o.PublisherID, joinMonths(o.Months))
		}
	}

	msg := &core.EmailMessage{
		To:          to,
		Subject:     fmt.Sprintf("Report audit %s", res.To),
		TextContent: text.String(),
	}

	ledgers, err := json.MarshalIndent(struct {
		Duplicates []DuplicateEntry `json:"duplicates"`
		Orphans    []OrphanEntry    `json:"orphans"`
	}{res.Duplicates, res.Orphans}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encoding ledgers")
	}
	filename := fmt.Sprintf("audit-%s.json", res.To)
	if err = msg.Attach(bytes.NewReader(ledgers), filename, "application/json"); err != nil {
		return nil, errors.Wrap(err, "attaching ledgers")
	}
	return msg, nil
}

func joinMonths(months []calendar.Month) string {
	strs := make([]string, 0, len(months))
	for _, m := range months {
		strs = append(strs, m.String())
	}
	return strings.Join(strs, ", ")
}
