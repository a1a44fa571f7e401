package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/apps/shared"
	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/status"
	emailsvc "github.com/trezcool/ministry/services/email"
	logsvc "github.com/trezcool/ministry/services/logger"
	"github.com/trezcool/ministry/storage/database"
	testutil "github.com/trezcool/ministry/tests"
)

type testCLI struct {
	*commandLine
	buf     *bytes.Buffer
	mailSvc *emailsvc.ServiceMock
}

func setup(t *testing.T) testCLI {
	conf := &core.Config{
		AppName:  "Ministry",
		TestMode: true,
		Database: core.DatabaseConfig{Engine: core.EngineMemory},
	}
	store, err := database.Open(context.Background(), conf)
	require.NoError(t, err)

	validate, _ := shared.NewValidator()
	buf := new(bytes.Buffer)
	mailSvc := emailsvc.NewServiceMock()

	// start CLI
	return testCLI{
		commandLine: &commandLine{
			store:   store,
			svcs:    shared.NewServices(conf, store, validate, nil, logsvc.NewNopLogger()),
			mailSvc: mailSvc,
			out:     buf,
		},
		buf:     buf,
		mailSvc: mailSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, cli testCLI) {
	t.Helper()

	cli.buf.Reset()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_help(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli) })
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	origMigrate := migrateFunc
	defer func() { migrateFunc = origMigrate }()
	migrateFunc = func(_ context.Context, _ *database.Store, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "attendance_notes", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli) })
	}
}

func Test_commandLine_migrate_memory(t *testing.T) {
	cli := setup(t)
	assert.NoError(t, cli.run([]string{"admin", "migrate", "up"}))
}

func Test_commandLine_syncStatus(t *testing.T) {
	cli := setup(t)
	testutil.CreatePublisher(t, cli.store.Publishers, "p1", "Ana", testutil.Date(2020, time.January, 1), publisher.StatusActive)
	testutil.CreatePublisher(t, cli.store.Publishers, "p2", "Bia", testutil.Date(2020, time.January, 1), publisher.StatusMoved)
	testutil.SaveReport(t, cli.store.Reports, testutil.NewReport("p1", "2025-01", true, 0, 0))

	tests := []cliTest{
		{name: "bad date", args: []string{"syncstatus", "-date", "2025-13-01"}, wantErrStr: "invalid date"},
		{name: "unknown flag", args: []string{"syncstatus", "-lol"}, wantErrStr: "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli) })
	}

	t.Run("sync", func(t *testing.T) {
		cliTest{args: []string{"syncstatus", "-date", "2025-08-01"}}.check(t, cli)

		var summary status.Summary
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &summary))
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.Skipped)
		require.Len(t, summary.Changes, 1)
		assert.Equal(t, status.Change{PublisherID: "p1", Name: "Ana", From: publisher.StatusActive, To: publisher.StatusInactive}, summary.Changes[0])

		pub, err := cli.store.Publishers.GetPublisher(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, publisher.StatusInactive, pub.Status)
	})
}

func Test_commandLine_aggregate(t *testing.T) {
	cli := setup(t)
	testutil.CreatePublisher(t, cli.store.Publishers, "p1", "Ana", testutil.Date(2020, time.January, 1), publisher.StatusActive)
	testutil.SaveReport(t, cli.store.Reports, testutil.NewReport("p1", "2023-11", true, 5, 2))
	testutil.SaveReport(t, cli.store.Reports, testutil.NewReport("p1", "2024-02", false, 0, 0))

	tests := []cliTest{
		{name: "no flags", args: []string{"aggregate"}, wantErr: errHelp},
		{name: "both flags", args: []string{"aggregate", "-month", "2023-11", "-fy", "2024"}, wantErr: errHelp},
		{name: "bad month", args: []string{"aggregate", "-month", "2023-13"}, wantErrStr: "2023-13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli) })
	}

	t.Run("month", func(t *testing.T) {
		cliTest{args: []string{"aggregate", "-month", "2023-11"}}.check(t, cli)

		var agg aggregate.MonthlyAggregate
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &agg))
		assert.Equal(t, "2023-11", agg.Month.String())
		assert.Equal(t, aggregate.CategoryTotals{Reports: 1, Hours: 5, BibleStudies: 2, StudyReports: 1}, agg.Publishers)
	})

	t.Run("service year", func(t *testing.T) {
		cliTest{args: []string{"aggregate", "-fy", "2024"}}.check(t, cli)

		var aggs []aggregate.MonthlyAggregate
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &aggs))
		require.Len(t, aggs, 12)
		assert.Equal(t, "2023-09", aggs[0].Month.String())
		assert.Equal(t, "2024-08", aggs[11].Month.String())
		assert.Equal(t, 1, aggregate.SumTotals(aggs).Reports) // 2024-02 did not participate
	})
}

func Test_commandLine_audit(t *testing.T) {
	cli := setup(t)
	testutil.CreatePublisher(t, cli.store.Publishers, "p1", "Ana", testutil.Date(2020, time.January, 1), publisher.StatusActive)
	testutil.SaveReport(t, cli.store.Reports, testutil.NewReport("p1", "2025-01", true, 2, 0))
	testutil.SaveReport(t, cli.store.Reports, testutil.NewReport("ghost", "2025-02", true, 1, 0))

	t.Run("notify without recipients", func(t *testing.T) {
		cliTest{args: []string{"audit", "-date", "2025-06-15", "-notify"}, wantErrStr: "no report recipients"}.check(t, cli)
	})

	t.Run("audit", func(t *testing.T) {
		cliTest{args: []string{"audit", "-date", "2025-06-15"}}.check(t, cli)

		var res struct {
			From           string `json:"from"`
			To             string `json:"to"`
			ReportsScanned int    `json:"reports_scanned"`
			Orphans        []struct {
				PublisherID string `json:"publisher_id"`
			} `json:"orphans"`
		}
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &res))
		assert.Equal(t, "2023-07", res.From)
		assert.Equal(t, "2025-06", res.To)
		assert.Equal(t, 2, res.ReportsScanned)
		require.Len(t, res.Orphans, 1)
		assert.Equal(t, "ghost", res.Orphans[0].PublisherID)
		assert.Empty(t, cli.mailSvc.Sent())
	})

	t.Run("notify", func(t *testing.T) {
		cli.recipients = []mail.Address{{Name: "Secretary", Address: "secretary@test.org"}}
		cliTest{args: []string{"audit", "-date", "2025-06-15", "-notify"}}.check(t, cli)

		sent := cli.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "Report audit 2025-06", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Orphaned reports: 1")
	})
}

func Test_commandLine_attendance(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	for _, count := range []int{30, 33} {
		_, err := cli.store.Attendance.SaveRecord(ctx, attendance.Record{
			ID:    fmt.Sprintf("rec-%d", count),
			Date:  time.Date(2024, time.May, 8, 19, 0, 0, 0, time.UTC),
			Kind:  attendance.KindMidweek,
			Count: count,
		})
		require.NoError(t, err)
	}

	tests := []cliTest{
		{name: "no month", args: []string{"attendance"}, wantErr: errHelp},
		{name: "bad month", args: []string{"attendance", "-month", "05/2024"}, wantErrStr: "05/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli) })
	}

	t.Run("aggregate", func(t *testing.T) {
		cliTest{args: []string{"attendance", "-month", "2024-05"}}.check(t, cli)

		var agg attendance.Aggregate
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &agg))
		assert.Equal(t, attendance.KindTotals{Meetings: 2, Attendees: 63, Average: 32}, agg.Midweek)
		assert.Equal(t, attendance.KindTotals{}, agg.Weekend)

		stored, err := cli.store.Attendance.GetAggregate(ctx, agg.Month)
		require.NoError(t, err)
		assert.Equal(t, agg, stored)
	})
}

func Test_commandLine_render(t *testing.T) {
	cli := setup(t)
	testutil.CreatePublisher(t, cli.store.Publishers, "p1", "Ana", testutil.Date(2020, time.January, 1), publisher.StatusActive)

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()
	cli.out = f

	origIsTerminal := isTerminalFunc
	defer func() { isTerminalFunc = origIsTerminal }()
	isTerminalFunc = func(int) bool { return true }

	require.NoError(t, cli.run([]string{"admin", "aggregate", "-month", "2024-01"}))

	out, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Contains(t, string(out), "MONTH")
	assert.Contains(t, string(out), "2024-01")
	assert.NotContains(t, string(out), "{")
}
