package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
	logsvc "github.com/trezcool/ministry/services/logger"
	inmemdb "github.com/trezcool/ministry/storage/database/inmem"
	testutil "github.com/trezcool/ministry/tests"
)

var (
	runDate = testutil.Date(2025, time.July, 15)
	oldDate = testutil.Date(2020, time.March, 1)
)

func setup(t *testing.T) (*Engine, *inmemdb.DB, publisher.Repository, aggregate.Repository) {
	db := inmemdb.Open()
	pubRepo := inmemdb.NewPublisherRepository(db)
	reportRepo := inmemdb.NewReportRepository(db)
	aggRepo := inmemdb.NewAggregateRepository(db)
	engine := NewEngine(pubRepo, reportRepo, aggRepo, nil, logsvc.NewNopLogger(), 0)
	return engine, db, pubRepo, aggRepo
}

func TestEngine_Window(t *testing.T) {
	engine, _, _, _ := setup(t)
	from, to := engine.Window(runDate)
	assert.Equal(t, "2023-08", from.String())
	assert.Equal(t, "2025-07", to.String())
	assert.Equal(t, 24, to.Sub(from)+1)
}

func TestEngine_Run_duplicates(t *testing.T) {
	ctx := context.Background()
	engine, db, pubRepo, aggRepo := setup(t)
	testutil.CreatePublisher(t, pubRepo, "p1", "Ana", oldDate, publisher.StatusActive)

	// same publisher & month under two keys, different hours
	db.InsertReportDocument(map[string]interface{}{
		"_id":            "2025-03_p1",
		"publisherId":    "p1",
		"referenceMonth": "2025-03",
		"participated":   true,
		"hours":          12,
		"createdAt":      testutil.Date(2025, time.April, 2),
	})
	db.InsertReportDocument(map[string]interface{}{
		"_id":             "legacy-9",
		"publisher_id":    "p1",
		"reference_month": "2025-03",
		"participou":      true,
		"horas":           "7",
		"created_at":      "2025-04-01T10:00:00Z",
	})

	res, err := engine.Run(ctx, runDate)
	require.NoError(t, err)

	assert.Equal(t, 2, res.ReportsScanned)
	assert.Equal(t, []DuplicateEntry{{
		PublisherID:  "p1",
		Months:       []calendar.Month{calendar.MustParseMonth("2025-03")},
		DiscardedIDs: []string{"2025-03_p1"},
	}}, res.Duplicates)
	assert.Empty(t, res.Orphans)

	require.Len(t, res.Months, 1)
	assert.Equal(t, 1, res.Months[0].Publishers.Reports)
	assert.Equal(t, float64(7), res.Months[0].Publishers.Hours) // earliest created wins

	stored, err := aggRepo.GetAggregate(ctx, calendar.MustParseMonth("2025-03"))
	require.NoError(t, err)
	assert.Equal(t, res.Months[0], stored)

	assert.Equal(t, Counts{Months: 1, Reports: 2, Duplicates: 1, Orphans: 0}, res.Counts())
}

func TestEngine_Run_orphans(t *testing.T) {
	ctx := context.Background()
	engine, db, pubRepo, _ := setup(t)
	testutil.CreatePublisher(t, pubRepo, "p1", "Ana", oldDate, publisher.StatusActive)

	for _, r := range []report.ActivityReport{
		testutil.NewReport("p1", "2025-05", true, 10, 1),
		testutil.NewReport("gone", "2025-05", true, 5, 2),
		testutil.NewReport("gone", "2025-06", false, 3, 0), // hours only: has effect
		testutil.NewReport("p1", "2025-06", false, 0, 4),   // studies only: no effect
		testutil.NewReport("p1", "2021-01", true, 10, 0),   // outside the window
	} {
		db.InsertReportDocument(report.Document(r))
	}

	res, err := engine.Run(ctx, runDate)
	require.NoError(t, err)

	assert.Equal(t, 4, res.ReportsScanned)
	assert.Empty(t, res.Duplicates)
	assert.Equal(t, []OrphanEntry{{
		PublisherID: "gone",
		Months:      []calendar.Month{calendar.MustParseMonth("2025-05"), calendar.MustParseMonth("2025-06")},
	}}, res.Orphans)

	require.Len(t, res.Months, 2)
	may, june := res.Months[0], res.Months[1]
	assert.Equal(t, "2025-05", may.Month.String())
	assert.Equal(t, 2, may.Publishers.Reports)
	assert.Equal(t, float64(15), may.Publishers.Hours)
	assert.Equal(t, 3, may.Publishers.BibleStudies)
	assert.Equal(t, 1, may.PotentialReporters)

	assert.Equal(t, "2025-06", june.Month.String())
	assert.Equal(t, 1, june.Publishers.Reports)
	assert.Equal(t, float64(3), june.Publishers.Hours)
	assert.Equal(t, 0, june.Publishers.BibleStudies)
}

func TestEngine_Run_doesNotMutate(t *testing.T) {
	ctx := context.Background()
	engine, db, pubRepo, _ := setup(t)
	testutil.CreatePublisher(t, pubRepo, "p1", "Ana", oldDate, publisher.StatusInactive)
	db.InsertReportDocument(report.Document(testutil.NewReport("p1", "2025-05", true, 10, 1)))

	_, err := engine.Run(ctx, runDate)
	require.NoError(t, err)

	p1, err := pubRepo.GetPublisher(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, publisher.StatusInactive, p1.Status)

	reports, err := inmemdb.NewReportRepository(db).QueryReportsByMonth(ctx, calendar.MustParseMonth("2025-05"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestAudit_tieBreak(t *testing.T) {
	a := testutil.NewReport("p1", "2025-01", true, 1, 0)
	a.ID, a.CreatedAt = "b-doc", time.Time{}
	b := testutil.NewReport("p1", "2025-01", true, 2, 0)
	b.ID, b.CreatedAt = "a-doc", time.Time{}
	c := testutil.NewReport("p1", "2025-01", true, 3, 0)
	c.ID, c.CreatedAt = "z-doc", testutil.Date(2025, time.March, 1)

	members := map[string]struct{}{"p1": {}}
	for _, docs := range [][]report.ActivityReport{{a, b, c}, {c, b, a}, {b, c, a}} {
		ledger := Audit(docs, members)
		require.Len(t, ledger.Kept, 1)
		assert.Equal(t, "z-doc", ledger.Kept[0].ID) // zero timestamps sort last
		require.Len(t, ledger.Duplicates, 1)
		assert.Equal(t, []string{"a-doc", "b-doc"}, ledger.Duplicates[0].DiscardedIDs)
	}

	ledger := Audit([]report.ActivityReport{a, b}, members)
	assert.Equal(t, "a-doc", ledger.Kept[0].ID) // then smallest id
}

func TestNewEmailMessage(t *testing.T) {
	res := Result{
		RunDate: runDate,
		From:    calendar.MustParseMonth("2023-08"),
		To:      calendar.MustParseMonth("2025-07"),
		Duplicates: []DuplicateEntry{{
			PublisherID:  "p1",
			Months:       []calendar.Month{calendar.MustParseMonth("2025-03")},
			DiscardedIDs: []string{"legacy-1"},
		}},
		Orphans: []OrphanEntry{{PublisherID: "gone", Months: []calendar.Month{calendar.MustParseMonth("2025-05")}}},
	}

	msg, err := NewEmailMessage(res, nil)
	require.NoError(t, err)
	assert.Equal(t, "Report audit 2025-07", msg.Subject)
	assert.Contains(t, msg.TextContent, "Duplicate reports discarded: 1")
	assert.Contains(t, msg.TextContent, "p1: 2025-03")
	assert.Contains(t, msg.TextContent, "gone: 2025-05")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "audit-2025-07.json", msg.Attachments[0].Filename)
	assert.Equal(t, "application/json", msg.Attachments[0].ContentType)
}
