package aggregate_test

import (
	"context"
	"encoding/json"
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

var oldDate = testutil.Date(2020, time.March, 1)

func TestCompute(t *testing.T) {
	month := calendar.MustParseMonth("2025-03")
	pubs := []publisher.Publisher{
		{ID: "p1", CongregationDate: oldDate, Status: publisher.StatusActive},
		{ID: "p2", CongregationDate: oldDate, Status: publisher.StatusIrregular},
		{ID: "p3", CongregationDate: testutil.Date(2025, time.March, 20), Status: publisher.StatusActive},
		{ID: "p4", CongregationDate: oldDate, Status: publisher.StatusInactive},
		{ID: "p5", Status: publisher.StatusRemoved},
	}

	aux := testutil.NewReport("p2", "2025-03", true, 30, 2)
	aux.ServiceType = report.TypeAuxiliaryPioneer
	aux.BonusHours = 2.5
	regular := testutil.NewReport("p3", "2025-03", true, 50, 0)
	regular.ServiceType = report.TypeSpecialPioneer
	flagged := testutil.NewReport("p4", "2025-03", true, 15, 1)
	flagged.Auxiliary = true

	reports := []report.ActivityReport{
		testutil.NewReport("p1", "2025-03", true, 0, 1),
		aux,
		regular,
		flagged,
		testutil.NewReport("p5", "2025-03", false, 8, 1),     // not participated
		testutil.NewReport("ghost", "2025-03", true, 99, 9), // not a publisher
		testutil.NewReport("p1", "2025-02", true, 99, 9),    // other month
	}

	agg := aggregate.Compute(month, pubs, reports)
	assert.Equal(t, aggregate.MonthlyAggregate{
		Month:              month,
		Publishers:         aggregate.CategoryTotals{Reports: 1, Hours: 0, BibleStudies: 1, StudyReports: 1},
		Auxiliary:          aggregate.CategoryTotals{Reports: 2, Hours: 47.5, BibleStudies: 3, StudyReports: 2},
		Regular:            aggregate.CategoryTotals{Reports: 1, Hours: 50, BibleStudies: 0, StudyReports: 0},
		PotentialReporters: 3,
		NewPublishers:      1,
	}, agg)
	assert.Equal(t, aggregate.CategoryTotals{Reports: 4, Hours: 97.5, BibleStudies: 4, StudyReports: 3}, agg.Totals())
}

func TestCompute_duplicates(t *testing.T) {
	month := calendar.MustParseMonth("2025-03")
	pubs := []publisher.Publisher{{ID: "p1", Status: publisher.StatusActive}}

	first := testutil.NewReport("p1", "2025-03", true, 10, 0)
	first.ID = "legacy-1"
	first.CreatedAt = testutil.Date(2025, time.April, 1)
	second := testutil.NewReport("p1", "2025-03", true, 20, 0)
	second.CreatedAt = testutil.Date(2025, time.April, 2)

	for _, reports := range [][]report.ActivityReport{{first, second}, {second, first}} {
		agg := aggregate.Compute(month, pubs, reports)
		assert.Equal(t, 1, agg.Publishers.Reports)
		assert.Equal(t, float64(10), agg.Publishers.Hours)
	}
}

func setup(t *testing.T) (*aggregate.Engine, publisher.Repository, report.Repository) {
	db := inmemdb.Open()
	pubRepo := inmemdb.NewPublisherRepository(db)
	reportRepo := inmemdb.NewReportRepository(db)
	aggRepo := inmemdb.NewAggregateRepository(db)
	return aggregate.NewEngine(pubRepo, reportRepo, aggRepo, logsvc.NewNopLogger()), pubRepo, reportRepo
}

func TestEngine_Aggregate_idempotent(t *testing.T) {
	ctx := context.Background()
	engine, pubRepo, reportRepo := setup(t)
	month := calendar.MustParseMonth("2025-05")

	for i, id := range []string{"p9", "p1", "p5", "p3", "p7"} {
		testutil.CreatePublisher(t, pubRepo, id, "Publisher "+id, oldDate, publisher.StatusActive)
		testutil.SaveReport(t, reportRepo, testutil.NewReport(id, "2025-05", true, 0.1*float64(i+1), i))
	}

	first, err := engine.Aggregate(ctx, month)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := engine.Aggregate(ctx, month)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, 5, second.Publishers.Reports)

	stored, err := engine.Get(ctx, month)
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestEngine_AggregateServiceYear(t *testing.T) {
	ctx := context.Background()
	engine, pubRepo, reportRepo := setup(t)

	testutil.CreatePublisher(t, pubRepo, "p1", "Ana", oldDate, publisher.StatusActive)
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p1", "2024-09", true, 4, 0))
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p1", "2025-08", true, 6, 0))
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p1", "2025-09", true, 8, 0)) // next service year

	aggs, err := engine.AggregateServiceYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, aggs, 12)
	assert.Equal(t, "2024-09", aggs[0].Month.String())
	assert.Equal(t, "2025-08", aggs[11].Month.String())

	var hours float64
	for _, agg := range aggs {
		hours += agg.Totals().Hours
	}
	assert.Equal(t, float64(10), hours)

	stored, err := engine.Query(ctx, calendar.MustParseMonth("2024-01"), calendar.MustParseMonth("2026-01"))
	require.NoError(t, err)
	assert.Len(t, stored, 12)

	_, err = engine.Get(ctx, calendar.MustParseMonth("2025-09"))
	assert.Equal(t, aggregate.ErrNotFound, err)
}
