package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core"
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

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		runDate   time.Time
		wantFirst string
		wantLast  string
	}{
		{name: "mid year", runDate: testutil.Date(2025, time.July, 1), wantFirst: "2025-01", wantLast: "2025-06"},
		{name: "february", runDate: testutil.Date(2025, time.February, 10), wantFirst: "2024-08", wantLast: "2025-01"},
		{name: "last day of month", runDate: testutil.Date(2025, time.August, 31), wantFirst: "2025-02", wantLast: "2025-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Window(tt.runDate, DefaultConfig)
			require.Len(t, w, 6)
			assert.Equal(t, tt.wantFirst, w[0].String())
			assert.Equal(t, tt.wantLast, w[5].String())
		})
	}
}

func TestEvaluate(t *testing.T) {
	pub := publisher.Publisher{ID: "p1", CongregationDate: oldDate, Status: publisher.StatusActive}
	sixMonthsAgo := calendar.MonthOf(runDate).Add(-6).String()

	tests := []struct {
		name    string
		pub     publisher.Publisher
		reports []report.ActivityReport
		want    publisher.Status
	}{
		{
			name: "no reports",
			pub:  pub,
			want: publisher.StatusInactive,
		},
		{
			name:    "empty report 6 months ago does not count",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p1", sixMonthsAgo, false, 0, 0)},
			want:    publisher.StatusInactive,
		},
		{
			name:    "hours without participation 6 months ago",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p1", sixMonthsAgo, false, 5, 0)},
			want:    publisher.StatusActive,
		},
		{
			name:    "studies only",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p1", "2025-03", false, 0, 1)},
			want:    publisher.StatusActive,
		},
		{
			name:    "report of the run month is outside the window",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p1", "2025-07", true, 10, 0)},
			want:    publisher.StatusInactive,
		},
		{
			name:    "report 7 months ago is outside the window",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p1", "2024-12", true, 10, 0)},
			want:    publisher.StatusInactive,
		},
		{
			name:    "another publisher's report",
			pub:     pub,
			reports: []report.ActivityReport{testutil.NewReport("p2", "2025-05", true, 10, 0)},
			want:    publisher.StatusInactive,
		},
		{
			name: "newcomer of 5 months",
			pub:  publisher.Publisher{ID: "p1", CongregationDate: runDate.AddDate(0, -5, 0), Status: publisher.StatusInactive},
			want: publisher.StatusActive,
		},
		{
			name: "publisher of 7 months",
			pub:  publisher.Publisher{ID: "p1", CongregationDate: runDate.AddDate(0, -7, 0), Status: publisher.StatusActive},
			want: publisher.StatusInactive,
		},
		{
			name: "baptism date used when congregation date is unknown",
			pub:  publisher.Publisher{ID: "p1", BaptismDate: runDate.AddDate(0, -2, 0), Status: publisher.StatusInactive},
			want: publisher.StatusActive,
		},
		{
			name: "no start date is not a newcomer",
			pub:  publisher.Publisher{ID: "p1", Status: publisher.StatusActive},
			want: publisher.StatusInactive,
		},
		{
			name:    "removed stays removed",
			pub:     publisher.Publisher{ID: "p1", CongregationDate: oldDate, Status: publisher.StatusRemoved},
			reports: []report.ActivityReport{testutil.NewReport("p1", "2025-05", true, 10, 0)},
			want:    publisher.StatusRemoved,
		},
		{
			name: "moved stays moved",
			pub:  publisher.Publisher{ID: "p1", CongregationDate: oldDate, Status: publisher.StatusMoved},
			want: publisher.StatusMoved,
		},
		{
			name:    "irregular becomes active",
			pub:     publisher.Publisher{ID: "p1", CongregationDate: oldDate, Status: publisher.StatusIrregular},
			reports: []report.ActivityReport{testutil.NewReport("p1", "2025-05", true, 1, 0)},
			want:    publisher.StatusActive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.pub, tt.reports, runDate, DefaultConfig))
		})
	}
}

func setup(t *testing.T) (*Engine, publisher.Repository, report.Repository) {
	db := inmemdb.Open()
	pubRepo := inmemdb.NewPublisherRepository(db)
	reportRepo := inmemdb.NewReportRepository(db)
	engine := NewEngine(pubRepo, reportRepo, nil, logsvc.NewNopLogger(), DefaultConfig)
	return engine, pubRepo, reportRepo
}

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()
	engine, pubRepo, reportRepo := setup(t)

	testutil.CreatePublisher(t, pubRepo, "p1", "Ana", oldDate, publisher.StatusInactive)
	testutil.CreatePublisher(t, pubRepo, "p2", "Bruno", oldDate, publisher.StatusActive)
	testutil.CreatePublisher(t, pubRepo, "p3", "Carla", oldDate, publisher.StatusActive)
	testutil.CreatePublisher(t, pubRepo, "p4", "Davi", oldDate, publisher.StatusRemoved)
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p1", "2025-04", true, 3, 0))
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p2", "2025-02", true, 3, 0))
	testutil.SaveReport(t, reportRepo, testutil.NewReport("p4", "2025-05", true, 3, 0))

	summary, err := engine.Run(ctx, runDate)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, []Change{
		{PublisherID: "p1", Name: "Ana", From: publisher.StatusInactive, To: publisher.StatusActive},
		{PublisherID: "p3", Name: "Carla", From: publisher.StatusActive, To: publisher.StatusInactive},
	}, summary.Changes)

	p1, err := pubRepo.GetPublisher(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, publisher.StatusActive, p1.Status)
	assert.True(t, p1.StatusUpdatedAt.Equal(runDate))

	// unchanged publishers keep their timestamp
	p2, err := pubRepo.GetPublisher(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, p2.StatusUpdatedAt.Equal(runDate))

	p4, err := pubRepo.GetPublisher(ctx, "p4")
	require.NoError(t, err)
	assert.Equal(t, publisher.StatusRemoved, p4.Status)

	// second run is a no-op
	summary, err = engine.Run(ctx, runDate)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Updated)
	assert.Empty(t, summary.Changes)
}

func TestEngine_Run_scenario(t *testing.T) {
	ctx := context.Background()
	engine, pubRepo, reportRepo := setup(t)

	testutil.CreatePublisher(t, pubRepo, "P", "Publisher P", testutil.Date(2024, time.January, 1), publisher.StatusInactive)
	testutil.SaveReport(t, reportRepo, report.Normalize(map[string]interface{}{
		"publisherId":    "P",
		"referenceMonth": "2025-01",
		"participated":   true,
		"hours":          10,
		"bibleStudies":   1,
		"serviceType":    "Publicador",
	}))

	_, err := engine.Run(ctx, testutil.Date(2025, time.July, 1))
	require.NoError(t, err)
	p, err := pubRepo.GetPublisher(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, publisher.StatusActive, p.Status)

	_, err = engine.Run(ctx, testutil.Date(2025, time.August, 1))
	require.NoError(t, err)
	p, err = pubRepo.GetPublisher(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, publisher.StatusInactive, p.Status)
}

func TestNewConfig(t *testing.T) {
	assert.Equal(t, DefaultConfig, NewConfig(core.EngineConfig{}))
	assert.Equal(t, Config{WindowMonths: 3, NewcomerMonths: 6}, NewConfig(core.EngineConfig{StatusWindowMonths: 3}))
}
