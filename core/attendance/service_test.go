package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/calendar"
	logsvc "github.com/trezcool/ministry/services/logger"
	inmemdb "github.com/trezcool/ministry/storage/database/inmem"
	testutil "github.com/trezcool/ministry/tests"
)

func TestAggregateMonth(t *testing.T) {
	month := calendar.MustParseMonth("2025-03")
	records := []attendance.Record{
		{Date: testutil.Date(2025, time.March, 5), Kind: attendance.KindMidweek, Count: 40},
		{Date: testutil.Date(2025, time.March, 12), Kind: attendance.KindMidweek, Count: 41},
		{Date: testutil.Date(2025, time.March, 9), Kind: attendance.KindWeekend, Count: 50},
		{Date: testutil.Date(2025, time.March, 16), Kind: attendance.KindWeekend, Count: 51},
		{Date: testutil.Date(2025, time.March, 23), Kind: attendance.KindWeekend, Count: 51},
		{Date: testutil.Date(2025, time.April, 2), Kind: attendance.KindMidweek, Count: 99}, // other month
	}

	agg := attendance.AggregateMonth(records, month)
	assert.Equal(t, attendance.Aggregate{
		Month:   month,
		Midweek: attendance.KindTotals{Meetings: 2, Attendees: 81, Average: 41}, // 40.5 rounds up
		Weekend: attendance.KindTotals{Meetings: 3, Attendees: 152, Average: 51},
	}, agg)

	empty := attendance.AggregateMonth(nil, month)
	assert.Equal(t, attendance.KindTotals{}, empty.Midweek)
	assert.Equal(t, attendance.KindTotals{}, empty.Weekend)
}

func setup(t *testing.T) *attendance.Service {
	validate, translator := core.NewValidator()
	attendance.InitValidators(validate, translator)
	repo := inmemdb.NewAttendanceRepository(inmemdb.Open())
	return attendance.NewService(repo, validate, logsvc.NewNopLogger())
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	tests := []struct {
		name      string
		nr        attendance.NewRecord
		wantField string
	}{
		{name: "missing date", nr: attendance.NewRecord{Kind: attendance.KindMidweek, Count: 10}, wantField: "date"},
		{name: "invalid kind", nr: attendance.NewRecord{Date: testutil.Date(2025, time.March, 5), Kind: "sunday"}, wantField: "kind"},
		{name: "negative count", nr: attendance.NewRecord{Date: testutil.Date(2025, time.March, 5), Kind: attendance.KindWeekend, Count: -1}, wantField: "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.nr)
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			assert.Equal(t, tt.wantField, vErrs[0].Field())
		})
	}

	rec, err := svc.Record(ctx, attendance.NewRecord{Date: testutil.Date(2025, time.March, 5), Kind: attendance.KindMidweek, Count: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	agg, err := svc.GetAggregate(ctx, calendar.MustParseMonth("2025-03"))
	require.NoError(t, err)
	assert.Equal(t, attendance.KindTotals{Meetings: 1, Attendees: 30, Average: 30}, agg.Midweek)
}

func TestService_Update_Delete(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)
	march, april := calendar.MustParseMonth("2025-03"), calendar.MustParseMonth("2025-04")

	rec, err := svc.Record(ctx, attendance.NewRecord{Date: testutil.Date(2025, time.March, 30), Kind: attendance.KindWeekend, Count: 60})
	require.NoError(t, err)
	_, err = svc.Record(ctx, attendance.NewRecord{Date: testutil.Date(2025, time.March, 23), Kind: attendance.KindWeekend, Count: 40})
	require.NoError(t, err)

	agg, err := svc.GetAggregate(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, attendance.KindTotals{Meetings: 2, Attendees: 100, Average: 50}, agg.Weekend)

	// moving the record to april recomputes both months
	_, err = svc.Update(ctx, rec.ID, attendance.UpdateRecord{Date: testutil.Date(2025, time.April, 6), Kind: attendance.KindWeekend, Count: 62})
	require.NoError(t, err)
	agg, err = svc.GetAggregate(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, attendance.KindTotals{Meetings: 1, Attendees: 40, Average: 40}, agg.Weekend)
	agg, err = svc.GetAggregate(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, attendance.KindTotals{Meetings: 1, Attendees: 62, Average: 62}, agg.Weekend)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	agg, err = svc.GetAggregate(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, attendance.KindTotals{}, agg.Weekend)

	assert.Equal(t, attendance.ErrNotFound, svc.Delete(ctx, rec.ID))
}
