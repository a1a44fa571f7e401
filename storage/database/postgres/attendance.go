package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/calendar"
)

type (
	recordRow struct {
		ID        string    `db:"id"`
		Date      time.Time `db:"date"`
		Kind      string    `db:"kind"`
		Count     int       `db:"count"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	attendanceAggregateRow struct {
		Month            string `db:"month"`
		MidweekMeetings  int    `db:"midweek_meetings"`
		MidweekAttendees int    `db:"midweek_attendees"`
		MidweekAverage   int    `db:"midweek_average"`
		WeekendMeetings  int    `db:"weekend_meetings"`
		WeekendAttendees int    `db:"weekend_attendees"`
		WeekendAverage   int    `db:"weekend_average"`
	}
)

func (row recordRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		Date:      row.Date.UTC(),
		Kind:      attendance.MeetingKind(row.Kind),
		Count:     row.Count,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	row := recordRow{
		ID:        rec.ID,
		Date:      rec.Date.UTC(),
		Kind:      string(rec.Kind),
		Count:     rec.Count,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance (id, date, kind, count, created_at, updated_at)
		VALUES (:id, :date, :kind, :count, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date, kind = EXCLUDED.kind, count = EXCLUDED.count, updated_at = EXCLUDED.updated_at`,
		row,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, id string) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, date, kind, count, created_at, updated_at FROM attendance WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, from, to calendar.Month) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, date, kind, count, created_at, updated_at FROM attendance
		WHERE date >= $1 AND date < $2
		ORDER BY date, id`,
		from.FirstDay(), to.Add(1).FirstDay(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (repo *attendanceRepository) GetAggregate(ctx context.Context, month calendar.Month) (attendance.Aggregate, error) {
	var row attendanceAggregateRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance_aggregates WHERE month = $1`, month.String())
	if err == sql.ErrNoRows {
		return attendance.Aggregate{}, attendance.ErrAggregateNotFound
	}
	if err != nil {
		return attendance.Aggregate{}, errors.Wrap(err, "selecting attendance aggregate")
	}
	return attendance.Aggregate{
		Month:   month,
		Midweek: attendance.KindTotals{Meetings: row.MidweekMeetings, Attendees: row.MidweekAttendees, Average: row.MidweekAverage},
		Weekend: attendance.KindTotals{Meetings: row.WeekendMeetings, Attendees: row.WeekendAttendees, Average: row.WeekendAverage},
	}, nil
}

func (repo *attendanceRepository) SaveAggregate(ctx context.Context, agg attendance.Aggregate) error {
	row := attendanceAggregateRow{
		Month:            agg.Month.String(),
		MidweekMeetings:  agg.Midweek.Meetings,
		MidweekAttendees: agg.Midweek.Attendees,
		MidweekAverage:   agg.Midweek.Average,
		WeekendMeetings:  agg.Weekend.Meetings,
		WeekendAttendees: agg.Weekend.Attendees,
		WeekendAverage:   agg.Weekend.Average,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance_aggregates (month, midweek_meetings, midweek_attendees, midweek_average, weekend_meetings, weekend_attendees, weekend_average)
		VALUES (:month, :midweek_meetings, :midweek_attendees, :midweek_average, :weekend_meetings, :weekend_attendees, :weekend_average)
		ON CONFLICT (month) DO UPDATE SET
			midweek_meetings = EXCLUDED.midweek_meetings,
			midweek_attendees = EXCLUDED.midweek_attendees,
			midweek_average = EXCLUDED.midweek_average,
			weekend_meetings = EXCLUDED.weekend_meetings,
			weekend_attendees = EXCLUDED.weekend_attendees,
			weekend_average = EXCLUDED.weekend_average`,
		row,
	)
	return errors.Wrap(err, "saving attendance aggregate")
}
