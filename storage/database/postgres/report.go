package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/report"
)

const reportColumns = `id, publisher_id, month, participated, hours, bonus_hours, bible_studies, service_type, auxiliary, note, created_at, updated_at`

type reportRow struct {
	ID           string       `db:"id"`
	PublisherID  string       `db:"publisher_id"`
	Month        string       `db:"month"`
	Participated bool         `db:"participated"`
	Hours        float64      `db:"hours"`
	BonusHours   float64      `db:"bonus_hours"`
	BibleStudies int          `db:"bible_studies"`
	ServiceType  string       `db:"service_type"`
	Auxiliary    bool         `db:"auxiliary"`
	Note         string       `db:"note"`
	CreatedAt    sql.NullTime `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}

func newReportRow(r report.ActivityReport) reportRow {
	return reportRow{
		ID:           r.ID,
		PublisherID:  r.PublisherID,
		Month:        r.Month.String(),
		Participated: r.Participated,
		Hours:        r.Hours,
		BonusHours:   r.BonusHours,
		BibleStudies: r.BibleStudies,
		ServiceType:  string(r.ServiceType),
		Auxiliary:    r.Auxiliary,
		Note:         r.Note,
		CreatedAt:    nullTime(r.CreatedAt),
		UpdatedAt:    nullTime(r.UpdatedAt),
	}
}

func (row reportRow) toReport() report.ActivityReport {
	return report.Normalize(map[string]interface{}{
		"_id":            row.ID,
		"publisherId":    row.PublisherID,
		"referenceMonth": row.Month,
		"participated":   row.Participated,
		"hours":          row.Hours,
		"bonusHours":     row.BonusHours,
		"bibleStudies":   row.BibleStudies,
		"serviceType":    row.ServiceType,
		"auxiliary":      row.Auxiliary,
		"note":           row.Note,
		"createdAt":      timeOf(row.CreatedAt),
		"updatedAt":      timeOf(row.UpdatedAt),
	})
}

func toReports(rows []reportRow) []report.ActivityReport {
	reports := make([]report.ActivityReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toReport())
	}
	return reports
}

const upsertReportQuery = `
	INSERT INTO reports (` + reportColumns + `)
	VALUES (:id, :publisher_id, :month, :participated, :hours, :bonus_hours, :bible_studies, :service_type, :auxiliary, :note, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		publisher_id = EXCLUDED.publisher_id,
		month = EXCLUDED.month,
		participated = EXCLUDED.participated,
		hours = EXCLUDED.hours,
		bonus_hours = EXCLUDED.bonus_hours,
		bible_studies = EXCLUDED.bible_studies,
		service_type = EXCLUDED.service_type,
		auxiliary = EXCLUDED.auxiliary,
		note = EXCLUDED.note,
		created_at = EXCLUDED.created_at,
		updated_at = EXCLUDED.updated_at`

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func selectSlot(ctx context.Context, q sqlx.QueryerContext, publisherID string, month calendar.Month, lock bool) ([]reportRow, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE publisher_id = $1 AND month = $2 ORDER BY seq`
	if lock {
		query += ` FOR UPDATE`
	}
	var rows []reportRow
	err := sqlx.SelectContext(ctx, q, &rows, query, publisherID, month.String())
	return rows, errors.Wrap(err, "selecting reports")
}

func (repo *reportRepository) GetReport(ctx context.Context, publisherID string, month calendar.Month) (report.ActivityReport, error) {
	rows, err := selectSlot(ctx, repo.db, publisherID, month, false)
	if err != nil {
		return report.ActivityReport{}, err
	}
	reports := report.Dedupe(toReports(rows))
	if len(reports) == 0 {
		return report.ActivityReport{}, report.ErrNotFound
	}
	return reports[0], nil
}

// UpsertReport writes r under its canonical key and drops the legacy rows of the same slot.
func (repo *reportRepository) UpsertReport(ctx context.Context, r report.ActivityReport) (report.ActivityReport, error) {
	r.ID = r.Key()
	err := withTx(ctx, repo.db, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sqlx.Tx) error {
		rows, err := selectSlot(ctx, tx, r.PublisherID, r.Month, true)
		if err != nil {
			return err
		}
		if ids := legacyRowIDs(rows, r.ID); len(ids) > 0 {
			if _, err = tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
				return errors.Wrap(err, "deleting legacy reports")
			}
		}
		_, err = tx.NamedExecContext(ctx, upsertReportQuery, newReportRow(r))
		return errors.Wrap(err, "upserting report")
	})
	if err != nil {
		return report.ActivityReport{}, err
	}
	return r, nil
}

// legacyRowIDs returns the ids of the rows not stored under key.
func legacyRowIDs(rows []reportRow, key string) []string {
	var ids []string
	for _, row := range rows {
		if row.ID != key {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

// MoveReport runs serializable so that two moves onto the same month cannot both succeed.
func (repo *reportRepository) MoveReport(ctx context.Context, oldMonth calendar.Month, r report.ActivityReport) (report.ActivityReport, error) {
	r.ID = r.Key()
	err := withTx(ctx, repo.db, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sqlx.Tx) error {
		old, err := selectSlot(ctx, tx, r.PublisherID, oldMonth, true)
		if err != nil {
			return err
		}
		if len(old) == 0 {
			return report.ErrNotFound
		}
		taken, err := selectSlot(ctx, tx, r.PublisherID, r.Month, true)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return report.ErrReportExists
		}

		ids := make([]string, 0, len(old))
		for _, row := range old {
			ids = append(ids, row.ID)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
			return errors.Wrap(err, "deleting old report")
		}
		if _, err = tx.NamedExecContext(ctx, upsertReportQuery, newReportRow(r)); err != nil {
			return errors.Wrap(err, "inserting moved report")
		}
		return nil
	})
	if err != nil {
		return report.ActivityReport{}, err
	}
	return r, nil
}

func (repo *reportRepository) DeleteReport(ctx context.Context, publisherID string, month calendar.Month) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM reports WHERE publisher_id = $1 AND month = $2`, publisherID, month.String())
	if err != nil {
		return errors.Wrap(err, "deleting report")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.ErrNotFound
	}
	return nil
}

func (repo *reportRepository) QueryReportsByMonth(ctx context.Context, month calendar.Month) ([]report.ActivityReport, error) {
	var rows []reportRow
	q := `SELECT ` + reportColumns + ` FROM reports WHERE month = $1 ORDER BY seq`
	if err := repo.db.SelectContext(ctx, &rows, q, month.String()); err != nil {
		return nil, errors.Wrap(err, "selecting reports")
	}
	return report.Dedupe(toReports(rows)), nil
}

func (repo *reportRepository) QueryReportsByPublisher(ctx context.Context, publisherID string, months []calendar.Month) ([]report.ActivityReport, error) {
	strs := make([]string, 0, len(months))
	for _, m := range months {
		strs = append(strs, m.String())
	}

	var rows []reportRow
	q := `SELECT ` + reportColumns + ` FROM reports WHERE publisher_id = $1 AND month = ANY($2) ORDER BY month, seq`
	if err := repo.db.SelectContext(ctx, &rows, q, publisherID, pq.Array(strs)); err != nil {
		return nil, errors.Wrap(err, "selecting reports")
	}
	return report.Dedupe(toReports(rows)), nil
}

func (repo *reportRepository) ScanReports(ctx context.Context, from, to calendar.Month, fn func(report.ActivityReport) error) error {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE month BETWEEN $1 AND $2 ORDER BY seq`
	rows, err := repo.db.QueryxContext(ctx, q, from.String(), to.String())
	if err != nil {
		return errors.Wrap(err, "scanning reports")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row reportRow
		if err = rows.StructScan(&row); err != nil {
			return errors.Wrap(err, "scanning report")
		}
		if err = fn(row.toReport()); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "iterating reports")
}
