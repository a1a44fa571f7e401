package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
)

const aggregateColumns = `month,
	publishers_reports, publishers_hours, publishers_studies, publishers_study_reports,
	auxiliary_reports, auxiliary_hours, auxiliary_studies, auxiliary_study_reports,
	regular_reports, regular_hours, regular_studies, regular_study_reports,
	potential_reporters, new_publishers`

const upsertAggregateQuery = `
	INSERT INTO monthly_aggregates (` + aggregateColumns + `)
	VALUES (:month,
		:publishers_reports, :publishers_hours, :publishers_studies, :publishers_study_reports,
		:auxiliary_reports, :auxiliary_hours, :auxiliary_studies, :auxiliary_study_reports,
		:regular_reports, :regular_hours, :regular_studies, :regular_study_reports,
		:potential_reporters, :new_publishers)
	ON CONFLICT (month) DO UPDATE SET
		publishers_reports = EXCLUDED.publishers_reports,
		publishers_hours = EXCLUDED.publishers_hours,
		publishers_studies = EXCLUDED.publishers_studies,
		publishers_study_reports = EXCLUDED.publishers_study_reports,
		auxiliary_reports = EXCLUDED.auxiliary_reports,
		auxiliary_hours = EXCLUDED.auxiliary_hours,
		auxiliary_studies = EXCLUDED.auxiliary_studies,
		auxiliary_study_reports = EXCLUDED.auxiliary_study_reports,
		regular_reports = EXCLUDED.regular_reports,
		regular_hours = EXCLUDED.regular_hours,
		regular_studies = EXCLUDED.regular_studies,
		regular_study_reports = EXCLUDED.regular_study_reports,
		potential_reporters = EXCLUDED.potential_reporters,
		new_publishers = EXCLUDED.new_publishers`

type aggregateRow struct {
	Month                  string  `db:"month"`
	PublishersReports      int     `db:"publishers_reports"`
	PublishersHours        float64 `db:"publishers_hours"`
	PublishersStudies      int     `db:"publishers_studies"`
	PublishersStudyReports int     `db:"publishers_study_reports"`
	AuxiliaryReports       int     `db:"auxiliary_reports"`
	AuxiliaryHours         float64 `db:"auxiliary_hours"`
	AuxiliaryStudies       int     `db:"auxiliary_studies"`
	AuxiliaryStudyReports  int     `db:"auxiliary_study_reports"`
	RegularReports         int     `db:"regular_reports"`
	RegularHours           float64 `db:"regular_hours"`
	RegularStudies         int     `db:"regular_studies"`
	RegularStudyReports    int     `db:"regular_study_reports"`
	PotentialReporters     int     `db:"potential_reporters"`
	NewPublishers          int     `db:"new_publishers"`
}

func newAggregateRow(agg aggregate.MonthlyAggregate) aggregateRow {
	return aggregateRow{
		Month:                  agg.Month.String(),
		PublishersReports:      agg.Publishers.Reports,
		PublishersHours:        agg.Publishers.Hours,
		PublishersStudies:      agg.Publishers.BibleStudies,
		PublishersStudyReports: agg.Publishers.StudyReports,
		AuxiliaryReports:       agg.Auxiliary.Reports,
		AuxiliaryHours:         agg.Auxiliary.Hours,
		AuxiliaryStudies:       agg.Auxiliary.BibleStudies,
		AuxiliaryStudyReports:  agg.Auxiliary.StudyReports,
		RegularReports:         agg.Regular.Reports,
		RegularHours:           agg.Regular.Hours,
		RegularStudies:         agg.Regular.BibleStudies,
		RegularStudyReports:    agg.Regular.StudyReports,
		PotentialReporters:     agg.PotentialReporters,
		NewPublishers:          agg.NewPublishers,
	}
}

func (row aggregateRow) toAggregate() (aggregate.MonthlyAggregate, error) {
	month, err := calendar.ParseMonth(row.Month)
	if err != nil {
		return aggregate.MonthlyAggregate{}, errors.Wrapf(err, "aggregate %q", row.Month)
	}
	return aggregate.MonthlyAggregate{
		Month: month,
		Publishers: aggregate.CategoryTotals{
			Reports:      row.PublishersReports,
			Hours:        row.PublishersHours,
			BibleStudies: row.PublishersStudies,
			StudyReports: row.PublishersStudyReports,
		},
		Auxiliary: aggregate.CategoryTotals{
			Reports:      row.AuxiliaryReports,
			Hours:        row.AuxiliaryHours,
			BibleStudies: row.AuxiliaryStudies,
			StudyReports: row.AuxiliaryStudyReports,
		},
		Regular: aggregate.CategoryTotals{
			Reports:      row.RegularReports,
			Hours:        row.RegularHours,
			BibleStudies: row.RegularStudies,
			StudyReports: row.RegularStudyReports,
		},
		PotentialReporters: row.PotentialReporters,
		NewPublishers:      row.NewPublishers,
	}, nil
}

type aggregateRepository struct {
	db *sqlx.DB
}

func NewAggregateRepository(db *sqlx.DB) aggregate.Repository {
	return &aggregateRepository{db: db}
}

func (repo *aggregateRepository) GetAggregate(ctx context.Context, month calendar.Month) (aggregate.MonthlyAggregate, error) {
	var row aggregateRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+aggregateColumns+` FROM monthly_aggregates WHERE month = $1`, month.String())
	if err == sql.ErrNoRows {
		return aggregate.MonthlyAggregate{}, aggregate.ErrNotFound
	}
	if err != nil {
		return aggregate.MonthlyAggregate{}, errors.Wrap(err, "selecting aggregate")
	}
	return row.toAggregate()
}

func (repo *aggregateRepository) SaveAggregate(ctx context.Context, agg aggregate.MonthlyAggregate) error {
	_, err := repo.db.NamedExecContext(ctx, upsertAggregateQuery, newAggregateRow(agg))
	return errors.Wrapf(err, "saving aggregate of %s", agg.Month)
}

func (repo *aggregateRepository) SaveAggregates(ctx context.Context, aggs []aggregate.MonthlyAggregate) error {
	return withTx(ctx, repo.db, nil, func(tx *sqlx.Tx) error {
		for _, agg := range aggs {
			if _, err := tx.NamedExecContext(ctx, upsertAggregateQuery, newAggregateRow(agg)); err != nil {
				return errors.Wrapf(err, "saving aggregate of %s", agg.Month)
			}
		}
		return nil
	})
}

func (repo *aggregateRepository) QueryAggregates(ctx context.Context, from, to calendar.Month) ([]aggregate.MonthlyAggregate, error) {
	var rows []aggregateRow
	q := `SELECT ` + aggregateColumns + ` FROM monthly_aggregates WHERE month BETWEEN $1 AND $2 ORDER BY month`
	if err := repo.db.SelectContext(ctx, &rows, q, from.String(), to.String()); err != nil {
		return nil, errors.Wrap(err, "selecting aggregates")
	}

	aggs := make([]aggregate.MonthlyAggregate, 0, len(rows))
	for _, row := range rows {
		agg, err := row.toAggregate()
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}
