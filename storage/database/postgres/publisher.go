package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core/publisher"
)

const publisherColumns = `id, name, congregation_date, baptism_date, status, pioneer_tier, status_updated_at, created_at, updated_at`

type publisherRow struct {
	ID               string       `db:"id"`
	Name             string       `db:"name"`
	CongregationDate sql.NullTime `db:"congregation_date"`
	BaptismDate      sql.NullTime `db:"baptism_date"`
	Status           string       `db:"status"`
	PioneerTier      string       `db:"pioneer_tier"`
	StatusUpdatedAt  sql.NullTime `db:"status_updated_at"`
	CreatedAt        sql.NullTime `db:"created_at"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

func newPublisherRow(pub publisher.Publisher) publisherRow {
	return publisherRow{
		ID:               pub.ID,
		Name:             pub.Name,
		CongregationDate: nullTime(pub.CongregationDate),
		BaptismDate:      nullTime(pub.BaptismDate),
		Status:           string(pub.Status),
		PioneerTier:      string(pub.PioneerTier),
		StatusUpdatedAt:  nullTime(pub.StatusUpdatedAt),
		CreatedAt:        nullTime(pub.CreatedAt),
		UpdatedAt:        nullTime(pub.UpdatedAt),
	}
}

// toPublisher goes through publisher.Normalize so imported rows get the same treatment as documents.
func (row publisherRow) toPublisher() publisher.Publisher {
	return publisher.Normalize(map[string]interface{}{
		"_id":              row.ID,
		"name":             row.Name,
		"congregationDate": timeOf(row.CongregationDate),
		"baptismDate":      timeOf(row.BaptismDate),
		"status":           row.Status,
		"pioneerTier":      row.PioneerTier,
		"statusUpdatedAt":  timeOf(row.StatusUpdatedAt),
		"createdAt":        timeOf(row.CreatedAt),
		"updatedAt":        timeOf(row.UpdatedAt),
	})
}

type publisherRepository struct {
	db *sqlx.DB
}

func NewPublisherRepository(db *sqlx.DB) publisher.Repository {
	return &publisherRepository{db: db}
}

func (repo *publisherRepository) CreatePublisher(ctx context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	q := `INSERT INTO publishers (` + publisherColumns + `)
		VALUES (:id, :name, :congregation_date, :baptism_date, :status, :pioneer_tier, :status_updated_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newPublisherRow(pub)); err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "inserting publisher")
	}
	return pub, nil
}

func (repo *publisherRepository) GetPublisher(ctx context.Context, id string) (publisher.Publisher, error) {
	var row publisherRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+publisherColumns+` FROM publishers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return publisher.Publisher{}, publisher.ErrNotFound
	}
	if err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "selecting publisher")
	}
	return row.toPublisher(), nil
}

func (repo *publisherRepository) QueryPublishers(ctx context.Context) ([]publisher.Publisher, error) {
	var rows []publisherRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+publisherColumns+` FROM publishers ORDER BY name, id`); err != nil {
		return nil, errors.Wrap(err, "selecting publishers")
	}
	pubs := make([]publisher.Publisher, 0, len(rows))
	for _, row := range rows {
		pubs = append(pubs, row.toPublisher())
	}
	return pubs, nil
}

func (repo *publisherRepository) UpdatePublisher(ctx context.Context, pub publisher.Publisher) (publisher.Publisher, error) {
	row := newPublisherRow(pub)
	var updated publisherRow
	err := repo.db.GetContext(ctx, &updated, `
		UPDATE publishers
		SET name = $2, congregation_date = $3, baptism_date = $4, pioneer_tier = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+publisherColumns,
		row.ID, row.Name, row.CongregationDate, row.BaptismDate, row.PioneerTier, row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return publisher.Publisher{}, publisher.ErrNotFound
	}
	if err != nil {
		return publisher.Publisher{}, errors.Wrap(err, "updating publisher")
	}
	return updated.toPublisher(), nil
}

func (repo *publisherRepository) UpdatePublisherStatus(ctx context.Context, id string, status publisher.Status, updatedAt time.Time) error {
	res, err := repo.db.ExecContext(
		ctx,
		`UPDATE publishers SET status = $2, status_updated_at = $3 WHERE id = $1`,
		id, string(status), nullTime(updatedAt),
	)
	if err != nil {
		return errors.Wrap(err, "updating publisher status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return publisher.ErrNotFound
	}
	return nil
}
