package attendance

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

var (
	// errors
	ErrNotFound          = errors.New("attendance record not found")
	ErrAggregateNotFound = errors.New("attendance aggregate not found")
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		SaveRecord(ctx context.Context, rec Record) (Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
		// QueryRecords returns the records dated in [from, to], both months included, ordered by date.
		QueryRecords(ctx context.Context, from, to calendar.Month) ([]Record, error)
		GetAggregate(ctx context.Context, month calendar.Month) (Aggregate, error)
		SaveAggregate(ctx context.Context, agg Aggregate) error
	}

	// Service keeps the monthly aggregates in sync with the records: every write recomputes the
	// month(s) it touches.
	Service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, logger: logger}
}

func (svc *Service) Record(ctx context.Context, nr NewRecord) (Record, error) {
	if err := svc.validate.Struct(nr); err != nil {
		return Record{}, err
	}

	now := nowFunc().UTC()
	rec, err := svc.repo.SaveRecord(ctx, Record{
		ID:        uuid.New().String(),
		Date:      nr.Date.UTC(),
		Kind:      nr.Kind,
		Count:     nr.Count,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "saving attendance record")
	}

	if _, err = svc.AggregateMonth(ctx, rec.Month()); err != nil {
		return rec, err
	}
	return rec, nil
}

func (svc *Service) Update(ctx context.Context, id string, ur UpdateRecord) (Record, error) {
	if err := svc.validate.Struct(ur); err != nil {
		return Record{}, err
	}
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	oldMonth := rec.Month()

	rec.Date = ur.Date.UTC()
	rec.Kind = ur.Kind
	rec.Count = ur.Count
	rec.UpdatedAt = nowFunc().UTC()
	if rec, err = svc.repo.SaveRecord(ctx, rec); err != nil {
		return Record{}, errors.Wrap(err, "saving attendance record")
	}

	if _, err = svc.AggregateMonth(ctx, rec.Month()); err != nil {
		return rec, err
	}
	if oldMonth != rec.Month() {
		if _, err = svc.AggregateMonth(ctx, oldMonth); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	rec, err := svc.repo.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteRecord(ctx, id); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	_, err = svc.AggregateMonth(ctx, rec.Month())
	return err
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecord(ctx, id)
}

func (svc *Service) Query(ctx context.Context, from, to calendar.Month) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, from, to)
}

// AggregateMonth recomputes and overwrites the attendance aggregate of month.
func (svc *Service) AggregateMonth(ctx context.Context, month calendar.Month) (Aggregate, error) {
	records, err := svc.repo.QueryRecords(ctx, month, month)
	if err != nil {
		return Aggregate{}, errors.Wrapf(err, "querying attendance of %s", month)
	}
	agg := AggregateMonth(records, month)
	if err = svc.repo.SaveAggregate(ctx, agg); err != nil {
		return Aggregate{}, errors.Wrapf(err, "saving attendance aggregate of %s", month)
	}

	svc.logger.Debug("attendance aggregated", logrus.Fields{
		"month":   month.String(),
		"midweek": agg.Midweek.Meetings,
		"weekend": agg.Weekend.Meetings,
	})
	return agg, nil
}

func (svc *Service) GetAggregate(ctx context.Context, month calendar.Month) (Aggregate, error) {
	return svc.repo.GetAggregate(ctx, month)
}
