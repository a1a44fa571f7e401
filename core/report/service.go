package report

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
)

var (
	// errors
	ErrNotFound     = errors.New("report not found")
	ErrReportExists = errors.New("a report for this publisher and month already exists")
)

var nowFunc = time.Now // mockable

type (
	// Repository stores one report per (publisher, month), keyed by Key(month, publisherID).
	Repository interface {
		GetReport(ctx context.Context, publisherID string, month calendar.Month) (ActivityReport, error)
		UpsertReport(ctx context.Context, r ActivityReport) (ActivityReport, error)
		// MoveReport atomically deletes the report stored for (r.PublisherID, oldMonth) and writes r
		// under its new key. It fails with ErrReportExists if the new key is taken.
		MoveReport(ctx context.Context, oldMonth calendar.Month, r ActivityReport) (ActivityReport, error)
		DeleteReport(ctx context.Context, publisherID string, month calendar.Month) error
		QueryReportsByMonth(ctx context.Context, month calendar.Month) ([]ActivityReport, error)
		QueryReportsByPublisher(ctx context.Context, publisherID string, months []calendar.Month) ([]ActivityReport, error)
		// ScanReports calls fn for every stored document whose month is in [from, to], in store order.
		// Unlike the other methods it may yield several documents for the same (publisher, month).
		ScanReports(ctx context.Context, from, to calendar.Month, fn func(ActivityReport) error) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Save creates or updates the report for (PublisherID, Month).
// A report whose month was edited (PreviousMonth != Month) is moved, never duplicated.
func (svc *Service) Save(ctx context.Context, sr SaveReport) (ActivityReport, error) {
	sr.PublisherID = core.CleanString(sr.PublisherID)
	sr.Month = core.CleanString(sr.Month)
	sr.PreviousMonth = core.CleanString(sr.PreviousMonth)
	if err := svc.validate.Struct(sr); err != nil {
		return ActivityReport{}, err
	}

	month, err := calendar.ParseMonth(sr.Month)
	if err != nil {
		return ActivityReport{}, core.NewFieldValidationError("month", err)
	}
	now := nowFunc().UTC()
	r := ActivityReport{
		ID:           Key(month, sr.PublisherID),
		PublisherID:  sr.PublisherID,
		Month:        month,
		Participated: sr.Participated,
		Hours:        sr.Hours,
		BonusHours:   sr.BonusHours,
		BibleStudies: sr.BibleStudies,
		ServiceType:  sr.ServiceType,
		Auxiliary:    sr.Auxiliary,
		Note:         core.CleanString(sr.Note),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.ServiceType == "" {
		r.ServiceType = TypePublisher
	}

	if sr.PreviousMonth != "" && sr.PreviousMonth != sr.Month {
		prevMonth, err := calendar.ParseMonth(sr.PreviousMonth)
		if err != nil {
			return ActivityReport{}, core.NewFieldValidationError("previous_month", err)
		}
		return svc.move(ctx, prevMonth, r)
	}

	existing, err := svc.repo.GetReport(ctx, r.PublisherID, r.Month)
	switch errors.Cause(err) {
	case nil:
		r.CreatedAt = existing.CreatedAt
	case ErrNotFound:
	default:
		return ActivityReport{}, errors.Wrap(err, "getting report")
	}

	r, err = svc.repo.UpsertReport(ctx, r)
	return r, errors.Wrap(err, "saving report")
}

func (svc *Service) move(ctx context.Context, oldMonth calendar.Month, r ActivityReport) (ActivityReport, error) {
	old, err := svc.repo.GetReport(ctx, r.PublisherID, oldMonth)
	if err != nil {
		return ActivityReport{}, err
	}
	if !old.CreatedAt.IsZero() {
		r.CreatedAt = old.CreatedAt
	}

	r, err = svc.repo.MoveReport(ctx, oldMonth, r)
	if errors.Cause(err) == ErrReportExists {
		return ActivityReport{}, core.NewFieldValidationError("month", ErrReportExists)
	}
	return r, errors.Wrap(err, "moving report")
}

func (svc *Service) Get(ctx context.Context, publisherID string, month calendar.Month) (ActivityReport, error) {
	return svc.repo.GetReport(ctx, publisherID, month)
}

func (svc *Service) Delete(ctx context.Context, publisherID string, month calendar.Month) error {
	return svc.repo.DeleteReport(ctx, publisherID, month)
}

func (svc *Service) QueryByMonth(ctx context.Context, month calendar.Month) ([]ActivityReport, error) {
	return svc.repo.QueryReportsByMonth(ctx, month)
}

func (svc *Service) QueryByPublisher(ctx context.Context, publisherID string, months []calendar.Month) ([]ActivityReport, error) {
	return svc.repo.QueryReportsByPublisher(ctx, publisherID, months)
}
