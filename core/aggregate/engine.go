package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

var (
	// errors
	ErrNotFound = errors.New("monthly aggregate not found")
)

type (
	Repository interface {
		GetAggregate(ctx context.Context, month calendar.Month) (MonthlyAggregate, error)
		SaveAggregate(ctx context.Context, agg MonthlyAggregate) error
		// SaveAggregates writes all aggregates in one atomic batch.
		SaveAggregates(ctx context.Context, aggs []MonthlyAggregate) error
		QueryAggregates(ctx context.Context, from, to calendar.Month) ([]MonthlyAggregate, error)
	}

	Engine struct {
		publishers publisher.Repository
		reports    report.Repository
		aggregates Repository
		logger     core.Logger
	}
)

func NewEngine(pubRepo publisher.Repository, reportRepo report.Repository, aggRepo Repository, logger core.Logger) *Engine {
	return &Engine{
		publishers: pubRepo,
		reports:    reportRepo,
		aggregates: aggRepo,
		logger:     logger,
	}
}

// Compute folds the reports of month into a MonthlyAggregate. Only reports of known publishers
// that explicitly participated are counted; when a publisher has several documents for the month
// the preferred one (see report.Prefer) is used.
func Compute(month calendar.Month, pubs []publisher.Publisher, reports []report.ActivityReport) MonthlyAggregate {
	members := make(map[string]bool, len(pubs))
	for _, p := range pubs {
		members[p.ID] = true
	}
	kept := make([]report.ActivityReport, 0, len(reports))
	for _, r := range reports {
		if r.Month == month && members[r.PublisherID] {
			kept = append(kept, r)
		}
	}
	return Fold(month, pubs, report.Dedupe(kept), report.IsStrictlyValid)
}

// Fold adds the reports of month for which counts returns true to a new aggregate of month.
// reports must hold at most one report per publisher.
func Fold(month calendar.Month, pubs []publisher.Publisher, reports []report.ActivityReport, counts report.Predicate) MonthlyAggregate {
	// sum in a stable order so that recomputing yields identical floats
	sorted := make([]report.ActivityReport, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PublisherID != sorted[j].PublisherID {
			return sorted[i].PublisherID < sorted[j].PublisherID
		}
		return sorted[i].ID < sorted[j].ID
	})

	agg := New(month, pubs)
	for _, r := range sorted {
		if r.Month == month && counts(r) {
			agg.Add(r)
		}
	}
	return agg
}

func (e *Engine) compute(ctx context.Context, month calendar.Month, pubs []publisher.Publisher) (MonthlyAggregate, error) {
	reports, err := e.reports.QueryReportsByMonth(ctx, month)
	if err != nil {
		return MonthlyAggregate{}, errors.Wrapf(err, "querying reports of %s", month)
	}
	return Compute(month, pubs, reports), nil
}

// Aggregate recomputes and overwrites the aggregate of month.
func (e *Engine) Aggregate(ctx context.Context, month calendar.Month) (MonthlyAggregate, error) {
	pubs, err := e.publishers.QueryPublishers(ctx)
	if err != nil {
		return MonthlyAggregate{}, errors.Wrap(err, "querying publishers")
	}
	agg, err := e.compute(ctx, month, pubs)
	if err != nil {
		return MonthlyAggregate{}, err
	}
	if err = e.aggregates.SaveAggregate(ctx, agg); err != nil {
		return MonthlyAggregate{}, errors.Wrapf(err, "saving aggregate of %s", month)
	}

	e.logger.Info(fmt.Sprintf("aggregated %s", month), logrus.Fields{
		"month":   month.String(),
		"reports": agg.Totals().Reports,
	})
	return agg, nil
}

// AggregateServiceYear recomputes the 12 months of the service year fy and saves them in one batch.
func (e *Engine) AggregateServiceYear(ctx context.Context, fy int) ([]MonthlyAggregate, error) {
	pubs, err := e.publishers.QueryPublishers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying publishers")
	}

	months := calendar.MonthsOfServiceYear(fy)
	aggs := make([]MonthlyAggregate, 0, len(months))
	for _, month := range months {
		agg, err := e.compute(ctx, month, pubs)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	if err = e.aggregates.SaveAggregates(ctx, aggs); err != nil {
		return nil, errors.Wrapf(err, "saving aggregates of service year %d", fy)
	}

	e.logger.Info(fmt.Sprintf("aggregated service year %d", fy), logrus.Fields{"service_year": fy})
	return aggs, nil
}

func (e *Engine) Get(ctx context.Context, month calendar.Month) (MonthlyAggregate, error) {
	return e.aggregates.GetAggregate(ctx, month)
}

// Query returns the stored aggregates from `from` to `to`, in chronological order.
func (e *Engine) Query(ctx context.Context, from, to calendar.Month) ([]MonthlyAggregate, error) {
	return e.aggregates.QueryAggregates(ctx, from, to)
}
