package status

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

// LockKey names the run lock held while inferring statuses.
const LockKey = "ministry:status-sync"

type (
	Config struct {
		WindowMonths   int // months inspected before the run month
		NewcomerMonths int // publishers younger than this are always active
	}

	Change struct {
		PublisherID string           `json:"publisher_id"`
		Name        string           `json:"name"`
		From        publisher.Status `json:"from"`
		To          publisher.Status `json:"to"`
	}

	Summary struct {
		RunDate   time.Time `json:"run_date"`
		Processed int       `json:"processed"`
		Skipped   int       `json:"skipped"` // protected publishers
		Updated   int       `json:"updated"`
		Changes   []Change  `json:"changes"`
	}

	Engine struct {
		publishers publisher.Repository
		reports    report.Repository
		locker     core.Locker
		logger     core.Logger
		conf       Config
	}
)

// DefaultConfig is the congregation's 6 months window & 6 months newcomer grace period.
var DefaultConfig = Config{WindowMonths: 6, NewcomerMonths: 6}

// NewConfig takes the engine settings; zero values fall back to DefaultConfig.
func NewConfig(ec core.EngineConfig) Config {
	conf := DefaultConfig
	if ec.StatusWindowMonths > 0 {
		conf.WindowMonths = ec.StatusWindowMonths
	}
	if ec.NewcomerMonths > 0 {
		conf.NewcomerMonths = ec.NewcomerMonths
	}
	return conf
}

func NewEngine(
	pubRepo publisher.Repository,
	reportRepo report.Repository,
	locker core.Locker,
	logger core.Logger,
	conf Config,
) *Engine {
	if locker == nil {
		locker = core.NewNopLocker()
	}
	return &Engine{
		publishers: pubRepo,
		reports:    reportRepo,
		locker:     locker,
		logger:     logger,
		conf:       conf,
	}
}

// Window returns the reference months of a run: the conf.WindowMonths months before the run month.
func Window(runDate time.Time, conf Config) []calendar.Month {
	current := calendar.MonthOf(runDate)
	return calendar.Range(current.Add(-conf.WindowMonths), current.Add(-1))
}

// IsNewcomer reports whether p started less than conf.NewcomerMonths calendar months before runDate.
// Publishers without a start date are never newcomers.
func IsNewcomer(p publisher.Publisher, runDate time.Time, conf Config) bool {
	return p.StartDate().AddDate(0, conf.NewcomerMonths, 0).After(runDate)
}

// Evaluate returns the inferred status of p. reports may hold any of p's reports; only those
// inside the window of runDate are considered. Protected publishers keep their status.
func Evaluate(p publisher.Publisher, reports []report.ActivityReport, runDate time.Time, conf Config) publisher.Status {
	if p.Status.IsProtected() {
		return p.Status
	}

	window := Window(runDate, conf)
	if len(window) > 0 {
		first, last := window[0], window[len(window)-1]
		for _, r := range reports {
			if r.PublisherID != p.ID || r.Month.Before(first) || r.Month.After(last) {
				continue
			}
			if report.IsValid(r) {
				return publisher.StatusActive
			}
		}
	}

	if IsNewcomer(p, runDate, conf) {
		return publisher.StatusActive
	}
	return publisher.StatusInactive
}

// Run infers the status of every publisher as of runDate and persists the ones that changed.
// A store error aborts the run; the statuses written before it are kept.
func (e *Engine) Run(ctx context.Context, runDate time.Time) (Summary, error) {
	var summary Summary
	err := core.WithLock(ctx, e.locker, LockKey, func() error {
		var err error
		summary, err = e.run(ctx, runDate.UTC())
		return err
	})
	return summary, err
}

func (e *Engine) run(ctx context.Context, runDate time.Time) (Summary, error) {
	summary := Summary{RunDate: runDate, Changes: []Change{}}

	pubs, err := e.publishers.QueryPublishers(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "querying publishers")
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].ID < pubs[j].ID })

	window := Window(runDate, e.conf)
	for _, p := range pubs {
		if p.Status.IsProtected() {
			summary.Skipped++
			continue
		}
		summary.Processed++

		if p.StartDate().Equal(calendar.VeryOld) {
			e.logger.Debug("publisher has no start date", logrus.Fields{"publisher_id": p.ID})
		}

		reports, err := e.reports.QueryReportsByPublisher(ctx, p.ID, window)
		if err != nil {
			return summary, errors.Wrapf(err, "querying reports of publisher %s", p.ID)
		}

		status := Evaluate(p, reports, runDate, e.conf)
		if status == p.Status {
			continue
		}
		if err = e.publishers.UpdatePublisherStatus(ctx, p.ID, status, runDate); err != nil {
			return summary, errors.Wrapf(err, "updating status of publisher %s", p.ID)
		}
		summary.Updated++
		summary.Changes = append(summary.Changes, Change{
			PublisherID: p.ID,
			Name:        p.Name,
			From:        p.Status,
			To:          status,
		})
	}

	e.logger.Info(fmt.Sprintf("status sync of %s done", runDate.Format("2006-01-02")), logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"updated":   summary.Updated,
	})
	return summary, nil
}
