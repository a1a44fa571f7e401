package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

const (
	// LockKey names the run lock held while auditing.
	LockKey = "ministry:audit"

	DefaultLookbackMonths = 24
)

type (
	// DuplicateEntry lists the months in which a publisher has more than one stored report,
	// and the documents that were left out of the aggregates.
	DuplicateEntry struct {
		PublisherID  string           `json:"publisher_id"`
		Months       []calendar.Month `json:"months"`
		DiscardedIDs []string         `json:"discarded_ids"`
	}

	// OrphanEntry lists the months reported by a publisher id unknown to the congregation.
	OrphanEntry struct {
		PublisherID string           `json:"publisher_id"`
		Months      []calendar.Month `json:"months"`
	}

	Result struct {
		RunDate        time.Time                    `json:"run_date"`
		From           calendar.Month               `json:"from"`
		To             calendar.Month               `json:"to"`
		ReportsScanned int                          `json:"reports_scanned"`
		Months         []aggregate.MonthlyAggregate `json:"months"`
		Duplicates     []DuplicateEntry             `json:"duplicates"`
		Orphans        []OrphanEntry                `json:"orphans"`
	}

	Counts struct {
		Months     int `json:"months"`
		Reports    int `json:"reports"`
		Duplicates int `json:"duplicates"` // discarded documents
		Orphans    int `json:"orphans"`    // orphaned reports
	}

	Engine struct {
		publishers     publisher.Repository
		reports        report.Repository
		aggregates     aggregate.Repository
		locker         core.Locker
		logger         core.Logger
		lookbackMonths int
	}
)

func NewEngine(
	pubRepo publisher.Repository,
	reportRepo report.Repository,
	aggRepo aggregate.Repository,
	locker core.Locker,
	logger core.Logger,
	lookbackMonths int,
) *Engine {
	if locker == nil {
		locker = core.NewNopLocker()
	}
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultLookbackMonths
	}
	return &Engine{
		publishers:     pubRepo,
		reports:        reportRepo,
		aggregates:     aggRepo,
		locker:         locker,
		logger:         logger,
		lookbackMonths: lookbackMonths,
	}
}

// Counts summarizes the result.
func (res Result) Counts() Counts {
	c := Counts{Months: len(res.Months), Reports: res.ReportsScanned}
	for _, d := range res.Duplicates {
		c.Duplicates += len(d.DiscardedIDs)
	}
	for _, o := range res.Orphans {
		c.Orphans += len(o.Months)
	}
	return c
}

// Window returns the first & last months audited for runDate.
func (e *Engine) Window(runDate time.Time) (from, to calendar.Month) {
	to = calendar.MonthOf(runDate.UTC())
	return to.Add(1 - e.lookbackMonths), to
}

// Run recomputes the aggregates of every month of the lookback window that has reports,
// and returns the duplicates & orphans found on the way. Publishers and reports are never modified.
// The aggregates are saved in one batch: on error none of them is.
func (e *Engine) Run(ctx context.Context, runDate time.Time) (Result, error) {
	var res Result
	err := core.WithLock(ctx, e.locker, LockKey, func() error {
		var err error
		res, err = e.run(ctx, runDate.UTC())
		return err
	})
	return res, err
}

func (e *Engine) run(ctx context.Context, runDate time.Time) (Result, error) {
	from, to := e.Window(runDate)
	res := Result{RunDate: runDate, From: from, To: to}

	pubs, err := e.publishers.QueryPublishers(ctx)
	if err != nil {
		return res, errors.Wrap(err, "querying publishers")
	}
	members := make(map[string]struct{}, len(pubs))
	for _, p := range pubs {
		members[p.ID] = struct{}{}
	}

	var docs []report.ActivityReport
	err = e.reports.ScanReports(ctx, from, to, func(r report.ActivityReport) error {
		docs = append(docs, r)
		return nil
	})
	if err != nil {
		return res, errors.Wrap(err, "scanning reports")
	}
	res.ReportsScanned = len(docs)

	ledger := Audit(docs, members)
	res.Duplicates = ledger.Duplicates
	res.Orphans = ledger.Orphans

	res.Months = Recompute(ledger.Kept, pubs)
	if len(res.Months) > 0 {
		if err = e.aggregates.SaveAggregates(ctx, res.Months); err != nil {
			return res, errors.Wrap(err, "saving aggregates")
		}
	}

	counts := res.Counts()
	e.logger.Info(fmt.Sprintf("audit of %s..%s done", from, to), logrus.Fields{
		"months":     counts.Months,
		"reports":    counts.Reports,
		"duplicates": counts.Duplicates,
		"orphans":    counts.Orphans,
	})
	return res, nil
}

// Ledger is the outcome of auditing a set of report documents.
type Ledger struct {
	Kept       []report.ActivityReport // one report per (publisher, month)
	Duplicates []DuplicateEntry
	Orphans    []OrphanEntry
}

type slot struct {
	publisherID string
	month       calendar.Month
}

// Audit keeps one report per (publisher, month), choosing with report.Prefer, and records the
// discarded documents and the reports of publishers missing from members.
// Kept and both ledgers are sorted by publisher id, then month.
func Audit(docs []report.ActivityReport, members map[string]struct{}) Ledger {
	kept := make(map[slot]report.ActivityReport, len(docs))
	discarded := make(map[slot][]string)
	for _, r := range docs {
		k := slot{publisherID: r.PublisherID, month: r.Month}
		prev, ok := kept[k]
		if !ok {
			kept[k] = r
			continue
		}
		if report.Prefer(r, prev) {
			kept[k] = r
			discarded[k] = append(discarded[k], prev.ID)
		} else {
			discarded[k] = append(discarded[k], r.ID)
		}
	}

	slots := make([]slot, 0, len(kept))
	for k := range kept {
		slots = append(slots, k)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].publisherID != slots[j].publisherID {
			return slots[i].publisherID < slots[j].publisherID
		}
		return slots[i].month.Before(slots[j].month)
	})

	var ledger Ledger
	for _, k := range slots {
		ledger.Kept = append(ledger.Kept, kept[k])

		if ids, ok := discarded[k]; ok {
			n := len(ledger.Duplicates)
			if n == 0 || ledger.Duplicates[n-1].PublisherID != k.publisherID {
				ledger.Duplicates = append(ledger.Duplicates, DuplicateEntry{PublisherID: k.publisherID})
				n++
			}
			sort.Strings(ids)
			d := &ledger.Duplicates[n-1]
			d.Months = append(d.Months, k.month)
			d.DiscardedIDs = append(d.DiscardedIDs, ids...)
		}

		if _, ok := members[k.publisherID]; !ok {
			n := len(ledger.Orphans)
			if n == 0 || ledger.Orphans[n-1].PublisherID != k.publisherID {
				ledger.Orphans = append(ledger.Orphans, OrphanEntry{PublisherID: k.publisherID})
				n++
			}
			ledger.Orphans[n-1].Months = append(ledger.Orphans[n-1].Months, k.month)
		}
	}
	return ledger
}

// Recompute builds one aggregate per month present in reports, counting every report that has an
// effect (participated or hours > 0), orphans included. reports must hold one report per
// (publisher, month), as Audit's Kept does. The aggregates are in chronological order.
func Recompute(reports []report.ActivityReport, pubs []publisher.Publisher) []aggregate.MonthlyAggregate {
	byMonth := make(map[calendar.Month][]report.ActivityReport)
	for _, r := range reports {
		byMonth[r.Month] = append(byMonth[r.Month], r)
	}

	months := make([]calendar.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	aggs := make([]aggregate.MonthlyAggregate, 0, len(months))
	for _, m := range months {
		aggs = append(aggs, aggregate.Fold(m, pubs, byMonth[m], report.HasEffect))
	}
	return aggs
}
