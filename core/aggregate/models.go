package aggregate

import (
	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

// CategoryTotals sums the reports of one category for one month.
type CategoryTotals struct {
	Reports      int     `json:"reports"`
	Hours        float64 `json:"hours"` // including bonus hours
	BibleStudies int     `json:"bible_studies"`
	StudyReports int     `json:"study_reports"` // reports with at least one bible study
}

func (ct *CategoryTotals) add(r report.ActivityReport) {
	ct.Reports++
	ct.Hours += r.TotalHours()
	ct.BibleStudies += r.BibleStudies
	if r.BibleStudies > 0 {
		ct.StudyReports++
	}
}

func (ct CategoryTotals) plus(o CategoryTotals) CategoryTotals {
	return CategoryTotals{
		Reports:      ct.Reports + o.Reports,
		Hours:        ct.Hours + o.Hours,
		BibleStudies: ct.BibleStudies + o.BibleStudies,
		StudyReports: ct.StudyReports + o.StudyReports,
	}
}

// MonthlyAggregate is the congregation's summary for one month. It is always derived, never edited.
type MonthlyAggregate struct {
	Month              calendar.Month `json:"month"`
	Publishers         CategoryTotals `json:"publishers"`
	Auxiliary          CategoryTotals `json:"auxiliary"`
	Regular            CategoryTotals `json:"regular"`
	PotentialReporters int            `json:"potential_reporters"` // publishers currently active or irregular
	NewPublishers      int            `json:"new_publishers"`      // publishers whose start date is in Month
}

// New returns the aggregate of month with the publisher counts filled in and no reports.
func New(month calendar.Month, pubs []publisher.Publisher) MonthlyAggregate {
	agg := MonthlyAggregate{Month: month}
	for _, p := range pubs {
		if p.Status.IsPotentialReporter() {
			agg.PotentialReporters++
		}
		if month.Contains(p.StartDate()) {
			agg.NewPublishers++
		}
	}
	return agg
}

// Category returns the totals block of the category c.
func (agg *MonthlyAggregate) Category(c report.Category) *CategoryTotals {
	switch c {
	case report.CategoryAuxiliary:
		return &agg.Auxiliary
	case report.CategoryRegular:
		return &agg.Regular
	}
	return &agg.Publishers
}

// Add counts r in its category.
func (agg *MonthlyAggregate) Add(r report.ActivityReport) {
	agg.Category(report.Classify(r)).add(r)
}

// Totals sums the three categories.
func (agg MonthlyAggregate) Totals() CategoryTotals {
	return agg.Publishers.plus(agg.Auxiliary).plus(agg.Regular)
}

// SumTotals sums the Totals of aggs, eg. over a service year.
func SumTotals(aggs []MonthlyAggregate) CategoryTotals {
	var sum CategoryTotals
	for _, agg := range aggs {
		sum = sum.plus(agg.Totals())
	}
	return sum
}
