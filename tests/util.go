package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/publisher"
	"github.com/trezcool/ministry/core/report"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreatePublisher(
	t *testing.T,
	repo publisher.Repository,
	id, name string,
	start time.Time,
	status publisher.Status,
) publisher.Publisher {
	t.Helper()

	tstamp := time.Now().UTC()
	pub := publisher.Publisher{
		ID:               id,
		Name:             name,
		CongregationDate: start,
		Status:           status,
		StatusUpdatedAt:  tstamp,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	}
	pub, err := repo.CreatePublisher(context.Background(), pub)
	if err != nil {
		t.Fatalf("CreatePublisher() failed: %v", err)
	}
	return pub
}

// NewReport returns a publisher's report of month, keyed canonically.
func NewReport(publisherID, month string, participated bool, hours float64, studies int) report.ActivityReport {
	m := calendar.MustParseMonth(month)
	return report.ActivityReport{
		ID:           report.Key(m, publisherID),
		PublisherID:  publisherID,
		Month:        m,
		Participated: participated,
		Hours:        hours,
		BibleStudies: studies,
		ServiceType:  report.TypePublisher,
		CreatedAt:    m.FirstDay().AddDate(0, 1, 0),
	}
}

func SaveReport(t *testing.T, repo report.Repository, r report.ActivityReport) report.ActivityReport {
	t.Helper()

	r, err := repo.UpsertReport(context.Background(), r)
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	return r
}
