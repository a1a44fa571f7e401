package inmemdb

import (
	"context"

	"github.com/trezcool/ministry/core/calendar"
	"github.com/trezcool/ministry/core/report"
)

type reportRepository struct {
	db *reportTable
}

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

// find returns the indexes of the documents normalizing to (publisherID, month).
func (repo *reportRepository) find(publisherID string, month calendar.Month) []int {
	var idx []int
	for i, doc := range repo.db.docs {
		r := report.Normalize(doc)
		if r.PublisherID == publisherID && r.Month == month {
			idx = append(idx, i)
		}
	}
	return idx
}

func (repo *reportRepository) indexOf(id string) int {
	for i, doc := range repo.db.docs {
		if report.Normalize(doc).ID == id {
			return i
		}
	}
	return -1
}

// filter returns the normalized documents for which keep returns true, in store order.
func (repo *reportRepository) filter(keep func(report.ActivityReport) bool) []report.ActivityReport {
	var reports []report.ActivityReport
	for _, doc := range repo.db.docs {
		if r := report.Normalize(doc); keep(r) {
			reports = append(reports, r)
		}
	}
	return reports
}

func (repo *reportRepository) remove(idx []int) {
	if len(idx) == 0 {
		return
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	docs := repo.db.docs[:0]
	for i, doc := range repo.db.docs {
		if !drop[i] {
			docs = append(docs, doc)
		}
	}
	repo.db.docs = docs
}

func (repo *reportRepository) upsert(r report.ActivityReport) {
	doc := report.Document(r)
	if i := repo.indexOf(r.ID); i >= 0 {
		repo.db.docs[i] = doc
		return
	}
	repo.db.docs = append(repo.db.docs, doc)
}

func (repo *reportRepository) GetReport(_ context.Context, publisherID string, month calendar.Month) (report.ActivityReport, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	key := report.Key(month, publisherID)
	if i := repo.indexOf(key); i >= 0 {
		return report.Normalize(repo.db.docs[i]), nil
	}
	// legacy documents stored under another key
	reports := report.Dedupe(repo.filter(func(r report.ActivityReport) bool {
		return r.PublisherID == publisherID && r.Month == month
	}))
	if len(reports) == 0 {
		return report.ActivityReport{}, report.ErrNotFound
	}
	return reports[0], nil
}

func (repo *reportRepository) UpsertReport(_ context.Context, r report.ActivityReport) (report.ActivityReport, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = r.Key()
	var legacy []int
	for _, i := range repo.find(r.PublisherID, r.Month) {
		if report.Normalize(repo.db.docs[i]).ID != r.ID {
			legacy = append(legacy, i)
		}
	}
	repo.remove(legacy)
	repo.upsert(r)
	return r, nil
}

func (repo *reportRepository) MoveReport(_ context.Context, oldMonth calendar.Month, r report.ActivityReport) (report.ActivityReport, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	old := repo.find(r.PublisherID, oldMonth)
	if len(old) == 0 {
		return report.ActivityReport{}, report.ErrNotFound
	}
	if len(repo.find(r.PublisherID, r.Month)) > 0 {
		return report.ActivityReport{}, report.ErrReportExists
	}

	r.ID = r.Key()
	repo.remove(old)
	repo.upsert(r)
	return r, nil
}

func (repo *reportRepository) DeleteReport(_ context.Context, publisherID string, month calendar.Month) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	idx := repo.find(publisherID, month)
	if len(idx) == 0 {
		return report.ErrNotFound
	}
	repo.remove(idx)
	return nil
}

func (repo *reportRepository) QueryReportsByMonth(_ context.Context, month calendar.Month) ([]report.ActivityReport, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return report.Dedupe(repo.filter(func(r report.ActivityReport) bool {
		return r.Month == month
	})), nil
}

func (repo *reportRepository) QueryReportsByPublisher(_ context.Context, publisherID string, months []calendar.Month) ([]report.ActivityReport, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	set := make(map[calendar.Month]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return report.Dedupe(repo.filter(func(r report.ActivityReport) bool {
		return r.PublisherID == publisherID && set[r.Month]
	})), nil
}

func (repo *reportRepository) ScanReports(ctx context.Context, from, to calendar.Month, fn func(report.ActivityReport) error) error {
	repo.db.mutex.RLock()
	reports := repo.filter(func(r report.ActivityReport) bool {
		return !r.Month.Before(from) && !r.Month.After(to)
	})
	repo.db.mutex.RUnlock()

	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}
