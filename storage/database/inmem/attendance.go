package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ministry/core/attendance"
	"github.com/trezcool/ministry/core/calendar"
)

type attendanceRepository struct {
	db *attendanceTable
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) SaveRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.records[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) DeleteRecord(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.records[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.records, id)
	return nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, from, to calendar.Month) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var records []attendance.Record
	for _, rec := range repo.db.records {
		if m := rec.Month(); !m.Before(from) && !m.After(to) {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (repo *attendanceRepository) GetAggregate(_ context.Context, month calendar.Month) (attendance.Aggregate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if agg, ok := repo.db.aggregates[month]; ok {
		return agg, nil
	}
	return attendance.Aggregate{}, attendance.ErrAggregateNotFound
}

func (repo *attendanceRepository) SaveAggregate(_ context.Context, agg attendance.Aggregate) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.aggregates[agg.Month] = agg
	return nil
}
