package inmemdb

import (
	"context"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
)

type aggregateRepository struct {
	db *aggregateTable
}

func NewAggregateRepository(db *DB) aggregate.Repository {
	return &aggregateRepository{db: db.aggregate}
}

func (repo *aggregateRepository) GetAggregate(_ context.Context, month calendar.Month) (aggregate.MonthlyAggregate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if agg, ok := repo.db.table[month]; ok {
		return agg, nil
	}
	return aggregate.MonthlyAggregate{}, aggregate.ErrNotFound
}

func (repo *aggregateRepository) SaveAggregate(_ context.Context, agg aggregate.MonthlyAggregate) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[agg.Month] = agg
	return nil
}

func (repo *aggregateRepository) SaveAggregates(_ context.Context, aggs []aggregate.MonthlyAggregate) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, agg := range aggs {
		repo.db.table[agg.Month] = agg
	}
	return nil
}

func (repo *aggregateRepository) QueryAggregates(_ context.Context, from, to calendar.Month) ([]aggregate.MonthlyAggregate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var aggs []aggregate.MonthlyAggregate
	for _, m := range calendar.Range(from, to) {
		if agg, ok := repo.db.table[m]; ok {
			aggs = append(aggs, agg)
		}
	}
	return aggs, nil
}
