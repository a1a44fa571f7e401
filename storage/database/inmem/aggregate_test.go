package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core/aggregate"
	"github.com/trezcool/ministry/core/calendar"
)

func TestAggregateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAggregateRepository(Open())
	march, april, may := calendar.MustParseMonth("2025-03"), calendar.MustParseMonth("2025-04"), calendar.MustParseMonth("2025-05")

	_, err := repo.GetAggregate(ctx, march)
	assert.Equal(t, aggregate.ErrNotFound, err)

	require.NoError(t, repo.SaveAggregates(ctx, []aggregate.MonthlyAggregate{
		{Month: may, PotentialReporters: 5},
		{Month: march, PotentialReporters: 3},
	}))
	require.NoError(t, repo.SaveAggregate(ctx, aggregate.MonthlyAggregate{Month: march, PotentialReporters: 4}))

	aggs, err := repo.QueryAggregates(ctx, march, may)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, march, aggs[0].Month)
	assert.Equal(t, 4, aggs[0].PotentialReporters)
	assert.Equal(t, may, aggs[1].Month)

	aggs, err = repo.QueryAggregates(ctx, april, april)
	require.NoError(t, err)
	assert.Empty(t, aggs)
}
