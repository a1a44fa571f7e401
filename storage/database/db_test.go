package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core"
)

func TestOpen_memory(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: core.EngineMemory}}

	store, err := Open(context.Background(), conf)
	require.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	assert.Equal(t, core.EngineMemory, store.Engine)
	assert.NotNil(t, store.Mem)
	assert.Nil(t, store.SQL)
	assert.Nil(t, store.Mongo)

	pubs, err := store.Publishers.QueryPublishers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pubs)

	assert.NoError(t, store.Migrate(context.Background(), "up"))
}

func TestOpen_unknownEngine(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{Engine: "sqlite"}}
	_, err := Open(context.Background(), conf)
	assert.EqualError(t, err, `unknown database engine "sqlite"`)
}
