package locksvc

import (
	"context"
	"testing"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ministry/core"
	logsvc "github.com/trezcool/ministry/services/logger"
)

func TestNewLocker_withoutAddress(t *testing.T) {
	locker, closeFn, err := NewLocker(context.Background(), &core.Config{}, logsvc.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()

	release, err := locker.Obtain(context.Background(), "k")
	require.NoError(t, err)
	release()
}

func TestObtainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		locked bool
	}{
		{name: "held elsewhere", err: redislock.ErrNotObtained, locked: true},
		{name: "redis down", err: errors.New("dial tcp: connection refused"), locked: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := obtainError("ministry:audit", tc.err)
			assert.Equal(t, tc.locked, errors.Cause(err) == core.ErrLocked)
			assert.Contains(t, err.Error(), "ministry:audit")
		})
	}
}
