package core

import (
	"context"

	"github.com/pkg/errors"
)

// ErrLocked is returned when the same run is already in progress elsewhere.
var ErrLocked = errors.New("operation already in progress")

// Locker serializes long recompute runs (status sync, audit) across processes.
type Locker interface {
	// Obtain acquires the named lock; the returned func releases it.
	Obtain(ctx context.Context, key string) (release func(), err error)
}

type nopLocker struct{}

// NewNopLocker returns a Locker that never blocks; concurrent runs are last-write-wins.
func NewNopLocker() Locker { return nopLocker{} }

func (nopLocker) Obtain(context.Context, string) (func(), error) {
	return func() {}, nil
}

// WithLock runs fn while holding the named lock.
func WithLock(ctx context.Context, locker Locker, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	release, err := locker.Obtain(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
