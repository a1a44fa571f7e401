package locksvc

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trezcool/ministry/core"
)

const keyPrefix = "lock:"

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger core.Logger
}

// NewRedisLocker returns a Locker backed by redislock. A lock that is not released
// (crashed process) expires after ttl.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, logger core.Logger) core.Locker {
	return &redisLocker{client: redislock.New(rdb), ttl: ttl, logger: logger}
}

// NewLocker connects to conf.Redis.Address, or returns a no-op Locker when no address is configured.
func NewLocker(ctx context.Context, conf *core.Config, logger core.Logger) (core.Locker, func(), error) {
	if conf.Redis.Address == "" {
		return core.NewNopLocker(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Address)
	}
	closeFn := func() { _ = rdb.Close() }
	return NewRedisLocker(rdb, conf.Redis.LockTTL, logger), closeFn, nil
}

func (l *redisLocker) Obtain(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, keyPrefix+key, l.ttl, nil)
	if err != nil {
		return nil, obtainError(key, err)
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil && err != redislock.ErrLockNotHeld {
			l.logger.Warn("releasing lock", err, logrus.Fields{"key": key})
		}
	}, nil
}

func obtainError(key string, err error) error {
	if err == redislock.ErrNotObtained {
		return errors.Wrap(core.ErrLocked, key)
	}
	return errors.Wrapf(err, "obtaining lock %s", key)
}
