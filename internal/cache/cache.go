package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Remember returns the cached value under key, or calls load and caches its
// result. Cache failures are logged and fall through to load so an
// unavailable Redis degrades to direct reads.
func Remember[T any](ctx context.Context, c Cache, log logrus.FieldLogger, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var out T
	if c != nil {
		hit, err := c.GetJSON(ctx, key, &out)
		if err != nil && log != nil {
			log.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		if hit {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}

	if c != nil {
		if err := c.SetJSON(ctx, key, out, ttl); err != nil && log != nil {
			log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return out, nil
}

// Forget deletes keys, logging instead of failing.
func Forget(ctx context.Context, c Cache, log logrus.FieldLogger, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Del(ctx, keys...); err != nil && log != nil {
		log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}
