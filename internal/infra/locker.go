package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrKeyLocked means another request holds the same idempotency key.
var ErrKeyLocked = errors.New("idempotency key is locked by another request")

// RedisKeyLocker serialises requests that share an idempotency key using a
// short-lived Redis lock.
type RedisKeyLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisKeyLocker(rdb *redis.Client, ttl time.Duration) *RedisKeyLocker {
	return &RedisKeyLocker{client: redislock.New(rdb), ttl: ttl}
}

// Acquire obtains the lock for key without retrying. The returned release
// func is safe to call once the request finishes.
func (l *RedisKeyLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "idem:"+key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrKeyLocked
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock: %w", err)
	}
	return func() {
		// A detached context so a cancelled request still frees its key
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			log.Warn().Err(err).Str("key", key).Msg("idempotency lock release failed")
		}
	}, nil
}
