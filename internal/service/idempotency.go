package service

import (
	"context"
	"errors"
	"strings"

	"tookio/internal/infra"

	"github.com/google/uuid"
)

const maxIdempotencyKeyLen = 100

// KeyLocker serialises requests that share an idempotency key.
// A nil KeyLocker disables locking; the unique index on the header tables
// still rejects duplicates.
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func normaliseKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > maxIdempotencyKeyLen {
		return "", invalid("idempotency_key", "must be at most 100 characters")
	}
	return key, nil
}

func lockKey(ctx context.Context, locker KeyLocker, shopID uuid.UUID, scope, key string) (func(), error) {
	if locker == nil || key == "" {
		return func() {}, nil
	}
	release, err := locker.Acquire(ctx, shopID.String()+":"+scope+":"+key)
	if errors.Is(err, infra.ErrKeyLocked) {
		return nil, invalid("idempotency_key", "a request with this key is already in progress")
	}
	if err != nil {
		return nil, classify("idempotency lock", err)
	}
	return release, nil
}
