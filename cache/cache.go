package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps any backend transport failure. Callers must be able
// to distinguish "key absent" (ok == false, nil error) from "backend down"
// (non-nil error), because the two have different security consequences.
var ErrUnavailable = errors.New("cache backend unavailable")

// Store is the keyed byte store consumed by the session store and the
// revocation registry. Implementations must honor per-key TTLs and must be
// safe for concurrent use.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent or
	// expired. A non-nil error always means the backend itself failed.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set writes value under key with the given TTL. A non-positive TTL is
	// clamped to one second to avoid zero-TTL races.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

const minTTL = time.Second

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}
