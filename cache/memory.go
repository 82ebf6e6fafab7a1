package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process fallback store. Expired entries are removed by
// the go-cache janitor on a fixed sweep interval, which bounds memory growth
// when the durable backend is absent or down.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates an in-process store. sweepInterval controls how often
// the janitor removes expired entries; non-positive values select one hour.
func NewMemory(defaultTTL, sweepInterval time.Duration) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Memory{c: gocache.New(defaultTTL, sweepInterval)}
}

// Get implements [Store]. The in-process backend cannot fail, so the error
// is always nil.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		// Foreign value under our key; treat as absent rather than trusting it.
		return nil, false, nil
	}
	return b, true, nil
}

// Set implements [Store].
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, clampTTL(ttl))
	return nil
}

// Delete implements [Store].
func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Len reports the number of live entries, expired-but-unswept included.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}
