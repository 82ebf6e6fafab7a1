package cache

import (
	"context"
	"time"
)

// WarnFunc receives one degradation event per failed primary operation.
// It keeps firing until the primary recovers; recovery is silent.
type WarnFunc func(op, key string, err error)

// Fallback routes operations to the primary store and transparently falls
// back to the secondary when the primary reports [ErrUnavailable]. The
// secondary is expected to be an in-process [Memory] store, so the fallback
// itself never propagates a backend error to the caller.
//
// Entries written during an outage live only in the secondary; once the
// primary recovers, reads consult the primary first and then the secondary,
// so outage-era sessions stay valid until their TTL runs out.
type Fallback struct {
	primary   Store
	secondary Store
	warn      WarnFunc
}

// NewFallback composes the two stores. warn may be nil.
func NewFallback(primary, secondary Store, warn WarnFunc) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		warn:      warn,
	}
}

func (f *Fallback) degraded(op, key string, err error) {
	if f.warn != nil {
		f.warn(op, key, err)
	}
}

// Get implements [Store]. A primary miss still checks the secondary so
// entries written during an outage remain reachable after recovery.
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := f.primary.Get(ctx, key)
	if err != nil {
		f.degraded("get", key, err)
		return f.secondary.Get(ctx, key)
	}
	if ok {
		return b, true, nil
	}
	return f.secondary.Get(ctx, key)
}

// Set implements [Store].
func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.primary.Set(ctx, key, value, ttl); err != nil {
		f.degraded("set", key, err)
		return f.secondary.Set(ctx, key, value, ttl)
	}
	return nil
}

// Delete implements [Store]. Both stores are cleared so a revocation or
// logout written during normal operation also removes any outage-era copy.
func (f *Fallback) Delete(ctx context.Context, key string) error {
	perr := f.primary.Delete(ctx, key)
	serr := f.secondary.Delete(ctx, key)
	if perr != nil {
		f.degraded("delete", key, perr)
		return serr
	}
	return serr
}
