package authcore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vendora/authcore/cache"
	"github.com/vendora/authcore/internal/audit"
	"github.com/vendora/authcore/password"
	"github.com/vendora/authcore/permission"
	"github.com/vendora/authcore/revoke"
	"github.com/vendora/authcore/session"
	"github.com/vendora/authcore/tenant"
	"github.com/vendora/authcore/token"
)

// Builder assembles an Engine. Only the user directory is mandatory; every
// other collaborator has a working default.
type Builder struct {
	cfg        Config
	cfgSet     bool
	redis      redis.UniversalClient
	directory  UserDirectory
	membership permission.MembershipSource
	datastore  tenant.Datastore
	sink       audit.Sink
}

func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration. The config is copied at
// Build time; later mutation by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithRedis wires the durable cache backend. Without it the engine runs on
// the in-process store alone, which is a supported mode, not an error.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory wires the collaborator that owns user records.
func (b *Builder) WithUserDirectory(directory UserDirectory) *Builder {
	b.directory = directory
	return b
}

// WithMembership wires the tenant-membership source consulted by
// resource-scoped access checks. Absent, every membership question answers
// no.
func (b *Builder) WithMembership(source permission.MembershipSource) *Builder {
	b.membership = source
	return b
}

// WithDatastore wires the store behind the tenant gate. Absent, an
// in-memory store is used.
func (b *Builder) WithDatastore(store tenant.Datastore) *Builder {
	b.datastore = store
	return b
}

// WithAuditSink wires the destination for audit events.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	b.sink = sink
	return b
}

// denyAllMembership is the membership source used when none was wired.
type denyAllMembership struct{}

func (denyAllMembership) IsAssigned(context.Context, string, string) (bool, error) {
	return false, nil
}

func (denyAllMembership) SharesStore(context.Context, string, string) (bool, error) {
	return false, nil
}

func (denyAllMembership) OwnsOrder(context.Context, string, string) (bool, error) {
	return false, nil
}

// Build validates the configuration and wires the engine. Configuration
// failures are fatal here so no half-built engine ever serves a request.
func (b *Builder) Build() (*Engine, error) {
	cfg := defaultConfig()
	if b.cfgSet {
		cfg = cloneConfig(b.cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, fmt.Errorf("%w: user directory is required", ErrConfiguration)
	}

	tokens, err := token.NewService(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	metrics := NewMetrics(cfg.Metrics)
	dispatcher := audit.NewDispatcher(b.sink, cfg.Audit.BufferSize)

	memory := cache.NewMemory(cfg.Cache.MemoryTTL, cfg.Cache.SweepInterval)
	var kv cache.Store = memory
	if b.redis != nil {
		warn := func(op, key string, err error) {
			metrics.Inc(MetricFallbackActivated)
			dispatcher.Emit(audit.Event{
				Type:     "cache.fallback",
				Severity: audit.SeverityWarn,
				Message:  "durable cache unavailable, using in-process fallback",
				Meta:     map[string]any{"op": op, "key": key, "error": err.Error()},
			})
		}
		kv = cache.NewFallback(cache.NewRedis(b.redis, cfg.Cache.Prefix), memory, warn)
	}

	membership := b.membership
	if membership == nil {
		membership = denyAllMembership{}
	}
	evaluator := permission.NewEvaluator(membership)

	datastore := b.datastore
	if datastore == nil {
		datastore = tenant.NewMemoryStore()
	}

	return &Engine{
		cfg:       cfg,
		tokens:    tokens,
		hasher:    hasher,
		sessions:  session.NewStore(kv, cfg.Session.TTL, cfg.Session.ActivityExtension),
		registry:  revoke.New(kv, cfg.Revocation.DefaultTTL),
		evaluator: evaluator,
		gate:      tenant.NewGate(datastore, evaluator, dispatcher, cfg.TenantField),
		directory: b.directory,
		audit:     dispatcher,
		metrics:   metrics,
	}, nil
}
