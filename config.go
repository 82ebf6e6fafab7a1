package authcore

import (
	"fmt"
	"time"

	"github.com/vendora/authcore/password"
	"github.com/vendora/authcore/token"
)

// SessionConfig controls the session store.
type SessionConfig struct {
	// TTL is the idle lifetime of a session record.
	TTL time.Duration
	// ActivityExtension enables last-used refreshes outside the verify path.
	ActivityExtension bool
}

// RevocationConfig controls the revocation registry.
type RevocationConfig struct {
	// DefaultTTL caps entry lifetime for tokens without a readable exp.
	DefaultTTL time.Duration
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	// BufferSize is the dispatcher's event buffer; events beyond it drop.
	BufferSize int
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AutoRefreshConfig controls server-side refresh on near-expiry access
// tokens. Disabled means AutoRefresh never rotates.
type AutoRefreshConfig struct {
	Enabled bool
	// Grace is the remaining-lifetime threshold below which a rotation
	// triggers.
	Grace time.Duration
}

// CacheConfig controls the key-value layer shared by the session store and
// revocation registry.
type CacheConfig struct {
	// Prefix namespaces every Redis key.
	Prefix string
	// MemoryTTL is the default TTL for the in-process store.
	MemoryTTL time.Duration
	// SweepInterval is how often the in-process store evicts expired
	// entries. Non-positive selects one hour.
	SweepInterval time.Duration
}

// Config is the engine's full configuration tree. Built engines treat it as
// immutable; Builder copies it before use.
type Config struct {
	Token       token.Config
	Session     SessionConfig
	Revocation  RevocationConfig
	Password    password.Config
	Cache       CacheConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	AutoRefresh AutoRefreshConfig
	// TenantField names the record field the gate injects tenant ids into.
	TenantField string
}

func defaultConfig() Config {
	return Config{
		Token: token.Config{
			SigningMethod: token.MethodEd25519,
			Issuer:        "authcore",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			MaxFutureIAT:  10 * time.Minute,
		},
		Session:    SessionConfig{TTL: 7 * 24 * time.Hour},
		Revocation: RevocationConfig{DefaultTTL: 30 * 24 * time.Hour},
		Password:   password.DefaultConfig(),
		Cache: CacheConfig{
			Prefix:        "authcore",
			MemoryTTL:     time.Hour,
			SweepInterval: time.Hour,
		},
		Audit:       AuditConfig{BufferSize: 256},
		AutoRefresh: AutoRefreshConfig{Grace: 2 * time.Minute},
		TenantField: "store_id",
	}
}

// Validate checks the cross-component invariants that must fail at startup,
// not on first use. All failures wrap ErrConfiguration.
func (c Config) Validate() error {
	if len(c.Token.AccessKey) == 0 || len(c.Token.RefreshKey) == 0 {
		return fmt.Errorf("%w: signing keys are required", ErrConfiguration)
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return fmt.Errorf("%w: token lifetimes must be positive", ErrConfiguration)
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return fmt.Errorf("%w: access lifetime must be strictly below refresh lifetime", ErrConfiguration)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("%w: session TTL must be positive", ErrConfiguration)
	}
	if c.Session.TTL < c.Token.RefreshTTL {
		return fmt.Errorf("%w: session TTL must cover the refresh lifetime", ErrConfiguration)
	}
	if _, err := password.NewHasher(c.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneConfig(c Config) Config {
	out := c
	out.Token.AccessKey = cloneBytes(c.Token.AccessKey)
	out.Token.AccessPublicKey = cloneBytes(c.Token.AccessPublicKey)
	out.Token.RefreshKey = cloneBytes(c.Token.RefreshKey)
	out.Token.RefreshPublicKey = cloneBytes(c.Token.RefreshPublicKey)
	return out
}
