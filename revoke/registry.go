package revoke

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/vendora/authcore/cache"
)

// Reason codes recorded alongside a revocation entry.
const (
	ReasonLogout          = "logout"
	ReasonRotated         = "rotated"
	ReasonReuse           = "reuse_detected"
	ReasonRoleChanged     = "role_changed"
	ReasonPasswordChanged = "password_changed"
)

const (
	entryKeyPrefix  = "blacklist:"
	familyKeyPrefix = "blacklist:family:"
)

// Entry is the stored revocation record. The raw token never appears here;
// only its fingerprint is used as the key.
type Entry struct {
	Reason    string `json:"reason"`
	RevokedAt int64  `json:"revoked_at"`
}

// Fingerprint returns the deterministic, non-reversible digest used as the
// registry key for a raw token.
func Fingerprint(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Registry records token fingerprints that must be treated as invalid ahead
// of natural expiry. Entries expire with the token they shadow, so the
// registry never outgrows the set of live tokens.
type Registry struct {
	store      cache.Store
	defaultTTL time.Duration
}

// New creates a registry over the given store. defaultTTL caps the entry
// lifetime when a token carries no exp claim; non-positive values select
// 30 days.
func New(store cache.Store, defaultTTL time.Duration) *Registry {
	if defaultTTL <= 0 {
		defaultTTL = 30 * 24 * time.Hour
	}
	return &Registry{store: store, defaultTTL: defaultTTL}
}

func (r *Registry) ttlUntil(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return r.defaultTTL
	}
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		// Minimum one time-unit: a token revoked at the edge of expiry must
		// still lose the race against a concurrent verify.
		ttl = time.Second
	}
	if ttl > r.defaultTTL {
		ttl = r.defaultTTL
	}
	return ttl
}

// Revoke records the token's fingerprint until expiresAt (the token's own
// exp claim; zero means the default ceiling).
func (r *Registry) Revoke(ctx context.Context, rawToken, reason string, expiresAt time.Time) error {
	entry, err := json.Marshal(Entry{Reason: reason, RevokedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, entryKeyPrefix+Fingerprint(rawToken), entry, r.ttlUntil(expiresAt))
}

// IsRevoked reports whether the token's fingerprint is on record. Backend
// failures propagate: a verification path must not treat "could not check"
// as "not revoked".
func (r *Registry) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	_, ok, err := r.store.Get(ctx, entryKeyPrefix+Fingerprint(rawToken))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Lookup returns the entry for a revoked token, or nil when absent.
func (r *Registry) Lookup(ctx context.Context, rawToken string) (*Entry, error) {
	raw, ok, err := r.store.Get(ctx, entryKeyPrefix+Fingerprint(rawToken))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, errors.New("corrupt revocation entry")
	}
	return &entry, nil
}

// RevokeFamily invalidates an entire refresh-token family. Reuse of any
// rotated-out member is treated as a theft signal, so the whole lineage is
// cut rather than the single presented token.
func (r *Registry) RevokeFamily(ctx context.Context, familyID, reason string, expiresAt time.Time) error {
	entry, err := json.Marshal(Entry{Reason: reason, RevokedAt: time.Now().Unix()})
	if err != nil {
		return err
	}
	return r.store.Set(ctx, familyKeyPrefix+familyID, entry, r.ttlUntil(expiresAt))
}

// IsFamilyRevoked reports whether the family has been invalidated.
func (r *Registry) IsFamilyRevoked(ctx context.Context, familyID string) (bool, error) {
	_, ok, err := r.store.Get(ctx, familyKeyPrefix+familyID)
	if err != nil {
		return false, err
	}
	return ok, nil
}
