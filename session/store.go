package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vendora/authcore/cache"
)

var (
	// ErrNotFound reports an absent or expired session.
	ErrNotFound = errors.New("session not found")
	// ErrCorrupt reports a stored blob that failed schema validation.
	// Tampered or malformed records fail validation; they are never trusted
	// and never crash the reader.
	ErrCorrupt = errors.New("session record corrupt")
)

const keyPrefix = "session:"

// Record is the JSON value stored per logical login under session:{id}.
type Record struct {
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	LastUsed  int64  `json:"last_used"`
}

func (r *Record) valid() bool {
	return r.UserID != "" && r.CreatedAt > 0 && r.LastUsed >= r.CreatedAt
}

func decodeRecord(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, ErrCorrupt
	}
	if !rec.valid() {
		return nil, ErrCorrupt
	}
	return &rec, nil
}

// Store tracks one session record per login. Sessions outlive individual
// access tokens: refresh extends a login without re-creating the session.
type Store struct {
	kv             cache.Store
	ttl            time.Duration
	extendActivity bool
}

// NewStore creates a session store with the given lifetime. extendActivity
// enables [Store.UpdateActivity]; when false it is a no-op.
func NewStore(kv cache.Store, ttl time.Duration, extendActivity bool) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{kv: kv, ttl: ttl, extendActivity: extendActivity}
}

// TTL reports the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

func key(sessionID string) string { return keyPrefix + sessionID }

func (s *Store) write(ctx context.Context, sessionID string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key(sessionID), data, s.ttl)
}

// Create stores a fresh record for the session. An existing record under the
// same id is overwritten, so one id maps to exactly one record or none.
func (s *Store) Create(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return errors.New("session id and user id required")
	}
	now := time.Now().Unix()
	return s.write(ctx, sessionID, &Record{UserID: userID, CreatedAt: now, LastUsed: now})
}

// Get loads and schema-validates the record.
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, ok, err := s.kv.Get(ctx, key(sessionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return decodeRecord(data)
}

// Validate loads the record and rejects absent sessions and sessions owned
// by a different user (session fixation / id guessing). On success the
// record's last-used time is refreshed along with its TTL. Only backend
// failures surface as errors; absence, mismatch, and corruption all read as
// an invalid session.
func (s *Store) Validate(ctx context.Context, sessionID, userID string) (bool, error) {
	rec, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
			return false, nil
		}
		return false, err
	}
	if rec.UserID != userID {
		return false, nil
	}

	rec.LastUsed = time.Now().Unix()
	if err := s.write(ctx, sessionID, rec); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateActivity refreshes last-used without touching created-at. No-op
// unless activity extension was configured; time-since-original-login stays
// meaningful because created-at is preserved via read-before-write.
func (s *Store) UpdateActivity(ctx context.Context, sessionID, userID string) error {
	if !s.extendActivity {
		return nil
	}
	rec, err := s.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
			return nil
		}
		return err
	}
	if rec.UserID != userID {
		return nil
	}
	rec.LastUsed = time.Now().Unix()
	return s.write(ctx, sessionID, rec)
}

// Destroy removes the session. Destroying an absent session succeeds.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	return s.kv.Delete(ctx, key(sessionID))
}
