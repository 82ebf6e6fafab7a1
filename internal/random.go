package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionID is a 128-bit random identifier.
type SessionID [16]byte

// NewSessionID draws a fresh id from crypto/rand.
func NewSessionID() (SessionID, error) {
	var id SessionID
	if _, err := rand.Read(id[:]); err != nil {
		return SessionID{}, err
	}
	return id, nil
}

// String renders the id as unpadded base64url, the form used in store keys
// and token claims.
func (id SessionID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// ParseSessionID reverses String.
func ParseSessionID(s string) (SessionID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return SessionID{}, err
	}
	if len(raw) != len(SessionID{}) {
		return SessionID{}, errors.New("session id has wrong length")
	}
	var id SessionID
	copy(id[:], raw)
	return id, nil
}
