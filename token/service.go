package token

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TypeAccess is the typ claim stamped on access tokens.
	TypeAccess = "access"
	// TypeRefresh is the typ claim stamped on refresh tokens.
	TypeRefresh = "refresh"
)

var (
	// ErrExpired reports a token past its exp claim.
	ErrExpired = errors.New("token expired")
	// ErrMalformed reports an unparsable token, a bad signature, a wrong
	// issuer, or any other structural defect.
	ErrMalformed = errors.New("token malformed or signature invalid")
	// ErrWrongType reports a structurally valid token presented to the
	// verifier of the other class (access vs refresh).
	ErrWrongType = errors.New("wrong token type")
)

// AccessClaims is the self-contained payload of an access token. It is never
// persisted server-side.
type AccessClaims struct {
	UID        string `json:"uid"`
	Role       string `json:"role"`
	SID        string `json:"sid"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"eid,omitempty"`
	TokenType  string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims carries the rotation lineage of a refresh token: the family
// id minted at login and a version counter that increases on every rotation.
// SID binds the lineage to its session so rotation can extend the original
// login rather than create a new one.
type RefreshClaims struct {
	UID       string `json:"uid"`
	SID       string `json:"sid"`
	FamilyID  string `json:"fam"`
	Version   uint32 `json:"ver"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Config carries the signing material for both token classes. Access and
// refresh keys MUST differ and audiences MUST differ: a leaked refresh token
// must never replay as an access token, and vice versa.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	SigningMethod SigningMethod
	Issuer        string

	AccessTTL        time.Duration
	AccessKey        []byte
	AccessPublicKey  []byte
	AccessAudience   string
	RefreshTTL       time.Duration
	RefreshKey       []byte
	RefreshPublicKey []byte
	RefreshAudience  string

	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Service issues and verifies both token classes. Misconfiguration is fatal
// at construction; individual Issue calls fail only on signing errors.
type Service struct {
	access  manager
	refresh manager
}

// NewService validates the key-separation invariants and builds the service.
func NewService(cfg Config) (*Service, error) {
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodEd25519
	}
	if cfg.AccessAudience == "" {
		cfg.AccessAudience = "authcore:access"
	}
	if cfg.RefreshAudience == "" {
		cfg.RefreshAudience = "authcore:refresh"
	}

	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be strictly below refresh TTL")
	}
	if bytes.Equal(cfg.AccessKey, cfg.RefreshKey) {
		return nil, errors.New("access and refresh signing keys must differ")
	}
	if cfg.AccessAudience == cfg.RefreshAudience {
		return nil, errors.New("access and refresh audiences must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	access, err := newManager(
		cfg.SigningMethod, cfg.AccessTTL,
		cfg.AccessKey, cfg.AccessPublicKey,
		cfg.Issuer, cfg.AccessAudience, TypeAccess,
		cfg.Leeway, cfg.MaxFutureIAT,
	)
	if err != nil {
		return nil, err
	}
	refresh, err := newManager(
		cfg.SigningMethod, cfg.RefreshTTL,
		cfg.RefreshKey, cfg.RefreshPublicKey,
		cfg.Issuer, cfg.RefreshAudience, TypeRefresh,
		cfg.Leeway, cfg.MaxFutureIAT,
	)
	if err != nil {
		return nil, err
	}

	return &Service{access: access, refresh: refresh}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.access.ttl }

// RefreshTTL reports the configured refresh-token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refresh.ttl }

// IssueAccess signs an access token bound to the given session.
func (s *Service) IssueAccess(uid, role, sid, email, externalID string) (string, error) {
	claims := AccessClaims{
		UID:              uid,
		Role:             role,
		SID:              sid,
		Email:            email,
		ExternalID:       externalID,
		TokenType:        TypeAccess,
		RegisteredClaims: s.access.registered(time.Now()),
	}
	return s.access.sign(claims)
}

// IssueRefresh signs a refresh token in the given family at the given
// rotation version, bound to the session.
func (s *Service) IssueRefresh(uid, sid, familyID string, version uint32) (string, error) {
	claims := RefreshClaims{
		UID:              uid,
		SID:              sid,
		FamilyID:         familyID,
		Version:          version,
		TokenType:        TypeRefresh,
		RegisteredClaims: s.refresh.registered(time.Now()),
	}
	return s.refresh.sign(claims)
}

// VerifyAccess checks signature, issuer, audience, algorithm pin, expiry,
// and the typ discriminator. Revocation is the caller's responsibility and
// must run before this check.
func (s *Service) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.access.parse(tokenStr, claims); err != nil {
		return nil, classify(err)
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrWrongType
	}
	return claims, nil
}

// VerifyRefresh mirrors [Service.VerifyAccess] for the refresh class.
func (s *Service) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.refresh.parse(tokenStr, claims); err != nil {
		return nil, classify(err)
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrWrongType
	}
	return claims, nil
}

// classify maps golang-jwt parse failures onto the service's stable error
// kinds. Audience mismatches surface as ErrWrongType because audiences are
// what separate the two token classes on the wire.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrWrongType, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
