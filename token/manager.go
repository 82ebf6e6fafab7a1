package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWT signing algorithm for both token classes.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519 keys (default).
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256 shared secrets.
	MethodHS256 SigningMethod = "hs256"
)

// manager signs and parses one token class. The access and refresh managers
// inside [Service] differ only in key material, audience, TTL, and the typ
// claim they stamp and require.
type manager struct {
	method       SigningMethod
	ttl          time.Duration
	privateKey   []byte
	publicKey    []byte
	issuer       string
	audience     string
	tokenType    string
	leeway       time.Duration
	maxFutureIAT time.Duration
}

func newManager(
	method SigningMethod,
	ttl time.Duration,
	privateKey, publicKey []byte,
	issuer, audience, tokenType string,
	leeway, maxFutureIAT time.Duration,
) (manager, error) {
	m := manager{
		method:       method,
		ttl:          ttl,
		privateKey:   privateKey,
		publicKey:    publicKey,
		issuer:       issuer,
		audience:     audience,
		tokenType:    tokenType,
		leeway:       leeway,
		maxFutureIAT: maxFutureIAT,
	}

	if ttl <= 0 {
		return m, fmt.Errorf("%s token TTL must be positive", tokenType)
	}
	if audience == "" {
		return m, fmt.Errorf("%s token audience required", tokenType)
	}
	if m.maxFutureIAT == 0 {
		m.maxFutureIAT = 10 * time.Minute
	}

	switch method {
	case MethodHS256:
		if len(privateKey) < 32 {
			return m, fmt.Errorf("%s signing key too short for hs256 (need >= 32 bytes)", tokenType)
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(privateKey); err != nil {
			return m, fmt.Errorf("%s signing key: %w", tokenType, err)
		}
		if len(publicKey) > 0 {
			if _, err := parseEdPublicKey(publicKey); err != nil {
				return m, fmt.Errorf("%s verify key: %w", tokenType, err)
			}
		}
	default:
		return m, errors.New("unsupported signing method")
	}

	return m, nil
}

func (m *manager) signingMethod() jwt.SigningMethod {
	if m.method == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *manager) signKey() (interface{}, error) {
	if m.method == MethodHS256 {
		return m.privateKey, nil
	}
	return parseEdPrivateKey(m.privateKey)
}

func (m *manager) verifyKey() (interface{}, error) {
	if m.method == MethodHS256 {
		return m.privateKey, nil
	}
	if len(m.publicKey) > 0 {
		return parseEdPublicKey(m.publicKey)
	}
	priv, err := parseEdPrivateKey(m.privateKey)
	if err != nil {
		return nil, err
	}
	return priv.Public(), nil
}

func (m *manager) sign(claims jwt.Claims) (string, error) {
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(m.signingMethod(), claims).SignedString(key)
}

// parse enforces the algorithm pin, issuer, audience, and expiry, then runs
// the future-iat ceiling. Claim-type dispatch stays with the caller.
func (m *manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signingMethod().Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithAudience(m.audience),
	}
	if m.leeway > 0 {
		options = append(options, jwt.WithLeeway(m.leeway))
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.signingMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	if m.maxFutureIAT > 0 {
		if iat, iatErr := claims.GetIssuedAt(); iatErr == nil && iat != nil {
			if iat.Time.After(time.Now().Add(m.maxFutureIAT)) {
				return errors.New("token iat too far in the future")
			}
		}
	}

	return nil
}

func (m *manager) registered(now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{m.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
