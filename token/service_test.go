package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	testAccessKey  = []byte("access-signing-key-0123456789abcdef")
	testRefreshKey = []byte("refresh-signing-key-0123456789abcde")
)

func newTestService(t *testing.T, accessTTL, refreshTTL time.Duration) *Service {
	t.Helper()

	svc, err := NewService(Config{
		SigningMethod: MethodHS256,
		Issuer:        "vendora",
		AccessTTL:     accessTTL,
		AccessKey:     testAccessKey,
		RefreshTTL:    refreshTTL,
		RefreshKey:    testRefreshKey,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestAccessRoundTrip(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	tok, err := svc.IssueAccess("u1", "admin", "s1", "a@vendora.test", "")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	claims, err := svc.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.UID != "u1" || claims.Role != "admin" || claims.SID != "s1" {
		t.Fatalf("claims = %+v, want uid=u1 role=admin sid=s1", claims)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("typ = %q, want %q", claims.TokenType, TypeAccess)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	tok, err := svc.IssueRefresh("u1", "s1", "fam-1", 3)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	claims, err := svc.VerifyRefresh(tok)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if claims.FamilyID != "fam-1" || claims.Version != 3 || claims.SID != "s1" {
		t.Fatalf("claims = %+v, want fam-1 v3 s1", claims)
	}
}

func TestCrossClassRejected(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	refresh, err := svc.IssueRefresh("u1", "s1", "fam-1", 0)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	access, err := svc.IssueAccess("u1", "admin", "s1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	// Distinct keys mean cross-class presentation dies at the signature.
	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, ErrMalformed) {
		t.Fatalf("VerifyAccess(refresh) = %v, want ErrMalformed", err)
	}
	if _, err := svc.VerifyRefresh(access); !errors.Is(err, ErrMalformed) {
		t.Fatalf("VerifyRefresh(access) = %v, want ErrMalformed", err)
	}
}

func TestTypeDiscriminatorEnforced(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	// A token signed with the access key and carrying the access audience
	// but the refresh typ claim must still be rejected.
	forged := AccessClaims{
		UID:       "u1",
		SID:       "s1",
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vendora",
			Audience:  jwt.ClaimStrings{"authcore:access"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString(testAccessKey)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}

	if _, err := svc.VerifyAccess(signed); !errors.Is(err, ErrWrongType) {
		t.Fatalf("VerifyAccess(forged typ) = %v, want ErrWrongType", err)
	}
}

func TestWrongAudienceIsWrongType(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	forged := AccessClaims{
		UID:       "u1",
		SID:       "s1",
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vendora",
			Audience:  jwt.ClaimStrings{"authcore:refresh"},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString(testAccessKey)
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}

	if _, err := svc.VerifyAccess(signed); !errors.Is(err, ErrWrongType) {
		t.Fatalf("VerifyAccess(wrong aud) = %v, want ErrWrongType", err)
	}
}

func TestExpiredAccessToken(t *testing.T) {
	svc := newTestService(t, time.Nanosecond, time.Hour)

	tok, err := svc.IssueAccess("u1", "admin", "s1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := svc.VerifyAccess(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("VerifyAccess(expired) = %v, want ErrExpired", err)
	}
}

func TestTamperedTokenIsMalformed(t *testing.T) {
	svc := newTestService(t, 5*time.Minute, time.Hour)

	tok, err := svc.IssueAccess("u1", "admin", "s1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	tampered := tok[:len(tok)-4] + "AAAA"
	if _, err := svc.VerifyAccess(tampered); !errors.Is(err, ErrMalformed) {
		t.Fatalf("VerifyAccess(tampered) = %v, want ErrMalformed", err)
	}
	if _, err := svc.VerifyAccess("not-a-jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("VerifyAccess(garbage) = %v, want ErrMalformed", err)
	}
}

func TestServiceConfigInvariants(t *testing.T) {
	base := Config{
		SigningMethod: MethodHS256,
		AccessTTL:     time.Hour,
		AccessKey:     testAccessKey,
		RefreshTTL:    time.Hour,
		RefreshKey:    testRefreshKey,
	}

	// Access lifetime must sit strictly below refresh lifetime.
	if _, err := NewService(base); err == nil {
		t.Fatal("equal TTLs accepted")
	}

	shared := base
	shared.AccessTTL = time.Minute
	shared.RefreshKey = testAccessKey
	if _, err := NewService(shared); err == nil {
		t.Fatal("shared signing key accepted")
	}

	weak := base
	weak.AccessTTL = time.Minute
	weak.AccessKey = []byte("short")
	if _, err := NewService(weak); err == nil {
		t.Fatal("weak hs256 key accepted")
	}
}
