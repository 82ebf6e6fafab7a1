package revoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vendora/authcore/cache"
)

func newMemoryRegistry() *Registry {
	return New(cache.NewMemory(time.Minute, time.Minute), time.Hour)
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("token-a")
	if a != Fingerprint("token-a") {
		t.Fatal("fingerprint not deterministic")
	}
	if a == Fingerprint("token-b") {
		t.Fatal("distinct tokens collided")
	}
	if a == "token-a" {
		t.Fatal("fingerprint leaked the raw token")
	}
}

func TestRevokeAndLookup(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry()

	revoked, err := reg.IsRevoked(ctx, "tok")
	if err != nil || revoked {
		t.Fatalf("fresh token reported revoked (%v, %v)", revoked, err)
	}

	if err := reg.Revoke(ctx, "tok", ReasonLogout, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	revoked, err = reg.IsRevoked(ctx, "tok")
	if err != nil || !revoked {
		t.Fatalf("revoked token not reported (%v, %v)", revoked, err)
	}

	entry, err := reg.Lookup(ctx, "tok")
	if err != nil || entry == nil {
		t.Fatalf("lookup = (%v, %v), want entry", entry, err)
	}
	if entry.Reason != ReasonLogout {
		t.Fatalf("reason = %q, want %q", entry.Reason, ReasonLogout)
	}
}

func TestRevokeNearExpiryGetsMinimumTTL(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry()

	// exp in the past must not produce a zero-TTL entry that never lands.
	if err := reg.Revoke(ctx, "tok", ReasonRotated, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	revoked, err := reg.IsRevoked(ctx, "tok")
	if err != nil || !revoked {
		t.Fatalf("near-expiry revocation missing (%v, %v)", revoked, err)
	}
}

func TestFamilyRevocation(t *testing.T) {
	ctx := context.Background()
	reg := newMemoryRegistry()

	if revoked, _ := reg.IsFamilyRevoked(ctx, "fam-1"); revoked {
		t.Fatal("fresh family reported revoked")
	}
	if err := reg.RevokeFamily(ctx, "fam-1", ReasonReuse, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke family failed: %v", err)
	}
	revoked, err := reg.IsFamilyRevoked(ctx, "fam-1")
	if err != nil || !revoked {
		t.Fatalf("family not reported revoked (%v, %v)", revoked, err)
	}
	if revoked, _ := reg.IsFamilyRevoked(ctx, "fam-2"); revoked {
		t.Fatal("unrelated family reported revoked")
	}
}

func TestEntriesExpireWithToken(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	reg := New(cache.NewRedis(client, "ac"), time.Hour)

	if err := reg.Revoke(ctx, "tok", ReasonLogout, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	revoked, err := reg.IsRevoked(ctx, "tok")
	if err != nil || revoked {
		t.Fatalf("entry outlived its token (%v, %v)", revoked, err)
	}
}

func TestBackendFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	reg := New(cache.NewRedis(client, "ac"), time.Hour)
	mr.Close()

	// "Could not check" must never read as "not revoked".
	if _, err := reg.IsRevoked(ctx, "tok"); !errors.Is(err, cache.ErrUnavailable) {
		t.Fatalf("IsRevoked error = %v, want ErrUnavailable", err)
	}
}
