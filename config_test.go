package authcore_test

import (
	"errors"
	"testing"
	"time"

	authcore "github.com/vendora/authcore"
)

func buildWith(t *testing.T, mutate func(*authcore.Config)) error {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := authcore.NewBuilder().
		WithConfig(cfg).
		WithUserDirectory(&storeDirectory{}).
		Build()
	if engine != nil {
		t.Cleanup(engine.Close)
	}
	return err
}

func TestValidConfigBuilds(t *testing.T) {
	if err := buildWith(t, nil); err != nil {
		t.Fatalf("build failed: %v", err)
	}
}

func TestAccessLifetimeMustBeBelowRefresh(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Token.AccessTTL = time.Hour
		cfg.Token.RefreshTTL = time.Hour
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("equal lifetimes error = %v, want ErrConfiguration", err)
	}
	err = buildWith(t, func(cfg *authcore.Config) {
		cfg.Token.AccessTTL = 2 * time.Hour
		cfg.Token.RefreshTTL = time.Hour
		cfg.Session.TTL = 2 * time.Hour
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("inverted lifetimes error = %v, want ErrConfiguration", err)
	}
}

func TestMissingKeysRejected(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Token.AccessKey = nil
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("missing key error = %v, want ErrConfiguration", err)
	}
}

func TestSharedSigningKeyRejected(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Token.RefreshKey = cfg.Token.AccessKey
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("shared key error = %v, want ErrConfiguration", err)
	}
}

func TestWeakSigningKeyRejected(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Token.AccessKey = []byte("short")
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("weak key error = %v, want ErrConfiguration", err)
	}
}

func TestSessionMustCoverRefreshLifetime(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Session.TTL = time.Minute
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("short session error = %v, want ErrConfiguration", err)
	}
}

func TestWeakPasswordCostRejected(t *testing.T) {
	err := buildWith(t, func(cfg *authcore.Config) {
		cfg.Password.MemoryKB = 64
	})
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("weak password cost error = %v, want ErrConfiguration", err)
	}
}

func TestDirectoryIsRequired(t *testing.T) {
	_, err := authcore.NewBuilder().WithConfig(testConfig()).Build()
	if !errors.Is(err, authcore.ErrConfiguration) {
		t.Fatalf("missing directory error = %v, want ErrConfiguration", err)
	}
}
