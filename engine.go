package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/authcore/internal"
	"github.com/vendora/authcore/internal/audit"
	"github.com/vendora/authcore/password"
	"github.com/vendora/authcore/permission"
	"github.com/vendora/authcore/revoke"
	"github.com/vendora/authcore/session"
	"github.com/vendora/authcore/tenant"
	"github.com/vendora/authcore/token"
)

// Engine composes the token service, session store, revocation registry,
// permission evaluator, and tenant gate into the user-facing auth
// operations. Build one through [Builder]; the zero value is not usable.
type Engine struct {
	cfg       Config
	tokens    *token.Service
	hasher    *password.Hasher
	sessions  *session.Store
	registry  *revoke.Registry
	evaluator *permission.Evaluator
	gate      *tenant.Gate
	directory UserDirectory
	audit     *audit.Dispatcher
	metrics   *Metrics
}

// Metrics exposes the engine's counters for exporters.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// MetricsSnapshot copies all counters at once; exporters read through this.
func (e *Engine) MetricsSnapshot() MetricsSnapshot { return e.metrics.Snapshot() }

// AuditDropped reports audit events discarded under dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Gate exposes the tenant access gate for the embedder's data layer.
func (e *Engine) Gate() *tenant.Gate { return e.gate }

// Evaluator exposes the permission evaluator.
func (e *Engine) Evaluator() *permission.Evaluator { return e.evaluator }

// Close drains the audit dispatcher. Call once, after the last operation.
func (e *Engine) Close() {
	if e != nil && e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) ready() error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}

// mint creates the session record and both tokens for a fresh login.
func (e *Engine) mint(ctx context.Context, user *UserRecord) (*LoginResult, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	sessionID := sid.String()
	familyID := uuid.NewString()

	if err := e.sessions.Create(ctx, sessionID, user.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	pair, err := e.issuePair(user, sessionID, familyID, 0)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSessionCreated)
	return &LoginResult{
		Identity: Identity{
			UserID:    user.UserID,
			Role:      user.Role,
			SessionID: sessionID,
			Email:     user.Email,
		},
		SessionID: sessionID,
		Tokens:    *pair,
	}, nil
}

func (e *Engine) issuePair(user *UserRecord, sessionID, familyID string, version uint32) (*TokenPair, error) {
	access, err := e.tokens.IssueAccess(user.UserID, user.Role.String(), sessionID, user.Email, user.ExternalID)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.IssueRefresh(user.UserID, sessionID, familyID, version)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Login authenticates an email/password credential. Every failure mode
// returns ErrInvalidCredentials; the distinguishing detail goes to the audit
// sink only.
func (e *Engine) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.directory.GetUserByEmail(ctx, email)
	if err != nil || user == nil || user.PasswordHash == "" {
		e.loginFailed(ctx, "unknown email or passwordless account", email)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		e.loginFailed(ctx, "inactive account", email)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(secret, user.PasswordHash)
	if err != nil || !ok {
		e.loginFailed(ctx, "credential mismatch", email)
		return nil, ErrInvalidCredentials
	}
	e.maybeUpgradeHash(ctx, user, secret)

	result, err := e.mint(ctx, user)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}
	e.metrics.Inc(MetricLoginSuccess)
	e.emit(ctx, "auth.login", audit.SeverityInfo, "login succeeded", map[string]any{
		"user_id":    user.UserID,
		"session_id": result.SessionID,
	})
	return result, nil
}

// LoginExternal authenticates a caller whose identity was already proven by
// an external provider; only the directory mapping is checked here.
func (e *Engine) LoginExternal(ctx context.Context, externalID string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	user, err := e.directory.GetUserByExternalID(ctx, externalID)
	if err != nil || user == nil {
		e.loginFailed(ctx, "unknown external identity", externalID)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		e.loginFailed(ctx, "inactive account", externalID)
		return nil, ErrInvalidCredentials
	}

	result, err := e.mint(ctx, user)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}
	e.metrics.Inc(MetricLoginSuccess)
	e.emit(ctx, "auth.login", audit.SeverityInfo, "external login succeeded", map[string]any{
		"user_id":    user.UserID,
		"session_id": result.SessionID,
	})
	return result, nil
}

// maybeUpgradeHash rehashes the credential when the stored hash was derived
// under weaker parameters. Best effort; login proceeds either way.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user *UserRecord, secret string) {
	up, err := e.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !up {
		return
	}
	rehashed, err := e.hasher.Hash(secret)
	if err != nil {
		return
	}
	if err := e.directory.UpdatePasswordHash(ctx, user.UserID, rehashed); err != nil {
		e.emit(ctx, "auth.password", audit.SeverityError, "hash upgrade write failed", map[string]any{
			"user_id": user.UserID,
			"error":   err.Error(),
		})
	}
}

// Verify is the entry guard for every protected operation: revocation check
// first, then signature and claims, then session binding, then a role-drift
// check against the directory.
func (e *Engine) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { e.metrics.Observe(MetricVerifyLatency, time.Since(start)) }()

	revoked, err := e.registry.IsRevoked(ctx, accessToken)
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if revoked {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, ErrTokenRevoked
	}

	claims, err := e.tokens.VerifyAccess(accessToken)
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, mapTokenError(err)
	}

	// Session ids are minted here and have a fixed shape; a claim that does
	// not parse cannot name a live session, so skip the backend lookup.
	if _, err := internal.ParseSessionID(claims.SID); err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, ErrSessionInvalid
	}

	ok, err := e.sessions.Validate(ctx, claims.SID, claims.UID)
	if err != nil {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, ErrSessionInvalid
	}

	user, err := e.directory.GetUserByID(ctx, claims.UID)
	if err != nil || user == nil || !user.IsActive {
		e.metrics.Inc(MetricVerifyFailure)
		return nil, ErrSessionInvalid
	}
	if user.Role.String() != claims.Role {
		// Permission decisions ride on the token's role claim, so a stale
		// claim must not keep working after a promotion or demotion.
		e.revokeAccessToken(ctx, accessToken, claims, revoke.ReasonRoleChanged)
		e.metrics.Inc(MetricRoleChangeInvalidation)
		e.metrics.Inc(MetricVerifyFailure)
		e.emit(ctx, "auth.verify", audit.SeverityWarn, "token invalidated by role change", map[string]any{
			"user_id":    claims.UID,
			"token_role": claims.Role,
			"role":       user.Role.String(),
		})
		return nil, ErrRoleChanged
	}

	e.metrics.Inc(MetricVerifySuccess)
	return &Identity{
		UserID:    user.UserID,
		Role:      user.Role,
		SessionID: claims.SID,
		Email:     user.Email,
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked before the
// replacement is minted, so each token in a family is usable exactly once.
// Reuse of an already-rotated token cuts the whole family.
//
// Two concurrent calls with the same token can both pass the revocation read
// before either revocation write lands; the loser's tokens die on next use
// via the family check. Known race, accepted.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, mapTokenError(err)
	}

	familyRevoked, err := e.registry.IsFamilyRevoked(ctx, claims.FamilyID)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if familyRevoked {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, ErrTokenRevoked
	}

	revoked, err := e.registry.IsRevoked(ctx, refreshToken)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if revoked {
		// The token was rotated out earlier; whoever presents it now holds a
		// stale copy. Treat it as theft and cut the lineage.
		familyExpiry := time.Now().Add(e.tokens.RefreshTTL())
		if err := e.registry.RevokeFamily(ctx, claims.FamilyID, revoke.ReasonReuse, familyExpiry); err != nil {
			e.emit(ctx, "auth.refresh", audit.SeverityError, "family revocation write failed", map[string]any{
				"family_id": claims.FamilyID,
				"error":     err.Error(),
			})
		}
		e.metrics.Inc(MetricRefreshReuseDetected)
		e.metrics.Inc(MetricRefreshFailure)
		e.emit(ctx, "auth.refresh", audit.SeverityWarn, "refresh token reuse detected", map[string]any{
			"user_id":   claims.UID,
			"family_id": claims.FamilyID,
			"version":   claims.Version,
		})
		return nil, ErrTokenRevoked
	}

	ok, err := e.sessions.Validate(ctx, claims.SID, claims.UID)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, ErrSessionInvalid
	}

	user, err := e.directory.GetUserByID(ctx, claims.UID)
	if err != nil || user == nil || !user.IsActive {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, ErrInvalidCredentials
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := e.registry.Revoke(ctx, refreshToken, revoke.ReasonRotated, exp); err != nil {
		// Without the revocation the old token would stay live; refuse to
		// mint a second one.
		e.metrics.Inc(MetricRefreshFailure)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	pair, err := e.issuePair(user, claims.SID, claims.FamilyID, claims.Version+1)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		return nil, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	return &LoginResult{
		Identity: Identity{
			UserID:    user.UserID,
			Role:      user.Role,
			SessionID: claims.SID,
			Email:     user.Email,
		},
		SessionID: claims.SID,
		Tokens:    *pair,
	}, nil
}

// AutoRefresh rotates only when the access token's remaining lifetime has
// fallen below the configured grace period. A nil result with a nil error
// means no rotation was needed.
func (e *Engine) AutoRefresh(ctx context.Context, accessToken, refreshToken string) (*LoginResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !e.cfg.AutoRefresh.Enabled {
		return nil, nil
	}

	claims, err := e.tokens.VerifyAccess(accessToken)
	switch {
	case err == nil:
		if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > e.cfg.AutoRefresh.Grace {
			return nil, nil
		}
	case errors.Is(err, token.ErrExpired):
		// Expired access tokens still rotate; the refresh token is the
		// credential that matters here.
	default:
		return nil, mapTokenError(err)
	}

	return e.Refresh(ctx, refreshToken)
}

// Logout clears the login best-effort: the client-visible logout always
// succeeds, and any revocation or session-store failure is audited instead
// of returned.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken, sessionID string) {
	if e.ready() != nil {
		return
	}

	if accessToken != "" {
		claims, err := e.tokens.VerifyAccess(accessToken)
		if err == nil {
			if sessionID == "" {
				sessionID = claims.SID
			}
			e.revokeAccessToken(ctx, accessToken, claims, revoke.ReasonLogout)
		}
	}
	if refreshToken != "" {
		var exp time.Time
		if claims, err := e.tokens.VerifyRefresh(refreshToken); err == nil {
			if claims.ExpiresAt != nil {
				exp = claims.ExpiresAt.Time
			}
			if sessionID == "" {
				sessionID = claims.SID
			}
		}
		if err := e.registry.Revoke(ctx, refreshToken, revoke.ReasonLogout, exp); err != nil {
			e.emit(ctx, "auth.logout", audit.SeverityError, "refresh revocation write failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	if sessionID != "" {
		if err := e.sessions.Destroy(ctx, sessionID); err != nil {
			e.emit(ctx, "auth.logout", audit.SeverityError, "session destroy failed", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		} else {
			e.metrics.Inc(MetricSessionInvalidated)
		}
	}
	e.metrics.Inc(MetricLogout)
	e.emit(ctx, "auth.logout", audit.SeverityInfo, "logout", map[string]any{
		"session_id": sessionID,
	})
}

func (e *Engine) revokeAccessToken(ctx context.Context, raw string, claims *token.AccessClaims, reason string) {
	var exp time.Time
	if claims != nil && claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := e.registry.Revoke(ctx, raw, reason, exp); err != nil {
		e.emit(ctx, "auth.revoke", audit.SeverityError, "access revocation write failed", map[string]any{
			"reason": reason,
			"error":  err.Error(),
		})
	}
}

// mapTokenError lifts token-package error kinds into the engine's.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, token.ErrWrongType):
		return fmt.Errorf("%w: %v", ErrWrongTokenType, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
