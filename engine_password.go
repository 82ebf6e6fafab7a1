package authcore

import (
	"context"
	"fmt"

	"github.com/vendora/authcore/internal/audit"
	"github.com/vendora/authcore/permission"
)

// ChangePassword rotates the caller's own credential. The current secret
// must verify first; its failure reads as ErrInvalidCredentials with no
// field-level detail.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentSecret, newSecret string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.directory.GetUserByID(ctx, userID)
	if err != nil || user == nil || !user.IsActive || user.PasswordHash == "" {
		e.metrics.Inc(MetricPasswordChangeFailure)
		return ErrInvalidCredentials
	}
	ok, err := e.hasher.Verify(currentSecret, user.PasswordHash)
	if err != nil || !ok {
		e.metrics.Inc(MetricPasswordChangeFailure)
		e.emit(ctx, "auth.password", audit.SeverityWarn, "password change rejected", map[string]any{
			"user_id": userID,
		})
		return ErrInvalidCredentials
	}

	return e.storeNewHash(ctx, userID, newSecret, "password changed")
}

// SetPassword rotates another user's credential without knowing the current
// one. The actor must hold user management and out-rank the target; this is
// the owner-initiated reset path, not a self-service one.
func (e *Engine) SetPassword(ctx context.Context, actor Identity, targetUserID, newSecret string) error {
	if err := e.ready(); err != nil {
		return err
	}

	target, err := e.directory.GetUserByID(ctx, targetUserID)
	if err != nil || target == nil {
		return fmt.Errorf("%w: unknown user", ErrAccessDenied)
	}
	if !e.evaluator.HasPermission(actor.Role, permission.UserManage) ||
		!e.evaluator.CanManageRole(actor.Role, target.Role) {
		e.metrics.Inc(MetricAccessDenied)
		e.emit(ctx, "authz.denied", audit.SeverityWarn, "set password denied", map[string]any{
			"actor_id":  actor.UserID,
			"target_id": targetUserID,
		})
		return ErrAccessDenied
	}

	if err := e.storeNewHash(ctx, targetUserID, newSecret, "password set by manager"); err != nil {
		return err
	}
	e.emit(ctx, "auth.password", audit.SeverityInfo, "password set for user", map[string]any{
		"actor_id":  actor.UserID,
		"target_id": targetUserID,
	})
	return nil
}

func (e *Engine) storeNewHash(ctx context.Context, userID, newSecret, message string) error {
	hash, err := e.hasher.Hash(newSecret)
	if err != nil {
		e.metrics.Inc(MetricPasswordChangeFailure)
		return err
	}
	if err := e.directory.UpdatePasswordHash(ctx, userID, hash); err != nil {
		e.metrics.Inc(MetricPasswordChangeFailure)
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	e.metrics.Inc(MetricPasswordChangeSuccess)
	e.emit(ctx, "auth.password", audit.SeverityInfo, message, map[string]any{
		"user_id": userID,
	})
	return nil
}
