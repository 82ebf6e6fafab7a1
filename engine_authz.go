package authcore

import (
	"context"
	"fmt"

	"github.com/vendora/authcore/internal/audit"
	"github.com/vendora/authcore/permission"
	"github.com/vendora/authcore/tenant"
)

// CheckPermission answers against the static role grants; no external state
// is consulted.
func (e *Engine) CheckPermission(id Identity, perm string) bool {
	if e.ready() != nil {
		return false
	}
	ok := e.evaluator.HasPermission(id.Role, perm)
	if !ok {
		e.metrics.Inc(MetricAccessDenied)
	}
	return ok
}

// CheckResourceAccess runs the full resource-scoped decision, membership
// lookups included.
func (e *Engine) CheckResourceAccess(ctx context.Context, id Identity, perm, resourceType, resourceID string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	ok, err := e.evaluator.CanAccessResource(ctx, permission.Subject{UserID: id.UserID, Role: id.Role}, perm, resourceType, resourceID)
	if err != nil {
		return false, err
	}
	if !ok {
		e.metrics.Inc(MetricAccessDenied)
		e.emit(ctx, "authz.denied", audit.SeverityWarn, "resource access denied", map[string]any{
			"user_id":       id.UserID,
			"role":          id.Role.String(),
			"permission":    perm,
			"resource_type": resourceType,
			"resource_id":   resourceID,
		})
	}
	return ok, nil
}

// PromoteUser changes a user's role and replaces their store assignments in
// one atomic batch. The actor must out-rank both the target's current role
// and the new role, so nobody grants their own tier and owners cannot be
// demoted here. The write goes through the gate's bypass path, which audits
// it loudly.
func (e *Engine) PromoteUser(ctx context.Context, actor Identity, targetUserID string, newRole permission.Role, storeIDs []string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !newRole.Valid() {
		return fmt.Errorf("%w: invalid target role", ErrAccessDenied)
	}

	target, err := e.directory.GetUserByID(ctx, targetUserID)
	if err != nil || target == nil {
		return fmt.Errorf("%w: unknown user", ErrAccessDenied)
	}
	if !e.evaluator.CanManageRole(actor.Role, target.Role) || !e.evaluator.CanManageRole(actor.Role, newRole) {
		e.metrics.Inc(MetricAccessDenied)
		e.emit(ctx, "authz.denied", audit.SeverityWarn, "role change denied", map[string]any{
			"actor_id":    actor.UserID,
			"actor_role":  actor.Role.String(),
			"target_id":   targetUserID,
			"target_role": target.Role.String(),
			"new_role":    newRole.String(),
		})
		return ErrAccessDenied
	}

	tc := tenant.Context{
		UserID:    actor.UserID,
		Role:      actor.Role,
		SessionID: actor.SessionID,
		Bypass:    true,
	}
	// Role and assignments move together or not at all; a vendor with the
	// old role's store list would be a privilege leak.
	ops := []tenant.BatchOp{
		{
			Kind:       tenant.OpUpdate,
			Collection: "users",
			Filter:     tenant.Filter{"id": targetUserID},
			Record:     tenant.Record{"role": newRole.String()},
		},
		{
			Kind:       tenant.OpDelete,
			Collection: "store_assignments",
			Filter:     tenant.Filter{"user_id": targetUserID},
		},
	}
	for _, storeID := range storeIDs {
		ops = append(ops, tenant.BatchOp{
			Kind:       tenant.OpCreate,
			Collection: "store_assignments",
			Record:     tenant.Record{"user_id": targetUserID, "store_id": storeID},
		})
	}
	if err := e.gate.Batch(ctx, tc, ops); err != nil {
		return err
	}

	e.metrics.Inc(MetricBypassUsed)
	e.emit(ctx, "authz.role_change", audit.SeverityInfo, "role changed", map[string]any{
		"actor_id":  actor.UserID,
		"target_id": targetUserID,
		"new_role":  newRole.String(),
		"stores":    len(storeIDs),
	})
	return nil
}
