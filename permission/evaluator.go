package permission

import "context"

// Subject is the caller as seen by the evaluator: who they are and what role
// they hold. Store and order ownership are resolved through the
// MembershipSource, not carried here.
type Subject struct {
	UserID string
	Role   Role
}

// MembershipSource answers tenant-membership questions the static role map
// cannot: which stores a user is attached to and which orders they own.
// Implementations are expected to be backed by the platform's user store.
type MembershipSource interface {
	// IsAssigned reports whether the user owns or is assigned to the store.
	IsAssigned(ctx context.Context, userID, storeID string) (bool, error)
	// SharesStore reports whether two users have at least one store
	// assignment in common.
	SharesStore(ctx context.Context, userID, otherUserID string) (bool, error)
	// OwnsOrder reports whether the user placed the order.
	OwnsOrder(ctx context.Context, userID, orderID string) (bool, error)
}

// Evaluator answers permission and resource-access questions. Role grants
// are static; only membership lookups touch external state.
type Evaluator struct {
	membership MembershipSource
}

// NewEvaluator creates an evaluator over the given membership source.
func NewEvaluator(membership MembershipSource) *Evaluator {
	return &Evaluator{membership: membership}
}

// HasPermission reports whether the role's static grant set contains perm.
func (e *Evaluator) HasPermission(role Role, perm string) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, held := set[perm]
	return held
}

// HasAnyPermission reports whether the role holds at least one of perms.
func (e *Evaluator) HasAnyPermission(role Role, perms ...string) bool {
	for _, p := range perms {
		if e.HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the role holds every one of perms.
func (e *Evaluator) HasAllPermissions(role Role, perms ...string) bool {
	for _, p := range perms {
		if !e.HasPermission(role, p) {
			return false
		}
	}
	return true
}

// CanManageRole reports whether manager may assign or revoke target. Wraps
// [Role.CanManage]; callers on the promotion path go through this rather
// than comparing levels themselves.
func (e *Evaluator) CanManageRole(manager, target Role) bool {
	return manager.CanManage(target)
}

// CanAccessResource decides resource-scoped access. The static permission
// check always runs first; the per-resource rules below only narrow the
// answer, never widen it. Unrecognized resource types deny.
func (e *Evaluator) CanAccessResource(ctx context.Context, sub Subject, perm, resourceType, resourceID string) (bool, error) {
	if !e.HasPermission(sub.Role, perm) {
		return false, nil
	}

	switch resourceType {
	case "store":
		if sub.Role == RoleOwner {
			return true, nil
		}
		return e.membership.IsAssigned(ctx, sub.UserID, resourceID)
	case "user":
		if sub.UserID == resourceID || sub.Role == RoleOwner {
			return true, nil
		}
		if sub.Role == RoleAdmin {
			return e.membership.SharesStore(ctx, sub.UserID, resourceID)
		}
		return false, nil
	case "order":
		if sub.Role == RoleCustomer {
			return e.membership.OwnsOrder(ctx, sub.UserID, resourceID)
		}
		return true, nil
	default:
		return false, nil
	}
}
