package permission

import (
	"context"
	"testing"
)

type fakeMembership struct {
	assigned map[string]bool // userID|storeID
	shared   map[string]bool // userID|otherUserID
	orders   map[string]bool // userID|orderID
}

func (f *fakeMembership) IsAssigned(_ context.Context, userID, storeID string) (bool, error) {
	return f.assigned[userID+"|"+storeID], nil
}

func (f *fakeMembership) SharesStore(_ context.Context, userID, otherUserID string) (bool, error) {
	return f.shared[userID+"|"+otherUserID], nil
}

func (f *fakeMembership) OwnsOrder(_ context.Context, userID, orderID string) (bool, error) {
	return f.orders[userID+"|"+orderID], nil
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{
		assigned: map[string]bool{},
		shared:   map[string]bool{},
		orders:   map[string]bool{},
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		parsed, err := ParseRole(r.String())
		if err != nil || parsed != r {
			t.Fatalf("ParseRole(%q) = (%v, %v)", r.String(), parsed, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("unknown role parsed without error")
	}
	if r, err := ParseRole("  ADMIN "); err != nil || r != RoleAdmin {
		t.Fatalf("case-insensitive parse = (%v, %v)", r, err)
	}
}

func TestOwnerHoldsEntireCatalog(t *testing.T) {
	e := NewEvaluator(newFakeMembership())
	for _, perm := range Catalog() {
		if !e.HasPermission(RoleOwner, perm) {
			t.Fatalf("owner missing %q", perm)
		}
	}
}

func TestRoleGrantsAreMonotonic(t *testing.T) {
	// Nothing a less-privileged role can do is denied to a more-privileged
	// one.
	e := NewEvaluator(newFakeMembership())
	order := []Role{RoleCustomer, RoleVendor, RoleAdmin, RoleOwner}
	for i := 1; i < len(order); i++ {
		lower, higher := order[i-1], order[i]
		for _, perm := range Grants(lower) {
			if !e.HasPermission(higher, perm) {
				t.Fatalf("%v holds %q but %v does not", lower, perm, higher)
			}
		}
	}
}

func TestCustomerGrants(t *testing.T) {
	e := NewEvaluator(newFakeMembership())
	if !e.HasPermission(RoleCustomer, ProductView) {
		t.Fatal("customer cannot view products")
	}
	if e.HasPermission(RoleCustomer, StoreManage) {
		t.Fatal("customer can manage stores")
	}
	if e.HasPermission(RoleCustomer, PlatformSettings) {
		t.Fatal("customer holds platform settings")
	}
}

func TestUnknownRoleHasNoGrants(t *testing.T) {
	e := NewEvaluator(newFakeMembership())
	if e.HasPermission(Role(42), StoreView) {
		t.Fatal("undefined role granted a permission")
	}
	if Grants(Role(42)) != nil {
		t.Fatal("undefined role has a grant list")
	}
}

func TestHasAnyAndAll(t *testing.T) {
	e := NewEvaluator(newFakeMembership())
	if !e.HasAnyPermission(RoleVendor, PlatformSettings, ProductCreate) {
		t.Fatal("HasAny missed a held permission")
	}
	if e.HasAllPermissions(RoleVendor, ProductCreate, PlatformSettings) {
		t.Fatal("HasAll passed with a missing permission")
	}
	if !e.HasAllPermissions(RoleVendor, ProductCreate, OrderManage) {
		t.Fatal("HasAll failed on held permissions")
	}
}

func TestCanManageRoleOrdering(t *testing.T) {
	e := NewEvaluator(newFakeMembership())
	for _, r := range Roles() {
		if e.CanManageRole(r, r) {
			t.Fatalf("%v manages its own level", r)
		}
	}
	if !e.CanManageRole(RoleOwner, RoleAdmin) {
		t.Fatal("owner cannot manage admin")
	}
	if e.CanManageRole(RoleVendor, RoleAdmin) {
		t.Fatal("vendor manages admin")
	}
	if e.CanManageRole(RoleAdmin, RoleOwner) {
		t.Fatal("admin manages owner")
	}
}

func TestStoreAccessRequiresMembership(t *testing.T) {
	ctx := context.Background()
	m := newFakeMembership()
	m.assigned["vendor-1|store-1"] = true
	e := NewEvaluator(m)

	ok, err := e.CanAccessResource(ctx, Subject{UserID: "vendor-1", Role: RoleVendor}, StoreManage, "store", "store-1")
	if err != nil || !ok {
		t.Fatalf("assigned vendor denied (%v, %v)", ok, err)
	}
	ok, err = e.CanAccessResource(ctx, Subject{UserID: "vendor-1", Role: RoleVendor}, StoreManage, "store", "store-2")
	if err != nil || ok {
		t.Fatalf("unassigned vendor allowed (%v, %v)", ok, err)
	}
	// Owner bypasses the membership check entirely.
	ok, err = e.CanAccessResource(ctx, Subject{UserID: "owner-1", Role: RoleOwner}, StoreManage, "store", "store-2")
	if err != nil || !ok {
		t.Fatalf("owner denied store access (%v, %v)", ok, err)
	}
}

func TestUserAccessRules(t *testing.T) {
	ctx := context.Background()
	m := newFakeMembership()
	m.shared["admin-1|user-2"] = true
	e := NewEvaluator(m)

	// Self access needs no membership.
	ok, _ := e.CanAccessResource(ctx, Subject{UserID: "user-2", Role: RoleCustomer}, UserView, "user", "user-2")
	if !ok {
		t.Fatal("self access denied")
	}
	// Admin reaches only users they share a store with.
	ok, _ = e.CanAccessResource(ctx, Subject{UserID: "admin-1", Role: RoleAdmin}, UserManage, "user", "user-2")
	if !ok {
		t.Fatal("admin denied shared-store user")
	}
	ok, _ = e.CanAccessResource(ctx, Subject{UserID: "admin-1", Role: RoleAdmin}, UserManage, "user", "user-3")
	if ok {
		t.Fatal("admin allowed unrelated user")
	}
}

func TestCustomerOrderAccess(t *testing.T) {
	ctx := context.Background()
	m := newFakeMembership()
	m.orders["cust-1|order-1"] = true
	e := NewEvaluator(m)

	sub := Subject{UserID: "cust-1", Role: RoleCustomer}
	ok, err := e.CanAccessResource(ctx, sub, OrderView, "order", "order-1")
	if err != nil || !ok {
		t.Fatalf("customer denied own order (%v, %v)", ok, err)
	}
	ok, err = e.CanAccessResource(ctx, sub, OrderView, "order", "order-2")
	if err != nil || ok {
		t.Fatalf("customer allowed foreign order (%v, %v)", ok, err)
	}
	// Staff roles pass on the permission alone.
	ok, _ = e.CanAccessResource(ctx, Subject{UserID: "admin-1", Role: RoleAdmin}, OrderView, "order", "order-1")
	if !ok {
		t.Fatal("admin denied order access")
	}
}

func TestUnknownResourceTypeDenies(t *testing.T) {
	ctx := context.Background()
	e := NewEvaluator(newFakeMembership())
	ok, err := e.CanAccessResource(ctx, Subject{UserID: "owner-1", Role: RoleOwner}, StoreView, "warehouse", "w-1")
	if err != nil || ok {
		t.Fatalf("unknown resource type allowed (%v, %v)", ok, err)
	}
}

func TestMissingPermissionShortCircuits(t *testing.T) {
	ctx := context.Background()
	m := newFakeMembership()
	m.assigned["cust-1|store-1"] = true
	e := NewEvaluator(m)

	// Membership alone never grants access the role does not hold.
	ok, err := e.CanAccessResource(ctx, Subject{UserID: "cust-1", Role: RoleCustomer}, StoreManage, "store", "store-1")
	if err != nil || ok {
		t.Fatalf("permission check bypassed by membership (%v, %v)", ok, err)
	}
}
