package permission

// Permission names, grouped by resource category. The catalog is static:
// role-to-permission mappings are code, not data, so a grant can only change
// with a deploy.
const (
	StoreView     = "store:view"
	StoreManage   = "store:manage"
	StoreSettings = "store:settings"

	ProductView   = "product:view"
	ProductCreate = "product:create"
	ProductUpdate = "product:update"
	ProductDelete = "product:delete"

	OrderView   = "order:view"
	OrderManage = "order:manage"
	OrderRefund = "order:refund"

	UserView   = "user:view"
	UserManage = "user:manage"
	UserRoles  = "user:roles"

	PlatformSettings = "platform:settings"
	PlatformAudit    = "platform:audit"
)

// Catalog returns every defined permission. The slice is freshly allocated
// on each call.
func Catalog() []string {
	return []string{
		StoreView, StoreManage, StoreSettings,
		ProductView, ProductCreate, ProductUpdate, ProductDelete,
		OrderView, OrderManage, OrderRefund,
		UserView, UserManage, UserRoles,
		PlatformSettings, PlatformAudit,
	}
}

var rolePermissions = map[Role]map[string]struct{}{
	RoleCustomer: permSet(
		StoreView,
		ProductView,
		OrderView,
	),
	RoleVendor: permSet(
		StoreView, StoreManage, StoreSettings,
		ProductView, ProductCreate, ProductUpdate, ProductDelete,
		OrderView, OrderManage,
	),
	RoleAdmin: permSet(
		StoreView, StoreManage, StoreSettings,
		ProductView, ProductCreate, ProductUpdate, ProductDelete,
		OrderView, OrderManage, OrderRefund,
		UserView, UserManage, UserRoles,
		PlatformAudit,
	),
	// Owner holds the full catalog. Built from Catalog() rather than listed
	// out, so a permission added to the catalog can never be missing here.
	RoleOwner: permSet(Catalog()...),
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Grants returns the permissions held by the role, in catalog order.
func Grants(r Role) []string {
	set, ok := rolePermissions[r]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for _, p := range Catalog() {
		if _, held := set[p]; held {
			out = append(out, p)
		}
	}
	return out
}
