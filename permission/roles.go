package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of platform roles, ordered by privilege. The zero
// value is the least-privileged role.
type Role uint8

const (
	RoleCustomer Role = iota
	RoleVendor
	RoleAdmin
	RoleOwner
)

// ErrUnknownRole reports a role name outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

var roleNames = map[Role]string{
	RoleCustomer: "customer",
	RoleVendor:   "vendor",
	RoleAdmin:    "admin",
	RoleOwner:    "owner",
}

var rolesByName = map[string]Role{
	"customer": RoleCustomer,
	"vendor":   RoleVendor,
	"admin":    RoleAdmin,
	"owner":    RoleOwner,
}

// String returns the canonical lowercase name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Level returns the role's position in the privilege order. Higher means
// more privileged.
func (r Role) Level() int { return int(r) }

// CanManage reports whether r may assign or revoke the target role. A role
// manages only roles strictly below itself, so nobody grants or strips their
// own tier and the owner tier is unreachable through role management.
func (r Role) CanManage(target Role) bool {
	return r.Valid() && target.Valid() && r.Level() > target.Level()
}

// ParseRole maps a case-insensitive role name onto the closed set.
func ParseRole(name string) (Role, error) {
	r, ok := rolesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return RoleCustomer, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return r, nil
}

// Roles returns all defined roles in ascending privilege order.
func Roles() []Role {
	return []Role{RoleCustomer, RoleVendor, RoleAdmin, RoleOwner}
}
