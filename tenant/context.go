package tenant

import "github.com/vendora/authcore/permission"

// Context carries the resolved caller identity into every gated operation.
// TenantID scopes the operation to one store; Bypass marks the maintenance
// path that runs with no tenant at all and is audited loudly.
type Context struct {
	UserID    string
	Role      permission.Role
	TenantID  string
	SessionID string
	Bypass    bool
}

func (c Context) subject() permission.Subject {
	return permission.Subject{UserID: c.UserID, Role: c.Role}
}
