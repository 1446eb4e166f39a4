// Package authz implements the console's client-side authorization model:
// role gates, per-resource permission grants, and the escape hatches that
// bypass them. Every decision fails closed; the real enforcement boundary
// remains the upstream API, which re-checks each call server-side.
package authz

import (
	"encoding/json"
	"fmt"
)

// Role is the coarse account classification issued by the upstream
// authentication service.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleBuyer      Role = "buyer"
	RoleBroker     Role = "broker"
	RoleSupplier   Role = "supplier"
)

// AllPermissions is the wire sentinel the upstream uses in place of a grant
// list when an account may do everything.
const AllPermissions = "all"

// Grant allows a set of actions on a single named resource.
type Grant struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// PermissionSet is the tagged form of the upstream's permissions field,
// which is either the string "all" or an ordered list of grants.
type PermissionSet struct {
	All    bool
	Grants []Grant
}

// UnmarshalJSON accepts either the "all" sentinel or a grant array.
func (p *PermissionSet) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		if sentinel != AllPermissions {
			return fmt.Errorf("authz: unknown permissions sentinel %q", sentinel)
		}
		*p = PermissionSet{All: true}
		return nil
	}
	var grants []Grant
	if err := json.Unmarshal(data, &grants); err != nil {
		return fmt.Errorf("authz: permissions must be %q or a grant list: %w", AllPermissions, err)
	}
	*p = PermissionSet{Grants: grants}
	return nil
}

// MarshalJSON reproduces the upstream wire shape.
func (p PermissionSet) MarshalJSON() ([]byte, error) {
	if p.All {
		return json.Marshal(AllPermissions)
	}
	if p.Grants == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Grants)
}

// Account is the authenticated identity. Fields beyond role and permissions
// are carried through from the upstream untouched.
type Account struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Email       string        `json:"email,omitempty"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
}
