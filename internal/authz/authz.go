package authz

// IsSuperAdmin reports whether the account holds the superadmin role.
// A nil account is never a superadmin.
func IsSuperAdmin(a *Account) bool {
	return a != nil && a.Role == RoleSuperAdmin
}

// HasPermission reports whether the account may perform action on resource.
//
// The superadmin role and the "all" sentinel short-circuit before any
// per-resource lookup. Otherwise the first grant whose resource matches
// exactly decides; a missing grant or a missing action denies.
func HasPermission(a *Account, resource, action string) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleSuperAdmin || a.Permissions.All {
		return true
	}
	for _, g := range a.Permissions.Grants {
		if g.Resource != resource {
			continue
		}
		for _, act := range g.Actions {
			if act == action {
				return true
			}
		}
		// First matching grant wins, even when duplicates exist.
		return false
	}
	return false
}

// HasAnyPermission reports whether the account holds any grant at all on
// the resource, regardless of which actions it allows.
func HasAnyPermission(a *Account, resource string) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleSuperAdmin || a.Permissions.All {
		return true
	}
	for _, g := range a.Permissions.Grants {
		if g.Resource == resource {
			return true
		}
	}
	return false
}

// AccessibleResources lists the resources the account holds grants for, in
// grant order with duplicates preserved. The boolean is true when the
// account bypasses per-resource grants entirely (superadmin role or the
// "all" sentinel); the list is nil in that case.
func AccessibleResources(a *Account) ([]string, bool) {
	if a == nil {
		return nil, false
	}
	if a.Role == RoleSuperAdmin || a.Permissions.All {
		return nil, true
	}
	if len(a.Permissions.Grants) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(a.Permissions.Grants))
	for _, g := range a.Permissions.Grants {
		out = append(out, g.Resource)
	}
	return out, false
}
