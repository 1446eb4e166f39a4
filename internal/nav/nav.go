// Package nav filters the console's static navigation tree down to the
// entries the current account may see.
package nav

import "brokerdesk.app/internal/authz"

// Entry is one navigation item. Resource and Action are empty for items
// available to any authenticated account.
type Entry struct {
	Title          string  `json:"title"`
	Path           string  `json:"path"`
	Icon           string  `json:"icon,omitempty"`
	Resource       string  `json:"resource,omitempty"`
	Action         string  `json:"action,omitempty"`
	SuperAdminOnly bool    `json:"super_admin_only,omitempty"`
	Children       []Entry `json:"children,omitempty"`
}

// allowed evaluates an entry's own requirement; an entry with no resource
// needs only an authenticated account.
func allowed(account *authz.Account, e Entry) bool {
	if e.Resource == "" {
		return true
	}
	return authz.HasPermission(account, e.Resource, e.Action)
}

// Filter returns the entries the account may see, in the original order.
// A parent stays visible when its own check passes or any child's does; its
// emitted child list is filtered per child and may legitimately end up
// empty when the parent's own check passed.
func Filter(account *authz.Account, entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.SuperAdminOnly && !authz.IsSuperAdmin(account) {
			continue
		}
		if len(e.Children) == 0 {
			if allowed(account, e) {
				out = append(out, e)
			}
			continue
		}
		kept := Filter(account, e.Children)
		if !allowed(account, e) && len(kept) == 0 {
			continue
		}
		e.Children = kept
		out = append(out, e)
	}
	return out
}
