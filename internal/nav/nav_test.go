package nav

import (
	"testing"

	"brokerdesk.app/internal/authz"
)

func grants(pairs ...authz.Grant) authz.PermissionSet {
	return authz.PermissionSet{Grants: pairs}
}

func titles(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func expectTitles(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("entries=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries=%v, want %v", got, want)
		}
	}
}

func TestFilterKeepsParentWhenChildPasses(t *testing.T) {
	// The account can see documents only; the projects parent stays because
	// a child passed, and the emitted child list holds exactly that child.
	account := &authz.Account{
		Role:        authz.RoleAdmin,
		Permissions: grants(authz.Grant{Resource: "documents", Actions: []string{"read"}}),
	}

	menu := []Entry{{
		Title: "Projects", Path: "/projects", Resource: "projects", Action: "read",
		Children: []Entry{
			{Title: "Properties", Path: "/projects/properties", Resource: "properties", Action: "read"},
			{Title: "Marketing", Path: "/projects/marketing", Resource: "marketing", Action: "read"},
			{Title: "Documents", Path: "/projects/documents", Resource: "documents", Action: "read"},
		},
	}}

	filtered := Filter(account, menu)
	if len(filtered) != 1 || filtered[0].Title != "Projects" {
		t.Fatalf("expected projects parent kept, got %v", titles(filtered))
	}
	expectTitles(t, titles(filtered[0].Children), []string{"Documents"})
}

func TestFilterDropsParentWhenNothingPasses(t *testing.T) {
	account := &authz.Account{
		Role:        authz.RoleAdmin,
		Permissions: grants(authz.Grant{Resource: "buyers", Actions: []string{"read"}}),
	}

	filtered := Filter(account, DefaultMenu())
	for _, e := range filtered {
		if e.Title == "Projects" {
			t.Fatalf("projects kept without any grant: %v", titles(filtered))
		}
	}
}

func TestFilterParentOwnCheckKeepsEmptyChildList(t *testing.T) {
	account := &authz.Account{
		Role:        authz.RoleAdmin,
		Permissions: grants(authz.Grant{Resource: "projects", Actions: []string{"read"}}),
	}

	menu := []Entry{{
		Title: "Projects", Path: "/projects", Resource: "projects", Action: "read",
		Children: []Entry{
			{Title: "Marketing", Path: "/projects/marketing", Resource: "marketing", Action: "read"},
		},
	}}

	filtered := Filter(account, menu)
	if len(filtered) != 1 {
		t.Fatalf("parent with passing own check dropped: %v", titles(filtered))
	}
	if len(filtered[0].Children) != 0 {
		t.Fatalf("expected empty child list, got %v", titles(filtered[0].Children))
	}
}

func TestFilterSuperAdminSeesEverything(t *testing.T) {
	account := &authz.Account{Role: authz.RoleSuperAdmin}

	full := DefaultMenu()
	filtered := Filter(account, full)
	expectTitles(t, titles(filtered), titles(full))
}

func TestFilterDropsSuperAdminOnlyEntries(t *testing.T) {
	account := &authz.Account{Role: authz.RoleAdmin, Permissions: authz.PermissionSet{All: true}}

	filtered := Filter(account, DefaultMenu())
	for _, e := range filtered {
		if e.SuperAdminOnly {
			t.Fatalf("super-admin-only entry leaked: %v", e.Title)
		}
	}
	// Everything else is visible thanks to the "all" sentinel.
	want := []string{"Dashboard", "Buyers", "Brokers", "Suppliers", "Projects", "Purchase Orders", "Support Tickets", "Profile"}
	expectTitles(t, titles(filtered), want)
}

func TestFilterKeepsUnscopedEntries(t *testing.T) {
	account := &authz.Account{Role: authz.RoleBroker}

	filtered := Filter(account, DefaultMenu())
	expectTitles(t, titles(filtered), []string{"Dashboard", "Profile"})
}

func TestFilterPreservesOrder(t *testing.T) {
	account := &authz.Account{
		Role: authz.RoleAdmin,
		Permissions: grants(
			authz.Grant{Resource: "tickets", Actions: []string{"read"}},
			authz.Grant{Resource: "buyers", Actions: []string{"read"}},
		),
	}

	filtered := Filter(account, DefaultMenu())
	expectTitles(t, titles(filtered), []string{"Dashboard", "Buyers", "Support Tickets", "Profile"})
}
