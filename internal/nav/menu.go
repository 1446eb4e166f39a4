package nav

// DefaultMenu is the console's full navigation tree before filtering.
func DefaultMenu() []Entry {
	return []Entry{
		{Title: "Dashboard", Path: "/", Icon: "home"},
		{Title: "Administrators", Path: "/admins", Icon: "shield", Resource: "admins", Action: "read", SuperAdminOnly: true},
		{Title: "Buyers", Path: "/buyers", Icon: "users", Resource: "buyers", Action: "read"},
		{Title: "Brokers", Path: "/brokers", Icon: "briefcase", Resource: "brokers", Action: "read"},
		{Title: "Suppliers", Path: "/suppliers", Icon: "truck", Resource: "suppliers", Action: "read"},
		{
			Title: "Projects", Path: "/projects", Icon: "building",
			Resource: "projects", Action: "read",
			Children: []Entry{
				{Title: "Properties", Path: "/projects/properties", Resource: "properties", Action: "read"},
				{Title: "Marketing", Path: "/projects/marketing", Resource: "marketing", Action: "read"},
				{Title: "Documents", Path: "/projects/documents", Resource: "documents", Action: "read"},
			},
		},
		{Title: "Purchase Orders", Path: "/orders", Icon: "cart", Resource: "orders", Action: "read"},
		{Title: "Support Tickets", Path: "/tickets", Icon: "lifebuoy", Resource: "tickets", Action: "read"},
		{Title: "Profile", Path: "/profile", Icon: "user"},
	}
}
