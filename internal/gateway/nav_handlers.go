package gateway

import (
	"net/http"

	"brokerdesk.app/internal/authz"
	"brokerdesk.app/internal/nav"
)

// handleNavigation returns the menu entries the current account may see.
// The guard has already established an authenticated account in context.
func (a *API) handleNavigation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	account, _ := authz.AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": nav.Filter(account, a.menu),
	})
}
