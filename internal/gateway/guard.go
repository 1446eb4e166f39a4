package gateway

import (
	"fmt"
	"net/http"

	"brokerdesk.app/internal/audit"
	"brokerdesk.app/internal/authz"
	"brokerdesk.app/internal/obs"
	"brokerdesk.app/internal/session"
)

// Requirement describes what a protected route demands of the session.
// A zero Requirement demands only an authenticated account.
type Requirement struct {
	Resource       string
	Action         string
	SuperAdminOnly bool
}

// Guard wraps a protected handler. Checks run in a fixed order: restore
// state first, authentication second, the superadmin gate, then the
// permission lookup. Restore must come first so a not-yet-loaded session is
// never misread as logged out, and authentication must come before any
// permission check so a missing account is never reported as a denial for
// cause.
func (a *API) Guard(req Requirement, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.guard(w, r, req, next)
	})
}

// GuardResource derives the required action from the HTTP method, the
// shape used by the proxied CRUD collections.
func (a *API) GuardResource(resource string, superAdminOnly bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.guard(w, r, Requirement{
			Resource:       resource,
			Action:         actionForMethod(r.Method),
			SuperAdminOnly: superAdminOnly,
		}, next)
	})
}

func (a *API) guard(w http.ResponseWriter, r *http.Request, req Requirement, next http.Handler) {
	snap := a.sessions.Snapshot()

	if snap.Restoring {
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusServiceUnavailable, session.ErrNotReady.Error())
		return
	}

	if !snap.Authenticated() {
		// Browsers get sent to the login route; API clients get a 401
		// pointing at it.
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, a.loginPath, http.StatusFound)
			return
		}
		w.Header().Set("Location", a.loginPath)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	if req.SuperAdminOnly && !authz.IsSuperAdmin(snap.Account) {
		a.deny(w, r, snap, req, "access denied")
		return
	}

	ctx := authz.ContextWithAccount(r.Context(), snap.Account)
	ctx = authz.ContextWithToken(ctx, snap.Token)
	r = r.WithContext(ctx)

	if req.Resource == "" {
		next.ServeHTTP(w, r)
		return
	}

	if authz.HasPermission(snap.Account, req.Resource, req.Action) {
		next.ServeHTTP(w, r)
		return
	}

	a.deny(w, r, snap, req, fmt.Sprintf("access denied: missing permission %s.%s", req.Resource, req.Action))
}

// deny is routine, expected state: audited for visibility, counted, never
// logged as an error.
func (a *API) deny(w http.ResponseWriter, r *http.Request, snap session.Snapshot, req Requirement, msg string) {
	obs.CountDenial(req.Resource, req.Action)
	_ = audit.LogEvent(authz.ContextWithAccount(r.Context(), snap.Account), "authz.denied", map[string]any{
		"resource": req.Resource,
		"action":   req.Action,
		"path":     r.URL.Path,
	})
	writeError(w, r, http.StatusForbidden, msg)
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		// Unknown verbs fall through to the permission lookup and fail
		// closed unless an escape hatch applies.
		return ""
	}
}
