package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"brokerdesk.app/internal/authz"
	"brokerdesk.app/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Restoring     bool            `json:"restoring,omitempty"`
	Account       json.RawMessage `json:"account,omitempty"`
	TokenExpiry   string          `json:"token_expiry,omitempty"`
	Unrestricted  bool            `json:"unrestricted,omitempty"`
	Resources     []string        `json:"resources,omitempty"`
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleLogin(w, r)
	case http.MethodGet:
		a.handleSessionState(w, r)
	case http.MethodDelete:
		a.handleLogout(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRoleNotAllowed):
			writeError(w, r, http.StatusForbidden, err.Error())
		case errors.Is(err, session.ErrLoginFailed):
			writeError(w, r, http.StatusUnauthorized, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"account":       account,
	})
}

func (a *API) handleSessionState(w http.ResponseWriter, r *http.Request) {
	snap := a.sessions.Snapshot()
	resp := sessionResponse{
		Authenticated: snap.Authenticated(),
		Restoring:     snap.Restoring,
	}
	if snap.Authenticated() {
		resp.Account = a.sessions.RawAccount()
		resp.Resources, resp.Unrestricted = authz.AccessibleResources(snap.Account)
		if exp, ok := session.TokenExpiry(snap.Token); ok {
			resp.TokenExpiry = exp.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Logout(r.Context()); err != nil {
		// The in-memory session is gone either way; report the cleanup
		// failure so the operator knows the stored copy may linger.
		writeError(w, r, http.StatusInternalServerError, "session cleared in memory, stored copy may remain")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
	})
}
