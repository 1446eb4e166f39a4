// Package gateway is the console's HTTP surface: session endpoints, the
// filtered navigation tree, and a guarded reverse proxy onto the upstream
// real-estate API.
package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brokerdesk.app/internal/nav"
	"brokerdesk.app/internal/obs"
	"brokerdesk.app/internal/session"
)

// ReadyProbe reports whether the console's optional database is reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the API's collaborators.
type Config struct {
	Version    string
	Sessions   *session.Manager
	Menu       []nav.Entry
	Upstream   *url.URL
	LoginPath  string
	ReadyProbe ReadyProbe
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	handler    http.Handler
	sessions   *session.Manager
	menu       []nav.Entry
	proxy      http.Handler
	loginPath  string
	readyProbe ReadyProbe
	version    string
}

// Collections fronted by the gateway. admins is reachable only by
// superadmins regardless of granted permissions.
var proxiedResources = []struct {
	resource       string
	superAdminOnly bool
}{
	{"buyers", false},
	{"brokers", false},
	{"suppliers", false},
	{"projects", false},
	{"properties", false},
	{"orders", false},
	{"tickets", false},
	{"admins", true},
}

func New(cfg Config) (*API, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("gateway: session manager is required")
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.Menu == nil {
		cfg.Menu = nav.DefaultMenu()
	}

	a := &API{
		mux:        http.NewServeMux(),
		sessions:   cfg.Sessions,
		menu:       cfg.Menu,
		loginPath:  cfg.LoginPath,
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
	}
	if cfg.Upstream != nil {
		a.proxy = a.newProxy(cfg.Upstream)
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc(a.loginPath, a.handleLoginHint)
	a.mux.HandleFunc("/v1/session", a.handleSession)
	a.mux.Handle("/v1/navigation", a.Guard(Requirement{}, http.HandlerFunc(a.handleNavigation)))

	if a.proxy != nil {
		for _, res := range proxiedResources {
			handler := a.GuardResource(res.resource, res.superAdminOnly, a.proxy)
			a.mux.Handle("/v1/"+res.resource, handler)
			a.mux.Handle("/v1/"+res.resource+"/", handler)
		}
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	// The chain is assembled once so middleware state (rate-limit buckets
	// in particular) spans the server's lifetime.
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 10, 20)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	a.handler = obs.Instrument(h)

	return a, nil
}

// Handler returns the fully wrapped HTTP handler for the server.
func (a *API) Handler() http.Handler {
	return a.handler
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "brokerdesk-console",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.sessions.Snapshot().Restoring {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  "session restore in progress",
		})
		return
	}
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "brokerdesk-console",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) handleLoginHint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "authenticate via POST /v1/session",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
