package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"brokerdesk.app/internal/authz"
)

// newProxy builds the reverse proxy onto the upstream real-estate API. The
// gateway's only contribution to proxied calls is the bearer token; the
// payloads themselves are opaque and pass through unvalidated.
func (a *API) newProxy(upstream *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Header.Del("Authorization")
		if token, ok := authz.TokenFromContext(r.Context()); ok {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		r.Header.Del("Cookie")
		r.Host = upstream.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, http.StatusBadGateway, "upstream unavailable")
	}

	return proxy
}
