package transport

import (
	"net/http"
	"strings"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}

// QueryAuth implements API key as query parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, apiKey)
	req.URL.RawQuery = query.Encode()
}

// AuthenticatorFor returns the authenticator for a configured scheme:
// "none", "bearer", "query:<param>", "header:<name>", or "" for X-API-Key.
func AuthenticatorFor(scheme string) Authenticator {
	if param, ok := strings.CutPrefix(scheme, "query:"); ok && param != "" {
		return &QueryAuth{Param: param}
	}
	if header, ok := strings.CutPrefix(scheme, "header:"); ok && header != "" {
		return &HeaderAuth{Header: header}
	}
	switch scheme {
	case "none":
		return &NoAuth{}
	case "bearer":
		return &BearerAuth{}
	default:
		return &HeaderAuth{Header: DefaultAPIKeyHeader}
	}
}
