package transport

import (
	"net/http"
	"strings"
)

// DefaultTokenHeader is the header TokenAuth uses when none is configured.
const DefaultTokenHeader = "x-auth-token"

// AuthStrategy decides how credentials are presented on each request. The
// set of strategies is closed: TokenAuth and BasicAuth.
type AuthStrategy interface {
	// Name identifies the strategy in logs and configuration.
	Name() string
	apply(req *http.Request)
}

// TokenAuth injects a single header carrying a token.
type TokenAuth struct {
	Header string
	Token  string
}

// BearerAuth is TokenAuth on the Authorization header with a Bearer prefix.
func BearerAuth(token string) TokenAuth {
	return TokenAuth{Header: "Authorization", Token: "Bearer " + token}
}

func (a TokenAuth) Name() string { return "token" }

func (a TokenAuth) header() string {
	if h := strings.TrimSpace(a.Header); h != "" {
		return h
	}
	return DefaultTokenHeader
}

func (a TokenAuth) apply(req *http.Request) {
	req.Header.Set(a.header(), a.Token)
}

// BasicAuth hands username and password to the HTTP client as RFC 7617
// credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Name() string { return "basicauth" }

func (a BasicAuth) apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}
