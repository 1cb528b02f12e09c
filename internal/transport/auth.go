package transport

import (
	"net/http"
	"os"
	"strings"
)

// Authenticator applies credentials to an outgoing snapshot request.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (NoAuth) Apply(_ *http.Request) {}

// BearerAuth sends Token as a bearer token.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// HeaderAuth sends Value in a custom header, e.g. "X-Api-Key".
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Header != "" && a.Value != "" {
		req.Header.Set(a.Header, a.Value)
	}
}

// TokenEnv is the environment variable holding a bearer token for
// remote snapshot locations.
const TokenEnv = "ARGMAP_SNAPSHOT_TOKEN"

// FromEnv returns a BearerAuth when TokenEnv is set, and NoAuth otherwise.
func FromEnv() Authenticator {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		return BearerAuth{Token: token}
	}
	return NoAuth{}
}
