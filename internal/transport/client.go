// Package transport fetches snapshots from remote locations over HTTP.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Accept lists the snapshot media types in order of preference.
const Accept = "application/json, application/yaml;q=0.9"

// Client provides HTTP client functionality with authentication.
type Client struct {
	http *http.Client
	auth Authenticator
}

// New creates a new transport client with the specified authenticator.
// A nil authenticator means no authentication.
func New(auth Authenticator) *Client {
	if auth == nil {
		auth = NoAuth{}
	}
	return &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
}

// Get fetches url. The caller closes the body of a successful response;
// any status other than 200 is returned as an IOError.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	req.Header.Set("User-Agent", constants.AppName)
	req.Header.Set("Accept", Accept)
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapIO("fetch", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, errors.WrapIO("fetch", url, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return resp, nil
}
