package snapshot

import (
	"context"
	"io"
	"mime"
	"net/url"
	"os"
	"strings"

	"github.com/agentstation/argmap/internal/transport"
	"github.com/agentstation/argmap/pkg/errors"
)

// Stdin is the location that reads a snapshot from standard input.
const Stdin = "-"

// Open opens a snapshot location: a file path, Stdin, or an http(s) URL.
// It returns the encoding implied by the location, or the empty Format
// when the content must be sniffed. Remote locations are fetched with a
// bearer token when ARGMAP_SNAPSHOT_TOKEN is set.
func Open(ctx context.Context, location string) (io.ReadCloser, Format, error) {
	switch {
	case location == Stdin:
		return io.NopCloser(os.Stdin), "", nil
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		return fetch(ctx, location)
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, "", errors.WrapIO("open", location, err)
		}
		return f, FormatFromPath(location), nil
	}
}

// Load opens and parses a snapshot location.
func Load(ctx context.Context, location string) (*Document, error) {
	rc, format, err := Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc, format, location)
}

func fetch(ctx context.Context, rawURL string) (io.ReadCloser, Format, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", errors.NewValidationError("location", rawURL, err.Error())
	}

	resp, err := transport.New(transport.FromEnv()).Get(ctx, u.String())
	if err != nil {
		return nil, "", err
	}

	format := FormatFromPath(u.Path)
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		switch {
		case strings.HasSuffix(mt, "json"):
			format = FormatJSON
		case strings.HasSuffix(mt, "yaml"):
			format = FormatYAML
		}
	}
	return resp.Body, format, nil
}
