// Package fingerprint derives deterministic content fingerprints for debate
// artifacts. A fingerprint is the first 16 hex characters of the SHA-256
// digest of an entity's normalized identity fields, so two records with the
// same meaning produce the same fingerprint on every device.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/argmap/pkg/artifacts"
	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/normalize"
)

// delimiter separates identity fields. Normalized material never contains it.
const delimiter = "\x1f"

// Generator computes fingerprints and memoizes them by kind and normalized
// field content.
type Generator struct {
	cache *gocache.Cache
}

// Option configures a Generator.
type Option func(*options)

type options struct {
	ttl     time.Duration
	cleanup time.Duration
}

// WithTTL sets how long a memoized fingerprint is kept.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	o := &options{ttl: constants.DefaultFingerprintTTL}
	for _, opt := range opts {
		opt(o)
	}
	o.cleanup = o.ttl
	if o.ttl <= 0 {
		o.ttl, o.cleanup = gocache.NoExpiration, 0
	}
	return &Generator{cache: gocache.New(o.ttl, o.cleanup)}
}

var defaultGenerator = NewGenerator()

// Default returns the shared Generator used by Of.
func Default() *Generator {
	return defaultGenerator
}

// Of returns the fingerprint of e using a shared Generator.
func Of(e artifacts.Entity) string {
	return defaultGenerator.Of(e)
}

// Of returns the fingerprint of e.
func (g *Generator) Of(e artifacts.Entity) string {
	kind, fields := identity(e)
	m := material(kind, fields)
	key := string(kind) + delimiter + strings.Join(m, delimiter)
	if v, ok := g.cache.Get(key); ok {
		return v.(string)
	}
	fp := Hash(m...)
	g.cache.SetDefault(key, fp)
	return fp
}

// Len returns the number of memoized fingerprints.
func (g *Generator) Len() int {
	return g.cache.ItemCount()
}

// Flush drops every memoized fingerprint.
func (g *Generator) Flush() {
	g.cache.Flush()
}

// Hash joins fields with the delimiter and returns the truncated hex digest.
func Hash(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, delimiter)))
	return hex.EncodeToString(sum[:])[:constants.FingerprintLength]
}

// Material returns the normalized identity fields of e in hashing order.
func Material(e artifacts.Entity) []string {
	kind, fields := identity(e)
	return material(kind, fields)
}

// identity returns the raw identity fields of e in hashing order.
func identity(e artifacts.Entity) (artifacts.Kind, []string) {
	switch v := e.(type) {
	case *artifacts.Claim:
		return artifacts.KindClaim, []string{v.Text, string(v.Stance), string(v.Strength)}
	case *artifacts.Source:
		return artifacts.KindSource, []string{v.Title, v.Publisher, v.Date}
	case *artifacts.Evidence:
		return artifacts.KindEvidence, []string{v.Content, v.ClaimID}
	default:
		return e.EntityKind(), []string{e.PrimaryText()}
	}
}

// material normalizes the text fields of a raw identity tuple. Enums, ids
// and dates are already canonical and are only trimmed, with any delimiter
// removed so the joined material is unambiguous.
func material(kind artifacts.Kind, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if isText(kind, i) {
			out[i] = normalize.String(f)
		} else {
			out[i] = strings.ReplaceAll(strings.TrimSpace(f), delimiter, "")
		}
	}
	return out
}

func isText(kind artifacts.Kind, i int) bool {
	switch kind {
	case artifacts.KindClaim, artifacts.KindEvidence:
		return i == 0
	case artifacts.KindSource:
		return i < 2
	default:
		return true
	}
}
