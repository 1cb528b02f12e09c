package argmap

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/store"
)

// Option is a function that configures a Client instance
type Option func(*options) error

// options holds the client configuration
type options struct {
	store          store.Store
	candidateCap   int
	fingerprintTTL time.Duration
	app            string
	now            func() time.Time
	logger         *zerolog.Logger
}

// defaults returns the default client configuration
func defaults() *options {
	return &options{
		candidateCap:   constants.DefaultCandidateCap,
		fingerprintTTL: constants.DefaultFingerprintTTL,
		app:            constants.AppName,
		now:            time.Now,
	}
}

// apply applies opts in order
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithStore configures the local collection to import into
func WithStore(s store.Store) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithCandidateCap configures how many existing entities each record is
// compared against
func WithCandidateCap(n int) Option {
	return func(o *options) error {
		o.candidateCap = n
		return nil
	}
}

// WithFingerprintTTL configures how long computed fingerprints are cached
func WithFingerprintTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.fingerprintTTL = ttl
		return nil
	}
}

// WithApp configures the application name written into exported snapshots
func WithApp(app string) Option {
	return func(o *options) error {
		o.app = app
		return nil
	}
}

// WithClock configures the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithLogger configures the logger used by import sessions
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
