package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/fingerprint"
)

// Option configures a Session.
type Option func(*options) error

type options struct {
	threshold    float64
	candidateCap int
	now          func() time.Time
	fingerprints *fingerprint.Generator
	newID        func() string
	sessionID    string
	logger       *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		threshold:    constants.DefaultSimilarityThreshold,
		candidateCap: constants.DefaultCandidateCap,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// WithThreshold sets the similarity ratio at or above which a record is
// routed to review as a near-duplicate.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold < 0 || threshold > 1 {
			return errors.NewValidationError("threshold", threshold, "must be within [0, 1]")
		}
		o.threshold = threshold
		return nil
	}
}

// WithCandidateCap limits how many existing entities a record is compared
// against. Zero or less means no limit.
func WithCandidateCap(n int) Option {
	return func(o *options) error {
		o.candidateCap = n
		return nil
	}
}

// WithClock sets the clock used for load and modification timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithFingerprints sets the fingerprint generator. The shared default
// generator is used otherwise.
func WithFingerprints(g *fingerprint.Generator) Option {
	return func(o *options) error {
		o.fingerprints = g
		return nil
	}
}

// WithIDGenerator sets the function minting ids for records whose id is
// already taken.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.NewValidationError("idGenerator", nil, "must not be nil")
		}
		o.newID = fn
		return nil
	}
}

// WithSessionID sets the session id instead of a random one.
func WithSessionID(id string) Option {
	return func(o *options) error {
		o.sessionID = id
		return nil
	}
}

// WithLogger sets the session logger. The context logger is used otherwise.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

func (o *options) fingerprint() *fingerprint.Generator {
	if o.fingerprints == nil {
		return fingerprint.Default()
	}
	return o.fingerprints
}
