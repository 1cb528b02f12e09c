// Package appcontext provides the application context interface shared by
// all commands, so command packages depend on an interface rather than on
// the concrete App.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/argmap"
)

// Interface defines what commands need from the application.
// The App struct from cmd/argmap/app implements it.
type Interface interface {
	// Client returns the client bound to the configured database, opening
	// it lazily on first use.
	Client() (argmap.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, wide).
	OutputFormat() string

	// SimilarityThreshold is the default near-duplicate threshold.
	SimilarityThreshold() float64

	// ReviewPageSize is the number of review items shown per page.
	ReviewPageSize() int

	// Version returns the application version string.
	Version() string
}
