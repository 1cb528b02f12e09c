// Package app provides the application context and dependency management
// for the argmap CLI: configuration, logging, and the lazily opened client
// bound to the local collection database.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/argmap"
	"github.com/agentstation/argmap/internal/appcontext"
	"github.com/agentstation/argmap/pkg/constants"
	"github.com/agentstation/argmap/pkg/errors"
	"github.com/agentstation/argmap/pkg/store/sqlite"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// App represents the argmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client and its database (lazy-initialized, singleton)
	mu     sync.Mutex
	db     *sqlite.Store
	client argmap.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// SimilarityThreshold returns the configured near-duplicate threshold.
func (a *App) SimilarityThreshold() float64 {
	return a.config.SimilarityThreshold
}

// ReviewPageSize returns the configured review page size.
func (a *App) ReviewPageSize() int {
	return a.config.ReviewPageSize
}

// Client returns the client for the configured database, opening the
// database on first use.
func (a *App) Client() (argmap.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	db, err := sqlite.Open(a.config.Database)
	if err != nil {
		return nil, errors.WrapStorage("open", "", err)
	}

	client, err := argmap.New(
		argmap.WithStore(db),
		argmap.WithApp(constants.AppName+"/"+a.version),
		argmap.WithCandidateCap(a.config.CandidateCap),
		argmap.WithFingerprintTTL(a.config.FingerprintTTL),
		argmap.WithLogger(a.logger),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.logger.Debug().Str("database", a.config.Database).Msg("Opened collection")
	a.db = db
	a.client = client
	return client, nil
}

// Shutdown closes the collection database if it was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	a.client = nil
	if err != nil {
		return errors.WrapStorage("close", "", err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(client argmap.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
