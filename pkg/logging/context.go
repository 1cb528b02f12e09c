package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	sessionIDKey
)

// WithLogger attaches logger to ctx. A nil logger attaches the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is short for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithSession tags ctx and its logger with an import session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("session_id", sessionID)
	})
}

// SessionID returns the import session id attached to ctx.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithRecord tags the logger with the snapshot record being resolved.
func WithRecord(ctx context.Context, kind, snapshotID string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("kind", kind).Str("snapshot_id", snapshotID)
	})
}

// WithKind tags the logger with an entity kind.
func WithKind(ctx context.Context, kind string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("kind", kind)
	})
}

// WithOperation tags the logger with a session phase such as "resolve".
func WithOperation(ctx context.Context, operation string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("operation", operation)
	})
}

// WithError tags the logger with err. A nil err leaves ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Err(err)
	})
}

// WithFields tags the logger with arbitrary fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func with(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	logger := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &logger)
}
