// Package logging carries argmap's zerolog logger. Terminals get console
// output; pipes and files get JSON lines, one event per line, so a session
// can be replayed from its log by filtering on session_id.
//
//	ctx = logging.WithSession(ctx, id)
//	logging.Ctx(logging.WithRecord(ctx, "claim", "c1")).Debug().Msg("Resolving")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment variables read by the default logger before any
// configuration is loaded.
const (
	LevelEnv  = "ARGMAP_LOG_LEVEL"
	FormatEnv = "ARGMAP_LOG_FORMAT"
)

var defaultLogger = fromEnv()

// fromEnv builds the process logger from LevelEnv and FormatEnv.
func fromEnv() zerolog.Logger {
	level := ParseLevel(os.Getenv(LevelEnv))
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if os.Getenv(FormatEnv) != "json" && isTerminal(os.Stderr) {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the process logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process logger, including zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the process logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the process logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the process logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the process logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
