package app

import (
	"context"
	"os/signal"
	"syscall"
)

// ContextWithSignals returns a context that is canceled on SIGINT or SIGTERM.
// An import canceled while resolving stops before anything is written.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
