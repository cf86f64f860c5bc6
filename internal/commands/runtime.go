package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// DefaultCommandTimeout is zero, so commands run until their batch is done.
// Set commands.timeout in the configuration to bound them.
const DefaultCommandTimeout time.Duration = 0

// EnsureContext returns a non-nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout bounds ctx by timeout. Zero or negative values return
// ctx unchanged.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns logger or the no-op logger.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	return logging.Ensure(logger)
}
