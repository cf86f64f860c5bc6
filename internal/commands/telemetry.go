package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// TelemetryStatus is the outcome class of one command run.
type TelemetryStatus string

const (
	TelemetryStatusSuccess TelemetryStatus = "success"
	// TelemetryStatusPartial marks a run that finished with item errors.
	TelemetryStatusPartial      TelemetryStatus = "partial"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes one command run.
type TelemetryInfo struct {
	RunID     string
	Command   string
	Operation string
	Fields    map[string]any
	// Outcome carries the counters reported by the run (planned, saved,
	// committed and so on) when the handler exposes them.
	Outcome     map[string]any
	ItemErrors  int
	FailureKind string
	Duration    time.Duration
	Error       error
	Status      TelemetryStatus
	Logger      interfaces.Logger
}

// Telemetry is invoked once after every command run.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs the run outcome with its counters.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = logging.Ensure(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		logOutcome(logging.WithFields(logger, info.Fields), info)
	}
}

func logOutcome(entry interfaces.Logger, info TelemetryInfo) {
	args := []any{"duration_ms", info.Duration.Milliseconds()}
	for _, key := range outcomeKeys(info.Outcome) {
		args = append(args, key, info.Outcome[key])
	}
	switch info.Status {
	case TelemetryStatusSuccess:
		entry.Info("command.execute.success", args...)
	case TelemetryStatusPartial:
		entry.Warn("command.execute.partial", append(args, "item_errors", info.ItemErrors)...)
	case TelemetryStatusContextError:
		entry.Error("command.execute.context_error", append(args, "kind", info.FailureKind, "error", info.Error)...)
	default:
		entry.Error("command.execute.failed", append(args, "kind", info.FailureKind, "error", info.Error)...)
	}
}
