package commands

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Outcome is what a finished run reports back to telemetry.
type Outcome struct {
	Fields     map[string]any
	ItemErrors int
}

// Handler runs a mirror command: it validates the message, tags the run with
// a run id, applies the optional timeout and reports the outcome.
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	outcome   func() Outcome
	telemetry Telemetry[T]
}

// NewHandler creates a handler that satisfies go-command's Commander interface
// while applying validation, logging and timeout enforcement.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Execute conforms to command.Commander[T].Execute and applies validation,
// context management, logging, and error categorisation before delegating to
// the wrapped function.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}

	ctx = EnsureContext(ctx)
	ctx, cancel := WithCommandTimeout(ctx, h.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	messageType := command.GetMessageType(msg)
	runID := uuid.NewString()
	fields := map[string]any{
		"command": messageType,
		"run_id":  runID,
	}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		for k, v := range h.fields(msg) {
			fields[k] = v
		}
	}
	logger := logging.WithFields(h.logger, fields)
	logger.Debug("command.execute.start")

	started := time.Now()
	err := h.exec(ctx, msg)
	status := TelemetryStatusSuccess
	switch {
	case err != nil && isContextError(err):
		status = TelemetryStatusContextError
		err = wrapContextError(err)
	case err != nil:
		status = TelemetryStatusFailed
		err = wrapExecuteError(err)
	default:
		if cerr := ctx.Err(); cerr != nil {
			status = TelemetryStatusContextError
			err = wrapContextError(cerr)
		}
	}

	var outcome Outcome
	if h.outcome != nil {
		outcome = h.outcome()
	}
	if status == TelemetryStatusSuccess && outcome.ItemErrors > 0 {
		status = TelemetryStatusPartial
	}

	info := TelemetryInfo{
		RunID:       runID,
		Command:     messageType,
		Operation:   h.operation,
		Fields:      fields,
		Outcome:     outcome.Fields,
		ItemErrors:  outcome.ItemErrors,
		FailureKind: FailureKind(err),
		Duration:    time.Since(started),
		Error:       err,
		Status:      status,
		Logger:      logger,
	}
	if h.telemetry != nil {
		h.telemetry(ctx, msg, info)
		return err
	}
	logOutcome(logger, info)
	return err
}

// WithTimeout bounds each execution. Zero, the default, disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution. Defaults to a no-op logger.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = EnsureLogger(logger)
	}
}

// WithOperation sets a human-friendly operation name emitted with every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields derives extra log fields from each message.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithOutcome reads the run counters once the command returns.
func WithOutcome[T command.Message](fn func() Outcome) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.outcome = fn
	}
}

// WithTelemetry replaces the built-in outcome logging with fn.
func WithTelemetry[T command.Message](fn Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = fn
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
