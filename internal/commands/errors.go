package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feedmirror/internal/failures"
)

const (
	commandValidationCode   = "COMMAND_VALIDATION_FAILED"
	commandContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	commandContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	commandContextErrorCode = "COMMAND_CONTEXT_ERROR"
	commandExecuteFailed    = "COMMAND_EXECUTION_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(commandValidationCode)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "mirror command cancelled").
			WithTextCode(commandContextCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "mirror command exceeded commands.timeout").
			WithTextCode(commandContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "mirror command context error").
			WithTextCode(commandContextErrorCode)
	}
}

// wrapExecuteError keeps pipeline failures (already categorised by the
// failures package) intact so callers can still test them with IsFatal.
func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "mirror command failed").
		WithTextCode(commandExecuteFailed)
}

// FailureKind names err for logs and metrics: the pipeline failure code when
// there is one, then the command wrapper code.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	if kind := failures.Kind(err); kind != "" {
		return kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return commandContextTimeout
	case errors.Is(err, context.Canceled):
		return commandContextCanceled
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return commandValidationCode
	default:
		return commandExecuteFailed
	}
}
