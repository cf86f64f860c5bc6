package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

const (
	rootModule     = "feedmirror"
	remoteModule   = "feedmirror.remote"
	mirrorModule   = "feedmirror.mirror"
	feedsModule    = "feedmirror.feeds"
	historyModule  = "feedmirror.history"
	pipelineModule = "feedmirror.pipeline"
	markupModule   = "feedmirror.markup"
)

const (
	fieldArticleID = "article_id"
	fieldOperation = "operation"
	fieldPath      = "path"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per component.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RemoteLogger returns the logger namespace reserved for the remote index client.
func RemoteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, remoteModule)
}

// MirrorLogger returns the logger namespace reserved for local mirror access.
func MirrorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mirrorModule)
}

// FeedsLogger returns the logger namespace reserved for feed assembly.
func FeedsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, feedsModule)
}

// HistoryLogger returns the logger namespace reserved for the history writer.
func HistoryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, historyModule)
}

// PipelineLogger returns the logger namespace reserved for the orchestrator.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// MarkupLogger returns the logger namespace reserved for HTML conversion and snapshots.
func MarkupLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markupModule)
}

// WithArticleContext enriches the logger with the article identifier and the
// operation being performed. Empty values are ignored.
func WithArticleContext(logger interfaces.Logger, id, operation string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldArticleID] = trimmed
	}
	if trimmed := strings.TrimSpace(operation); trimmed != "" {
		fields[fieldOperation] = trimmed
	}
	return WithFields(logger, fields)
}

// WithPath attaches a file path field.
func WithPath(logger interfaces.Logger, path string) interfaces.Logger {
	if strings.TrimSpace(path) == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldPath: path})
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so components can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
