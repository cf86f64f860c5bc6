package commands

import (
	"slices"
	"strings"

	"github.com/goliatone/go-feedmirror/internal/logging"
	"github.com/goliatone/go-feedmirror/pkg/interfaces"
)

const commandModuleRoot = "feedmirror.commands"

// CommandLogger returns the logger for a command group, e.g. "sync" logs as
// feedmirror.commands.sync.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		name = "sync"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":     "command",
		"command_group": name,
	})
}

// outcomeKeys orders outcome counters so log lines stay stable between runs.
func outcomeKeys(outcome map[string]any) []string {
	keys := make([]string, 0, len(outcome))
	for k := range outcome {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
