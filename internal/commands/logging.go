package commands

import (
	"strings"

	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// CommandLogger names the logger "blog.commands.<module>" so go-logger focus
// filters can select one family of handlers, e.g. "website" or "static".
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.ToLower(strings.TrimSpace(module))
	if module == "" {
		module = "general"
	}
	return logging.WithFields(
		logging.ModuleLogger(provider, "blog.commands."+module),
		map[string]any{"command_module": module},
	)
}
