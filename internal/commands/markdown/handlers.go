package markdowncmd

import (
	"context"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-blog/internal/commands"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/markdown"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

const importOperation = "markdown.import_directory"

var _ command.Commander[ImportDirectoryCommand] = (*ImportDirectoryHandler)(nil)

// Importer is the markdown service surface the handler needs.
type Importer interface {
	ImportDirectory(ctx context.Context, dir string, opts markdown.ImportOptions) (*markdown.ImportResult, error)
}

// ResultReporter receives the outcome of a successful import run.
type ResultReporter func(ctx context.Context, msg ImportDirectoryCommand, result *markdown.ImportResult)

// ImportDirectoryHandler runs Markdown directory imports through the shared
// command handler.
type ImportDirectoryHandler struct {
	inner *commands.Handler[ImportDirectoryCommand]
}

// NewImportDirectoryHandler creates a handler bound to importer. report may
// be nil.
func NewImportDirectoryHandler(importer Importer, logger interfaces.Logger, report ResultReporter, opts ...commands.HandlerOption[ImportDirectoryCommand]) *ImportDirectoryHandler {
	if importer == nil {
		panic("markdowncmd: importer is required")
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportDirectoryCommand) error {
		result, err := importer.ImportDirectory(ctx, msg.Directory, markdown.ImportOptions{
			DefaultCategory:         msg.DefaultCategory,
			DefaultAuthor:           msg.DefaultAuthor,
			CreateMissingCategories: msg.CreateMissingCategories,
			DryRun:                  msg.DryRun,
		})
		if err != nil {
			return err
		}
		if result == nil {
			result = &markdown.ImportResult{}
		}
		entry := logging.WithFields(baseLogger, map[string]any{
			"created_count": len(result.Created),
			"updated_count": len(result.Updated),
			"skipped_count": len(result.Skipped),
			"error_count":   len(result.Errors),
			"dry_run":       msg.DryRun,
		})
		for _, importErr := range result.Errors {
			entry.Warn("markdown.command.import_directory.document_failed", "error", importErr)
		}
		entry.Info("markdown.command.import_directory.completed")
		if report != nil {
			report(ctx, msg, result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportDirectoryCommand]{
		commands.WithLogger[ImportDirectoryCommand](baseLogger),
		commands.WithOperation[ImportDirectoryCommand](importOperation),
		commands.WithMessageFields(func(msg ImportDirectoryCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.DefaultCategory != "" {
				fields["default_category"] = msg.DefaultCategory
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportDirectoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportDirectoryCommand].
func (h *ImportDirectoryHandler) Execute(ctx context.Context, msg ImportDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
