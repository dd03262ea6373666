package staticcmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-blog/internal/commands"
	"github.com/goliatone/go-cms-blog/internal/generator"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

const (
	buildSiteMessageType    = "blog.static.build_site"
	buildSitemapMessageType = "blog.static.build_sitemap"
)

var (
	_ command.Commander[BuildSiteCommand]    = (*BuildSiteHandler)(nil)
	_ command.Commander[BuildSitemapCommand] = (*BuildSitemapHandler)(nil)
)

// BuildSiteCommand exports published routes as static files.
type BuildSiteCommand struct {
	// Routes limits the export. Empty exports everything published.
	Routes []string `json:"routes,omitempty"`
	DryRun bool     `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate rejects blank routes.
func (cmd BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Routes, validation.Each(validation.By(func(value any) error {
			route, _ := value.(string)
			if strings.TrimSpace(route) == "" {
				return validation.NewError("blog.static.route_blank", "routes cannot be blank")
			}
			return nil
		}))),
	)
}

// BuildSitemapCommand writes sitemap.xml without rendering pages.
type BuildSitemapCommand struct{}

// Type implements command.Message.
func (BuildSitemapCommand) Type() string { return buildSitemapMessageType }

// Validate satisfies command.Message.
func (BuildSitemapCommand) Validate() error { return nil }

// ResultReporter receives the outcome of a build.
type ResultReporter func(ctx context.Context, msg BuildSiteCommand, result *generator.BuildResult)

// BuildSiteHandler runs static exports.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler binds a handler to svc. report may be nil.
func NewBuildSiteHandler(svc generator.Service, logger interfaces.Logger, report ResultReporter, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		result, err := svc.Build(ctx, generator.BuildOptions{
			Routes: msg.Routes,
			DryRun: msg.DryRun,
		})
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"pages_built":   result.PagesBuilt,
				"pages_skipped": result.PagesSkipped,
				"feeds_built":   result.FeedsBuilt,
				"dry_run":       result.DryRun,
			}).Info("static.command.build_site.completed")
			if report != nil {
				report(ctx, msg, result)
			}
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("static.build_site"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			return map[string]any{
				"routes":  len(msg.Routes),
				"dry_run": msg.DryRun,
			}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildSitemapHandler regenerates sitemap.xml.
type BuildSitemapHandler struct {
	inner *commands.Handler[BuildSitemapCommand]
}

// NewBuildSitemapHandler binds a handler to svc.
func NewBuildSitemapHandler(svc generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSitemapCommand]) *BuildSitemapHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}
	exec := func(ctx context.Context, _ BuildSitemapCommand) error {
		return svc.BuildSitemap(ctx)
	}
	handlerOpts := []commands.HandlerOption[BuildSitemapCommand]{
		commands.WithLogger[BuildSitemapCommand](baseLogger),
		commands.WithOperation[BuildSitemapCommand]("static.build_sitemap"),
	}
	handlerOpts = append(handlerOpts, opts...)
	return &BuildSitemapHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildSitemapCommand].
func (h *BuildSitemapHandler) Execute(ctx context.Context, msg BuildSitemapCommand) error {
	return h.inner.Execute(ctx, msg)
}
