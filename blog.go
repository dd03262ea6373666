package cmsblog

import (
	"context"
	"net/http"

	blogcommands "github.com/goliatone/go-cms-blog/commands"
	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/commands"
	markdowncmd "github.com/goliatone/go-cms-blog/internal/commands/markdown"
	staticcmd "github.com/goliatone/go-cms-blog/internal/commands/static"
	websitecmd "github.com/goliatone/go-cms-blog/internal/commands/website"
	"github.com/goliatone/go-cms-blog/internal/di"
	"github.com/goliatone/go-cms-blog/internal/generator"
	bloghttp "github.com/goliatone/go-cms-blog/internal/http"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/markdown"
	"github.com/goliatone/go-cms-blog/internal/metrics"
	"github.com/goliatone/go-cms-blog/internal/website"
)

// BlogService exports the blog service contract.
type BlogService = blog.Service

// Website types exported for callers driving the website server directly.
type (
	WebsiteServer   = website.Server
	WebsiteRequest  = website.Request
	WebsiteResponse = website.Response
)

// Static export types.
type (
	BuildOptions = generator.BuildOptions
	BuildResult  = generator.BuildResult
)

// Import types exported for markdown imports.
type (
	ImportOptions = markdown.ImportOptions
	ImportResult  = markdown.ImportResult
)

// Module is the top level blog runtime facade.
type Module struct {
	container *di.Container

	clearCache       *websitecmd.ClearCacheHandler
	invalidateRoutes *websitecmd.InvalidateRoutesHandler
}

// New constructs a blog module using cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	logger := commands.CommandLogger(container.LoggerProvider(), "website")
	site := container.WebsiteServer()
	return &Module{
		container:        container,
		clearCache:       websitecmd.NewClearCacheHandler(site, logger),
		invalidateRoutes: websitecmd.NewInvalidateRoutesHandler(site, logger),
	}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Blog returns the blog service.
func (m *Module) Blog() BlogService {
	return m.container.BlogService()
}

// Website returns the caching website server.
func (m *Module) Website() *WebsiteServer {
	return m.container.WebsiteServer()
}

// GetResponse resolves path, a route or absolute URL, through the website
// server.
func (m *Module) GetResponse(ctx context.Context, path string) (*WebsiteResponse, error) {
	req, err := website.NewRequest(path)
	if err != nil {
		return nil, err
	}
	return m.Website().GetResponse(ctx, req)
}

// SetForceCache makes every website request cacheable.
func (m *Module) SetForceCache(force bool) {
	m.Website().SetForceCache(force)
}

// ClearWebsiteCache drops every cached website response.
func (m *Module) ClearWebsiteCache(ctx context.Context) error {
	return m.clearCache.Execute(ctx, websitecmd.ClearCacheCommand{})
}

// InvalidateRoutes drops cached responses for routes.
func (m *Module) InvalidateRoutes(ctx context.Context, routes ...string) error {
	return m.invalidateRoutes.Execute(ctx, websitecmd.InvalidateRoutesCommand{Routes: routes})
}

// ImportMarkdown imports the Markdown documents under dir, relative to the
// configured content directory.
func (m *Module) ImportMarkdown(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error) {
	svc, err := m.container.MarkdownService()
	if err != nil {
		return nil, err
	}
	var result *ImportResult
	handler := markdowncmd.NewImportDirectoryHandler(svc,
		commands.CommandLogger(m.container.LoggerProvider(), "markdown"),
		func(_ context.Context, _ markdowncmd.ImportDirectoryCommand, r *markdown.ImportResult) {
			result = r
		})
	err = handler.Execute(ctx, markdowncmd.ImportDirectoryCommand{
		Directory:               dir,
		DefaultCategory:         opts.DefaultCategory,
		DefaultAuthor:           opts.DefaultAuthor,
		CreateMissingCategories: opts.CreateMissingCategories,
		DryRun:                  opts.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateSite exports the published site to the configured output
// directory, including sitemap, robots.txt and feeds when enabled.
func (m *Module) GenerateSite(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	handler := staticcmd.NewBuildSiteHandler(m.container.GeneratorService(nil),
		commands.CommandLogger(m.container.LoggerProvider(), "static"),
		func(_ context.Context, _ staticcmd.BuildSiteCommand, r *generator.BuildResult) {
			result = r
		})
	err := handler.Execute(ctx, staticcmd.BuildSiteCommand{Routes: opts.Routes, DryRun: opts.DryRun})
	return result, err
}

// RegisterCommands builds the module's command handlers and hands them to the
// registry, dispatcher or cron integrations named in opts.
func (m *Module) RegisterCommands(opts blogcommands.RegistrationOptions) (*blogcommands.RegistrationResult, error) {
	return blogcommands.RegisterContainerCommands(m.container, opts)
}

// Handler returns the HTTP handler serving the website, the JSON API and
// metrics.
func (m *Module) Handler() http.Handler {
	cfg := m.container.Config
	return bloghttp.NewRouter(cfg.HTTP, bloghttp.Dependencies{
		Blog:             m.Blog(),
		Website:          m.Website(),
		Metrics:          metrics.Handler(m.container.Registry()),
		ClearCache:       m.clearCache,
		InvalidateRoutes: m.invalidateRoutes,
		Logger:           logging.HTTPLogger(m.container.LoggerProvider()),
	})
}

// Migrate creates the blog schema on SQL storage.
func (m *Module) Migrate(ctx context.Context) error {
	return m.container.Migrate(ctx)
}

// Close releases the resources opened by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
