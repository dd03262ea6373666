package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/cache"
	"github.com/goliatone/go-cms-blog/internal/generator"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/logging/gologger"
	"github.com/goliatone/go-cms-blog/internal/markdown"
	"github.com/goliatone/go-cms-blog/internal/metrics"
	"github.com/goliatone/go-cms-blog/internal/runtimeconfig"
	"github.com/goliatone/go-cms-blog/internal/storage"
	"github.com/goliatone/go-cms-blog/internal/validation"
	"github.com/goliatone/go-cms-blog/internal/website"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// Container wires repositories, services, the website cache and metrics.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	categoryRepo blog.CategoryRepository
	bloggerRepo  blog.BloggerRepository
	postRepo     blog.PostRepository

	parser    *markdown.GoldmarkParser
	blogSvc   blog.Service
	markdown  *markdown.Service
	generator generator.Service

	store      cache.Store
	closeStore func() error
	registry   *prometheus.Registry
	recorder   *metrics.Website

	routeManager *urlkit.RouteManager
	links        website.LinkBuilder
	site         *website.Server
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB uses db instead of opening one from the storage config. The
// caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithCacheStore overrides the website response store.
func WithCacheStore(store cache.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithPrometheusRegistry registers collectors on registry instead of a
// private one.
func WithPrometheusRegistry(registry *prometheus.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithBlogService overrides the blog service binding.
func WithBlogService(svc blog.Service) Option {
	return func(c *Container) {
		c.blogSvc = svc
	}
}

// NewContainer validates cfg and wires every dependency.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func() error{
		c.configureLogger,
		c.configureStorage,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureWebsiteStore,
		c.configureMetrics,
		c.configureNavigation,
		c.configureServices,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil {
		return nil
	}
	if strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) != "gologger" {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureStorage() error {
	if c.bunDB != nil || strings.EqualFold(c.Config.Storage.Driver, runtimeconfig.StorageDriverMemory) {
		return nil
	}
	db, err := storage.Open(c.Config.Storage)
	if err != nil {
		return err
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if c.bunDB == nil || !c.Config.Cache.Enabled || c.Config.Cache.RepositoryTTL <= 0 {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		cfg.TTL = c.Config.Cache.RepositoryTTL
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: repository cache: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories() error {
	if c.bunDB == nil {
		c.categoryRepo = blog.NewMemoryCategoryRepository()
		c.bloggerRepo = blog.NewMemoryBloggerRepository()
		c.postRepo = blog.NewMemoryPostRepository()
		return nil
	}
	if c.cacheService != nil {
		c.categoryRepo = blog.NewBunCategoryRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.bloggerRepo = blog.NewBunBloggerRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		c.categoryRepo = blog.NewBunCategoryRepository(c.bunDB)
		c.bloggerRepo = blog.NewBunBloggerRepository(c.bunDB)
	}
	c.postRepo = blog.NewBunPostRepository(c.bunDB)
	return nil
}

func (c *Container) configureWebsiteStore() error {
	if c.store != nil {
		return nil
	}
	switch c.Config.CacheProvider() {
	case runtimeconfig.CacheProviderMemory:
		store, err := cache.NewMemoryStore(cache.MemoryConfig{MaxCost: c.Config.Cache.MaxCost})
		if err != nil {
			return err
		}
		c.store = store
		c.closeStore = func() error {
			store.Close()
			return nil
		}
	case runtimeconfig.CacheProviderRedis:
		redisCfg := c.Config.Cache.Redis
		store, err := cache.NewRedisStore(context.Background(), cache.RedisConfig{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
			Prefix:   redisCfg.Prefix,
		})
		if err != nil {
			return err
		}
		c.store = store
		c.closeStore = store.Close
	default:
		c.store = cache.NewNoopStore()
	}
	logging.CacheLogger(c.loggerProvider).Info("cache.store.configured", "provider", c.Config.CacheProvider())
	return nil
}

func (c *Container) configureMetrics() error {
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	recorder, err := metrics.NewWebsite(c.registry)
	if err != nil {
		return fmt.Errorf("di: register metrics: %w", err)
	}
	c.recorder = recorder
	return nil
}

func (c *Container) configureNavigation() error {
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig == nil {
		c.links = website.PathLinks{}
		return nil
	}
	c.routeManager = urlkit.NewRouteManager(navCfg.RouteConfig)
	links, err := website.NewURLKitLinks(c.routeManager, strings.TrimSpace(navCfg.Group), c.Config.Website.BlogRoute)
	if err != nil {
		return err
	}
	c.links = links
	return nil
}

func (c *Container) configureServices() error {
	c.parser = markdown.NewGoldmarkParser(markdown.ParseOptions{
		Extensions: c.Config.Markdown.Extensions,
		HardWraps:  c.Config.Markdown.HardWraps,
		SafeMode:   c.Config.Markdown.SafeMode,
	})

	if c.blogSvc == nil {
		c.blogSvc = blog.NewService(c.categoryRepo, c.bloggerRepo, c.postRepo,
			blog.WithLogger(logging.PostsLogger(c.loggerProvider)),
			blog.WithContentParser(c.parser),
			blog.WithBlogRoute(c.Config.Website.BlogRoute),
			blog.WithDefaultPageLength(c.Config.Website.PageLength),
			blog.WithChangeListener(func(ctx context.Context, routes []string) {
				if c.site != nil {
					c.site.RoutesChanged(ctx, routes)
				}
			}),
		)
	}

	var rendererOpts []website.RendererOption
	if dir := strings.TrimSpace(c.Config.Website.ThemeDir); dir != "" {
		theme, err := website.LoadTheme(dir, c.Config.Website.ThemeVariant)
		if err != nil {
			return err
		}
		rendererOpts = append(rendererOpts, website.WithTheme(theme))
		logging.WebsiteLogger(c.loggerProvider).Info("website.theme.loaded", "theme", theme.Name(), "dir", dir)
	}
	renderer, err := website.NewRenderer(c.Config.Site.Title, rendererOpts...)
	if err != nil {
		return err
	}
	c.site = website.NewServer(website.ServerConfig{
		CacheEnabled:  c.Config.CacheProvider() != runtimeconfig.CacheProviderNone,
		DeveloperMode: c.Config.Website.DeveloperMode,
		TTL:           c.Config.Cache.DefaultTTL,
		BlogRoute:     c.Config.Website.BlogRoute,
	}, renderer, c.store, website.BlogSources(c.blogSvc, c.links),
		website.WithLogger(logging.WebsiteLogger(c.loggerProvider)),
		website.WithRecorder(c.recorder),
	)
	return nil
}

// Migrate creates the blog schema when SQL storage is configured.
func (c *Container) Migrate(ctx context.Context) error {
	if c.bunDB == nil {
		return nil
	}
	return storage.Migrate(ctx, c.bunDB)
}

// Close releases the website store and any database opened by the container.
func (c *Container) Close() error {
	var errs []error
	if c.closeStore != nil {
		errs = append(errs, c.closeStore())
		c.closeStore = nil
	}
	if c.ownsDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	return errors.Join(errs...)
}

// LoggerProvider returns the configured provider; nil means no-op logging.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module logger from the configured provider.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// DB returns the bun database, nil for the memory driver.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// BlogService exposes the blog service.
func (c *Container) BlogService() blog.Service {
	return c.blogSvc
}

// MarkdownParser exposes the goldmark parser used for post content.
func (c *Container) MarkdownParser() *markdown.GoldmarkParser {
	return c.parser
}

// MarkdownService builds a markdown import service rooted at the configured
// content directory. The directory must exist.
func (c *Container) MarkdownService() (*markdown.Service, error) {
	if c.markdown != nil {
		return c.markdown, nil
	}
	cfg := markdown.Config{
		BasePath:  c.Config.Markdown.ContentDir,
		Pattern:   c.Config.Markdown.Pattern,
		Recursive: c.Config.Markdown.Recursive,
		Parser: markdown.ParseOptions{
			Extensions: c.Config.Markdown.Extensions,
			HardWraps:  c.Config.Markdown.HardWraps,
			SafeMode:   c.Config.Markdown.SafeMode,
		},
	}
	if path := strings.TrimSpace(c.Config.Markdown.FrontMatterSchema); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("di: read front matter schema: %w", err)
		}
		schema, err := validation.ParseSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("di: front matter schema %s: %w", path, err)
		}
		if schema != nil {
			cfg.FrontMatter = schema
		}
	}
	svc, err := markdown.NewService(cfg, c.blogSvc, logging.MarkdownLogger(c.loggerProvider))
	if err != nil {
		return nil, err
	}
	c.markdown = svc
	return svc, nil
}

// GeneratorService returns the static generator writing to the configured
// output directory, or to writer when one is given.
func (c *Container) GeneratorService(writer generator.ArtifactWriter) generator.Service {
	if writer == nil && c.generator != nil {
		return c.generator
	}
	cfg := c.Config.Generator
	svc := generator.NewService(generator.Config{
		OutputDir:       cfg.OutputDir,
		BaseURL:         c.Config.Site.BaseURL,
		SiteTitle:       c.Config.Site.Title,
		GenerateSitemap: cfg.GenerateSitemap,
		GenerateRobots:  cfg.GenerateRobots,
		GenerateFeeds:   cfg.GenerateFeeds,
		Workers:         cfg.Workers,
	}, generator.Dependencies{
		Blog:   c.blogSvc,
		Site:   c.site,
		Writer: writer,
		Logger: logging.GeneratorLogger(c.loggerProvider),
	})
	if writer == nil {
		c.generator = svc
	}
	return svc
}

// CacheStore exposes the website response store.
func (c *Container) CacheStore() cache.Store {
	return c.store
}

// WebsiteServer exposes the caching website server.
func (c *Container) WebsiteServer() *website.Server {
	return c.site
}

// Registry exposes the prometheus registry holding the blog collectors.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// RouteManager returns the go-urlkit manager when navigation is configured.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}
