package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

var (
	ErrStorageDriverUnknown      = errors.New("blog config: storage driver is invalid")
	ErrStorageDSNRequired        = errors.New("blog config: storage dsn is required for sql drivers")
	ErrCacheProviderUnknown      = errors.New("blog config: cache provider is invalid")
	ErrCacheRedisAddrRequired    = errors.New("blog config: redis address is required when cache provider is redis")
	ErrCacheTTLInvalid           = errors.New("blog config: cache ttl must be zero or positive")
	ErrWebsitePageLengthInvalid  = errors.New("blog config: website page length must be positive")
	ErrWebsiteBlogRouteRequired  = errors.New("blog config: website blog route is required")
	ErrLoggingProviderUnknown    = errors.New("blog config: logging provider is invalid")
	ErrLoggingLevelInvalid       = errors.New("blog config: logging level is invalid")
	ErrLoggingFormatInvalid      = errors.New("blog config: logging format is invalid")
	ErrNavigationGroupRequired   = errors.New("blog config: navigation group is required when a route config is set")
	ErrHTTPAddrRequired          = errors.New("blog config: http address is required")
	ErrHTTPListLengthInvalid     = errors.New("blog config: http max list length must be zero or positive")
	ErrMarkdownExtensionsInvalid = errors.New("blog config: markdown extension is unknown")
)

// Storage drivers.
const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// Website cache providers.
const (
	CacheProviderNone   = "none"
	CacheProviderMemory = "memory"
	CacheProviderRedis  = "redis"
)

var supportedMarkdownExtensions = map[string]struct{}{
	"gfm": {}, "table": {}, "tables": {}, "strikethrough": {}, "linkify": {},
	"autolink": {}, "tasklist": {}, "definition": {}, "footnote": {},
}

// Config aggregates the runtime options for the blog module. Every field can be
// overridden from the environment through LoadFromEnv.
type Config struct {
	Site       SiteConfig       `envconfig:"SITE"`
	Storage    StorageConfig    `envconfig:"STORAGE"`
	Cache      CacheConfig      `envconfig:"CACHE"`
	Website    WebsiteConfig    `envconfig:"WEBSITE"`
	Markdown   MarkdownConfig   `envconfig:"MARKDOWN"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
	HTTP       HTTPConfig       `envconfig:"HTTP"`
	Navigation NavigationConfig `envconfig:"NAVIGATION"`
	Generator  GeneratorConfig  `envconfig:"GENERATOR"`
}

// SiteConfig carries site wide metadata exposed to templates.
type SiteConfig struct {
	Title   string `envconfig:"TITLE"`
	BaseURL string `envconfig:"BASE_URL"`
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite or postgres.
	Driver       string `envconfig:"DRIVER"`
	DSN          string `envconfig:"DSN"`
	Debug        bool   `envconfig:"DEBUG"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS"`
}

// CacheConfig controls the website response cache and repository caching.
type CacheConfig struct {
	Enabled bool `envconfig:"ENABLED"`
	// Provider is one of memory, redis or none.
	Provider      string        `envconfig:"PROVIDER"`
	DefaultTTL    time.Duration `envconfig:"DEFAULT_TTL"`
	MaxCost       int64         `envconfig:"MAX_COST"`
	RepositoryTTL time.Duration `envconfig:"REPOSITORY_TTL"`
	Redis         RedisConfig   `envconfig:"REDIS"`
}

// RedisConfig configures the redis backed website cache.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB"`
	Prefix   string `envconfig:"PREFIX"`
}

// WebsiteConfig controls route resolution and rendering.
type WebsiteConfig struct {
	// DeveloperMode disables response caching unless it is forced.
	DeveloperMode bool   `envconfig:"DEVELOPER_MODE"`
	PageLength    int    `envconfig:"PAGE_LENGTH"`
	BlogRoute     string `envconfig:"BLOG_ROUTE"`
	// ThemeDir holds a go-theme manifest whose templates and assets replace
	// the embedded defaults. Empty keeps the embedded templates.
	ThemeDir     string `envconfig:"THEME_DIR"`
	ThemeVariant string `envconfig:"THEME_VARIANT"`
}

// MarkdownConfig mirrors the goldmark options used for post content.
type MarkdownConfig struct {
	Extensions []string `envconfig:"EXTENSIONS"`
	HardWraps  bool     `envconfig:"HARD_WRAPS"`
	SafeMode   bool     `envconfig:"SAFE_MODE"`
	// ContentDir is the base directory markdown imports are resolved against.
	ContentDir string `envconfig:"CONTENT_DIR"`
	Pattern    string `envconfig:"PATTERN"`
	Recursive  bool   `envconfig:"RECURSIVE"`
	// FrontMatterSchema is an optional JSON schema file imported documents must satisfy.
	FrontMatterSchema string `envconfig:"FRONT_MATTER_SCHEMA"`
}

// LoggingConfig captures provider specific logging options.
type LoggingConfig struct {
	Provider  string   `envconfig:"PROVIDER"`
	Level     string   `envconfig:"LEVEL"`
	Format    string   `envconfig:"FORMAT"`
	AddSource bool     `envconfig:"ADD_SOURCE"`
	Focus     []string `envconfig:"FOCUS"`
}

// HTTPConfig configures the public HTTP server.
type HTTPConfig struct {
	Addr           string        `envconfig:"ADDR"`
	ReadTimeout    time.Duration `envconfig:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `envconfig:"WRITE_TIMEOUT"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
	APIPrefix      string        `envconfig:"API_PREFIX"`
	MetricsPath    string        `envconfig:"METRICS_PATH"`
	// AdminEnabled mounts the cache administration endpoints.
	AdminEnabled bool `envconfig:"ADMIN_ENABLED"`
	// MaxListLength caps the length parameter of API listings. Zero derives
	// the cap from the website page length.
	MaxListLength int `envconfig:"MAX_LIST_LENGTH"`
}

// NavigationConfig switches link generation to go-urlkit when RouteConfig is set.
type NavigationConfig struct {
	RouteConfig *urlkit.Config `ignored:"true"`
	Group       string         `envconfig:"GROUP"`
}

// GeneratorConfig controls static exports of the published site.
type GeneratorConfig struct {
	OutputDir       string `envconfig:"OUTPUT_DIR"`
	GenerateSitemap bool   `envconfig:"SITEMAP"`
	GenerateRobots  bool   `envconfig:"ROBOTS"`
	GenerateFeeds   bool   `envconfig:"FEEDS"`
	Workers         int    `envconfig:"WORKERS"`
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Title: "Blog",
		},
		Storage: StorageConfig{
			Driver:       StorageDriverSQLite,
			DSN:          "file:blog.db?cache=shared",
			MaxOpenConns: 1,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Provider:      CacheProviderMemory,
			DefaultTTL:    10 * time.Minute,
			MaxCost:       64 << 20,
			RepositoryTTL: time.Minute,
			Redis: RedisConfig{
				Prefix: "blog",
			},
		},
		Website: WebsiteConfig{
			PageLength: 20,
			BlogRoute:  "blog",
		},
		Markdown: MarkdownConfig{
			ContentDir: ".",
			Pattern:    "*.md",
			Recursive:  true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "console",
		},
		Generator: GeneratorConfig{
			OutputDir:       "public",
			GenerateSitemap: true,
			GenerateRobots:  true,
			GenerateFeeds:   true,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 30 * time.Second,
			APIPrefix:      "/api",
			MetricsPath:    "/metrics",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Driver) {
	case StorageDriverMemory:
	case StorageDriverSQLite, StorageDriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}

	switch normalize(cfg.Cache.Provider) {
	case "", CacheProviderNone, CacheProviderMemory:
	case CacheProviderRedis:
		if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Redis.Addr) == "" {
			return ErrCacheRedisAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrCacheProviderUnknown, cfg.Cache.Provider)
	}
	if cfg.Cache.DefaultTTL < 0 || cfg.Cache.RepositoryTTL < 0 {
		return ErrCacheTTLInvalid
	}

	if cfg.Website.PageLength <= 0 {
		return ErrWebsitePageLengthInvalid
	}
	if strings.Trim(cfg.Website.BlogRoute, "/ ") == "" {
		return ErrWebsiteBlogRouteRequired
	}

	for _, ext := range cfg.Markdown.Extensions {
		if _, ok := supportedMarkdownExtensions[normalize(ext)]; !ok {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionsInvalid, ext)
		}
	}

	switch normalize(cfg.Logging.Provider) {
	case "", "none":
	case "gologger":
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Logging.Provider)
	}

	if cfg.Navigation.RouteConfig != nil && strings.TrimSpace(cfg.Navigation.Group) == "" {
		return ErrNavigationGroupRequired
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if cfg.HTTP.MaxListLength < 0 {
		return ErrHTTPListLengthInvalid
	}
	return nil
}

// CacheProvider returns the effective website cache provider, collapsing a
// disabled cache to "none".
func (cfg Config) CacheProvider() string {
	if !cfg.Cache.Enabled {
		return CacheProviderNone
	}
	provider := normalize(cfg.Cache.Provider)
	if provider == "" {
		return CacheProviderNone
	}
	return provider
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
