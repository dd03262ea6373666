package cmsblog

import "github.com/goliatone/go-cms-blog/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown     = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired       = runtimeconfig.ErrStorageDSNRequired
	ErrCacheProviderUnknown     = runtimeconfig.ErrCacheProviderUnknown
	ErrCacheRedisAddrRequired   = runtimeconfig.ErrCacheRedisAddrRequired
	ErrWebsitePageLengthInvalid = runtimeconfig.ErrWebsitePageLengthInvalid
	ErrWebsiteBlogRouteRequired = runtimeconfig.ErrWebsiteBlogRouteRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
)

type (
	Config           = runtimeconfig.Config
	SiteConfig       = runtimeconfig.SiteConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	RedisConfig      = runtimeconfig.RedisConfig
	WebsiteConfig    = runtimeconfig.WebsiteConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	HTTPConfig       = runtimeconfig.HTTPConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	GeneratorConfig  = runtimeconfig.GeneratorConfig
)

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfigFromEnv applies BLOG_* style overrides on top of the defaults.
func LoadConfigFromEnv(prefix string) (Config, error) {
	return runtimeconfig.LoadFromEnv(prefix)
}
