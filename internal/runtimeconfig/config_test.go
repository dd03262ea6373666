package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-cms-blog/internal/runtimeconfig"
	urlkit "github.com/goliatone/go-urlkit"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{
			name:   "unknown storage driver",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Storage.Driver = "mongo" },
			want:   runtimeconfig.ErrStorageDriverUnknown,
		},
		{
			name: "sql driver without dsn",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Storage.Driver = "postgres"
				cfg.Storage.DSN = " "
			},
			want: runtimeconfig.ErrStorageDSNRequired,
		},
		{
			name: "redis without address",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Cache.Provider = "redis"
			},
			want: runtimeconfig.ErrCacheRedisAddrRequired,
		},
		{
			name:   "unknown cache provider",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Cache.Provider = "memcached" },
			want:   runtimeconfig.ErrCacheProviderUnknown,
		},
		{
			name:   "zero page length",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Website.PageLength = 0 },
			want:   runtimeconfig.ErrWebsitePageLengthInvalid,
		},
		{
			name:   "empty blog route",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Website.BlogRoute = "/" },
			want:   runtimeconfig.ErrWebsiteBlogRouteRequired,
		},
		{
			name:   "unknown logging provider",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Logging.Provider = "syslog" },
			want:   runtimeconfig.ErrLoggingProviderUnknown,
		},
		{
			name:   "invalid logging format",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Logging.Format = "xml" },
			want:   runtimeconfig.ErrLoggingFormatInvalid,
		},
		{
			name:   "unknown markdown extension",
			mutate: func(cfg *runtimeconfig.Config) { cfg.Markdown.Extensions = []string{"mermaid"} },
			want:   runtimeconfig.ErrMarkdownExtensionsInvalid,
		},
		{
			name: "route config without group",
			mutate: func(cfg *runtimeconfig.Config) {
				cfg.Navigation.RouteConfig = &urlkit.Config{}
			},
			want: runtimeconfig.ErrNavigationGroupRequired,
		},
		{
			name:   "negative list cap",
			mutate: func(cfg *runtimeconfig.Config) { cfg.HTTP.MaxListLength = -1 },
			want:   runtimeconfig.ErrHTTPListLengthInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCacheProviderCollapsesDisabledCache(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if got := cfg.CacheProvider(); got != "memory" {
		t.Fatalf("expected memory provider, got %q", got)
	}
	cfg.Cache.Enabled = false
	if got := cfg.CacheProvider(); got != "none" {
		t.Fatalf("expected none when disabled, got %q", got)
	}
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BLOGTEST_STORAGE_DRIVER", "postgres")
	t.Setenv("BLOGTEST_STORAGE_DSN", "postgres://blog@localhost/blog")
	t.Setenv("BLOGTEST_CACHE_DEFAULT_TTL", "90s")
	t.Setenv("BLOGTEST_CACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("BLOGTEST_WEBSITE_PAGE_LENGTH", "5")
	t.Setenv("BLOGTEST_LOGGING_FOCUS", "blog.website,blog.cache")
	t.Setenv("BLOGTEST_HTTP_ADMIN_ENABLED", "true")

	cfg, err := runtimeconfig.LoadFromEnv("BLOGTEST")
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://blog@localhost/blog" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Cache.DefaultTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %s", cfg.Cache.DefaultTTL)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected redis addr, got %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Website.PageLength != 5 {
		t.Fatalf("expected page length 5, got %d", cfg.Website.PageLength)
	}
	if len(cfg.Logging.Focus) != 2 {
		t.Fatalf("expected two focus entries, got %v", cfg.Logging.Focus)
	}
	if cfg.Website.BlogRoute != "blog" {
		t.Fatalf("expected default blog route to survive, got %q", cfg.Website.BlogRoute)
	}
	if cfg.Navigation.RouteConfig != nil {
		t.Fatal("expected ignored route config to stay nil")
	}
	if !cfg.HTTP.AdminEnabled {
		t.Fatal("expected admin endpoints to be enabled from env")
	}
}
