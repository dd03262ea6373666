package runtimeconfig

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix namespaces environment overrides, e.g. BLOG_STORAGE_DSN.
const DefaultEnvPrefix = "BLOG"

// LoadFromEnv starts from DefaultConfig and applies environment overrides.
// Variables that are not set leave the default in place.
func LoadFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := ApplyEnv(prefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment values onto an existing config.
func ApplyEnv(prefix string, cfg *Config) error {
	if cfg == nil {
		return nil
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if err := envconfig.Process(prefix, cfg); err != nil {
		return fmt.Errorf("blog config: load env: %w", err)
	}
	return nil
}
