package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// Logger names handed to the provider. Focus filters in the logging config
// match these.
const (
	ModuleBlog      = "blog"
	ModulePosts     = "blog.posts"
	ModuleWebsite   = "blog.website"
	ModuleCache     = "blog.cache"
	ModuleMarkdown  = "blog.markdown"
	ModuleHTTP      = "blog.http"
	ModuleGenerator = "blog.generator"
)

const (
	fieldModule     = "module"
	fieldRoute      = "route"
	fieldCacheState = "cache"
)

// ModuleLogger asks provider for the named logger and tags its entries with
// the module name. A nil provider, or one that returns nil, yields NoOp.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module = strings.TrimSpace(module); module == "" {
		module = ModuleBlog
	}
	var logger interfaces.Logger
	if provider != nil {
		logger = provider.GetLogger(module)
	}
	if logger == nil {
		return NoOp()
	}
	return WithFields(logger, map[string]any{fieldModule: module})
}

func PostsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModulePosts)
}

func WebsiteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModuleWebsite)
}

func CacheLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModuleCache)
}

func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModuleMarkdown)
}

func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModuleHTTP)
}

func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, ModuleGenerator)
}

// WithRouteContext tags entries with the website route and, once known, the
// cache outcome ("hit", "miss", "bypass").
func WithRouteContext(logger interfaces.Logger, route, cacheState string) interfaces.Logger {
	return WithFields(logger, map[string]any{
		fieldRoute:      nonEmpty(route),
		fieldCacheState: nonEmpty(cacheState),
	})
}

func nonEmpty(value string) any {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return nil
}

// NoOp discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any)                           {}
func (noopLogger) Debug(string, ...any)                           {}
func (noopLogger) Info(string, ...any)                            {}
func (noopLogger) Warn(string, ...any)                            {}
func (noopLogger) Error(string, ...any)                           {}
func (noopLogger) Fatal(string, ...any)                           {}
func (n noopLogger) WithFields(map[string]any) interfaces.Logger  { return n }
func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
