package gologger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// Config mirrors runtimeconfig.LoggingConfig for the go-logger backend.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// Focus limits output to the named modules, e.g. "blog.website".
	Focus []string
}

const knownFormats = "console, json, pretty"

func formatOption(format string) (glog.Option, bool) {
	switch format {
	case "", "console":
		return glog.WithLoggerTypeConsole(), true
	case "json":
		return glog.WithLoggerTypeJSON(), true
	case "pretty":
		return glog.WithLoggerTypePretty(), true
	default:
		return nil, false
	}
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider hands out one go-logger child per blog module and reuses it on
// later lookups.
type Provider struct {
	root *glog.BaseLogger

	mu      sync.Mutex
	modules map[string]interfaces.Logger
}

// NewProvider configures the go-logger root logger.
func NewProvider(cfg Config) (*Provider, error) {
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	formatOpt, ok := formatOption(format)
	if !ok {
		return nil, fmt.Errorf("logging: unsupported go-logger format %q (want one of %s)", cfg.Format, knownFormats)
	}

	options := []glog.Option{formatOpt}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	var focus []string
	for _, module := range cfg.Focus {
		if module = strings.TrimSpace(module); module != "" {
			focus = append(focus, module)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}

	return &Provider{root: root, modules: map[string]interfaces.Logger{}}, nil
}

// GetLogger implements interfaces.LoggerProvider. An empty name yields the
// root logger.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return adapt(p.root)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if logger, ok := p.modules[name]; ok {
		return logger
	}
	logger := adapt(p.root.GetLogger(name))
	p.modules[name] = logger
	return logger
}

// glogAdapter narrows glog.Logger to interfaces.Logger.
type glogAdapter struct {
	glog.Logger
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return glogAdapter{Logger: inner}
}

func (a glogAdapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	return adapt(a.Logger.WithContext(ctx))
}

// WithFields copies fields before handing them to go-logger, which may keep
// the map.
func (a glogAdapter) WithFields(fields map[string]any) interfaces.Logger {
	enricher, ok := a.Logger.(glog.FieldsLogger)
	if !ok || len(fields) == 0 {
		return a
	}
	snapshot := make(map[string]any, len(fields))
	for key, value := range fields {
		snapshot[key] = value
	}
	return adapt(enricher.WithFields(snapshot))
}
