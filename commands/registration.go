// Package commands exposes the blog's go-command handlers to host
// applications: registries, dispatchers and cron schedulers.
package commands

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	internalcommands "github.com/goliatone/go-cms-blog/internal/commands"
	markdowncmd "github.com/goliatone/go-cms-blog/internal/commands/markdown"
	staticcmd "github.com/goliatone/go-cms-blog/internal/commands/static"
	websitecmd "github.com/goliatone/go-cms-blog/internal/commands/website"
	"github.com/goliatone/go-cms-blog/internal/di"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// ErrNoHandlers is returned when the container offers nothing to register.
var ErrNoHandlers = errors.New("commands: no blog command handlers available")

// CommandRegistry is satisfied by *command.Registry.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes handlers to a message dispatcher.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar schedules a handler using its cron configuration.
type CronRegistrar func(command.HandlerConfig, any) error

type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// ClearCacheCron schedules the website cache clear, e.g. "@every 1h".
	ClearCacheCron string
	// SkipMarkdown leaves out the import handler, for hosts without a
	// content directory.
	SkipMarkdown bool
}

type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// cronLinker is implemented by *command.Registry, which schedules cron
// handlers itself once given a registrar.
type cronLinker interface {
	SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
}

// RegisterContainerCommands builds the website, static export and markdown
// handlers for container, then hands each one to every integration set in
// opts. Registration keeps going after a failure; all errors are joined.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	result := &RegistrationResult{Handlers: []any{}, Subscriptions: []CommandSubscription{}}
	if container == nil {
		return result, nil
	}
	if opts.LoggerProvider == nil {
		opts.LoggerProvider = container.LoggerProvider()
	}
	if linker, ok := opts.Registry.(cronLinker); ok && opts.CronRegistrar != nil {
		linker.SetCronRegister(opts.CronRegistrar)
	}

	handlers, errs := buildHandlers(container, opts)
	for _, handler := range handlers {
		result.Handlers = append(result.Handlers, handler)
		subscription, err := wire(handler, opts)
		errs = errors.Join(errs, err)
		if subscription != nil {
			result.Subscriptions = append(result.Subscriptions, subscription)
		}
	}

	if len(handlers) == 0 && errs == nil {
		errs = ErrNoHandlers
	}
	return result, errs
}

func buildHandlers(container *di.Container, opts RegistrationOptions) ([]any, error) {
	var handlers []any
	var errs error

	if site := container.WebsiteServer(); site != nil {
		logger := CommandLogger(opts.LoggerProvider, "website")
		clearCache := websitecmd.NewClearCacheHandler(site, logger)
		if expr := strings.TrimSpace(opts.ClearCacheCron); expr != "" {
			clearCache.SetCronExpression(expr)
		}
		handlers = append(handlers, clearCache, websitecmd.NewInvalidateRoutesHandler(site, logger))
	}

	if generator := container.GeneratorService(nil); generator != nil {
		logger := CommandLogger(opts.LoggerProvider, "static")
		handlers = append(handlers,
			staticcmd.NewBuildSiteHandler(generator, logger, nil),
			staticcmd.NewBuildSitemapHandler(generator, logger),
		)
	}

	if !opts.SkipMarkdown {
		importer, err := container.MarkdownService()
		if err != nil {
			errs = errors.Join(errs, err)
		} else {
			handlers = append(handlers, markdowncmd.NewImportDirectoryHandler(importer, CommandLogger(opts.LoggerProvider, "markdown"), nil))
		}
	}
	return handlers, errs
}

// wire registers handler with the registry, dispatcher and cron scheduler.
// Only handlers carrying a cron expression are scheduled.
func wire(handler any, opts RegistrationOptions) (CommandSubscription, error) {
	var errs error
	var subscription CommandSubscription

	if opts.Registry != nil {
		errs = errors.Join(errs, opts.Registry.RegisterCommand(handler))
	}
	if opts.Dispatcher != nil {
		sub, err := opts.Dispatcher.RegisterCommand(handler)
		if err != nil {
			errs = errors.Join(errs, err)
		} else {
			subscription = sub
		}
	}
	if scheduled, ok := handler.(command.CronCommand); ok && opts.CronRegistrar != nil {
		if cfg := scheduled.CronOptions(); cfg.Expression != "" {
			errs = errors.Join(errs, opts.CronRegistrar(cfg, scheduled.CronHandler()))
		}
	}
	return subscription, errs
}

// CommandLogger returns the "blog.commands.<module>" logger.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	return internalcommands.CommandLogger(provider, module)
}
