package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	command "github.com/goliatone/go-command"

	markdowncmd "github.com/goliatone/go-cms-blog/internal/commands/markdown"
	staticcmd "github.com/goliatone/go-cms-blog/internal/commands/static"
	websitecmd "github.com/goliatone/go-cms-blog/internal/commands/website"
	"github.com/goliatone/go-cms-blog/internal/di"
	"github.com/goliatone/go-cms-blog/internal/runtimeconfig"
)

func newContainer(t *testing.T) *di.Container {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "memory"
	cfg.Logging.Provider = "none"
	cfg.Markdown.ContentDir = t.TempDir()

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func TestRegisterContainerCommandsBuildsHandlers(t *testing.T) {
	container := newContainer(t)
	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}
	cron := &recordingCron{}

	result, err := RegisterContainerCommands(container, RegistrationOptions{
		Registry:       registry,
		Dispatcher:     dispatcher,
		CronRegistrar:  cron.Registrar(),
		ClearCacheCron: "@hourly",
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	if len(result.Handlers) != 5 {
		t.Fatalf("expected 5 handlers, got %d", len(result.Handlers))
	}
	if len(registry.handlers) != len(result.Handlers) {
		t.Fatalf("expected registry to record all handlers, got %d of %d", len(registry.handlers), len(result.Handlers))
	}
	if len(dispatcher.subscriptions) != len(result.Handlers) {
		t.Fatalf("expected a subscription per handler, got %d", len(dispatcher.subscriptions))
	}
	if len(cron.registrations) != 1 {
		t.Fatalf("expected only the cache clear handler scheduled, got %d", len(cron.registrations))
	}
	if got := cron.registrations[0].config.Expression; got != "@hourly" {
		t.Fatalf("expected cron expression @hourly, got %q", got)
	}
	if cron.registrations[0].handler == nil {
		t.Fatal("expected cron handler func")
	}
	if err := cron.registrations[0].handler(); err != nil {
		t.Fatalf("cron handler: %v", err)
	}

	var hasClear, hasInvalidate, hasImport, hasBuild bool
	for _, handler := range result.Handlers {
		switch handler.(type) {
		case *websitecmd.ClearCacheHandler:
			hasClear = true
		case *websitecmd.InvalidateRoutesHandler:
			hasInvalidate = true
		case *markdowncmd.ImportDirectoryHandler:
			hasImport = true
		case *staticcmd.BuildSiteHandler:
			hasBuild = true
		}
	}
	if !hasClear || !hasInvalidate || !hasImport || !hasBuild {
		t.Fatalf("missing handlers: clear=%v invalidate=%v import=%v build=%v", hasClear, hasInvalidate, hasImport, hasBuild)
	}
}

func TestRegisterContainerCommandsWithoutRegistrars(t *testing.T) {
	container := newContainer(t)

	result, err := RegisterContainerCommands(container, RegistrationOptions{SkipMarkdown: true})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 4 {
		t.Fatalf("expected website and static handlers only, got %d", len(result.Handlers))
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterContainerCommandsUnscheduledByDefault(t *testing.T) {
	container := newContainer(t)
	cron := &recordingCron{}

	if _, err := RegisterContainerCommands(container, RegistrationOptions{CronRegistrar: cron.Registrar()}); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(cron.registrations) != 0 {
		t.Fatalf("expected no cron registrations without expression, got %d", len(cron.registrations))
	}
}

func TestRegisterContainerCommandsJoinsDispatcherErrors(t *testing.T) {
	container := newContainer(t)
	dispatcher := &recordingDispatcher{err: errors.New("dispatcher down")}

	result, err := RegisterContainerCommands(container, RegistrationOptions{Dispatcher: dispatcher})
	if err == nil {
		t.Fatal("expected dispatcher error")
	}
	if len(result.Handlers) == 0 || len(result.Subscriptions) != 0 {
		t.Fatalf("expected handlers without subscriptions, got %d handlers and %d subscriptions", len(result.Handlers), len(result.Subscriptions))
	}
	if strings.Count(err.Error(), "dispatcher down") != len(result.Handlers) {
		t.Fatalf("expected one joined error per handler, got %v", err)
	}
}

func TestRegisteredHandlersExecute(t *testing.T) {
	container := newContainer(t)
	result, err := RegisterContainerCommands(container, RegistrationOptions{SkipMarkdown: true})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	for _, handler := range result.Handlers {
		switch h := handler.(type) {
		case command.Commander[websitecmd.ClearCacheCommand]:
			if err := h.Execute(context.Background(), websitecmd.ClearCacheCommand{}); err != nil {
				t.Fatalf("clear cache: %v", err)
			}
		case command.Commander[websitecmd.InvalidateRoutesCommand]:
			if err := h.Execute(context.Background(), websitecmd.InvalidateRoutesCommand{Routes: []string{"blog"}}); err != nil {
				t.Fatalf("invalidate routes: %v", err)
			}
		}
	}
}

func TestRegisterContainerCommandsNilContainer(t *testing.T) {
	result, err := RegisterContainerCommands(nil, RegistrationOptions{})
	if err != nil {
		t.Fatalf("expected nil container to be a no-op, got %v", err)
	}
	if len(result.Handlers) != 0 {
		t.Fatalf("expected no handlers, got %d", len(result.Handlers))
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type cronRegistration struct {
	config  command.HandlerConfig
	handler func() error
}

// recordingCron captures scheduled jobs; the handler is kept only when it is
// the plain func() error go-command hands to cron schedulers.
type recordingCron struct {
	registrations []cronRegistration
}

func (c *recordingCron) Registrar() CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		fn, _ := handler.(func() error)
		c.registrations = append(c.registrations, cronRegistration{config: cfg, handler: fn})
		return nil
	}
}

type recordingDispatcher struct {
	subscriptions []*subscription
	err           error
}

func (d *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	if d.err != nil {
		return nil, d.err
	}
	sub := &subscription{handler: handler}
	d.subscriptions = append(d.subscriptions, sub)
	return sub, nil
}

type subscription struct {
	handler any
	closed  bool
}

func (s *subscription) Unsubscribe() { s.closed = true }
