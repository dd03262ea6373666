package websitecmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-blog/internal/commands"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

const (
	clearCacheMessageType       = "blog.website.cache.clear"
	invalidateRoutesMessageType = "blog.website.cache.invalidate_routes"
)

var (
	_ command.Commander[ClearCacheCommand]       = (*ClearCacheHandler)(nil)
	_ command.Commander[InvalidateRoutesCommand] = (*InvalidateRoutesHandler)(nil)
)

// CacheController is the website server surface used by cache commands.
type CacheController interface {
	ClearCache(ctx context.Context) error
	InvalidateRoutes(ctx context.Context, routes ...string) error
}

// ClearCacheCommand drops every cached website response.
type ClearCacheCommand struct{}

// Type implements command.Message.
func (ClearCacheCommand) Type() string { return clearCacheMessageType }

// Validate satisfies command.Message.
func (ClearCacheCommand) Validate() error {
	return validation.ValidateStruct(&ClearCacheCommand{})
}

// InvalidateRoutesCommand drops cached responses for the listed routes.
type InvalidateRoutesCommand struct {
	Routes []string `json:"routes"`
}

// Type implements command.Message.
func (InvalidateRoutesCommand) Type() string { return invalidateRoutesMessageType }

// Validate requires at least one route.
func (cmd InvalidateRoutesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Routes, validation.Required, validation.Each(validation.By(func(value any) error {
			route, _ := value.(string)
			if strings.ContainsAny(route, " \t\n") {
				return validation.NewError("blog.website.cache.route_invalid", "routes cannot contain whitespace")
			}
			return nil
		}))),
	)
}

// ClearCacheHandler clears the website response cache.
type ClearCacheHandler struct {
	inner      *commands.Handler[ClearCacheCommand]
	cronConfig command.HandlerConfig
}

// NewClearCacheHandler constructs a handler wired to controller.
func NewClearCacheHandler(controller CacheController, logger interfaces.Logger, opts ...commands.HandlerOption[ClearCacheCommand]) *ClearCacheHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, _ ClearCacheCommand) error {
		if err := controller.ClearCache(ctx); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"operation": "clear",
		}).Info("website.command.cache.cleared")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ClearCacheCommand]{
		commands.WithLogger[ClearCacheCommand](baseLogger),
		commands.WithOperation[ClearCacheCommand]("website.cache.clear"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ClearCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ClearCacheCommand].
func (h *ClearCacheHandler) Execute(ctx context.Context, msg ClearCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SetCronExpression schedules periodic cache clears when registered with a
// cron runner. An empty expression leaves the handler unscheduled.
func (h *ClearCacheHandler) SetCronExpression(expr string) {
	h.cronConfig.Expression = strings.TrimSpace(expr)
}

// CronHandler satisfies command.CronCommand.
func (h *ClearCacheHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), ClearCacheCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *ClearCacheHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// InvalidateRoutesHandler drops cached responses for specific routes.
type InvalidateRoutesHandler struct {
	inner *commands.Handler[InvalidateRoutesCommand]
}

// NewInvalidateRoutesHandler constructs a handler wired to controller.
func NewInvalidateRoutesHandler(controller CacheController, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateRoutesCommand]) *InvalidateRoutesHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg InvalidateRoutesCommand) error {
		return controller.InvalidateRoutes(ctx, msg.Routes...)
	}

	handlerOpts := []commands.HandlerOption[InvalidateRoutesCommand]{
		commands.WithLogger[InvalidateRoutesCommand](baseLogger),
		commands.WithOperation[InvalidateRoutesCommand]("website.cache.invalidate_routes"),
		commands.WithMessageFields(func(msg InvalidateRoutesCommand) map[string]any {
			return map[string]any{"routes": strings.Join(msg.Routes, ",")}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateRoutesHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InvalidateRoutesCommand].
func (h *InvalidateRoutesHandler) Execute(ctx context.Context, msg InvalidateRoutesCommand) error {
	return h.inner.Execute(ctx, msg)
}
