package http

import (
	"context"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-blog/internal/blog"
	websitecmd "github.com/goliatone/go-cms-blog/internal/commands/website"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/runtimeconfig"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// Dependencies are the collaborators mounted by NewRouter. Nil optional
// members leave their routes unmounted.
type Dependencies struct {
	Blog    blog.Service
	Website http.Handler
	Metrics http.Handler

	ClearCache       command.Commander[websitecmd.ClearCacheCommand]
	InvalidateRoutes command.Commander[websitecmd.InvalidateRoutesCommand]

	Logger interfaces.Logger
}

// API serves the JSON endpoints.
type API struct {
	blog             blog.Service
	clearCache       command.Commander[websitecmd.ClearCacheCommand]
	invalidateRoutes command.Commander[websitecmd.InvalidateRoutesCommand]
	logger           interfaces.Logger
	maxListLength    int
}

// maxListPages bounds API listings when no explicit cap is configured.
const maxListPages = 5

// NewRouter builds the chi router for the blog.
func NewRouter(cfg runtimeconfig.HTTPConfig, deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		r.Method(http.MethodGet, mountPath(cfg.MetricsPath), deps.Metrics)
	}

	api := &API{
		blog:          deps.Blog,
		logger:        logger,
		maxListLength: cfg.MaxListLength,
	}
	if cfg.AdminEnabled {
		api.clearCache = deps.ClearCache
		api.invalidateRoutes = deps.InvalidateRoutes
	}
	if prefix := mountPath(cfg.APIPrefix); prefix == "/" {
		api.Register(r)
	} else {
		r.Route(prefix, api.Register)
	}

	if deps.Website != nil {
		r.Handle("/*", deps.Website)
	}
	return r
}

// Register mounts the API routes on r.
func (api *API) Register(r chi.Router) {
	if api.blog != nil {
		r.Get("/blog/posts", api.handlePostList)
		r.Get("/blog/posts/{id}", api.handlePostGet)
		r.Get("/blog/categories", api.handleCategoryList)
	}
	if api.clearCache != nil {
		r.Post("/website/cache/clear", api.handleCacheClear)
	}
	if api.invalidateRoutes != nil {
		r.Post("/website/cache/invalidate", api.handleCacheInvalidate)
	}
}

// NewServer wraps handler in an http.Server using the configured timeouts.
func NewServer(cfg runtimeconfig.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// Shutdown stops srv, waiting at most timeout for in-flight requests.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func requestLogger(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logging.WithFields(logger, map[string]any{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(started).Milliseconds(),
			}).Debug("http.request")
		})
	}
}
