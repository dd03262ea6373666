package website

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-cms-blog/internal/cache"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

const (
	cacheStateHit    = "hit"
	cacheStateMiss   = "miss"
	cacheStateBypass = "bypass"

	contentTypeHTML = "text/html; charset=utf-8"
)

// Recorder observes server activity. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CacheHit(route string)
	CacheMiss(route string)
	ObserveRender(template string, elapsed time.Duration)
	ObserveResponse(status int)
}

type noopRecorder struct{}

func (noopRecorder) CacheHit(string)                     {}
func (noopRecorder) CacheMiss(string)                    {}
func (noopRecorder) ObserveRender(string, time.Duration) {}
func (noopRecorder) ObserveResponse(int)                 {}

// ServerConfig controls caching behaviour.
type ServerConfig struct {
	// CacheEnabled allows responses to be cached.
	CacheEnabled bool
	// DeveloperMode disables caching unless it is forced.
	DeveloperMode bool
	// TTL bounds cached entries; zero keeps them until invalidated.
	TTL time.Duration
	// BlogRoute is invalidated together with every changed route.
	BlogRoute string
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger interfaces.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) ServerOption {
	return func(s *Server) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithNow overrides the clock used for render timings.
func WithNow(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server resolves requests against its sources, renders the resulting page
// and caches successful responses.
type Server struct {
	cfg        ServerConfig
	sources    []Source
	renderer   *Renderer
	store      cache.Store
	logger     interfaces.Logger
	recorder   Recorder
	now        func() time.Time
	forceCache atomic.Bool
}

// NewServer wires a server. A nil store disables caching.
func NewServer(cfg ServerConfig, renderer *Renderer, store cache.Store, sources []Source, opts ...ServerOption) *Server {
	if renderer == nil {
		panic("website: renderer is required")
	}
	if store == nil {
		store = cache.NewNoopStore()
	}
	s := &Server{
		cfg:      cfg,
		sources:  append([]Source(nil), sources...),
		renderer: renderer,
		store:    store,
		logger:   logging.NoOp(),
		recorder: noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetForceCache makes every request cacheable regardless of configuration
// and request headers.
func (s *Server) SetForceCache(force bool) {
	s.forceCache.Store(force)
}

// ForceCache reports the force cache flag.
func (s *Server) ForceCache() bool {
	return s.forceCache.Load()
}

// ClearCache drops every cached response.
func (s *Server) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("website: clear cache: %w", err)
	}
	s.logger.Info("website.cache.cleared")
	return nil
}

// InvalidateRoutes drops cached responses for the given routes and every
// query variant of them. The blog index is always included.
func (s *Server) InvalidateRoutes(ctx context.Context, routes ...string) error {
	seen := make(map[string]struct{}, len(routes)+1)
	targets := append(append([]string(nil), routes...), s.cfg.BlogRoute)
	var errs []error
	for _, route := range targets {
		route = NormalizeRoute(route)
		if _, ok := seen[route]; ok {
			continue
		}
		seen[route] = struct{}{}
		if err := s.store.DeletePrefix(ctx, routeKeyPrefix(route)); err != nil {
			errs = append(errs, fmt.Errorf("website: invalidate %q: %w", route, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logging.WithFields(s.logger, map[string]any{"routes": len(seen)}).Debug("website.cache.invalidated")
	return nil
}

// GetResponse resolves req, serving from the cache when allowed.
func (s *Server) GetResponse(ctx context.Context, req Request) (*Response, error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	route := req.Route()
	useCache := s.canCache(req)
	key := req.CacheKey()

	if useCache {
		if resp, ok := s.lookup(ctx, key); ok {
			s.recorder.CacheHit(route)
			s.recorder.ObserveResponse(resp.Status)
			logging.WithRouteContext(s.logger, route, cacheStateHit).Debug("website.response")
			return resp, nil
		}
		s.recorder.CacheMiss(route)
	}

	resp, err := s.render(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Header.Set(HeaderFromCache, "False")

	state := cacheStateBypass
	if useCache {
		state = cacheStateMiss
		if resp.Status == http.StatusOK {
			s.save(ctx, key, resp)
		}
	}
	s.recorder.ObserveResponse(resp.Status)
	logging.WithRouteContext(s.logger, route, state).Debug("website.response")
	return resp, nil
}

// ServeHTTP renders website pages for GET and HEAD requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := RequestFromHTTP(r)
	if !req.cacheableMethod() {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.GetResponse(r.Context(), req)
	if err != nil {
		logging.WithRouteContext(s.logger, req.Route(), "").Error("website.response.failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	for name, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func (s *Server) canCache(req Request) bool {
	if s.forceCache.Load() {
		return true
	}
	if !s.cfg.CacheEnabled || s.cfg.DeveloperMode {
		return false
	}
	return req.cacheableMethod() && !req.noCache()
}

func (s *Server) render(ctx context.Context, req Request) (*Response, error) {
	page, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	started := s.now()
	body, err := s.renderer.Render(page)
	if err != nil {
		return nil, err
	}
	s.recorder.ObserveRender(page.Template, s.now().Sub(started))

	header := http.Header{}
	header.Set("Content-Type", contentTypeHTML)
	return &Response{Status: page.Status, Header: header, Body: body}, nil
}

func (s *Server) resolve(ctx context.Context, req Request) (*Page, error) {
	for _, source := range s.sources {
		page, err := source.Resolve(ctx, req)
		if errors.Is(err, ErrNoPage) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("website: resolve %q: %w", req.Route(), err)
		}
		if page.Status == 0 {
			page.Status = http.StatusOK
		}
		return page, nil
	}
	return &Page{
		Status:   http.StatusNotFound,
		Template: TemplateNotFound,
		Route:    req.Route(),
		Title:    "Not Found",
	}, nil
}

// cachedResponse is the msgpack encoded form of a stored response.
type cachedResponse struct {
	Status int                 `msgpack:"status"`
	Header map[string][]string `msgpack:"header"`
	Body   []byte              `msgpack:"body"`
}

func (s *Server) lookup(ctx context.Context, key string) (*Response, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("website.cache.get_failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entry cachedResponse
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("website.cache.decode_failed", "key", key, "error", err)
		return nil, false
	}
	header := http.Header(entry.Header).Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(HeaderFromCache, "True")
	return &Response{Status: entry.Status, Header: header, Body: entry.Body}, true
}

func (s *Server) save(ctx context.Context, key string, resp *Response) {
	header := resp.Header.Clone()
	header.Del(HeaderFromCache)
	raw, err := msgpack.Marshal(cachedResponse{
		Status: resp.Status,
		Header: header,
		Body:   resp.Body,
	})
	if err != nil {
		s.logger.Warn("website.cache.encode_failed", "key", key, "error", err)
		return
	}
	if err := s.store.Set(ctx, key, raw, s.cfg.TTL); err != nil {
		s.logger.Warn("website.cache.set_failed", "key", key, "error", err)
	}
}

// RoutesChanged invalidates routes reported by the blog service. Its
// signature matches blog.ChangeListener.
func (s *Server) RoutesChanged(ctx context.Context, routes []string) {
	if err := s.InvalidateRoutes(ctx, routes...); err != nil {
		s.logger.Warn("website.cache.invalidate_failed", "error", err)
	}
}
