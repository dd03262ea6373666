package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/website"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errBlogRequired     = errors.New("generator: blog service is required")
	errRendererRequired = errors.New("generator: page renderer is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	BuildSitemap(ctx context.Context) error
}

// PageRenderer resolves a website request into a response.
type PageRenderer interface {
	GetResponse(ctx context.Context, req website.Request) (*website.Response, error)
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	SiteTitle       string
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Routes limits the build to these routes. Empty builds every published route.
	Routes []string
	DryRun bool
}

// RenderedPage describes one written page.
type RenderedPage struct {
	Route        string
	Output       string
	Checksum     string
	Status       int
	LastModified time.Time
}

// RenderDiagnostic records a route that failed to render.
type RenderDiagnostic struct {
	Route string
	Err   error
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt   int
	PagesSkipped int
	FeedsBuilt   int
	Duration     time.Duration
	Rendered     []RenderedPage
	Diagnostics  []RenderDiagnostic
	Errors       []error
	DryRun       bool
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Blog   blog.Service
	Site   PageRenderer
	Writer ArtifactWriter
	Logger interfaces.Logger
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if deps.Writer == nil {
		deps.Writer = NewDirWriter(cfg.OutputDir)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	return &service{
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg  Config
	deps Dependencies
	now  func() time.Time
}

type disabledService struct{}

type buildTarget struct {
	route        string
	lastModified time.Time
}

type renderOutcome struct {
	page RenderedPage
	html []byte
	err  error
	skip bool
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if s.deps.Blog == nil {
		return nil, errBlogRequired
	}
	if s.deps.Site == nil {
		return nil, errRendererRequired
	}
	start := s.now()

	targets, posts, err := s.collectTargets(ctx, opts.Routes)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{DryRun: opts.DryRun}
	var mu sync.Mutex
	var outcomes []renderOutcome
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, outcome)
	}
	if err := s.renderConcurrently(ctx, targets, collect); err != nil {
		return nil, err
	}

	writer := s.deps.Writer
	if opts.DryRun {
		writer = noopWriter{}
	}

	var rendered []RenderedPage
	for _, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{Route: outcome.page.Route, Err: outcome.err})
			result.Errors = append(result.Errors, outcome.err)
		case outcome.skip:
			result.PagesSkipped++
		default:
			page := outcome.page
			if err := s.persistPage(ctx, writer, &page, outcome.html); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			rendered = append(rendered, page)
		}
	}
	result.Rendered = rendered
	result.PagesBuilt = len(rendered)

	fullBuild := len(opts.Routes) == 0
	if fullBuild && s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, rendered); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}
	if fullBuild && s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}
	if fullBuild && s.cfg.GenerateFeeds {
		count, err := s.writeFeeds(ctx, writer, posts)
		result.FeedsBuilt = count
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.Duration = s.now().Sub(start)
	logging.WithFields(s.deps.Logger, map[string]any{
		"pages_built":   result.PagesBuilt,
		"pages_skipped": result.PagesSkipped,
		"feeds_built":   result.FeedsBuilt,
		"errors":        len(result.Errors),
		"dry_run":       opts.DryRun,
		"duration_ms":   result.Duration.Milliseconds(),
	}).Info("generator.build.completed")

	if len(result.Errors) > 0 {
		return result, errors.Join(result.Errors...)
	}
	return result, nil
}

func (s *service) BuildSitemap(ctx context.Context) error {
	if s.deps.Blog == nil {
		return errBlogRequired
	}
	targets, _, err := s.collectTargets(ctx, nil)
	if err != nil {
		return err
	}
	pages := make([]RenderedPage, 0, len(targets))
	for _, target := range targets {
		pages = append(pages, RenderedPage{Route: target.route, LastModified: target.lastModified})
	}
	return s.writeSitemap(ctx, s.deps.Writer, pages)
}

// collectTargets lists the blog index, every published category and every
// published post. The published posts are returned for feed generation.
func (s *service) collectTargets(ctx context.Context, only []string) ([]buildTarget, []*blog.Post, error) {
	svc := s.deps.Blog
	var posts []*blog.Post
	for start := 0; ; {
		page, err := svc.ListPosts(ctx, blog.ListOptions{Start: start, Length: svc.PageLength()})
		if err != nil {
			return nil, nil, fmt.Errorf("generator: list posts: %w", err)
		}
		posts = append(posts, page.Posts...)
		if !page.HasMore() || len(page.Posts) == 0 {
			break
		}
		start += len(page.Posts)
	}

	categories, err := svc.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("generator: list categories: %w", err)
	}

	targets := []buildTarget{{route: svc.BlogRoute(), lastModified: latestUpdate(posts, "")}}
	for _, category := range categories {
		if !category.Published {
			continue
		}
		targets = append(targets, buildTarget{
			route:        category.Route,
			lastModified: firstNonZeroTime(latestUpdate(posts, category.Name), category.UpdatedAt),
		})
	}
	for _, post := range posts {
		targets = append(targets, buildTarget{route: post.Route, lastModified: post.UpdatedAt})
	}

	if len(only) == 0 {
		return targets, posts, nil
	}
	wanted := make(map[string]struct{}, len(only))
	for _, route := range only {
		wanted[website.NormalizeRoute(route)] = struct{}{}
	}
	filtered := targets[:0]
	for _, target := range targets {
		if _, ok := wanted[target.route]; ok {
			filtered = append(filtered, target)
		}
	}
	return filtered, posts, nil
}

func (s *service) renderConcurrently(ctx context.Context, targets []buildTarget, collect func(renderOutcome)) error {
	if len(targets) == 0 {
		return nil
	}
	workers := s.effectiveWorkerCount(len(targets))

	jobs := make(chan buildTarget)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				collect(s.renderPage(ctx, target))
			}
		}()
	}

	for _, target := range targets {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- target:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (s *service) renderPage(ctx context.Context, target buildTarget) renderOutcome {
	page := RenderedPage{Route: target.route, LastModified: target.lastModified}
	if err := ctx.Err(); err != nil {
		return renderOutcome{page: page, err: err}
	}
	resp, err := s.deps.Site.GetResponse(ctx, website.Request{
		Method: http.MethodGet,
		Path:   "/" + target.route,
		Header: http.Header{"Cache-Control": []string{"no-cache"}},
	})
	if err != nil {
		return renderOutcome{page: page, err: fmt.Errorf("generator: render %q: %w", target.route, err)}
	}
	page.Status = resp.Status
	if resp.Status != http.StatusOK {
		return renderOutcome{page: page, skip: true}
	}
	return renderOutcome{page: page, html: resp.Body}
}

func (s *service) persistPage(ctx context.Context, writer ArtifactWriter, page *RenderedPage, html []byte) error {
	dest := buildOutputPath(page.Route)
	if err := writer.EnsureDir(ctx, path.Dir(dest)); err != nil {
		return err
	}
	page.Output = dest
	page.Checksum = computeHash(html)
	return writer.WriteFile(ctx, WriteFileRequest{
		Path:        dest,
		Content:     html,
		Category:    CategoryPage,
		ContentType: "text/html; charset=utf-8",
		Checksum:    page.Checksum,
	})
}

func (s *service) writeSitemap(ctx context.Context, writer ArtifactWriter, pages []RenderedPage) error {
	content, err := buildSitemap(s.cfg.BaseURL, pages, s.now())
	if err != nil {
		return fmt.Errorf("generator: encode sitemap: %w", err)
	}
	return writer.WriteFile(ctx, WriteFileRequest{
		Path:        "sitemap.xml",
		Content:     content,
		Category:    CategorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHash(content),
	})
}

func (s *service) writeRobots(ctx context.Context, writer ArtifactWriter) error {
	content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
	return writer.WriteFile(ctx, WriteFileRequest{
		Path:        "robots.txt",
		Content:     content,
		Category:    CategoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHash(content),
	})
}

func (s *service) effectiveWorkerCount(targets int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > targets {
		workers = targets
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) BuildSitemap(context.Context) error {
	return ErrServiceDisabled
}

// buildOutputPath maps a route to its index.html file.
func buildOutputPath(route string) string {
	route = strings.Trim(route, "/")
	if route == "" {
		return "index.html"
	}
	return path.Join(route, "index.html")
}

func latestUpdate(posts []*blog.Post, category string) time.Time {
	var latest time.Time
	for _, post := range posts {
		if category != "" && post.BlogCategory != category {
			continue
		}
		if post.UpdatedAt.After(latest) {
			latest = post.UpdatedAt
		}
	}
	return latest
}

func firstNonZeroTime(values ...time.Time) time.Time {
	for _, value := range values {
		if !value.IsZero() {
			return value
		}
	}
	return time.Time{}
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
