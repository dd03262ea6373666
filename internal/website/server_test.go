package website_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/cache"
	"github.com/goliatone/go-cms-blog/internal/website"
	"github.com/goliatone/go-cms-blog/pkg/testsupport"
)

const articleMarker = `<article class="blog-content" itemscope itemtype="http://schema.org/BlogPosting">`

type countingRecorder struct {
	mu       sync.Mutex
	hits     int
	misses   int
	renders  int
	statuses map[int]int
}

func (r *countingRecorder) CacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *countingRecorder) CacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *countingRecorder) ObserveRender(string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
}

func (r *countingRecorder) ObserveResponse(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses == nil {
		r.statuses = map[int]int{}
	}
	r.statuses[status]++
}

type fixture struct {
	blog     blog.Service
	server   *website.Server
	recorder *countingRecorder
}

func newFixture(t *testing.T, cfg website.ServerConfig) *fixture {
	t.Helper()
	store, err := cache.NewMemoryStore(cache.MemoryConfig{})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	t.Cleanup(store.Close)

	renderer, err := website.NewRenderer("Test Site")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	f := &fixture{recorder: &countingRecorder{}}
	var server *website.Server
	f.blog = blog.NewService(
		blog.NewMemoryCategoryRepository(),
		blog.NewMemoryBloggerRepository(),
		blog.NewMemoryPostRepository(),
		blog.WithDefaultPageLength(3),
		blog.WithChangeListener(func(ctx context.Context, routes []string) {
			if server != nil {
				server.RoutesChanged(ctx, routes)
			}
		}),
	)
	if cfg.BlogRoute == "" {
		cfg.BlogRoute = f.blog.BlogRoute()
	}
	server = website.NewServer(cfg, renderer, store, website.BlogSources(f.blog, website.PathLinks{}),
		website.WithRecorder(f.recorder))
	f.server = server
	return f
}

func (f *fixture) get(t *testing.T, path string) *website.Response {
	t.Helper()
	req, err := website.NewRequest(path)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := f.server.GetResponse(context.Background(), req)
	if err != nil {
		t.Fatalf("get response %s: %v", path, err)
	}
	return resp
}

func categoryLinks(t *testing.T, body []byte) []string {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && strings.HasPrefix(attr.Val, "/blog/") {
					links = append(links, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}

func TestGetResponseRendersPublishedPost(t *testing.T) {
	f := newFixture(t, website.ServerConfig{})
	post, err := testsupport.MakeTestPost(context.Background(), f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	resp := f.get(t, "/"+post.Route)
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if !bytes.Contains(resp.Body, []byte(articleMarker)) {
		t.Fatalf("expected article marker in body:\n%s", resp.Body)
	}
	if !bytes.Contains(resp.Body, []byte(post.Title)) {
		t.Fatalf("expected post title in body")
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestGetResponseUnpublishedPostIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{})
	post, err := testsupport.MakeTestPost(ctx, f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}
	route := "test-route-" + testsupport.RandomString(5)
	published := false
	if _, err := f.blog.UpdatePost(ctx, blog.UpdatePostInput{ID: post.ID, Route: &route, Published: &published}); err != nil {
		t.Fatalf("update post: %v", err)
	}

	resp := f.get(t, route)
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
	if f.get(t, "no/such/route").Status != http.StatusNotFound {
		t.Fatalf("expected unknown route to be 404")
	}
}

func TestCategoryLinkResolvesToListing(t *testing.T) {
	f := newFixture(t, website.ServerConfig{})
	post, err := testsupport.MakeTestPost(context.Background(), f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	links := categoryLinks(t, f.get(t, post.Route).Body)
	var href string
	for _, link := range links {
		if strings.Contains(link, post.BlogCategory) {
			href = link
		}
	}
	if href == "" {
		t.Fatalf("expected a link to category %q, got %v", post.BlogCategory, links)
	}

	listing := f.get(t, href)
	if listing.Status != http.StatusOK {
		t.Fatalf("expected category listing 200, got %d", listing.Status)
	}
	if !bytes.Contains(listing.Body, []byte(post.Title)) {
		t.Fatalf("expected listing to contain %q", post.Title)
	}
}

func TestListingPaginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{})
	var posts []*blog.Post
	for range 4 {
		post, err := testsupport.MakeTestPost(ctx, f.blog, "Paged Category")
		if err != nil {
			t.Fatalf("make post: %v", err)
		}
		posts = append(posts, post)
	}

	first := f.get(t, "blog/paged-category")
	if !bytes.Contains(first.Body, []byte(`href="/blog/paged-category?start=3"`)) {
		t.Fatalf("expected next link on first page:\n%s", first.Body)
	}
	second := f.get(t, "blog/paged-category?start=3")
	if bytes.Contains(second.Body, []byte(`class="next"`)) {
		t.Fatalf("expected no next link on last page")
	}
	if !bytes.Contains(second.Body, []byte(`class="previous"`)) {
		t.Fatalf("expected previous link on last page")
	}

	index := f.get(t, "/blog")
	if index.Status != http.StatusOK {
		t.Fatalf("expected blog index 200, got %d", index.Status)
	}
	shown := 0
	for _, post := range posts {
		if bytes.Contains(index.Body, []byte(post.Title)) {
			shown++
		}
	}
	if shown != 3 {
		t.Fatalf("expected index to show one page of 3 posts, got %d", shown)
	}
}

func TestForceCacheServesSecondRequestFromCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{DeveloperMode: true})
	post, err := testsupport.MakeTestPost(ctx, f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	if f.get(t, post.Route).FromCache() {
		t.Fatalf("caching should be off in developer mode")
	}

	f.server.SetForceCache(true)
	if err := f.server.ClearCache(ctx); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
	first := f.get(t, post.Route)
	if got := first.Header.Get(website.HeaderFromCache); got != "False" {
		t.Fatalf("expected first response X-From-Cache False, got %q", got)
	}
	second := f.get(t, post.Route)
	if got := second.Header.Get(website.HeaderFromCache); got != "True" {
		t.Fatalf("expected second response X-From-Cache True, got %q", got)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Fatalf("cached body differs from rendered body")
	}
	if f.recorder.hits != 1 || f.recorder.misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", f.recorder.hits, f.recorder.misses)
	}
}

func TestCacheHonoursConfigAndHeaders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{CacheEnabled: true})
	post, err := testsupport.MakeTestPost(ctx, f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	f.get(t, post.Route)
	if !f.get(t, post.Route).FromCache() {
		t.Fatalf("expected cache hit with caching enabled")
	}

	req, _ := website.NewRequest(post.Route)
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := f.server.GetResponse(ctx, req)
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if resp.FromCache() {
		t.Fatalf("expected no-cache request to bypass the cache")
	}

	if f.get(t, "missing-page").Status != http.StatusNotFound {
		t.Fatalf("expected 404")
	}
	if f.get(t, "missing-page").FromCache() {
		t.Fatalf("404 responses must not be cached")
	}
}

func TestTrackingParametersShareCacheEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{CacheEnabled: true})
	post, err := testsupport.MakeTestPost(ctx, f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	f.get(t, post.Route+"?utm=1")
	for i := 2; i < 50; i++ {
		if !f.get(t, post.Route+"?utm="+strconv.Itoa(i)).FromCache() {
			t.Fatalf("expected utm=%d to reuse the cached page", i)
		}
	}
	if f.recorder.misses != 1 {
		t.Fatalf("expected one miss, got %d", f.recorder.misses)
	}
}

func TestPostUpdateInvalidatesCachedRoutes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, website.ServerConfig{CacheEnabled: true})
	post, err := testsupport.MakeTestPost(ctx, f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}
	f.get(t, post.Route)
	f.get(t, "blog?start=0")
	if !f.get(t, post.Route).FromCache() || !f.get(t, "blog?start=0").FromCache() {
		t.Fatalf("expected routes to be cached")
	}

	title := "Renamed " + testsupport.RandomString(6)
	if _, err := f.blog.UpdatePost(ctx, blog.UpdatePostInput{ID: post.ID, Title: &title}); err != nil {
		t.Fatalf("update post: %v", err)
	}

	resp := f.get(t, post.Route)
	if resp.FromCache() {
		t.Fatalf("expected post route to be invalidated")
	}
	if !bytes.Contains(resp.Body, []byte(title)) {
		t.Fatalf("expected updated title in body")
	}
	if f.get(t, "blog?start=0").FromCache() {
		t.Fatalf("expected blog index query variant to be invalidated")
	}
}

func TestServeHTTP(t *testing.T) {
	f := newFixture(t, website.ServerConfig{})
	post, err := testsupport.MakeTestPost(context.Background(), f.blog, "")
	if err != nil {
		t.Fatalf("make post: %v", err)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+post.Route, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(website.HeaderFromCache) != "False" {
		t.Fatalf("expected X-From-Cache header")
	}
	if !strings.Contains(rec.Body.String(), articleMarker) {
		t.Fatalf("expected article marker")
	}

	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+post.Route, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
