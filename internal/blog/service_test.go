package blog_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/pkg/testsupport"
	"github.com/google/uuid"
)

type recordedChanges struct {
	routes [][]string
}

func (r *recordedChanges) listen(_ context.Context, routes []string) {
	r.routes = append(r.routes, routes)
}

func (r *recordedChanges) last() []string {
	if len(r.routes) == 0 {
		return nil
	}
	return r.routes[len(r.routes)-1]
}

func newMemoryService(t *testing.T, opts ...blog.ServiceOption) blog.Service {
	t.Helper()
	return blog.NewService(
		blog.NewMemoryCategoryRepository(),
		blog.NewMemoryBloggerRepository(),
		blog.NewMemoryPostRepository(),
		opts...,
	)
}

func seedAuthorAndCategory(t *testing.T, svc blog.Service, title string) *blog.Category {
	t.Helper()
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, blog.CreateCategoryInput{Title: title})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if exists, _ := svc.BloggerExists(ctx, "writer"); !exists {
		if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{ShortName: "writer", FullName: "Writer"}); err != nil {
			t.Fatalf("create blogger: %v", err)
		}
	}
	return category
}

func TestCreateCategoryDerivesNameAndRoute(t *testing.T) {
	svc := newMemoryService(t)

	category, err := svc.CreateCategory(context.Background(), blog.CreateCategoryInput{Title: "List Category"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.Name != "list-category" {
		t.Fatalf("expected scrubbed name, got %q", category.Name)
	}
	if category.Route != "blog/list-category" {
		t.Fatalf("expected category route, got %q", category.Route)
	}
	if !category.Published {
		t.Fatalf("expected category to default to published")
	}
	if category.ID == uuid.Nil {
		t.Fatalf("expected deterministic id")
	}

	_, err = svc.CreateCategory(context.Background(), blog.CreateCategoryInput{Title: "List Category"})
	if !errors.Is(err, blog.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	svc := newMemoryService(t)

	_, err := svc.CreateCategory(context.Background(), blog.CreateCategoryInput{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !blog.IsValidationError(err) {
		t.Fatalf("expected validation category, got %v", err)
	}

	_, err = svc.CreateCategory(context.Background(), blog.CreateCategoryInput{Title: "!!!"})
	if !blog.IsValidationError(err) {
		t.Fatalf("expected unscrubbable title to fail validation, got %v", err)
	}
}

func TestCreateBloggerRejectsDuplicates(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{ShortName: "ada", FullName: "Ada"}); err != nil {
		t.Fatalf("create blogger: %v", err)
	}
	if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{ShortName: "ada", FullName: "Ada L"}); !errors.Is(err, blog.ErrBloggerExists) {
		t.Fatalf("expected ErrBloggerExists, got %v", err)
	}
	if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{ShortName: "a b", FullName: "Spaces"}); !blog.IsValidationError(err) {
		t.Fatalf("expected validation error for whitespace short name, got %v", err)
	}
}

func TestCreatePostDerivesFields(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	changes := &recordedChanges{}
	svc := newMemoryService(t, blog.WithNow(func() time.Time { return fixed }), blog.WithChangeListener(changes.listen))
	category := seedAuthorAndCategory(t, svc, "Engineering")

	body := strings.Repeat("word ", 600)
	post, err := svc.CreatePost(context.Background(), blog.CreatePostInput{
		Title:        "Hello World",
		Content:      body,
		BlogCategory: category.Name,
		Blogger:      "writer",
		Published:    true,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if post.Route != "blog/engineering/hello-world" {
		t.Fatalf("expected derived route, got %q", post.Route)
	}
	if post.PublishedOn == nil || !post.PublishedOn.Equal(fixed) {
		t.Fatalf("expected published_on to be stamped, got %v", post.PublishedOn)
	}
	if post.ReadTime != 3 {
		t.Fatalf("expected read time 3, got %d", post.ReadTime)
	}
	if got := len([]rune(post.BlogIntro)); got > 200 || got == 0 {
		t.Fatalf("expected intro of at most 200 chars, got %d", got)
	}
	if post.ContentType != blog.ContentTypeMarkdown {
		t.Fatalf("expected markdown content type, got %q", post.ContentType)
	}
	if post.Category == nil || post.Author == nil {
		t.Fatalf("expected references to be attached")
	}

	routes := changes.last()
	for _, want := range []string{"blog/engineering/hello-world", "blog/engineering", "blog"} {
		if !slices.Contains(routes, want) {
			t.Fatalf("expected change listener to receive %q, got %v", want, routes)
		}
	}
}

func TestCreatePostRequiresReferences(t *testing.T) {
	svc := newMemoryService(t)
	category := seedAuthorAndCategory(t, svc, "News")
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, blog.CreatePostInput{Title: "x", BlogCategory: "missing", Blogger: "writer"})
	if !errors.Is(err, blog.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	_, err = svc.CreatePost(ctx, blog.CreatePostInput{Title: "x", BlogCategory: category.Name, Blogger: "nobody"})
	if !errors.Is(err, blog.ErrBloggerNotFound) {
		t.Fatalf("expected ErrBloggerNotFound, got %v", err)
	}

	if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{ShortName: "gone", FullName: "Gone", Disabled: true}); err != nil {
		t.Fatalf("create blogger: %v", err)
	}
	_, err = svc.CreatePost(ctx, blog.CreatePostInput{Title: "x", BlogCategory: category.Name, Blogger: "gone"})
	if !errors.Is(err, blog.ErrBloggerDisabled) {
		t.Fatalf("expected ErrBloggerDisabled, got %v", err)
	}
}

func TestCreatePostRejectsDuplicateRoute(t *testing.T) {
	svc := newMemoryService(t)
	category := seedAuthorAndCategory(t, svc, "News")
	ctx := context.Background()

	input := blog.CreatePostInput{Title: "Same", Route: "/news/same/", BlogCategory: category.Name, Blogger: "writer"}
	post, err := svc.CreatePost(ctx, input)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Route != "news/same" {
		t.Fatalf("expected slashes to be trimmed, got %q", post.Route)
	}
	if _, err := svc.CreatePost(ctx, input); !errors.Is(err, blog.ErrRouteExists) {
		t.Fatalf("expected ErrRouteExists, got %v", err)
	}
}

func TestUpdatePostMovesRouteAndUnpublishes(t *testing.T) {
	changes := &recordedChanges{}
	svc := newMemoryService(t, blog.WithChangeListener(changes.listen))
	ctx := context.Background()

	post, err := testsupport.MakeTestPost(ctx, svc, "")
	if err != nil {
		t.Fatalf("make test post: %v", err)
	}
	oldRoute := post.Route

	route := "test-route-abcde"
	published := false
	updated, err := svc.UpdatePost(ctx, blog.UpdatePostInput{ID: post.ID, Route: &route, Published: &published})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Route != route || updated.Published {
		t.Fatalf("unexpected update result: route=%q published=%v", updated.Route, updated.Published)
	}

	if _, err := svc.GetPostByRoute(ctx, oldRoute); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected old route to be gone, got %v", err)
	}
	fetched, err := svc.GetPostByRoute(ctx, route)
	if err != nil {
		t.Fatalf("get by new route: %v", err)
	}
	if fetched.ID != post.ID {
		t.Fatalf("expected same post after move")
	}

	routes := changes.last()
	if !slices.Contains(routes, oldRoute) || !slices.Contains(routes, route) {
		t.Fatalf("expected both routes to be reported, got %v", routes)
	}
}

func TestUpdatePostRecomputesIntroWhenContentChanges(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	category := seedAuthorAndCategory(t, svc, "News")

	post, err := svc.CreatePost(ctx, blog.CreatePostInput{
		Title: "Intro", Content: "first body", BlogCategory: category.Name, Blogger: "writer", Published: true,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	content := "second body"
	updated, err := svc.UpdatePost(ctx, blog.UpdatePostInput{ID: post.ID, Content: &content})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.BlogIntro != "second body" {
		t.Fatalf("expected intro to follow content, got %q", updated.BlogIntro)
	}

	_, err = svc.UpdatePost(ctx, blog.UpdatePostInput{ID: uuid.New(), Content: &content})
	if !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestListPostsPaginationByCategory(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	var last *blog.Post
	for range 4 {
		post, err := testsupport.MakeTestPost(ctx, svc, "List Category")
		if err != nil {
			t.Fatalf("make test post: %v", err)
		}
		last = post
	}
	if _, err := testsupport.MakeTestPost(ctx, svc, "Other Category"); err != nil {
		t.Fatalf("make other post: %v", err)
	}

	cases := []struct {
		start, length, want int
	}{
		{0, 3, 3},
		{0, 4, 4},
		{0, 2, 2},
		{2, 4, 2},
	}
	for _, tc := range cases {
		list, err := svc.ListPosts(ctx, blog.ListOptions{Category: "list-category", Start: tc.start, Length: tc.length})
		if err != nil {
			t.Fatalf("list posts: %v", err)
		}
		if len(list.Posts) != tc.want {
			t.Fatalf("start=%d len=%d: expected %d posts, got %d", tc.start, tc.length, tc.want, len(list.Posts))
		}
		if list.Total != 4 {
			t.Fatalf("expected total 4, got %d", list.Total)
		}
	}

	first, err := svc.ListPosts(ctx, blog.ListOptions{Category: "List Category", Length: 1})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(first.Posts) != 1 || !first.HasMore() {
		t.Fatalf("expected a single page with more results")
	}
	if first.Posts[0].PublishedOn == nil || last.PublishedOn == nil {
		t.Fatalf("expected published dates")
	}
}

func TestListPostsHidesDraftsUnlessRequested(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	category := seedAuthorAndCategory(t, svc, "Drafts")

	if _, err := svc.CreatePost(ctx, blog.CreatePostInput{Title: "Draft", BlogCategory: category.Name, Blogger: "writer"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := svc.CreatePost(ctx, blog.CreatePostInput{Title: "Live", Content: "golang", BlogCategory: category.Name, Blogger: "writer", Published: true}); err != nil {
		t.Fatalf("create live: %v", err)
	}

	public, err := svc.ListPosts(ctx, blog.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if public.Total != 1 || public.Posts[0].Title != "Live" {
		t.Fatalf("expected only the published post, got %+v", public)
	}
	if public.Length != blog.DefaultPageLength {
		t.Fatalf("expected default page length, got %d", public.Length)
	}

	all, err := svc.ListPosts(ctx, blog.ListOptions{IncludeUnpublished: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected drafts to be included, got %d", all.Total)
	}

	search, err := svc.ListPosts(ctx, blog.ListOptions{Search: "GOLANG"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if search.Total != 1 {
		t.Fatalf("expected case insensitive search match, got %d", search.Total)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	post, err := testsupport.MakeTestPost(ctx, svc, "")
	if err != nil {
		t.Fatalf("make test post: %v", err)
	}
	if err := svc.DeleteCategory(ctx, post.BlogCategory); !errors.Is(err, blog.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := svc.DeleteBlogger(ctx, post.Blogger); !errors.Is(err, blog.ErrBloggerInUse) {
		t.Fatalf("expected ErrBloggerInUse, got %v", err)
	}

	if err := svc.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if err := svc.DeleteCategory(ctx, post.BlogCategory); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if exists, err := svc.CategoryExists(ctx, post.BlogCategory); err != nil || exists {
		t.Fatalf("expected category to be gone, exists=%v err=%v", exists, err)
	}
	if err := svc.DeleteBlogger(ctx, post.Blogger); err != nil {
		t.Fatalf("delete blogger: %v", err)
	}
}

func TestMakeTestPostIsIdempotentForReferences(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	for range 2 {
		if _, err := testsupport.MakeTestPost(ctx, svc, ""); err != nil {
			t.Fatalf("make test post: %v", err)
		}
	}
	categories, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "test-blog-category" {
		t.Fatalf("expected single default category, got %+v", categories)
	}
	bloggers, err := svc.ListBloggers(ctx)
	if err != nil {
		t.Fatalf("list bloggers: %v", err)
	}
	if len(bloggers) != 1 || bloggers[0].FullName != testsupport.TestBloggerFullName {
		t.Fatalf("expected single test blogger, got %+v", bloggers)
	}
}

type upperParser struct{}

func (upperParser) Parse(markdown []byte) ([]byte, error) {
	return []byte("<p>" + strings.ToUpper(string(markdown)) + "</p>"), nil
}

func TestRenderContent(t *testing.T) {
	plain := newMemoryService(t)
	out, err := plain.RenderContent(&blog.Post{Content: "a < b\n\nsecond", ContentType: blog.ContentTypeMarkdown})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<p>a &lt; b</p>\n<p>second</p>\n" {
		t.Fatalf("unexpected fallback rendering %q", out)
	}

	parsed := newMemoryService(t, blog.WithContentParser(upperParser{}))
	out, err = parsed.RenderContent(&blog.Post{Content: "hi", ContentType: blog.ContentTypeMarkdown})
	if err != nil || out != "<p>HI</p>" {
		t.Fatalf("expected parser output, got %q err=%v", out, err)
	}

	out, err = parsed.RenderContent(&blog.Post{Content: "<b>raw</b>", ContentType: blog.ContentTypeHTML})
	if err != nil || out != "<b>raw</b>" {
		t.Fatalf("expected html passthrough, got %q err=%v", out, err)
	}
}
