package testsupport

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/google/uuid"
)

const (
	DefaultCategoryTitle = "Test Blog Category"
	TestBloggerShortName = "test-blogger"
	TestBloggerFullName  = "Test Blogger"

	randomFieldLength = 20
)

// BlogWriter is the subset of the blog service the fixtures need.
type BlogWriter interface {
	CategoryExists(ctx context.Context, name string) (bool, error)
	CreateCategory(ctx context.Context, req blog.CreateCategoryInput) (*blog.Category, error)
	BloggerExists(ctx context.Context, shortName string) (bool, error)
	CreateBlogger(ctx context.Context, req blog.CreateBloggerInput) (*blog.Blogger, error)
	CreatePost(ctx context.Context, req blog.CreatePostInput) (*blog.Post, error)
}

// BlogProvider exposes a blog service, as the root module facade does.
type BlogProvider interface {
	Blog() blog.Service
}

// MakeTestBlog makes sure the category for categoryTitle and the test blogger
// exist, then inserts a new published post with random title, route and
// content. An empty categoryTitle uses DefaultCategoryTitle.
func MakeTestBlog(ctx context.Context, module BlogProvider, categoryTitle string) (*blog.Post, error) {
	if module == nil {
		return nil, fmt.Errorf("testsupport: module is required")
	}
	return MakeTestPost(ctx, module.Blog(), categoryTitle)
}

// MakeTestPost is MakeTestBlog for callers holding the service directly.
func MakeTestPost(ctx context.Context, svc BlogWriter, categoryTitle string) (*blog.Post, error) {
	if strings.TrimSpace(categoryTitle) == "" {
		categoryTitle = DefaultCategoryTitle
	}
	categoryName := blog.Scrub(categoryTitle)

	exists, err := svc.CategoryExists(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	if !exists {
		published := true
		if _, err := svc.CreateCategory(ctx, blog.CreateCategoryInput{
			Title:     categoryTitle,
			Published: &published,
		}); err != nil {
			return nil, fmt.Errorf("testsupport: create category: %w", err)
		}
	}

	exists, err = svc.BloggerExists(ctx, TestBloggerShortName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := svc.CreateBlogger(ctx, blog.CreateBloggerInput{
			ShortName: TestBloggerShortName,
			FullName:  TestBloggerFullName,
		}); err != nil {
			return nil, fmt.Errorf("testsupport: create blogger: %w", err)
		}
	}

	post, err := svc.CreatePost(ctx, blog.CreatePostInput{
		Title:        RandomString(randomFieldLength),
		Route:        RandomString(randomFieldLength),
		Content:      RandomString(randomFieldLength),
		BlogCategory: categoryName,
		Blogger:      TestBloggerShortName,
		Published:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("testsupport: create post: %w", err)
	}
	return post, nil
}

// RandomString returns n lowercase hex characters.
func RandomString(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
