package blog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/storage"
	"github.com/goliatone/go-cms-blog/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newBunService(t *testing.T, withCache bool) blog.Service {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)
	if err := storage.Migrate(ctx, bunDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if !withCache {
		return blog.NewService(
			blog.NewBunCategoryRepository(bunDB),
			blog.NewBunBloggerRepository(bunDB),
			blog.NewBunPostRepository(bunDB),
		)
	}

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	keySerializer := repocache.NewDefaultKeySerializer()

	return blog.NewService(
		blog.NewBunCategoryRepositoryWithCache(bunDB, cacheService, keySerializer),
		blog.NewBunBloggerRepositoryWithCache(bunDB, cacheService, keySerializer),
		blog.NewBunPostRepository(bunDB),
	)
}

func TestBunRepositoriesPaginateByCategory(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		svc := newBunService(t, withCache)
		ctx := context.Background()

		for range 4 {
			if _, err := testsupport.MakeTestPost(ctx, svc, "List Category"); err != nil {
				t.Fatalf("cache=%v make test post: %v", withCache, err)
			}
		}
		if _, err := testsupport.MakeTestPost(ctx, svc, ""); err != nil {
			t.Fatalf("cache=%v make default post: %v", withCache, err)
		}

		for _, tc := range []struct{ start, length, want int }{{0, 3, 3}, {0, 4, 4}, {0, 2, 2}, {2, 4, 2}} {
			list, err := svc.ListPosts(ctx, blog.ListOptions{Category: "list-category", Start: tc.start, Length: tc.length})
			if err != nil {
				t.Fatalf("cache=%v list: %v", withCache, err)
			}
			if len(list.Posts) != tc.want {
				t.Fatalf("cache=%v start=%d len=%d: expected %d, got %d", withCache, tc.start, tc.length, tc.want, len(list.Posts))
			}
			if list.Total != 4 {
				t.Fatalf("cache=%v expected total 4, got %d", withCache, list.Total)
			}
		}
	}
}

func TestBunRepositoriesRoundTripPost(t *testing.T) {
	svc := newBunService(t, false)
	ctx := context.Background()

	post, err := testsupport.MakeTestPost(ctx, svc, "")
	if err != nil {
		t.Fatalf("make test post: %v", err)
	}

	fetched, err := svc.GetPostByRoute(ctx, "/"+post.Route+"/")
	if err != nil {
		t.Fatalf("get by route: %v", err)
	}
	if fetched.ID != post.ID || fetched.Title != post.Title {
		t.Fatalf("unexpected post %+v", fetched)
	}
	if fetched.Category == nil || fetched.Category.Name != "test-blog-category" {
		t.Fatalf("expected category reference, got %+v", fetched.Category)
	}
	if fetched.Author == nil || fetched.Author.FullName != testsupport.TestBloggerFullName {
		t.Fatalf("expected author reference, got %+v", fetched.Author)
	}
	if !fetched.Published || fetched.PublishedOn == nil {
		t.Fatalf("expected published post with a date")
	}

	category, err := svc.GetCategoryByRoute(ctx, "blog/test-blog-category")
	if err != nil {
		t.Fatalf("get category by route: %v", err)
	}
	if category.Name != "test-blog-category" {
		t.Fatalf("unexpected category %q", category.Name)
	}

	route := "test-route-fghij"
	unpublished := false
	if _, err := svc.UpdatePost(ctx, blog.UpdatePostInput{ID: post.ID, Route: &route, Published: &unpublished}); err != nil {
		t.Fatalf("update post: %v", err)
	}
	moved, err := svc.GetPostByRoute(ctx, route)
	if err != nil {
		t.Fatalf("get moved post: %v", err)
	}
	if moved.Published {
		t.Fatalf("expected post to be unpublished")
	}

	list, err := svc.ListPosts(ctx, blog.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("expected unpublished post to be hidden, got %d", list.Total)
	}

	if err := svc.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := svc.GetPost(ctx, post.ID); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if err := svc.DeleteCategory(ctx, "test-blog-category"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if exists, err := svc.CategoryExists(ctx, "test-blog-category"); err != nil || exists {
		t.Fatalf("expected category to be deleted, exists=%v err=%v", exists, err)
	}
}
