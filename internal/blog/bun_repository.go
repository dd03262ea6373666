package blog

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	categoryNamespace = "blog_category"
	bloggerNamespace  = "blog_blogger"
)

// BunCategoryRepository implements CategoryRepository with optional caching.
type BunCategoryRepository struct {
	repo         repository.Repository[*Category]
	cacheService cache.CacheService
	cachePrefix  string
}

// NewBunCategoryRepository creates a category repository without caching.
func NewBunCategoryRepository(db *bun.DB) *BunCategoryRepository {
	return NewBunCategoryRepositoryWithCache(db, nil, nil)
}

// NewBunCategoryRepositoryWithCache creates a category repository backed by
// go-repository-cache when both services are provided.
func NewBunCategoryRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunCategoryRepository {
	base := NewCategoryRecordRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(categoryNamespace)
	}
	return &BunCategoryRepository{repo: base, cacheService: svc, cachePrefix: prefix}
}

func (r *BunCategoryRepository) Create(ctx context.Context, category *Category) (*Category, error) {
	record, err := r.repo.Create(ctx, category)
	if err != nil {
		return nil, mapRepositoryError(err, "category", category.Name)
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunCategoryRepository) Update(ctx context.Context, category *Category) (*Category, error) {
	record, err := r.repo.Update(ctx, category)
	if err != nil {
		return nil, mapRepositoryError(err, "category", category.Name)
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunCategoryRepository) GetByName(ctx context.Context, name string) (*Category, error) {
	record, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "category", name)
	}
	return record, nil
}

func (r *BunCategoryRepository) GetByRoute(ctx context.Context, route string) (*Category, error) {
	route = NormalizeRoute(route)
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.route = ?", route)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "category", route)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "category", Key: route}
	}
	return records[0], nil
}

func (r *BunCategoryRepository) List(ctx context.Context) ([]*Category, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.name ASC")
	}))
	return records, err
}

func (r *BunCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &Category{ID: id}); err != nil {
		return mapRepositoryError(err, "category", id.String())
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached category lookup.
func (r *BunCategoryRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// BunBloggerRepository implements BloggerRepository with optional caching.
type BunBloggerRepository struct {
	repo         repository.Repository[*Blogger]
	cacheService cache.CacheService
	cachePrefix  string
}

// NewBunBloggerRepository creates a blogger repository without caching.
func NewBunBloggerRepository(db *bun.DB) *BunBloggerRepository {
	return NewBunBloggerRepositoryWithCache(db, nil, nil)
}

// NewBunBloggerRepositoryWithCache creates a blogger repository with caching services.
func NewBunBloggerRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunBloggerRepository {
	base := NewBloggerRecordRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(bloggerNamespace)
	}
	return &BunBloggerRepository{repo: base, cacheService: svc, cachePrefix: prefix}
}

func (r *BunBloggerRepository) Create(ctx context.Context, blogger *Blogger) (*Blogger, error) {
	record, err := r.repo.Create(ctx, blogger)
	if err != nil {
		return nil, mapRepositoryError(err, "blogger", blogger.ShortName)
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunBloggerRepository) Update(ctx context.Context, blogger *Blogger) (*Blogger, error) {
	record, err := r.repo.Update(ctx, blogger)
	if err != nil {
		return nil, mapRepositoryError(err, "blogger", blogger.ShortName)
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunBloggerRepository) GetByShortName(ctx context.Context, shortName string) (*Blogger, error) {
	record, err := r.repo.GetByIdentifier(ctx, shortName)
	if err != nil {
		return nil, mapRepositoryError(err, "blogger", shortName)
	}
	return record, nil
}

func (r *BunBloggerRepository) List(ctx context.Context) ([]*Blogger, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.short_name ASC")
	}))
	return records, err
}

func (r *BunBloggerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &Blogger{ID: id}); err != nil {
		return mapRepositoryError(err, "blogger", id.String())
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops every cached blogger lookup.
func (r *BunBloggerRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

// BunPostRepository implements PostRepository. Posts are never cached at the
// repository level; rendered pages are cached by the website server instead.
type BunPostRepository struct {
	repo repository.Repository[*Post]
}

func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return &BunPostRepository{repo: NewPostRecordRepository(db)}
}

func (r *BunPostRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	record, err := r.repo.Create(ctx, post)
	if err != nil {
		return nil, mapRepositoryError(err, "post", post.Route)
	}
	return record, nil
}

func (r *BunPostRepository) Update(ctx context.Context, post *Post) (*Post, error) {
	record, err := r.repo.Update(ctx, post)
	if err != nil {
		return nil, mapRepositoryError(err, "post", post.ID.String())
	}
	return record, nil
}

func (r *BunPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	return record, nil
}

func (r *BunPostRepository) GetByRoute(ctx context.Context, route string) (*Post, error) {
	route = NormalizeRoute(route)
	record, err := r.repo.GetByIdentifier(ctx, route)
	if err != nil {
		return nil, mapRepositoryError(err, "post", route)
	}
	return record, nil
}

func (r *BunPostRepository) List(ctx context.Context, query PostQuery) ([]*Post, int, error) {
	filter := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		q = applyPostQuery(q, query)
		if query.Limit <= 0 && query.Offset > 0 {
			q = q.Offset(query.Offset)
		}
		return q
	})
	order := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.published_on IS NULL ASC").
			OrderExpr("?TableAlias.published_on DESC").
			OrderExpr("?TableAlias.created_at DESC")
	})

	var (
		records []*Post
		total   int
		err     error
	)
	if query.Limit > 0 {
		records, total, err = r.repo.List(ctx, filter, order, repository.SelectPaginate(query.Limit, max(query.Offset, 0)))
	} else {
		records, total, err = r.repo.List(ctx, filter, order)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("post repository error: %w", err)
	}
	return records, total, nil
}

func (r *BunPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &Post{ID: id}); err != nil {
		return mapRepositoryError(err, "post", id.String())
	}
	return nil
}

func applyPostQuery(q *bun.SelectQuery, query PostQuery) *bun.SelectQuery {
	if query.PublishedOnly {
		q = q.Where("?TableAlias.published = ?", true)
	}
	if category := strings.TrimSpace(query.Category); category != "" {
		q = q.Where("LOWER(?TableAlias.blog_category) = ?", strings.ToLower(category))
	}
	if blogger := strings.TrimSpace(query.Blogger); blogger != "" {
		q = q.Where("LOWER(?TableAlias.blogger) = ?", strings.ToLower(blogger))
	}
	if term := normalizeKey(query.Search); term != "" {
		pattern := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
			return g.Where("LOWER(?TableAlias.title) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.content) LIKE ?", pattern)
		})
	}
	return q
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
