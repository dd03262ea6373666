package blog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryCategoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Category
	byName map[string]uuid.UUID
}

// NewMemoryCategoryRepository constructs an in-memory category repository.
func NewMemoryCategoryRepository() CategoryRepository {
	return &memoryCategoryRepository{
		byID:   make(map[uuid.UUID]*Category),
		byName: make(map[string]uuid.UUID),
	}
}

func (m *memoryCategoryRepository) Create(_ context.Context, category *Category) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneCategory(category)
	m.byID[cloned.ID] = cloned
	m.byName[normalizeKey(cloned.Name)] = cloned.ID
	return cloneCategory(cloned), nil
}

func (m *memoryCategoryRepository) Update(_ context.Context, category *Category) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[category.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "category", Key: category.ID.String()}
	}
	delete(m.byName, normalizeKey(existing.Name))
	cloned := cloneCategory(category)
	m.byID[cloned.ID] = cloned
	m.byName[normalizeKey(cloned.Name)] = cloned.ID
	return cloneCategory(cloned), nil
}

func (m *memoryCategoryRepository) GetByName(_ context.Context, name string) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byName[normalizeKey(name)]
	if !ok {
		return nil, &NotFoundError{Resource: "category", Key: name}
	}
	return cloneCategory(m.byID[id]), nil
}

func (m *memoryCategoryRepository) GetByRoute(_ context.Context, route string) (*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	route = NormalizeRoute(route)
	for _, record := range m.byID {
		if record.Route == route {
			return cloneCategory(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "category", Key: route}
}

func (m *memoryCategoryRepository) List(_ context.Context) ([]*Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Category, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneCategory(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}

func (m *memoryCategoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "category", Key: id.String()}
	}
	delete(m.byID, id)
	delete(m.byName, normalizeKey(record.Name))
	return nil
}

type memoryBloggerRepository struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]*Blogger
	byShortName map[string]uuid.UUID
}

// NewMemoryBloggerRepository constructs an in-memory blogger repository.
func NewMemoryBloggerRepository() BloggerRepository {
	return &memoryBloggerRepository{
		byID:        make(map[uuid.UUID]*Blogger),
		byShortName: make(map[string]uuid.UUID),
	}
}

func (m *memoryBloggerRepository) Create(_ context.Context, blogger *Blogger) (*Blogger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneBlogger(blogger)
	m.byID[cloned.ID] = cloned
	m.byShortName[normalizeKey(cloned.ShortName)] = cloned.ID
	return cloneBlogger(cloned), nil
}

func (m *memoryBloggerRepository) Update(_ context.Context, blogger *Blogger) (*Blogger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[blogger.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "blogger", Key: blogger.ID.String()}
	}
	delete(m.byShortName, normalizeKey(existing.ShortName))
	cloned := cloneBlogger(blogger)
	m.byID[cloned.ID] = cloned
	m.byShortName[normalizeKey(cloned.ShortName)] = cloned.ID
	return cloneBlogger(cloned), nil
}

func (m *memoryBloggerRepository) GetByShortName(_ context.Context, shortName string) (*Blogger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byShortName[normalizeKey(shortName)]
	if !ok {
		return nil, &NotFoundError{Resource: "blogger", Key: shortName}
	}
	return cloneBlogger(m.byID[id]), nil
}

func (m *memoryBloggerRepository) List(_ context.Context) ([]*Blogger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Blogger, 0, len(m.byID))
	for _, record := range m.byID {
		records = append(records, cloneBlogger(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ShortName < records[j].ShortName
	})
	return records, nil
}

func (m *memoryBloggerRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "blogger", Key: id.String()}
	}
	delete(m.byID, id)
	delete(m.byShortName, normalizeKey(record.ShortName))
	return nil
}

type memoryPostRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Post
	byRoute map[string]uuid.UUID
}

// NewMemoryPostRepository constructs an in-memory post repository.
func NewMemoryPostRepository() PostRepository {
	return &memoryPostRepository{
		byID:    make(map[uuid.UUID]*Post),
		byRoute: make(map[string]uuid.UUID),
	}
}

func (m *memoryPostRepository) Create(_ context.Context, post *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := clonePost(post)
	cloned.Category = nil
	cloned.Author = nil
	m.byID[cloned.ID] = cloned
	m.byRoute[cloned.Route] = cloned.ID
	return clonePost(cloned), nil
}

func (m *memoryPostRepository) Update(_ context.Context, post *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[post.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: post.ID.String()}
	}
	delete(m.byRoute, existing.Route)
	cloned := clonePost(post)
	cloned.Category = nil
	cloned.Author = nil
	m.byID[cloned.ID] = cloned
	m.byRoute[cloned.Route] = cloned.ID
	return clonePost(cloned), nil
}

func (m *memoryPostRepository) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return clonePost(record), nil
}

func (m *memoryPostRepository) GetByRoute(_ context.Context, route string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byRoute[NormalizeRoute(route)]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: route}
	}
	return clonePost(m.byID[id]), nil
}

func (m *memoryPostRepository) List(_ context.Context, query PostQuery) ([]*Post, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*Post, 0, len(m.byID))
	for _, record := range m.byID {
		if !matchesPostQuery(record, query) {
			continue
		}
		matches = append(matches, record)
	}
	sortPosts(matches)

	total := len(matches)
	start := min(max(query.Offset, 0), total)
	end := total
	if query.Limit > 0 {
		end = min(start+query.Limit, total)
	}

	page := make([]*Post, 0, end-start)
	for _, record := range matches[start:end] {
		page = append(page, clonePost(record))
	}
	return page, total, nil
}

func (m *memoryPostRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "post", Key: id.String()}
	}
	delete(m.byID, id)
	delete(m.byRoute, record.Route)
	return nil
}

func matchesPostQuery(post *Post, query PostQuery) bool {
	if post == nil {
		return false
	}
	if query.PublishedOnly && !post.Published {
		return false
	}
	if query.Category != "" && !strings.EqualFold(post.BlogCategory, query.Category) {
		return false
	}
	if query.Blogger != "" && !strings.EqualFold(post.Blogger, query.Blogger) {
		return false
	}
	if term := normalizeKey(query.Search); term != "" {
		if !strings.Contains(strings.ToLower(post.Title), term) &&
			!strings.Contains(strings.ToLower(post.Content), term) {
			return false
		}
	}
	return true
}

// sortPosts orders newest publications first; posts without a publish date
// sort after dated ones.
func sortPosts(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.PublishedOn != nil && b.PublishedOn != nil && !a.PublishedOn.Equal(*b.PublishedOn):
			return a.PublishedOn.After(*b.PublishedOn)
		case a.PublishedOn != nil && b.PublishedOn == nil:
			return true
		case a.PublishedOn == nil && b.PublishedOn != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
