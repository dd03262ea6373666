package blog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CategoryRepository persists blog categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	GetByRoute(ctx context.Context, route string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BloggerRepository persists post authors.
type BloggerRepository interface {
	Create(ctx context.Context, blogger *Blogger) (*Blogger, error)
	Update(ctx context.Context, blogger *Blogger) (*Blogger, error)
	GetByShortName(ctx context.Context, shortName string) (*Blogger, error)
	List(ctx context.Context) ([]*Blogger, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) (*Post, error)
	Update(ctx context.Context, post *Post) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetByRoute(ctx context.Context, route string) (*Post, error)
	// List returns the requested window and the total number of matches.
	List(ctx context.Context, query PostQuery) ([]*Post, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostQuery is the repository level form of ListOptions. Limit <= 0 means
// no limit.
type PostQuery struct {
	Category      string
	Blogger       string
	Search        string
	PublishedOnly bool
	Offset        int
	Limit         int
}

// NotFoundError is returned when a record cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
