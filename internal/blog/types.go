package blog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Content types accepted for post bodies.
const (
	ContentTypeMarkdown = "markdown"
	ContentTypeHTML     = "html"
)

// Category groups posts and owns a listing route (blog/<name>).
type Category struct {
	bun.BaseModel `bun:"table:blog_categories,alias:bc"`

	ID          uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description *string   `bun:"description" json:"description,omitempty"`
	Route       string    `bun:"route,notnull,unique" json:"route"`
	Published   bool      `bun:"published,notnull" json:"published"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Blogger is a post author keyed by short name.
type Blogger struct {
	bun.BaseModel `bun:"table:blog_bloggers,alias:bb"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ShortName string    `bun:"short_name,notnull,unique" json:"short_name"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	Bio       *string   `bun:"bio" json:"bio,omitempty"`
	Avatar    *string   `bun:"avatar" json:"avatar,omitempty"`
	Disabled  bool      `bun:"disabled,notnull" json:"disabled"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Post is a routable blog article. BlogCategory and Blogger reference
// Category.Name and Blogger.ShortName; Category and Author are populated on
// reads through the service.
type Post struct {
	bun.BaseModel `bun:"table:blog_posts,alias:bp"`

	ID              uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	Title           string     `bun:"title,notnull" json:"title"`
	Route           string     `bun:"route,notnull,unique" json:"route"`
	Content         string     `bun:"content,notnull" json:"content"`
	ContentType     string     `bun:"content_type,notnull" json:"content_type"`
	BlogIntro       string     `bun:"blog_intro,notnull" json:"blog_intro"`
	MetaDescription string     `bun:"meta_description,notnull" json:"meta_description,omitempty"`
	BlogCategory    string     `bun:"blog_category,notnull" json:"blog_category"`
	Blogger         string     `bun:"blogger,notnull" json:"blogger"`
	Published       bool       `bun:"published,notnull" json:"published"`
	PublishedOn     *time.Time `bun:"published_on,nullzero" json:"published_on,omitempty"`
	ReadTime        int        `bun:"read_time,notnull" json:"read_time"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Category *Category `bun:"-" json:"category,omitempty"`
	Author   *Blogger  `bun:"-" json:"author,omitempty"`
}

// ListOptions filters and paginates post listings.
type ListOptions struct {
	Category string
	Blogger  string
	Search   string
	// IncludeUnpublished lists drafts as well; public listings leave it false.
	IncludeUnpublished bool
	Start              int
	Length             int
}

// PostList is a page of posts plus the total matching count.
type PostList struct {
	Posts  []*Post `json:"posts"`
	Total  int     `json:"total"`
	Start  int     `json:"start"`
	Length int     `json:"length"`
}

// HasMore reports whether posts exist after this page.
func (l *PostList) HasMore() bool {
	if l == nil {
		return false
	}
	return l.Start+len(l.Posts) < l.Total
}
