package website

import (
	"context"
	"errors"
	"html/template"
	"time"
)

// ErrNoPage is returned by a Source that does not own the requested route.
var ErrNoPage = errors.New("website: no page for route")

// Template names known to the Renderer.
const (
	TemplatePost     = "post"
	TemplateList     = "list"
	TemplateNotFound = "not_found"
)

// Source resolves routes it owns into pages.
type Source interface {
	Resolve(ctx context.Context, req Request) (*Page, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) (*Page, error)

func (f SourceFunc) Resolve(ctx context.Context, req Request) (*Page, error) {
	return f(ctx, req)
}

// Page is a resolved route ready to render.
type Page struct {
	Status      int
	Template    string
	Route       string
	Title       string
	Description string
	Post        *PostView
	List        *ListView
}

// PostView is the data the post template renders.
type PostView struct {
	Title         string
	URL           string
	Content       template.HTML
	Intro         string
	CategoryName  string
	CategoryTitle string
	CategoryURL   string
	AuthorName    string
	PublishedOn   *time.Time
	ReadTime      int
}

// ListView is a page of post summaries.
type ListView struct {
	Heading     string
	Description string
	Posts       []PostView
	Total       int
	Start       int
	NextURL     string
	PreviousURL string
}
