package website

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-cms-blog/internal/blog"
)

// LinkBuilder produces the URLs embedded in rendered pages.
type LinkBuilder interface {
	PostURL(post *blog.Post) string
	CategoryURL(category *blog.Category) string
	// ListURL links a listing route at the given offset.
	ListURL(route string, start int) string
}

// PathLinks builds root relative links straight from stored routes.
type PathLinks struct{}

func (PathLinks) PostURL(post *blog.Post) string {
	if post == nil {
		return ""
	}
	return "/" + NormalizeRoute(post.Route)
}

func (PathLinks) CategoryURL(category *blog.Category) string {
	if category == nil {
		return ""
	}
	return "/" + NormalizeRoute(category.Route)
}

func (PathLinks) ListURL(route string, start int) string {
	link := "/" + NormalizeRoute(route)
	if start > 0 {
		link += "?" + url.Values{"start": []string{strconv.Itoa(start)}}.Encode()
	}
	return link
}

// URLKit route names looked up by URLKitLinks.
const (
	URLKitRouteCategory = "category"
	URLKitRouteIndex    = "index"
)

// URLKitLinks builds category and index links through a go-urlkit route
// group. Post routes are free form and always use PathLinks.
//
// The group is expected to declare paths such as:
//
//	"index":    "/blog",
//	"category": "/blog/:name",
type URLKitLinks struct {
	group     *urlkit.Group
	indexPath string
	fallback  PathLinks
}

// NewURLKitLinks resolves groupName from the manager. indexRoute is the blog
// index route whose listings use the "index" path.
func NewURLKitLinks(manager *urlkit.RouteManager, groupName, indexRoute string) (*URLKitLinks, error) {
	if manager == nil {
		return nil, fmt.Errorf("website: route manager is required")
	}
	group, err := lookupGroup(manager, groupName)
	if err != nil {
		return nil, err
	}
	return &URLKitLinks{group: group, indexPath: NormalizeRoute(indexRoute)}, nil
}

func (l *URLKitLinks) PostURL(post *blog.Post) string {
	return l.fallback.PostURL(post)
}

func (l *URLKitLinks) CategoryURL(category *blog.Category) string {
	if category == nil {
		return ""
	}
	link, err := l.build(URLKitRouteCategory, map[string]any{"name": category.Name}, 0)
	if err != nil {
		return l.fallback.CategoryURL(category)
	}
	return link
}

func (l *URLKitLinks) ListURL(route string, start int) string {
	if NormalizeRoute(route) == l.indexPath {
		if link, err := l.build(URLKitRouteIndex, nil, start); err == nil {
			return link
		}
		return l.fallback.ListURL(route, start)
	}
	if name, ok := strings.CutPrefix(NormalizeRoute(route), l.indexPath+"/"); ok && !strings.Contains(name, "/") {
		if link, err := l.build(URLKitRouteCategory, map[string]any{"name": name}, start); err == nil {
			return link
		}
	}
	return l.fallback.ListURL(route, start)
}

func (l *URLKitLinks) build(route string, params map[string]any, start int) (link string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("website: urlkit route %q: %v", route, rec)
		}
	}()
	builder := l.group.Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	if start > 0 {
		builder.WithQuery("start", strconv.Itoa(start))
	}
	return builder.Build()
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("website: route group %q not found", name)
		}
	}()
	parts := strings.Split(name, ".")
	group = manager.Group(parts[0])
	for _, part := range parts[1:] {
		group = group.Group(part)
	}
	if group == nil {
		return nil, fmt.Errorf("website: route group %q not found", name)
	}
	return group, nil
}
