package website

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/goliatone/go-cms-blog/internal/blog"
)

// BlogSources returns the sources serving blog content in resolution order:
// post pages, category listings and the blog index.
func BlogSources(posts blog.Service, links LinkBuilder) []Source {
	return []Source{
		NewPostSource(posts, links),
		NewCategorySource(posts, links),
		NewIndexSource(posts, links),
	}
}

// PostSource renders published posts at their route.
type PostSource struct {
	blog  blog.Service
	links LinkBuilder
}

// NewPostSource constructs a post source.
func NewPostSource(posts blog.Service, links LinkBuilder) *PostSource {
	if links == nil {
		links = PathLinks{}
	}
	return &PostSource{blog: posts, links: links}
}

func (s *PostSource) Resolve(ctx context.Context, req Request) (*Page, error) {
	route := req.Route()
	if route == "" {
		return nil, ErrNoPage
	}
	post, err := s.blog.GetPostByRoute(ctx, route)
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			return nil, ErrNoPage
		}
		return nil, err
	}
	if !post.Published {
		return nil, ErrNoPage
	}

	view, err := postView(s.blog, s.links, post, true)
	if err != nil {
		return nil, err
	}
	description := post.MetaDescription
	if description == "" {
		description = post.BlogIntro
	}
	return &Page{
		Status:      http.StatusOK,
		Template:    TemplatePost,
		Route:       route,
		Title:       post.Title,
		Description: description,
		Post:        &view,
	}, nil
}

// CategorySource renders the paginated listing of a published category.
type CategorySource struct {
	blog  blog.Service
	links LinkBuilder
}

// NewCategorySource constructs a category listing source.
func NewCategorySource(posts blog.Service, links LinkBuilder) *CategorySource {
	if links == nil {
		links = PathLinks{}
	}
	return &CategorySource{blog: posts, links: links}
}

func (s *CategorySource) Resolve(ctx context.Context, req Request) (*Page, error) {
	route := req.Route()
	if route == "" {
		return nil, ErrNoPage
	}
	category, err := s.blog.GetCategoryByRoute(ctx, route)
	if err != nil {
		if errors.Is(err, blog.ErrCategoryNotFound) {
			return nil, ErrNoPage
		}
		return nil, err
	}
	if !category.Published {
		return nil, ErrNoPage
	}

	description := ""
	if category.Description != nil {
		description = *category.Description
	}
	list, err := listView(ctx, s.blog, s.links, route, req.Start(), blog.ListOptions{Category: category.Name})
	if err != nil {
		return nil, err
	}
	list.Heading = category.Title
	list.Description = description
	return &Page{
		Status:      http.StatusOK,
		Template:    TemplateList,
		Route:       route,
		Title:       category.Title,
		Description: description,
		List:        list,
	}, nil
}

// IndexSource renders the blog index listing every published post.
type IndexSource struct {
	blog  blog.Service
	links LinkBuilder
}

// NewIndexSource constructs the blog index source.
func NewIndexSource(posts blog.Service, links LinkBuilder) *IndexSource {
	if links == nil {
		links = PathLinks{}
	}
	return &IndexSource{blog: posts, links: links}
}

func (s *IndexSource) Resolve(ctx context.Context, req Request) (*Page, error) {
	route := req.Route()
	if route != NormalizeRoute(s.blog.BlogRoute()) {
		return nil, ErrNoPage
	}
	list, err := listView(ctx, s.blog, s.links, route, req.Start(), blog.ListOptions{})
	if err != nil {
		return nil, err
	}
	list.Heading = "Blog"
	return &Page{
		Status:   http.StatusOK,
		Template: TemplateList,
		Route:    route,
		Title:    "Blog",
		List:     list,
	}, nil
}

func listView(ctx context.Context, svc blog.Service, links LinkBuilder, route string, start int, opts blog.ListOptions) (*ListView, error) {
	opts.Start = start
	opts.Length = svc.PageLength()
	result, err := svc.ListPosts(ctx, opts)
	if err != nil {
		return nil, err
	}

	view := &ListView{
		Posts: make([]PostView, 0, len(result.Posts)),
		Total: result.Total,
		Start: result.Start,
	}
	for _, post := range result.Posts {
		item, err := postView(svc, links, post, false)
		if err != nil {
			return nil, err
		}
		view.Posts = append(view.Posts, item)
	}
	if result.HasMore() {
		view.NextURL = links.ListURL(route, result.Start+result.Length)
	}
	if result.Start > 0 {
		view.PreviousURL = links.ListURL(route, max(result.Start-result.Length, 0))
	}
	return view, nil
}

func postView(svc blog.Service, links LinkBuilder, post *blog.Post, withContent bool) (PostView, error) {
	view := PostView{
		Title:        post.Title,
		URL:          links.PostURL(post),
		Intro:        post.BlogIntro,
		CategoryName: post.BlogCategory,
		AuthorName:   post.Blogger,
		PublishedOn:  post.PublishedOn,
		ReadTime:     post.ReadTime,
	}
	if post.Category != nil {
		view.CategoryTitle = post.Category.Title
		view.CategoryURL = links.CategoryURL(post.Category)
	} else {
		view.CategoryTitle = post.BlogCategory
		view.CategoryURL = links.ListURL(blog.CategoryRoute(svc.BlogRoute(), post.BlogCategory), 0)
	}
	if post.Author != nil && post.Author.FullName != "" {
		view.AuthorName = post.Author.FullName
	}
	if withContent {
		content, err := svc.RenderContent(post)
		if err != nil {
			return PostView{}, err
		}
		// Post bodies are authored content and render unescaped.
		view.Content = template.HTML(content)
	}
	return view, nil
}
