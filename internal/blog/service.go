package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-cms-blog/internal/identity"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// Service exposes the blog use-cases: categories, bloggers and posts.
type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryInput) (*Category, error)
	GetCategory(ctx context.Context, name string) (*Category, error)
	GetCategoryByRoute(ctx context.Context, route string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	CategoryExists(ctx context.Context, name string) (bool, error)
	DeleteCategory(ctx context.Context, name string) error

	CreateBlogger(ctx context.Context, req CreateBloggerInput) (*Blogger, error)
	GetBlogger(ctx context.Context, shortName string) (*Blogger, error)
	ListBloggers(ctx context.Context) ([]*Blogger, error)
	BloggerExists(ctx context.Context, shortName string) (bool, error)
	DeleteBlogger(ctx context.Context, shortName string) error

	CreatePost(ctx context.Context, req CreatePostInput) (*Post, error)
	UpdatePost(ctx context.Context, req UpdatePostInput) (*Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	GetPostByRoute(ctx context.Context, route string) (*Post, error)
	ListPosts(ctx context.Context, opts ListOptions) (*PostList, error)
	DeletePost(ctx context.Context, id uuid.UUID) error

	// RenderContent returns the HTML body of a post.
	RenderContent(post *Post) (string, error)
	// BlogRoute is the route of the blog index page.
	BlogRoute() string
	// PageLength is the default number of posts per listing page.
	PageLength() int
}

// CreateCategoryInput captures the fields required to create a category.
// Name defaults to Scrub(Title).
type CreateCategoryInput struct {
	Title       string
	Name        string
	Description *string
	Published   *bool
}

// CreateBloggerInput captures the fields required to register an author.
type CreateBloggerInput struct {
	ShortName string
	FullName  string
	Bio       *string
	Avatar    *string
	Disabled  bool
}

// CreatePostInput captures the fields required to create a post. An empty
// Route is derived from the category route and the title.
type CreatePostInput struct {
	Title           string
	Route           string
	Content         string
	ContentType     string
	BlogCategory    string
	Blogger         string
	BlogIntro       string
	MetaDescription string
	Published       bool
	PublishedOn     *time.Time
}

// UpdatePostInput carries optional field updates; nil fields are left as is.
type UpdatePostInput struct {
	ID              uuid.UUID
	Title           *string
	Route           *string
	Content         *string
	ContentType     *string
	BlogCategory    *string
	Blogger         *string
	BlogIntro       *string
	MetaDescription *string
	Published       *bool
	PublishedOn     *time.Time
}

var (
	ErrCategoryExists   = errors.New("blog: category already exists")
	ErrCategoryNotFound = errors.New("blog: category not found")
	ErrCategoryInUse    = errors.New("blog: category is referenced by posts")
	ErrBloggerExists    = errors.New("blog: blogger already exists")
	ErrBloggerNotFound  = errors.New("blog: blogger not found")
	ErrBloggerInUse     = errors.New("blog: blogger is referenced by posts")
	ErrBloggerDisabled  = errors.New("blog: blogger is disabled")
	ErrPostNotFound     = errors.New("blog: post not found")
	ErrRouteExists      = errors.New("blog: route already exists")
	ErrRouteRequired    = errors.New("blog: route could not be derived from title")
)

// ContentParser renders markdown into HTML.
type ContentParser interface {
	Parse(markdown []byte) ([]byte, error)
}

// ChangeListener is notified with the routes affected by a mutation.
type ChangeListener func(ctx context.Context, routes []string)

// IDGenerator produces post identifiers.
type IDGenerator func() uuid.UUID

const (
	DefaultBlogRoute  = "blog"
	DefaultPageLength = 20
)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithNow overrides the clock used to stamp records.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithContentParser sets the markdown renderer used for post bodies.
func WithContentParser(parser ContentParser) ServiceOption {
	return func(s *service) {
		s.parser = parser
	}
}

// WithChangeListener registers a listener for affected routes.
func WithChangeListener(listener ChangeListener) ServiceOption {
	return func(s *service) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}

// WithBlogRoute overrides the blog index route, which prefixes category routes.
func WithBlogRoute(route string) ServiceOption {
	return func(s *service) {
		if route = NormalizeRoute(route); route != "" {
			s.blogRoute = route
		}
	}
}

// WithDefaultPageLength sets the listing length used when callers pass none.
func WithDefaultPageLength(length int) ServiceOption {
	return func(s *service) {
		if length > 0 {
			s.pageLength = length
		}
	}
}

type service struct {
	categories CategoryRepository
	bloggers   BloggerRepository
	posts      PostRepository
	parser     ContentParser
	listeners  []ChangeListener
	logger     interfaces.Logger
	now        func() time.Time
	id         IDGenerator
	blogRoute  string
	pageLength int
}

// NewService constructs a blog service with the required repositories.
func NewService(categories CategoryRepository, bloggers BloggerRepository, posts PostRepository, opts ...ServiceOption) Service {
	if categories == nil || bloggers == nil || posts == nil {
		panic("blog: repositories are required")
	}
	s := &service{
		categories: categories,
		bloggers:   bloggers,
		posts:      posts,
		logger:     logging.NoOp(),
		now:        time.Now,
		id:         uuid.New,
		blogRoute:  DefaultBlogRoute,
		pageLength: DefaultPageLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) BlogRoute() string { return s.blogRoute }

func (s *service) PageLength() int { return s.pageLength }

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryInput) (*Category, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	name := Scrub(req.Name)
	if name == "" {
		name = Scrub(req.Title)
	}

	exists, err := s.CategoryExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	published := true
	if req.Published != nil {
		published = *req.Published
	}

	now := s.now().UTC()
	record := &Category{
		ID:          identity.CategoryUUID(name),
		Name:        name,
		Title:       strings.TrimSpace(req.Title),
		Description: cloneString(req.Description),
		Route:       CategoryRoute(s.blogRoute, name),
		Published:   published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.categories.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	logging.WithFields(s.logger, map[string]any{
		"category": created.Name,
		"route":    created.Route,
	}).Info("blog.category.created")
	s.notify(ctx, created.Route, s.blogRoute)
	return created, nil
}

func (s *service) GetCategory(ctx context.Context, name string) (*Category, error) {
	record, err := s.categories.GetByName(ctx, Scrub(name))
	if err != nil {
		return nil, translateNotFound(err, ErrCategoryNotFound)
	}
	return record, nil
}

func (s *service) GetCategoryByRoute(ctx context.Context, route string) (*Category, error) {
	record, err := s.categories.GetByRoute(ctx, NormalizeRoute(route))
	if err != nil {
		return nil, translateNotFound(err, ErrCategoryNotFound)
	}
	return record, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.categories.List(ctx)
}

func (s *service) CategoryExists(ctx context.Context, name string) (bool, error) {
	record, err := s.GetCategory(ctx, name)
	return presence(record != nil, err)
}

func (s *service) DeleteCategory(ctx context.Context, name string) error {
	record, err := s.GetCategory(ctx, name)
	if err != nil {
		return err
	}

	_, total, err := s.posts.List(ctx, PostQuery{Category: record.Name, Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, record.ID); err != nil {
		return translateNotFound(err, ErrCategoryNotFound)
	}

	logging.WithFields(s.logger, map[string]any{
		"category": record.Name,
	}).Info("blog.category.deleted")
	s.notify(ctx, record.Route, s.blogRoute)
	return nil
}

func (s *service) CreateBlogger(ctx context.Context, req CreateBloggerInput) (*Blogger, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	shortName := strings.TrimSpace(req.ShortName)
	exists, err := s.BloggerExists(ctx, shortName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBloggerExists
	}

	now := s.now().UTC()
	record := &Blogger{
		ID:        identity.BloggerUUID(shortName),
		ShortName: shortName,
		FullName:  strings.TrimSpace(req.FullName),
		Bio:       cloneString(req.Bio),
		Avatar:    cloneString(req.Avatar),
		Disabled:  req.Disabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.bloggers.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	logging.WithFields(s.logger, map[string]any{
		"blogger": created.ShortName,
	}).Info("blog.blogger.created")
	return created, nil
}

func (s *service) GetBlogger(ctx context.Context, shortName string) (*Blogger, error) {
	record, err := s.bloggers.GetByShortName(ctx, strings.TrimSpace(shortName))
	if err != nil {
		return nil, translateNotFound(err, ErrBloggerNotFound)
	}
	return record, nil
}

func (s *service) ListBloggers(ctx context.Context) ([]*Blogger, error) {
	return s.bloggers.List(ctx)
}

func (s *service) BloggerExists(ctx context.Context, shortName string) (bool, error) {
	record, err := s.GetBlogger(ctx, shortName)
	return presence(record != nil, err)
}

func (s *service) DeleteBlogger(ctx context.Context, shortName string) error {
	record, err := s.GetBlogger(ctx, shortName)
	if err != nil {
		return err
	}

	_, total, err := s.posts.List(ctx, PostQuery{Blogger: record.ShortName, Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		return ErrBloggerInUse
	}

	if err := s.bloggers.Delete(ctx, record.ID); err != nil {
		return translateNotFound(err, ErrBloggerNotFound)
	}
	logging.WithFields(s.logger, map[string]any{
		"blogger": record.ShortName,
	}).Info("blog.blogger.deleted")
	return nil
}

func (s *service) CreatePost(ctx context.Context, req CreatePostInput) (*Post, error) {
	req.ContentType = normalizeContentType(req.ContentType)
	if err := req.validate(); err != nil {
		return nil, err
	}

	category, author, err := s.resolveReferences(ctx, req.BlogCategory, req.Blogger)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &Post{
		ID:              s.id(),
		Title:           strings.TrimSpace(req.Title),
		Route:           NormalizeRoute(req.Route),
		Content:         req.Content,
		ContentType:     req.ContentType,
		BlogIntro:       strings.TrimSpace(req.BlogIntro),
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		BlogCategory:    category.Name,
		Blogger:         author.ShortName,
		Published:       req.Published,
		PublishedOn:     cloneTime(req.PublishedOn),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.Route == "" {
		record.Route = s.derivePostRoute(category, record.Title)
	}
	if record.Route == "" {
		return nil, ErrRouteRequired
	}
	if err := s.ensureRouteAvailable(ctx, record.Route, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.deriveFields(record, record.BlogIntro == ""); err != nil {
		return nil, err
	}

	created, err := s.posts.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	created.Category = category
	created.Author = author

	logging.WithFields(s.logger, map[string]any{
		"post_id":   created.ID,
		"route":     created.Route,
		"published": created.Published,
	}).Info("blog.post.created")
	s.notify(ctx, created.Route, category.Route, s.blogRoute)
	return created, nil
}

func (s *service) UpdatePost(ctx context.Context, req UpdatePostInput) (*Post, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	existing, err := s.posts.GetByID(ctx, req.ID)
	if err != nil {
		return nil, translateNotFound(err, ErrPostNotFound)
	}

	previousRoute := existing.Route
	previousCategoryRoute := CategoryRoute(s.blogRoute, existing.BlogCategory)
	record := clonePost(existing)

	categoryName := record.BlogCategory
	if req.BlogCategory != nil {
		categoryName = *req.BlogCategory
	}
	bloggerName := record.Blogger
	if req.Blogger != nil {
		bloggerName = *req.Blogger
	}
	category, author, err := s.resolveReferences(ctx, categoryName, bloggerName)
	if err != nil {
		return nil, err
	}
	record.BlogCategory = category.Name
	record.Blogger = author.ShortName

	contentChanged := false
	if req.Title != nil {
		record.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		contentChanged = *req.Content != record.Content
		record.Content = *req.Content
	}
	if req.ContentType != nil {
		contentType := normalizeContentType(*req.ContentType)
		contentChanged = contentChanged || contentType != record.ContentType
		record.ContentType = contentType
	}
	if req.MetaDescription != nil {
		record.MetaDescription = strings.TrimSpace(*req.MetaDescription)
	}
	if req.Published != nil {
		record.Published = *req.Published
	}
	if req.PublishedOn != nil {
		record.PublishedOn = cloneTime(req.PublishedOn)
	}

	deriveIntro := contentChanged
	if req.BlogIntro != nil {
		record.BlogIntro = strings.TrimSpace(*req.BlogIntro)
		deriveIntro = record.BlogIntro == ""
	}

	if req.Route != nil {
		record.Route = NormalizeRoute(*req.Route)
		if record.Route == "" {
			record.Route = s.derivePostRoute(category, record.Title)
		}
	}
	if record.Route == "" {
		return nil, ErrRouteRequired
	}
	if record.Route != previousRoute {
		if err := s.ensureRouteAvailable(ctx, record.Route, record.ID); err != nil {
			return nil, err
		}
	}

	if err := s.deriveFields(record, deriveIntro); err != nil {
		return nil, err
	}
	record.UpdatedAt = s.now().UTC()
	record.Category = nil
	record.Author = nil

	updated, err := s.posts.Update(ctx, record)
	if err != nil {
		return nil, translateNotFound(err, ErrPostNotFound)
	}
	updated.Category = category
	updated.Author = author

	logging.WithFields(s.logger, map[string]any{
		"post_id":   updated.ID,
		"route":     updated.Route,
		"published": updated.Published,
	}).Info("blog.post.updated")
	s.notify(ctx, previousRoute, updated.Route, previousCategoryRoute, category.Route, s.blogRoute)
	return updated, nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	record, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, ErrPostNotFound)
	}
	s.attachReferences(ctx, []*Post{record})
	return record, nil
}

func (s *service) GetPostByRoute(ctx context.Context, route string) (*Post, error) {
	record, err := s.posts.GetByRoute(ctx, NormalizeRoute(route))
	if err != nil {
		return nil, translateNotFound(err, ErrPostNotFound)
	}
	s.attachReferences(ctx, []*Post{record})
	return record, nil
}

// ListPosts returns one page of posts ordered newest first. Unless
// IncludeUnpublished is set only published posts are listed.
func (s *service) ListPosts(ctx context.Context, opts ListOptions) (*PostList, error) {
	start := max(opts.Start, 0)
	length := opts.Length
	if length <= 0 {
		length = s.pageLength
	}

	query := PostQuery{
		Category:      Scrub(opts.Category),
		Blogger:       strings.TrimSpace(opts.Blogger),
		Search:        strings.TrimSpace(opts.Search),
		PublishedOnly: !opts.IncludeUnpublished,
		Offset:        start,
		Limit:         length,
	}

	records, total, err := s.posts.List(ctx, query)
	if err != nil {
		return nil, err
	}
	s.attachReferences(ctx, records)

	return &PostList{
		Posts:  records,
		Total:  total,
		Start:  start,
		Length: length,
	}, nil
}

func (s *service) DeletePost(ctx context.Context, id uuid.UUID) error {
	record, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return translateNotFound(err, ErrPostNotFound)
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return translateNotFound(err, ErrPostNotFound)
	}
	logging.WithFields(s.logger, map[string]any{
		"post_id": id,
		"route":   record.Route,
	}).Info("blog.post.deleted")
	s.notify(ctx, record.Route, CategoryRoute(s.blogRoute, record.BlogCategory), s.blogRoute)
	return nil
}

func (s *service) RenderContent(post *Post) (string, error) {
	if post == nil {
		return "", nil
	}
	if post.ContentType == ContentTypeHTML {
		return post.Content, nil
	}
	if s.parser == nil {
		return plainParagraphs(post.Content), nil
	}
	rendered, err := s.parser.Parse([]byte(post.Content))
	if err != nil {
		return "", fmt.Errorf("blog: render post %s: %w", post.Route, err)
	}
	return string(rendered), nil
}

func (s *service) resolveReferences(ctx context.Context, categoryName, bloggerName string) (*Category, *Blogger, error) {
	category, err := s.GetCategory(ctx, categoryName)
	if err != nil {
		return nil, nil, err
	}
	author, err := s.GetBlogger(ctx, bloggerName)
	if err != nil {
		return nil, nil, err
	}
	if author.Disabled {
		return nil, nil, ErrBloggerDisabled
	}
	return category, author, nil
}

func (s *service) attachReferences(ctx context.Context, posts []*Post) {
	categories := map[string]*Category{}
	authors := map[string]*Blogger{}
	for _, post := range posts {
		if post == nil {
			continue
		}
		category, ok := categories[post.BlogCategory]
		if !ok {
			category, _ = s.categories.GetByName(ctx, post.BlogCategory)
			categories[post.BlogCategory] = category
		}
		author, ok := authors[post.Blogger]
		if !ok {
			author, _ = s.bloggers.GetByShortName(ctx, post.Blogger)
			authors[post.Blogger] = author
		}
		post.Category = category
		post.Author = author
	}
}

func (s *service) derivePostRoute(category *Category, title string) string {
	segment := Scrub(title)
	if segment == "" {
		return ""
	}
	base := CategoryRoute(s.blogRoute, category.Name)
	if category.Route != "" {
		base = category.Route
	}
	return base + "/" + segment
}

func (s *service) ensureRouteAvailable(ctx context.Context, route string, owner uuid.UUID) error {
	existing, err := s.posts.GetByRoute(ctx, route)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil && existing.ID != owner {
		return ErrRouteExists
	}
	return nil
}

// deriveFields fills publish date, intro and read time from the post body.
func (s *service) deriveFields(post *Post, deriveIntro bool) error {
	if post.Published && post.PublishedOn == nil {
		now := s.now().UTC()
		post.PublishedOn = &now
	}

	rendered, err := s.RenderContent(post)
	if err != nil {
		return err
	}
	text := htmlText(rendered)
	if deriveIntro || post.BlogIntro == "" {
		post.BlogIntro = buildIntro(text)
	}
	if post.MetaDescription == "" {
		post.MetaDescription = post.BlogIntro
	}
	post.ReadTime = readTime(text)
	return nil
}

func (s *service) notify(ctx context.Context, routes ...string) {
	if len(s.listeners) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(routes))
	unique := make([]string, 0, len(routes))
	for _, route := range routes {
		route = NormalizeRoute(route)
		if _, ok := seen[route]; ok {
			continue
		}
		seen[route] = struct{}{}
		unique = append(unique, route)
	}
	for _, listener := range s.listeners {
		listener(ctx, unique)
	}
}

func plainParagraphs(text string) string {
	var b strings.Builder
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(block))
		b.WriteString("</p>\n")
	}
	return b.String()
}

func presence(found bool, err error) (bool, error) {
	if err == nil {
		return found, nil
	}
	if errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrBloggerNotFound) || errors.Is(err, ErrPostNotFound) {
		return false, nil
	}
	return false, err
}

func isNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

func translateNotFound(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return sentinel
	}
	return err
}
