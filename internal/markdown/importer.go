package markdown

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/goliatone/go-cms-blog/internal/blog"
	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

var (
	ErrBlogServiceRequired = errors.New("markdown importer: blog service is required")
	ErrCategoryMissing     = errors.New("markdown importer: document has no category")
	ErrAuthorMissing       = errors.New("markdown importer: document has no author")
	ErrFrontMatterInvalid  = errors.New("markdown importer: front matter rejected by schema")
)

// PostStore is the part of the blog service the importer writes through.
type PostStore interface {
	CategoryExists(ctx context.Context, name string) (bool, error)
	CreateCategory(ctx context.Context, req blog.CreateCategoryInput) (*blog.Category, error)
	GetPostByRoute(ctx context.Context, route string) (*blog.Post, error)
	CreatePost(ctx context.Context, req blog.CreatePostInput) (*blog.Post, error)
	UpdatePost(ctx context.Context, req blog.UpdatePostInput) (*blog.Post, error)
}

// FrontMatterValidator checks a document's metadata before it is imported.
type FrontMatterValidator interface {
	Validate(payload map[string]any) error
}

// Importer upserts posts from Markdown documents keyed by route.
type Importer struct {
	posts     PostStore
	logger    interfaces.Logger
	validator FrontMatterValidator
}

// NewImporter builds an Importer writing through posts.
func NewImporter(posts PostStore, logger interfaces.Logger) *Importer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{posts: posts, logger: logger}
}

// ImportDocuments imports every document and keeps going past failures; the
// first failure is also returned.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*Document, opts ImportOptions) (*ImportResult, error) {
	if i.posts == nil {
		return nil, ErrBlogServiceRequired
	}
	result := &ImportResult{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		if err := i.importDocument(ctx, doc, opts, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", doc.FilePath, err))
			logging.WithFields(i.logger, map[string]any{
				"file":  doc.FilePath,
				"error": err.Error(),
			}).Warn("markdown.import.failed")
		}
	}
	if len(result.Errors) > 0 {
		return result, result.Errors[0]
	}
	return result, nil
}

// SetValidator installs a front matter validator. Nil disables validation.
func (i *Importer) SetValidator(validator FrontMatterValidator) {
	i.validator = validator
}

func (i *Importer) importDocument(ctx context.Context, doc *Document, opts ImportOptions, result *ImportResult) error {
	meta := doc.FrontMatter
	if i.validator != nil {
		if err := i.validator.Validate(meta.Map()); err != nil {
			return fmt.Errorf("%w: %w", ErrFrontMatterInvalid, err)
		}
	}
	title := meta.Title
	if title == "" {
		title = titleFromPath(doc.FilePath)
	}

	category := firstNonEmpty(meta.Category, opts.DefaultCategory)
	if category == "" {
		return ErrCategoryMissing
	}
	author := firstNonEmpty(meta.Author, opts.DefaultAuthor)
	if author == "" {
		return ErrAuthorMissing
	}
	categoryName := blog.Scrub(category)

	if err := i.ensureCategory(ctx, category, categoryName, opts); err != nil {
		return err
	}

	published := !meta.Draft
	publishedOn := &meta.Date
	if meta.Date.IsZero() {
		publishedOn = nil
	}
	contentType := firstNonEmpty(meta.ContentType, blog.ContentTypeMarkdown)
	body := string(doc.Body)

	if meta.Route != "" {
		existing, err := i.posts.GetPostByRoute(ctx, meta.Route)
		switch {
		case err == nil:
			if opts.DryRun {
				result.Updated = append(result.Updated, existing.Route)
				return nil
			}
			updated, err := i.posts.UpdatePost(ctx, blog.UpdatePostInput{
				ID:              existing.ID,
				Title:           &title,
				Content:         &body,
				ContentType:     &contentType,
				BlogCategory:    &categoryName,
				Blogger:         &author,
				BlogIntro:       &meta.Intro,
				MetaDescription: &meta.Description,
				Published:       &published,
				PublishedOn:     publishedOn,
			})
			if err != nil {
				return err
			}
			result.Updated = append(result.Updated, updated.Route)
			return nil
		case !errors.Is(err, blog.ErrPostNotFound):
			return err
		}
	}

	if opts.DryRun {
		result.Created = append(result.Created, firstNonEmpty(meta.Route, blog.Scrub(title)))
		return nil
	}
	created, err := i.posts.CreatePost(ctx, blog.CreatePostInput{
		Title:           title,
		Route:           meta.Route,
		Content:         body,
		ContentType:     contentType,
		BlogCategory:    categoryName,
		Blogger:         author,
		BlogIntro:       meta.Intro,
		MetaDescription: meta.Description,
		Published:       published,
		PublishedOn:     publishedOn,
	})
	if errors.Is(err, blog.ErrRouteExists) {
		result.Skipped = append(result.Skipped, firstNonEmpty(meta.Route, blog.Scrub(title)))
		return nil
	}
	if err != nil {
		return err
	}
	result.Created = append(result.Created, created.Route)
	logging.WithFields(i.logger, map[string]any{
		"file":  doc.FilePath,
		"route": created.Route,
	}).Debug("markdown.import.created")
	return nil
}

func (i *Importer) ensureCategory(ctx context.Context, title, name string, opts ImportOptions) error {
	exists, err := i.posts.CategoryExists(ctx, name)
	if err != nil || exists {
		return err
	}
	if !opts.CreateMissingCategories {
		return fmt.Errorf("%w: %s", blog.ErrCategoryNotFound, name)
	}
	if opts.DryRun {
		return nil
	}
	_, err = i.posts.CreateCategory(ctx, blog.CreateCategoryInput{Title: title, Name: name})
	if errors.Is(err, blog.ErrCategoryExists) {
		return nil
	}
	return err
}

func titleFromPath(filePath string) string {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	for idx, word := range words {
		words[idx] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
