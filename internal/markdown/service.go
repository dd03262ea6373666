package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

// Config controls how the Markdown service discovers and renders files.
type Config struct {
	BasePath  string
	Pattern   string
	Recursive bool
	Parser    ParseOptions
	// FrontMatter, when set, rejects documents whose metadata fails validation.
	FrontMatter FrontMatterValidator
}

// Service loads Markdown documents from BasePath and imports them as posts.
type Service struct {
	cfg      Config
	parser   *GoldmarkParser
	loader   *Loader
	importer *Importer
}

// NewService constructs a service rooted at cfg.BasePath.
func NewService(cfg Config, posts PostStore, logger interfaces.Logger) (*Service, error) {
	filesystem, err := prepareFilesystem(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	return NewServiceFS(filesystem, cfg, posts, logger), nil
}

// NewServiceFS constructs a service over an arbitrary filesystem.
func NewServiceFS(filesystem fs.FS, cfg Config, posts PostStore, logger interfaces.Logger) *Service {
	importer := NewImporter(posts, logger)
	if cfg.FrontMatter != nil {
		importer.SetValidator(cfg.FrontMatter)
	}
	return &Service{
		cfg:    cfg,
		parser: NewGoldmarkParser(cfg.Parser),
		loader: NewLoader(filesystem, LoaderConfig{
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
		}),
		importer: importer,
	}
}

// Parser returns the goldmark parser built from the service options.
func (s *Service) Parser() *GoldmarkParser {
	return s.parser
}

// LoadDirectory parses every document below dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	return s.loader.LoadDirectory(ctx, dir)
}

// Render converts Markdown into HTML.
func (s *Service) Render(ctx context.Context, markdown []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.Parse(markdown)
}

// ImportDirectory loads dir and upserts every document as a post.
func (s *Service) ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error) {
	docs, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	return s.importer.ImportDocuments(ctx, docs, opts)
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
