package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// WriteCategory tags generator outputs.
type WriteCategory string

const (
	CategoryPage    WriteCategory = "page"
	CategorySitemap WriteCategory = "sitemap"
	CategoryRobots  WriteCategory = "robots"
	CategoryFeed    WriteCategory = "feed"
)

// WriteFileRequest describes a file write relative to the output root.
type WriteFileRequest struct {
	Path        string
	Content     []byte
	Category    WriteCategory
	ContentType string
	Checksum    string
}

// ArtifactWriter abstracts where generator outputs land.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req WriteFileRequest) error
}

// NewDirWriter writes outputs below root on the local filesystem.
func NewDirWriter(root string) ArtifactWriter {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "public"
	}
	return &dirWriter{root: root}
}

type dirWriter struct {
	root string
}

func (w *dirWriter) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("generator: path %q escapes output directory", rel)
	}
	return filepath.Join(w.root, clean), nil
}

func (w *dirWriter) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.resolve(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, 0o755)
}

func (w *dirWriter) WriteFile(ctx context.Context, req WriteFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	full, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, req.Content, 0o644)
}

// MemoryWriter keeps outputs in memory, keyed by path.
type MemoryWriter struct {
	mu    sync.Mutex
	files map[string]WriteFileRequest
}

// NewMemoryWriter returns an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: map[string]WriteFileRequest{}}
}

func (w *MemoryWriter) EnsureDir(context.Context, string) error { return nil }

func (w *MemoryWriter) WriteFile(_ context.Context, req WriteFileRequest) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[req.Path] = req
	return nil
}

// File returns the written request for path.
func (w *MemoryWriter) File(path string) (WriteFileRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	req, ok := w.files[path]
	return req, ok
}

// Len is the number of files written.
func (w *MemoryWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, WriteFileRequest) error { return nil }
