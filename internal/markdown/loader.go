package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const defaultPattern = "*.md"

// LoaderConfig selects which files of the content tree become documents.
type LoaderConfig struct {
	// Pattern matches base names, "*.md" when blank.
	Pattern string
	// Recursive descends into sub-directories. Directories whose name starts
	// with "." or "_" are never entered.
	Recursive bool
}

// Loader reads post sources from an fs.FS.
type Loader struct {
	fs  fs.FS
	cfg LoaderConfig
}

func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	if strings.TrimSpace(cfg.Pattern) == "" {
		cfg.Pattern = defaultPattern
	}
	return &Loader{fs: filesystem, cfg: cfg}
}

// LoadFile parses one source file. name is slash separated and relative to
// the loader root.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(strings.ReplaceAll(name, "\\", "/"))
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown: stat %s: %w", name, err)
	}
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown: read %s: %w", name, err)
	}
	return BuildDocument(name, data, info.ModTime())
}

// LoadDirectory parses every matching file under dir in path order.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	names, err := l.sources(dir)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := l.LoadFile(ctx, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) sources(dir string) ([]string, error) {
	root := "."
	if trimmed := strings.TrimSpace(dir); trimmed != "" {
		root = path.Clean(strings.ReplaceAll(trimmed, "\\", "/"))
	}

	var names []string
	err := fs.WalkDir(l.fs, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if name == root {
				return nil
			}
			if !l.cfg.Recursive || strings.HasPrefix(entry.Name(), ".") || strings.HasPrefix(entry.Name(), "_") {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := path.Match(l.cfg.Pattern, entry.Name()); ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: scan %s: %w", root, err)
	}
	sort.Strings(names)
	return names, nil
}
