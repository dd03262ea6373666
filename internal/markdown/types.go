package markdown

import "time"

// ParseOptions configures goldmark rendering.
type ParseOptions struct {
	// Extensions lists goldmark extensions by name (gfm, table, linkify...).
	// An empty list enables gfm, linkify and tasklist.
	Extensions []string
	HardWraps  bool
	// SafeMode drops raw HTML from the output.
	SafeMode bool
}

// FrontMatter is the metadata block at the top of an imported post.
type FrontMatter struct {
	Title       string
	Route       string
	Category    string
	Author      string
	Intro       string
	Description string
	ContentType string
	Date        time.Time
	Draft       bool
	Custom      map[string]any
}

// Map returns the front matter as a JSON-like payload, custom keys included.
func (f FrontMatter) Map() map[string]any {
	out := make(map[string]any, len(f.Custom)+9)
	for key, value := range f.Custom {
		out[key] = value
	}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("title", f.Title)
	set("route", f.Route)
	set("category", f.Category)
	set("author", f.Author)
	set("intro", f.Intro)
	set("description", f.Description)
	set("content_type", f.ContentType)
	if !f.Date.IsZero() {
		out["date"] = f.Date.UTC().Format(time.RFC3339)
	}
	out["draft"] = f.Draft
	return out
}

// Document is a Markdown file split into metadata and body.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	Checksum     []byte
	LastModified time.Time
}

// ImportOptions tune how documents become posts.
type ImportOptions struct {
	// DefaultCategory is used when the front matter names none.
	DefaultCategory string
	// DefaultAuthor is used when the front matter names none.
	DefaultAuthor string
	// CreateMissingCategories creates categories referenced by documents.
	CreateMissingCategories bool
	// DryRun reports what would change without writing.
	DryRun bool
}

// ImportResult summarises an import run by post route.
type ImportResult struct {
	Created []string
	Updated []string
	Skipped []string
	Errors  []error
}
