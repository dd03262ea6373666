package website

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultSiteName is used in page titles when none is configured.
const DefaultSiteName = "Blog"

// Renderer turns pages into HTML using the embedded template set, or the
// templates of a configured theme.
type Renderer struct {
	site      string
	theme     *Theme
	templates map[string]*template.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTheme renders with theme. Keys the manifest does not override keep
// the embedded template.
func WithTheme(theme *Theme) RendererOption {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// NewRenderer parses the page templates.
func NewRenderer(site string, opts ...RendererOption) (*Renderer, error) {
	if site == "" {
		site = DefaultSiteName
	}
	r := &Renderer{site: site}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	funcs := template.FuncMap{
		"isoDate":     isoDate,
		"displayDate": displayDate,
		"asset":       r.theme.Asset,
	}

	r.templates = make(map[string]*template.Template, 3)
	for _, name := range []string{TemplatePost, TemplateList, TemplateNotFound} {
		tmpl := template.New(name).Funcs(funcs)
		for _, key := range []string{templateBase, name} {
			files, file := r.source(key)
			if _, err := tmpl.ParseFS(files, file); err != nil {
				return nil, fmt.Errorf("website: parse template %s (%s): %w", name, file, err)
			}
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) source(key string) (fs.FS, string) {
	if files, file, ok := r.theme.template(key); ok {
		return files, file
	}
	return templateFS, "templates/" + key + ".html"
}

// Render executes the page template and returns the HTML body.
func (r *Renderer) Render(page *Page) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("website: nil page")
	}
	tmpl, ok := r.templates[page.Template]
	if !ok {
		return nil, fmt.Errorf("website: unknown template %q", page.Template)
	}
	var buf bytes.Buffer
	data := struct {
		Site  string
		Page  *Page
		Theme ThemeData
	}{Site: r.site, Page: page, Theme: r.theme.data()}
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("website: render %s: %w", page.Template, err)
	}
	return buf.Bytes(), nil
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func displayDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2 January 2006")
}
