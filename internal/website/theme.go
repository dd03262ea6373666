package website

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// templateBase is the manifest key for the shared layout.
const templateBase = "base"

// Theme is a go-theme manifest selected for rendering. Manifest template
// entries are paths relative to the theme directory and replace the
// embedded template of the same key.
type Theme struct {
	files     fs.FS
	selection *gotheme.Selection
}

// ThemeData is what templates see of the active theme.
type ThemeData struct {
	Name        string
	Variant     string
	Tokens      map[string]string
	CSSVars     map[string]string
	Stylesheets []string
	Scripts     []string
}

// LoadTheme reads the manifest (theme.json, theme.yaml, ...) in dir and
// selects variant, falling back to the manifest's base values.
func LoadTheme(dir, variant string) (*Theme, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("website: theme directory required")
	}
	return loadTheme(os.DirFS(dir), variant)
}

func loadTheme(files fs.FS, variant string) (*Theme, error) {
	manifest, err := gotheme.LoadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("website: load theme manifest: %w", err)
	}

	registry := gotheme.NewRegistry()
	if err := registry.Register(manifest); err != nil {
		return nil, fmt.Errorf("website: register theme %s: %w", manifest.Name, err)
	}
	selector := gotheme.Selector{Registry: registry, DefaultTheme: manifest.Name}
	selection, err := selector.Select(manifest.Name, strings.TrimSpace(variant))
	if err != nil {
		return nil, fmt.Errorf("website: select theme %s: %w", manifest.Name, err)
	}
	return &Theme{files: files, selection: selection}, nil
}

// Name is the manifest name.
func (t *Theme) Name() string {
	if t == nil {
		return ""
	}
	return t.selection.Theme
}

// Asset resolves an asset key to its URL, honouring the assets prefix.
func (t *Theme) Asset(key string) string {
	if t == nil {
		return ""
	}
	url, _ := t.selection.Asset(key)
	return absoluteAsset(url)
}

// template returns the theme file overriding key, if any.
func (t *Theme) template(key string) (fs.FS, string, bool) {
	if t == nil {
		return nil, "", false
	}
	file := strings.TrimPrefix(t.selection.Template(key, ""), "/")
	if file == "" {
		return nil, "", false
	}
	return t.files, path.Clean(file), true
}

func (t *Theme) data() ThemeData {
	if t == nil {
		return ThemeData{Tokens: map[string]string{}, CSSVars: map[string]string{}}
	}
	data := ThemeData{
		Name:    t.selection.Theme,
		Variant: t.selection.Variant,
		Tokens:  t.selection.Tokens(),
		CSSVars: t.selection.CSSVariables(""),
	}
	for _, key := range t.assetKeys() {
		url := t.Asset(key)
		switch path.Ext(url) {
		case ".css":
			data.Stylesheets = append(data.Stylesheets, url)
		case ".js":
			data.Scripts = append(data.Scripts, url)
		}
	}
	return data
}

// assetKeys lists base and variant asset keys in a stable order.
func (t *Theme) assetKeys() []string {
	manifest := t.selection.Manifest
	if manifest == nil {
		return nil
	}
	seen := map[string]struct{}{}
	for key := range manifest.Assets.Files {
		seen[key] = struct{}{}
	}
	if variant, ok := manifest.Variants[t.selection.Variant]; ok {
		for key := range variant.Assets.Files {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func absoluteAsset(url string) string {
	if url == "" || strings.Contains(url, "://") || strings.HasPrefix(url, "/") {
		return url
	}
	return "/" + url
}
