package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// defaultExtensions apply when ParseOptions names none.
var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

var extensionsByName = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// GoldmarkParser turns post bodies into HTML. Engines are built once per
// distinct option set and shared, so the parser is safe for concurrent use.
type GoldmarkParser struct {
	options ParseOptions

	mu      sync.Mutex
	engines map[string]goldmark.Markdown
}

func NewGoldmarkParser(opts ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{options: opts, engines: map[string]goldmark.Markdown{}}
}

// Parse renders with the options the parser was built with.
func (p *GoldmarkParser) Parse(source []byte) ([]byte, error) {
	return p.ParseWithOptions(source, p.options)
}

// ParseWithOptions renders with opts instead of the parser defaults.
func (p *GoldmarkParser) ParseWithOptions(source []byte, opts ParseOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := p.engineFor(opts).Convert(source, &out); err != nil {
		return nil, fmt.Errorf("markdown: render: %w", err)
	}
	return out.Bytes(), nil
}

func (p *GoldmarkParser) engineFor(opts ParseOptions) goldmark.Markdown {
	names := extensionNames(opts.Extensions)
	key := fmt.Sprintf("%t|%t|%s", opts.HardWraps, opts.SafeMode, strings.Join(names, ","))

	p.mu.Lock()
	defer p.mu.Unlock()
	if engine, ok := p.engines[key]; ok {
		return engine
	}

	var rendering []renderer.Option
	if opts.HardWraps {
		rendering = append(rendering, html.WithHardWraps())
	}
	if !opts.SafeMode {
		// raw HTML in post bodies passes through
		rendering = append(rendering, html.WithUnsafe())
	}
	extenders := make([]goldmark.Extender, 0, len(names))
	for _, name := range names {
		extenders = append(extenders, extensionsByName[name])
	}

	engine := goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendering...),
		goldmark.WithExtensions(extenders...),
	)
	p.engines[key] = engine
	return engine
}

// extensionNames normalizes, de-duplicates and sorts the known extension
// names. Unknown names are ignored.
func extensionNames(requested []string) []string {
	if len(requested) == 0 {
		requested = defaultExtensions
	}
	seen := make(map[goldmark.Extender]bool, len(requested))
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionsByName[name]
		if !ok || seen[ext] {
			continue
		}
		seen[ext] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
