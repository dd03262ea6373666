package markdown

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// ParseFrontMatter splits source into its metadata block and Markdown body.
// Sources without front matter yield an empty FrontMatter and the full body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta.toFrontMatter(), body, nil
}

// BuildDocument parses source into a Document.
func BuildDocument(path string, source []byte, modified time.Time) (*Document, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sum := sha256.Sum256(source)
	return &Document{
		FilePath:     path,
		FrontMatter:  meta,
		Body:         body,
		Checksum:     sum[:],
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Title       string         `yaml:"title" toml:"title" json:"title"`
	Route       string         `yaml:"route" toml:"route" json:"route"`
	Category    string         `yaml:"category" toml:"category" json:"category"`
	Author      string         `yaml:"author" toml:"author" json:"author"`
	Intro       string         `yaml:"intro" toml:"intro" json:"intro"`
	Description string         `yaml:"description" toml:"description" json:"description"`
	ContentType string         `yaml:"content_type" toml:"content_type" json:"content_type"`
	Date        time.Time      `yaml:"date" toml:"date" json:"date"`
	Draft       bool           `yaml:"draft" toml:"draft" json:"draft"`
	Custom      map[string]any `yaml:",inline" toml:"-" json:"-"`
}

func (env frontMatterEnvelope) toFrontMatter() FrontMatter {
	custom := map[string]any{}
	maps.Copy(custom, env.Custom)
	return FrontMatter{
		Title:       strings.TrimSpace(env.Title),
		Route:       strings.TrimSpace(env.Route),
		Category:    strings.TrimSpace(env.Category),
		Author:      strings.TrimSpace(env.Author),
		Intro:       strings.TrimSpace(env.Intro),
		Description: strings.TrimSpace(env.Description),
		ContentType: strings.TrimSpace(env.ContentType),
		Date:        env.Date,
		Draft:       env.Draft,
		Custom:      custom,
	}
}
