package blog

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-slug"
	"golang.org/x/net/html"
)

const (
	blogIntroLength = 200
	wordsPerMinute  = 250
)

// Scrub turns a title into the stable identifier used for names and route
// segments, e.g. "List Category" becomes "list-category".
func Scrub(text string) string {
	normalized, err := slug.Normalize(text)
	if err != nil {
		return ""
	}
	return normalized
}

// NormalizeRoute trims whitespace and surrounding slashes.
func NormalizeRoute(route string) string {
	return strings.Trim(strings.TrimSpace(route), "/")
}

// CategoryRoute builds the listing route for a category name.
func CategoryRoute(blogRoute, name string) string {
	blogRoute = NormalizeRoute(blogRoute)
	name = NormalizeRoute(name)
	if blogRoute == "" {
		return name
	}
	return blogRoute + "/" + name
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeContentType(value string) string {
	switch normalizeKey(value) {
	case "", ContentTypeMarkdown, "md":
		return ContentTypeMarkdown
	case ContentTypeHTML, "rich text":
		return ContentTypeHTML
	default:
		return normalizeKey(value)
	}
}

var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {}, "dd": {},
	"div": {}, "dl": {}, "dt": {}, "figcaption": {}, "figure": {}, "footer": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {},
	"hr": {}, "li": {}, "ol": {}, "p": {}, "pre": {}, "section": {}, "table": {},
	"td": {}, "th": {}, "tr": {}, "ul": {},
}

// htmlText extracts the visible text of an HTML fragment with whitespace
// collapsed to single spaces. Block elements separate words; inline elements
// do not.
func htmlText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tokenType == html.StartTagToken {
					skip++
				} else if tokenType == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if _, ok := blockElements[tag]; ok {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func buildIntro(text string) string {
	if utf8.RuneCountInString(text) <= blogIntroLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:blogIntroLength]))
}

func readTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func cloneCategory(category *Category) *Category {
	if category == nil {
		return nil
	}
	cloned := *category
	cloned.Description = cloneString(category.Description)
	return &cloned
}

func cloneBlogger(blogger *Blogger) *Blogger {
	if blogger == nil {
		return nil
	}
	cloned := *blogger
	cloned.Bio = cloneString(blogger.Bio)
	cloned.Avatar = cloneString(blogger.Avatar)
	return &cloned
}

func clonePost(post *Post) *Post {
	if post == nil {
		return nil
	}
	cloned := *post
	cloned.PublishedOn = cloneTime(post.PublishedOn)
	cloned.Category = cloneCategory(post.Category)
	cloned.Author = cloneBlogger(post.Author)
	return &cloned
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
