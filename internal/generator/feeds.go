package generator

import (
	"context"
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-cms-blog/internal/blog"
)

const maxFeedItems = 100

type feedItem struct {
	Title     string
	Summary   string
	Link      string
	ID        string
	Author    string
	Published time.Time
	Updated   time.Time
}

// feedItems returns published posts newest first, capped at maxFeedItems.
func (s *service) feedItems(posts []*blog.Post) []feedItem {
	items := make([]feedItem, 0, len(posts))
	for _, post := range posts {
		if post == nil || !post.Published {
			continue
		}
		var publishedOn time.Time
		if post.PublishedOn != nil {
			publishedOn = *post.PublishedOn
		}
		item := feedItem{
			Title:     post.Title,
			Summary:   firstNonEmpty(post.MetaDescription, post.BlogIntro),
			Link:      absoluteURL(s.cfg.BaseURL, post.Route),
			ID:        post.ID.String(),
			Published: firstNonZeroTime(publishedOn, post.CreatedAt),
		}
		item.Updated = firstNonZeroTime(post.UpdatedAt, item.Published)
		if post.Author != nil {
			item.Author = post.Author.FullName
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Published.Equal(items[j].Published) {
			return items[i].ID < items[j].ID
		}
		return items[i].Published.After(items[j].Published)
	})
	if len(items) > maxFeedItems {
		items = items[:maxFeedItems]
	}
	return items
}

func (s *service) writeFeeds(ctx context.Context, writer ArtifactWriter, posts []*blog.Post) (int, error) {
	items := s.feedItems(posts)
	if len(items) == 0 {
		return 0, nil
	}
	generatedAt := s.now().UTC()
	title := firstNonEmpty(s.cfg.SiteTitle, "Blog")
	home := absoluteURL(s.cfg.BaseURL, "")

	feeds := []struct {
		path        string
		contentType string
		doc         any
	}{
		{"feed.xml", "application/rss+xml", newRSS(title, home, generatedAt, items)},
		{"feed.atom.xml", "application/atom+xml", newAtom(title, home, generatedAt, items)},
	}
	written := 0
	for _, feed := range feeds {
		content, err := marshalXML(feed.doc)
		if err != nil {
			return written, err
		}
		if err := writer.WriteFile(ctx, WriteFileRequest{
			Path:        feed.path,
			Content:     content,
			Category:    CategoryFeed,
			ContentType: feed.contentType,
			Checksum:    computeHash(content),
		}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description,omitempty"`
	PubDate     string  `xml:"pubDate,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func newRSS(title, home string, generatedAt time.Time, items []feedItem) rssDoc {
	channel := rssChannel{
		Title:         title,
		Link:          home,
		Description:   title,
		LastBuildDate: generatedAt.Format(time.RFC1123Z),
	}
	for _, item := range items {
		entry := rssItem{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        rssGUID{Value: item.ID},
			Description: item.Summary,
		}
		if !item.Published.IsZero() {
			entry.PubDate = item.Published.UTC().Format(time.RFC1123Z)
		}
		channel.Items = append(channel.Items, entry)
	}
	return rssDoc{Version: "2.0", Channel: channel}
}

type atomDoc struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	ID      string      `xml:"id"`
	Link    atomLink    `xml:"link"`
	Updated string      `xml:"updated"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	Title   string      `xml:"title"`
	Link    atomLink    `xml:"link"`
	ID      string      `xml:"id"`
	Updated string      `xml:"updated"`
	Author  *atomAuthor `xml:"author,omitempty"`
	Summary string      `xml:"summary,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

func newAtom(title, home string, generatedAt time.Time, items []feedItem) atomDoc {
	doc := atomDoc{
		Title:   title,
		ID:      home,
		Link:    atomLink{Href: home},
		Updated: generatedAt.Format(time.RFC3339),
	}
	for _, item := range items {
		entry := atomEntry{
			Title:   item.Title,
			Link:    atomLink{Href: item.Link},
			ID:      "urn:uuid:" + item.ID,
			Updated: item.Updated.UTC().Format(time.RFC3339),
			Summary: item.Summary,
		}
		if item.Author != "" {
			entry.Author = &atomAuthor{Name: item.Author}
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
