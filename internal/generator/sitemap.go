package generator

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// buildSitemap lists every rendered route once, sorted by location. Pages
// without a modification time use fallback.
func buildSitemap(baseURL string, pages []RenderedPage, fallback time.Time) ([]byte, error) {
	byLoc := make(map[string]time.Time, len(pages))
	for _, page := range pages {
		loc := absoluteURL(baseURL, page.Route)
		if _, dup := byLoc[loc]; dup {
			continue
		}
		byLoc[loc] = firstNonZeroTime(page.LastModified, fallback)
	}

	set := urlSet{Xmlns: sitemapNamespace, URLs: make([]sitemapURL, 0, len(byLoc))}
	for loc, modified := range byLoc {
		entry := sitemapURL{Loc: loc}
		if !modified.IsZero() {
			entry.LastMod = modified.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, entry)
	}
	sort.Slice(set.URLs, func(i, j int) bool { return set.URLs[i].Loc < set.URLs[j].Loc })
	return marshalXML(set)
}

func buildRobots(baseURL string, withSitemap bool) []byte {
	lines := []string{"User-agent: *", "Allow: /"}
	if withSitemap {
		lines = append(lines, "", "Sitemap: "+siteRoot(baseURL)+"/sitemap.xml")
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func marshalXML(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

// siteRoot is the base URL without a trailing slash. Exports built without
// one still produce absolute links against localhost.
func siteRoot(baseURL string) string {
	if root := strings.TrimRight(strings.TrimSpace(baseURL), "/"); root != "" {
		return root
	}
	return "http://localhost"
}

func absoluteURL(baseURL, route string) string {
	return siteRoot(baseURL) + "/" + strings.Trim(strings.TrimSpace(route), "/")
}
