package website

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// HeaderFromCache reports whether a response was served from the cache.
	HeaderFromCache = "X-From-Cache"

	cacheKeyPrefix = "website:"
)

// Request is a website request reduced to what route resolution needs.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// NewRequest builds a GET request from a path or an absolute URL. The query
// string, when present, is kept.
func NewRequest(raw string) (Request, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Request{}, fmt.Errorf("website: parse request %q: %w", raw, err)
	}
	return Request{
		Method: http.MethodGet,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Header: http.Header{},
	}, nil
}

// RequestFromHTTP converts an incoming HTTP request.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
	}
}

// Route is the normalized path: no surrounding slashes, "" for the home page.
func (r Request) Route() string {
	return NormalizeRoute(r.Path)
}

// CacheKey identifies the response for this route. Only the query values a
// page depends on take part, so tracking parameters share one entry.
func (r Request) CacheKey() string {
	key := routeKeyPrefix(r.Route())
	if start := r.Start(); start > 0 {
		key += "start=" + strconv.Itoa(start)
	}
	return key
}

// Start is the listing offset from the start query parameter.
func (r Request) Start() int {
	start, err := strconv.Atoi(r.Query.Get("start"))
	if err != nil || start < 0 {
		return 0
	}
	return start
}

func (r Request) noCache() bool {
	for _, value := range r.Header.Values("Cache-Control") {
		if strings.Contains(strings.ToLower(value), "no-cache") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Pragma")), "no-cache")
}

func (r Request) cacheableMethod() bool {
	switch r.Method {
	case "", http.MethodGet, http.MethodHead:
		return true
	default:
		return false
	}
}

// NormalizeRoute trims whitespace and surrounding slashes.
func NormalizeRoute(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

func routeKeyPrefix(route string) string {
	return cacheKeyPrefix + route + "?"
}

// Response is a rendered website page.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// FromCache reports whether the response carries X-From-Cache: True.
func (r *Response) FromCache() bool {
	return r != nil && r.Header.Get(HeaderFromCache) == "True"
}
