package website

import (
	"net/http"
	"testing"
)

func TestNewRequestNormalizesRoute(t *testing.T) {
	cases := []struct {
		raw   string
		route string
		key   string
	}{
		{raw: "/", route: "", key: "website:?"},
		{raw: "/blog/news/", route: "blog/news", key: "website:blog/news?"},
		{raw: "blog?start=3", route: "blog", key: "website:blog?start=3"},
		{raw: "http://localhost/blog/x?b=2&a=1", route: "blog/x", key: "website:blog/x?"},
		{raw: "blog?utm_source=feed&start=20", route: "blog", key: "website:blog?start=20"},
		{raw: "blog?start=0&utm=7", route: "blog", key: "website:blog?"},
		{raw: "blog?start=junk", route: "blog", key: "website:blog?"},
	}
	for _, tc := range cases {
		req, err := NewRequest(tc.raw)
		if err != nil {
			t.Fatalf("new request %q: %v", tc.raw, err)
		}
		if got := req.Route(); got != tc.route {
			t.Fatalf("%q: expected route %q, got %q", tc.raw, tc.route, got)
		}
		if got := req.CacheKey(); got != tc.key {
			t.Fatalf("%q: expected key %q, got %q", tc.raw, tc.key, got)
		}
	}
}

func TestRequestStart(t *testing.T) {
	for raw, want := range map[string]int{
		"blog":           0,
		"blog?start=4":   4,
		"blog?start=-1":  0,
		"blog?start=abc": 0,
	} {
		req, _ := NewRequest(raw)
		if got := req.Start(); got != want {
			t.Fatalf("%q: expected start %d, got %d", raw, want, got)
		}
	}
}

func TestRequestNoCache(t *testing.T) {
	req, _ := NewRequest("blog")
	if req.noCache() {
		t.Fatalf("plain request should be cacheable")
	}
	req.Header.Set("Cache-Control", "No-Cache")
	if !req.noCache() {
		t.Fatalf("expected Cache-Control no-cache to be honoured")
	}
	req.Header = http.Header{"Pragma": []string{"no-cache"}}
	if !req.noCache() {
		t.Fatalf("expected Pragma no-cache to be honoured")
	}
}
