package markdown

import (
	"context"
	"testing"
	"testing/fstest"
)

func TestLoaderSkipsHiddenAndUnderscoreDirectories(t *testing.T) {
	files := fstest.MapFS{
		"content/b.md":         {Data: []byte("---\ntitle: B\n---\nb\n")},
		"content/a.md":         {Data: []byte("---\ntitle: A\n---\na\n")},
		"content/2024/c.md":    {Data: []byte("c")},
		"content/_drafts/d.md": {Data: []byte("d")},
		"content/.trash/e.md":  {Data: []byte("e")},
		"content/notes.txt":    {Data: []byte("skip")},
	}

	flat, err := NewLoader(files, LoaderConfig{}).LoadDirectory(context.Background(), "content/")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(flat) != 2 || flat[0].FilePath != "content/a.md" || flat[1].FilePath != "content/b.md" {
		t.Fatalf("unexpected flat load %+v", paths(flat))
	}

	deep, err := NewLoader(files, LoaderConfig{Recursive: true}).LoadDirectory(context.Background(), "content")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"content/2024/c.md", "content/a.md", "content/b.md"}
	got := paths(deep)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLoaderMissingDirectory(t *testing.T) {
	if _, err := NewLoader(fstest.MapFS{}, LoaderConfig{}).LoadDirectory(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func paths(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.FilePath
	}
	return out
}
