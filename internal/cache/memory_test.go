package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-cms-blog/internal/cache"
)

func newMemoryStore(t *testing.T) *cache.MemoryStore {
	t.Helper()
	store, err := cache.NewMemoryStore(cache.MemoryConfig{MaxCost: 1 << 20})
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func exerciseStore(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "website:blog"); err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	for _, key := range []string{"website:blog", "website:blog?start=20", "website:blog/news", "website:about"} {
		if err := store.Set(ctx, key, []byte(key), time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	value, ok, err := store.Get(ctx, "website:blog")
	if err != nil || !ok || string(value) != "website:blog" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Delete(ctx, "website:about"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "website:about"); ok {
		t.Fatalf("expected deleted key to miss")
	}

	if err := store.DeletePrefix(ctx, "website:blog?"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "website:blog?start=20"); ok {
		t.Fatalf("expected prefixed key to be removed")
	}
	if _, ok, _ := store.Get(ctx, "website:blog/news"); !ok {
		t.Fatalf("expected unrelated key to survive prefix delete")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "website:blog/news"); ok {
		t.Fatalf("expected clear to drop every key")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, newMemoryStore(t))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	value := []byte("original")
	if err := store.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, ok, _ := store.Get(ctx, "k")
	if !ok || string(got) != "original" {
		t.Fatalf("expected stored copy, got %q", got)
	}
	got[0] = 'Y'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "original" {
		t.Fatalf("expected reads to be isolated, got %q", again)
	}
}

func TestNoopStoreAlwaysMisses(t *testing.T) {
	store := cache.NewNoopStore()
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected noop miss, ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreIndexTracksEvictions(t *testing.T) {
	store, err := cache.NewMemoryStore(cache.MemoryConfig{MaxCost: 1 << 10, NumCounters: 1e4})
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(store.Close)
	ctx := context.Background()

	value := make([]byte, 64)
	for i := 0; i < 20000; i++ {
		key := fmt.Sprintf("website:post?utm=%d", i)
		if err := store.Set(ctx, key, value, time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	// 1KiB holds at most sixteen 64 byte values.
	if n := store.Indexed(); n > 16 {
		t.Fatalf("expected index bounded by resident entries, got %d", n)
	}

	if err := store.DeletePrefix(ctx, "website:post?"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if n := store.Indexed(); n != 0 {
		t.Fatalf("expected empty index after prefix delete, got %d", n)
	}
}

func TestMemoryStoreIndexForgetsDeletedKeys(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("1"), time.Minute)
	_ = store.Set(ctx, "b", []byte("2"), time.Minute)
	if n := store.Indexed(); n != 2 {
		t.Fatalf("expected two indexed keys, got %d", n)
	}
	_ = store.Delete(ctx, "a")
	if n := store.Indexed(); n != 1 {
		t.Fatalf("expected one indexed key after delete, got %d", n)
	}
	_ = store.Clear(ctx)
	if n := store.Indexed(); n != 0 {
		t.Fatalf("expected empty index after clear, got %d", n)
	}
}
