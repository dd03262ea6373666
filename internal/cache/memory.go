package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/dgraph-io/ristretto/z"
)

// MemoryConfig sizes the in-process store.
type MemoryConfig struct {
	// MaxCost bounds the total size in bytes of stored values.
	MaxCost int64
	// NumCounters defaults to ten times the expected item count.
	NumCounters int64
}

const (
	defaultMaxCost     = 64 << 20
	defaultNumCounters = 1e5
)

// MemoryStore is a Store backed by ristretto. Ristretto cannot enumerate its
// keys, so the store indexes resident keys by their ristretto hash to support
// prefix deletion. Evictions and rejections prune the index.
type MemoryStore struct {
	cache *ristretto.Cache

	mu    sync.Mutex
	index map[uint64]indexEntry
}

type indexEntry struct {
	key      string
	conflict uint64
}

// NewMemoryStore builds a ristretto backed store.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = defaultNumCounters
	}
	s := &MemoryStore{index: map[uint64]indexEntry{}}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
		OnEvict:     s.forget,
		OnReject:    s.forget,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: new ristretto cache: %w", err)
	}
	s.cache = c
	return s, nil
}

// forget runs on ristretto's goroutine and during Clear, so callers must not
// hold mu while calling into the cache.
func (s *MemoryStore) forget(item *ristretto.Item) {
	s.mu.Lock()
	if entry, ok := s.index[item.Key]; ok && entry.conflict == item.Conflict {
		delete(s.index, item.Key)
	}
	s.mu.Unlock()
}

func (s *MemoryStore) unindex(key string) {
	hash, _ := z.KeyToHash(key)
	s.mu.Lock()
	if entry, ok := s.index[hash]; ok && entry.key == key {
		delete(s.index, hash)
	}
	s.mu.Unlock()
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.cache.Get(key)
	if !ok {
		s.unindex(key)
		return nil, false, nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of value. Writes are applied before Set returns so a
// following Get observes them.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := append([]byte(nil), value...)
	cost := int64(len(data))
	if cost == 0 {
		cost = 1
	}
	// Index before the write so a rejection reported during Wait finds it.
	hash, conflict := z.KeyToHash(key)
	s.mu.Lock()
	s.index[hash] = indexEntry{key: key, conflict: conflict}
	s.mu.Unlock()

	if !s.cache.SetWithTTL(key, data, cost, max(ttl, 0)) {
		s.unindex(key)
		return nil
	}
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Del(key)
	s.unindex(key)
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	var matched []string
	s.mu.Lock()
	for hash, entry := range s.index {
		if strings.HasPrefix(entry.key, prefix) {
			matched = append(matched, entry.key)
			delete(s.index, hash)
		}
	}
	s.mu.Unlock()

	for _, key := range matched {
		s.cache.Del(key)
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.cache.Clear()
	s.mu.Lock()
	s.index = map[uint64]indexEntry{}
	s.mu.Unlock()
	return nil
}

// Indexed reports how many keys the store currently tracks.
func (s *MemoryStore) Indexed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Close releases the ristretto goroutines.
func (s *MemoryStore) Close() {
	s.cache.Close()
}
