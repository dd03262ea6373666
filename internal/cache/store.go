package cache

import (
	"context"
	"time"
)

// Store keeps rendered website responses keyed by route.
type Store interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value; ttl <= 0 keeps it until evicted or cleared.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

type noopStore struct{}

// NewNoopStore returns a store that never retains anything.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (noopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopStore) Delete(context.Context, string) error                     { return nil }
func (noopStore) DeletePrefix(context.Context, string) error               { return nil }
func (noopStore) Clear(context.Context) error                              { return nil }
