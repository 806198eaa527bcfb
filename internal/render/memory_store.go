package render

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore keeps pages in a bounded in-process LRU.
type MemoryStore struct {
	cache *lru.Cache[string, Entry]
}

// NewMemoryStore creates a store holding at most size pages.
func NewMemoryStore(size int) (*MemoryStore, error) {
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) Put(ctx context.Context, e *Entry) error {
	s.cache.Add(e.Key, *e)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of cached pages.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
