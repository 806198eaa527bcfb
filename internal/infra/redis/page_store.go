package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/guildhall/internal/render"
)

// DefaultPageTTL bounds how long an unrequested page survives in Redis.
// Stale pages are still served inside this window.
const DefaultPageTTL = 24 * time.Hour

// PageStore implements render.Store using Redis.
type PageStore struct {
	client *Client
	ttl    time.Duration
}

// NewPageStore creates a Redis-backed page store.
func NewPageStore(client *Client, ttl time.Duration) *PageStore {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageStore{client: client, ttl: ttl}
}

// Get retrieves a page, or nil if it is not stored.
func (s *PageStore) Get(ctx context.Context, key string) (*render.Entry, error) {
	data, err := s.client.rdb.Get(ctx, s.client.pageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	var e render.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return &e, nil
}

// Put stores a page.
func (s *PageStore) Put(ctx context.Context, e *render.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := s.client.rdb.Set(ctx, s.client.pageKey(e.Key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set page: %w", err)
	}
	return nil
}

// Delete removes a page.
func (s *PageStore) Delete(ctx context.Context, key string) error {
	return s.client.rdb.Del(ctx, s.client.pageKey(key)).Err()
}

// Ping checks the connection.
func (s *PageStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
