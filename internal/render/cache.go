package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/guildhall/internal/metrics"
)

// CacheConfig configures a Cache.
type CacheConfig struct {
	// Revalidate is used when a Generator does not set one.
	Revalidate time.Duration
	// Dedupe coalesces concurrent generations of the same key.
	Dedupe bool
	// RegenTimeout bounds a background or shared regeneration.
	RegenTimeout time.Duration
}

// Cache serves pages from a Store and regenerates stale ones.
type Cache struct {
	store Store
	cfg   CacheConfig
	group singleflight.Group
	wg    sync.WaitGroup
	log   *slog.Logger
	nowFn func() time.Time
}

// NewCache creates a page cache on top of store.
func NewCache(store Store, cfg CacheConfig) *Cache {
	if cfg.RegenTimeout == 0 {
		cfg.RegenTimeout = 30 * time.Second
	}
	return &Cache{
		store: store,
		cfg:   cfg,
		log:   slog.Default().With("component", "render"),
		nowFn: time.Now,
	}
}

// Get returns the page for key, generating it with gen when needed.
func (c *Cache) Get(ctx context.Context, key string, gen Generator) (*Entry, Status, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("Page store read failed, regenerating", "key", key, "error", err)
		entry = nil
	}

	if entry != nil {
		if !entry.Stale(c.nowFn()) {
			metrics.PageCacheRequests.WithLabelValues(string(StatusHit)).Inc()
			return entry, StatusHit, nil
		}
		c.revalidateAsync(key, gen)
		metrics.PageCacheRequests.WithLabelValues(string(StatusStale)).Inc()
		return entry, StatusStale, nil
	}

	metrics.PageCacheRequests.WithLabelValues(string(StatusMiss)).Inc()
	entry, err = c.generate(ctx, key, gen)
	if err != nil {
		return nil, StatusMiss, err
	}
	return entry, StatusMiss, nil
}

// Refresh regenerates key now, regardless of staleness.
func (c *Cache) Refresh(ctx context.Context, key string, gen Generator) (*Entry, error) {
	return c.generate(ctx, key, gen)
}

// Wait blocks until in-flight background regenerations finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) revalidateAsync(key string, gen Generator) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RegenTimeout)
		defer cancel()

		if _, err := c.generate(ctx, key, gen); err != nil && !errors.Is(err, ErrNotFound) {
			c.log.Warn("Background regeneration failed, keeping stale page", "key", key, "error", err)
		}
	}()
}

func (c *Cache) generate(ctx context.Context, key string, gen Generator) (*Entry, error) {
	if !c.cfg.Dedupe {
		return c.regenerate(ctx, key, gen)
	}

	// The shared run serves every waiting caller, so it must not die with
	// the first caller's request.
	ch := c.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RegenTimeout)
		defer cancel()
		return c.regenerate(rctx, key, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.PageRegenerations.WithLabelValues("coalesced").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

func (c *Cache) regenerate(ctx context.Context, key string, gen Generator) (*Entry, error) {
	page, err := gen(ctx)
	if errors.Is(err, ErrNotFound) {
		metrics.PageRegenerations.WithLabelValues("not_found").Inc()
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			c.log.Warn("Failed to evict missing page", "key", key, "error", delErr)
		}
		return nil, err
	}
	if err != nil {
		metrics.PageRegenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("generate %s: %w", key, err)
	}

	body, err := json.Marshal(page.Body)
	if err != nil {
		metrics.PageRegenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	revalidate := page.Revalidate
	if revalidate == 0 {
		revalidate = c.cfg.Revalidate
	}

	entry := &Entry{
		Key:         key,
		Body:        body,
		GeneratedAt: c.nowFn(),
		Revalidate:  revalidate,
	}
	if err := c.store.Put(ctx, entry); err != nil {
		// The page is still usable for this request.
		c.log.Warn("Failed to store page", "key", key, "error", err)
	}

	metrics.PageRegenerations.WithLabelValues("ok").Inc()
	c.log.Debug("Page generated", "key", key, "revalidate", revalidate)
	return entry, nil
}
