package render

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Prewarm generates the pages for keys up front, at most concurrency at a
// time. Individual failures are logged and counted, never returned; only
// context cancellation aborts the run.
func (c *Cache) Prewarm(
	ctx context.Context,
	keys []string,
	genFor func(key string) Generator,
	concurrency int,
) (generated int, err error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var ok atomic.Int64
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := c.Refresh(gctx, key, genFor(key)); err != nil {
				if errors.Is(err, ErrNotFound) {
					c.log.Debug("Prewarm skipped missing page", "key", key)
				} else {
					c.log.Warn("Prewarm failed", "key", key, "error", err)
				}
				return nil
			}
			ok.Add(1)
			return nil
		})
	}

	err = g.Wait()
	slog.Debug("Prewarm finished", "pages", ok.Load(), "requested", len(keys))
	return int(ok.Load()), err
}
