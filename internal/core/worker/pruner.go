package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/guildhall/internal/infra/storage"
)

// Pruner deletes snapshots past their retention period.
type Pruner struct {
	retention time.Duration
	repo      storage.SnapshotRepository
	log       *slog.Logger
	nowFn     func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, repo storage.SnapshotRepository) *Pruner {
	return &Pruner{
		retention: retention,
		repo:      repo,
		log:       slog.Default().With("component", "pruner"),
		nowFn:     time.Now,
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// 10% of the retention period, between 1 minute and 1 hour
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Prune deletes every snapshot fetched before now minus the retention.
func (p *Pruner) Prune(ctx context.Context) int64 {
	threshold := p.nowFn().Add(-p.retention)

	n, err := p.repo.DeleteOlderThan(ctx, threshold)
	if err != nil {
		p.log.Error("Failed to prune snapshots", "error", err)
		return n
	}
	if n > 0 {
		p.log.Info("Pruned snapshots", "deleted", n, "older_than", threshold.Format(time.RFC3339))
	}
	return n
}
