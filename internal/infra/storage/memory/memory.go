package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/infra/storage"
)

type guildEntry struct {
	guild     domain.Guild
	fetchedAt time.Time
}

type communityEntry struct {
	community domain.Community
	fetchedAt time.Time
}

// SnapshotRepo implements storage.SnapshotRepository in memory.
type SnapshotRepo struct {
	mu          sync.RWMutex
	guilds      map[string]guildEntry
	communities map[string]communityEntry
}

func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{
		guilds:      make(map[string]guildEntry),
		communities: make(map[string]communityEntry),
	}
}

func (r *SnapshotRepo) SaveGuilds(ctx context.Context, guilds []domain.Guild, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range guilds {
		if g.URLName == "" {
			continue
		}
		r.guilds[g.URLName] = guildEntry{guild: g, fetchedAt: fetchedAt}
	}
	return nil
}

func (r *SnapshotRepo) GetGuild(ctx context.Context, slug string) (*domain.Guild, time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.guilds[slug]
	if !ok {
		return nil, time.Time{}, storage.ErrSnapshotNotFound
	}
	g := e.guild
	return &g, e.fetchedAt, nil
}

func (r *SnapshotRepo) ListGuilds(ctx context.Context) ([]domain.Guild, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Guild, 0, len(r.guilds))
	for _, e := range r.guilds {
		out = append(out, e.guild)
	}
	slices.SortFunc(out, func(a, b domain.Guild) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *SnapshotRepo) ListGuildRows(ctx context.Context) ([]storage.GuildSnapshotRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := make([]storage.GuildSnapshotRow, 0, len(r.guilds))
	for slug, e := range r.guilds {
		rows = append(rows, storage.GuildSnapshotRow{
			Slug:         slug,
			Name:         e.guild.Name,
			Requirements: len(e.guild.Requirements),
			FetchedAt:    e.fetchedAt,
		})
	}
	slices.SortFunc(rows, func(a, b storage.GuildSnapshotRow) int { return cmp.Compare(a.Slug, b.Slug) })
	return rows, nil
}

func (r *SnapshotRepo) SaveCommunities(ctx context.Context, communities []domain.Community, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range communities {
		if c.URLName == "" {
			continue
		}
		r.communities[c.URLName] = communityEntry{community: c, fetchedAt: fetchedAt}
	}
	return nil
}

func (r *SnapshotRepo) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Community, 0, len(r.communities))
	for _, e := range r.communities {
		out = append(out, e.community)
	}
	slices.SortFunc(out, func(a, b domain.Community) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for slug, e := range r.guilds {
		if e.fetchedAt.Before(before) {
			delete(r.guilds, slug)
			n++
		}
	}
	for slug, e := range r.communities {
		if e.fetchedAt.Before(before) {
			delete(r.communities, slug)
			n++
		}
	}
	return n, nil
}

func (r *SnapshotRepo) Stats(ctx context.Context) (storage.SnapshotStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := storage.SnapshotStats{Guilds: len(r.guilds), Communities: len(r.communities)}
	for _, e := range r.guilds {
		if e.fetchedAt.After(stats.GuildsUpdated) {
			stats.GuildsUpdated = e.fetchedAt
		}
	}
	for _, e := range r.communities {
		if e.fetchedAt.After(stats.CommunityUpdated) {
			stats.CommunityUpdated = e.fetchedAt
		}
	}
	return stats, nil
}

func (r *SnapshotRepo) Ping(ctx context.Context) error {
	return nil
}
