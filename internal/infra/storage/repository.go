package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a key
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotStats summarises what a repository holds.
type SnapshotStats struct {
	Guilds           int
	Communities      int
	GuildsUpdated    time.Time
	CommunityUpdated time.Time
}

// GuildSnapshotRow is one stored guild, for listing in the CLI.
type GuildSnapshotRow struct {
	Slug         string
	Name         string
	Requirements int
	FetchedAt    time.Time
}

// SnapshotRepository keeps the last successfully fetched records so listings
// survive an unavailable API.
type SnapshotRepository interface {
	// SaveGuilds upserts guild snapshots
	SaveGuilds(ctx context.Context, guilds []domain.Guild, fetchedAt time.Time) error

	// GetGuild retrieves a guild snapshot by slug
	GetGuild(ctx context.Context, slug string) (*domain.Guild, time.Time, error)

	// ListGuilds retrieves all guild snapshots ordered by id
	ListGuilds(ctx context.Context) ([]domain.Guild, error)

	// ListGuildRows retrieves a summary row per stored guild
	ListGuildRows(ctx context.Context) ([]GuildSnapshotRow, error)

	// SaveCommunities upserts community snapshots
	SaveCommunities(ctx context.Context, communities []domain.Community, fetchedAt time.Time) error

	// ListCommunities retrieves all community snapshots ordered by id
	ListCommunities(ctx context.Context) ([]domain.Community, error)

	// DeleteOlderThan removes guild and community snapshots fetched before t
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)

	// Stats returns counts and last update times
	Stats(ctx context.Context) (SnapshotStats, error)

	// Ping checks the backing store
	Ping(ctx context.Context) error
}
