package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/infra/storage"
)

const upsertGuildSQL = `
INSERT INTO guild_snapshots (url_name, guild_id, name, platforms, requirement_types, payload, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url_name) DO UPDATE SET
    guild_id = EXCLUDED.guild_id,
    name = EXCLUDED.name,
    platforms = EXCLUDED.platforms,
    requirement_types = EXCLUDED.requirement_types,
    payload = EXCLUDED.payload,
    fetched_at = EXCLUDED.fetched_at`

const upsertCommunitySQL = `
INSERT INTO community_snapshots (url_name, community_id, name, categories, payload, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (url_name) DO UPDATE SET
    community_id = EXCLUDED.community_id,
    name = EXCLUDED.name,
    categories = EXCLUDED.categories,
    payload = EXCLUDED.payload,
    fetched_at = EXCLUDED.fetched_at`

type payloadRow struct {
	Payload   []byte    `db:"payload"`
	FetchedAt time.Time `db:"fetched_at"`
}

type guildRow struct {
	URLName          string         `db:"url_name"`
	Name             string         `db:"name"`
	RequirementTypes pq.StringArray `db:"requirement_types"`
	FetchedAt        time.Time      `db:"fetched_at"`
}

// SnapshotRepo implements storage.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new PostgreSQL snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SaveGuilds upserts guild snapshots in a single transaction.
func (r *SnapshotRepo) SaveGuilds(ctx context.Context, guilds []domain.Guild, fetchedAt time.Time) error {
	if len(guilds) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, g := range guilds {
		if g.URLName == "" {
			continue
		}
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to marshal guild %s: %w", g.URLName, err)
		}

		platforms := make([]string, 0, len(g.GuildPlatforms))
		for _, p := range g.GuildPlatforms {
			platforms = append(platforms, p.Name)
		}
		types := make([]string, 0, len(g.Requirements))
		for _, req := range g.Requirements {
			types = append(types, string(req.Type))
		}

		if _, err := tx.ExecContext(ctx, upsertGuildSQL,
			g.URLName, g.ID, g.Name, pq.Array(platforms), pq.Array(types), payload, fetchedAt,
		); err != nil {
			return fmt.Errorf("failed to save guild snapshot %s: %w", g.URLName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit guild snapshots: %w", err)
	}
	return nil
}

// GetGuild retrieves a guild snapshot by slug.
func (r *SnapshotRepo) GetGuild(ctx context.Context, slug string) (*domain.Guild, time.Time, error) {
	var row payloadRow
	err := r.db.GetContext(ctx, &row,
		`SELECT payload, fetched_at FROM guild_snapshots WHERE url_name = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get guild snapshot: %w", err)
	}

	var g domain.Guild
	if err := json.Unmarshal(row.Payload, &g); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode guild snapshot: %w", err)
	}
	return &g, row.FetchedAt, nil
}

// ListGuilds retrieves all guild snapshots ordered by id.
func (r *SnapshotRepo) ListGuilds(ctx context.Context) ([]domain.Guild, error) {
	var rows []payloadRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT payload, fetched_at FROM guild_snapshots ORDER BY guild_id`); err != nil {
		return nil, fmt.Errorf("failed to list guild snapshots: %w", err)
	}

	guilds := make([]domain.Guild, 0, len(rows))
	for _, row := range rows {
		var g domain.Guild
		if err := json.Unmarshal(row.Payload, &g); err != nil {
			continue
		}
		guilds = append(guilds, g)
	}
	return guilds, nil
}

// ListGuildRows retrieves a summary row per stored guild.
func (r *SnapshotRepo) ListGuildRows(ctx context.Context) ([]storage.GuildSnapshotRow, error) {
	var rows []guildRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT url_name, name, requirement_types, fetched_at FROM guild_snapshots ORDER BY url_name`); err != nil {
		return nil, fmt.Errorf("failed to list guild rows: %w", err)
	}

	out := make([]storage.GuildSnapshotRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.GuildSnapshotRow{
			Slug:         row.URLName,
			Name:         row.Name,
			Requirements: len(row.RequirementTypes),
			FetchedAt:    row.FetchedAt,
		})
	}
	return out, nil
}

// SaveCommunities upserts community snapshots in a single transaction.
func (r *SnapshotRepo) SaveCommunities(
	ctx context.Context,
	communities []domain.Community,
	fetchedAt time.Time,
) error {
	if len(communities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range communities {
		if c.URLName == "" {
			continue
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal community %s: %w", c.URLName, err)
		}
		// A nil slice would be stored as NULL.
		categories := append([]string{}, c.Categories...)
		if _, err := tx.ExecContext(ctx, upsertCommunitySQL,
			c.URLName, c.ID, c.Name, pq.Array(categories), payload, fetchedAt,
		); err != nil {
			return fmt.Errorf("failed to save community snapshot %s: %w", c.URLName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit community snapshots: %w", err)
	}
	return nil
}

// ListCommunities retrieves all community snapshots ordered by id.
func (r *SnapshotRepo) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	var rows []payloadRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT payload, fetched_at FROM community_snapshots ORDER BY community_id`); err != nil {
		return nil, fmt.Errorf("failed to list community snapshots: %w", err)
	}

	communities := make([]domain.Community, 0, len(rows))
	for _, row := range rows {
		var c domain.Community
		if err := json.Unmarshal(row.Payload, &c); err != nil {
			continue
		}
		communities = append(communities, c)
	}
	return communities, nil
}

// DeleteOlderThan removes snapshots fetched before the threshold.
func (r *SnapshotRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"guild_snapshots", "community_snapshots"} {
		res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE fetched_at < $1", before)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Stats returns counts and last update times.
func (r *SnapshotRepo) Stats(ctx context.Context) (storage.SnapshotStats, error) {
	var row struct {
		Guilds           int          `db:"guilds"`
		GuildsUpdated    sql.NullTime `db:"guilds_updated"`
		Communities      int          `db:"communities"`
		CommunityUpdated sql.NullTime `db:"communities_updated"`
	}
	err := r.db.GetContext(ctx, &row, `
SELECT
    (SELECT COUNT(*) FROM guild_snapshots)          AS guilds,
    (SELECT MAX(fetched_at) FROM guild_snapshots)    AS guilds_updated,
    (SELECT COUNT(*) FROM community_snapshots)       AS communities,
    (SELECT MAX(fetched_at) FROM community_snapshots) AS communities_updated`)
	if err != nil {
		return storage.SnapshotStats{}, fmt.Errorf("failed to read snapshot stats: %w", err)
	}

	return storage.SnapshotStats{
		Guilds:           row.Guilds,
		Communities:      row.Communities,
		GuildsUpdated:    row.GuildsUpdated.Time,
		CommunityUpdated: row.CommunityUpdated.Time,
	}, nil
}

// Ping checks the database connection.
func (r *SnapshotRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
