// Package site generates guild pages and serves them over HTTP.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/gateway"
	"github.com/vietddude/guildhall/internal/infra/storage"
	"github.com/vietddude/guildhall/internal/metrics"
	"github.com/vietddude/guildhall/internal/render"
)

const (
	keyIndex       = "index"
	keyCommunities = "communities"
	keyPaths       = "paths"
	guildKeyPrefix = "guild:"
)

// GuildKey is the page cache key of a guild page.
func GuildKey(slug string) string {
	return guildKeyPrefix + slug
}

// Site builds pages from the gateway and caches them.
type Site struct {
	gw        *gateway.Gateway
	snapshots storage.SnapshotRepository
	cache     *render.Cache
	log       *slog.Logger
}

// New creates a Site.
func New(gw *gateway.Gateway, snapshots storage.SnapshotRepository, cache *render.Cache) *Site {
	return &Site{
		gw:        gw,
		snapshots: snapshots,
		cache:     cache,
		log:       slog.Default().With("component", "site"),
	}
}

// GuildGenerator returns the generator for a guild page.
func (s *Site) GuildGenerator(slug string) render.Generator {
	return func(ctx context.Context) (render.Page, error) {
		res, err := s.gw.FetchGuildBySlug(ctx, slug)
		if errors.Is(err, gateway.ErrNotFound) {
			return render.Page{}, render.ErrNotFound
		}
		if err != nil {
			return render.Page{}, err
		}

		s.saveGuilds(ctx, []domain.Guild{res.Value}, res.FetchedAt)

		page := BuildGuildPage(res.Value)
		for _, t := range page.Unsupported {
			metrics.UnsupportedRequirements.WithLabelValues(string(t)).Inc()
			s.log.Debug("Unsupported requirement type dropped", "guild", slug, "type", t)
		}
		return render.Page{Body: page, Revalidate: res.Revalidate}, nil
	}
}

// IndexGenerator builds the guild list, falling back to snapshots and then
// the bundled fixtures when the API is unavailable.
func (s *Site) IndexGenerator() render.Generator {
	return func(ctx context.Context) (render.Page, error) {
		res, err := s.gw.FetchAllGuilds(ctx)
		if err == nil {
			s.saveGuilds(ctx, res.Value, res.FetchedAt)
			return render.Page{
				Body:       IndexPage{Guilds: res.Value, Source: string(res.Source)},
				Revalidate: res.Revalidate,
			}, nil
		}
		s.log.Warn("Guild listing unavailable, falling back", "error", err)

		if guilds, serr := s.snapshots.ListGuilds(ctx); serr == nil && len(guilds) > 0 {
			metrics.FixtureFallbacks.WithLabelValues("guilds", "snapshot").Inc()
			return render.Page{
				Body:       IndexPage{Guilds: guilds, Source: "snapshot"},
				Revalidate: s.gw.Revalidate(),
			}, nil
		}

		metrics.FixtureFallbacks.WithLabelValues("guilds", string(gateway.SourceFixture)).Inc()
		return render.Page{
			Body:       IndexPage{Guilds: s.gw.Fixtures().Guilds, Source: string(gateway.SourceFixture)},
			Revalidate: s.gw.Revalidate(),
		}, nil
	}
}

// CommunitiesGenerator builds the community list with the same fallbacks.
func (s *Site) CommunitiesGenerator() render.Generator {
	return func(ctx context.Context) (render.Page, error) {
		res, err := s.gw.FetchAllCommunities(ctx)
		if err == nil {
			if serr := s.snapshots.SaveCommunities(ctx, res.Value, res.FetchedAt); serr != nil {
				s.log.Warn("Failed to save community snapshots", "error", serr)
			}
			return render.Page{
				Body:       CommunitiesPage{Communities: res.Value, Source: string(res.Source)},
				Revalidate: res.Revalidate,
			}, nil
		}
		s.log.Warn("Community listing unavailable, falling back", "error", err)

		if communities, serr := s.snapshots.ListCommunities(ctx); serr == nil && len(communities) > 0 {
			metrics.FixtureFallbacks.WithLabelValues("communities", "snapshot").Inc()
			return render.Page{
				Body:       CommunitiesPage{Communities: communities, Source: "snapshot"},
				Revalidate: s.gw.Revalidate(),
			}, nil
		}

		metrics.FixtureFallbacks.WithLabelValues("communities", string(gateway.SourceFixture)).Inc()
		return render.Page{
			Body:       CommunitiesPage{Communities: s.gw.Fixtures().Communities, Source: string(gateway.SourceFixture)},
			Revalidate: s.gw.Revalidate(),
		}, nil
	}
}

// PathsGenerator enumerates guild slugs. It never fails.
func (s *Site) PathsGenerator() render.Generator {
	return func(ctx context.Context) (render.Page, error) {
		res := s.gw.FetchAllGuildSlugs(ctx)
		return render.Page{
			Body:       PathsPage{Paths: res.Value, Source: string(res.Source)},
			Revalidate: res.Revalidate,
		}, nil
	}
}

// Prewarm generates every guild page known to the slug enumeration.
func (s *Site) Prewarm(ctx context.Context, concurrency int) error {
	start := time.Now()
	slugs := s.gw.FetchAllGuildSlugs(ctx)

	keys := make([]string, 0, len(slugs.Value))
	for _, slug := range slugs.Value {
		keys = append(keys, GuildKey(slug))
	}

	generated, err := s.cache.Prewarm(ctx, keys, func(key string) render.Generator {
		return s.GuildGenerator(key[len(guildKeyPrefix):])
	}, concurrency)
	if err != nil {
		return fmt.Errorf("prewarm: %w", err)
	}

	s.log.Info("Guild pages prewarmed",
		"pages", generated,
		"slugs", len(slugs.Value),
		"source", slugs.Source,
		"took", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (s *Site) saveGuilds(ctx context.Context, guilds []domain.Guild, at time.Time) {
	if err := s.snapshots.SaveGuilds(ctx, guilds, at); err != nil {
		s.log.Warn("Failed to save guild snapshots", "error", err)
	}
}
