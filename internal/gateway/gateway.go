// Package gateway fetches guild and community records from the guild API.
//
// Every successful result carries the revalidate interval after which the
// page layer may regenerate it in the background. Slug enumeration never
// fails: when the API is unavailable it falls back to the bundled fixtures.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/metrics"
)

const (
	guildBySlugPrefix = "/guild/urlName/"
	guildsPath        = "/guild"
	communitiesPath   = "/community"
)

// Source tells where a result came from.
type Source string

const (
	SourceAPI     Source = "api"
	SourceFixture Source = "fixture"
)

// Result is a fetched value with its staleness policy.
type Result[T any] struct {
	Value      T
	Revalidate time.Duration
	FetchedAt  time.Time
	Source     Source
}

// Fetcher performs a JSON GET against the API.
type Fetcher interface {
	GetJSON(ctx context.Context, path string, out any) error
}

// Gateway is the read-only entry point to guild data.
type Gateway struct {
	client     Fetcher
	fixtures   Fixtures
	revalidate time.Duration
	log        *slog.Logger
	nowFn      func() time.Time
}

// New creates a gateway. Fixtures back the slug enumeration when the API is
// unavailable.
func New(client Fetcher, fixtures Fixtures, revalidate time.Duration) *Gateway {
	return &Gateway{
		client:     client,
		fixtures:   fixtures,
		revalidate: revalidate,
		log:        slog.Default().With("component", "gateway"),
		nowFn:      time.Now,
	}
}

// Revalidate returns the staleness interval attached to results.
func (g *Gateway) Revalidate() time.Duration {
	return g.revalidate
}

// FetchGuildBySlug fetches a single guild. Any API failure, or an empty
// body, yields ErrNotFound. A canceled or expired ctx is returned as is.
func (g *Gateway) FetchGuildBySlug(ctx context.Context, slug string) (Result[domain.Guild], error) {
	var guild *domain.Guild
	if err := g.client.GetJSON(ctx, guildBySlugPrefix+url.PathEscape(slug), &guild); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result[domain.Guild]{}, fmt.Errorf("fetch guild %s: %w", slug, ctxErr)
		}
		g.log.Debug("Guild fetch failed", "slug", slug, "error", err)
		return Result[domain.Guild]{}, fmt.Errorf("%w: %s: %v", ErrNotFound, slug, err)
	}
	if guild == nil {
		g.log.Debug("Guild fetch returned no record", "slug", slug)
		return Result[domain.Guild]{}, fmt.Errorf("%w: %s: empty response", ErrNotFound, slug)
	}
	return newResult(g, *guild, SourceAPI), nil
}

// FetchAllGuildSlugs enumerates every guild slug. It never fails.
func (g *Gateway) FetchAllGuildSlugs(ctx context.Context) Result[[]string] {
	var records []domain.GuildSlug
	if err := g.client.GetJSON(ctx, guildsPath, &records); err != nil {
		g.log.Warn("Guild enumeration unavailable, using fixtures", "error", err)
		metrics.FixtureFallbacks.WithLabelValues("slugs", string(SourceFixture)).Inc()
		return newResult(g, g.fixtures.Slugs(), SourceFixture)
	}

	slugs := make([]string, 0, len(records))
	for _, r := range records {
		if r.URLName != "" {
			slugs = append(slugs, r.URLName)
		}
	}
	return newResult(g, slugs, SourceAPI)
}

// FetchAllGuilds fetches the full guild listing.
func (g *Gateway) FetchAllGuilds(ctx context.Context) (Result[[]domain.Guild], error) {
	var guilds []domain.Guild
	if err := g.client.GetJSON(ctx, guildsPath, &guilds); err != nil {
		return Result[[]domain.Guild]{}, fmt.Errorf("fetch guilds: %w", err)
	}
	return newResult(g, guilds, SourceAPI), nil
}

// FetchAllCommunities fetches the community listing.
func (g *Gateway) FetchAllCommunities(ctx context.Context) (Result[[]domain.Community], error) {
	var communities []domain.Community
	if err := g.client.GetJSON(ctx, communitiesPath, &communities); err != nil {
		return Result[[]domain.Community]{}, fmt.Errorf("fetch communities: %w", err)
	}
	return newResult(g, communities, SourceAPI), nil
}

// Fixtures exposes the bundled fallback data.
func (g *Gateway) Fixtures() Fixtures {
	return g.fixtures
}

func newResult[T any](g *Gateway, v T, src Source) Result[T] {
	return Result[T]{
		Value:      v,
		Revalidate: g.revalidate,
		FetchedAt:  g.nowFn(),
		Source:     src,
	}
}
