package site

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/infra/storage"
	"github.com/vietddude/guildhall/internal/requirement"
)

// RequirementCard is one rendered requirement with the logic separator that
// follows it, if any.
type RequirementCard struct {
	Directive requirement.Directive `json:"directive"`
	Separator domain.Logic          `json:"separator,omitempty"`
}

// GuildPage is the body of a guild detail page.
type GuildPage struct {
	ID           int                      `json:"id"`
	URLName      string                   `json:"urlName"`
	Name         string                   `json:"name"`
	ImageURL     string                   `json:"imageUrl,omitempty"`
	ShowJoin     bool                     `json:"showJoin"`
	Logic        domain.Logic             `json:"logic,omitempty"`
	Requirements []RequirementCard        `json:"requirements"`
	Unsupported  []domain.RequirementType `json:"unsupported,omitempty"`
	Members      []string                 `json:"members"`
	MemberCount  int                      `json:"memberCount"`
}

// IndexPage is the cached base list behind the guild index.
type IndexPage struct {
	Guilds []domain.Guild `json:"guilds"`
	Source string         `json:"source"`
}

// CommunitiesPage is the cached base list behind the community index.
type CommunitiesPage struct {
	Communities []domain.Community `json:"communities"`
	Source      string             `json:"source"`
}

// PathsPage lists every guild slug that has a page.
type PathsPage struct {
	Paths  []string `json:"paths"`
	Source string   `json:"source"`
}

// GuildSummary is a guild card on the index page.
type GuildSummary struct {
	ID               int    `json:"id"`
	URLName          string `json:"urlName"`
	Name             string `json:"name"`
	ImageURL         string `json:"imageUrl,omitempty"`
	MemberCount      int    `json:"memberCount"`
	RequirementCount int    `json:"requirementCount"`
}

// ListResponse is what the index endpoints return.
type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	Total      int    `json:"total"`
	Search     string `json:"search,omitempty"`
	Order      string `json:"order"`
	Source     string `json:"source"`
	Revalidate int    `json:"revalidate"`
}

// BuildGuildPage classifies every requirement of g and lays out the cards.
// Unsupported requirements are left out of the cards and reported by type.
func BuildGuildPage(g domain.Guild) GuildPage {
	page := GuildPage{
		ID:           g.ID,
		URLName:      g.URLName,
		Name:         g.Name,
		ImageURL:     g.ImageURL,
		ShowJoin:     g.HasPlatform(),
		Logic:        g.Logic,
		Requirements: make([]RequirementCard, 0, len(g.Requirements)),
		Members:      nonEmpty(g.Members),
		MemberCount:  g.MemberCount(),
	}

	for _, v := range requirement.FromDomainAll(g.Requirements) {
		if u, ok := v.(requirement.Unsupported); ok {
			page.Unsupported = append(page.Unsupported, u.Type())
			continue
		}
		page.Requirements = append(page.Requirements, RequirementCard{Directive: requirement.Classify(v)})
	}

	for i := 0; i < len(page.Requirements)-1; i++ {
		page.Requirements[i].Separator = g.Logic
	}
	return page
}

func summarize(g domain.Guild) GuildSummary {
	return GuildSummary{
		ID:               g.ID,
		URLName:          g.URLName,
		Name:             g.Name,
		ImageURL:         g.ImageURL,
		MemberCount:      g.MemberCount(),
		RequirementCount: len(g.Requirements),
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StoredGuildPage builds a guild page from the last saved snapshot of slug.
func StoredGuildPage(ctx context.Context, snapshots storage.SnapshotRepository, slug string) (GuildPage, time.Time, error) {
	g, fetchedAt, err := snapshots.GetGuild(ctx, slug)
	if err != nil {
		return GuildPage{}, time.Time{}, fmt.Errorf("stored guild %s: %w", slug, err)
	}
	return BuildGuildPage(*g), fetchedAt, nil
}
