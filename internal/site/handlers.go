package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/guildhall/internal/core/domain"
	"github.com/vietddude/guildhall/internal/listing"
	"github.com/vietddude/guildhall/internal/render"
)

// Routes mounts the page endpoints on mux.
func (s *Site) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /guild/{slug}", s.handleGuild)
	mux.HandleFunc("GET /{$}", s.handleGuilds)
	mux.HandleFunc("GET /guilds", s.handleGuilds)
	mux.HandleFunc("GET /communities", s.handleCommunities)
	mux.HandleFunc("GET /paths", s.handlePaths)
}

func (s *Site) handleGuild(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if strings.TrimSpace(slug) == "" {
		writeError(w, http.StatusNotFound, "guild not found")
		return
	}

	entry, status, ok := s.serve(w, r, GuildKey(slug), s.GuildGenerator(slug))
	if !ok {
		return
	}
	writeEntry(w, entry, status, entry.Body)
}

func (s *Site) handleGuilds(w http.ResponseWriter, r *http.Request) {
	entry, status, ok := s.serve(w, r, keyIndex, s.IndexGenerator())
	if !ok {
		return
	}

	var page IndexPage
	if err := json.Unmarshal(entry.Body, &page); err != nil {
		s.log.Error("Corrupt index page", "error", err)
		writeError(w, http.StatusInternalServerError, "corrupt page")
		return
	}

	c := listing.NewGuildController(page.Guilds)
	applyQuery(r, c)

	items := make([]GuildSummary, 0, c.Len())
	for _, g := range c.View() {
		items = append(items, summarize(g))
	}
	writeEntry(w, entry, status, listResponse(c, items, page.Source, entry.Revalidate))
}

func (s *Site) handleCommunities(w http.ResponseWriter, r *http.Request) {
	entry, status, ok := s.serve(w, r, keyCommunities, s.CommunitiesGenerator())
	if !ok {
		return
	}

	var page CommunitiesPage
	if err := json.Unmarshal(entry.Body, &page); err != nil {
		s.log.Error("Corrupt communities page", "error", err)
		writeError(w, http.StatusInternalServerError, "corrupt page")
		return
	}

	c := listing.NewCommunityController(visible(page.Communities))
	applyQuery(r, c)
	writeEntry(w, entry, status, listResponse(c, c.View(), page.Source, entry.Revalidate))
}

func (s *Site) handlePaths(w http.ResponseWriter, r *http.Request) {
	entry, status, ok := s.serve(w, r, keyPaths, s.PathsGenerator())
	if !ok {
		return
	}
	writeEntry(w, entry, status, entry.Body)
}

// serve looks up key in the page cache and writes the error response when
// there is no page.
func (s *Site) serve(w http.ResponseWriter, r *http.Request, key string, gen render.Generator) (*render.Entry, render.Status, bool) {
	entry, status, err := s.cache.Get(r.Context(), key, gen)
	switch {
	case errors.Is(err, render.ErrNotFound):
		writeError(w, http.StatusNotFound, "page not found")
		return nil, status, false
	case errors.Is(err, context.Canceled):
		return nil, status, false
	case err != nil:
		s.log.Error("Page generation failed", "key", key, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "page unavailable")
		return nil, status, false
	}
	return entry, status, true
}

type controller interface {
	SetSearch(search string)
	SetOrder(order listing.Order) bool
}

func applyQuery(r *http.Request, c controller) {
	q := r.URL.Query()
	c.SetSearch(q.Get("search"))
	if order := q.Get("order"); order != "" {
		c.SetOrder(listing.Order(order))
	}
}

func listResponse[T listing.Item, I any](c *listing.Controller[T], items []I, source string, revalidate time.Duration) ListResponse[I] {
	return ListResponse[I]{
		Items:      items,
		Total:      len(items),
		Search:     c.Search(),
		Order:      string(c.Order()),
		Source:     source,
		Revalidate: int(revalidate.Seconds()),
	}
}

func visible(in []domain.Community) []domain.Community {
	out := make([]domain.Community, 0, len(in))
	for _, c := range in {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

func writeEntry(w http.ResponseWriter, entry *render.Entry, status render.Status, body any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Cache", string(status))
	h.Set("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate", int(entry.Revalidate.Seconds())))
	h.Set("Last-Modified", entry.GeneratedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	if raw, ok := body.(json.RawMessage); ok {
		_, _ = w.Write(raw)
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
