// Package render caches generated pages with stale-while-revalidate
// semantics.
//
// A page that is younger than its revalidate interval is served as is. An
// older page is still served while a background regeneration replaces it.
// A page that was never generated blocks the request until it is.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by a Generator when the page does not exist.
var ErrNotFound = errors.New("page not found")

// Status describes how a page was obtained from the cache.
type Status string

const (
	StatusHit   Status = "HIT"
	StatusStale Status = "STALE"
	StatusMiss  Status = "MISS"
)

// Entry is a generated page body plus its staleness policy.
type Entry struct {
	Key         string          `json:"key"`
	Body        json.RawMessage `json:"body"`
	GeneratedAt time.Time       `json:"generated_at"`
	Revalidate  time.Duration   `json:"revalidate"`
}

// Stale reports whether the entry is due for regeneration at now.
func (e *Entry) Stale(now time.Time) bool {
	return now.Sub(e.GeneratedAt) >= e.Revalidate
}

// Page is what a Generator produces.
type Page struct {
	Body       any
	Revalidate time.Duration
}

// Generator builds a page from scratch.
type Generator func(ctx context.Context) (Page, error)

// Store persists entries. Get returns nil, nil for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
