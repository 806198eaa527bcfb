package config

import (
	"time"

	redisclient "github.com/vietddude/guildhall/internal/infra/redis"
	"github.com/vietddude/guildhall/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	API       APIConfig          `yaml:"api"`
	Render    RenderConfig       `yaml:"render"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
	Database  postgres.Config    `yaml:"database"`
	Snapshots SnapshotConfig     `yaml:"snapshots"`
}

// SnapshotConfig controls snapshot retention.
type SnapshotConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 keeps snapshots forever
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// APIConfig holds settings for the upstream guild API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
	UserAgent string        `yaml:"user_agent"`
	Retries   int           `yaml:"retries"` // extra attempts after a retryable failure
	Backoff   time.Duration `yaml:"backoff"` // delay before the first retry, doubled each time
}

// RenderConfig controls page generation and caching.
type RenderConfig struct {
	Revalidate         time.Duration `yaml:"revalidate"`
	CacheSize          int           `yaml:"cache_size"`
	DedupeRevalidation *bool         `yaml:"dedupe_revalidation"`
	Prewarm            bool          `yaml:"prewarm"`
	PrewarmConcurrency int           `yaml:"prewarm_concurrency"`
}

// Dedupe reports whether concurrent background regenerations of one page
// are coalesced. Defaults to true.
func (r RenderConfig) Dedupe() bool {
	return r.DedupeRevalidation == nil || *r.DedupeRevalidation
}
