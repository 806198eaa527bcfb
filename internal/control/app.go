// Package control wires the guild page service together and manages its
// lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/guildhall/internal/core/config"
	"github.com/vietddude/guildhall/internal/core/worker"
	"github.com/vietddude/guildhall/internal/gateway"
	"github.com/vietddude/guildhall/internal/health"
	redisclient "github.com/vietddude/guildhall/internal/infra/redis"
	"github.com/vietddude/guildhall/internal/infra/storage"
	"github.com/vietddude/guildhall/internal/infra/storage/memory"
	"github.com/vietddude/guildhall/internal/infra/storage/postgres"
	"github.com/vietddude/guildhall/internal/render"
	"github.com/vietddude/guildhall/internal/site"
)

// Config holds the application configuration.
type Config struct {
	Port      int
	API       gateway.ClientConfig
	Render    config.RenderConfig
	Redis     redisclient.Config
	Database  postgres.Config
	Retention time.Duration // snapshot retention, 0 keeps them
}

// FromAppConfig transforms the file configuration.
func FromAppConfig(cfg *config.AppConfig) Config {
	return Config{
		Port: cfg.Server.Port,
		API: gateway.ClientConfig{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   cfg.API.Timeout,
			RateLimit: cfg.API.RateLimit,
			Burst:     cfg.API.Burst,
			UserAgent: cfg.API.UserAgent,
			Retry: gateway.RetryConfig{
				MaxAttempts:     cfg.API.Retries + 1,
				InitialDelay:    cfg.API.Backoff,
				MaxDelay:        5 * time.Second,
				BackoffMultiple: 2,
			},
		},
		Render:    cfg.Render,
		Redis:     cfg.Redis,
		Database:  cfg.Database,
		Retention: cfg.Snapshots.Retention,
	}
}

// App is the main application struct.
type App struct {
	cfg         Config
	client      *gateway.Client
	site        *site.Site
	cache       *render.Cache
	snapshots   storage.SnapshotRepository
	healthMon   *health.Monitor
	server      *site.Server
	pruner      *worker.Pruner
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg Config) (*App, error) {
	log := slog.Default().With("component", "control")
	app := &App{cfg: cfg, log: log}

	// 1. Snapshot storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		app.snapshots = postgres.NewSnapshotRepo(db)
		log.Info("Using PostgreSQL snapshot storage")
	} else {
		app.snapshots = memory.NewSnapshotRepo()
		log.Info("Using Memory snapshot storage")
	}

	// 2. Page store
	var store render.Store
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redisClient = rc
		store = redisclient.NewPageStore(rc, redisclient.DefaultPageTTL)
		log.Info("Using Redis page store", "prefix", cfg.Redis.Prefix)
	} else {
		mem, err := render.NewMemoryStore(cfg.Render.CacheSize)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to init page store: %w", err)
		}
		store = mem
		log.Info("Using Memory page store", "size", cfg.Render.CacheSize)
	}

	// 3. Gateway
	fixtures, err := gateway.LoadFixtures()
	if err != nil {
		app.closeStores()
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		log.Warn("API base URL not set, serving bundled fixtures only")
	}
	app.client = gateway.NewClient(cfg.API)
	gw := gateway.New(app.client, fixtures, cfg.Render.Revalidate)

	// 4. Pages
	app.cache = render.NewCache(store, render.CacheConfig{
		Revalidate: cfg.Render.Revalidate,
		Dedupe:     cfg.Render.Dedupe(),
	})
	app.site = site.New(gw, app.snapshots, app.cache)
	app.pruner = worker.NewPruner(cfg.Retention, app.snapshots)

	// 5. Health & server
	app.healthMon = health.NewMonitor(app.client, app.snapshots, store, 10*time.Second)
	app.server = site.NewServer(app.site, app.healthMon, cfg.Port)

	return app, nil
}

// Handler returns the HTTP handler without starting a listener.
func (a *App) Handler() http.Handler {
	return a.site.Handler(a.healthMon)
}

// Snapshots returns the snapshot repository in use.
func (a *App) Snapshots() storage.SnapshotRepository {
	return a.snapshots
}

// Start starts the server and background tasks.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	a.log.Info("HTTP server listening", "port", a.cfg.Port)

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	go a.pruner.Start(ctx)

	if a.cfg.Render.Prewarm {
		go func() {
			if err := a.site.Prewarm(ctx, a.cfg.Render.PrewarmConcurrency); err != nil {
				a.log.Warn("Prewarm aborted", "error", err)
			}
		}()
	}
	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping guildhall...")

	err := a.server.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.cache.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("Background regenerations still running at shutdown")
	}

	_ = a.client.Close()
	a.closeStores()
	return err
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Failed to close database", "error", err)
		}
	}
}
