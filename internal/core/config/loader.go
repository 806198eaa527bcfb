package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultRevalidate is the staleness interval attached to every page.
const DefaultRevalidate = 10 * time.Second

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = os.Getenv("API_BASE")
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.RateLimit > 0 && cfg.API.Burst == 0 {
		cfg.API.Burst = 1
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = "guildhall"
	}
	if cfg.API.Backoff == 0 {
		cfg.API.Backoff = 250 * time.Millisecond
	}

	if cfg.Render.Revalidate == 0 {
		cfg.Render.Revalidate = DefaultRevalidate
	}
	if cfg.Render.CacheSize == 0 {
		cfg.Render.CacheSize = 1024
	}
	if cfg.Render.PrewarmConcurrency == 0 {
		cfg.Render.PrewarmConcurrency = 4
	}

	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "guildhall"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
