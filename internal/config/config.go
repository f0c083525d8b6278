// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

// Package config holds the application configuration and its koanf-based
// loader. Configuration is layered: struct defaults, then an optional YAML
// file, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Playerpulse server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Steam     SteamConfig     `koanf:"steam"`
	Collector CollectorConfig `koanf:"collector"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the number of DuckDB threads (0 = use NumCPU).
	Threads int `koanf:"threads"`
	// CheckpointInterval is how often the maintenance service forces a
	// WAL checkpoint. Zero disables periodic checkpoints.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
}

// SteamConfig holds upstream Steam Web API settings.
type SteamConfig struct {
	// ChartsURL is the base URL for the ISteamChartsService API.
	ChartsURL string `koanf:"charts_url"`
	// StatsURL is the base URL for the ISteamUserStats API.
	StatsURL string `koanf:"stats_url"`
	// StoreURL is the base URL for the storefront appdetails API.
	StoreURL string `koanf:"store_url"`
	// RequestTimeout applies to each individual upstream request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// StoreRatePerSecond paces storefront requests, which are throttled
	// far more aggressively than the Web API endpoints.
	StoreRatePerSecond float64 `koanf:"store_rate_per_second"`
	StoreRateBurst     int     `koanf:"store_rate_burst"`
}

// CollectorConfig holds collection cycle settings.
type CollectorConfig struct {
	// Enabled controls whether the periodic poller runs. The HTTP
	// trigger endpoints work regardless.
	Enabled bool `koanf:"enabled"`
	// Interval between scheduled collection cycles.
	Interval time.Duration `koanf:"interval"`
	// TopLimit is the number of ranked games sampled per cycle, capped at 100.
	TopLimit int `koanf:"top_limit"`
	// Workers bounds the per-game fetch concurrency within a cycle.
	Workers int `koanf:"workers"`
	// CycleTimeout is the overall deadline for one collection cycle.
	CycleTimeout time.Duration `koanf:"cycle_timeout"`
}

// APIConfig holds query limit settings for the read endpoints.
type APIConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
	// SparklinePoints caps the number of points in attached 48h histories.
	SparklinePoints int `koanf:"sparkline_points"`
	// SparklineWindow is the lookback for attached histories.
	SparklineWindow time.Duration `koanf:"sparkline_window"`
}

// SecurityConfig holds trigger auth and HTTP protection settings.
type SecurityConfig struct {
	// CronSecret authorizes the scheduled collection trigger. Required
	// in any deployment where the collect endpoint is reachable.
	CronSecret        string        `koanf:"cron_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the output format: json or console.
	Format string `koanf:"format"`
	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Collector.TopLimit < 1 || c.Collector.TopLimit > 100 {
		return fmt.Errorf("collector.top_limit must be 1-100, got %d", c.Collector.TopLimit)
	}
	if c.Collector.Workers < 1 {
		return fmt.Errorf("collector.workers must be >= 1, got %d", c.Collector.Workers)
	}
	if c.Collector.Enabled && c.Collector.Interval < time.Minute {
		return fmt.Errorf("collector.interval must be >= 1m, got %s", c.Collector.Interval)
	}
	if c.API.DefaultLimit < 1 || c.API.DefaultLimit > c.API.MaxLimit {
		return fmt.Errorf("api.default_limit must be 1-%d, got %d", c.API.MaxLimit, c.API.DefaultLimit)
	}
	if c.Steam.RequestTimeout <= 0 {
		return fmt.Errorf("steam.request_timeout must be positive, got %s", c.Steam.RequestTimeout)
	}
	return nil
}
