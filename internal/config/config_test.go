// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero top limit", func(c *Config) { c.Collector.TopLimit = 0 }},
		{"top limit above cap", func(c *Config) { c.Collector.TopLimit = 101 }},
		{"zero workers", func(c *Config) { c.Collector.Workers = 0 }},
		{"sub-minute interval", func(c *Config) { c.Collector.Interval = time.Second }},
		{"default limit above max", func(c *Config) { c.API.DefaultLimit = 500 }},
		{"zero request timeout", func(c *Config) { c.Steam.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 3857 {
		t.Errorf("expected default port 3857, got %d", cfg.Server.Port)
	}
	if cfg.Collector.TopLimit != 100 {
		t.Errorf("expected default top limit 100, got %d", cfg.Collector.TopLimit)
	}
	if cfg.API.SparklinePoints != 48 {
		t.Errorf("expected default sparkline points 48, got %d", cfg.API.SparklinePoints)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COLLECTOR_TOP_LIMIT", "25")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Collector.TopLimit != 25 {
		t.Errorf("expected env override top limit 25, got %d", cfg.Collector.TopLimit)
	}
	if cfg.Security.CronSecret != "s3cret" {
		t.Errorf("expected env override cron secret, got %q", cfg.Security.CronSecret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env override log level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("expected trimmed origin, got %q", cfg.Security.CORSOrigins[1])
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 4000\ncollector:\n  workers: 4\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("expected file override port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Collector.Workers != 4 {
		t.Errorf("expected file override workers 4, got %d", cfg.Collector.Workers)
	}
	// Untouched sections keep defaults
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("expected default max memory, got %q", cfg.Database.MaxMemory)
	}
}

func TestEnvTransformDropsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unknown env var to be dropped, got %q", got)
	}
	if got := envTransformFunc("CRON_SECRET"); got != "security.cron_secret" {
		t.Errorf("unexpected mapping %q", got)
	}
}
