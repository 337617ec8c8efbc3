// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// the catalog database, selection behavior, history retention, cover art handling, the
// voice-assistant bridge, server, API, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Storage:
//     - Database: DuckDB configuration (path, memory, seeding)
//     - History: Badger-backed selection history (path, retention)
//     - Covers: Local cover art directory and fetch limits
//
//  2. Behavior:
//     - Selection: Limits applied to selection requests
//     - Assistant: Optional voice-assistant media provider bridge
//     - Events: In-process event bus sizing
//
//  3. Serving:
//     - Server: HTTP server configuration (port, host, timeouts, CORS, rate limits)
//     - API: Pagination and response limits
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Example - Load configuration:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Database.Path, cfg.Server.Port, etc. are now populated
//
// Thread Safety:
// Config is immutable after LoadWithKoanf() and safe for concurrent read access
// from multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Selection SelectionConfig `koanf:"selection"`
	History   HistoryConfig   `koanf:"history"`
	Covers    CoversConfig    `koanf:"covers"`
	Assistant AssistantConfig `koanf:"assistant"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 8484)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 10s)
//   - ENVIRONMENT: development or production (default: development)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	Environment       string        `koanf:"environment"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr renders the listen address as host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// DatabaseConfig holds DuckDB settings for the catalog store.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/audiotheca.duckdb)
//   - DUCKDB_MAX_MEMORY: Memory limit passed to DuckDB (default: 512MB)
//   - DUCKDB_THREADS: Worker threads, 0 = NumCPU (default: 0)
//   - SEED_DEFAULTS: Seed the default tag vocabulary on first run (default: true)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedDefaults           bool   `koanf:"seed_defaults"`
}

// APIConfig holds API response limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SelectionConfig bounds selection requests.
//
// MaxLimit caps the per-request limit parameter; SnapshotTTL is how long the
// catalog service may serve a cached active-item snapshot before reloading
// (0 disables caching). Catalog writes invalidate the snapshot early.
type SelectionConfig struct {
	MaxLimit    int           `koanf:"max_limit"`
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
}

// HistoryConfig holds the Badger-backed selection history settings.
//
// Environment Variables:
//   - HISTORY_ENABLED: Record selections (default: true)
//   - HISTORY_PATH: Badger directory (default: /data/history)
//   - HISTORY_RETENTION: Entry TTL (default: 2160h, 90 days)
//   - HISTORY_GC_INTERVAL: Value-log GC cadence (default: 10m)
type HistoryConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Path       string        `koanf:"path"`
	Retention  time.Duration `koanf:"retention"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CoversConfig holds cover art storage and fetch limits.
//
// Environment Variables:
//   - COVERS_DIR: Local cover directory (default: /data/covers)
//   - COVERS_FETCH_TIMEOUT: Per-download budget (default: 10s)
//   - COVERS_MAX_BYTES: Reject larger downloads (default: 5MiB)
//   - COVERS_RATE / COVERS_BURST: Download rate limit (default: 2/s, burst 4)
type CoversConfig struct {
	Dir               string        `koanf:"dir"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout"`
	MaxBytes          int64         `koanf:"max_bytes"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// AssistantConfig holds the optional voice-assistant bridge settings. When
// enabled, the catalog can search the assistant's media library and import
// items from it. Requests run behind a circuit breaker so a flaky assistant
// box cannot stall catalog operations.
//
// Environment Variables:
//   - ASSISTANT_ENABLED: Enable the bridge (default: false)
//   - ASSISTANT_URL: Base URL of the assistant HTTP API
//   - ASSISTANT_TOKEN: Bearer token
//   - ASSISTANT_TIMEOUT: Per-request budget (default: 5s)
//   - ASSISTANT_BREAKER_THRESHOLD: Consecutive failures before the breaker opens (default: 5)
//   - ASSISTANT_BREAKER_COOLDOWN: Open-state duration before a probe (default: 30s)
type AssistantConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	Token            string        `koanf:"token"`
	Timeout          time.Duration `koanf:"timeout"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerCooldown  time.Duration `koanf:"breaker_cooldown"`
}

// EventsConfig sizes the in-process event bus.
type EventsConfig struct {
	BufferSize   int           `koanf:"buffer_size"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error, fatal, panic (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
