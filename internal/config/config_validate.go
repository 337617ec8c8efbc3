// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateSelection(); err != nil {
		return err
	}

	if err := c.validateHistory(); err != nil {
		return err
	}

	if err := c.validateCovers(); err != nil {
		return err
	}

	if err := c.validateAssistant(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}

	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", c.Server.RateLimitWindow)
		}
	}

	for _, origin := range c.Server.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("CORS_ORIGINS contains an empty origin")
		}
	}

	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}

	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got %d", c.Database.Threads)
	}

	return nil
}

// validateAPI validates pagination limits
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.API.DefaultPageSize)
	}

	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	if c.API.MaxPageSize > 1000 {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at most 1000, got %d", c.API.MaxPageSize)
	}

	return nil
}

// validateSelection validates selection request bounds
func (c *Config) validateSelection() error {
	if c.Selection.MaxLimit < 1 {
		return fmt.Errorf("SELECTION_MAX_LIMIT must be at least 1, got %d", c.Selection.MaxLimit)
	}

	if c.Selection.SnapshotTTL < 0 {
		return fmt.Errorf("SELECTION_SNAPSHOT_TTL must not be negative, got %s", c.Selection.SnapshotTTL)
	}

	return nil
}

// validateHistory validates selection history configuration (only if enabled)
func (c *Config) validateHistory() error {
	if !c.History.Enabled {
		return nil
	}

	if c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required when HISTORY_ENABLED=true")
	}

	if c.History.Retention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION must be positive, got %s", c.History.Retention)
	}

	if c.History.GCInterval < time.Minute {
		return fmt.Errorf("HISTORY_GC_INTERVAL must be at least 1m, got %s", c.History.GCInterval)
	}

	return nil
}

// validateCovers validates cover art configuration
func (c *Config) validateCovers() error {
	if c.Covers.Dir == "" {
		return fmt.Errorf("COVERS_DIR is required")
	}

	if c.Covers.FetchTimeout <= 0 {
		return fmt.Errorf("COVERS_FETCH_TIMEOUT must be positive, got %s", c.Covers.FetchTimeout)
	}

	if c.Covers.MaxBytes < 1024 {
		return fmt.Errorf("COVERS_MAX_BYTES must be at least 1024, got %d", c.Covers.MaxBytes)
	}

	if c.Covers.RequestsPerSecond <= 0 {
		return fmt.Errorf("COVERS_RATE must be positive, got %f", c.Covers.RequestsPerSecond)
	}

	if c.Covers.Burst < 1 {
		return fmt.Errorf("COVERS_BURST must be at least 1, got %d", c.Covers.Burst)
	}

	return nil
}

// validateAssistant validates the assistant bridge configuration (only if enabled)
func (c *Config) validateAssistant() error {
	if !c.Assistant.Enabled {
		return nil
	}

	if c.Assistant.URL == "" {
		return fmt.Errorf("ASSISTANT_URL is required when ASSISTANT_ENABLED=true")
	}
	if err := validateHTTPURL(c.Assistant.URL, "ASSISTANT_URL"); err != nil {
		return fmt.Errorf("ASSISTANT_URL is invalid: %w", err)
	}

	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("ASSISTANT_TIMEOUT must be positive, got %s", c.Assistant.Timeout)
	}

	if c.Assistant.BreakerThreshold < 1 {
		return fmt.Errorf("ASSISTANT_BREAKER_THRESHOLD must be at least 1, got %d", c.Assistant.BreakerThreshold)
	}

	if c.Assistant.BreakerCooldown <= 0 {
		return fmt.Errorf("ASSISTANT_BREAKER_COOLDOWN must be positive, got %s", c.Assistant.BreakerCooldown)
	}

	return nil
}

// validateEvents validates event bus sizing
func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 1 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be at least 1, got %d", c.Events.BufferSize)
	}

	if c.Events.CloseTimeout <= 0 {
		return fmt.Errorf("EVENTS_CLOSE_TIMEOUT must be positive, got %s", c.Events.CloseTimeout)
	}

	return nil
}

// validateLogging validates log level and format
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic; got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
