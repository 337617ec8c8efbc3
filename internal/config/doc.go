// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package config provides centralized configuration management using Koanf v2.
//
// Configuration is loaded from three layered sources with clear precedence:
//
//	Environment Variables  (highest priority)
//	        |
//	YAML Config File       (config.yaml, optional)
//	        |
//	Built-in Defaults      (lowest priority)
//
// # Quick Start
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//
//	db, err := database.New(cfg.Database)
//	addr := cfg.Server.Addr()
//
// # Config File
//
// The config file is searched at config.yaml, config.yml,
// /etc/audiotheca/config.yaml, and /etc/audiotheca/config.yml, in that
// order. CONFIG_PATH overrides the search entirely.
//
//	server:
//	  port: 8484
//	  environment: production
//	database:
//	  path: /data/audiotheca.duckdb
//	history:
//	  retention: 2160h
//	assistant:
//	  enabled: true
//	  url: http://assistant.local:8091
//
// # Environment Variables
//
// Flat environment variables map onto the nested structure:
//
//	HTTP_PORT=8484              -> server.port
//	DUCKDB_PATH=/tmp/cat.db     -> database.path
//	HISTORY_RETENTION=720h      -> history.retention
//	ASSISTANT_URL=http://...    -> assistant.url
//	CORS_ORIGINS=a.lan,b.lan    -> server.cors_origins (comma-separated)
//	LOG_LEVEL=debug             -> logging.level
//
// Unrecognized environment variables are ignored so unrelated process
// environment cannot pollute the configuration.
//
// # Validation
//
// LoadWithKoanf validates the merged result before returning: port ranges,
// positive timeouts, required paths, and conditional requirements (for
// example ASSISTANT_URL is only required when ASSISTANT_ENABLED=true).
// Error messages name the environment variable to fix.
//
// # Thread Safety
//
// The returned Config is immutable and safe for concurrent reads. Hot
// reloading via WatchConfigFile requires caller-side synchronization.
package config
