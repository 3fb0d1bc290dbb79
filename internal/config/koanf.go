// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelmates/config.yaml",
	"/etc/reelmates/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Letterboxd: LetterboxdConfig{
			UserA:          "",
			UserB:          "",
			BaseURL:        "https://letterboxd.com",
			MaxPages:       50,
			PageDelay:      1500 * time.Millisecond,
			RequestTimeout: 10 * time.Second,
			RetryAttempts:  3,
			RetryBaseDelay: time.Second,
		},
		TMDB: TMDBConfig{
			APIToken:          "",
			BaseURL:           "https://api.themoviedb.org/3",
			RequestTimeout:    10 * time.Second,
			MaxRetries:        5,
			RetryBaseDelay:    time.Second,
			RequestsPerSecond: 4, // Well under TMDB's ~50 req/s ceiling
			CacheSize:         4096,
			CacheTTL:          24 * time.Hour,
		},
		Recommend: RecommendConfig{
			MaxGeneral:        25,
			MaxGenre:          40,
			MaxTV:             30,
			LovedThreshold:    4.0,
			MinRating:         6.0,
			PriorityThreshold: 5.5,
			MinVoteCount:      500,
			MinYear:           1970,
			MaxYear:           2026,
			PriorityGenres:    []string{"Mystery", "Drama", "Thriller"},
			TVMinRating:       7.0,
			TVMinYear:         2000,
			TVMaxYear:         2026,
		},
		Store: StoreConfig{
			DataDir: "/data",
		},
		Pipeline: PipelineConfig{
			Enabled:      true,
			RunOnStartup: false,
			Interval:     24 * time.Hour,
			RunTimeout:   30 * time.Minute,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults. The result is validated before
// being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// LETTERBOXD_USER_A -> letterboxd.user_a, TMDB_API_TOKEN -> tmdb.api_token
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Env vars arrive as strings; convert known slice fields.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when they come from environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.priority_genres",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults): leave alone.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envSectionPrefixes maps environment variable prefixes to config sections.
// The remainder of the variable name becomes the key within the section:
// LETTERBOXD_PAGE_DELAY -> letterboxd.page_delay.
var envSectionPrefixes = []struct {
	prefix  string
	section string
}{
	{"letterboxd_", "letterboxd."},
	{"tmdb_", "tmdb."},
	{"recommend_", "recommend."},
	{"store_", "store."},
	{"pipeline_", "pipeline."},
	{"server_", "server."},
	{"logging_", "logging."},
}

// envAliases maps legacy or conventional variable names to config paths.
var envAliases = map[string]string{
	"data_dir":   "store.data_dir",
	"http_host":  "server.host",
	"http_port":  "server.port",
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Variables that match no known section are dropped so unrelated
// environment noise never leaks into the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if path, ok := envAliases[key]; ok {
		return path
	}

	for _, m := range envSectionPrefixes {
		if rest, ok := strings.CutPrefix(key, m.prefix); ok && rest != "" {
			return m.section + rest
		}
	}

	return ""
}
