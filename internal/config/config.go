// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package config provides layered configuration loading for Reelmates.
//
// Configuration is loaded via Koanf v2 from three sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (LETTERBOXD_USER_A, TMDB_API_TOKEN, ...)
//
// The resulting Config struct is immutable after Load and passed
// explicitly to the components that need it.
package config

import "time"

// Config is the root configuration for the application.
type Config struct {
	Letterboxd LetterboxdConfig `koanf:"letterboxd"`
	TMDB       TMDBConfig       `koanf:"tmdb"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Store      StoreConfig      `koanf:"store"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// LetterboxdConfig configures the profile scraper.
type LetterboxdConfig struct {
	// UserA and UserB are the two Letterboxd usernames whose film logs
	// are scraped and compared.
	UserA string `koanf:"user_a"`
	UserB string `koanf:"user_b"`

	// BaseURL is the site root. Overridable for tests.
	BaseURL string `koanf:"base_url"`

	// MaxPages bounds pagination per user.
	MaxPages int `koanf:"max_pages"`

	// PageDelay is the fixed delay enforced between page requests to stay
	// under the site's informal rate limits.
	PageDelay time.Duration `koanf:"page_delay"`

	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RetryAttempts is the number of retries for transient transport errors.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryBaseDelay is the base delay for exponential backoff between retries.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// TMDBConfig configures the metadata resolver client.
type TMDBConfig struct {
	// APIToken is the TMDB v4 bearer token. Required when the pipeline
	// is enabled; never read from source, only from config/env.
	APIToken string `koanf:"api_token"`

	// BaseURL is the API root. Overridable for tests.
	BaseURL string `koanf:"base_url"`

	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxRetries bounds retries for 429/5xx responses.
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// RequestsPerSecond is the client-side rate limit.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// CacheSize and CacheTTL configure the title resolution cache.
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// RecommendConfig configures the recommendation scorer.
type RecommendConfig struct {
	// MaxGeneral, MaxGenre, and MaxTV truncate the three output lists.
	MaxGeneral int `koanf:"max_general"`
	MaxGenre   int `koanf:"max_genre"`
	MaxTV      int `koanf:"max_tv"`

	// LovedThreshold is the star rating (out of 5) at or above which a
	// film counts toward the shared taste profile.
	LovedThreshold float64 `koanf:"loved_threshold"`

	// MinRating is the minimum TMDB vote average for movie candidates.
	// PriorityThreshold is the relaxed minimum for priority genres.
	MinRating         float64 `koanf:"min_rating"`
	PriorityThreshold float64 `koanf:"priority_threshold"`

	// MinVoteCount filters out obscure candidates.
	MinVoteCount int `koanf:"min_vote_count"`

	// MinYear and MaxYear bound movie release years.
	MinYear int `koanf:"min_year"`
	MaxYear int `koanf:"max_year"`

	// PriorityGenres receive a score boost and relaxed rating threshold.
	PriorityGenres []string `koanf:"priority_genres"`

	// TVMinRating, TVMinYear, TVMaxYear bound TV candidates.
	TVMinRating float64 `koanf:"tv_min_rating"`
	TVMinYear   int     `koanf:"tv_min_year"`
	TVMaxYear   int     `koanf:"tv_max_year"`
}

// StoreConfig configures CSV output.
type StoreConfig struct {
	// DataDir is the directory where all CSV files are written.
	DataDir string `koanf:"data_dir"`
}

// PipelineConfig configures the scrape-and-recommend pipeline runner.
type PipelineConfig struct {
	Enabled      bool          `koanf:"enabled"`
	RunOnStartup bool          `koanf:"run_on_startup"`
	Interval     time.Duration `koanf:"interval"`
	RunTimeout   time.Duration `koanf:"run_timeout"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
