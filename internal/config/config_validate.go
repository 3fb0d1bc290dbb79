// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for internal consistency. It is called
// by Load after all layers are merged; components may assume a validated
// config.
func (c *Config) Validate() error {
	if err := c.validateLetterboxd(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateStore()
}

func (c *Config) validateLetterboxd() error {
	lb := &c.Letterboxd

	if c.Pipeline.Enabled {
		if lb.UserA == "" || lb.UserB == "" {
			return fmt.Errorf("letterboxd: user_a and user_b are required when the pipeline is enabled")
		}
		if lb.UserA == lb.UserB {
			return fmt.Errorf("letterboxd: user_a and user_b must be different usernames")
		}
	}
	for _, u := range []string{lb.UserA, lb.UserB} {
		if strings.ContainsAny(u, "/ ?#") {
			return fmt.Errorf("letterboxd: username %q contains URL-unsafe characters", u)
		}
	}
	if err := validateURL("letterboxd.base_url", lb.BaseURL); err != nil {
		return err
	}
	if lb.MaxPages < 1 {
		return fmt.Errorf("letterboxd: max_pages must be >= 1, got %d", lb.MaxPages)
	}
	if lb.PageDelay < 0 {
		return fmt.Errorf("letterboxd: page_delay must not be negative")
	}
	if lb.RequestTimeout <= 0 {
		return fmt.Errorf("letterboxd: request_timeout must be positive")
	}
	if lb.RetryAttempts < 0 {
		return fmt.Errorf("letterboxd: retry_attempts must not be negative")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	t := &c.TMDB

	if c.Pipeline.Enabled && t.APIToken == "" {
		return fmt.Errorf("tmdb: api_token is required when the pipeline is enabled (set TMDB_API_TOKEN)")
	}
	if err := validateURL("tmdb.base_url", t.BaseURL); err != nil {
		return err
	}
	if t.RequestTimeout <= 0 {
		return fmt.Errorf("tmdb: request_timeout must be positive")
	}
	if t.MaxRetries < 0 {
		return fmt.Errorf("tmdb: max_retries must not be negative")
	}
	if t.RequestsPerSecond <= 0 {
		return fmt.Errorf("tmdb: requests_per_second must be positive, got %g", t.RequestsPerSecond)
	}
	if t.CacheSize < 0 {
		return fmt.Errorf("tmdb: cache_size must not be negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend

	if r.MaxGeneral < 1 || r.MaxGenre < 1 || r.MaxTV < 1 {
		return fmt.Errorf("recommend: list limits must be >= 1")
	}
	if r.LovedThreshold < 0.5 || r.LovedThreshold > 5 {
		return fmt.Errorf("recommend: loved_threshold must be in [0.5, 5], got %g", r.LovedThreshold)
	}
	if r.MinRating < 0 || r.MinRating > 10 {
		return fmt.Errorf("recommend: min_rating must be in [0, 10], got %g", r.MinRating)
	}
	if r.PriorityThreshold < 0 || r.PriorityThreshold > 10 {
		return fmt.Errorf("recommend: priority_threshold must be in [0, 10], got %g", r.PriorityThreshold)
	}
	if r.MinVoteCount < 0 {
		return fmt.Errorf("recommend: min_vote_count must not be negative")
	}
	if r.MinYear > r.MaxYear {
		return fmt.Errorf("recommend: min_year %d exceeds max_year %d", r.MinYear, r.MaxYear)
	}
	if r.TVMinYear > r.TVMaxYear {
		return fmt.Errorf("recommend: tv_min_year %d exceeds tv_max_year %d", r.TVMinYear, r.TVMaxYear)
	}
	return nil
}

func (c *Config) validateServer() error {
	s := &c.Server

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server: port must be in [1, 65535], got %d", s.Port)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("server: timeout must be positive")
	}
	if s.RateLimitReqs < 1 {
		return fmt.Errorf("server: rate_limit_reqs must be >= 1, got %d", s.RateLimitReqs)
	}
	if s.RateLimitWindow <= 0 {
		return fmt.Errorf("server: rate_limit_window must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.DataDir == "" {
		return fmt.Errorf("store: data_dir must not be empty")
	}
	return nil
}

// validateURL checks that a value is an absolute http(s) URL.
func validateURL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, value, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: URL must use http or https, got %q", field, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL %q has no host", field, value)
	}
	return nil
}
