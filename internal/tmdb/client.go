// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package tmdb provides a client for The Movie Database REST API v3
// and a resolver that turns scraped film titles into full metadata.
//
// Client Features:
//   - Bearer token authentication
//   - Request rate limiting (TMDB allows ~50 req/s, we stay well under)
//   - Automatic HTTP 429 handling honoring Retry-After
//   - Exponential backoff retries for transient failures
//   - JSON parsing with typed response structs
//   - Context support for cancellation and timeouts
//
// Thread Safety: the client is safe for concurrent use.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/reelmates/reelmates/internal/metrics"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"

	defaultRequestTimeout = 15 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRequestsPerSec = 10

	// maxErrorBodySize caps how much of an error response is read for
	// diagnostics.
	maxErrorBodySize = 64 * 1024
)

// ErrNotFound is returned when TMDB has no record for the requested
// resource.
var ErrNotFound = errors.New("tmdb: not found")

// StatusError reports a non-2xx TMDB response with the API's own
// status message when one was present.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb: HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("tmdb: HTTP %d", e.Code)
}

// Config controls the TMDB client.
type Config struct {
	APIToken          string
	BaseURL           string
	RequestTimeout    time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RequestsPerSecond float64
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaultRetryBaseDelay
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSec
	}
}

// DiscoverMovieOptions narrows a /discover/movie request.
type DiscoverMovieOptions struct {
	GenreID       int
	MinVoteCount  int
	MinVoteAvg    float64
	ReleasedAfter int // inclusive year
	Page          int
	SortBy        string
}

// DiscoverTVOptions narrows a /discover/tv request.
type DiscoverTVOptions struct {
	GenreID      int
	MinVoteCount int
	MinVoteAvg   float64
	AiredAfter   int // inclusive year
	Page         int
	SortBy       string
}

// Client is the TMDB API surface the resolver and recommender need.
// The concrete client implements it for production, tests substitute
// mocks, and BreakerClient wraps it with circuit breaker protection.
type Client interface {
	SearchMovie(ctx context.Context, query string) (*MovieList, error)
	GetMovie(ctx context.Context, id int) (*Movie, error)
	GetRecommendations(ctx context.Context, id int, page int) (*MovieList, error)
	GetSimilar(ctx context.Context, id int, page int) (*MovieList, error)
	DiscoverMovies(ctx context.Context, opts DiscoverMovieOptions) (*MovieList, error)
	DiscoverTV(ctx context.Context, opts DiscoverTVOptions) (*TVList, error)
}

type client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a TMDB API client. The token is the v4 read access
// token sent as a bearer header on every request.
func NewClient(cfg Config) (Client, error) {
	cfg.applyDefaults()
	if cfg.APIToken == "" {
		return nil, errors.New("tmdb: API token is required")
	}
	return &client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

func (c *client) SearchMovie(ctx context.Context, query string) (*MovieList, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	params.Set("page", "1")

	var list MovieList
	if err := c.makeRequest(ctx, "search_movie", "/search/movie", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMovie fetches full movie details with keywords appended, which
// the recommender needs for content filtering.
func (c *client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("append_to_response", "keywords")

	var movie Movie
	if err := c.makeRequest(ctx, "movie_details", fmt.Sprintf("/movie/%d", id), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *client) GetRecommendations(ctx context.Context, id int, page int) (*MovieList, error) {
	return c.movieList(ctx, "movie_recommendations", fmt.Sprintf("/movie/%d/recommendations", id), page)
}

func (c *client) GetSimilar(ctx context.Context, id int, page int) (*MovieList, error) {
	return c.movieList(ctx, "movie_similar", fmt.Sprintf("/movie/%d/similar", id), page)
}

func (c *client) movieList(ctx context.Context, endpoint, path string, page int) (*MovieList, error) {
	if page <= 0 {
		page = 1
	}
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("page", strconv.Itoa(page))

	var list MovieList
	if err := c.makeRequest(ctx, endpoint, path, params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *client) DiscoverMovies(ctx context.Context, opts DiscoverMovieOptions) (*MovieList, error) {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("include_adult", "false")
	if opts.SortBy == "" {
		opts.SortBy = "vote_average.desc"
	}
	params.Set("sort_by", opts.SortBy)
	if opts.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(opts.GenreID))
	}
	if opts.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(opts.MinVoteCount))
	}
	if opts.MinVoteAvg > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.MinVoteAvg, 'f', 1, 64))
	}
	if opts.ReleasedAfter > 0 {
		params.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", opts.ReleasedAfter))
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	params.Set("page", strconv.Itoa(opts.Page))

	var list MovieList
	if err := c.makeRequest(ctx, "discover_movie", "/discover/movie", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *client) DiscoverTV(ctx context.Context, opts DiscoverTVOptions) (*TVList, error) {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("include_adult", "false")
	if opts.SortBy == "" {
		opts.SortBy = "vote_average.desc"
	}
	params.Set("sort_by", opts.SortBy)
	if opts.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(opts.GenreID))
	}
	if opts.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(opts.MinVoteCount))
	}
	if opts.MinVoteAvg > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.MinVoteAvg, 'f', 1, 64))
	}
	if opts.AiredAfter > 0 {
		params.Set("first_air_date.gte", fmt.Sprintf("%d-01-01", opts.AiredAfter))
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	params.Set("page", strconv.Itoa(opts.Page))

	var list TVList
	if err := c.makeRequest(ctx, "discover_tv", "/discover/tv", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// makeRequest is the generic helper all endpoint methods route
// through. It rate limits, retries transient failures with exponential
// backoff, honors Retry-After on HTTP 429, and decodes the JSON body
// into result.
func (c *client) makeRequest(ctx context.Context, endpoint, path string, params url.Values, result interface{}) error {
	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		body, status, err := c.doRequest(ctx, reqURL)
		metrics.RecordTMDBRequest(endpoint, strconv.Itoa(status), time.Since(start))

		switch {
		case err == nil:
			if decodeErr := json.Unmarshal(body, result); decodeErr != nil {
				return fmt.Errorf("tmdb: decode %s response: %w", path, decodeErr)
			}
			return nil
		case errors.Is(err, ErrNotFound):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		}
		lastErr = err

		if attempt == c.cfg.MaxRetries {
			break
		}
		delay := c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
		var re *retryAfterError
		if errors.As(err, &re) && re.delay > 0 {
			delay = re.delay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("tmdb: %s failed after %d attempts: %w", path, c.cfg.MaxRetries+1, lastErr)
}

type retryAfterError struct {
	err   error
	delay time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

func (c *client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("tmdb: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("tmdb: read response: %w", err)
		}
		return body, resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &retryAfterError{
			err:   &StatusError{Code: resp.StatusCode, Message: "rate limited"},
			delay: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return nil, resp.StatusCode, &StatusError{
			Code:    resp.StatusCode,
			Message: apiMessage(resp.Body),
		}
	}
}

// apiMessage extracts TMDB's status_message from an error body for
// diagnostics. Failures fall back to an empty message.
func apiMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return ""
	}
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.StatusMessage
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
