// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package scrape fetches a Letterboxd member's watched-films pages and
// extracts titles with the member's ratings. Letterboxd has no public
// API for watch histories, so the package behaves like a patient
// browser: realistic headers, a cookie jar, a warm-up visit to the
// profile, referer chaining between pages, and a fixed delay between
// page requests.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/metrics"
)

const (
	defaultBaseURL        = "https://letterboxd.com"
	defaultMaxPages       = 50
	defaultPageDelay      = 1500 * time.Millisecond
	defaultRequestTimeout = 10 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 2 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config controls the scraper. Zero values fall back to defaults that
// match polite-browser behavior.
type Config struct {
	BaseURL        string
	MaxPages       int
	PageDelay      time.Duration
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.MaxPages <= 0 {
		c.MaxPages = defaultMaxPages
	}
	if c.PageDelay <= 0 {
		c.PageDelay = defaultPageDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaultRetryBaseDelay
	}
}

// Termination explains why a scrape run stopped.
type Termination string

const (
	// TerminationExhausted means an empty page past the first was
	// reached, the natural end of the history.
	TerminationExhausted Termination = "exhausted"
	// TerminationMaxPages means the page cap stopped the run with the
	// history possibly unfinished.
	TerminationMaxPages Termination = "max_pages"
	// TerminationEmptyProfile means the first page held no films. The
	// profile may be empty, private, or the markup unrecognized.
	TerminationEmptyProfile Termination = "empty_profile"
	// TerminationError means the run aborted on a fatal error.
	TerminationError Termination = "error"
)

// RunReport summarizes one member's scrape.
type RunReport struct {
	Username    string
	Pages       int
	Films       int
	Termination Termination
	Duration    time.Duration
}

// Scraper fetches watch histories for Letterboxd members.
type Scraper interface {
	ScrapeUser(ctx context.Context, username string, user history.User) (*history.History, *RunReport, error)
}

type scraper struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Scraper. The shared cookie jar and rate limiter mean a
// single Scraper should fetch users sequentially, which is also the
// polite thing to do.
func New(cfg Config) (Scraper, error) {
	cfg.applyDefaults()
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
	}, nil
}

// ScrapeUser walks the member's /films/ pages until the history is
// exhausted or the page cap is hit. On a fatal error the partial
// history collected so far is returned alongside the error.
func (s *scraper) ScrapeUser(ctx context.Context, username string, user history.User) (*history.History, *RunReport, error) {
	start := time.Now()
	log := logging.With().
		Str("component", "scraper").
		Str("username", username).
		Logger()

	h := history.NewHistory(user)
	report := &RunReport{Username: username}

	profileURL := fmt.Sprintf("%s/%s/", s.cfg.BaseURL, url.PathEscape(username))
	if err := s.warmUp(ctx, username, user, profileURL); err != nil {
		report.Termination = TerminationError
		report.Duration = time.Since(start)
		return h, report, err
	}

	referer := profileURL
	for page := 1; page <= s.cfg.MaxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			report.Termination = TerminationError
			report.Duration = time.Since(start)
			return h, report, newError(KindNetwork, username, page, err)
		}

		pageURL := s.pageURL(username, page)
		body, err := s.fetchPage(ctx, username, user, page, pageURL, referer)
		if err != nil {
			metrics.ScrapeErrors.WithLabelValues(string(user), KindOf(err).String()).Inc()
			report.Termination = TerminationError
			report.Duration = time.Since(start)
			return h, report, err
		}
		referer = pageURL
		report.Pages++
		metrics.ScrapePagesFetched.WithLabelValues(string(user)).Inc()

		records, err := ExtractFilms(strings.NewReader(body), user)
		if err != nil {
			metrics.ScrapeErrors.WithLabelValues(string(user), KindParse.String()).Inc()
			report.Termination = TerminationError
			report.Duration = time.Since(start)
			return h, report, newError(KindParse, username, page, err)
		}

		if len(records) == 0 {
			if page == 1 {
				report.Termination = TerminationEmptyProfile
				log.Warn().Msg("First page held no films, profile may be empty or private")
			} else {
				report.Termination = TerminationExhausted
			}
			report.Duration = time.Since(start)
			report.Films = h.Len()
			return h, report, nil
		}

		for _, rec := range records {
			h.Add(rec)
		}
		metrics.ScrapeFilmsExtracted.WithLabelValues(string(user)).Add(float64(len(records)))
		log.Debug().Int("page", page).Int("films", len(records)).Msg("Page scraped")
	}

	report.Termination = TerminationMaxPages
	report.Duration = time.Since(start)
	report.Films = h.Len()
	log.Warn().Int("max_pages", s.cfg.MaxPages).Msg("Page cap reached before history end")
	return h, report, nil
}

func (s *scraper) pageURL(username string, page int) string {
	base := fmt.Sprintf("%s/%s/films/", s.cfg.BaseURL, url.PathEscape(username))
	if page == 1 {
		return base
	}
	return fmt.Sprintf("%spage/%d/", base, page)
}

// warmUp visits the profile root once so the site sets its session
// cookies before the films pages are requested.
func (s *scraper) warmUp(ctx context.Context, username string, user history.User, profileURL string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return newError(KindNetwork, username, 0, err)
	}
	_, err := s.fetchPage(ctx, username, user, 0, profileURL, s.cfg.BaseURL+"/")
	return err
}

// fetchPage performs one GET with retries. 404 and 403 abort
// immediately since retrying cannot fix them, 429 honors Retry-After,
// and everything else backs off exponentially.
func (s *scraper) fetchPage(ctx context.Context, username string, user history.User, page int, pageURL, referer string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			metrics.ScrapeRetries.WithLabelValues(string(user)).Inc()
			delay := s.backoff(attempt, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", newError(KindNetwork, username, page, ctx.Err())
			}
		}

		body, err := s.doRequest(ctx, username, page, pageURL, referer)
		if err == nil {
			return body, nil
		}
		switch KindOf(err) {
		case KindNotFound, KindForbidden:
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (s *scraper) doRequest(ctx context.Context, username string, page int, pageURL, referer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", newError(KindNetwork, username, page, err)
	}
	setBrowserHeaders(req, referer)

	resp, err := s.client.Do(req)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			kind = KindTimeout
		}
		return "", newError(kind, username, page, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", newError(KindNotFound, username, page, fmt.Errorf("HTTP 404 for %s", pageURL))
	case http.StatusForbidden:
		return "", newError(KindForbidden, username, page, fmt.Errorf("HTTP 403 for %s", pageURL))
	case http.StatusTooManyRequests:
		return "", &rateLimitedError{
			err:        newError(KindAPI, username, page, fmt.Errorf("HTTP 429 for %s", pageURL)),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return "", newError(KindAPI, username, page, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindNetwork, username, page, err)
	}
	return string(body), nil
}

// rateLimitedError carries the server's Retry-After hint through the
// retry loop.
type rateLimitedError struct {
	err        *Error
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string { return e.err.Error() }
func (e *rateLimitedError) Unwrap() error { return e.err }

func (s *scraper) backoff(attempt int, lastErr error) time.Duration {
	var rl *rateLimitedError
	if errors.As(lastErr, &rl) && rl.retryAfter > 0 {
		return rl.retryAfter
	}
	return time.Duration(1<<(attempt-1)) * s.cfg.RetryBaseDelay
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

func setBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	if referer == "" {
		req.Header.Set("Sec-Fetch-Site", "none")
	} else {
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}
