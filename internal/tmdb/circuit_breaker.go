// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/metrics"
)

// BreakerClient wraps a Client with a circuit breaker so a TMDB outage
// fails pipeline runs fast instead of grinding through every scraped
// title at full timeout.
//
// The breaker uses real time for its interval and timeout windows.
// Tests that need deterministic behavior should exercise the wrapped
// client directly.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerClient wraps client with circuit breaker protection.
// The circuit opens after a 60% failure rate across at least 10
// requests, stays open for 2 minutes, then allows 3 probe requests.
func NewBreakerClient(client Client) *BreakerClient {
	const cbName = "tmdb-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening TMDB circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			// A missing title is an answer, not an outage.
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{inner: client, cb: cb, name: cbName}
}

func (b *BreakerClient) SearchMovie(ctx context.Context, query string) (*MovieList, error) {
	return execute[MovieList](b, func() (any, error) {
		return b.inner.SearchMovie(ctx, query)
	})
}

func (b *BreakerClient) GetMovie(ctx context.Context, id int) (*Movie, error) {
	return execute[Movie](b, func() (any, error) {
		return b.inner.GetMovie(ctx, id)
	})
}

func (b *BreakerClient) GetRecommendations(ctx context.Context, id int, page int) (*MovieList, error) {
	return execute[MovieList](b, func() (any, error) {
		return b.inner.GetRecommendations(ctx, id, page)
	})
}

func (b *BreakerClient) GetSimilar(ctx context.Context, id int, page int) (*MovieList, error) {
	return execute[MovieList](b, func() (any, error) {
		return b.inner.GetSimilar(ctx, id, page)
	})
}

func (b *BreakerClient) DiscoverMovies(ctx context.Context, opts DiscoverMovieOptions) (*MovieList, error) {
	return execute[MovieList](b, func() (any, error) {
		return b.inner.DiscoverMovies(ctx, opts)
	})
}

func (b *BreakerClient) DiscoverTV(ctx context.Context, opts DiscoverTVOptions) (*TVList, error) {
	return execute[TVList](b, func() (any, error) {
		return b.inner.DiscoverTV(ctx, opts)
	})
}

// execute runs fn through the breaker and type-casts the result.
func execute[T any](b *BreakerClient, fn func() (any, error)) (*T, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] TMDB request rejected")
		case errors.Is(err, ErrNotFound):
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		default:
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()

	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
