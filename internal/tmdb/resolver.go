// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package tmdb

import (
	"context"
	"errors"
	"time"

	"github.com/reelmates/reelmates/internal/cache"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/metrics"
)

const (
	defaultCacheSize = 4096
	defaultCacheTTL  = 24 * time.Hour
)

// Resolution is the metadata bundle for one watched title: the
// matched movie with full details plus TMDB's candidate lists seeded
// from it.
type Resolution struct {
	Movie           *Movie
	Recommendations []Movie
	Similar         []Movie
}

// cached resolution entries record misses too, so a title TMDB does
// not know is only searched once per TTL window.
type resolution struct {
	res      *Resolution
	notFound bool
}

// Resolver maps scraped film titles to TMDB metadata. Lookups are
// cached by normalized title, so re-running the pipeline over an
// unchanged watch history costs almost no API calls.
type Resolver struct {
	client Client
	cache  *cache.LRU[resolution]
}

// NewResolver creates a Resolver over client. size and ttl bound the
// title cache; zero values pick sensible defaults.
func NewResolver(client Client, size int, ttl time.Duration) *Resolver {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Resolver{
		client: client,
		cache:  cache.NewLRU[resolution](size, ttl),
	}
}

// Resolve looks up one title. It returns ErrNotFound when TMDB has no
// match, which callers should treat as "skip this title", not as a
// failure.
func (r *Resolver) Resolve(ctx context.Context, title string) (*Resolution, error) {
	key := history.NormalizeTitle(title)
	if key == "" {
		return nil, ErrNotFound
	}

	if entry, ok := r.cache.Get(key); ok {
		metrics.ResolverCacheHits.Inc()
		if entry.notFound {
			return nil, ErrNotFound
		}
		return entry.res, nil
	}
	metrics.ResolverCacheMisses.Inc()

	res, err := r.resolve(ctx, title)
	switch {
	case err == nil:
		r.cache.Add(key, resolution{res: res})
		return res, nil
	case errors.Is(err, ErrNotFound):
		metrics.ResolverNotFound.Inc()
		r.cache.Add(key, resolution{notFound: true})
		return nil, ErrNotFound
	default:
		// Transient failures are not cached so the next run retries.
		return nil, err
	}
}

func (r *Resolver) resolve(ctx context.Context, title string) (*Resolution, error) {
	list, err := r.client.SearchMovie(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, ErrNotFound
	}

	// The top search hit wins. TMDB orders by relevance and the
	// scraped titles are exact display titles, so this is reliable.
	hit := list.Results[0]

	movie, err := r.client.GetMovie(ctx, hit.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := &Resolution{Movie: movie}

	recs, err := r.client.GetRecommendations(ctx, hit.ID, 1)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if recs != nil {
		res.Recommendations = recs.Results
	}

	similar, err := r.client.GetSimilar(ctx, hit.ID, 1)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if similar != nil {
		res.Similar = similar.Results
	}

	logging.Debug().
		Str("title", title).
		Int("tmdb_id", movie.ID).
		Int("recommendations", len(res.Recommendations)).
		Int("similar", len(res.Similar)).
		Msg("Title resolved")
	return res, nil
}

// CacheStats reports title cache hits and misses since startup.
func (r *Resolver) CacheStats() (hits, misses int64) {
	return r.cache.Stats()
}
