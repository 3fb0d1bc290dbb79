// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package recommend

import (
	"context"
	"errors"
	"sort"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/tmdb"
)

// maxCandidatesPerList caps how many of TMDB's recommendations and
// similar results are taken per loved film.
const maxCandidatesPerList = 10

// maxSources caps how many seed titles are reported per
// recommendation.
const maxSources = 3

type candidate struct {
	movie   tmdb.Movie
	count   float64
	sources []string
}

// General produces the main recommendation list seeded from the films
// both users loved, along with the loved set itself for downstream
// genre derivation. Titles either user has watched never appear.
func (r *Recommender) General(ctx context.Context, a, b *history.History) ([]Recommendation, []LovedFilm, error) {
	loved := BothLoved(a, b, r.cfg.LovedThreshold)
	watched := history.NewWatchedSet(a, b)
	priority := priorityGenreIDs(r.cfg.PriorityGenres)

	log := logging.With().Str("component", "recommender").Logger()
	log.Info().Int("both_loved", len(loved)).Msg("Scoring candidates from shared favorites")

	pool := make(map[string]*candidate)
	for _, lf := range loved {
		res, err := r.resolver.Resolve(ctx, lf.Title)
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				log.Debug().Str("title", lf.Title).Msg("No TMDB match for loved film")
				continue
			}
			return nil, nil, err
		}

		// Copied so the resolver's cached slices stay untouched.
		suggestions := make([]tmdb.Movie, 0, 2*maxCandidatesPerList)
		suggestions = append(suggestions, take(res.Recommendations, maxCandidatesPerList)...)
		suggestions = append(suggestions, take(res.Similar, maxCandidatesPerList)...)
		for i := range suggestions {
			r.collect(pool, &suggestions[i], lf, watched, priority)
		}
	}

	recs := make([]Recommendation, 0, len(pool))
	for _, c := range pool {
		sources := c.sources
		if len(sources) > maxSources {
			sources = sources[:maxSources]
		}
		recs = append(recs, Recommendation{
			Title:       c.movie.Title,
			Year:        c.movie.Year(),
			Score:       c.count*2 + c.movie.VoteAverage,
			Count:       c.count,
			VoteAverage: c.movie.VoteAverage,
			TMDBID:      c.movie.ID,
			GenreIDs:    c.movie.GenreIDs,
			Overview:    c.movie.Overview,
			Sources:     sources,
			PosterURL:   c.movie.PosterURL(),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if recs[i].VoteAverage != recs[j].VoteAverage {
			return recs[i].VoteAverage > recs[j].VoteAverage
		}
		return recs[i].Title < recs[j].Title
	})
	if r.cfg.MaxGeneral > 0 && len(recs) > r.cfg.MaxGeneral {
		recs = recs[:r.cfg.MaxGeneral]
	}
	return recs, loved, nil
}

// collect folds one suggestion into the candidate pool, applying
// exclusion and filter rules.
func (r *Recommender) collect(pool map[string]*candidate, m *tmdb.Movie, seed LovedFilm, watched *history.WatchedSet, priority map[int]struct{}) {
	norm := history.NormalizeTitle(m.Title)
	if norm == "" || norm == seed.Normalized || watched.Contains(m.Title) {
		return
	}

	isPriority := hasPriorityGenre(m.GenreIDs, priority)
	if !r.passesMovieFilters(m, isPriority) {
		return
	}

	weight := 1.0
	if isPriority {
		weight = 3.0
	}
	c, ok := pool[norm]
	if !ok {
		c = &candidate{movie: *m}
		pool[norm] = c
	}
	c.count += weight
	c.sources = append(c.sources, seed.Title)
}

// take returns at most the first n elements.
func take[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
