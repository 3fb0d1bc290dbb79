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

// perTVGenre caps results taken from each TV discover page.
const perTVGenre = 15

// tvGenres maps display names to TMDB television genre ids. TMDB
// keeps a separate genre list for TV, so movie ids cannot be reused
// here (there is no Thriller or Horror TV genre, Crime and Mystery
// are the closest fits).
var tvGenres = map[string]int{
	"Drama":              18,
	"Crime":              80,
	"Mystery":            9648,
	"Sci-Fi & Fantasy":   10765,
	"Comedy":             35,
	"Action & Adventure": 10759,
}

// TV fills the television list from discover queries per configured
// genre. A show surfacing in several genres accumulates count, and
// the final order is count then vote average, ties broken by title.
func (r *Recommender) TV(ctx context.Context, a, b *history.History) ([]TVRecommendation, error) {
	watched := history.NewWatchedSet(a, b)
	log := logging.With().Str("component", "recommender").Logger()

	type tvCandidate struct {
		show    tmdb.TVShow
		count   int
		sources []string
	}
	pool := make(map[string]*tvCandidate)

	// Deterministic genre order regardless of map iteration.
	names := make([]string, 0, len(tvGenres))
	for name := range tvGenres {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		list, err := r.client.DiscoverTV(ctx, tmdb.DiscoverTVOptions{
			GenreID:    tvGenres[name],
			MinVoteAvg: r.cfg.TVMinRating,
			AiredAfter: r.cfg.TVMinYear,
			SortBy:     "popularity.desc",
		})
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				continue
			}
			return nil, err
		}

		for _, show := range take(list.Results, perTVGenre) {
			norm := history.NormalizeTitle(show.Name)
			if norm == "" || watched.Contains(show.Name) {
				continue
			}
			year := show.Year()
			if show.VoteAverage < r.cfg.TVMinRating || year < r.cfg.TVMinYear || year > r.cfg.TVMaxYear {
				continue
			}
			c, ok := pool[norm]
			if !ok {
				c = &tvCandidate{show: show}
				pool[norm] = c
			}
			c.count++
			c.sources = append(c.sources, "Popular "+name)
		}
	}

	recs := make([]TVRecommendation, 0, len(pool))
	for _, c := range pool {
		sources := c.sources
		if len(sources) > maxSources {
			sources = sources[:maxSources]
		}
		recs = append(recs, TVRecommendation{
			Title:       c.show.Name,
			Year:        c.show.Year(),
			Count:       c.count,
			VoteAverage: c.show.VoteAverage,
			TMDBID:      c.show.ID,
			Overview:    c.show.Overview,
			Sources:     sources,
			PosterURL:   c.show.PosterURL(),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Count != recs[j].Count {
			return recs[i].Count > recs[j].Count
		}
		if recs[i].VoteAverage != recs[j].VoteAverage {
			return recs[i].VoteAverage > recs[j].VoteAverage
		}
		return recs[i].Title < recs[j].Title
	})
	if r.cfg.MaxTV > 0 && len(recs) > r.cfg.MaxTV {
		recs = recs[:r.cfg.MaxTV]
	}
	log.Info().Int("shows", len(recs)).Msg("Television list assembled")
	return recs, nil
}
