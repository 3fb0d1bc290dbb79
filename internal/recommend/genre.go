// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package recommend

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/tmdb"
)

const (
	// topGenres is how many shared genre preferences feed discover
	// queries.
	topGenres = 3
	// genreSeedFilms is how many loved films contribute to the genre
	// preference tally.
	genreSeedFilms = 10
	// perPriorityGenre and perOtherGenre cap results taken from each
	// discover page.
	perPriorityGenre = 20
	perOtherGenre    = 10
	// genreDiscoverMinAvg keeps discover queries to well rated films,
	// separate from the per-candidate thresholds.
	genreDiscoverMinAvg = 7.0
)

// ByGenre derives the pair's top genre preferences from their loved
// films and fills a list with well rated films from those genres that
// neither user has watched.
func (r *Recommender) ByGenre(ctx context.Context, a, b *history.History, loved []LovedFilm) ([]Recommendation, error) {
	watched := history.NewWatchedSet(a, b)
	names := r.topGenreNames(ctx, loved)
	log := logging.With().Str("component", "recommender").Logger()
	log.Info().Strs("genres", names).Msg("Discovering films by shared genre preference")

	priorityNames := make(map[string]struct{}, len(r.cfg.PriorityGenres))
	for _, n := range r.cfg.PriorityGenres {
		priorityNames[strings.ToLower(n)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var recs []Recommendation
	for _, name := range names {
		gid := genreIDByName(name)
		if gid == 0 {
			continue
		}
		list, err := r.client.DiscoverMovies(ctx, tmdb.DiscoverMovieOptions{
			GenreID:       gid,
			MinVoteAvg:    genreDiscoverMinAvg,
			ReleasedAfter: r.cfg.MinYear,
			SortBy:        "popularity.desc",
		})
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				continue
			}
			return nil, err
		}

		_, isPriority := priorityNames[strings.ToLower(name)]
		limit := perOtherGenre
		if isPriority {
			limit = perPriorityGenre
		}
		for i := range take(list.Results, limit) {
			m := &list.Results[i]
			norm := history.NormalizeTitle(m.Title)
			if norm == "" || watched.Contains(m.Title) {
				continue
			}
			if _, dup := seen[norm]; dup {
				continue
			}
			if !r.passesMovieFilters(m, isPriority) {
				continue
			}
			seen[norm] = struct{}{}
			recs = append(recs, Recommendation{
				Title:       m.Title,
				Year:        m.Year(),
				Score:       m.VoteAverage,
				Count:       1,
				VoteAverage: m.VoteAverage,
				TMDBID:      m.ID,
				GenreIDs:    m.GenreIDs,
				Genre:       name,
				Overview:    m.Overview,
				Sources:     []string{"Popular " + name + " film"},
				PosterURL:   m.PosterURL(),
			})
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].VoteAverage != recs[j].VoteAverage {
			return recs[i].VoteAverage > recs[j].VoteAverage
		}
		return recs[i].Title < recs[j].Title
	})
	if r.cfg.MaxGenre > 0 && len(recs) > r.cfg.MaxGenre {
		recs = recs[:r.cfg.MaxGenre]
	}
	return recs, nil
}

// topGenreNames tallies detail genres across the strongest loved
// films. Priority genres present in the tally rank first, the rest by
// count.
func (r *Recommender) topGenreNames(ctx context.Context, loved []LovedFilm) []string {
	counts := make(map[string]int)
	seeds := loved
	if len(seeds) > genreSeedFilms {
		seeds = seeds[:genreSeedFilms]
	}
	for _, lf := range seeds {
		res, err := r.resolver.Resolve(ctx, lf.Title)
		if err != nil {
			continue
		}
		for _, g := range res.Movie.Genres {
			counts[g.Name]++
		}
	}

	var names []string
	for _, p := range r.cfg.PriorityGenres {
		for name := range counts {
			if strings.EqualFold(name, p) {
				names = append(names, name)
			}
		}
	}

	rest := make([]string, 0, len(counts))
	for name := range counts {
		if !containsFold(names, name) {
			rest = append(rest, name)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if counts[rest[i]] != counts[rest[j]] {
			return counts[rest[i]] > counts[rest[j]]
		}
		return rest[i] < rest[j]
	})
	for _, name := range rest {
		if len(names) >= topGenres {
			break
		}
		names = append(names, name)
	}
	if len(names) > topGenres {
		names = names[:topGenres]
	}
	return names
}

func genreIDByName(name string) int {
	for id, n := range tmdb.MovieGenreNames {
		if strings.EqualFold(n, name) {
			return id
		}
	}
	return 0
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
