// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package recommend

import (
	"strings"

	"github.com/reelmates/reelmates/internal/tmdb"
)

// superheroExemptRating lets a genuinely great franchise film through
// the filter.
const superheroExemptRating = 8.5

// franchiseKeywords flags superhero and big-franchise titles the pair
// has no appetite for.
var franchiseKeywords = []string{
	"superhero", "spider-man", "batman", "superman", "iron man",
	"captain america", "avengers", "x-men", "guardians of the galaxy",
	"men in black", "marvel", "wolverine", "hulk", "thor", "ant-man",
	"black widow", "wonder woman", "flash", "aquaman", "green lantern",
	"deadpool", "venom", "doctor strange", "black panther", "shazam",
}

// franchiseGenres are the genre ids that, in combination, mark a
// typical superhero blockbuster: Action, Science Fiction, Adventure.
var franchiseGenres = map[int]struct{}{
	tmdb.GenreActionID:    {},
	tmdb.GenreSciFiID:     {},
	tmdb.GenreAdventureID: {},
}

// isFranchise reports whether a title smells like a superhero or
// mega-franchise film: a known keyword in the title, or at least two
// action-family genres on a narrowly tagged film.
func isFranchise(title string, genreIDs []int) bool {
	lower := strings.ToLower(title)
	for _, kw := range franchiseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	hits := 0
	for _, id := range genreIDs {
		if _, ok := franchiseGenres[id]; ok {
			hits++
		}
	}
	return hits >= 2 && len(genreIDs) <= 4
}

// priorityGenreIDs resolves the configured priority genre names to
// TMDB ids. Unknown names are ignored.
func priorityGenreIDs(names []string) map[int]struct{} {
	byName := make(map[string]int, len(tmdb.MovieGenreNames))
	for id, name := range tmdb.MovieGenreNames {
		byName[strings.ToLower(name)] = id
	}
	ids := make(map[int]struct{}, len(names))
	for _, name := range names {
		if id, ok := byName[strings.ToLower(name)]; ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// hasPriorityGenre reports whether any of the candidate's genres is a
// priority genre.
func hasPriorityGenre(genreIDs []int, priority map[int]struct{}) bool {
	for _, id := range genreIDs {
		if _, ok := priority[id]; ok {
			return true
		}
	}
	return false
}

// passesMovieFilters applies the shared candidate filters: franchise
// screen, rating threshold (relaxed for priority genres), vote count
// floor, and release year window.
func (r *Recommender) passesMovieFilters(m *tmdb.Movie, isPriority bool) bool {
	if isFranchise(m.Title, m.GenreIDs) && m.VoteAverage < superheroExemptRating {
		return false
	}
	threshold := r.cfg.MinRating
	if isPriority {
		threshold = r.cfg.PriorityThreshold
	}
	if m.VoteAverage < threshold {
		return false
	}
	if m.VoteCount < r.cfg.MinVoteCount {
		return false
	}
	year := m.Year()
	return year >= r.cfg.MinYear && year <= r.cfg.MaxYear
}
