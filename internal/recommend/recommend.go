// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package recommend turns two watch histories into three ranked
// recommendation lists: movies seeded from films both users loved,
// movies discovered by shared genre preference, and television series
// discovered by genre.
//
// All output is deterministic: identical histories and identical API
// responses produce byte-identical lists. Sorting always breaks ties
// on vote average and then lexical title order.
package recommend

import (
	"sort"

	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/tmdb"
)

// LovedFilm is a film both users rated at or above the loved
// threshold.
type LovedFilm struct {
	Title      string
	StarsA     float64
	StarsB     float64
	AvgStars   float64
	Normalized string
}

// Recommendation is one ranked movie entry. Serialized as-is by the
// HTTP API.
type Recommendation struct {
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	Score       float64  `json:"score"`
	Count       float64  `json:"count,omitempty"`
	VoteAverage float64  `json:"vote_average"`
	TMDBID      int      `json:"tmdb_id"`
	GenreIDs    []int    `json:"genre_ids,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
}

// TVRecommendation is one ranked television entry.
type TVRecommendation struct {
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	Count       int      `json:"count"`
	VoteAverage float64  `json:"vote_average"`
	TMDBID      int      `json:"tmdb_id"`
	Overview    string   `json:"overview,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
}

// Recommender generates the three lists. It is stateless between
// calls; the resolver underneath carries the title cache.
type Recommender struct {
	cfg      config.RecommendConfig
	resolver *tmdb.Resolver
	client   tmdb.Client
}

// New creates a Recommender. The resolver handles title-seeded
// lookups, the client handles discover queries.
func New(cfg config.RecommendConfig, resolver *tmdb.Resolver, client tmdb.Client) *Recommender {
	return &Recommender{cfg: cfg, resolver: resolver, client: client}
}

// BothLoved returns the films both users rated at or above threshold
// stars, ordered by average rating descending, ties broken by title.
// Matching is by normalized title.
func BothLoved(a, b *history.History, threshold float64) []LovedFilm {
	byNorm := make(map[string]history.WatchRecord, b.Len())
	for _, rec := range b.Records() {
		byNorm[history.NormalizeTitle(rec.Title)] = rec
	}

	var loved []LovedFilm
	seen := make(map[string]struct{})
	for _, recA := range a.Records() {
		if !recA.Rated() || recA.Stars() < threshold {
			continue
		}
		norm := history.NormalizeTitle(recA.Title)
		if _, dup := seen[norm]; dup {
			continue
		}
		recB, ok := byNorm[norm]
		if !ok || !recB.Rated() || recB.Stars() < threshold {
			continue
		}
		seen[norm] = struct{}{}
		loved = append(loved, LovedFilm{
			Title:      recA.Title,
			StarsA:     recA.Stars(),
			StarsB:     recB.Stars(),
			AvgStars:   (recA.Stars() + recB.Stars()) / 2,
			Normalized: norm,
		})
	}

	sort.SliceStable(loved, func(i, j int) bool {
		if loved[i].AvgStars != loved[j].AvgStars {
			return loved[i].AvgStars > loved[j].AvgStars
		}
		return loved[i].Title < loved[j].Title
	})
	return loved
}
