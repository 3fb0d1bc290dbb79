// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package recommend

import (
	"context"
	"testing"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/tmdb"
)

func TestTVAccumulatesAcrossGenres(t *testing.T) {
	breakingBad := tmdb.TVShow{
		ID: 1396, Name: "Breaking Bad", VoteAverage: 8.9, VoteCount: 12000,
		FirstAirDate: "2008-01-20",
	}
	f := &fakeTMDB{
		discoverTV: map[int]*tmdb.TVList{
			80: {Results: []tmdb.TVShow{
				breakingBad,
				{ID: 2, Name: "The Wire", VoteAverage: 8.6, VoteCount: 2600, FirstAirDate: "2002-06-02"},
			}},
			18: {Results: []tmdb.TVShow{breakingBad}},
			9648: {Results: []tmdb.TVShow{
				{ID: 3, Name: "Dark", VoteAverage: 8.4, VoteCount: 3800, FirstAirDate: "2017-12-01"},
			}},
		},
	}

	a := historyOf(history.UserA, map[string]int{"Heat": 9})
	b := historyOf(history.UserB, map[string]int{"Heat": 8})

	recs, err := newTestRecommender(f).TV(context.Background(), a, b)
	if err != nil {
		t.Fatalf("TV: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("recs = %d, want 3: %+v", len(recs), recs)
	}

	// Breaking Bad surfaced in two genres: count 2 puts it first,
	// appearing once.
	if recs[0].Title != "Breaking Bad" || recs[0].Count != 2 {
		t.Errorf("top = %+v, want Breaking Bad with count 2", recs[0])
	}
	if len(recs[0].Sources) != 2 {
		t.Errorf("sources = %v, want 2", recs[0].Sources)
	}
	// Count ties resolved by vote average.
	if recs[1].Title != "The Wire" || recs[2].Title != "Dark" {
		t.Errorf("order = %+v", recs)
	}
}

func TestTVFilters(t *testing.T) {
	f := &fakeTMDB{
		discoverTV: map[int]*tmdb.TVList{
			18: {Results: []tmdb.TVShow{
				{ID: 1, Name: "Low Rated", VoteAverage: 6.5, VoteCount: 900, FirstAirDate: "2015-01-01"},
				{ID: 2, Name: "Last Century", VoteAverage: 8.8, VoteCount: 900, FirstAirDate: "1994-09-22"},
				{ID: 3, Name: "Keeper", VoteAverage: 8.0, VoteCount: 900, FirstAirDate: "2019-01-01"},
				{ID: 4, Name: "Already Watched", VoteAverage: 8.5, VoteCount: 900, FirstAirDate: "2018-01-01"},
			}},
		},
	}

	a := historyOf(history.UserA, map[string]int{"Already Watched": 8})
	b := historyOf(history.UserB, map[string]int{})

	recs, err := newTestRecommender(f).TV(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Title != "Keeper" {
		t.Errorf("recs = %+v, want only Keeper", recs)
	}
}
