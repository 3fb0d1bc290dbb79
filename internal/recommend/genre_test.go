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

func TestByGenreDiscoversTopGenres(t *testing.T) {
	f := &fakeTMDB{
		search: map[string]*tmdb.MovieList{
			"Heat":  {Results: []tmdb.Movie{{ID: 949, Title: "Heat"}}},
			"Se7en": {Results: []tmdb.Movie{{ID: 807, Title: "Se7en"}}},
		},
		details: map[int]*tmdb.Movie{
			949: {ID: 949, Title: "Heat", Genres: []tmdb.Genre{{ID: 80, Name: "Crime"}, {ID: 18, Name: "Drama"}}},
			807: {ID: 807, Title: "Se7en", Genres: []tmdb.Genre{{ID: 80, Name: "Crime"}, {ID: 9648, Name: "Mystery"}}},
		},
		discover: map[int]*tmdb.MovieList{
			18: {Results: []tmdb.Movie{
				{ID: 10, Title: "Drama Pick", VoteAverage: 7.8, VoteCount: 1500, ReleaseDate: "2014-01-01", GenreIDs: []int{18}},
			}},
			9648: {Results: []tmdb.Movie{
				{ID: 11, Title: "Mystery Pick", VoteAverage: 7.2, VoteCount: 900, ReleaseDate: "2016-01-01", GenreIDs: []int{9648}},
			}},
			80: {Results: []tmdb.Movie{
				{ID: 12, Title: "Crime Pick", VoteAverage: 7.5, VoteCount: 2500, ReleaseDate: "2012-01-01", GenreIDs: []int{80}},
				{ID: 13, Title: "Heat", VoteAverage: 8.0, VoteCount: 7000, ReleaseDate: "1995-12-15", GenreIDs: []int{80}},
			}},
		},
	}

	a := historyOf(history.UserA, map[string]int{"Heat": 9, "Se7en": 10})
	b := historyOf(history.UserB, map[string]int{"Heat": 8, "Se7en": 9})

	r := newTestRecommender(f)
	_, loved, err := r.General(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}

	recs, err := r.ByGenre(context.Background(), a, b, loved)
	if err != nil {
		t.Fatalf("ByGenre: %v", err)
	}

	got := make(map[string]string, len(recs))
	for _, rec := range recs {
		got[rec.Title] = rec.Genre
	}
	// Priority genres Mystery and Drama rank ahead of Crime; all three
	// make the top 3. The watched "Heat" never surfaces.
	for _, want := range []string{"Drama Pick", "Mystery Pick", "Crime Pick"} {
		if _, ok := got[want]; !ok {
			t.Errorf("%q missing: %+v", want, recs)
		}
	}
	if _, ok := got["Heat"]; ok {
		t.Error("watched film surfaced in genre list")
	}
	// Sorted by vote average descending.
	for i := 1; i < len(recs); i++ {
		if recs[i].VoteAverage > recs[i-1].VoteAverage {
			t.Errorf("list not sorted at %d: %+v", i, recs)
		}
	}
}

func TestByGenreDiscoverQueryShape(t *testing.T) {
	f := &fakeTMDB{
		search: map[string]*tmdb.MovieList{
			"Heat": {Results: []tmdb.Movie{{ID: 949, Title: "Heat"}}},
		},
		details: map[int]*tmdb.Movie{
			949: {ID: 949, Title: "Heat", Genres: []tmdb.Genre{{ID: 18, Name: "Drama"}}},
		},
	}
	a := historyOf(history.UserA, map[string]int{"Heat": 9})
	b := historyOf(history.UserB, map[string]int{"Heat": 8})

	r := newTestRecommender(f)
	_, loved, err := r.General(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ByGenre(context.Background(), a, b, loved); err != nil {
		t.Fatal(err)
	}

	if len(f.discoverReq) != 1 {
		t.Fatalf("discover calls = %d, want 1", len(f.discoverReq))
	}
	req := f.discoverReq[0]
	if req.GenreID != 18 || req.SortBy != "popularity.desc" || req.ReleasedAfter != 1970 {
		t.Errorf("discover request = %+v", req)
	}
}
