// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package storage

import (
	"os"
	"strings"
	"testing"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/recommend"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := history.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return New(files), dir
}

func TestMovieRoundTrip(t *testing.T) {
	s, _ := testStore(t)

	recs := []recommend.Recommendation{
		{
			Title: "Prisoners", Year: 2013, Score: 20.1, Count: 6,
			VoteAverage: 8.1, TMDBID: 146233, GenreIDs: []int{18, 53},
			Overview: "Keller Dover faces a parent's worst nightmare.",
			Sources:  []string{"Heat", "Se7en"},
			PosterURL: "https://image.tmdb.org/t/p/w500/x.jpg",
		},
		{
			Title: "Ronin", Year: 1998, Score: 9.0, Count: 1,
			VoteAverage: 7.0, TMDBID: 8195, GenreIDs: []int{28},
		},
	}
	if err := s.WriteGeneral(recs); err != nil {
		t.Fatalf("WriteGeneral: %v", err)
	}
	if !s.Exists(GeneralFile) {
		t.Error("Exists = false after write")
	}

	got, err := s.ReadGeneral()
	if err != nil {
		t.Fatalf("ReadGeneral: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d rows, want 2", len(got))
	}
	if got[0].Title != "Prisoners" || got[0].Score != 20.1 || got[0].TMDBID != 146233 {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].Genre != "Drama|Thriller" {
		t.Errorf("genres = %q, want Drama|Thriller", got[0].Genre)
	}
	if len(got[0].Sources) != 2 || got[0].Sources[1] != "Se7en" {
		t.Errorf("sources = %v", got[0].Sources)
	}
	if got[1].Year != 1998 || got[1].Count != 1 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestTVRoundTrip(t *testing.T) {
	s, _ := testStore(t)

	recs := []recommend.TVRecommendation{
		{
			Title: "Breaking Bad", Year: 2008, Count: 2, VoteAverage: 8.9,
			TMDBID: 1396, Sources: []string{"Popular Crime", "Popular Drama"},
			Overview: "A chemistry teacher turns to crime.",
		},
	}
	if err := s.WriteTV(recs); err != nil {
		t.Fatalf("WriteTV: %v", err)
	}

	got, err := s.ReadTV()
	if err != nil {
		t.Fatalf("ReadTV: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("read %d rows, want 1", len(got))
	}
	if got[0].Title != "Breaking Bad" || got[0].Count != 2 || got[0].VoteAverage != 8.9 {
		t.Errorf("row = %+v", got[0])
	}
}

func TestWriteOverwritesPreviousRun(t *testing.T) {
	s, _ := testStore(t)

	if err := s.WriteGenre([]recommend.Recommendation{
		{Title: "Old Pick", TMDBID: 1, Score: 8},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteGenre([]recommend.Recommendation{
		{Title: "New Pick", TMDBID: 2, Score: 9},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadGenre()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "New Pick" {
		t.Errorf("rows = %+v, want only New Pick", got)
	}
}

func TestHeaderSchema(t *testing.T) {
	s, dir := testStore(t)
	if err := s.WriteGeneral(nil); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(dir + "/" + GeneralFile)
	if err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(strings.TrimSpace(string(raw)), "\n", 2)[0]
	want := "title,score,genres,tmdb_id,year,tmdb_rating,recommendation_count,recommended_because,poster_url,overview"
	if header != want {
		t.Errorf("header = %q, want %q", header, want)
	}
}

func TestReadMissingList(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.ReadTV(); err == nil {
		t.Error("ReadTV before any run = nil error")
	}
	if s.Exists("unknown.csv") {
		t.Error("Exists accepted unknown filename")
	}
}
