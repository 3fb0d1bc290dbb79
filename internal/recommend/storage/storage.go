// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package storage persists the three recommendation lists as CSV
// files in the data directory, where both the HTTP API and any
// external presentation layer read them. Writes are atomic full
// overwrites, so readers never observe a half-written list.
package storage

import (
	"strconv"
	"strings"

	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/recommend"
	"github.com/reelmates/reelmates/internal/tmdb"
)

// Output file names, relative to the data directory.
const (
	GeneralFile = "movie_recommendations.csv"
	GenreFile   = "genre_recommendations.csv"
	TVFile      = "tv_recommendations.csv"
)

var recHeader = []string{
	"title", "score", "genres", "tmdb_id",
	"year", "tmdb_rating", "recommendation_count",
	"recommended_because", "poster_url", "overview",
}

// Store reads and writes recommendation CSVs through the shared file
// store.
type Store struct {
	files *history.Store
}

// New creates a recommendation store over the shared file store.
func New(files *history.Store) *Store {
	return &Store{files: files}
}

// WriteGeneral persists the main movie list.
func (s *Store) WriteGeneral(recs []recommend.Recommendation) error {
	return s.writeMovies(GeneralFile, recs)
}

// WriteGenre persists the genre-derived movie list.
func (s *Store) WriteGenre(recs []recommend.Recommendation) error {
	return s.writeMovies(GenreFile, recs)
}

// WriteTV persists the television list.
func (s *Store) WriteTV(recs []recommend.TVRecommendation) error {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, recHeader)
	for _, r := range recs {
		score := float64(r.Count)*2 + r.VoteAverage
		rows = append(rows, []string{
			r.Title,
			formatFloat(score),
			"",
			strconv.Itoa(r.TMDBID),
			yearString(r.Year),
			formatFloat(r.VoteAverage),
			strconv.Itoa(r.Count),
			strings.Join(r.Sources, "; "),
			r.PosterURL,
			r.Overview,
		})
	}
	return s.files.WriteCSV(TVFile, rows)
}

func (s *Store) writeMovies(filename string, recs []recommend.Recommendation) error {
	rows := make([][]string, 0, len(recs)+1)
	rows = append(rows, recHeader)
	for _, r := range recs {
		rows = append(rows, []string{
			r.Title,
			formatFloat(r.Score),
			genreNames(r.GenreIDs),
			strconv.Itoa(r.TMDBID),
			yearString(r.Year),
			formatFloat(r.VoteAverage),
			formatFloat(r.Count),
			strings.Join(r.Sources, "; "),
			r.PosterURL,
			r.Overview,
		})
	}
	return s.files.WriteCSV(filename, rows)
}

// ReadGeneral loads the main movie list, most recent run.
func (s *Store) ReadGeneral() ([]recommend.Recommendation, error) {
	return s.readMovies(GeneralFile)
}

// ReadGenre loads the genre-derived movie list.
func (s *Store) ReadGenre() ([]recommend.Recommendation, error) {
	return s.readMovies(GenreFile)
}

// ReadTV loads the television list.
func (s *Store) ReadTV() ([]recommend.TVRecommendation, error) {
	rows, err := s.files.ReadCSV(TVFile)
	if err != nil {
		return nil, err
	}
	recs := make([]recommend.TVRecommendation, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < len(recHeader) {
			continue
		}
		count, _ := strconv.Atoi(row[6])
		recs = append(recs, recommend.TVRecommendation{
			Title:       row[0],
			Year:        parseYear(row[4]),
			Count:       count,
			VoteAverage: parseFloat(row[5]),
			TMDBID:      parseInt(row[3]),
			Sources:     splitSources(row[7]),
			PosterURL:   row[8],
			Overview:    row[9],
		})
	}
	return recs, nil
}

func (s *Store) readMovies(filename string) ([]recommend.Recommendation, error) {
	rows, err := s.files.ReadCSV(filename)
	if err != nil {
		return nil, err
	}
	recs := make([]recommend.Recommendation, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < len(recHeader) {
			continue
		}
		recs = append(recs, recommend.Recommendation{
			Title:       row[0],
			Score:       parseFloat(row[1]),
			Genre:       row[2],
			TMDBID:      parseInt(row[3]),
			Year:        parseYear(row[4]),
			VoteAverage: parseFloat(row[5]),
			Count:       parseFloat(row[6]),
			Sources:     splitSources(row[7]),
			PosterURL:   row[8],
			Overview:    row[9],
		})
	}
	return recs, nil
}

// genreNames joins genre display names with "|", falling back to the
// raw id when TMDB adds a genre we do not know.
func genreNames(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := tmdb.MovieGenreNames[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, strconv.Itoa(id))
		}
	}
	return strings.Join(names, "|")
}

func splitSources(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "; ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func parseYear(s string) int {
	if s == "" {
		return 0
	}
	return parseInt(s)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Exists reports whether the named list has been generated yet.
func (s *Store) Exists(filename string) bool {
	switch filename {
	case GeneralFile, GenreFile, TVFile:
		return s.files.FileExists(filename)
	default:
		return false
	}
}
