// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package tmdb

// Genre identifiers used by the recommendation scorer. The numeric ids
// are TMDB's own and are stable across API versions.
const (
	GenreActionID    = 28
	GenreAdventureID = 12
	GenreComedyID    = 35
	GenreDramaID     = 18
	GenreMysteryID   = 9648
	GenreThrillerID  = 53
	GenreSciFiID     = 878
	GenreHorrorID    = 27
	GenreRomanceID   = 10749
	GenreCrimeID     = 80
	GenreAnimationID = 16
)

// MovieGenreNames maps TMDB movie genre ids to display names.
var MovieGenreNames = map[int]string{
	GenreActionID:    "Action",
	GenreAdventureID: "Adventure",
	GenreAnimationID: "Animation",
	GenreComedyID:    "Comedy",
	GenreCrimeID:     "Crime",
	99:               "Documentary",
	GenreDramaID:     "Drama",
	10751:            "Family",
	14:               "Fantasy",
	36:               "History",
	GenreHorrorID:    "Horror",
	10402:            "Music",
	GenreMysteryID:   "Mystery",
	GenreRomanceID:   "Romance",
	GenreSciFiID:     "Science Fiction",
	10770:            "TV Movie",
	GenreThrillerID:  "Thriller",
	10752:            "War",
	37:               "Western",
}

// Genre is a TMDB genre as returned on detail responses.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Keyword is a TMDB keyword tag.
type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a TMDB movie as it appears in search, discover, and list
// responses. Detail responses add Genres and Keywords.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
	Keywords    struct {
		Keywords []Keyword `json:"keywords"`
	} `json:"keywords,omitempty"`
}

// posterBaseURL is TMDB's image CDN prefix for medium posters.
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Year returns the release year, or 0 when the date is absent or
// malformed.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// PosterURL returns the full poster image URL, or "" when the movie
// has no poster.
func (m *Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return posterBaseURL + m.PosterPath
}

// GenreIDSet returns the movie's genre ids regardless of whether they
// came from a list response (genre_ids) or a detail response (genres).
func (m *Movie) GenreIDSet() map[int]struct{} {
	set := make(map[int]struct{}, len(m.GenreIDs)+len(m.Genres))
	for _, id := range m.GenreIDs {
		set[id] = struct{}{}
	}
	for _, g := range m.Genres {
		set[g.ID] = struct{}{}
	}
	return set
}

// TVShow is a TMDB television series from discover responses.
type TVShow struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// Year returns the first-air year, or 0 when unknown.
func (s *TVShow) Year() int {
	return yearOf(s.FirstAirDate)
}

// PosterURL returns the full poster image URL, or "" when the show
// has no poster.
func (s *TVShow) PosterURL() string {
	if s.PosterPath == "" {
		return ""
	}
	return posterBaseURL + s.PosterPath
}

// MovieList is the paged envelope TMDB wraps movie results in.
type MovieList struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// TVList is the paged envelope for television results.
type TVList struct {
	Page         int      `json:"page"`
	Results      []TVShow `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
