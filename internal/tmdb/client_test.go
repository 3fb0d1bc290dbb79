// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIToken:          "test-token",
		BaseURL:           srv.URL,
		RequestTimeout:    2 * time.Second,
		MaxRetries:        2,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerSecond: 1000,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient without token = nil error")
	}
}

func TestSearchMovie(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "Heat" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("include_adult"); got != "false" {
			t.Errorf("include_adult = %q", got)
		}
		fmt.Fprint(w, `{"page":1,"results":[{"id":949,"title":"Heat","vote_average":7.9,"vote_count":7000,"release_date":"1995-12-15","genre_ids":[28,80,18]}],"total_pages":1,"total_results":1}`)
	}))

	list, err := c.SearchMovie(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if len(list.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(list.Results))
	}
	m := list.Results[0]
	if m.ID != 949 || m.Title != "Heat" || m.Year() != 1995 {
		t.Errorf("movie = %+v", m)
	}
	if _, ok := m.GenreIDSet()[80]; !ok {
		t.Error("genre 80 missing from id set")
	}
}

func TestGetMovieAppendsKeywords(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/949" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "keywords" {
			t.Errorf("append_to_response = %q", got)
		}
		fmt.Fprint(w, `{"id":949,"title":"Heat","genres":[{"id":28,"name":"Action"}],"keywords":{"keywords":[{"id":1,"name":"heist"}]}}`)
	}))

	m, err := c.GetMovie(context.Background(), 949)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if len(m.Keywords.Keywords) != 1 || m.Keywords.Keywords[0].Name != "heist" {
		t.Errorf("keywords = %+v", m.Keywords)
	}
	if _, ok := m.GenreIDSet()[28]; !ok {
		t.Error("detail genres missing from id set")
	}
}

func TestNotFoundIsTerminal(t *testing.T) {
	var requests atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status_code":34,"status_message":"not found"}`)
	}))

	_, err := c.GetMovie(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retry on 404)", requests.Load())
	}
}

func TestRateLimitRetried(t *testing.T) {
	var requests atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"page":1,"results":[],"total_pages":0,"total_results":0}`)
	}))

	if _, err := c.SearchMovie(context.Background(), "x"); err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2", requests.Load())
	}
}

func TestServerErrorExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status_code":11,"status_message":"internal error"}`)
	}))

	_, err := c.SearchMovie(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error after retries")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Errorf("err = %v, want StatusError 500", err)
	}
	if requests.Load() != 3 {
		t.Errorf("requests = %d, want 3 (initial + 2 retries)", requests.Load())
	}
}

func TestDiscoverMoviesParams(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("with_genres"); got != "18" {
			t.Errorf("with_genres = %q", got)
		}
		if got := q.Get("vote_count.gte"); got != "500" {
			t.Errorf("vote_count.gte = %q", got)
		}
		if got := q.Get("vote_average.gte"); got != "6.0" {
			t.Errorf("vote_average.gte = %q", got)
		}
		if got := q.Get("primary_release_date.gte"); got != "1970-01-01" {
			t.Errorf("primary_release_date.gte = %q", got)
		}
		if got := q.Get("sort_by"); got != "vote_average.desc" {
			t.Errorf("sort_by = %q", got)
		}
		fmt.Fprint(w, `{"page":1,"results":[],"total_pages":0,"total_results":0}`)
	}))

	_, err := c.DiscoverMovies(context.Background(), DiscoverMovieOptions{
		GenreID:       18,
		MinVoteCount:  500,
		MinVoteAvg:    6.0,
		ReleasedAfter: 1970,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverTVParams(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/tv" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("with_genres"); got != "10759" {
			t.Errorf("with_genres = %q", got)
		}
		if got := q.Get("first_air_date.gte"); got != "2000-01-01" {
			t.Errorf("first_air_date.gte = %q", got)
		}
		fmt.Fprint(w, `{"page":1,"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","vote_average":8.9,"vote_count":12000}],"total_pages":1,"total_results":1}`)
	}))

	list, err := c.DiscoverTV(context.Background(), DiscoverTVOptions{
		GenreID:    10759,
		AiredAfter: 2000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Results) != 1 || list.Results[0].Year() != 2008 {
		t.Errorf("results = %+v", list.Results)
	}
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"1995-12-15", 1995},
		{"2008", 2008},
		{"", 0},
		{"n/a", 0},
		{"19", 0},
	}
	for _, tt := range tests {
		if got := yearOf(tt.date); got != tt.want {
			t.Errorf("yearOf(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
