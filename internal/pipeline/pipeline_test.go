// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/recommend"
	"github.com/reelmates/reelmates/internal/recommend/storage"
	"github.com/reelmates/reelmates/internal/scrape"
	"github.com/reelmates/reelmates/internal/tmdb"
)

// fakeScraper returns canned histories or errors per username.
type fakeScraper struct {
	histories map[string]*history.History
	errs      map[string]error
	block     chan struct{} // when set, ScrapeUser waits until closed
}

func (f *fakeScraper) ScrapeUser(ctx context.Context, username string, user history.User) (*history.History, *scrape.RunReport, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &scrape.RunReport{Username: username}, ctx.Err()
		}
	}
	report := &scrape.RunReport{Username: username, Termination: scrape.TerminationExhausted}
	if err := f.errs[username]; err != nil {
		report.Termination = scrape.TerminationError
		return history.NewHistory(user), report, err
	}
	h := f.histories[username]
	report.Films = h.Len()
	return h, report, nil
}

// stubTMDB answers every query with empty lists, which is enough for
// orchestration tests.
type stubTMDB struct{}

func (stubTMDB) SearchMovie(context.Context, string) (*tmdb.MovieList, error) {
	return &tmdb.MovieList{}, nil
}
func (stubTMDB) GetMovie(_ context.Context, id int) (*tmdb.Movie, error) {
	return &tmdb.Movie{ID: id}, nil
}
func (stubTMDB) GetRecommendations(context.Context, int, int) (*tmdb.MovieList, error) {
	return &tmdb.MovieList{}, nil
}
func (stubTMDB) GetSimilar(context.Context, int, int) (*tmdb.MovieList, error) {
	return &tmdb.MovieList{}, nil
}
func (stubTMDB) DiscoverMovies(context.Context, tmdb.DiscoverMovieOptions) (*tmdb.MovieList, error) {
	return &tmdb.MovieList{}, nil
}
func (stubTMDB) DiscoverTV(context.Context, tmdb.DiscoverTVOptions) (*tmdb.TVList, error) {
	return &tmdb.TVList{}, nil
}

func watchedHistory(user history.User, titles ...string) *history.History {
	h := history.NewHistory(user)
	for _, title := range titles {
		h.Add(history.WatchRecord{Title: title, RatingCode: 9, User: user})
	}
	return h
}

func newTestPipeline(t *testing.T, scraper scrape.Scraper) (*Pipeline, *history.Store) {
	t.Helper()
	files, err := history.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := stubTMDB{}
	resolver := tmdb.NewResolver(client, 16, time.Minute)
	rec := recommend.New(config.RecommendConfig{LovedThreshold: 4.0}, resolver, client)
	cfg := config.LetterboxdConfig{UserA: "gorg", UserB: "sali"}
	return New(cfg, scraper, rec, files, storage.New(files)), files
}

func TestRunSuccess(t *testing.T) {
	scraper := &fakeScraper{histories: map[string]*history.History{
		"gorg": watchedHistory(history.UserA, "Heat", "Alien"),
		"sali": watchedHistory(history.UserB, "Heat"),
	}}
	p, files := newTestPipeline(t, scraper)

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Outcome != OutcomeSuccess {
		t.Errorf("outcome = %q, want success", summary.Outcome)
	}
	if !files.HistoryExists("gorg") || !files.HistoryExists("sali") {
		t.Error("history CSVs not written")
	}
	for _, f := range []string{storage.GeneralFile, storage.GenreFile, storage.TVFile} {
		if !files.FileExists(f) {
			t.Errorf("%s not written", f)
		}
	}
	if summary.Users[0].Films != 2 || summary.Users[1].Films != 1 {
		t.Errorf("user films = %+v", summary.Users)
	}

	status := p.Status()
	if status.Running {
		t.Error("status still running after Run returned")
	}
	if status.LastRun == nil || status.LastRun.Outcome != OutcomeSuccess {
		t.Errorf("last run = %+v", status.LastRun)
	}
}

func TestRunFallsBackToPreviousHistory(t *testing.T) {
	// First run succeeds and persists both histories.
	ok := &fakeScraper{histories: map[string]*history.History{
		"gorg": watchedHistory(history.UserA, "Heat"),
		"sali": watchedHistory(history.UserB, "Alien"),
	}}
	p, files := newTestPipeline(t, ok)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Second run: sali's profile 403s, the stored CSV carries the run.
	failing := &fakeScraper{
		histories: map[string]*history.History{
			"gorg": watchedHistory(history.UserA, "Heat"),
		},
		errs: map[string]error{
			"sali": scrape.ErrForbidden,
		},
	}
	p2 := New(config.LetterboxdConfig{UserA: "gorg", UserB: "sali"}, failing, p.recommender, files, p.recStore)

	summary, err := p2.Run(context.Background())
	if err != nil {
		t.Fatalf("Run with fallback: %v", err)
	}
	if summary.Outcome != OutcomePartial {
		t.Errorf("outcome = %q, want partial", summary.Outcome)
	}
	if !summary.Users[1].Stale {
		t.Errorf("sali result = %+v, want stale fallback", summary.Users[1])
	}
	if summary.Users[1].Films != 1 {
		t.Errorf("sali films = %d, want 1 from stored CSV", summary.Users[1].Films)
	}
}

func TestRunFailsWithoutUsableHistory(t *testing.T) {
	scraper := &fakeScraper{
		histories: map[string]*history.History{
			"gorg": watchedHistory(history.UserA, "Heat"),
		},
		errs: map[string]error{
			"sali": scrape.ErrNotFound,
		},
	}
	p, _ := newTestPipeline(t, scraper)

	summary, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected run failure")
	}
	if summary.Outcome != OutcomeFailure {
		t.Errorf("outcome = %q, want failure", summary.Outcome)
	}
}

func TestConcurrentRunRejected(t *testing.T) {
	block := make(chan struct{})
	scraper := &fakeScraper{
		block: block,
		histories: map[string]*history.History{
			"gorg": watchedHistory(history.UserA, "Heat"),
			"sali": watchedHistory(history.UserB, "Heat"),
		},
	}
	p, _ := newTestPipeline(t, scraper)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()

	// Wait for the first run to take the lock.
	deadline := time.After(2 * time.Second)
	for {
		if p.Status().Running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first run never started")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := p.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("concurrent Run = %v, want ErrRunInProgress", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}
