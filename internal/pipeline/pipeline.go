// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package pipeline orchestrates the full scrape-resolve-recommend run:
// both users' Letterboxd histories are scraped and persisted, then the
// three recommendation lists are regenerated from them. Runs are
// serialized; a trigger while a run is active is rejected instead of
// queued.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/metrics"
	"github.com/reelmates/reelmates/internal/recommend"
	"github.com/reelmates/reelmates/internal/recommend/storage"
	"github.com/reelmates/reelmates/internal/scrape"
)

// ErrRunInProgress is returned when a run is triggered while another
// is active.
var ErrRunInProgress = errors.New("pipeline: run already in progress")

// Outcome classifies a finished run.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// UserResult records one user's scrape stage.
type UserResult struct {
	Username string              `json:"username"`
	Films    int                 `json:"films"`
	Report   *scrape.RunReport   `json:"report,omitempty"`
	Error    string              `json:"error,omitempty"`
	Stale    bool                `json:"stale"` // prior CSV used after a scrape failure
}

// RunSummary is the record of one pipeline run.
type RunSummary struct {
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Duration     time.Duration `json:"duration"`
	Outcome      string        `json:"outcome"`
	Error        string        `json:"error,omitempty"`
	Users        []UserResult  `json:"users"`
	GeneralCount int           `json:"general_count"`
	GenreCount   int           `json:"genre_count"`
	TVCount      int           `json:"tv_count"`
}

// Status is the pipeline state exposed over the API.
type Status struct {
	Running bool        `json:"running"`
	LastRun *RunSummary `json:"last_run,omitempty"`
}

// Pipeline wires the scraper, resolver, recommender, and stores into
// one runnable unit.
type Pipeline struct {
	cfg         config.LetterboxdConfig
	scraper     scrape.Scraper
	recommender *recommend.Recommender
	files       *history.Store
	recStore    *storage.Store

	runMu sync.Mutex // held for the duration of a run

	stateMu sync.RWMutex
	running bool
	lastRun *RunSummary
}

// New assembles a Pipeline from its already-constructed stages.
func New(cfg config.LetterboxdConfig, scraper scrape.Scraper, recommender *recommend.Recommender, files *history.Store, recStore *storage.Store) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		scraper:     scraper,
		recommender: recommender,
		files:       files,
		recStore:    recStore,
	}
}

// Status returns a snapshot of the pipeline state.
func (p *Pipeline) Status() Status {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return Status{Running: p.running, LastRun: p.lastRun}
}

// Run executes one full pipeline pass. It returns ErrRunInProgress if
// another run holds the lock. A scrape failure for one user falls back
// to that user's previous history file when one exists; the run fails
// only when a user has no usable history at all.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	summary := &RunSummary{StartedAt: time.Now()}
	p.setRunning(true)
	defer func() {
		summary.FinishedAt = time.Now()
		summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)
		p.finish(summary)
		metrics.RecordPipelineRun(summary.Outcome, summary.Duration)
	}()

	log := logging.With().Str("component", "pipeline").Logger()
	log.Info().Str("user_a", p.cfg.UserA).Str("user_b", p.cfg.UserB).Msg("Pipeline run started")

	historyA, resultA := p.scrapeUser(ctx, p.cfg.UserA, history.UserA)
	historyB, resultB := p.scrapeUser(ctx, p.cfg.UserB, history.UserB)
	summary.Users = []UserResult{resultA, resultB}

	if historyA == nil || historyB == nil {
		summary.Outcome = OutcomeFailure
		summary.Error = "no usable watch history for one or both users"
		log.Error().Str("error", summary.Error).Msg("Pipeline run failed")
		return summary, errors.New(summary.Error)
	}
	if ctx.Err() != nil {
		summary.Outcome = OutcomeFailure
		summary.Error = ctx.Err().Error()
		return summary, ctx.Err()
	}

	if err := p.generate(ctx, historyA, historyB, summary); err != nil {
		summary.Outcome = OutcomeFailure
		summary.Error = err.Error()
		log.Error().Err(err).Msg("Recommendation stage failed")
		return summary, err
	}

	if resultA.Stale || resultB.Stale {
		summary.Outcome = OutcomePartial
	} else {
		summary.Outcome = OutcomeSuccess
	}
	log.Info().
		Str("outcome", summary.Outcome).
		Dur("duration", summary.Duration).
		Int("general", summary.GeneralCount).
		Int("genre", summary.GenreCount).
		Int("tv", summary.TVCount).
		Msg("Pipeline run finished")
	return summary, nil
}

// scrapeUser scrapes one user and persists the fresh history. On
// failure it falls back to the previous history file. A nil history
// means the user has nothing usable.
func (p *Pipeline) scrapeUser(ctx context.Context, username string, user history.User) (*history.History, UserResult) {
	result := UserResult{Username: username}
	log := logging.With().Str("component", "pipeline").Str("username", username).Logger()

	h, report, err := p.scraper.ScrapeUser(ctx, username, user)
	result.Report = report
	if err == nil && h.Len() > 0 {
		if werr := p.files.WriteHistory(username, h); werr != nil {
			log.Error().Err(werr).Msg("Failed to persist scraped history")
			result.Error = werr.Error()
		}
		result.Films = h.Len()
		return h, result
	}

	if err != nil {
		result.Error = err.Error()
		log.Warn().Err(err).Str("kind", scrape.KindOf(err).String()).Msg("Scrape failed")
	} else {
		result.Error = fmt.Sprintf("no films extracted (%s)", report.Termination)
		log.Warn().Str("termination", string(report.Termination)).Msg("Scrape produced no films")
	}

	if p.files.HistoryExists(username) {
		prev, rerr := p.files.ReadHistory(username, user)
		if rerr == nil && prev.Len() > 0 {
			log.Info().Int("films", prev.Len()).Msg("Using previous history after scrape failure")
			result.Stale = true
			result.Films = prev.Len()
			return prev, result
		}
	}
	return nil, result
}

// generate runs the recommendation stage and persists all three lists.
func (p *Pipeline) generate(ctx context.Context, a, b *history.History, summary *RunSummary) error {
	general, loved, err := p.recommender.General(ctx, a, b)
	if err != nil {
		return fmt.Errorf("general recommendations: %w", err)
	}
	if err := p.recStore.WriteGeneral(general); err != nil {
		return fmt.Errorf("write general list: %w", err)
	}
	summary.GeneralCount = len(general)
	metrics.RecommendationsWritten.WithLabelValues("general").Set(float64(len(general)))

	genre, err := p.recommender.ByGenre(ctx, a, b, loved)
	if err != nil {
		return fmt.Errorf("genre recommendations: %w", err)
	}
	if err := p.recStore.WriteGenre(genre); err != nil {
		return fmt.Errorf("write genre list: %w", err)
	}
	summary.GenreCount = len(genre)
	metrics.RecommendationsWritten.WithLabelValues("genre").Set(float64(len(genre)))

	tv, err := p.recommender.TV(ctx, a, b)
	if err != nil {
		return fmt.Errorf("tv recommendations: %w", err)
	}
	if err := p.recStore.WriteTV(tv); err != nil {
		return fmt.Errorf("write tv list: %w", err)
	}
	summary.TVCount = len(tv)
	metrics.RecommendationsWritten.WithLabelValues("tv").Set(float64(len(tv)))
	return nil
}

func (p *Pipeline) setRunning(v bool) {
	p.stateMu.Lock()
	p.running = v
	p.stateMu.Unlock()
}

func (p *Pipeline) finish(summary *RunSummary) {
	p.stateMu.Lock()
	p.running = false
	p.lastRun = summary
	p.stateMu.Unlock()
}
