// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/history"
	"github.com/reelmates/reelmates/internal/logging"
	"github.com/reelmates/reelmates/internal/pipeline"
	"github.com/reelmates/reelmates/internal/recommend"
	"github.com/reelmates/reelmates/internal/recommend/storage"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	files    *history.Store
	recs     *storage.Store
	pipeline *pipeline.Pipeline
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(cfg *config.Config, files *history.Store, recs *storage.Store, p *pipeline.Pipeline) *Handler {
	return &Handler{
		cfg:      cfg,
		files:    files,
		recs:     recs,
		pipeline: p,
	}
}

// healthResponse is the payload for GET /api/v1/health.
type healthResponse struct {
	Status          string     `json:"status"`
	PipelineRunning bool       `json:"pipeline_running"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	LastRunOutcome  string     `json:"last_run_outcome,omitempty"`
}

// Health reports overall service health and the last pipeline outcome.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.pipeline.Status()

	resp := healthResponse{
		Status:          "ok",
		PipelineRunning: status.Running,
	}
	if status.LastRun != nil {
		resp.LastRunAt = &status.LastRun.FinishedAt
		resp.LastRunOutcome = status.LastRun.Outcome
	}

	NewResponseWriter(w, r).Success(resp)
}

// HealthLive is a minimal liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady reports readiness. The service is ready when the data
// directory is accessible.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.files.DataDir()); err != nil {
		NewResponseWriter(w, r).ServiceUnavailable("data directory is not accessible")
		return
	}
	NewResponseWriter(w, r).Success(map[string]string{"status": "ready"})
}

// Recommendations serves the general movie recommendation list.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	h.serveMovieList(w, r, storage.GeneralFile, h.recs.ReadGeneral)
}

// GenreRecommendations serves the genre-based movie recommendation list.
func (h *Handler) GenreRecommendations(w http.ResponseWriter, r *http.Request) {
	h.serveMovieList(w, r, storage.GenreFile, h.recs.ReadGenre)
}

func (h *Handler) serveMovieList(w http.ResponseWriter, r *http.Request, filename string, read func() ([]recommend.Recommendation, error)) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	if !h.recs.Exists(filename) {
		NewResponseWriter(w, r).NotFound("No recommendations yet, run the pipeline first")
		return
	}

	recs, err := read()
	if err != nil {
		NewResponseWriter(w, r).StoreError(err)
		return
	}

	recs = applyLimit(recs, q)
	NewResponseWriter(w, r).SuccessWithCount(recs, len(recs))
}

// TVRecommendations serves the TV show recommendation list.
func (h *Handler) TVRecommendations(w http.ResponseWriter, r *http.Request) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	if !h.recs.Exists(storage.TVFile) {
		NewResponseWriter(w, r).NotFound("No recommendations yet, run the pipeline first")
		return
	}

	shows, err := h.recs.ReadTV()
	if err != nil {
		NewResponseWriter(w, r).StoreError(err)
		return
	}

	shows = applyLimit(shows, q)
	NewResponseWriter(w, r).SuccessWithCount(shows, len(shows))
}

// historyEntry is one row of a user's watch history.
type historyEntry struct {
	Title string  `json:"title"`
	Rated bool    `json:"rated"`
	Stars float64 `json:"stars,omitempty"`
}

// historyResponse is the payload for GET /api/v1/history/{user}.
type historyResponse struct {
	User     string         `json:"user"`
	Username string         `json:"username"`
	Films    []historyEntry `json:"films"`
}

// History serves one user's scraped watch history.
// The path parameter is the user slot ("a" or "b"), not the username.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user := history.User(chi.URLParam(r, "user"))
	if !user.Valid() {
		NewResponseWriter(w, r).BadRequest("user must be \"a\" or \"b\"")
		return
	}

	username := h.username(user)
	if !h.files.HistoryExists(username) {
		NewResponseWriter(w, r).NotFound("No watch history yet, run the pipeline first")
		return
	}

	hist, err := h.files.ReadHistory(username, user)
	if err != nil {
		NewResponseWriter(w, r).StoreError(err)
		return
	}

	records := hist.Records()
	films := make([]historyEntry, len(records))
	for i, rec := range records {
		films[i] = historyEntry{
			Title: rec.Title,
			Rated: rec.Rated(),
			Stars: rec.Stars(),
		}
	}

	NewResponseWriter(w, r).SuccessWithCount(historyResponse{
		User:     string(user),
		Username: username,
		Films:    films,
	}, len(films))
}

// userStats summarizes one user's watch history.
type userStats struct {
	Username string `json:"username"`
	Films    int    `json:"films"`
	Rated    int    `json:"rated"`

	// RatingDistribution maps a star rating ("3.5") to the number of
	// films the user rated at that level.
	RatingDistribution map[string]int `json:"rating_distribution"`
}

// statsResponse is the payload for GET /api/v1/stats.
type statsResponse struct {
	UserA       userStats `json:"user_a"`
	UserB       userStats `json:"user_b"`
	BothWatched int       `json:"both_watched"`
	BothLoved   int       `json:"both_loved"`
}

// Stats serves pair statistics over both users' scraped histories.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	a, err := h.readHistory(history.UserA)
	if err != nil {
		NewResponseWriter(w, r).NotFound("No watch history yet, run the pipeline first")
		return
	}
	b, err := h.readHistory(history.UserB)
	if err != nil {
		NewResponseWriter(w, r).NotFound("No watch history yet, run the pipeline first")
		return
	}

	resp := statsResponse{
		UserA:       h.statsFor(h.cfg.Letterboxd.UserA, a),
		UserB:       h.statsFor(h.cfg.Letterboxd.UserB, b),
		BothWatched: sharedTitles(a, b),
		BothLoved:   len(recommend.BothLoved(a, b, h.cfg.Recommend.LovedThreshold)),
	}

	NewResponseWriter(w, r).Success(resp)
}

func (h *Handler) statsFor(username string, hist *history.History) userStats {
	rated := 0
	for _, rec := range hist.Records() {
		if rec.Rated() {
			rated++
		}
	}

	dist := make(map[string]int)
	for stars, n := range hist.RatingDistribution() {
		dist[strconv.FormatFloat(stars, 'f', -1, 64)] = n
	}

	return userStats{
		Username:           username,
		Films:              hist.Len(),
		Rated:              rated,
		RatingDistribution: dist,
	}
}

func (h *Handler) readHistory(user history.User) (*history.History, error) {
	return h.files.ReadHistory(h.username(user), user)
}

func (h *Handler) username(user history.User) string {
	if user == history.UserA {
		return h.cfg.Letterboxd.UserA
	}
	return h.cfg.Letterboxd.UserB
}

// sharedTitles counts titles present in both histories by normalized title.
func sharedTitles(a, b *history.History) int {
	titles := a.NormalizedTitles()
	shared := 0
	for title := range b.NormalizedTitles() {
		if _, ok := titles[title]; ok {
			shared++
		}
	}
	return shared
}

// PipelineStatus serves the current pipeline run state.
func (h *Handler) PipelineStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.pipeline.Status())
}

// PipelineRun triggers a pipeline run in the background.
// Returns 409 if a run is already in progress.
func (h *Handler) PipelineRun(w http.ResponseWriter, r *http.Request) {
	if h.pipeline.Status().Running {
		NewResponseWriter(w, r).Conflict("A pipeline run is already in progress")
		return
	}

	go func() {
		ctx := context.Background()
		if timeout := h.cfg.Pipeline.RunTimeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if _, err := h.pipeline.Run(ctx); err != nil {
			logging.Error().Err(err).Msg("Pipeline run triggered via API failed")
		}
	}()

	NewResponseWriter(w, r).Accepted(map[string]string{"status": "started"})
}
