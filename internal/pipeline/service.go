// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/reelmates/reelmates/internal/config"
	"github.com/reelmates/reelmates/internal/logging"
)

// Service runs the pipeline under supervision: optionally once at
// startup, then on a fixed interval. Manual API triggers go straight
// to Pipeline.Run and share the same run lock.
type Service struct {
	pipeline *Pipeline
	cfg      config.PipelineConfig
	name     string
}

// NewService creates the supervised pipeline scheduler.
func NewService(p *Pipeline, cfg config.PipelineConfig) *Service {
	return &Service{pipeline: p, cfg: cfg, name: "pipeline-scheduler"}
}

// Serve implements suture.Service. It returns only when the context
// is canceled; scheduler errors are logged, not fatal, so a bad run
// never restarts the whole tree.
func (s *Service) Serve(ctx context.Context) error {
	log := logging.With().Str("component", "pipeline-scheduler").Logger()

	if s.cfg.RunOnStartup {
		s.runOnce(ctx)
	}

	if s.cfg.Interval <= 0 {
		log.Info().Msg("No run interval configured, scheduler idle")
		<-ctx.Done()
		return ctx.Err()
	}

	log.Info().Dur("interval", s.cfg.Interval).Msg("Pipeline scheduler started")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// runOnce executes one run with the configured timeout. A run already
// in progress is skipped, not queued.
func (s *Service) runOnce(ctx context.Context) {
	runCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	_, err := s.pipeline.Run(runCtx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		logging.Warn().Msg("Scheduled run skipped, previous run still active")
	default:
		logging.Error().Err(err).Msg("Scheduled pipeline run failed")
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *Service) String() string {
	return s.name
}
