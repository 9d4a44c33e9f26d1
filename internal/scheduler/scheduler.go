// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs of the web server:
// re-reading the cached glossary data and pruning old events.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobRefreshGlossary = "refresh-glossary"
	JobPruneEvents     = "prune-events"
)

// DefaultPruneSchedule runs event pruning once a night.
const DefaultPruneSchedule = "30 3 * * *"

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// Warmer reloads cached listing data. *cache.Glossary implements it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// EventPruner deletes persisted events older than a cutoff.
// *service.EventService implements it.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config selects which jobs run and when. Empty schedules disable a job.
type Config struct {
	RefreshSchedule string
	PruneSchedule   string
	EventRetention  time.Duration
}

// Scheduler handles the background maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger),
		logger:   logger,
	}
}

// Registry exposes the registered jobs.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Register adds the glossary refresh and event pruning jobs.
func (s *Scheduler) Register(cfg Config, warmer Warmer, pruner EventPruner) error {
	if warmer != nil && cfg.RefreshSchedule != "" {
		err := s.registry.Add(JobRefreshGlossary, "Reload categories and statistics from the glossary API",
			cfg.RefreshSchedule, s.wrap(JobRefreshGlossary, warmer.Warm))
		if err != nil {
			return err
		}
	}

	if pruner != nil && cfg.PruneSchedule != "" && cfg.EventRetention > 0 {
		prune := func(ctx context.Context) error {
			n, err := pruner.DeleteOldEvents(ctx, cfg.EventRetention)
			if err != nil {
				return fmt.Errorf("deleting old events: %w", err)
			}
			if n > 0 {
				s.logger.Info("pruned old events", "deleted", n, "retention", cfg.EventRetention)
			}
			return nil
		}
		err := s.registry.Add(JobPruneEvents, "Delete events older than the retention period",
			cfg.PruneSchedule, s.wrap(JobPruneEvents, prune))
		if err != nil {
			return err
		}
	}
	return nil
}

// wrap adapts a context-aware job to cron, bounding it with jobTimeout
// and logging failures.
func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
	}
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
