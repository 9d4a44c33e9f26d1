// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name            string
	description     string
	defaultSchedule string
	schedule        string // effective schedule
	entryID         cron.EntryID
	jobFunc         func()
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name            string
	Description     string
	DefaultSchedule string
	Schedule        string
	IsOverridden    bool
	LastRun         time.Time
	NextRun         time.Time
}

// Registry tracks the jobs of one cron instance so they can be listed,
// run on demand and rescheduled.
type Registry struct {
	cron   *cron.Cron
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]*registeredJob
}

// NewRegistry creates a registry over c.
func NewRegistry(c *cron.Cron, logger *slog.Logger) *Registry {
	return &Registry{
		cron:   c,
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add schedules fn and records it under name.
func (r *Registry) Add(name, description, schedule string, fn func()) error {
	if _, err := ParseSchedule(schedule); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[name]; ok {
		return fmt.Errorf("job already registered: %s", name)
	}
	entryID, err := r.cron.AddFunc(schedule, fn)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	r.jobs[name] = &registeredJob{
		name:            name,
		description:     description,
		defaultSchedule: schedule,
		schedule:        schedule,
		entryID:         entryID,
		jobFunc:         fn,
	}

	r.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		entry := r.cron.Entry(job.entryID)
		result = append(result, JobInfo{
			Name:            job.name,
			Description:     job.description,
			DefaultSchedule: job.defaultSchedule,
			Schedule:        job.schedule,
			IsOverridden:    job.schedule != job.defaultSchedule,
			NextRun:         entry.Next,
			LastRun:         entry.Prev,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job immediately in the calling goroutine.
func (r *Registry) TriggerNow(name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	r.logger.Info("manually triggering job", "name", name)
	job.jobFunc()
	return nil
}

// UpdateSchedule replaces the cron entry of a job with newSchedule. On an
// invalid expression the old schedule stays in effect.
func (r *Registry) UpdateSchedule(name, newSchedule string) error {
	if _, err := ParseSchedule(newSchedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}
	return r.reschedule(job, newSchedule)
}

// ResetSchedule restores the schedule the job was registered with.
func (r *Registry) ResetSchedule(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}
	if job.schedule == job.defaultSchedule {
		return nil // Already at default
	}
	return r.reschedule(job, job.defaultSchedule)
}

// reschedule must be called with r.mu held.
func (r *Registry) reschedule(job *registeredJob, schedule string) error {
	r.cron.Remove(job.entryID)
	entryID, err := r.cron.AddFunc(schedule, job.jobFunc)
	if err != nil {
		// Re-add with old schedule on failure
		fallbackID, fallbackErr := r.cron.AddFunc(job.schedule, job.jobFunc)
		if fallbackErr != nil {
			return fmt.Errorf("critical: failed to restore schedule after update failure: %w (original: %w)", fallbackErr, err)
		}
		job.entryID = fallbackID
		return fmt.Errorf("failed to apply new schedule: %w", err)
	}

	job.entryID = entryID
	job.schedule = schedule
	r.logger.Info("updated job schedule", "name", job.name, "schedule", schedule)
	return nil
}

// Remove stops a job and forgets it.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[name]
	if !ok {
		return
	}
	r.cron.Remove(job.entryID)
	delete(r.jobs, name)
	r.logger.Debug("unregistered scheduled job", "name", name)
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a standard five-field cron expression or a
// descriptor such as "@daily" or "@every 10m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return s, nil
}
