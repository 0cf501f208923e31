// Copyright 2025 Perseid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package schedule triggers the nightly batch run.
//
// The scheduler sleeps until the configured wall-clock time, reloads
// the processing settings, and hands a normal-priority batch request to
// the orchestrator under the system identity. Runs missed while the
// process was down are not backfilled; the next scheduled time is
// always computed from the current clock.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/perseid/argos/access"
	"github.com/perseid/argos/core"
	"github.com/perseid/argos/orchestrate"
	"github.com/perseid/argos/storage"
)

// Runner is the part of the orchestrator the scheduler drives.
type Runner interface {
	Run(ctx context.Context, req orchestrate.Request) (*core.BatchReport, error)
}

// Scheduler fires one batch run per day at the configured time.
type Scheduler struct {
	runner   Runner
	settings storage.SettingsRepository
	logger   *slog.Logger
	nowFn    func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNowFunc overrides the scheduler's clock. Intended for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler driving the given runner.
func NewScheduler(runner Runner, settings storage.SettingsRepository, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		settings: settings,
		logger:   slog.Default().With("component", "scheduler"),
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextRun returns the next occurrence of hour:minute strictly after now,
// in now's location.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run loops until ctx is cancelled, firing one batch run at each
// scheduled time. Settings are reloaded before every sleep and before
// every run, so schedule changes and the scheduled-processing toggle
// take effect without a restart.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started")
	for {
		settings, err := s.settings.Load(ctx)
		if err != nil {
			s.logger.Error("failed to load settings, retrying in a minute", "err", err)
			if !s.sleep(ctx, time.Minute) {
				return
			}
			continue
		}

		now := s.nowFn()
		next := nextRun(now, settings.ScheduleHour, settings.ScheduleMinute)
		s.logger.Debug("next scheduled run", "at", next)
		if !s.sleep(ctx, next.Sub(now)) {
			s.logger.Info("scheduler stopped")
			return
		}

		s.fire(ctx)
	}
}

// fire executes one scheduled batch run if scheduled processing is enabled.
func (s *Scheduler) fire(ctx context.Context) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		s.logger.Error("skipping scheduled run, settings unavailable", "err", err)
		return
	}
	if !settings.ScheduledProcessing {
		s.logger.Info("scheduled processing disabled, skipping run")
		return
	}

	// The nightly run is the only place the configured batch size
	// applies; on-demand triggers bound themselves with an explicit
	// limit or not at all.
	report, err := s.runner.Run(ctx, orchestrate.Request{
		Caller:    access.SystemCaller,
		Scheduled: true,
		Limit:     settings.BatchSize,
	})
	if err != nil {
		s.logger.Error("scheduled run failed", "err", err)
		return
	}
	s.logger.Info("scheduled run complete",
		"eligible", report.Eligible,
		"enqueued", report.Enqueued,
		"already_queued", report.AlreadyQueued,
		"skipped_orphans", report.SkippedOrphans)
}

// sleep waits for d or until ctx is cancelled. Reports whether the full
// duration elapsed.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
