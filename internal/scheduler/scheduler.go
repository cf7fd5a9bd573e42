// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scheduler runs each configured job on its own interval loop,
// serializing all job bodies behind a single process-wide mutex.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/silentesc/torrent-cleaner-go/internal/notifier"
	"github.com/silentesc/torrent-cleaner-go/internal/strikestore"
)

// Disabled is the interval_hours sentinel that turns a job off entirely.
const Disabled = -1

// UseDefault is the interval_hours sentinel that substitutes DefaultIntervalHours.
const UseDefault = 0

// Handler is a single job run. It receives the mutex-protected window and
// must not spawn work that outlives it.
type Handler func(ctx context.Context) error

// Job describes one schedulable unit.
type Job struct {
	Name                 string
	IntervalHours        int
	DefaultIntervalHours int
	Handler              Handler
}

// Scheduler owns the shared mutex G and the set of configured jobs.
type Scheduler struct {
	store    *strikestore.Store
	notifier *notifier.Notifier
	log      zerolog.Logger

	onJobError bool

	g sync.Mutex

	wg sync.WaitGroup
}

// New builds a Scheduler. onJobError controls whether a handler error
// triggers a best-effort notification.
func New(store *strikestore.Store, n *notifier.Notifier, log zerolog.Logger, onJobError bool) *Scheduler {
	return &Scheduler{store: store, notifier: n, log: log, onJobError: onJobError}
}

// Run starts one goroutine per job and blocks until ctx is cancelled and
// every in-flight handler has drained.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) {
	for _, job := range jobs {
		job := job
		if job.IntervalHours == Disabled {
			s.log.Info().Str("job", job.Name).Msg("job disabled")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}()
	}
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	interval := job.IntervalHours
	if interval == UseDefault {
		interval = job.DefaultIntervalHours
	}
	intervalDuration := time.Duration(interval) * time.Hour

	for {
		sleep := s.computeSleep(ctx, job.Name, intervalDuration)
		if err := sleepCtx(ctx, sleep); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		// Last-run is persisted before acquiring G: it must tolerate
		// concurrent upsert from whichever jobs wake around the same
		// moment, scoped by job_name, independent of the single-flight
		// mutex that serializes handler bodies.
		if err := s.store.SetLastJobRun(ctx, job.Name, time.Now()); err != nil {
			s.log.Error().Err(err).Str("job", job.Name).Msg("failed to persist last run")
		}

		s.g.Lock()
		err := s.runHandlerSafely(ctx, job)
		s.g.Unlock()

		if err != nil {
			s.log.Error().Err(err).Str("job", job.Name).Msg("job run failed")
			if s.onJobError && s.notifier != nil {
				notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				if sendErr := s.notifier.Send(notifyCtx, "Job error", job.Name, nil); sendErr != nil {
					s.log.Warn().Err(sendErr).Msg("failed to send job error notification")
				}
				cancel()
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// runHandlerSafely recovers a handler panic into an error so one job's bug
// can never stop the loop or another job.
func (s *Scheduler) runHandlerSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{job: job.Name, value: r}
		}
	}()
	return job.Handler(ctx)
}

type panicError struct {
	job   string
	value interface{}
}

func (e panicError) Error() string {
	return "job " + e.job + " panicked: " + toString(e.value)
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic"
}

// computeSleep derives the wait before the next run from the persisted
// last-run time: max(0, interval - elapsed), or the full interval if no
// prior run is recorded.
func (s *Scheduler) computeSleep(ctx context.Context, jobName string, interval time.Duration) time.Duration {
	lastRun, err := s.store.GetLastJobRun(ctx, jobName)
	if err != nil || lastRun.IsZero() {
		return interval
	}
	remaining := interval - time.Since(lastRun)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
