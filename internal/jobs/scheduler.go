// Package jobs runs the periodic maintenance of the training admin: expired
// login sessions are purged and stored session statuses follow the calendar.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	PurgeSchedule      = "@every 30m"
	StatusSyncSchedule = "5 0 * * *"

	jobTimeout = 4 * time.Minute
)

// SessionPurger deletes login sessions past their expiry.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// StatusSyncer rewrites training session statuses derived from their dates.
type StatusSyncer interface {
	SyncStatuses(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron     *cron.Cron
	purger   SessionPurger
	syncer   StatusSyncer
	logger   *slog.Logger
	location *time.Location
}

// NewScheduler registers both jobs. A run still in progress makes the next
// tick of the same job a no-op.
func NewScheduler(purger SessionPurger, syncer StatusSyncer, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		purger:   purger,
		syncer:   syncer,
		logger:   logger.With("component", "jobs"),
		location: time.Local,
	}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if _, err := s.cron.AddFunc(PurgeSchedule, s.timed(s.runPurge)); err != nil {
		return nil, fmt.Errorf("failed to schedule session purge: %w", err)
	}
	if _, err := s.cron.AddFunc(StatusSyncSchedule, s.timed(s.runStatusSync)); err != nil {
		return nil, fmt.Errorf("failed to schedule status sync: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "purge", PurgeSchedule, "status_sync", StatusSyncSchedule)
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

// Next reports the next run of each job.
func (s *Scheduler) Next() []time.Time {
	entries := s.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Next)
	}
	return next
}

// PurgeSessions runs the session purge once and returns how many sessions it
// deleted.
func (s *Scheduler) PurgeSessions(ctx context.Context) (int64, error) {
	return s.purger.PurgeExpiredSessions(ctx)
}

// SyncStatuses runs the status sync once and returns how many sessions changed.
func (s *Scheduler) SyncStatuses(ctx context.Context) (int, error) {
	return s.syncer.SyncStatuses(ctx)
}

func (s *Scheduler) runPurge(ctx context.Context) {
	purged, err := s.PurgeSessions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Session purge failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Expired sessions purged", "count", purged)
}

func (s *Scheduler) runStatusSync(ctx context.Context) {
	changed, err := s.SyncStatuses(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Session status sync failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Session statuses synced", "changed", changed)
}

func (s *Scheduler) timed(job func(ctx context.Context)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		job(ctx)
	}
}
