// Package scheduler runs periodic maintenance jobs for the server.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// SessionCleaner removes expired operator sessions.
type SessionCleaner interface {
	CleanupExpiredSessions() (int64, error)
}

// Scheduler manages scheduled tasks for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionCleaner
	interval  time.Duration
}

// New creates a scheduler that purges expired sessions every interval.
func New(sessions SessionCleaner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		interval:  interval,
	}
}

// Start begins running all scheduled tasks without blocking.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.cleanupSessions); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) cleanupSessions() {
	n, err := s.sessions.CleanupExpiredSessions()
	if err != nil {
		slog.Error("failed to clean up expired sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Info("removed expired sessions", "count", n)
	}
}
