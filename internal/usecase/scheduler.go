package usecase

import (
	"context"
	"log/slog"
	"time"

	"ProspectPilot/internal/ports"
)

// SessionIdleTimeout is how long an untouched chat session is kept.
const SessionIdleTimeout = 2 * time.Hour

// Janitor wires the recurring driver with chat session expiry.
type Janitor struct {
	driver   ports.Scheduler
	sessions *ChatSessions
	idle     time.Duration
	logger   *slog.Logger
}

// NewJanitor returns a helper to start/stop the sweep job.
func NewJanitor(driver ports.Scheduler, sessions *ChatSessions, idle time.Duration, logger *slog.Logger) *Janitor {
	if idle <= 0 {
		idle = SessionIdleTimeout
	}
	return &Janitor{driver: driver, sessions: sessions, idle: idle, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	if j.driver == nil || j.sessions == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if n := j.sessions.Sweep(trigger, j.idle); n > 0 && j.logger != nil {
			j.logger.Debug("expired chat sessions", "count", n)
		}
	}

	return j.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (j *Janitor) Stop(ctx context.Context) error {
	if j.driver == nil {
		return nil
	}

	return j.driver.Stop(ctx)
}
