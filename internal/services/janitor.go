package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionPurger removes expired sessions and reports how many were dropped.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// SessionJanitor periodically purges expired sessions from the session store.
type SessionJanitor struct {
	purger   SessionPurger
	interval time.Duration
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewSessionJanitor(purger SessionPurger, interval time.Duration, logger *zap.Logger) (*SessionJanitor, error) {
	if interval < time.Second {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &SessionJanitor{
		purger:   purger,
		interval: interval,
		logger:   logger,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			j.logger.Error("session sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule session janitor: %w", err)
	}

	return j, nil
}

// Start launches the cron scheduler.
func (j *SessionJanitor) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("session janitor started", zap.Duration("interval", j.interval))
}

// Stop waits for a running sweep to finish or ctx to expire.
func (j *SessionJanitor) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("session janitor stopped")
}

// Sweep purges expired sessions once.
func (j *SessionJanitor) Sweep(ctx context.Context) (int, error) {
	purged, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		j.logger.Info("expired sessions purged", zap.Int("count", purged))
	}
	return purged, nil
}
