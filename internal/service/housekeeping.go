package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/adlume/authd/internal/metrics"
	"github.com/adlume/authd/internal/store"
)

// HousekeepingService periodically deletes expired refresh and password
// reset tokens so the token tables do not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	Interval time.Duration

	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. A non-positive interval
// defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, rec metrics.Recorder, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Metrics:  rec,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *HousekeepingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start launches the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep has
// finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First sweep runs immediately on startup.
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes expired rows once. Failures in one table do not stop
// the other.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := s.now()

	if err := s.Store.RefreshTokens().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
	}

	if err := s.Store.ResetTokens().DeleteExpired(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	}

	s.Metrics.RecordHousekeepingSweep()
	s.Logger.Debug("housekeeping sweep completed")
}
