package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
)

// HousekeepingService periodically purges expired liveness entries from
// revocation drivers that do not expire keys on their own.
type HousekeepingService struct {
	Purger   revocation.Purger
	Logger   *slog.Logger
	Interval time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 10 minutes.
func NewHousekeepingService(purger revocation.Purger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &HousekeepingService{
		Purger:   purger,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress purge.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	removed, err := s.Purger.Purge(ctx, s.Now())
	if err != nil {
		s.Logger.Error("failed to purge expired tokens", "error", err)
		return
	}
	s.Logger.Debug("housekeeping cleanup completed", "purged", removed)
}
