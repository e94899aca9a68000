package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/store"
)

// HousekeepingService periodically deletes resolved handshakes and swept
// bans so the tables don't grow without bound. Lazy, read-triggered expiry
// remains the semantic mechanism; this worker is storage hygiene only.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. Interval defaults to 1 hour,
// retention to 24 hours.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop shuts the worker down, blocking until any in-progress cleanup ends.
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

// cleanup deletes stale rows. Both deletes run in one transaction so a pass
// either reclaims a consistent cutoff or leaves everything for the next tick.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-s.Retention)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Handshakes().DeleteResolvedBefore(ctx, cutoff); err != nil {
			return fmt.Errorf("delete resolved handshakes: %w", err)
		}
		if err := tx.Bans().DeleteExpiredBefore(ctx, cutoff); err != nil {
			return fmt.Errorf("delete expired bans: %w", err)
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("housekeeping cleanup failed", "error", err)
		return
	}

	s.Logger.Debug("housekeeping cleanup completed", "cutoff", cutoff)
}
