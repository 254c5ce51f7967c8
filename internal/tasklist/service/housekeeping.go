package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/opentally/tasklist/internal/tasklist/store"
)

// HousekeepingService periodically deletes session rows whose tokens have
// already expired, so the session_tokens table does not grow without bound.
// It only runs when sessions have a TTL; without one every row is live until
// logout and there is nothing to sweep.
type HousekeepingService struct {
	Store      store.Store
	Logger     *slog.Logger
	SessionTTL time.Duration
	Interval   time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. An interval of zero
// or less defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, sessionTTL, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:      st,
		Logger:     logger,
		SessionTTL: sessionTTL,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down. With no session TTL configured the worker is a no-op and exits
// immediately.
func (s *HousekeepingService) Start() {
	if s.SessionTTL <= 0 {
		close(s.doneCh)
		s.Logger.Info("housekeeping disabled, sessions do not expire")
		return
	}

	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "session_ttl", s.SessionTTL)
}

// Stop gracefully shuts down the worker, blocking until any in-progress
// sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup so a long-stopped instance catches up.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	if _, err := s.PurgeExpiredSessions(context.Background()); err != nil {
		s.Logger.Error("failed to purge expired sessions", "error", err)
	}
}

// PurgeExpiredSessions deletes every session row older than the session TTL.
// Tokens on those rows already fail signature validation; this reclaims the
// storage they occupy.
func (s *HousekeepingService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.SessionTTL)

	deleted, err := s.Store.SessionTokens().DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.Logger.Info("purged expired sessions", "deleted", deleted)
	}
	return deleted, nil
}
