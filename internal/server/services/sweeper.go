package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/logging"
)

// Sweep purges sessions that expired at or before now.
func (s *SessionService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.rm.Sessions(s.db).DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired sessions: %w", err)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is cancelled. Errors are
// logged and the loop keeps going.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration, now func() time.Time) {
	log := logging.FromContext(ctx, s.logger).With("component", "sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx, now())
			if err != nil {
				log.Error(ctx, "sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info(ctx, "swept expired sessions", "count", n)
			}
		}
	}
}
