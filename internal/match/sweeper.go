package match

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper reconciles matches whose timers were lost to a process restart:
// pending matches past the defensive age become cancelled through the
// acceptance-timeout path, active matches past the draw deadline complete
// as draws. Both paths re-check state under the per-match lock, so sweeping
// a healthy match is a no-op.
type Sweeper struct {
	service       *Service
	interval      time.Duration
	pendingMaxAge time.Duration
	logger        zerolog.Logger
}

// NewSweeper creates the background reconciler.
func NewSweeper(service *Service, interval, pendingMaxAge time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if pendingMaxAge <= 0 {
		pendingMaxAge = 5 * time.Minute
	}
	return &Sweeper{
		service:       service,
		interval:      interval,
		pendingMaxAge: pendingMaxAge,
		logger:        logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sw.sweep(ctx)
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	stalePending, err := sw.service.matches.ListStale(ctx, StatusPending, now.Add(-sw.pendingMaxAge))
	if err != nil {
		sw.logger.Error().Err(err).Msg("list stale pending matches")
	}
	for _, m := range stalePending {
		if err := sw.service.HandleAcceptanceTimeout(ctx, m.ID); err != nil {
			sw.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("sweep pending match")
			continue
		}
		sweeperReconciled.Inc()
	}

	staleActive, err := sw.service.matches.ListStale(ctx, StatusActive, now.Add(-sw.service.DrawTimeout()))
	if err != nil {
		sw.logger.Error().Err(err).Msg("list stale active matches")
	}
	for _, m := range staleActive {
		if err := sw.service.HandleDrawTimeout(ctx, m.ID); err != nil {
			sw.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("sweep active match")
			continue
		}
		sweeperReconciled.Inc()
	}
}
