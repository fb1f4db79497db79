package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/match"
)

// PairTarget is what the consumer hands formed pairs to: the match state
// machine, plus the re-verification read that guards against races with
// concurrent enqueues on another node.
type PairTarget interface {
	HasOpenMatch(ctx context.Context, userID uuid.UUID) (bool, error)
	CreatePending(ctx context.Context, player1ID, player2ID uuid.UUID) (*match.Match, error)
}

// Consumer drives pair formation: a single logical loop that ticks once per
// interval and additionally whenever Wake is called. Each tick is restartable
// and idempotent; a crash between steps leaves at worst an orphan marker the
// next tick or a user cancel reconciles.
type Consumer struct {
	manager  *Manager
	target   PairTarget
	interval time.Duration
	wakeCh   chan struct{}
	logger   zerolog.Logger
}

// NewConsumer creates the pair-formation loop.
func NewConsumer(manager *Manager, target PairTarget, interval time.Duration, logger zerolog.Logger) *Consumer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Consumer{
		manager:  manager,
		target:   target,
		interval: interval,
		wakeCh:   make(chan struct{}, 1),
		logger:   logger,
	}
}

// Wake nudges the loop to tick without waiting for the interval. Safe to
// call from any goroutine; extra wakes coalesce.
func (c *Consumer) Wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
	}
}

// Run ticks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-c.wakeCh:
		}

		if err := c.Tick(ctx); err != nil {
			c.logger.Error().Err(err).Msg("matchmaking tick failed")
		}
	}
}

// Tick reads the whole queue, forms pairs nearest-by-rating, and creates a
// pending match per pair. Both players are re-verified against the store
// right before pairing; a player no longer free is dropped from the queue
// instead of paired.
func (c *Consumer) Tick(ctx context.Context) error {
	entries, err := c.manager.Entries(ctx)
	if err != nil {
		return err
	}
	if len(entries) < 2 {
		return nil
	}

	for _, pair := range FormPairs(entries) {
		busy1, err := c.target.HasOpenMatch(ctx, pair.Player1.UserID)
		if err != nil {
			c.logger.Error().Err(err).Msg("re-verify player1 failed, skipping pair")
			continue
		}
		busy2, err := c.target.HasOpenMatch(ctx, pair.Player2.UserID)
		if err != nil {
			c.logger.Error().Err(err).Msg("re-verify player2 failed, skipping pair")
			continue
		}
		if busy1 || busy2 {
			// Evict whoever got a match elsewhere; the free player stays
			// queued for the next tick.
			if busy1 {
				c.manager.Cancel(ctx, pair.Player1.UserID)
			}
			if busy2 {
				c.manager.Cancel(ctx, pair.Player2.UserID)
			}
			continue
		}

		m, err := c.target.CreatePending(ctx, pair.Player1.UserID, pair.Player2.UserID)
		if err != nil {
			c.logger.Error().Err(err).
				Str("player1_id", pair.Player1.UserID.String()).
				Str("player2_id", pair.Player2.UserID.String()).
				Msg("create pending match failed")
			continue
		}

		if err := c.manager.RemovePaired(ctx, pair); err != nil {
			c.logger.Error().Err(err).Str("match_id", m.ID.String()).Msg("remove paired entries failed")
		}
	}

	return nil
}
