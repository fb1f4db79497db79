package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// queueKey is the sorted set of serialized entries, scored by enqueue
	// time in epoch seconds.
	queueKey = "matchmaking_queue"
	// userKeyPrefix guards one-entry-per-user; the string key carries the
	// serialized entry so cancel can remove the set member without a scan.
	userKeyPrefix = "queue:user:"
)

var queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "algorumble_queue_depth",
	Help: "Players currently waiting in the matchmaking queue.",
})

// Manager owns the queue store keys: the sorted set of entries and the
// per-user uniqueness markers. The marker and the set member are written and
// removed together; an orphan of either is reconciled by the next tick or an
// explicit cancel.
type Manager struct {
	redis    *redis.Client
	entryTTL time.Duration
	logger   zerolog.Logger
}

// NewManager creates a matchmaking queue manager.
func NewManager(redis *redis.Client, entryTTL time.Duration, logger zerolog.Logger) *Manager {
	if entryTTL <= 0 {
		entryTTL = time.Hour
	}
	return &Manager{redis: redis, entryTTL: entryTTL, logger: logger}
}

func userKey(userID uuid.UUID) string {
	return userKeyPrefix + userID.String()
}

// Enqueue adds a player to the queue. Returns false when the uniqueness
// marker says they are already waiting.
func (m *Manager) Enqueue(ctx context.Context, userID uuid.UUID, userRating int) (bool, error) {
	entry := Entry{UserID: userID, Rating: userRating, EnqueuedAt: time.Now().UTC()}
	raw, err := entry.Encode()
	if err != nil {
		return false, err
	}

	ok, err := m.redis.SetNX(ctx, userKey(userID), raw, m.entryTTL).Result()
	if err != nil {
		return false, fmt.Errorf("set queue marker: %w", err)
	}
	if !ok {
		return false, nil
	}

	score := float64(entry.EnqueuedAt.Unix())
	if err := m.redis.ZAdd(ctx, queueKey, redis.Z{Score: score, Member: raw}).Err(); err != nil {
		// Roll the marker back so the user is not locked out of the queue.
		m.redis.Del(ctx, userKey(userID))
		return false, fmt.Errorf("add queue entry: %w", err)
	}

	m.logger.Info().
		Str("user_id", userID.String()).
		Int("rating", userRating).
		Msg("player enqueued")
	return true, nil
}

// Cancel removes a player from the queue. Returns false when no entry was
// present.
func (m *Manager) Cancel(ctx context.Context, userID uuid.UUID) (bool, error) {
	raw, err := m.redis.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get queue marker: %w", err)
	}

	removed, err := m.redis.ZRem(ctx, queueKey, raw).Result()
	if err != nil {
		return false, fmt.Errorf("remove queue entry: %w", err)
	}
	if err := m.redis.Del(ctx, userKey(userID)).Err(); err != nil {
		return false, fmt.Errorf("remove queue marker: %w", err)
	}

	m.logger.Info().Str("user_id", userID.String()).Msg("player dequeued")
	return removed > 0, nil
}

// Entries returns the full queue in ascending enqueue order, pruning
// anything older than the entry TTL on the way.
func (m *Manager) Entries(ctx context.Context) ([]Entry, error) {
	cutoff := time.Now().UTC().Add(-m.entryTTL)
	if err := m.redis.ZRemRangeByScore(ctx, queueKey, "-inf", fmt.Sprintf("%d", cutoff.Unix())).Err(); err != nil {
		return nil, fmt.Errorf("prune queue: %w", err)
	}

	raws, err := m.redis.ZRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		entry, err := DecodeEntry(raw)
		if err != nil {
			m.logger.Warn().Err(err).Msg("dropping unparsable queue entry")
			m.redis.ZRem(ctx, queueKey, raw)
			continue
		}
		entries = append(entries, entry)
	}

	queueDepth.Set(float64(len(entries)))
	return entries, nil
}

// RemovePaired deletes both sides of a formed pair: set members and
// uniqueness markers together.
func (m *Manager) RemovePaired(ctx context.Context, pair Pair) error {
	for _, entry := range []Entry{pair.Player1, pair.Player2} {
		raw, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := m.redis.ZRem(ctx, queueKey, raw).Err(); err != nil {
			return fmt.Errorf("remove paired entry: %w", err)
		}
		if err := m.redis.Del(ctx, userKey(entry.UserID)).Err(); err != nil {
			return fmt.Errorf("remove paired marker: %w", err)
		}
	}
	return nil
}

// IsQueued reports whether the uniqueness marker exists for a user.
func (m *Manager) IsQueued(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := m.redis.Exists(ctx, userKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check queue marker: %w", err)
	}
	return n > 0, nil
}
