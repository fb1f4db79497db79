package match

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Locker serializes state-machine inputs per match.
type Locker interface {
	// Lock blocks until the per-match critical section is acquired and
	// returns the release function.
	Lock(ctx context.Context, matchID uuid.UUID) (func(), error)
}

// RedisLocker implements Locker with a SetNX lease in the queue store so the
// critical section holds across nodes. The lease expires after 30s in case a
// holder dies mid-transition.
type RedisLocker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewRedisLocker creates a distributed per-match locker.
func NewRedisLocker(redis *redis.Client, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{redis: redis, logger: logger}
}

const (
	lockTTL        = 30 * time.Second
	lockRetryDelay = 50 * time.Millisecond
	lockWaitMax    = 5 * time.Second
)

// Lock acquires the per-match lease, retrying until acquired, the wait cap
// elapses, or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, matchID uuid.UUID) (func(), error) {
	key := "match:lock:" + matchID.String()
	lockValue := uuid.NewString()

	deadline := time.Now().Add(lockWaitMax)
	for {
		acquired, err := l.redis.SetNX(ctx, key, lockValue, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire match lock: %w", err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("match lock wait exceeded")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	unlock := func() {
		// Lua script ensures we only delete our own lease.
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		if err := l.redis.Eval(context.Background(), script, []string{key}, lockValue).Err(); err != nil {
			l.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("failed to release match lock")
		}
	}

	return unlock, nil
}
