// Package clock owns the simulated "current day" counter. Time in this system
// only moves when an operator calls the advance endpoint, so campaign
// lifecycles can be exercised deterministically.
package clock

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openadsim/openadsim/internal/models"
)

// Clock reads and advances the simulated day. Advance is idempotent for the
// current day and rejects moving backward.
type Clock interface {
	CurrentDay(ctx context.Context) (int, error)
	Advance(ctx context.Context, newDay int) error
}

const dayKey = "day"

// advanceScript sets the day only if it does not move backward. The check and
// the set must be a single Redis operation so concurrent advances cannot
// interleave.
var advanceScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local new = tonumber(ARGV[1])
if new < cur then
  return -1
end
redis.call('SET', KEYS[1], new)
return new
`)

// RedisClock keeps the day counter in Redis so every instance observes the
// same simulated time.
type RedisClock struct {
	client *redis.Client
}

// InitRedis connects to Redis, instruments the client for tracing and resets
// the day counter to zero.
func InitRedis(addr string) (*RedisClock, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := client.Set(ctx, dayKey, 0, 0).Err(); err != nil {
		return nil, fmt.Errorf("reset day counter: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return &RedisClock{client: client}, nil
}

// NewRedisClock wraps an existing client. The day counter is left as-is;
// tests use this with miniredis.
func NewRedisClock(client *redis.Client) *RedisClock {
	return &RedisClock{client: client}
}

// CurrentDay returns the current simulated day, defaulting to zero when the
// counter has never been set.
func (c *RedisClock) CurrentDay(ctx context.Context) (int, error) {
	day, err := c.client.Get(ctx, dayKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read day: %v", models.ErrStorageUnavailable, err)
	}
	return day, nil
}

// Advance moves the day forward. Setting the same day again is a no-op;
// moving backward fails with ErrInvalidTransition and leaves the day
// unchanged.
func (c *RedisClock) Advance(ctx context.Context, newDay int) error {
	res, err := advanceScript.Run(ctx, c.client, []string{dayKey}, newDay).Int()
	if err != nil {
		return fmt.Errorf("%w: advance day: %v", models.ErrStorageUnavailable, err)
	}
	if res < 0 {
		return fmt.Errorf("%w: day must not move backward", models.ErrInvalidTransition)
	}
	return nil
}

// Close shuts down the underlying Redis client.
func (c *RedisClock) Close() {
	if c != nil && c.client != nil {
		if err := c.client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}

// Fixed is an in-process Clock for tests and the storage-free dev mode.
type Fixed struct {
	mu  sync.Mutex
	day int
}

// NewFixed returns a Fixed clock set to the given day.
func NewFixed(day int) *Fixed {
	return &Fixed{day: day}
}

func (f *Fixed) CurrentDay(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.day, nil
}

func (f *Fixed) Advance(ctx context.Context, newDay int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if newDay < f.day {
		return fmt.Errorf("%w: day must not move backward", models.ErrInvalidTransition)
	}
	f.day = newDay
	return nil
}
