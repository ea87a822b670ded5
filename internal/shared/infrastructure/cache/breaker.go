package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("cache unavailable")

// BreakerConfig tunes the circuit breaker in front of a cache backend.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// DefaultBreakerConfig trips after 5 consecutive failures and retries after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// BreakerCache guards a backend with a circuit breaker so an unreachable
// cache costs one fast error instead of a network timeout per request.
type BreakerCache struct {
	next    Cache
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerCache wraps next.
func NewBreakerCache(next Cache, cfg BreakerConfig, logger *slog.Logger) *BreakerCache {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "cache",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerCache{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.run(func() ([]byte, error) { return c.next.Get(ctx, key) })
}

func (c *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.run(func() ([]byte, error) { return nil, c.next.Set(ctx, key, value, ttl) })
	return err
}

func (c *BreakerCache) Delete(ctx context.Context, keys ...string) error {
	_, err := c.run(func() ([]byte, error) { return nil, c.next.Delete(ctx, keys...) })
	return err
}

// State reports the breaker state for health checks.
func (c *BreakerCache) State() string {
	return c.breaker.State().String()
}

func (c *BreakerCache) run(fn func() ([]byte, error)) ([]byte, error) {
	val, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return val, err
}
