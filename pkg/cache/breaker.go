package cache

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
)

// BreakerCache guards a remote Cache with a circuit breaker. After
// consecutive backend failures it stops calling the backend for a cool-down
// period, during which every Get misses and every Set or Delete is skipped.
type BreakerCache struct {
	inner Cache
	cb    *gobreaker.CircuitBreaker
}

// BreakerSettings tunes a BreakerCache. Zero fields take the defaults.
type BreakerSettings struct {
	Name     string        // default "cache"
	Failures uint32        // consecutive failures that open the breaker, default 3
	CoolDown time.Duration // how long the breaker stays open, default 30s
	Logger   *log.Logger   // receives state changes, default log.Default()
}

// NewBreakerCache wraps inner.
func NewBreakerCache(inner Cache, s BreakerSettings) *BreakerCache {
	if s.Name == "" {
		s.Name = "cache"
	}
	if s.Failures == 0 {
		s.Failures = 3
	}
	if s.CoolDown == 0 {
		s.CoolDown = 30 * time.Second
	}
	if s.Logger == nil {
		s.Logger = log.Default()
	}
	failures, logger := s.Failures, s.Logger
	return &BreakerCache{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: 1,
			Timeout:     s.CoolDown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("cache breaker", "name", name, "from", from.String(), "to", to.String())
			},
			// A cancelled request says nothing about the backend.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// Open reports whether the breaker currently skips the backend.
func (c *BreakerCache) Open() bool {
	return c.cb.State() == gobreaker.StateOpen
}

func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	type result struct {
		data []byte
		hit  bool
	}
	v, err := c.cb.Execute(func() (any, error) {
		data, hit, err := c.inner.Get(ctx, key)
		return result{data, hit}, err
	})
	if rejected(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return r.data, r.hit, nil
}

func (c *BreakerCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.inner.Set(ctx, key, data, ttl)
	})
	if rejected(err) {
		return nil
	}
	return err
}

func (c *BreakerCache) Delete(ctx context.Context, key string) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.inner.Delete(ctx, key)
	})
	if rejected(err) {
		return nil
	}
	return err
}

func (c *BreakerCache) Close() error { return c.inner.Close() }

func rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

var _ Cache = (*BreakerCache)(nil)
