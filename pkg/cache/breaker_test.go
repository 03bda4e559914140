package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// flakyCache fails every call while down is set.
type flakyCache struct {
	down  bool
	calls int
	data  map[string][]byte
}

func (f *flakyCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.calls++
	if f.down {
		return nil, false, ErrUnavailable
	}
	d, ok := f.data[key]
	return d, ok, nil
}

func (f *flakyCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	f.calls++
	if f.down {
		return ErrUnavailable
	}
	f.data[key] = data
	return nil
}

func (f *flakyCache) Delete(context.Context, string) error { return nil }
func (f *flakyCache) Close() error                         { return nil }

func TestBreakerCacheOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &flakyCache{down: true, data: map[string][]byte{}}
	c := NewBreakerCache(inner, BreakerSettings{
		Failures: 2,
		CoolDown: 50 * time.Millisecond,
		Logger:   log.New(io.Discard),
	})

	for range 2 {
		if _, _, err := c.Get(ctx, "k"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("Get while closed = %v, want ErrUnavailable", err)
		}
	}
	if !c.Open() {
		t.Fatal("breaker should be open after 2 failures")
	}

	calls := inner.calls
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get while open = %v, %v; want a clean miss", hit, err)
	}
	if err := c.Set(ctx, "k", []byte(`1`), time.Minute); err != nil {
		t.Errorf("Set while open = %v, want nil", err)
	}
	if inner.calls != calls {
		t.Errorf("open breaker called the backend %d times", inner.calls-calls)
	}

	inner.down = false
	time.Sleep(80 * time.Millisecond)
	if err := c.Set(ctx, "k", []byte(`1`), time.Minute); err != nil {
		t.Fatalf("Set after cool-down: %v", err)
	}
	if c.Open() {
		t.Error("a successful probe should close the breaker")
	}
	if data, hit, _ := c.Get(ctx, "k"); !hit || string(data) != "1" {
		t.Errorf("Get after recovery = %q, %v", data, hit)
	}
}

func TestBreakerCacheIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &cancelCache{}
	c := NewBreakerCache(inner, BreakerSettings{Failures: 1, Logger: log.New(io.Discard)})
	for range 3 {
		_, _, _ = c.Get(ctx, "k")
	}
	if c.Open() {
		t.Error("cancelled requests should not open the breaker")
	}
}

type cancelCache struct{ NullCache }

func (cancelCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	return nil, false, ctx.Err()
}
