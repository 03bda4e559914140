package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCacheFromClient(client, "test:")
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("report"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("test:k") {
		t.Error("key should be stored with prefix")
	}

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "report" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestRedis(t)

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if ttl := mr.TTL("test:k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired key should miss")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	c, err := NewRedisCache(ctx, addr)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	mr.Close()
	_, _, err = c.Get(ctx, "k")
	if err == nil || !IsRetryable(err) {
		t.Errorf("Get on closed server = %v, want retryable error", err)
	}

	if _, err := NewRedisCache(ctx, addr); err == nil {
		t.Error("NewRedisCache should fail when the server is down")
	}
}
