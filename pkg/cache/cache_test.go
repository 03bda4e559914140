package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func init() {
	DefaultBackoff.Delay = time.Millisecond
}

var errPermanent = errors.New("permanent")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("missing key should miss")
	}

	if err := c.Set(ctx, "k", []byte(`{"islands":3}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != `{"islands":3}` {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte(`"v"`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry should be removed, stat err = %v", err)
	}

	// Zero TTL never expires
	_ = c.Set(ctx, "forever", []byte(`"v"`), 0)
	now = now.Add(100 * 365 * 24 * time.Hour)
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte(`{"islands":1}`), 0)
	if err := os.WriteFile(c.path("k"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want a clean miss", hit, err)
	}
}

func TestFileCacheRejectsInvalidJSON(t *testing.T) {
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(context.Background(), "k", []byte("{"), 0); err == nil {
		t.Error("Set with invalid JSON should fail")
	}
}

func TestFileCachePurge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(`1`), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	foreign := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Purge(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Purge = %d, %v; want 3, nil", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("purged entry should miss")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Errorf("Purge removed a foreign file: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Purge left %d entries in the cache dir, want only notes.txt", len(entries))
	}

	if n, err := c.Purge(ctx); n != 0 || err != nil {
		t.Errorf("second Purge = %d, %v; want 0, nil", n, err)
	}
}

func TestFileCacheShards(t *testing.T) {
	c := &FileCache{dir: "/cache", now: time.Now}
	p := c.path("analysis:abc")
	rel, err := filepath.Rel("/cache", p)
	if err != nil {
		t.Fatal(err)
	}
	shard, file := filepath.Split(rel)
	if len(shard) != 3 || len(file) != 62+len(entryExt) || !strings.HasSuffix(file, entryExt) {
		t.Errorf("path(%q) = %s", "analysis:abc", p)
	}
	if p != c.path("analysis:abc") {
		t.Error("path should be deterministic")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// AnalysisKey should include options in hash
	ak1 := k.AnalysisKey("hash123", AnalysisKeyOpts{SampleSize: 5})
	ak2 := k.AnalysisKey("hash123", AnalysisKeyOpts{SampleSize: 10})
	if ak1 == ak2 {
		t.Error("Different AnalysisKeyOpts should produce different keys")
	}
	if ak1 != k.AnalysisKey("hash123", AnalysisKeyOpts{SampleSize: 5}) {
		t.Error("AnalysisKey should be deterministic")
	}
	if !strings.HasPrefix(ak1, "analysis:") {
		t.Errorf("AnalysisKey unexpected: %s", ak1)
	}

	// TreeKey
	tk1 := k.TreeKey("hash123")
	tk2 := k.TreeKey("hash456")
	if tk1 == tk2 {
		t.Error("Different snapshots should produce different tree keys")
	}
	if !strings.HasPrefix(tk1, "tree:") {
		t.Errorf("TreeKey unexpected: %s", tk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "db:123:")

	// All keys should be prefixed
	treeKey := scoped.TreeKey("abc")
	if treeKey != "db:123:"+inner.TreeKey("abc") {
		t.Errorf("ScopedKeyer TreeKey unexpected: %s", treeKey)
	}

	analysisKey := scoped.AnalysisKey("abc", AnalysisKeyOpts{})
	if !strings.HasPrefix(analysisKey, "db:123:analysis:") {
		t.Errorf("ScopedKeyer AnalysisKey should be prefixed: %s", analysisKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.TreeKey("abc")
	if key != "prefix:"+NewDefaultKeyer().TreeKey("abc") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("wrapped error should still match its sentinel")
	}

	// Error message is preserved
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errPermanent
	})
	if err != errPermanent {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	// Gives up after three attempts
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !errors.Is(err, ErrUnavailable) || calls != 3 {
		t.Errorf("err = %v after %d calls, want ErrUnavailable after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
