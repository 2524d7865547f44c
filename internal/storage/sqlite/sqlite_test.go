package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eugener/linear/internal/cache"
)

const testKey = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func newTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	// Use a unique file-based temp DB for each test to avoid shared :memory: races
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	s, err := New(filepath.Join(t.TempDir(), FileName), cache.DefaultTTL, WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

var (
	_ cache.Store  = (*Store)(nil)
	_ cache.Purger = (*Store)(nil)
)

func TestStore_SetGet(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()
	payload := []byte(`{"data":{"viewer":{"id":"u1"}}}`)

	if err := s.Set(ctx, testKey, payload); err != nil {
		t.Fatal("set:", err)
	}
	clock.Advance(cache.DefaultTTL)

	got, ok := s.Get(ctx, testKey)
	if !ok {
		t.Fatal("entry at exactly the TTL should still be served")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %s, want %s", got, payload)
	}
}

func TestStore_Expired(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, testKey, []byte(`{"data":{}}`)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(cache.DefaultTTL + time.Second)

	if _, ok := s.Get(ctx, testKey); ok {
		t.Fatal("expired entry should be a miss")
	}
	n, err := s.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("len after expired get = %d, want 0", n)
	}
}

func TestStore_SetReplaces(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, testKey, []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(20 * time.Second)
	if err := s.Set(ctx, testKey, []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	// 40s after the first write, 20s after the second.
	clock.Advance(20 * time.Second)

	got, ok := s.Get(ctx, testKey)
	if !ok {
		t.Fatal("replaced entry should be fresh")
	}
	if string(got) != `{"v":2}` {
		t.Errorf("payload = %s, want {\"v\":2}", got)
	}
}

func TestStore_Missing(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	if _, ok := s.Get(context.Background(), testKey); ok {
		t.Error("missing key should be a miss")
	}
}

func TestStore_InvalidKey(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "../escape", []byte(`{}`)); err != cache.ErrInvalidKey {
		t.Errorf("set err = %v, want ErrInvalidKey", err)
	}
	if _, ok := s.Get(ctx, "../escape"); ok {
		t.Error("invalid key should be a miss")
	}
}

func TestStore_CorruptEntry(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, testKey, []byte(`{"data":`)); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(ctx, testKey); ok {
		t.Error("truncated payload should be a miss")
	}
}

func TestStore_Purge(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"a1", "b2", "c3"} {
		if err := s.Set(ctx, k, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Purge(ctx); err != nil {
		t.Fatal("purge:", err)
	}
	n, err := s.Len(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("len after purge = %d, want 0", n)
	}
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	ctx := context.Background()

	s, err := New(path, cache.DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, testKey, []byte(`{"data":{"ok":true}}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Migrations must be idempotent across opens.
	s, err = New(path, cache.DefaultTTL)
	if err != nil {
		t.Fatal("reopen:", err)
	}
	defer s.Close()
	if err := s.Ping(ctx); err != nil {
		t.Fatal("ping:", err)
	}
	if _, ok := s.Get(ctx, testKey); !ok {
		t.Error("entry should survive reopen")
	}
}

func TestStore_ConcurrentSet(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 20 {
				if err := s.Set(ctx, testKey, []byte(`{"data":{}}`)); err != nil {
					t.Error(err)
					return
				}
				s.Get(ctx, testKey)
			}
		})
	}
	wg.Wait()

	if _, ok := s.Get(ctx, testKey); !ok {
		t.Error("entry should be present after concurrent writes")
	}
}
