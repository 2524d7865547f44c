package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const testKey = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func newTestDisk(t *testing.T) (*Disk, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Now())
	return NewDisk(filepath.Join(t.TempDir(), "linear"), DefaultTTL, WithClock(clock)), clock
}

func TestDisk_SetGet(t *testing.T) {
	t.Parallel()
	d, clock := newTestDisk(t)
	ctx := context.Background()
	payload := []byte(`{"data":{"x":1}}`)

	if err := d.Set(ctx, testKey, payload); err != nil {
		t.Fatal(err)
	}
	clock.Advance(29 * time.Second)

	got, ok := d.Get(ctx, testKey)
	if !ok {
		t.Fatal("should find entry within TTL")
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %s, want %s", got, payload)
	}
}

func TestDisk_FileLayout(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	payload := []byte(`{"data":{"viewer":{"id":"u1"}}}`)

	if err := d.Set(context.Background(), testKey, payload); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(d.Dir(), testKey+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, payload) {
		t.Errorf("file contents = %s, want raw payload %s", raw, payload)
	}

	entries, err := os.ReadDir(d.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d files, want 1", len(entries))
	}
}

func TestDisk_MissingDirectory(t *testing.T) {
	t.Parallel()
	d := NewDisk(filepath.Join(t.TempDir(), "does", "not", "exist"), DefaultTTL)

	if _, ok := d.Get(context.Background(), testKey); ok {
		t.Error("missing directory should be a miss")
	}
	if err := d.Purge(context.Background()); err != nil {
		t.Errorf("Purge on missing directory: %v", err)
	}
}

func TestDisk_ExpiredEntryIsRemoved(t *testing.T) {
	t.Parallel()
	d, clock := newTestDisk(t)
	ctx := context.Background()

	if err := d.Set(ctx, testKey, []byte(`{"data":{}}`)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(DefaultTTL + time.Second)

	if _, ok := d.Get(ctx, testKey); ok {
		t.Fatal("entry should be expired")
	}
	if _, err := os.Stat(d.Path(testKey)); !os.IsNotExist(err) {
		t.Errorf("stale entry should be deleted, stat err = %v", err)
	}
}

func TestDisk_AgeFromModTime(t *testing.T) {
	t.Parallel()
	d := NewDisk(t.TempDir(), 30*time.Second)
	ctx := context.Background()

	if err := d.Set(ctx, testKey, []byte(`{"data":{"x":1}}`)); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-40 * time.Second)
	if err := os.Chtimes(d.Path(testKey), past, past); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get(ctx, testKey); ok {
		t.Fatal("40s old entry should be absent with a 30s TTL")
	}
	if _, err := os.Stat(d.Path(testKey)); !os.IsNotExist(err) {
		t.Errorf("stale entry should be deleted, stat err = %v", err)
	}
}

func TestDisk_SetReplaces(t *testing.T) {
	t.Parallel()
	d := NewDisk(t.TempDir(), 30*time.Second)
	ctx := context.Background()

	if err := d.Set(ctx, testKey, []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-25 * time.Second)
	if err := os.Chtimes(d.Path(testKey), past, past); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(ctx, testKey, []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(d.Path(testKey))
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(info.ModTime()) > 10*time.Second {
		t.Errorf("refresh should reset the entry age, mtime = %s", info.ModTime())
	}

	got, ok := d.Get(ctx, testKey)
	if !ok {
		t.Fatal("refreshed entry should be fresh")
	}
	if string(got) != `{"v":2}` {
		t.Errorf("payload = %s, want replacement", got)
	}
}

func TestDisk_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	ctx := context.Background()

	if err := os.MkdirAll(d.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(d.Path(testKey), []byte(`{"data": {"trunc`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := d.Get(ctx, testKey); ok {
		t.Error("corrupt entry should be a miss")
	}
}

func TestDisk_InvalidKey(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	ctx := context.Background()

	if err := d.Set(ctx, "../escape", []byte(`{}`)); err == nil {
		t.Error("Set should reject path-like keys")
	}
	if _, ok := d.Get(ctx, "../escape"); ok {
		t.Error("Get should miss on path-like keys")
	}
}

func TestDisk_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	ctx := context.Background()

	big := func(tag string) []byte {
		items := make([]string, 5000)
		for i := range items {
			items[i] = fmt.Sprintf("%q", tag)
		}
		return []byte(`{"data":[` + strings.Join(items, ",") + `]}`)
	}
	p1, p2 := big("p1"), big("p2")

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := p1
			if i%2 == 1 {
				p = p2
			}
			if err := d.Set(ctx, testKey, p); err != nil {
				t.Errorf("Set: %v", err)
			}
		}()
	}
	wg.Wait()

	got, ok := d.Get(ctx, testKey)
	if !ok {
		t.Fatal("should find entry")
	}
	if !bytes.Equal(got, p1) && !bytes.Equal(got, p2) {
		t.Fatal("entry is neither p1 nor p2")
	}
	if !json.Valid(got) {
		t.Fatal("entry is not valid JSON")
	}

	entries, err := os.ReadDir(d.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), tempExt) {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDisk_Purge(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	ctx := context.Background()

	keyA, keyB := testKey[:32], testKey[32:]
	for _, k := range []string{keyA, keyB} {
		if err := d.Set(ctx, k, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(d.Dir(), "leftover.123.tmp"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(d.Dir(), "README"), []byte("keep"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := d.Purge(ctx); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(d.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "README" {
		t.Errorf("after purge dir = %v, want only README", entries)
	}
}

func TestDisk_StaleRemoveFails(t *testing.T) {
	t.Parallel()
	d, _ := newTestDisk(t)
	ctx := context.Background()

	// A non-empty directory at the entry path cannot be removed with os.Remove.
	path := d.Path(testKey)
	if err := os.MkdirAll(filepath.Join(path, "pin"), 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-40 * time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	for i := range 2 {
		got, ok := d.Get(ctx, testKey)
		if ok || got != nil {
			t.Fatalf("get %d = (%q, %v), want miss", i, got, ok)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("get %d: entry should remain for the next attempt: %v", i, err)
		}
	}
}

func TestRemoveIfUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, testKey+".json")

	if err := os.WriteFile(path, []byte(`{"v":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	seen, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	// Another writer renames a fresh entry into place.
	tmp := filepath.Join(dir, "fresh.tmp")
	if err := os.WriteFile(tmp, []byte(`{"v":2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if err := removeIfUnchanged(path, seen); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("replaced entry was removed:", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("entry = %s, want the replacement", data)
	}

	cur, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := removeIfUnchanged(path, cur); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unchanged entry should be removed, stat err = %v", err)
	}
}
