package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"
)

const (
	entryExt = ".json"
	tempExt  = ".tmp"
)

// Disk is a filesystem Store. Each entry is <dir>/<key>.json holding the raw
// payload; an entry's age is its modification time, so touching the file
// resets it. Writes go to a temp file in the same directory and are renamed
// into place, so concurrent processes never see a partial entry.
type Disk struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock
	log   *slog.Logger
}

// DiskOption configures a Disk.
type DiskOption func(*Disk)

// WithClock sets the clock used to compute entry age.
func WithClock(c clockwork.Clock) DiskOption {
	return func(d *Disk) { d.clock = c }
}

// WithLogger sets the logger for recovered read/delete failures.
func WithLogger(l *slog.Logger) DiskOption {
	return func(d *Disk) { d.log = l }
}

// NewDisk returns a Disk rooted at dir. The directory is created lazily on
// the first Set.
func NewDisk(dir string, ttl time.Duration, opts ...DiskOption) *Disk {
	d := &Disk{
		dir:   dir,
		ttl:   ttl,
		clock: clockwork.NewRealClock(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir returns the directory holding the entries.
func (d *Disk) Dir() string { return d.dir }

// Path returns the file an entry for key is stored in.
func (d *Disk) Path(key string) string {
	return filepath.Join(d.dir, key+entryExt)
}

// Get returns the stored payload if the entry exists and is no older than
// the TTL. A stale entry is removed; if removal fails it is still reported
// absent and removal is tried again on the next Get.
func (d *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}
	path := d.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			d.log.Debug("cache stat failed", "path", path, "error", err)
		}
		return nil, false
	}

	if age := d.clock.Since(info.ModTime()); age > d.ttl {
		if err := removeIfUnchanged(path, info); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.log.Warn("remove stale cache entry", "path", path, "error", err)
		} else {
			d.log.Debug("cache entry expired", "key", key, "age", age)
		}
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Another process may have expired or replaced it in between.
		d.log.Debug("cache read failed", "path", path, "error", err)
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		d.log.Debug("cache entry corrupt", "path", path)
		return nil, false
	}
	return data, true
}

// removeIfUnchanged removes path only while it is still the file described
// by seen. An entry renamed into place by another writer since seen was
// taken is left alone. The re-check and the remove are not atomic, so a
// writer landing in between costs that writer one extra miss.
func removeIfUnchanged(path string, seen fs.FileInfo) error {
	cur, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !os.SameFile(seen, cur) || !cur.ModTime().Equal(seen.ModTime()) {
		return nil
	}
	return os.Remove(path)
}

// Set writes payload under key with a fresh modification time, replacing
// any previous entry.
func (d *Disk) Set(_ context.Context, key string, payload []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.dir, key+".*"+tempExt)
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close entry: %w", err)
	}
	if err := os.Rename(tmpName, d.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: replace entry: %w", err)
	}
	return nil
}

// Purge removes every entry and any temp file left behind by an interrupted
// write. A missing directory is not an error.
func (d *Disk) Purge(_ context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cache: read dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, entryExt) || strings.HasSuffix(name, tempExt)) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
