package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/eugener/linear/internal/cache"
)

// Get returns the stored payload if the entry exists and is no older than
// the TTL. A stale entry is deleted; a failed delete is logged and retried
// on the next Get.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if cache.ValidateKey(key) != nil {
		return nil, false
	}

	var (
		payload  []byte
		storedAt int64
	)
	err := s.read.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM entries WHERE key=?`, key,
	).Scan(&payload, &storedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Debug("cache query failed", "key", key, "error", err)
		}
		return nil, false
	}

	now := s.clock.Now().UnixNano()
	if age := now - storedAt; age > s.ttl.Nanoseconds() {
		// stored_at guards against deleting an entry another process just refreshed.
		if _, err := s.write.ExecContext(ctx,
			`DELETE FROM entries WHERE key=? AND stored_at=?`, key, storedAt,
		); err != nil {
			s.log.Warn("remove stale cache entry", "key", key, "error", err)
		}
		return nil, false
	}
	if !gjson.ValidBytes(payload) {
		s.log.Debug("cache entry corrupt", "key", key)
		return nil, false
	}
	return payload, true
}

// Set upserts payload under key stamped with the current time.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO entries (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, stored_at=excluded.stored_at`,
		key, payload, s.clock.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache: store entry: %w", err)
	}
	return nil
}

// Purge deletes every entry.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.write.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("cache: purge: %w", err)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.read.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}
