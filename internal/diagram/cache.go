// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package diagram

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// HEAL CACHE
// =============================================================================

// Cache remembers corrected sources by the key of the broken source.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, healed string) error
	Close() error
}

// CacheKey returns the BLAKE2b-256 digest of the normalized source, so
// sources that differ only in spacing share an entry.
func CacheKey(source string) string {
	sum := blake2b.Sum256([]byte(Normalize(source)))
	return hex.EncodeToString(sum[:])
}

// NopCache is a Cache that stores nothing.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCache) Put(context.Context, string, string) error         { return nil }
func (NopCache) Close() error                                      { return nil }

const cacheSchema = `
CREATE TABLE IF NOT EXISTS heal_cache (
	key        TEXT PRIMARY KEY,
	healed     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	hits       INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteCache persists heals in a local SQLite database.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens or creates the cache database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open heal cache: %w", err)
	}
	// One connection keeps writes serialized without busy retries.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create heal cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get returns the healed source stored under key and counts the hit.
func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var healed string
	err := c.db.QueryRowContext(ctx, "SELECT healed FROM heal_cache WHERE key = ?", key).Scan(&healed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read heal cache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "UPDATE heal_cache SET hits = hits + 1 WHERE key = ?", key); err != nil {
		return "", false, fmt.Errorf("failed to update heal cache hits: %w", err)
	}
	return healed, true, nil
}

// Put stores or replaces the healed source for key.
func (c *SQLiteCache) Put(ctx context.Context, key, healed string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO heal_cache (key, healed, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET healed = excluded.healed, created_at = excluded.created_at`,
		key, healed, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write heal cache: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM heal_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count heal cache: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
