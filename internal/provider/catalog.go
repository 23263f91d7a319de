package provider

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// CatalogCache persists fetched model catalogs in a local SQLite
// database so repeated CLI invocations do not refetch the remote list.
// A cache hit is indistinguishable from a live fetch to callers.
type CatalogCache struct {
	db *sql.DB
}

// OpenCatalogCache opens (or creates) the catalog cache database
func OpenCatalogCache(path string) (*CatalogCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog cache ping failed: %w", err)
	}
	cache := &CatalogCache{db: db}
	if err := cache.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

func (c *CatalogCache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS catalogs (
			provider   TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (provider)
		);
		CREATE TABLE IF NOT EXISTS models (
			provider         TEXT NOT NULL,
			id               TEXT NOT NULL,
			name             TEXT NOT NULL,
			context_length   INTEGER NOT NULL DEFAULT 0,
			description      TEXT NOT NULL DEFAULT '',
			prompt_price     TEXT NOT NULL DEFAULT '',
			completion_price TEXT NOT NULL DEFAULT '',
			free             INTEGER NOT NULL DEFAULT 0,
			position         INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (provider, id)
		);
	`)
	if err != nil {
		return fmt.Errorf("catalog cache migration failed: %w", err)
	}
	return nil
}

// Store replaces the cached catalog for a provider
func (c *CatalogCache) Store(providerName string, models []ModelInfo) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog store failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM models WHERE provider = ?`, providerName); err != nil {
		return fmt.Errorf("catalog store failed: %w", err)
	}
	for i, m := range models {
		_, err := tx.Exec(`
			INSERT INTO models
				(provider, id, name, context_length, description,
				 prompt_price, completion_price, free, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			providerName, m.ID, m.Name, m.ContextLength, m.Description,
			m.PromptPrice, m.CompletionPrice, boolToInt(m.Free), i)
		if err != nil {
			return fmt.Errorf("catalog store failed: %w", err)
		}
	}
	_, err = tx.Exec(`
		INSERT INTO catalogs (provider, fetched_at) VALUES (?, ?)
		ON CONFLICT (provider) DO UPDATE SET fetched_at = excluded.fetched_at`,
		providerName, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("catalog store failed: %w", err)
	}
	return tx.Commit()
}

// Load returns the cached catalog when one exists and is younger than
// maxAge. The second result reports a usable hit.
func (c *CatalogCache) Load(providerName string, maxAge time.Duration) ([]ModelInfo, bool) {
	var fetchedAt int64
	err := c.db.QueryRow(
		`SELECT fetched_at FROM catalogs WHERE provider = ?`, providerName,
	).Scan(&fetchedAt)
	if err != nil {
		return nil, false
	}
	if time.Since(time.Unix(fetchedAt, 0)) >= maxAge {
		return nil, false
	}

	rows, err := c.db.Query(`
		SELECT id, name, context_length, description,
		       prompt_price, completion_price, free
		FROM models WHERE provider = ? ORDER BY position`, providerName)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var models []ModelInfo
	for rows.Next() {
		var m ModelInfo
		var free int
		if err := rows.Scan(&m.ID, &m.Name, &m.ContextLength, &m.Description,
			&m.PromptPrice, &m.CompletionPrice, &free); err != nil {
			return nil, false
		}
		m.Free = free != 0
		models = append(models, m)
	}
	if rows.Err() != nil || len(models) == 0 {
		return nil, false
	}
	return models, true
}

// Invalidate drops the cached catalog for a provider
func (c *CatalogCache) Invalidate(providerName string) error {
	if _, err := c.db.Exec(`DELETE FROM catalogs WHERE provider = ?`, providerName); err != nil {
		return fmt.Errorf("catalog invalidate failed: %w", err)
	}
	_, err := c.db.Exec(`DELETE FROM models WHERE provider = ?`, providerName)
	if err != nil {
		return fmt.Errorf("catalog invalidate failed: %w", err)
	}
	return nil
}

// Close releases the underlying database
func (c *CatalogCache) Close() error {
	return c.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
