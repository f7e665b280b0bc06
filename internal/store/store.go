// Package store provides a SQLite-backed cache of per-agent transcript
// usage, so repeat renders skip re-reading finished agent logs. The cache
// is advisory and safe to delete at any time.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache wraps the enrichment database.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// AgentUsage is one cached per-agent transcript summary.
type AgentUsage struct {
	Tokens int64
	Cost   float64
	Model  string
}

// GetAgentUsage returns the cached summary for a file, valid only when the
// stored mtime and size still match.
func (c *Cache) GetAgentUsage(filePath string, mtimeNs, sizeBytes int64) (AgentUsage, bool) {
	var u AgentUsage
	var model sql.NullString
	err := c.db.QueryRow(
		`SELECT tokens, cost, model FROM agent_usage
		 WHERE file_path = ? AND mtime_ns = ? AND size_bytes = ?`,
		filePath, mtimeNs, sizeBytes,
	).Scan(&u.Tokens, &u.Cost, &model)
	if err != nil {
		return AgentUsage{}, false
	}
	if model.Valid {
		u.Model = model.String
	}
	return u, true
}

// PutAgentUsage stores or replaces the summary for a file.
func (c *Cache) PutAgentUsage(filePath string, mtimeNs, sizeBytes int64, u AgentUsage) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO agent_usage
		 (file_path, mtime_ns, size_bytes, tokens, cost, model, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		filePath, mtimeNs, sizeBytes, u.Tokens, u.Cost, u.Model, now,
	)
	return err
}

// Prune removes entries whose files no longer exist on disk.
func (c *Cache) Prune() error {
	rows, err := c.db.Query("SELECT file_path FROM agent_usage")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	var gone []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			gone = append(gone, path)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, path := range gone {
		if _, err := c.db.Exec("DELETE FROM agent_usage WHERE file_path = ?", path); err != nil {
			return err
		}
	}
	return nil
}
