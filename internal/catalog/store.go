// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a local copy of the corpus source list so the
// sources sidebar and CLI work without a backend round trip. It stores
// source descriptors only; questions and answers are never persisted.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/philquery/pkg/types"
)

const (
	dbFile = "catalog.db"

	// syncedAtKey names the meta row holding the last sync time.
	syncedAtKey = "synced_at"

	defaultListLimit = 500
)

// Store manages the catalogue SQLite database.
type Store struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// NewStore opens or creates dir/catalog.db and its schema.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			url TEXT NOT NULL,
			PRIMARY KEY (title, author)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_position ON sources(position)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Replace swaps the stored list for sources in one transaction and records
// the sync time. Invalid entries are skipped; a repeated title and author
// keeps the first occurrence. It returns the number stored.
func (s *Store) Replace(ctx context.Context, sources []types.AvailableSource) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sources`); err != nil {
		return 0, fmt.Errorf("clearing sources: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO sources (position, title, author, url) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for i, src := range sources {
		if !src.Valid() {
			continue
		}
		res, err := stmt.ExecContext(ctx, i,
			strings.TrimSpace(src.Title), strings.TrimSpace(src.Author), strings.TrimSpace(src.URL))
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", src.Title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stored++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		syncedAtKey, s.now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("recording sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing sources: %w", err)
	}
	return stored, nil
}

// ListOptions filters List. Query matches title or author as a
// case-insensitive substring.
type ListOptions struct {
	Query string
	Limit int
}

// List returns stored sources in backend order.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.AvailableSource, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT title, author, url FROM sources`
	var args []any
	if q := strings.TrimSpace(opts.Query); q != "" {
		query += ` WHERE title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(q) + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY position LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	sources := []types.AvailableSource{}
	for rows.Next() {
		var src types.AvailableSource
		if err := rows.Scan(&src.Title, &src.Author, &src.URL); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// escapeLike escapes LIKE wildcards in a user-supplied substring.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SyncedAt returns when the catalogue was last replaced. ok is false if it
// never has been.
func (s *Store) SyncedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	var v string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, syncedAtKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading sync time: %w", err)
	}
	t, err = time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing sync time %q: %w", v, err)
	}
	return t, true, nil
}

// Count returns the number of stored sources.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM sources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	return n, nil
}
