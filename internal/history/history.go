// Package history keeps the local watch history in SQLite: which videos were
// watched and which server ended up playing them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"mirrorplay/internal/media"
)

// Store provides SQLite persistence for watch history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS history (
		slug       TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		server     TEXT NOT NULL,
		server_url TEXT NOT NULL,
		watched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_watched_at ON history(watched_at);
	`)
	return err
}

// Save writes or updates the entry for e.Slug.
func (s *Store) Save(ctx context.Context, e media.HistoryEntry) error {
	if e.WatchedAt.IsZero() {
		e.WatchedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (slug, title, server, server_url, watched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			server = excluded.server,
			server_url = excluded.server_url,
			watched_at = excluded.watched_at`,
		e.Slug, e.Title, e.Server, e.ServerURL, e.WatchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// List returns up to limit entries, most recent first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, title, server, server_url, watched_at
		FROM history
		ORDER BY watched_at DESC, slug
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		var ms int64
		if err := rows.Scan(&e.Slug, &e.Title, &e.Server, &e.ServerURL, &ms); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.WatchedAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry for slug. Removing a missing entry is not an error.
func (s *Store) Remove(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("removing history: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay creates one display line per entry.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.Slug
		}
		items = append(items, fmt.Sprintf("%s  [%s]  %s", title, e.Server, e.WatchedAt.Format("2006-01-02 15:04")))
	}
	return items
}
