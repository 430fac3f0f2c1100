// Package history provides a SQLite-backed answer history log. Every answered
// question is persisted with the sources that grounded it, so operators can
// review what the system was asked and which documents it leaned on.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Entry is a single question/answer record.
type Entry struct {
	// Question is the user query as asked.
	Question string
	// Answer is the final extracted answer text.
	Answer string
	// Sources lists the source tags of the documents used as context.
	Sources []string
	// Corpus identifies which document corpus answered the question.
	Corpus string
	// CreatedAt is when the entry was persisted.
	CreatedAt time.Time
}

// Store persists and retrieves answer history. Implementations must be safe
// for concurrent use.
type Store interface {
	// Append persists a single question/answer record.
	Append(ctx context.Context, e Entry) error
	// Recent returns the most recent n entries for the corpus, ordered
	// newest-first. If fewer than n entries exist, all are returned.
	Recent(ctx context.Context, corpus string, n int) ([]Entry, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the answer history database.
// It resolves to ~/.docqa/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("history: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docqa")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("history: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS answers (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    corpus       TEXT    NOT NULL,
    question     TEXT    NOT NULL,
    answer       TEXT    NOT NULL,
    sources      TEXT    NOT NULL,  -- JSON array of source tags
    created_at   INTEGER NOT NULL   -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_answers_corpus_created
    ON answers (corpus, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Append persists a single question/answer record.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("history: marshal sources: %w", err)
	}
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	const q = `INSERT INTO answers (corpus, question, answer, sources, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, e.Corpus, e.Question, e.Answer, string(sources), ts.Unix()); err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries for the corpus, newest-first.
func (s *SQLiteStore) Recent(ctx context.Context, corpus string, n int) ([]Entry, error) {
	const q = `
SELECT question, answer, sources, created_at
FROM   answers
WHERE  corpus = ?
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, corpus, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var sources string
		if err := rows.Scan(&e.Question, &e.Answer, &sources, &ts); err != nil {
			return nil, fmt.Errorf("history: recent scan: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
			return nil, fmt.Errorf("history: unmarshal sources: %w", err)
		}
		e.Corpus = corpus
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return entries, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("history: close: %w", err)
	}
	return nil
}
