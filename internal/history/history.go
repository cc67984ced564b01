// Package history keeps a log of screenshot exports in SQLite.
// The database is opened lazily and created on first use.
// If opening the DB or executing queries fails, the store falls back to memory.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/saravenpi/firewood/internal/logger"
)

// Entry is one export attempt. Error is empty on success.
type Entry struct {
	ID        string
	Platform  string
	Path      string
	Engine    string
	Error     string
	CreatedAt time.Time
}

func (e Entry) Failed() bool { return e.Error != "" }

type Store struct {
	path string

	mu      sync.Mutex
	entries []Entry // in-memory fallback

	dbOnce  sync.Once
	db      *sql.DB
	initErr error
}

// New returns a store backed by the database at path. An empty path keeps
// everything in memory.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) initDB() {
	if s.path == "" {
		s.initErr = os.ErrNotExist
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.initErr = err
		logger.L.Warn("history dir unavailable; using in-memory history", "error", err)
		return
	}

	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		platform TEXT,
		path TEXT,
		engine TEXT,
		error TEXT,
		created_at DATETIME
	);`); err != nil {
		db.Close()
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		return
	}
	s.db = db
	logger.L.Debug("sqlite history DB initialized", "path", s.path)
}

func (s *Store) ready() bool {
	s.dbOnce.Do(s.initDB)
	return s.initErr == nil && s.db != nil
}

// Record stores an entry, filling in the id and timestamp when missing. The
// in-memory copy is always kept.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	if s.ready() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO exports (id, platform, path, engine, error, created_at) VALUES (?,?,?,?,?,?);`,
			e.ID, e.Platform, e.Path, e.Engine, e.Error, e.CreatedAt.UTC())
		if err != nil {
			logger.L.Error("failed to store export in sqlite; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if s.ready() {
		query := `SELECT id, platform, path, engine, error, created_at FROM exports ORDER BY created_at DESC`
		args := []any{}
		if limit > 0 {
			query += ` LIMIT ?`
			args = append(args, limit)
		}
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil {
			defer rows.Close()
			var out []Entry
			for rows.Next() {
				var e Entry
				if err := rows.Scan(&e.ID, &e.Platform, &e.Path, &e.Engine, &e.Error, &e.CreatedAt); err == nil {
					out = append(out, e)
				}
			}
			if err := rows.Err(); err == nil {
				return out, nil
			}
		}
		logger.L.Warn("sqlite history query failed; reading memory", "error", err)
	}

	s.mu.Lock()
	out := slices.Clone(s.entries)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Entry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Close() error {
	s.dbOnce.Do(func() { s.initErr = os.ErrClosed })
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
