// Package ledger records the secondary cleanup steps that failed after a
// mutation succeeded, so an operator can find orphaned files later.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/studio/errs"
)

// Entry is one recorded failure.
type Entry struct {
	ID         int64      `json:"id"`
	Op         string     `json:"op"`
	Target     string     `json:"target"`
	Err        string     `json:"error"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

type Logger interface {
	Errorf(format string, args ...interface{})
}

// Store provides database operations for the ledger.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// SetClock replaces the clock used to stamp entries.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cleanup_failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			op TEXT NOT NULL,
			target TEXT NOT NULL,
			error TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			resolved_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_cleanup_created ON cleanup_failures(created_at);
		CREATE INDEX IF NOT EXISTS idx_cleanup_resolved ON cleanup_failures(resolved_at);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		if version, err = strconv.Atoi(verStr); err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than this build (%d)", version, currentSchemaVersion)
	}
	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting returns the value for key, or "" when unset.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Record stores failures reported by source (e.g. "updateBlog").
func (s *Store) Record(ctx context.Context, source string, failures ...errs.CleanupFailure) error {
	if len(failures) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cleanup_failures (op, target, error, source, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	at := s.now().UTC().UnixMilli()
	for _, f := range failures {
		if _, err := stmt.ExecContext(ctx, f.Op, f.Target, f.Err, source, at); err != nil {
			return fmt.Errorf("insert cleanup failure: %w", err)
		}
	}
	return tx.Commit()
}

// List returns up to limit entries, newest first. Resolved entries are
// included only when all is true.
func (s *Store) List(ctx context.Context, limit int, all bool) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, op, target, error, source, created_at, resolved_at FROM cleanup_failures`
	if !all {
		query += ` WHERE resolved_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list cleanup failures: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			created  int64
			resolved sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Op, &e.Target, &e.Err, &e.Source, &created, &resolved); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		if resolved.Valid {
			t := time.UnixMilli(resolved.Int64).UTC()
			e.ResolvedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Resolve marks an entry as handled. Unknown or already resolved ids
// report errs.ErrNotFound.
func (s *Store) Resolve(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cleanup_failures SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		s.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("resolve %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cleanup entry %d: %w", id, errs.ErrNotFound)
	}
	return nil
}

// Count returns the number of unresolved entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cleanup_failures WHERE resolved_at IS NULL`).Scan(&n)
	return n, err
}

// Prune deletes resolved entries older than the cutoff and reports how
// many went.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cleanup_failures WHERE resolved_at IS NOT NULL AND created_at < ?`,
		olderThan.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}

// StartPruneScheduler prunes resolved entries older than retention every
// interval. Returns a stop function.
func (s *Store) StartPruneScheduler(retention, interval time.Duration, log Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := s.Prune(context.Background(), s.now().Add(-retention)); err != nil {
					log.Errorf("ledger prune: %v", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
