// Package index records generation jobs in a SQLite table so job history
// survives restarts.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("job not found in index")

// Record is one row of the jobs table. Zero times are stored as NULL.
type Record struct {
	ID          string
	Status      string
	Progress    int
	Prompt      string
	WorldSize   int
	Seed        int64
	FilePath    string
	Error       string
	CreatedAt   time.Time
	CompletedAt time.Time
	FailedAt    time.Time
}

type SQLiteIndex struct {
	db *sql.DB
}

// OpenSQLite opens or creates the index at path. ":memory:" is accepted
// for tests.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			prompt TEXT NOT NULL DEFAULT '',
			world_size INTEGER NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			file_path TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			completed_at TEXT,
			failed_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS jobs_created_at ON jobs(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts r or replaces the existing row with the same id.
func (x *SQLiteIndex) Upsert(ctx context.Context, r Record) error {
	_, err := x.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, prompt, world_size, seed, file_path, error, created_at, completed_at, failed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			seed = excluded.seed,
			file_path = excluded.file_path,
			error = excluded.error,
			completed_at = excluded.completed_at,
			failed_at = excluded.failed_at`,
		r.ID, r.Status, r.Progress, r.Prompt, r.WorldSize, r.Seed, r.FilePath, r.Error,
		formatTime(r.CreatedAt), nullTime(r.CompletedAt), nullTime(r.FailedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", r.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, status, progress, prompt, world_size, seed, file_path, error, created_at, completed_at, failed_at FROM jobs`

// Get returns the row for id.
func (x *SQLiteIndex) Get(ctx context.Context, id string) (Record, error) {
	row := x.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// Recent returns up to limit rows, newest first.
func (x *SQLiteIndex) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	rows, err := x.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FailUnfinished marks every row that is neither completed nor failed as
// failed with reason, returning how many rows changed.
func (x *SQLiteIndex) FailUnfinished(ctx context.Context, reason string, at time.Time) (int64, error) {
	res, err := x.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'failed', error = ?, failed_at = ?
		WHERE status NOT IN ('completed', 'failed')`,
		reason, formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("fail unfinished jobs: %w", err)
	}
	return res.RowsAffected()
}

func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		r                 Record
		created           string
		completed, failed sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Status, &r.Progress, &r.Prompt, &r.WorldSize, &r.Seed,
		&r.FilePath, &r.Error, &created, &completed, &failed); err != nil {
		return Record{}, err
	}
	r.CreatedAt = parseTime(created)
	r.CompletedAt = parseTime(completed.String)
	r.FailedAt = parseTime(failed.String)
	return r, nil
}

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
