// Package store persists job listings and their application status in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/jobmatch/internal/jobs"
)

const schema = `CREATE TABLE IF NOT EXISTS jobs (
	job_id           TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	company          TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	job_type         TEXT NOT NULL DEFAULT '',
	provider         TEXT NOT NULL DEFAULT '',
	publisher        TEXT NOT NULL DEFAULT '',
	employer_website TEXT NOT NULL DEFAULT '',
	remote           INTEGER NOT NULL DEFAULT 0,
	posted_at        TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'new'
		CHECK (status IN ('new', 'seen', 'applied', 'interviewing', 'rejected')),
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status);`

const columns = `job_id, title, company, location, description, url, job_type,
	provider, publisher, employer_website, remote, posted_at, status, created_at`

// Store is a SQLite-backed listing store. It is safe for concurrent use; all
// access goes through a single connection.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: configure %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	logger.Debug("store opened", zap.String("path", path))

	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts listings whose ID is not stored yet and leaves existing rows
// untouched. New rows always start as "new". It returns how many rows were added.
// The batch is applied in one transaction.
func (s *Store) Upsert(ctx context.Context, listings []jobs.JobListing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jobs (`+columns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().Format(time.RFC3339)
	inserted := 0
	for _, l := range listings {
		if strings.TrimSpace(l.ID) == "" {
			return 0, fmt.Errorf("store: listing %q has no id", l.Title)
		}

		res, err := stmt.ExecContext(ctx,
			l.ID, l.Title, l.Company, l.Location, l.Description, l.URL, l.JobType,
			l.Source.Provider, l.Source.Publisher, l.Source.EmployerWebsite,
			boolToInt(l.Source.Remote), formatTime(l.Source.PostedAt),
			string(jobs.StatusNew), now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("store: insert %s: %w", l.ID, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("store: insert %s: %w", l.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Debug("upserted listings",
		zap.Int("received", len(listings)),
		zap.Int("inserted", inserted),
	)

	return inserted, nil
}

// List returns stored listings in insertion order. With statuses given, only
// listings in one of them are returned.
func (s *Store) List(ctx context.Context, statuses ...jobs.Status) ([]jobs.JobListing, error) {
	where, args, err := statusFilter(statuses)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM jobs`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := make([]jobs.JobListing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	return out, nil
}

// Get returns a single listing or jobs.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*jobs.JobListing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM jobs WHERE job_id = ?`, id)

	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %q: %w", id, jobs.ErrNotFound)
		}
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}

	return &l, nil
}

// UpdateStatus changes only the status of a stored listing.
func (s *Store) UpdateStatus(ctx context.Context, id string, status jobs.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", jobs.ErrInvalidStatus, status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE job_id = ?`,
		string(status), s.now().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("store: update %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("job %q: %w", id, jobs.ErrNotFound)
	}

	s.logger.Info("status updated", zap.String("job_id", id), zap.String("status", string(status)))
	return nil
}

// Count returns the number of stored listings, optionally restricted to statuses.
func (s *Store) Count(ctx context.Context, statuses ...jobs.Status) (int, error) {
	where, args, err := statusFilter(statuses)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func statusFilter(statuses []jobs.Status) (string, []any, error) {
	if len(statuses) == 0 {
		return "", nil, nil
	}

	args := make([]any, 0, len(statuses))
	for _, st := range statuses {
		if !st.Valid() {
			return "", nil, fmt.Errorf("%w: %q", jobs.ErrInvalidStatus, st)
		}
		args = append(args, string(st))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return ` WHERE status IN (` + placeholders + `)`, args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (jobs.JobListing, error) {
	var (
		l                   jobs.JobListing
		status              string
		remote              int
		postedAt, createdAt string
	)

	err := row.Scan(
		&l.ID, &l.Title, &l.Company, &l.Location, &l.Description, &l.URL, &l.JobType,
		&l.Source.Provider, &l.Source.Publisher, &l.Source.EmployerWebsite,
		&remote, &postedAt, &status, &createdAt,
	)
	if err != nil {
		return jobs.JobListing{}, err
	}

	l.Status = jobs.Status(status)
	l.Source.Remote = remote != 0
	l.Source.PostedAt = parseTime(postedAt)
	l.CreatedAt = parseTime(createdAt)

	return l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
