package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses. A run is inserted as StatusRunning and must end in
// exactly one terminal status.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusAborted  = "aborted"
	StatusFailed   = "failed"
)

// ErrRunNotFound indicates the requested run id has no ledger row.
var ErrRunNotFound = errors.New("run not found")

// Run is one packaging run as recorded in the ledger.
type Run struct {
	ID           string
	MediaID      string
	OutputFormat string
	Strategy     string
	Destination  string
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database in dir and
// applies migrations.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, "ledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun inserts a new running row and returns it with a fresh id.
func (s *Store) StartRun(ctx context.Context, mediaID, outputFormat, strategy, destination string) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		MediaID:      mediaID,
		OutputFormat: outputFormat,
		Strategy:     strategy,
		Destination:  destination,
		Status:       StatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, media_id, output_format, strategy, destination, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.MediaID, run.OutputFormat, run.Strategy, run.Destination,
		run.Status, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// MarkComplete records a successful finish.
func (s *Store) MarkComplete(ctx context.Context, runID string) error {
	return s.finish(ctx, runID, StatusComplete, "")
}

// MarkAborted records a cancelled run.
func (s *Store) MarkAborted(ctx context.Context, runID string) error {
	return s.finish(ctx, runID, StatusAborted, "")
}

// MarkFailed records a run that ended in error.
func (s *Store) MarkFailed(ctx context.Context, runID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return s.finish(ctx, runID, StatusFailed, message)
}

func (s *Store) finish(ctx context.Context, runID, status, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), nullableString(message), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// AddFlag stores one review flag against a run.
func (s *Store) AddFlag(ctx context.Context, runID, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO review_flags (run_id, message, created_at) VALUES (?, ?, ?)`,
		runID, message, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert review flag: %w", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, media_id, output_format, strategy, destination, status, started_at, finished_at, error
         FROM runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// RecentRuns returns the newest runs first, up to limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, media_id, output_format, strategy, destination, status, started_at, finished_at, error
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Flags returns the review flag messages recorded for a run, oldest
// first.
func (s *Store) Flags(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT message FROM review_flags WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query review flags: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, fmt.Errorf("scan review flag: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		errMessage sql.NullString
	)
	err := scanner.Scan(
		&run.ID, &run.MediaID, &run.OutputFormat, &run.Strategy,
		&run.Destination, &run.Status, &startedAt, &finishedAt, &errMessage,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	run.Error = errMessage.String
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
