package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timestampLayout keeps fixed-width fractions so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, mode, transcript_path, audio_path, output_path, status, error_message, assigned, unresolved, skipped, channels, segments, started_at, finished_at"

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a new running entry. StartedAt defaults to now.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(run.TranscriptPath) == "" {
		return errors.New("transcript path is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, mode, transcript_path, audio_path, output_path, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Mode),
		run.TranscriptPath,
		nullableString(run.AudioPath),
		nullableString(run.OutputPath),
		string(StatusRunning),
		run.StartedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish stores the terminal status, counters, and error message of a run.
func (s *Store) Finish(ctx context.Context, id string, status Status, counts Counts, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finish run %s: status %q is not terminal", id, status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, error_message = ?, assigned = ?, unresolved = ?, skipped = ?,
             channels = ?, segments = ?, finished_at = ?
         WHERE id = ?`,
		string(status),
		nullableString(errMsg),
		counts.Assigned,
		counts.Unresolved,
		counts.Skipped,
		counts.Channels,
		counts.Segments,
		time.Now().UTC().Format(timestampLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: id %s not found", id)
	}
	return nil
}

// SetOutput records the document a run wrote.
func (s *Store) SetOutput(ctx context.Context, id, outputPath string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE runs SET output_path = ? WHERE id = ?`, nullableString(outputPath), id); err != nil {
		return fmt.Errorf("update run output: %w", err)
	}
	return nil
}

// Get fetches a run by identifier. A missing run yields nil without error.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ForTranscript returns runs recorded against a transcript path, newest first.
func (s *Store) ForTranscript(ctx context.Context, transcriptPath string) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE transcript_path = ? ORDER BY started_at DESC, id DESC`,
		transcriptPath,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs for transcript: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id, mode, transcriptPath, status string
		audioPath, outputPath, errorMsg  sql.NullString
		assigned, unresolved, skipped    int
		channels, segments               int
		startedRaw                       string
		finishedRaw                      sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&mode,
		&transcriptPath,
		&audioPath,
		&outputPath,
		&status,
		&errorMsg,
		&assigned,
		&unresolved,
		&skipped,
		&channels,
		&segments,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:             id,
		Mode:           Mode(mode),
		TranscriptPath: transcriptPath,
		AudioPath:      audioPath.String,
		OutputPath:     outputPath.String,
		Status:         Status(status),
		ErrorMessage:   errorMsg.String,
		Counts: Counts{
			Assigned:   assigned,
			Unresolved: unresolved,
			Skipped:    skipped,
			Channels:   channels,
			Segments:   segments,
		},
		StartedAt:  parseTime(startedRaw),
		FinishedAt: parseTime(finishedRaw.String),
	}
	return run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
