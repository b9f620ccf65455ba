package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRunStore implements RunStore on a SQLite database file.
type SQLiteRunStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string {
	return s.path
}

// BeginRun inserts a new run row.
func (s *SQLiteRunStore) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	if info.ID == "" {
		info.ID = uuid.New().String()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, network, trajectory_count, seed, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.Network, info.TrajectoryCount, int64(info.Seed), formatTime(info.StartedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return info.ID, nil
}

// RecordTrajectory inserts one trajectory row for an existing run.
func (s *SQLiteRunStore) RecordTrajectory(ctx context.Context, runID string, rec TrajectoryRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trajectories (run_id, idx, probability, steps, outcome, path)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM runs WHERE id = ?)`,
		runID, rec.Index, rec.Probability, rec.Steps, rec.Outcome, rec.Path, runID)
	if err != nil {
		return fmt.Errorf("failed to insert trajectory %d: %w", rec.Index, err)
	}
	return requireRow(res, runID)
}

// FinishRun records the run's summary statistics and finish time.
func (s *SQLiteRunStore) FinishRun(ctx context.Context, runID string, cumulative, mean float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, cumulative = ?, mean = ? WHERE id = ?`,
		formatTime(time.Now()), cumulative, mean, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return requireRow(res, runID)
}

// GetRun loads one run.
func (s *SQLiteRunStore) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, network, trajectory_count, seed, started_at, finished_at, cumulative, mean
		FROM runs WHERE id = ?`, runID)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return info, nil
}

// ListRuns returns every archived run, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, network, trajectory_count, seed, started_at, finished_at, cumulative, mean
		FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Trajectories returns a run's trajectories ordered by index.
func (s *SQLiteRunStore) Trajectories(ctx context.Context, runID string) ([]TrajectoryRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, probability, steps, outcome, path
		FROM trajectories WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trajectories: %w", err)
	}
	defer rows.Close()

	recs := make([]TrajectoryRecord, 0)
	for rows.Next() {
		var rec TrajectoryRecord
		if err := rows.Scan(&rec.Index, &rec.Probability, &rec.Steps, &rec.Outcome, &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to scan trajectory: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trajectories: %w", err)
	}
	return recs, nil
}

// DeleteRun removes a run; its trajectories go with it via ON DELETE CASCADE.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return requireRow(res, runID)
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunInfo, error) {
	var (
		info     RunInfo
		seed     int64
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&info.ID, &info.Network, &info.TrajectoryCount, &seed,
		&started, &finished, &info.Cumulative, &info.Mean); err != nil {
		return nil, err
	}
	info.Seed = uint64(seed)

	var err error
	if info.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("bad started_at %q: %w", started, err)
	}
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("bad finished_at %q: %w", finished.String, err)
		}
		info.FinishedAt = &t
	}
	return &info, nil
}

func requireRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
