// Package storage keeps the history of analysis runs in SQLite.
// It stores each run's window results and selected target zones, and rotates old
// runs to prevent unbounded growth.
//
// The default DSN ":memory:" keeps all state inside the process; pass a file path to
// keep history between invocations of the CLI.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tyon-geoscience/tyon/internal/logger"
	"github.com/tyon-geoscience/tyon/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("analysis not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	well        TEXT NOT NULL DEFAULT '',
	mode        TEXT NOT NULL,
	window_size INTEGER NOT NULL,
	samples     INTEGER NOT NULL,
	fingerprint INTEGER NOT NULL,
	results     BLOB NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS zones (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx             INTEGER NOT NULL,
	depth           REAL NOT NULL,
	zone_top        REAL NOT NULL,
	zone_base       REAL NOT NULL,
	window_top      REAL NOT NULL,
	window_base     REAL NOT NULL,
	quality_index   REAL NOT NULL,
	entropy         REAL NOT NULL,
	fractal_dim     REAL NOT NULL,
	risk_factor     REAL NOT NULL,
	composite_score REAL NOT NULL,
	risks           TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (run_id, idx)
);
`

// Storage persists analysis runs.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens (or creates) the database at dsn and applies the schema.
func New(maxRuns int, dsn string) (*Storage, error) {
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and PRAGMAs applied.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("storage: opened %s (max runs %d)", dsn, maxRuns)
	return &Storage{db: db, maxRuns: maxRuns}, nil
}

// Close releases the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores a run with its results and zones, replacing a run with the same ID.
func (s *Storage) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}

	results, err := json.Marshal(a.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, a.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, well, mode, window_size, samples, fingerprint, results, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Well, a.Mode, a.WindowSize, a.Samples, int64(a.Fingerprint), results, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, z := range a.Zones {
		risks, err := json.Marshal(z.Risks)
		if err != nil {
			return fmt.Errorf("failed to marshal zone risks: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO zones (run_id, idx, depth, zone_top, zone_base, window_top, window_base,
			 quality_index, entropy, fractal_dim, risk_factor, composite_score, risks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, i, z.Depth, z.ZoneTop, z.ZoneBase, z.Top, z.Base,
			z.QualityIndex, z.Entropy, z.FractalDim, z.RiskFactor, z.CompositeScore, string(risks),
		)
		if err != nil {
			return fmt.Errorf("failed to insert zone %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetAnalysis loads a run with its results and zones.
func (s *Storage) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, well, mode, window_size, samples, fingerprint, results, created_at
		 FROM runs WHERE id = ?`, id)

	a, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	zones, err := s.getZones(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Zones = zones
	return a, nil
}

func (s *Storage) getZones(ctx context.Context, runID string) ([]models.TargetZone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT depth, zone_top, zone_base, window_top, window_base,
		 quality_index, entropy, fractal_dim, risk_factor, composite_score, risks
		 FROM zones WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	zones := []models.TargetZone{}
	for rows.Next() {
		var z models.TargetZone
		var risks string
		if err := rows.Scan(&z.Depth, &z.ZoneTop, &z.ZoneBase, &z.Top, &z.Base,
			&z.QualityIndex, &z.Entropy, &z.FractalDim, &z.RiskFactor, &z.CompositeScore, &risks); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		if err := json.Unmarshal([]byte(risks), &z.Risks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal zone risks: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ListAnalyses returns the most recent runs first, without zones.
// A limit <= 0 returns every run.
func (s *Storage) ListAnalyses(ctx context.Context, limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, well, mode, window_size, samples, fingerprint, results, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.Analysis{}
	for rows.Next() {
		a, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *a)
	}
	return runs, rows.Err()
}

// RotateRuns removes the oldest runs exceeding the configured maximum.
func (s *Storage) RotateRuns(ctx context.Context) error {
	if s.maxRuns <= 0 {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
		)`, s.maxRuns)
	if err != nil {
		return fmt.Errorf("failed to rotate runs: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		logger.Debug("storage: rotated %d old runs", n)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*models.Analysis, error) {
	var (
		a           models.Analysis
		fingerprint int64
		results     []byte
		createdAt   int64
	)
	if err := sc.Scan(&a.ID, &a.Well, &a.Mode, &a.WindowSize, &a.Samples, &fingerprint, &results, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if err := json.Unmarshal(results, &a.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	a.Fingerprint = uint64(fingerprint)
	a.CreatedAt = time.Unix(0, createdAt)
	return &a, nil
}
