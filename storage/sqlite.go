package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pthm-cable/flappy/telemetry"
)

// SQLiteStore keeps run history in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared between calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("opening %s: %w", s.path, err)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("creating tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, status, started_at, finished_at, generations, best_fitness)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			generations = excluded.generations,
			best_fitness = excluded.best_fitness
	`, run.ID, run.Seed, run.Status, toUnixNano(run.StartedAt), toUnixNano(run.FinishedAt), run.Generations, run.BestFitness)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, seed, status, started_at, finished_at, generations, best_fitness
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, seed, status, started_at, finished_at, generations, best_fitness
		FROM runs ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, stats telemetry.GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode generation: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, best_fitness, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_fitness = excluded.best_fitness,
			payload = excluded.payload
	`, stats.RunID, stats.Generation, stats.BestFitness, payload)
	if err != nil {
		return fmt.Errorf("save generation %d of %s: %w", stats.Generation, stats.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) GetGenerations(ctx context.Context, runID string) ([]telemetry.GenerationStats, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT payload FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get generations of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []telemetry.GenerationStats
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var stats telemetry.GenerationStats
		if err := json.Unmarshal(payload, &stats); err != nil {
			return nil, fmt.Errorf("decode generation of %s: %w", runID, err)
		}
		out = append(out, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *SQLiteStore) SaveChampion(ctx context.Context, c Champion) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(c.Weights)
	if err != nil {
		return fmt.Errorf("encode champion weights: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, genome_id, generation, fitness, score, fingerprint, weights)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			genome_id = excluded.genome_id,
			generation = excluded.generation,
			fitness = excluded.fitness,
			score = excluded.score,
			fingerprint = excluded.fingerprint,
			weights = excluded.weights
	`, c.RunID, c.GenomeID, c.Generation, c.Fitness, c.Score, c.Fingerprint, payload)
	if err != nil {
		return fmt.Errorf("save champion of %s: %w", c.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) GetChampion(ctx context.Context, runID string) (Champion, error) {
	db, err := s.getDB()
	if err != nil {
		return Champion{}, err
	}

	c := Champion{RunID: runID}
	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT genome_id, generation, fitness, score, fingerprint, weights
		FROM champions WHERE run_id = ?
	`, runID).Scan(&c.GenomeID, &c.Generation, &c.Fitness, &c.Score, &c.Fingerprint, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, ErrNotFound
		}
		return Champion{}, fmt.Errorf("get champion of %s: %w", runID, err)
	}
	if err := json.Unmarshal(payload, &c.Weights); err != nil {
		return Champion{}, fmt.Errorf("decode champion of %s: %w", runID, err)
	}
	return c, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, finished int64
	if err := row.Scan(&run.ID, &run.Seed, &run.Status, &started, &finished, &run.Generations, &run.BestFitness); err != nil {
		return Run{}, err
	}
	run.StartedAt = fromUnixNano(started)
	run.FinishedAt = fromUnixNano(finished)
	return run, nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			best_fitness REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT PRIMARY KEY,
			genome_id INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			score INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			weights BLOB NOT NULL
		);
	`)
	return err
}
