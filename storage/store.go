// Package storage persists training run history: runs, per-generation
// statistics and champion genomes.
package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusSolved    = "solved"
	StatusQuit      = "quit"
	StatusCancelled = "cancelled"
	StatusExtinct   = "extinct"
	StatusFailed    = "failed"
)

// Run describes one training run.
type Run struct {
	ID          string    `json:"id"`
	Seed        int64     `json:"seed"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Generations int       `json:"generations"`
	BestFitness float64   `json:"best_fitness"`
}

// Champion is the best genome of a run.
type Champion struct {
	RunID       string              `json:"run_id"`
	GenomeID    int                 `json:"genome_id"`
	Generation  int                 `json:"generation"`
	Fitness     float64             `json:"fitness"`
	Score       int                 `json:"score"`
	Fingerprint string              `json:"fingerprint"`
	Weights     neural.BrainWeights `json:"weights"`
}

// Store persists run history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context) ([]Run, error)
	SaveGeneration(ctx context.Context, stats telemetry.GenerationStats) error
	GetGenerations(ctx context.Context, runID string) ([]telemetry.GenerationStats, error)
	SaveChampion(ctx context.Context, champion Champion) error
	GetChampion(ctx context.Context, runID string) (Champion, error)
	Close() error
}

// NewStore creates an uninitialized store for the given backend.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, errors.New("sqlite path is required")
		}
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Fingerprint hashes a network's shape, activations and parameters. Equal
// networks always share a fingerprint.
func Fingerprint(bw neural.BrainWeights) string {
	d := xxhash.New()
	var buf []byte
	for _, n := range bw.Sizes {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(n))
	}
	buf = append(buf, bw.Hidden...)
	buf = append(buf, 0)
	buf = append(buf, bw.Output...)
	buf = append(buf, 0)
	for _, l := range bw.Layers {
		for _, v := range l.W {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		for _, v := range l.B {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	_, _ = d.Write(buf)
	return fmt.Sprintf("%016x", d.Sum64())
}
