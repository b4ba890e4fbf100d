package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/telemetry"
)

// exerciseStore runs the same round trips against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetChampion(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetGenerations(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run := Run{ID: NewRunID(), Seed: 42, Status: StatusRunning, StartedAt: started}
	require.NoError(t, store.SaveRun(ctx, run))

	run.Status = StatusCompleted
	run.FinishedAt = started.Add(time.Minute)
	run.Generations = 3
	run.BestFitness = 12.5
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, run.ID, got.ID)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, int64(42), got.Seed)
	require.Equal(t, 3, got.Generations)
	require.Equal(t, 12.5, got.BestFitness)
	require.True(t, got.StartedAt.Equal(started))
	require.True(t, got.FinishedAt.Equal(run.FinishedAt))

	other := Run{ID: NewRunID(), Status: StatusRunning, StartedAt: started.Add(time.Hour)}
	require.NoError(t, store.SaveRun(ctx, other))
	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, run.ID, runs[0].ID)
	require.True(t, runs[1].FinishedAt.IsZero())

	for gen := 2; gen >= 0; gen-- {
		require.NoError(t, store.SaveGeneration(ctx, telemetry.GenerationStats{
			RunID: run.ID, Generation: gen, BestFitness: float64(gen), Score: gen,
		}))
	}
	// Saving a generation twice replaces it
	require.NoError(t, store.SaveGeneration(ctx, telemetry.GenerationStats{RunID: run.ID, Generation: 1, BestFitness: 99}))

	gens, err := store.GetGenerations(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, gens, 3)
	for i, g := range gens {
		require.Equal(t, i, g.Generation)
	}
	require.Equal(t, 99.0, gens[1].BestFitness)

	nn, err := neural.New([]int{3, 1}, "tanh", "tanh")
	require.NoError(t, err)
	nn.Layers[0].W.SetRow(0, []float64{0.5, -1, 2})
	bw := nn.MarshalWeights()

	champ := Champion{RunID: run.ID, GenomeID: 17, Generation: 2, Fitness: 12.5, Score: 3, Fingerprint: Fingerprint(bw), Weights: bw}
	require.NoError(t, store.SaveChampion(ctx, champ))

	gotChamp, err := store.GetChampion(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, champ, gotChamp)

	restored, err := neural.FromWeights(gotChamp.Weights)
	require.NoError(t, err)
	require.Equal(t, Fingerprint(bw), Fingerprint(restored.MarshalWeights()))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	require.Error(t, store.SaveRun(context.Background(), Run{ID: "r"}))
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveRun(ctx, Run{ID: "r1", Status: StatusSolved, StartedAt: time.Unix(100, 0)}))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer reopened.Close()

	run, err := reopened.GetRun(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, StatusSolved, run.Status)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	_, err := store.GetRun(context.Background(), "r1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		kind, path string
		wantErr    bool
	}{
		{"", "", false},
		{"memory", "", false},
		{"sqlite", filepath.Join(t.TempDir(), "x.db"), false},
		{"sqlite", "", true},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		store, err := NewStore(tt.kind, tt.path)
		if tt.wantErr {
			require.Error(t, err, "kind=%q", tt.kind)
			continue
		}
		require.NoError(t, err, "kind=%q", tt.kind)
		require.NotNil(t, store)
	}
}

func TestFingerprint(t *testing.T) {
	a, err := neural.New([]int{3, 2, 1}, "tanh", "tanh")
	require.NoError(t, err)
	b := a.Clone()

	require.Equal(t, Fingerprint(a.MarshalWeights()), Fingerprint(b.MarshalWeights()))
	require.Len(t, Fingerprint(a.MarshalWeights()), 16)

	b.Layers[1].B.SetVec(0, 1e-9)
	require.NotEqual(t, Fingerprint(a.MarshalWeights()), Fingerprint(b.MarshalWeights()))

	c, err := neural.New([]int{3, 2, 1}, "relu", "tanh")
	require.NoError(t, err)
	require.NotEqual(t, Fingerprint(a.MarshalWeights()), Fingerprint(c.MarshalWeights()))
}
