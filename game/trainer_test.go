package game

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/evolve"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/telemetry"
)

func trainerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.Evolution.PopulationSize = 12
	cfg.Evolution.Generations = 3
	cfg.Evolution.FitnessThreshold = 1e9
	cfg.Trial.MaxTicks = 300
	return cfg
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	return store
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrainerRunPersists(t *testing.T) {
	cfg := trainerConfig(t)
	store := newTestStore(t)
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)
	defer out.Close()

	tr, err := NewTrainer(cfg, TrainerOptions{Seed: 5, Store: store, Output: out, Logger: quietLogger()})
	require.NoError(t, err)

	best, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, best)

	ctx := context.Background()
	run, err := store.GetRun(ctx, tr.Session().ID)
	require.NoError(t, err)
	require.Equal(t, storage.StatusCompleted, run.Status)
	require.Equal(t, 3, run.Generations)
	require.Equal(t, best.Fitness, run.BestFitness)
	require.False(t, run.FinishedAt.IsZero())

	gens, err := store.GetGenerations(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, gens, 3)
	for i, g := range gens {
		require.Equal(t, i, g.Generation)
		require.Equal(t, cfg.Evolution.PopulationSize, g.Population)
		require.GreaterOrEqual(t, g.BestFitness, g.MeanFitness)
	}

	champ, err := store.GetChampion(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, best.Fitness, champ.Fitness)
	require.Equal(t, storage.Fingerprint(best.Brain.MarshalWeights()), champ.Fingerprint)

	for _, name := range []string{"generations.csv", "champion.json", "hall_of_fame.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
	entry, err := telemetry.ReadChampion(filepath.Join(dir, "champion.json"))
	require.NoError(t, err)
	require.Equal(t, champ.Fingerprint, entry.Fingerprint)
}

func TestTrainerSolved(t *testing.T) {
	cfg := trainerConfig(t)
	cfg.Evolution.FitnessThreshold = 0
	store := newTestStore(t)

	tr, err := NewTrainer(cfg, TrainerOptions{Seed: 5, Store: store, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = tr.Run(context.Background())
	require.NoError(t, err)

	run, err := store.GetRun(context.Background(), tr.Session().ID)
	require.NoError(t, err)
	require.Equal(t, storage.StatusSolved, run.Status)
	require.Equal(t, 1, run.Generations)
}

func TestTrainerQuit(t *testing.T) {
	cfg := trainerConfig(t)
	store := newTestStore(t)
	p := &quitAfter{frames: 3}

	tr, err := NewTrainer(cfg, TrainerOptions{Seed: 5, Store: store, Presenter: p, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = tr.Run(context.Background())
	require.ErrorIs(t, err, ErrQuit)

	ctx := context.Background()
	run, err := store.GetRun(ctx, tr.Session().ID)
	require.NoError(t, err)
	require.Equal(t, storage.StatusQuit, run.Status)

	_, err = store.GetChampion(ctx, run.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetGenerations(ctx, run.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTrainerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newTestStore(t)

	tr, err := NewTrainer(trainerConfig(t), TrainerOptions{Store: store, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = tr.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	run, err := store.GetRun(context.Background(), tr.Session().ID)
	require.NoError(t, err)
	require.Equal(t, storage.StatusCancelled, run.Status)
}

func TestTrainerGenerationOverride(t *testing.T) {
	tr, err := NewTrainer(trainerConfig(t), TrainerOptions{Generations: 1, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = tr.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tr.Session().Trials)
	require.Equal(t, 1, tr.Population().Generation())
	require.Len(t, tr.HallOfFame().Entries(), 1)
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		err    error
		solved bool
		want   string
	}{
		{nil, false, storage.StatusCompleted},
		{nil, true, storage.StatusSolved},
		{ErrQuit, false, storage.StatusQuit},
		{context.Canceled, false, storage.StatusCancelled},
		{context.DeadlineExceeded, false, storage.StatusCancelled},
		{evolve.ErrExtinct, false, storage.StatusExtinct},
		{io.ErrUnexpectedEOF, false, storage.StatusFailed},
	}
	for _, tt := range tests {
		if got := runStatus(tt.err, tt.solved); got != tt.want {
			t.Errorf("runStatus(%v, %v) = %q, want %q", tt.err, tt.solved, got, tt.want)
		}
	}
}
