package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/pthm-cable/flappy/telemetry"
)

// MemoryStore keeps run history in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	generations map[string][]telemetry.GenerationStats
	champions   map[string]Champion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]Run)
	s.generations = make(map[string][]telemetry.GenerationStats)
	s.champions = make(map[string]Champion)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })
	return runs, nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, stats telemetry.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	gens := s.generations[stats.RunID]
	for i := range gens {
		if gens[i].Generation == stats.Generation {
			gens[i] = stats
			return nil
		}
	}
	gens = append(gens, stats)
	sort.Slice(gens, func(i, j int) bool { return gens[i].Generation < gens[j].Generation })
	s.generations[stats.RunID] = gens
	return nil
}

func (s *MemoryStore) GetGenerations(_ context.Context, runID string) ([]telemetry.GenerationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gens, ok := s.generations[runID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]telemetry.GenerationStats, len(gens))
	copy(out, gens)
	return out, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champion Champion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.champions[champion.RunID] = champion
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (Champion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.champions[runID]
	if !ok {
		return Champion{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Close() error { return nil }

var errNotInitialized = errors.New("store is not initialized")
