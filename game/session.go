package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/flappy/storage"
)

// TrialSummary describes how the last evaluated generation played out.
type TrialSummary struct {
	Ticks       int
	Score       int
	Collisions  int
	Crashes     int
	Survivors   int
	Elapsed     time.Duration
	TicksPerSec float64
}

// LogValue implements slog.LogValuer for structured logging.
func (s TrialSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ticks", s.Ticks),
		slog.Int("score", s.Score),
		slog.Int("collisions", s.Collisions),
		slog.Int("crashes", s.Crashes),
		slog.Int("survivors", s.Survivors),
		slog.Duration("elapsed", s.Elapsed),
		slog.Float64("ticks_per_sec", s.TicksPerSec),
	)
}

// Session is the state of one training run that outlives individual trials.
type Session struct {
	ID          string
	Seed        int64
	StartedAt   time.Time
	Generation  int
	BestFitness float64
	Trials      int
	Last        TrialSummary
}

// NewSession starts a session with a fresh run ID.
func NewSession(seed int64) *Session {
	return &Session{
		ID:        storage.NewRunID(),
		Seed:      seed,
		StartedAt: time.Now(),
	}
}

func (s *Session) record(t TrialSummary) {
	s.Last = t
	s.Trials++
}
