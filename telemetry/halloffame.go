package telemetry

import (
	"encoding/json"
	"sort"

	"github.com/pthm-cable/flappy/neural"
)

// HallEntry is a champion genome recorded at the end of a generation.
type HallEntry struct {
	GenomeID    int                 `json:"genome_id"`
	Generation  int                 `json:"generation"`
	Fitness     float64             `json:"fitness"`
	Score       int                 `json:"score"`
	Fingerprint string              `json:"fingerprint"`
	Weights     neural.BrainWeights `json:"weights"`
}

// HallOfFame keeps the best distinct genomes seen during a run, sorted by
// fitness, highest first.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{maxSize: maxSize}
}

// Consider adds entry if it ranks among the best. A genome already present
// is only replaced by a fitter record. Returns true if the hall changed.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	for i, e := range hof.entries {
		if e.GenomeID != entry.GenomeID {
			continue
		}
		if entry.Fitness <= e.Fitness {
			return false
		}
		hof.entries = append(hof.entries[:i], hof.entries[i+1:]...)
		break
	}

	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})
	if idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Best returns the top entry, or false if the hall is empty.
func (hof *HallOfFame) Best() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// MarshalJSON encodes the entries as a JSON array.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	if hof.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(hof.entries)
}
