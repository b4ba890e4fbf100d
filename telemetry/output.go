package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flappy/config"
)

// OutputManager writes experiment output to a directory:
// generations.csv, config.yaml, champion.json and hall_of_fame.json.
// A nil manager (output disabled) accepts every call and does nothing.
type OutputManager struct {
	dir             string
	generationsFile *os.File

	generationsHeaderWritten bool
}

// NewOutputManager creates the output directory and opens generations.csv.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}

	return &OutputManager{dir: dir, generationsFile: f}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends a generation record to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationStats{stats}

	if !om.generationsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.generationsFile); err != nil {
			return fmt.Errorf("writing generation: %w", err)
		}
		om.generationsHeaderWritten = true
		return nil
	}

	if err := gocsv.MarshalWithoutHeaders(records, om.generationsFile); err != nil {
		return fmt.Errorf("writing generation: %w", err)
	}
	return nil
}

// WriteChampion saves the run's best genome as champion.json.
func (om *OutputManager) WriteChampion(entry HallEntry) error {
	if om == nil {
		return nil
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling champion: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "champion.json"), data, 0644); err != nil {
		return fmt.Errorf("writing champion.json: %w", err)
	}
	return nil
}

// WriteHallOfFame saves the hall of fame as JSON.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall_of_fame.json: %w", err)
	}
	return nil
}

// ReadChampion loads a champion.json written by WriteChampion.
func ReadChampion(path string) (HallEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HallEntry{}, fmt.Errorf("reading champion: %w", err)
	}
	var entry HallEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return HallEntry{}, fmt.Errorf("parsing champion: %w", err)
	}
	return entry, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes the output files.
func (om *OutputManager) Close() error {
	if om == nil || om.generationsFile == nil {
		return nil
	}
	return om.generationsFile.Close()
}
