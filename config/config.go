// Package config provides configuration loading for the game and the training loop.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all game and training parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Bird      BirdConfig      `yaml:"bird"`
	Pipe      PipeConfig      `yaml:"pipe"`
	Ground    GroundConfig    `yaml:"ground"`
	Trial     TrialConfig     `yaml:"trial"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Neural    NeuralConfig    `yaml:"neural"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"` // Presenter pacing; headless runs are unthrottled
}

// BirdConfig holds agent kinematics.
type BirdConfig struct {
	StartX           float64 `yaml:"start_x"`
	StartY           float64 `yaml:"start_y"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	JumpVelocity     float64 `yaml:"jump_velocity"`    // Velocity set by a jump (negative = up)
	Gravity          float64 `yaml:"gravity"`          // displacement = v*t + 0.5*g*t^2
	MaxDisplacement  float64 `yaml:"max_displacement"` // Per-tick downward clamp
	FallPenalty      float64 `yaml:"fall_penalty"`     // Extra upward pixels while displacement < 0
	MaxRotation      float64 `yaml:"max_rotation"`     // Degrees
	MinRotation      float64 `yaml:"min_rotation"`     // Degrees (nose dive)
	RotationVelocity float64 `yaml:"rotation_velocity"`
	TiltHold         float64 `yaml:"tilt_hold"` // Pixels below the jump anchor before tilting down
	AnimationTime    int     `yaml:"animation_time"`
}

// PipeConfig holds obstacle geometry and spawning.
type PipeConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Gap      float64 `yaml:"gap"`
	Velocity float64 `yaml:"velocity"`
	MinTop   int     `yaml:"min_top"` // Gap top is drawn from [min_top, max_top)
	MaxTop   int     `yaml:"max_top"`
	FirstX   float64 `yaml:"first_x"`
	SpawnX   float64 `yaml:"spawn_x"`
}

// GroundConfig holds the scrolling floor.
type GroundConfig struct {
	Y        float64 `yaml:"y"`
	Width    float64 `yaml:"width"`
	Velocity float64 `yaml:"velocity"`
}

// TrialConfig holds per-generation termination settings.
type TrialConfig struct {
	ScoreCap int `yaml:"score_cap"` // Trial ends once score exceeds this
	MaxTicks int `yaml:"max_ticks"` // 0 = unbounded
}

// FitnessConfig holds fitness shaping parameters.
type FitnessConfig struct {
	AliveReward      float64 `yaml:"alive_reward"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	PassBonus        float64 `yaml:"pass_bonus"`
	JumpThreshold    float64 `yaml:"jump_threshold"`
}

// NeuralConfig holds controller network topology.
type NeuralConfig struct {
	Inputs           int     `yaml:"inputs"`
	Outputs          int     `yaml:"outputs"`
	HiddenLayers     []int   `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [4]
	HiddenActivation string  `yaml:"hidden_activation"`
	OutputActivation string  `yaml:"output_activation"`
	InitStdev        float64 `yaml:"init_stdev"`
}

// EvolutionConfig holds parameters consumed by the evolutionary algorithm.
type EvolutionConfig struct {
	PopulationSize     int     `yaml:"population_size"`
	Generations        int     `yaml:"generations"`
	FitnessCriterion   string  `yaml:"fitness_criterion"` // max, mean or min
	FitnessThreshold   float64 `yaml:"fitness_threshold"`
	NoThreshold        bool    `yaml:"no_fitness_termination"`
	ResetOnExtinction  bool    `yaml:"reset_on_extinction"`
	Elitism            int     `yaml:"elitism"`
	SurvivalThreshold  float64 `yaml:"survival_threshold"`
	MinSpeciesSize     int     `yaml:"min_species_size"`
	TournamentSize     int     `yaml:"tournament_size"`
	CompatThreshold    float64 `yaml:"compatibility_threshold"`
	MaxStagnation      int     `yaml:"max_stagnation"`
	SpeciesElitism     int     `yaml:"species_elitism"`
	WeightMutateRate   float64 `yaml:"weight_mutate_rate"`
	WeightMutatePower  float64 `yaml:"weight_mutate_power"`
	WeightReplaceRate  float64 `yaml:"weight_replace_rate"`
	BiasMutateRate     float64 `yaml:"bias_mutate_rate"`
	BiasMutatePower    float64 `yaml:"bias_mutate_power"`
	BiasReplaceRate    float64 `yaml:"bias_replace_rate"`
	WeightMaxValue     float64 `yaml:"weight_max_value"`
	CrossoverRate      float64 `yaml:"crossover_rate"`
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	LogGenerations bool   `yaml:"log_generations"`
	OutputDir      string `yaml:"output_dir"`
}

// StorageConfig selects the run history backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory or sqlite
	Path    string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PipeWidth   float64 // Pipe.Width as float64
	PipeHeight  float64 // Pipe.Height as float64
	BirdHeight  float64 // Bird.Height as float64
	TopRange    int     // Pipe.MaxTop - Pipe.MinTop
	LayerSizes  []int   // Inputs, hidden..., outputs
	HalfGravity float64 // 0.5 * Bird.Gravity
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Validate reports every malformed setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Bird.Width > 0 && c.Bird.Height > 0, "bird size must be positive, got %dx%d", c.Bird.Width, c.Bird.Height)
	check(c.Bird.MaxDisplacement > 0, "bird.max_displacement must be > 0")
	check(c.Bird.AnimationTime > 0, "bird.animation_time must be > 0")
	check(c.Pipe.Width > 0 && c.Pipe.Height > 0, "pipe size must be positive, got %dx%d", c.Pipe.Width, c.Pipe.Height)
	check(c.Pipe.Gap > 0, "pipe.gap must be > 0")
	check(c.Pipe.MaxTop > c.Pipe.MinTop, "pipe.max_top (%d) must exceed pipe.min_top (%d)", c.Pipe.MaxTop, c.Pipe.MinTop)
	check(c.Ground.Width > 0, "ground.width must be > 0")
	check(c.Ground.Y > c.Bird.StartY, "ground.y must be below bird.start_y")
	check(c.Trial.ScoreCap >= 0, "trial.score_cap must be >= 0")
	check(c.Trial.MaxTicks >= 0, "trial.max_ticks must be >= 0")
	check(c.Neural.Inputs == 3, "neural.inputs must be 3, got %d", c.Neural.Inputs)
	check(c.Neural.Outputs >= 1, "neural.outputs must be >= 1")
	for i, n := range c.Neural.HiddenLayers {
		check(n > 0, "neural.hidden_layers[%d] must be > 0", i)
	}
	check(c.Evolution.PopulationSize > 0, "evolution.population_size must be > 0")
	check(c.Evolution.Generations > 0, "evolution.generations must be > 0")
	switch c.Evolution.FitnessCriterion {
	case "max", "mean", "min":
	default:
		errs = append(errs, fmt.Errorf("evolution.fitness_criterion must be max, mean or min, got %q", c.Evolution.FitnessCriterion))
	}
	check(c.Evolution.Elitism >= 0, "evolution.elitism must be >= 0")
	check(c.Evolution.SurvivalThreshold > 0 && c.Evolution.SurvivalThreshold <= 1, "evolution.survival_threshold must be in (0, 1]")
	check(c.Evolution.MinSpeciesSize >= 1, "evolution.min_species_size must be >= 1")
	check(c.Evolution.CompatThreshold > 0, "evolution.compatibility_threshold must be > 0")
	check(c.Evolution.WeightMaxValue > 0, "evolution.weight_max_value must be > 0")
	switch c.Storage.Backend {
	case "", "memory":
	case "sqlite":
		check(c.Storage.Path != "", "storage.path is required for the sqlite backend")
	default:
		errs = append(errs, fmt.Errorf("unsupported storage backend %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PipeWidth = float64(c.Pipe.Width)
	c.Derived.PipeHeight = float64(c.Pipe.Height)
	c.Derived.BirdHeight = float64(c.Bird.Height)
	c.Derived.TopRange = c.Pipe.MaxTop - c.Pipe.MinTop
	c.Derived.HalfGravity = 0.5 * c.Bird.Gravity

	sizes := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	sizes = append(sizes, c.Neural.Inputs)
	sizes = append(sizes, c.Neural.HiddenLayers...)
	sizes = append(sizes, c.Neural.Outputs)
	c.Derived.LayerSizes = sizes
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
