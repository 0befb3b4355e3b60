// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/darwin/world"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Map          MapConfig          `yaml:"map"`
	Simulation   SimulationConfig   `yaml:"simulation"`
	Animal       AnimalConfig       `yaml:"animal"`
	Plants       PlantsConfig       `yaml:"plants"`
	Fire         FireConfig         `yaml:"fire"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	HallOfFame   HallOfFameConfig   `yaml:"hall_of_fame"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// MapConfig holds grid dimensions and the boundary rule.
type MapConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Variant       string `yaml:"variant"`        // move policy name, see world.PolicyNames
	BlockOccupied bool   `yaml:"block_occupied"` // animals may not share a cell
}

// SimulationConfig holds run-level parameters.
type SimulationConfig struct {
	Days         int           `yaml:"days"` // 0 runs until stopped
	Seed         int64         `yaml:"seed"`
	StartAnimals int           `yaml:"start_animals"`
	StartPlants  int           `yaml:"start_plants"`
	DayDelay     time.Duration `yaml:"day_delay"`
}

// AnimalConfig holds founder animal parameters.
type AnimalConfig struct {
	StartEnergy     int `yaml:"start_energy"`
	GenomeLength    int `yaml:"genome_length"`
	DailyEnergyCost int `yaml:"daily_energy_cost"`
}

// PlantsConfig holds plant growth parameters.
type PlantsConfig struct {
	Variant     string `yaml:"variant"` // equator | uniform
	EnergyGain  int    `yaml:"energy_gain"`
	DailyGrowth int    `yaml:"daily_growth"`
}

// FireConfig holds fire layer parameters.
type FireConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Lifetime       int     `yaml:"lifetime"`
	IgnitionChance float64 `yaml:"ignition_chance"`
}

// ReproductionConfig holds breeding parameters.
type ReproductionConfig struct {
	WellFedEnergy int `yaml:"well_fed_energy"`
	Cost          int `yaml:"cost"`          // paid by each parent per attempt
	PrefixLength  int `yaml:"prefix_length"` // 0 splits by energy share
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Count int `yaml:"count"`
}

// HallOfFameConfig holds parameters for the record of successful animals.
type HallOfFameConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Size           int     `yaml:"size"`
	MinChildren    int     `yaml:"min_children"`
	MinLifespan    int     `yaml:"min_lifespan"`
	ChildrenWeight float64 `yaml:"children_weight"`
	LifespanWeight float64 `yaml:"lifespan_weight"`
}

// TelemetryConfig holds statistics output parameters.
type TelemetryConfig struct {
	OutputDir       string `yaml:"output_dir"`
	MapID           string `yaml:"map_id"`
	LogStats        bool   `yaml:"log_stats"`
	PerfWindow      int    `yaml:"perf_window"`       // days averaged by the perf collector
	PerfLogInterval int    `yaml:"perf_log_interval"` // days between perf logs, 0 disables
	Bookmarks       bool   `yaml:"bookmarks"`
	BookmarkHistory int    `yaml:"bookmark_history"` // days kept by the bookmark detector
	SnapshotDir     string `yaml:"snapshot_dir"`     // snapshots on bookmarks and at the end of a run
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	Policy world.MovePolicy
	Grower world.Grower
	Area   int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
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
		return nil, err
	}
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

// Validate checks the configuration and computes derived values.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Map.Width > 0 && c.Map.Height > 0, "map: dimensions must be positive, got %dx%d", c.Map.Width, c.Map.Height)
	check(c.Simulation.Days >= 0, "simulation.days must be >= 0, got %d", c.Simulation.Days)
	check(c.Simulation.StartAnimals >= 0, "simulation.start_animals must be >= 0, got %d", c.Simulation.StartAnimals)
	check(c.Simulation.StartPlants >= 0, "simulation.start_plants must be >= 0, got %d", c.Simulation.StartPlants)
	check(c.Simulation.DayDelay >= 0, "simulation.day_delay must be >= 0, got %v", c.Simulation.DayDelay)
	check(c.Animal.StartEnergy > 0, "animal.start_energy must be positive, got %d", c.Animal.StartEnergy)
	check(c.Animal.GenomeLength > 0, "animal.genome_length must be positive, got %d", c.Animal.GenomeLength)
	check(c.Animal.DailyEnergyCost >= 0, "animal.daily_energy_cost must be >= 0, got %d", c.Animal.DailyEnergyCost)
	check(c.Plants.EnergyGain >= 0, "plants.energy_gain must be >= 0, got %d", c.Plants.EnergyGain)
	check(c.Plants.DailyGrowth >= 0, "plants.daily_growth must be >= 0, got %d", c.Plants.DailyGrowth)
	check(c.Reproduction.WellFedEnergy > 0, "reproduction.well_fed_energy must be positive, got %d", c.Reproduction.WellFedEnergy)
	check(c.Reproduction.Cost >= 0, "reproduction.cost must be >= 0, got %d", c.Reproduction.Cost)
	check(c.Reproduction.PrefixLength >= 0 && c.Reproduction.PrefixLength <= c.Animal.GenomeLength,
		"reproduction.prefix_length must be in [0, genome_length], got %d", c.Reproduction.PrefixLength)
	check(c.Mutation.Count >= 0, "mutation.count must be >= 0, got %d", c.Mutation.Count)
	if c.Fire.Enabled {
		check(c.Fire.Lifetime > 0, "fire.lifetime must be positive, got %d", c.Fire.Lifetime)
		check(c.Fire.IgnitionChance >= 0 && c.Fire.IgnitionChance <= 1, "fire.ignition_chance must be in [0,1], got %v", c.Fire.IgnitionChance)
	}
	if c.HallOfFame.Enabled {
		hof := c.HallOfFame
		check(hof.Size > 0, "hall_of_fame.size must be positive, got %d", hof.Size)
		check(hof.MinChildren >= 0 && hof.MinLifespan >= 0, "hall_of_fame: entry minimums must be >= 0")
		check(hof.ChildrenWeight >= 0 && hof.LifespanWeight >= 0, "hall_of_fame: weights must be >= 0")
	}
	check(c.Telemetry.PerfLogInterval >= 0, "telemetry.perf_log_interval must be >= 0, got %d", c.Telemetry.PerfLogInterval)
	check(c.Telemetry.BookmarkHistory >= 0, "telemetry.bookmark_history must be >= 0, got %d", c.Telemetry.BookmarkHistory)

	policy, err := world.PolicyByName(c.Map.Variant)
	if err != nil {
		errs = append(errs, fmt.Errorf("map.variant: %w", err))
	}
	grower, err := world.GrowerByName(c.Plants.Variant)
	if err != nil {
		errs = append(errs, fmt.Errorf("plants.variant: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	c.Derived = DerivedConfig{
		Policy: policy,
		Grower: grower,
		Area:   c.Map.Width * c.Map.Height,
	}
	return nil
}

// MapOptions builds world options from the configuration.
func (c *Config) MapOptions() world.Options {
	opts := world.Options{
		Width:           c.Map.Width,
		Height:          c.Map.Height,
		Policy:          c.Derived.Policy,
		BlockOccupied:   c.Map.BlockOccupied,
		EnergyGain:      c.Plants.EnergyGain,
		DailyEnergyCost: c.Animal.DailyEnergyCost,
		Plants:          true,
		PlantGrowth:     c.Plants.DailyGrowth,
		Grower:          c.Derived.Grower,
	}
	if c.Fire.Enabled {
		opts.Fire = &world.FireOptions{Lifetime: c.Fire.Lifetime, IgnitionChance: c.Fire.IgnitionChance}
	}
	return opts
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
