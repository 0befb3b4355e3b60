// Package game wires the world map, breeding rules and statistics into a
// runnable simulation.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/darwin/config"
	"github.com/pthm-cable/darwin/geom"
	"github.com/pthm-cable/darwin/systems"
	"github.com/pthm-cable/darwin/telemetry"
	"github.com/pthm-cable/darwin/world"
)

// Options configures a Game.
type Options struct {
	Seed   int64
	Logger *slog.Logger
}

// Game holds the state of one simulation run.
type Game struct {
	cfg    *config.Config
	seed   int64
	rng    *rand.Rand
	logger *slog.Logger

	world     *world.Map
	factory   *systems.AnimalFactory
	breeder   *systems.Breeder
	collector *telemetry.Collector
	sub       world.Subscription
	hof       *telemetry.HallOfFame // nil when disabled
	hofSub    world.Subscription

	// State
	day    int // last completed day, 0 before the first Step
	stats  telemetry.Stats
	report world.DayReport
}

// NewGame builds the map from cfg and places the starting plants and
// animals. Animals that cannot be placed are logged and skipped.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if cfg.Derived.Policy == nil || cfg.Derived.Grower == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	mapOpts := cfg.MapOptions()
	mapOpts.Rand = rng
	m := world.New(mapOpts)

	factory := &systems.AnimalFactory{
		StartEnergy:   cfg.Animal.StartEnergy,
		GenomeLength:  cfg.Animal.GenomeLength,
		MutationCount: cfg.Mutation.Count,
		PrefixLength:  cfg.Reproduction.PrefixLength,
	}
	g := &Game{
		cfg:     cfg,
		seed:    opts.Seed,
		rng:     rng,
		logger:  logger,
		world:   m,
		factory: factory,
		breeder: &systems.Breeder{
			Factory: factory,
			WellFed: cfg.Reproduction.WellFedEnergy,
			Cost:    cfg.Reproduction.Cost,
			Rand:    rng,
			Logger:  logger,
		},
	}
	g.collector, g.sub = telemetry.NewCollector(m)
	if hc := cfg.HallOfFame; hc.Enabled {
		g.hof = telemetry.NewHallOfFame(telemetry.HallOfFameOptions{
			Size:           hc.Size,
			MinChildren:    hc.MinChildren,
			MinLifespan:    hc.MinLifespan,
			ChildrenWeight: hc.ChildrenWeight,
			LifespanWeight: hc.LifespanWeight,
		})
		g.hofSub = g.hof.Attach(m)
	}

	if err := m.GrowPlants(cfg.Simulation.StartPlants); err != nil {
		return nil, fmt.Errorf("growing start plants: %w", err)
	}
	g.spawnAnimals(cfg.Simulation.StartAnimals)
	g.collector.Flush()
	g.stats = telemetry.Aggregate(m.Snapshot())

	logger.Info("simulation created",
		"seed", opts.Seed,
		"width", cfg.Map.Width,
		"height", cfg.Map.Height,
		"policy", m.Policy().Name(),
		"animals", g.stats.Animals,
		"plants", g.stats.Plants,
	)
	return g, nil
}

// spawnAnimals places count founders at distinct random cells while free
// cells last, then at random cells. Founders are born on day 1.
func (g *Game) spawnAnimals(count int) {
	cells := g.world.Bounds().Cells()
	order := g.rng.Perm(len(cells))
	for i := range count {
		var pos geom.Vector
		if i < len(order) {
			pos = cells[order[i]]
		} else {
			pos = cells[g.rng.Intn(len(cells))]
		}
		a := g.factory.Create(pos, 1, g.rng)
		if _, err := g.world.Place(a); err != nil {
			g.logger.Warn("animal not placed", "animal", a, "error", err)
		}
	}
}

// Step runs one day and returns its statistics.
func (g *Game) Step() telemetry.Stats {
	g.advance()
	return g.collect(g.world.Snapshot())
}

func (g *Game) advance() world.DayReport {
	g.day++
	g.report = g.world.AdvanceDay(g.day, g.breeder)
	return g.report
}

// collect aggregates snap with the events seen since the last call.
func (g *Game) collect(snap world.Snapshot) telemetry.Stats {
	s := telemetry.Aggregate(snap)
	g.collector.Flush().Apply(&s)
	g.stats = s
	return s
}

// Stats returns the statistics of the last completed day.
func (g *Game) Stats() telemetry.Stats { return g.stats }

// Report returns the map's summary of the last completed day.
func (g *Game) Report() world.DayReport { return g.report }

// Map returns the world map.
func (g *Game) Map() *world.Map { return g.world }

// Day returns the last completed day.
func (g *Game) Day() int { return g.day }

// Seed returns the seed the game's random source was built from.
func (g *Game) Seed() int64 { return g.seed }

// HallOfFame returns the archive of successful dead animals, or nil when it
// is disabled.
func (g *Game) HallOfFame() *telemetry.HallOfFame { return g.hof }

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// Close detaches the statistics collector from the map.
func (g *Game) Close() {
	g.sub.Cancel()
	g.hofSub.Cancel()
}
