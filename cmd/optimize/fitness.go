package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/darwin/config"
	"github.com/pthm-cable/darwin/game"
	"github.com/pthm-cable/darwin/telemetry"
	"github.com/pthm-cable/darwin/world"
)

// FitnessEvaluator runs headless simulations and scores parameter vectors.
type FitnessEvaluator struct {
	params     *ParamVector
	maxDays    int
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	bestFitness float64
	bestHall    []telemetry.HallEntry
}

// NewFitnessEvaluator creates an evaluator running every candidate on each seed.
func NewFitnessEvaluator(params *ParamVector, maxDays int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxDays:     maxDays,
		seeds:       seeds,
		baseConfig:  baseCfg,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame of the best seed of the best
// evaluation so far.
func (fe *FitnessEvaluator) BestHallOfFame() []telemetry.HallEntry {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHall
}

const (
	minViablePop      = 3
	extinctionGrace   = 10 // days allowed below minViablePop
	qualityWarmupDays = 10
)

type runResult struct {
	survivalDays int
	animals      []float64 // population after each day
	genotypes    []float64 // distinct genomes after each day
	area         int
	hall         []telemetry.HallEntry
}

// Evaluation is the seed-averaged outcome of one parameter vector.
type Evaluation struct {
	Fitness      float64 // lower is better
	Quality      float64
	SurvivalDays float64
	Genotypes    float64 // mean distinct genomes per day
	Extinct      int     // seeds that ended before the day cap
}

// Evaluate runs x on every seed concurrently and averages the results.
func (fe *FitnessEvaluator) Evaluate(x []float64) Evaluation {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var ev Evaluation
	bestSeedFitness := math.Inf(1)
	var bestSeedHall []telemetry.HallEntry
	for _, r := range results {
		fitness := computeFitness(r)
		ev.Fitness += fitness
		ev.Quality += computeQuality(r)
		ev.SurvivalDays += float64(r.survivalDays)
		if len(r.genotypes) > 0 {
			ev.Genotypes += stat.Mean(r.genotypes, nil)
		}
		if r.survivalDays < fe.maxDays {
			ev.Extinct++
		}
		if fitness < bestSeedFitness {
			bestSeedFitness = fitness
			bestSeedHall = r.hall
		}
	}
	n := float64(len(results))
	ev.Fitness /= n
	ev.Quality /= n
	ev.SurvivalDays /= n
	ev.Genotypes /= n

	fe.mu.Lock()
	if ev.Fitness < fe.bestFitness {
		fe.bestFitness = ev.Fitness
		fe.bestHall = bestSeedHall
	}
	fe.mu.Unlock()
	return ev
}

// runSimulation drives one seed on an engine until the day cap or
// functional extinction.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	result := &runResult{area: cfg.Map.Width * cfg.Map.Height}
	if err := cfg.Validate(); err != nil {
		fe.logger.Debug("candidate rejected", "error", err)
		return result
	}

	g, err := game.NewGame(cfg, game.Options{Seed: seed, Logger: fe.logger})
	if err != nil {
		return result
	}
	defer g.Close()

	e := game.NewEngine(g, game.EngineOptions{Days: fe.maxDays, Logger: fe.logger})
	belowDays := 0
	e.OnDayEnd(func(snap world.Snapshot, _ int, _ telemetry.Stats) {
		result.animals = append(result.animals, float64(len(snap.Animals)))
		result.genotypes = append(result.genotypes, float64(distinctGenomes(snap)))
		if len(snap.Animals) < minViablePop {
			belowDays++
		} else {
			belowDays = 0
		}
		if len(snap.Animals) == 0 || belowDays >= extinctionGrace {
			e.RequestStop()
		}
	})
	if err := e.Start(context.Background()); err != nil {
		fe.logger.Debug("engine not started", "seed", seed, "error", err)
		return result
	}
	e.Wait()

	result.survivalDays = e.Day()
	if hof := g.HallOfFame(); hof != nil {
		result.hall = hof.Entries()
	}
	return result
}

func distinctGenomes(snap world.Snapshot) int {
	keys := make(map[string]struct{}, len(snap.Animals))
	for _, a := range snap.Animals {
		keys[a.GenomeKey] = struct{}{}
	}
	return len(keys)
}

// copyConfig returns a copy of the base config; all sections are values.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

func computeFitness(r *runResult) float64 {
	return -(float64(r.survivalDays) * (1.0 + 0.2*computeQuality(r)))
}

const (
	qualityWeightStability = 0.6
	qualityWeightFill      = 0.4
)

// computeQuality scores population stability and map fill in [0,1].
func computeQuality(r *runResult) float64 {
	if len(r.animals) <= qualityWarmupDays || r.area == 0 {
		return 0
	}
	valid := r.animals[qualityWarmupDays:]
	mean, std := stat.MeanStdDev(valid, nil)
	if mean == 0 {
		return 0
	}
	stability := 1 - math.Min(std/mean, 1)
	fill := math.Min(mean/float64(r.area), 1)
	return qualityWeightStability*stability + qualityWeightFill*fill
}
