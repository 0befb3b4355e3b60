// Package main searches simulation parameters with CMA-ES for populations
// that survive long and stay stable.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/darwin/config"
)

type options struct {
	configPath   string
	fromDefaults bool
	maxDays      int
	seeds        int
	maxEvals     int
	population   int
	outputDir    string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.BoolVar(&o.fromDefaults, "from-defaults", false, "Start the search at the parameter defaults instead of the base config")
	flag.IntVar(&o.maxDays, "max-days", 500, "Day cap per simulated run")
	flag.IntVar(&o.seeds, "seeds", 3, "Seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()
	return o
}

func main() {
	if err := run(parseFlags()); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	if o.outputDir == "" {
		return errors.New("--output is required")
	}
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	baseCfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, o.maxDays, evalSeeds(o.seeds), baseCfg)

	evals, err := newEvalLog(filepath.Join(o.outputDir, "optimize_log.csv"))
	if err != nil {
		return err
	}
	defer evals.Close()

	start := params.ExtractFromConfig(baseCfg)
	if o.fromDefaults {
		start = params.DefaultVector()
	}

	popSize := o.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	tracker := &progress{maxEvals: o.maxEvals, started: time.Now()}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			ev := evaluator.Evaluate(values)
			tracker.record(ev, values)
			if err := evals.Write(newEvalRow(tracker.evals, ev, values)); err != nil {
				log.Printf("eval %d not logged: %v", tracker.evals, err)
			}
			return ev.Fitness
		},
	}

	fmt.Printf("CMA-ES over %d parameters, population=%d, max_evals=%d\n", params.Dim(), popSize, o.maxEvals)
	fmt.Printf("%d seeds per evaluation, day cap %d\n", o.seeds, o.maxDays)

	result, err := optimize.Minimize(problem, params.Normalize(start),
		&optimize.Settings{FuncEvaluations: o.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := tracker.bestValues
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	fmt.Printf("\nDone after %d evaluations in %s\n", tracker.evals, formatDuration(time.Since(tracker.started)))
	if best == nil {
		return nil
	}
	fmt.Printf("Best: survived %.0f days on average, quality %.2f\n", tracker.best.SurvivalDays, tracker.best.Quality)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %v\n", spec.Path, best[i])
	}

	return writeResults(o, params, best, evaluator)
}

// evalSeeds returns n fixed, spread out seeds so every candidate sees the
// same worlds.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

// progress tracks the best evaluation and prints one line per evaluation.
type progress struct {
	maxEvals   int
	started    time.Time
	evals      int
	best       Evaluation
	bestValues []float64
}

func (p *progress) record(ev Evaluation, values []float64) {
	p.evals++
	if p.bestValues == nil || ev.Fitness < p.best.Fitness {
		p.best = ev
		p.bestValues = values
	}

	elapsed := time.Since(p.started)
	remaining := time.Duration(p.maxEvals-p.evals) * (elapsed / time.Duration(p.evals))
	fmt.Printf("Eval %d/%d: survived=%.0fd quality=%.2f genomes=%.1f extinct=%d (best %.0fd) | elapsed %s, ETA %s\n",
		p.evals, p.maxEvals, ev.SurvivalDays, ev.Quality, ev.Genotypes, ev.Extinct, p.best.SurvivalDays,
		formatDuration(elapsed), formatDuration(remaining))
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	SurvivalDays float64 `csv:"survival_days"`
	Quality      float64 `csv:"quality"`
	Genotypes    float64 `csv:"genotypes"`
	Extinct      int     `csv:"extinct_seeds"`

	StartEnergy   float64 `csv:"start_energy"`
	EnergyGain    float64 `csv:"energy_gain"`
	DailyGrowth   float64 `csv:"daily_growth"`
	WellFedEnergy float64 `csv:"well_fed_energy"`
	BreedCost     float64 `csv:"breed_cost"`
	MutationCount float64 `csv:"mutation_count"`
}

// newEvalRow pairs an evaluation with its values in ParamVector order.
func newEvalRow(n int, ev Evaluation, values []float64) evalRow {
	return evalRow{
		Eval:          n,
		Fitness:       ev.Fitness,
		SurvivalDays:  ev.SurvivalDays,
		Quality:       ev.Quality,
		Genotypes:     ev.Genotypes,
		Extinct:       ev.Extinct,
		StartEnergy:   values[0],
		EnergyGain:    values[1],
		DailyGrowth:   values[2],
		WellFedEnergy: values[3],
		BreedCost:     values[4],
		MutationCount: values[5],
	}
}

// evalLog appends evalRows to a CSV file, header first.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	return &evalLog{f: f}, nil
}

func (l *evalLog) Write(row evalRow) error {
	rows := []evalRow{row}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(rows, l.f)
	}
	return gocsv.MarshalWithoutHeaders(rows, l.f)
}

func (l *evalLog) Close() error { return l.f.Close() }

// writeResults stores the best config and the hall of fame of its best seed.
func writeResults(o options, params *ParamVector, best []float64, evaluator *FitnessEvaluator) error {
	bestCfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, best)

	configPath := filepath.Join(o.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configPath)

	hall := evaluator.BestHallOfFame()
	if len(hall) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(hall, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding hall of fame: %w", err)
	}
	hofPath := filepath.Join(o.outputDir, "hall_of_fame.json")
	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	fmt.Printf("Hall of fame saved to: %s\n", hofPath)
	return nil
}

// formatDuration formats d as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
