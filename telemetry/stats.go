// Package telemetry aggregates daily statistics and writes them out as CSV,
// snapshots and log records.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/darwin/world"
)

// Stats is the per-day statistics record.
type Stats struct {
	Day int `csv:"day"`

	// Population at day end
	Animals    int `csv:"animals"`
	Plants     int `csv:"plants"`
	Fires      int `csv:"fires"`
	FreeFields int `csv:"free_fields"`

	// Living animals
	EnergyMean   float64 `csv:"energy_mean"`
	EnergyP50    float64 `csv:"energy_p50"`
	ChildrenMean float64 `csv:"children_mean"`

	// Removed animals, cumulative
	DeadCount    int     `csv:"dead"`
	LifespanMean float64 `csv:"lifespan_mean"`

	// Most frequent genome among the living
	TopGenotype      string `csv:"top_genotype"`
	TopGenotypeCount int    `csv:"top_genotype_count"`

	// Events during the day
	Births int `csv:"births"`
	Deaths int `csv:"deaths"`
}

// Aggregate computes statistics from a snapshot. Births and Deaths are left
// for the Collector to fill.
func Aggregate(s world.Snapshot) Stats {
	out := Stats{
		Day:        s.Day,
		Animals:    s.Counts.Animals,
		Plants:     s.Counts.Plants,
		Fires:      s.Counts.Fires,
		FreeFields: s.Counts.FreeFields,
		DeadCount:  s.DeadCount,
	}
	if s.DeadCount > 0 {
		out.LifespanMean = float64(s.DeadLifespanSum) / float64(s.DeadCount)
	}
	if len(s.Animals) == 0 {
		return out
	}

	energy := make([]float64, len(s.Animals))
	children := make([]float64, len(s.Animals))
	for i, a := range s.Animals {
		energy[i] = float64(a.Energy)
		children[i] = float64(a.ChildCount)
	}
	out.EnergyMean = stat.Mean(energy, nil)
	out.ChildrenMean = floats.Sum(children) / float64(len(children))

	sorted := append([]float64(nil), energy...)
	sort.Float64s(sorted)
	out.EnergyP50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	out.TopGenotype, out.TopGenotypeCount = topGenotype(s.Animals)
	return out
}

// topGenotype returns the most frequent genome key. On a tie the key that
// first reached the maximum count, walking animals in placement order, wins.
func topGenotype(animals []world.AnimalState) (string, int) {
	counts := make(map[string]int)
	var best string
	bestCount := 0
	for _, a := range animals {
		counts[a.GenomeKey]++
		if c := counts[a.GenomeKey]; c > bestCount {
			best, bestCount = a.GenomeKey, c
		}
	}
	return best, bestCount
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", s.Day),
		slog.Int("animals", s.Animals),
		slog.Int("plants", s.Plants),
		slog.Int("fires", s.Fires),
		slog.Int("free_fields", s.FreeFields),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("children_mean", s.ChildrenMean),
		slog.Int("dead", s.DeadCount),
		slog.Float64("lifespan_mean", s.LifespanMean),
		slog.String("top_genotype", s.TopGenotype),
		slog.Int("top_genotype_count", s.TopGenotypeCount),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
	)
}

// LogStats logs the day's stats using slog.
func (s Stats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stats", "stats", s)
}
