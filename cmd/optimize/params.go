package main

import (
	"math"

	"github.com/pthm-cable/darwin/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Energy
			{Name: "start_energy", Path: "animal.start_energy", Min: 5, Max: 100, Default: 30, Integer: true},
			{Name: "energy_gain", Path: "plants.energy_gain", Min: 1, Max: 40, Default: 8, Integer: true},
			{Name: "daily_growth", Path: "plants.daily_growth", Min: 0, Max: 60, Default: 10, Integer: true},
			// Reproduction
			{Name: "well_fed_energy", Path: "reproduction.well_fed_energy", Min: 2, Max: 80, Default: 20, Integer: true},
			{Name: "breed_cost", Path: "reproduction.cost", Min: 1, Max: 40, Default: 8, Integer: true},
			// Mutation
			{Name: "mutation_count", Path: "mutation.count", Min: 0, Max: 4, Default: 2, Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and rounds integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Animal.StartEnergy = int(c[0])
	cfg.Plants.EnergyGain = int(c[1])
	cfg.Plants.DailyGrowth = int(c[2])
	cfg.Reproduction.WellFedEnergy = int(c[3])
	cfg.Reproduction.Cost = int(c[4])
	cfg.Mutation.Count = int(c[5])
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Animal.StartEnergy),
		float64(cfg.Plants.EnergyGain),
		float64(cfg.Plants.DailyGrowth),
		float64(cfg.Reproduction.WellFedEnergy),
		float64(cfg.Reproduction.Cost),
		float64(cfg.Mutation.Count),
	}
}
