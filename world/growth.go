package world

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// Field is the view of the map a Grower works on.
type Field interface {
	Bounds() geom.Boundary
	CanGrow(pos geom.Vector) bool
	Grow(pos geom.Vector)
}

// Grower decides where new plants appear.
type Grower interface {
	Name() string
	Grow(f Field, count int, rng *rand.Rand)
}

// UniformGrower picks any cell without a plant or fire.
type UniformGrower struct{}

func (UniformGrower) Name() string { return "uniform" }

func (UniformGrower) Grow(f Field, count int, rng *rand.Rand) {
	free := freeCells(f, func(geom.Vector) bool { return true })
	for ; count > 0 && len(free) > 0; count-- {
		free = growOne(f, free, rng)
	}
}

// EquatorBandShare is the share of rows forming the equator band.
const EquatorBandShare = 0.2

// EquatorPreference is the chance a new plant lands inside the band.
const EquatorPreference = 0.8

// EquatorGrower prefers the central band of rows.
type EquatorGrower struct{}

func (EquatorGrower) Name() string { return "equator" }

func (EquatorGrower) Grow(f Field, count int, rng *rand.Rand) {
	lo, hi := EquatorBand(f.Bounds())
	inBand := func(p geom.Vector) bool { return p.Y >= lo && p.Y <= hi }
	band := freeCells(f, inBand)
	rest := freeCells(f, func(p geom.Vector) bool { return !inBand(p) })

	for ; count > 0 && len(band)+len(rest) > 0; count-- {
		useBand := rng.Float64() < EquatorPreference
		switch {
		case len(band) == 0:
			useBand = false
		case len(rest) == 0:
			useBand = true
		}
		if useBand {
			band = growOne(f, band, rng)
		} else {
			rest = growOne(f, rest, rng)
		}
	}
}

// EquatorBand returns the inclusive row range of the equator band.
func EquatorBand(b geom.Boundary) (lo, hi int) {
	rows := max(int(float64(b.Height())*EquatorBandShare), 1)
	lo = b.Low.Y + (b.Height()-rows)/2
	return lo, lo + rows - 1
}

func freeCells(f Field, keep func(geom.Vector) bool) []geom.Vector {
	var out []geom.Vector
	for _, pos := range f.Bounds().Cells() {
		if keep(pos) && f.CanGrow(pos) {
			out = append(out, pos)
		}
	}
	return out
}

func growOne(f Field, cells []geom.Vector, rng *rand.Rand) []geom.Vector {
	i := rng.Intn(len(cells))
	f.Grow(cells[i])
	last := len(cells) - 1
	cells[i] = cells[last]
	return cells[:last]
}

// GrowerByName looks up a built-in grower.
func GrowerByName(name string) (Grower, error) {
	switch name {
	case "uniform", "":
		return UniformGrower{}, nil
	case "equator":
		return EquatorGrower{}, nil
	}
	return nil, fmt.Errorf("unknown plant variant %q", name)
}

// GrowPlants grows up to count plants with the configured grower.
func (m *Map) GrowPlants(count int) error {
	m.lock()
	defer m.unlock()
	if m.plants == nil {
		return ErrNoLayer
	}
	m.growPlants(count)
	return nil
}

func (m *Map) growPlants(count int) {
	if m.plants == nil || count <= 0 {
		return
	}
	m.opts.Grower.Grow(growField{m}, count, m.rng)
}

// growField exposes the plant layer to growers while the lock is held.
type growField struct{ m *Map }

func (g growField) Bounds() geom.Boundary { return g.m.bounds }

func (g growField) CanGrow(pos geom.Vector) bool { return g.m.plantFree(pos) }

func (g growField) Grow(pos geom.Vector) {
	p := components.NewPlant(pos)
	if g.m.plants.Place(p) {
		g.m.emit(EventPlantPlaced, pos, p)
	}
}
