package components

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/genome"
	"github.com/pthm-cable/darwin/geom"
)

// Animal is a value copy of one animal's components. New animals are
// described this way before the map turns them into entities, and the map
// hands out copies of live animals in the same form.
type Animal struct {
	Entity ecs.Entity // set once placed

	ID          uint64
	Pos         geom.Vector
	Orientation geom.Direction
	Energy      int
	Genome      *genome.Genome
	BirthDay    int
	Children    int
	DeathDay    int // 0 while alive
}

// NewAnimal describes an animal born on birthDay.
func NewAnimal(energy int, pos geom.Vector, orientation geom.Direction, g *genome.Genome, birthDay int) Animal {
	return Animal{
		Pos:         pos,
		Orientation: orientation,
		Energy:      energy,
		Genome:      g,
		BirthDay:    birthDay,
	}
}

// Position returns the animal's cell.
func (a Animal) Position() geom.Vector { return a.Pos }

// IsDead reports whether the animal has run out of energy.
func (a Animal) IsDead() bool { return a.Energy <= 0 }

// Lifespan counts the days the animal was alive, both ends inclusive.
// Living animals are measured up to day.
func (a Animal) Lifespan(day int) int {
	end := day
	if a.DeathDay > 0 {
		end = a.DeathDay
	}
	return end - a.BirthDay + 1
}

// GenomeKey returns the genotype key, or "" without a genome.
func (a Animal) GenomeKey() string {
	if a.Genome == nil {
		return ""
	}
	return a.Genome.Key()
}

func (a Animal) String() string { return a.Orientation.Symbol() }

func (a Animal) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", a.ID),
		slog.String("pos", a.Pos.String()),
		slog.String("orientation", a.Orientation.String()),
		slog.Int("energy", a.Energy),
	)
}
