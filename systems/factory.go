// Package systems holds the rules that create animals: spawning at the start
// of a run and recombination when two animals breed.
package systems

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/genome"
	"github.com/pthm-cable/darwin/geom"
	"github.com/pthm-cable/darwin/world"
)

// ErrBreedingFailed is returned when two parents cannot produce a child.
var ErrBreedingFailed = errors.New("breeding failed")

// AnimalFactory creates animals with fresh IDs.
type AnimalFactory struct {
	StartEnergy   int
	GenomeLength  int
	MutationCount int
	// PrefixLength fixes how many genes the stronger parent passes on. Zero
	// splits the genome by the parents' energy share.
	PrefixLength int

	nextID atomic.Uint64
}

// NextID reserves a new animal ID.
func (f *AnimalFactory) NextID() uint64 {
	return f.nextID.Add(1)
}

// Create spawns a founder animal with a random orientation and genome.
func (f *AnimalFactory) Create(pos geom.Vector, day int, rng *rand.Rand) components.Animal {
	return f.CreateWithGenome(pos, day, genome.Random(f.GenomeLength, rng), rng)
}

// CreateWithGenome spawns an animal carrying g with a random orientation.
func (f *AnimalFactory) CreateWithGenome(pos geom.Vector, day int, g *genome.Genome, rng *rand.Rand) components.Animal {
	o := geom.Direction(rng.Intn(geom.NumDirections))
	a := components.NewAnimal(f.StartEnergy, pos, o, g, day)
	a.ID = f.NextID()
	return a
}

// Birth recombines two parents into a child carrying energy 2*cost. The
// parents are left untouched; charging them is the caller's policy and the
// map credits their child counters once the child is placed.
func (f *AnimalFactory) Birth(p1, p2 world.Parent, cost, day int, rng *rand.Rand) (components.Animal, error) {
	l1, l2 := p1.Genome.Len(), p2.Genome.Len()
	if l1 != l2 {
		return components.Animal{}, fmt.Errorf("%w: genome lengths %d and %d differ", ErrBreedingFailed, l1, l2)
	}
	e1, e2 := p1.Energy.Value, p2.Energy.Value
	if e1 < cost || e2 < cost {
		return components.Animal{}, fmt.Errorf("%w: parents cannot afford cost %d (energy %d, %d)", ErrBreedingFailed, cost, e1, e2)
	}
	if 2*cost <= 0 {
		return components.Animal{}, fmt.Errorf("%w: child energy %d is not positive", ErrBreedingFailed, 2*cost)
	}

	strong, weak := p1, p2
	if weak.Energy.Value > strong.Energy.Value {
		strong, weak = weak, strong
	}
	k := f.strongShare(strong.Energy.Value, weak.Energy.Value, l1)

	// The stronger parent's genes land on a random side.
	fromLeft := rng.Intn(2) == 0
	var g *genome.Genome
	if fromLeft {
		g = genome.Combine(strong.Genome.Part(k, true), weak.Genome.Part(l1-k, false))
	} else {
		g = genome.Combine(weak.Genome.Part(l1-k, true), strong.Genome.Part(k, false))
	}
	g.Mutate(f.MutationCount, rng)

	o := geom.Direction(rng.Intn(geom.NumDirections))
	child := components.NewAnimal(2*cost, strong.Pos, o, g, day)
	child.ID = f.NextID()
	return child, nil
}

// strongShare is the number of genes taken from the stronger parent.
func (f *AnimalFactory) strongShare(strong, weak, length int) int {
	if f.PrefixLength > 0 {
		return min(f.PrefixLength, length)
	}
	total := strong + weak
	if total <= 0 {
		return length / 2
	}
	return length * strong / total
}
