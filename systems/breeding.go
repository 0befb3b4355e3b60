package systems

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/world"
)

// Breeder applies the breeding policy for co-located animals.
type Breeder struct {
	Factory *AnimalFactory
	WellFed int // minimum energy to breed
	Cost    int // energy each parent pays per attempt
	Rand    *rand.Rand
	Logger  *slog.Logger
}

// CanBreed reports whether an animal with energy is well fed.
func (b *Breeder) CanBreed(energy int) bool {
	return energy >= b.WellFed
}

// Breed tries to produce a child. Both parents pay Cost even when the
// attempt fails.
func (b *Breeder) Breed(p1, p2 world.Parent, day int) (components.Animal, error) {
	child, err := b.Factory.Birth(p1, p2, b.Cost, day, b.Rand)
	p1.Energy.Value -= b.Cost
	p2.Energy.Value -= b.Cost
	if err != nil {
		b.logger().Debug("animal not born",
			"day", day,
			"parent1", p1.Life.ID,
			"parent2", p2.Life.ID,
			"error", err,
		)
		return components.Animal{}, err
	}
	return child, nil
}

func (b *Breeder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
