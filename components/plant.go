package components

import "github.com/pthm-cable/darwin/geom"

// Plant is a stationary food source.
type Plant struct {
	position geom.Vector
}

// NewPlant creates a plant at pos.
func NewPlant(pos geom.Vector) *Plant {
	return &Plant{position: pos}
}

// Position returns the plant's cell.
func (p *Plant) Position() geom.Vector { return p.position }

func (p *Plant) String() string { return "*" }

// Fire burns on a former plant cell for a limited number of days.
type Fire struct {
	position geom.Vector
	life     int
}

// NewFire creates a fire with the given remaining life.
func NewFire(pos geom.Vector, life int) *Fire {
	return &Fire{position: pos, life: life}
}

// Position returns the fire's cell.
func (f *Fire) Position() geom.Vector { return f.position }

// Life is the remaining number of days.
func (f *Fire) Life() int { return f.life }

// Burn consumes one day of life.
func (f *Fire) Burn() {
	if f.life > 0 {
		f.life--
	}
}

// BurntOut reports whether the fire has no life left.
func (f *Fire) BurntOut() bool { return f.life <= 0 }

func (f *Fire) String() string { return "#" }
