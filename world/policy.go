package world

import (
	"fmt"
	"sort"

	"github.com/pthm-cable/darwin/geom"
)

// MovePolicy reconciles animal steps with the map boundary. Allows filters the
// raw step target; Adjust rewrites an accepted step.
type MovePolicy interface {
	Name() string
	Allows(b geom.Boundary, to geom.Vector) bool
	Adjust(b geom.Boundary, mv geom.Move) geom.Move
}

// Toroidal wraps every edge to the opposite one and turns the animal around.
// A corner crossing still turns it only once.
type Toroidal struct{}

func (Toroidal) Name() string { return "toroidal" }

func (Toroidal) Allows(b geom.Boundary, to geom.Vector) bool {
	return b.Expand(1).Contains(to)
}

func (Toroidal) Adjust(b geom.Boundary, mv geom.Move) geom.Move {
	pos := mv.To
	wrapped := false
	if pos.X < b.Low.X || pos.X > b.High.X {
		pos.X = wrap(pos.X, b.Low.X, b.Width())
		wrapped = true
	}
	if pos.Y < b.Low.Y || pos.Y > b.High.Y {
		pos.Y = wrap(pos.Y, b.Low.Y, b.Height())
		wrapped = true
	}
	o := mv.Orientation
	if wrapped {
		o = o.Opposite()
	}
	return geom.Move{To: pos, Orientation: o}
}

// Globe wraps the left and right edges without turning; the poles stop the
// animal and turn it around.
type Globe struct{}

func (Globe) Name() string { return "globe" }

func (Globe) Allows(b geom.Boundary, to geom.Vector) bool {
	return b.Expand(1).Contains(to)
}

func (Globe) Adjust(b geom.Boundary, mv geom.Move) geom.Move {
	pos, o := mv.To, mv.Orientation
	if pos.IsUnder(b.Low) {
		pos.Y = b.Low.Y
		o = o.Opposite()
	}
	if pos.IsAbove(b.High) {
		pos.Y = b.High.Y
		o = o.Opposite()
	}
	if pos.X < b.Low.X || pos.X > b.High.X {
		pos.X = wrap(pos.X, b.Low.X, b.Width())
	}
	return geom.Move{To: pos, Orientation: o}
}

// Reflect clamps at every edge and turns the animal around.
type Reflect struct{}

func (Reflect) Name() string { return "reflect" }

func (Reflect) Allows(b geom.Boundary, to geom.Vector) bool {
	return b.Expand(1).Contains(to)
}

func (Reflect) Adjust(b geom.Boundary, mv geom.Move) geom.Move {
	if b.Contains(mv.To) {
		return mv
	}
	pos := geom.Vector{
		X: min(max(mv.To.X, b.Low.X), b.High.X),
		Y: min(max(mv.To.Y, b.Low.Y), b.High.Y),
	}
	return geom.Move{To: pos, Orientation: mv.Orientation.Opposite()}
}

// Bounded refuses any step that leaves the map.
type Bounded struct{}

func (Bounded) Name() string { return "bounded" }

func (Bounded) Allows(b geom.Boundary, to geom.Vector) bool { return b.Contains(to) }

func (Bounded) Adjust(_ geom.Boundary, mv geom.Move) geom.Move { return mv }

// Unbounded lets animals walk anywhere.
type Unbounded struct{}

func (Unbounded) Name() string { return "unbounded" }

func (Unbounded) Allows(geom.Boundary, geom.Vector) bool { return true }

func (Unbounded) Adjust(_ geom.Boundary, mv geom.Move) geom.Move { return mv }

var policies = map[string]MovePolicy{
	"toroidal":  Toroidal{},
	"globe":     Globe{},
	"reflect":   Reflect{},
	"bounded":   Bounded{},
	"unbounded": Unbounded{},
}

// PolicyByName looks up a built-in policy.
func PolicyByName(name string) (MovePolicy, error) {
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown move policy %q (known: %v)", name, PolicyNames())
	}
	return p, nil
}

// PolicyNames lists the built-in policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wrap maps v into [low, low+size).
func wrap(v, low, size int) int {
	if size <= 0 {
		return low
	}
	return low + ((v-low)%size+size)%size
}
