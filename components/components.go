// Package components defines the ECS components of map animals and the
// stationary elements that live on map cells.
package components

import (
	"github.com/pthm-cable/darwin/genome"
	"github.com/pthm-cable/darwin/geom"
)

// Position is the cell an animal stands on.
type Position struct {
	geom.Vector
}

// Orientation is the direction an animal faces.
type Orientation struct {
	geom.Direction
}

// Energy may go negative.
type Energy struct {
	Value int
}

// Dead is derived from energy and never stored separately.
func (e Energy) Dead() bool { return e.Value <= 0 }

// Genome holds the movement tape and its cursor.
type Genome struct {
	*genome.Genome
}

// Lifecycle holds identity and ancestry bookkeeping.
type Lifecycle struct {
	ID       uint64
	Seq      uint64 // placement order on the map
	BirthDay int
	Children int
}

// Element is anything that occupies a map cell.
type Element interface {
	Position() geom.Vector
	String() string
}

// MoveValidator decides whether a raw step target may be entered.
type MoveValidator interface {
	CanMoveTo(pos geom.Vector) bool
}

// MoveAdjuster reconciles a committed step against the map edges.
type MoveAdjuster interface {
	AdjustMove(mv geom.Move) geom.Move
}

// Steer applies one move command to an animal's position and orientation.
// FollowGenome turns by the next gene and steps forward. Only forward and
// backward steps are reconciled by the adjuster; turns never leave the cell.
func Steer(pos *Position, o *Orientation, g Genome, dir geom.MoveDirection, validator MoveValidator, adjuster MoveAdjuster) {
	switch dir {
	case geom.FollowGenome:
		o.Direction = g.Next().Rotate(o.Direction)
		step(pos, o, pos.Add(o.UnitVector()), validator, adjuster)
	case geom.Forward:
		step(pos, o, pos.Add(o.UnitVector()), validator, adjuster)
	case geom.Backward:
		step(pos, o, pos.Subtract(o.UnitVector()), validator, adjuster)
	case geom.Left:
		o.Direction = o.RotateRightAngleCounterClockwise()
	case geom.Right:
		o.Direction = o.RotateRightAngleClockwise()
	}
}

func step(pos *Position, o *Orientation, to geom.Vector, validator MoveValidator, adjuster MoveAdjuster) {
	if validator != nil && !validator.CanMoveTo(to) {
		return
	}
	pos.Vector = to
	if adjuster != nil {
		mv := adjuster.AdjustMove(geom.Move{To: to, Orientation: o.Direction})
		pos.Vector = mv.To
		o.Direction = mv.Orientation
	}
}
