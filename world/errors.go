package world

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/darwin/geom"
)

var (
	// ErrOutOfBoundary is returned when a placement target lies outside the map.
	ErrOutOfBoundary = errors.New("position out of map boundary")
	// ErrPositionOccupied is returned when a placement target already holds a
	// conflicting element.
	ErrPositionOccupied = errors.New("position occupied")
	// ErrNoLayer is returned when the map was built without the needed layer.
	ErrNoLayer = errors.New("map has no such layer")
)

// PositionError records a failed placement.
type PositionError struct {
	Pos     geom.Vector
	Element string // kind of element being placed or blocking
	Err     error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("place %s at %v: %v", e.Element, e.Pos, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }

func positionError(pos geom.Vector, element string, err error) error {
	return &PositionError{Pos: pos, Element: element, Err: err}
}
