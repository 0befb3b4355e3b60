// Package geom provides integer grid geometry for the world map.
package geom

import "fmt"

// Vector is an integer grid position or offset.
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Subtract returns v - o.
func (v Vector) Subtract(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Follows reports whether v is at or above-right of o on both axes.
func (v Vector) Follows(o Vector) bool {
	return v.X >= o.X && v.Y >= o.Y
}

// Precedes reports whether v is at or below-left of o on both axes.
func (v Vector) Precedes(o Vector) bool {
	return v.X <= o.X && v.Y <= o.Y
}

// IsAbove reports whether v lies on a higher row than o.
func (v Vector) IsAbove(o Vector) bool { return v.Y > o.Y }

// IsUnder reports whether v lies on a lower row than o.
func (v Vector) IsUnder(o Vector) bool { return v.Y < o.Y }

// IsLeftOf reports whether v lies on a lower column than o.
func (v Vector) IsLeftOf(o Vector) bool { return v.X < o.X }

// IsRightOf reports whether v lies on a higher column than o.
func (v Vector) IsRightOf(o Vector) bool { return v.X > o.X }

// UpperRight returns the component-wise maximum of v and o.
func (v Vector) UpperRight(o Vector) Vector {
	return Vector{X: max(v.X, o.X), Y: max(v.Y, o.Y)}
}

// LowerLeft returns the component-wise minimum of v and o.
func (v Vector) LowerLeft(o Vector) Vector {
	return Vector{X: min(v.X, o.X), Y: min(v.Y, o.Y)}
}

// Neighbors4 returns the orthogonal neighbours in N, E, S, W order.
func (v Vector) Neighbors4() [4]Vector {
	return [4]Vector{
		{X: v.X, Y: v.Y + 1},
		{X: v.X + 1, Y: v.Y},
		{X: v.X, Y: v.Y - 1},
		{X: v.X - 1, Y: v.Y},
	}
}

// Less orders vectors row-major (by Y, then X).
func (v Vector) Less(o Vector) bool {
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.X < o.X
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Compare is a row-major comparison usable with slices.SortFunc.
func Compare(a, b Vector) int {
	switch {
	case a == b:
		return 0
	case a.Less(b):
		return -1
	default:
		return 1
	}
}
