package geom

import "fmt"

// Boundary is an axis-aligned rectangle with inclusive corners.
type Boundary struct {
	Low  Vector `json:"low"`
	High Vector `json:"high"`
}

// NewBoundary builds a boundary from any two opposite corners.
func NewBoundary(a, b Vector) Boundary {
	return Boundary{Low: a.LowerLeft(b), High: a.UpperRight(b)}
}

// Rect returns the boundary of a w x h grid anchored at the origin.
func Rect(w, h int) Boundary {
	return Boundary{Low: Vector{}, High: Vector{X: w - 1, Y: h - 1}}
}

// Contains reports whether v lies inside the boundary.
func (b Boundary) Contains(v Vector) bool {
	return v.Follows(b.Low) && v.Precedes(b.High)
}

// Width is the number of columns.
func (b Boundary) Width() int { return b.High.X - b.Low.X + 1 }

// Height is the number of rows.
func (b Boundary) Height() int { return b.High.Y - b.Low.Y + 1 }

// Area is the number of cells.
func (b Boundary) Area() int { return b.Width() * b.Height() }

// Expand grows the boundary by n cells on every side.
func (b Boundary) Expand(n int) Boundary {
	d := Vector{X: n, Y: n}
	return Boundary{Low: b.Low.Subtract(d), High: b.High.Add(d)}
}

// Cells returns every position in row-major order.
func (b Boundary) Cells() []Vector {
	if b.Width() <= 0 || b.Height() <= 0 {
		return nil
	}
	out := make([]Vector, 0, b.Area())
	for y := b.Low.Y; y <= b.High.Y; y++ {
		for x := b.Low.X; x <= b.High.X; x++ {
			out = append(out, Vector{X: x, Y: y})
		}
	}
	return out
}

func (b Boundary) String() string {
	return fmt.Sprintf("%v-%v", b.Low, b.High)
}
