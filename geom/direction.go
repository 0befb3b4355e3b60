package geom

import "fmt"

// Direction is one of the eight compass points, clockwise from north.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// NumDirections is the number of compass points.
const NumDirections = 8

var (
	directionNames   = [NumDirections]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	directionSymbols = [NumDirections]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}
	unitVectors      = [NumDirections]Vector{
		{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}
)

// Rotate turns the direction clockwise by steps of 45°. Negative steps turn
// counter-clockwise.
func (d Direction) Rotate(steps int) Direction {
	n := (int(d) + steps) % NumDirections
	if n < 0 {
		n += NumDirections
	}
	return Direction(n)
}

// RotateRightAngleClockwise turns 90° clockwise.
func (d Direction) RotateRightAngleClockwise() Direction { return d.Rotate(2) }

// RotateRightAngleCounterClockwise turns 90° counter-clockwise.
func (d Direction) RotateRightAngleCounterClockwise() Direction { return d.Rotate(-2) }

// Opposite turns 180°.
func (d Direction) Opposite() Direction { return d.Rotate(4) }

// UnitVector is the one-cell step in this direction (Y grows northwards).
func (d Direction) UnitVector() Vector { return unitVectors[d%NumDirections] }

// Symbol is an arrow glyph for text rendering.
func (d Direction) Symbol() string { return directionSymbols[d%NumDirections] }

func (d Direction) String() string {
	if d >= NumDirections {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// MoveDirection is an explicit movement command. The zero value lets the
// animal's genome decide.
type MoveDirection uint8

const (
	FollowGenome MoveDirection = iota
	Forward
	Backward
	Left
	Right
)

func (m MoveDirection) String() string {
	switch m {
	case FollowGenome:
		return "genome"
	case Forward:
		return "f"
	case Backward:
		return "b"
	case Left:
		return "l"
	case Right:
		return "r"
	}
	return fmt.Sprintf("MoveDirection(%d)", uint8(m))
}

// ParseMoveDirection maps the short command tokens f, b, l, r (or their long
// forms) to move directions.
func ParseMoveDirection(s string) (MoveDirection, error) {
	switch s {
	case "f", "forward":
		return Forward, nil
	case "b", "backward":
		return Backward, nil
	case "l", "left":
		return Left, nil
	case "r", "right":
		return Right, nil
	}
	return FollowGenome, fmt.Errorf("unknown move direction %q", s)
}

// ParseMoveDirections parses a list of tokens, failing on the first unknown one.
func ParseMoveDirections(args []string) ([]MoveDirection, error) {
	out := make([]MoveDirection, 0, len(args))
	for _, a := range args {
		d, err := ParseMoveDirection(a)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Move is a candidate position and orientation handed to a move policy.
type Move struct {
	To          Vector
	Orientation Direction
}
