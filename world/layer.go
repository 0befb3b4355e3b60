package world

import (
	"maps"
	"slices"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// layer is a position-unique store for stationary elements.
type layer[T components.Element] struct {
	cells map[geom.Vector]T
}

func newLayer[T components.Element]() *layer[T] {
	return &layer[T]{cells: make(map[geom.Vector]T)}
}

// Place inserts e unless its cell is taken.
func (l *layer[T]) Place(e T) bool {
	pos := e.Position()
	if _, ok := l.cells[pos]; ok {
		return false
	}
	l.cells[pos] = e
	return true
}

func (l *layer[T]) RemoveAt(pos geom.Vector) (T, bool) {
	e, ok := l.cells[pos]
	if ok {
		delete(l.cells, pos)
	}
	return e, ok
}

func (l *layer[T]) At(pos geom.Vector) (T, bool) {
	e, ok := l.cells[pos]
	return e, ok
}

func (l *layer[T]) Has(pos geom.Vector) bool {
	_, ok := l.cells[pos]
	return ok
}

func (l *layer[T]) Len() int { return len(l.cells) }

// Positions returns occupied cells in row-major order.
func (l *layer[T]) Positions() []geom.Vector {
	return slices.SortedFunc(maps.Keys(l.cells), geom.Compare)
}

// Sorted returns the elements in row-major order of their cells.
func (l *layer[T]) Sorted() []T {
	out := make([]T, 0, len(l.cells))
	for _, pos := range l.Positions() {
		out = append(out, l.cells[pos])
	}
	return out
}
