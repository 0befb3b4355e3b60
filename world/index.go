package world

import (
	"maps"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/geom"
)

// cellIndex buckets animal entities by cell. Cells inside the bounds live in
// a flat grid; animals that leave an unbounded map land in a side map.
type cellIndex struct {
	bounds  geom.Boundary
	cols    int
	cells   [][]ecs.Entity // flat grid of entity lists, row-major
	outside map[geom.Vector][]ecs.Entity
}

func newCellIndex(b geom.Boundary) *cellIndex {
	cols, rows := max(b.Width(), 0), max(b.Height(), 0)
	return &cellIndex{
		bounds:  b,
		cols:    cols,
		cells:   make([][]ecs.Entity, cols*rows),
		outside: make(map[geom.Vector][]ecs.Entity),
	}
}

func (ix *cellIndex) slot(pos geom.Vector) int {
	if !ix.bounds.Contains(pos) {
		return -1
	}
	return (pos.Y-ix.bounds.Low.Y)*ix.cols + (pos.X - ix.bounds.Low.X)
}

// at returns the entities on pos in arrival order. The slice is shared.
func (ix *cellIndex) at(pos geom.Vector) []ecs.Entity {
	if i := ix.slot(pos); i >= 0 {
		return ix.cells[i]
	}
	return ix.outside[pos]
}

func (ix *cellIndex) occupied(pos geom.Vector) bool { return len(ix.at(pos)) > 0 }

func (ix *cellIndex) insert(e ecs.Entity, pos geom.Vector) {
	if i := ix.slot(pos); i >= 0 {
		ix.cells[i] = append(ix.cells[i], e)
		return
	}
	ix.outside[pos] = append(ix.outside[pos], e)
}

// remove reports whether e was indexed on pos.
func (ix *cellIndex) remove(e ecs.Entity, pos geom.Vector) bool {
	cell := ix.at(pos)
	j := slices.Index(cell, e)
	if j < 0 {
		return false
	}
	cell = slices.Delete(cell, j, j+1)
	if i := ix.slot(pos); i >= 0 {
		ix.cells[i] = cell
	} else if len(cell) == 0 {
		delete(ix.outside, pos)
	} else {
		ix.outside[pos] = cell
	}
	return true
}

// usedCells returns the in-bounds cells holding at least one entity.
func (ix *cellIndex) usedCells() []geom.Vector {
	var out []geom.Vector
	for i, cell := range ix.cells {
		if len(cell) > 0 {
			out = append(out, geom.Vector{
				X: ix.bounds.Low.X + i%ix.cols,
				Y: ix.bounds.Low.Y + i/ix.cols,
			})
		}
	}
	return out
}

// all returns every indexed entity: grid cells in row-major order, then
// stray cells in row-major order.
func (ix *cellIndex) all() []ecs.Entity {
	var out []ecs.Entity
	for _, cell := range ix.cells {
		out = append(out, cell...)
	}
	for _, pos := range slices.SortedFunc(maps.Keys(ix.outside), geom.Compare) {
		out = append(out, ix.outside[pos]...)
	}
	return out
}
