package world

import (
	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// PlacePlant adds a plant. A cell holding a plant or a fire is occupied.
func (m *Map) PlacePlant(p *components.Plant) error {
	m.lock()
	defer m.unlock()
	return m.placePlant(p)
}

func (m *Map) placePlant(p *components.Plant) error {
	if m.plants == nil {
		return ErrNoLayer
	}
	pos := p.Position()
	if !m.bounds.Contains(pos) {
		return positionError(pos, "plant", ErrOutOfBoundary)
	}
	if m.fires != nil && m.fires.Has(pos) {
		return positionError(pos, "plant", ErrPositionOccupied)
	}
	if !m.plants.Place(p) {
		return positionError(pos, "plant", ErrPositionOccupied)
	}
	m.emit(EventPlantPlaced, pos, p)
	return nil
}

// RemovePlant deletes the plant at pos and reports whether there was one.
func (m *Map) RemovePlant(pos geom.Vector) bool {
	m.lock()
	defer m.unlock()
	if m.plants == nil {
		return false
	}
	p, ok := m.plants.RemoveAt(pos)
	if ok {
		m.emit(EventPlantRemoved, pos, p)
	}
	return ok
}

// PlantAt returns the plant on pos.
func (m *Map) PlantAt(pos geom.Vector) (*components.Plant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.plants == nil {
		return nil, false
	}
	return m.plants.At(pos)
}

// IsPlantAt reports whether pos holds a plant.
func (m *Map) IsPlantAt(pos geom.Vector) bool {
	_, ok := m.PlantAt(pos)
	return ok
}

// Plants returns all plants in row-major order.
func (m *Map) Plants() []*components.Plant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.plants == nil {
		return nil
	}
	return m.plants.Sorted()
}

// plantFree reports whether a plant could grow on pos.
func (m *Map) plantFree(pos geom.Vector) bool {
	if m.plants.Has(pos) {
		return false
	}
	return m.fires == nil || !m.fires.Has(pos)
}
