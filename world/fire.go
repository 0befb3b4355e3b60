package world

import (
	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// CanPlaceFire reports whether a fire may ignite on pos: inside the map, no
// fire yet and a plant to burn.
func (m *Map) CanPlaceFire(pos geom.Vector) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.canPlaceFire(pos)
}

func (m *Map) canPlaceFire(pos geom.Vector) bool {
	if m.fires == nil || !m.bounds.Contains(pos) {
		return false
	}
	if m.fires.Has(pos) {
		return false
	}
	return m.plants.Has(pos)
}

// PlaceFire ignites f on its cell, consuming the plant there. Fires without
// remaining life are rejected.
func (m *Map) PlaceFire(f *components.Fire) bool {
	m.lock()
	defer m.unlock()
	return m.placeFire(f)
}

func (m *Map) placeFire(f *components.Fire) bool {
	pos := f.Position()
	if f.BurntOut() || !m.canPlaceFire(pos) {
		return false
	}
	if p, ok := m.plants.RemoveAt(pos); ok {
		m.emit(EventPlantRemoved, pos, p)
	}
	m.fires.Place(f)
	m.emit(EventFireIgnited, pos, f)
	return true
}

// IsFireAt reports whether pos is burning.
func (m *Map) IsFireAt(pos geom.Vector) bool {
	_, ok := m.FireAt(pos)
	return ok
}

// FireAt returns the fire on pos.
func (m *Map) FireAt(pos geom.Vector) (*components.Fire, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fires == nil {
		return nil, false
	}
	return m.fires.At(pos)
}

// Fires returns all fires in row-major order.
func (m *Map) Fires() []*components.Fire {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fires == nil {
		return nil
	}
	return m.fires.Sorted()
}

// HandleFireDayEnd runs one day of the fire layer outside AdvanceDay.
func (m *Map) HandleFireDayEnd() {
	m.lock()
	defer m.unlock()
	m.burnFires()
}

// burnFires ages every fire by a day and spreads the survivors one ring
// onto neighbouring plants. New fires start at the source's life before
// burning minus one, which equals the source's life after burning.
func (m *Map) burnFires() {
	if m.fires == nil {
		return
	}

	type source struct {
		pos  geom.Vector
		life int
	}
	var sources []source
	for _, f := range m.fires.Sorted() {
		orig := f.Life()
		f.Burn()
		if !f.BurntOut() {
			sources = append(sources, source{pos: f.Position(), life: orig - 1})
		}
	}

	for _, src := range sources {
		for _, n := range src.pos.Neighbors4() {
			if !m.bounds.Contains(n) || !m.plants.Has(n) || m.fires.Has(n) {
				continue
			}
			m.placeFire(components.NewFire(n, src.life))
		}
	}

	for _, pos := range m.fires.Positions() {
		f, _ := m.fires.At(pos)
		if f.BurntOut() {
			m.fires.RemoveAt(pos)
			m.emit(EventFireExtinguished, pos, f)
		}
	}

	if m.fires.Len() == 0 {
		m.igniteRandom()
	}
}

func (m *Map) igniteRandom() {
	opts := m.opts.Fire
	if opts.Lifetime <= 0 || m.plants.Len() == 0 {
		return
	}
	if m.rng.Float64() >= opts.IgnitionChance {
		return
	}
	cells := m.plants.Positions()
	m.placeFire(components.NewFire(cells[m.rng.Intn(len(cells))], opts.Lifetime))
}
