// Package world implements the grid world map: animal occupancy, the plant
// and fire layers, move policies and the day cycle.
package world

import (
	"math/rand"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// FireOptions enables the fire layer.
type FireOptions struct {
	Lifetime       int     // life of a spontaneously ignited fire, in days
	IgnitionChance float64 // per-day chance of ignition while no fire burns
}

// Options configures a Map. The zero value of each field is usable.
type Options struct {
	Width, Height int

	Policy        MovePolicy // nil means Toroidal
	BlockOccupied bool       // deny stepping or placing onto another animal

	EnergyGain      int // energy from eating a plant
	DailyEnergyCost int // energy lost by every animal each day

	Plants      bool   // enable the plant layer
	PlantGrowth int    // plants grown per day
	Grower      Grower // nil means UniformGrower

	Fire *FireOptions // nil disables the fire layer; requires Plants

	Rand *rand.Rand
}

// Map is the world map. All methods are safe for concurrent use; AdvanceDay
// holds the write lock for a whole day so readers never see a partial day.
type Map struct {
	mu sync.RWMutex

	bounds geom.Boundary
	policy MovePolicy
	opts   Options
	rng    *rand.Rand

	animals *animalStore

	plants *layer[*components.Plant]
	fires  *layer[*components.Fire]

	day             int
	deadCount       int
	deadLifespanSum int

	bus     eventBus
	pending []Event
}

// New builds a map from options.
func New(opts Options) *Map {
	if opts.Policy == nil {
		opts.Policy = Toroidal{}
	}
	if opts.Grower == nil {
		opts.Grower = UniformGrower{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Fire != nil {
		opts.Plants = true
	}

	bounds := geom.Rect(opts.Width, opts.Height)
	m := &Map{
		bounds:  bounds,
		policy:  opts.Policy,
		opts:    opts,
		rng:     opts.Rand,
		animals: newAnimalStore(bounds),
	}
	if opts.Plants {
		m.plants = newLayer[*components.Plant]()
	}
	if opts.Fire != nil {
		m.fires = newLayer[*components.Fire]()
	}
	return m
}

// Subscribe registers a handler for map events.
func (m *Map) Subscribe(fn Handler) Subscription {
	return m.bus.subscribe(fn)
}

// lock and unlock bracket every mutation; unlock dispatches queued events
// after releasing the lock so handlers may read the map.
func (m *Map) lock() { m.mu.Lock() }

func (m *Map) unlock() {
	events := m.pending
	m.pending = nil
	m.mu.Unlock()
	m.bus.publish(events)
}

func (m *Map) emit(kind EventKind, pos geom.Vector, el components.Element) {
	ev := Event{Kind: kind, Day: m.day, Pos: pos, Element: el}
	if a, ok := el.(components.Animal); ok {
		ev.Entity = a.Entity
	}
	m.pending = append(m.pending, ev)
}

// Bounds returns the map boundary.
func (m *Map) Bounds() geom.Boundary { return m.bounds }

// Policy returns the move policy.
func (m *Map) Policy() MovePolicy { return m.policy }

// Place turns a into an entity on its cell and returns the entity.
func (m *Map) Place(a components.Animal) (ecs.Entity, error) {
	m.lock()
	defer m.unlock()
	return m.place(a)
}

func (m *Map) place(a components.Animal) (ecs.Entity, error) {
	pos := a.Pos
	if !m.bounds.Contains(pos) {
		return ecs.Entity{}, positionError(pos, "animal", ErrOutOfBoundary)
	}
	if m.opts.BlockOccupied && m.animals.index.occupied(pos) {
		return ecs.Entity{}, positionError(pos, "animal", ErrPositionOccupied)
	}
	e := m.animals.add(a)
	a.Entity = e
	m.emit(EventPlaced, pos, a)
	return e, nil
}

// RemoveAnimal takes an animal off the map. Removed or foreign entities are
// ignored.
func (m *Map) RemoveAnimal(e ecs.Entity) {
	m.lock()
	defer m.unlock()
	if m.animals.alive(e) {
		m.removeAnimal(e)
	}
}

func (m *Map) removeAnimal(e ecs.Entity) components.Animal {
	a := m.animals.remove(e)
	m.emit(EventRemoved, a.Pos, a)
	return a
}

// Move moves a live animal, either by its genome or by an explicit command,
// then lets it eat a plant on the new cell. Entities that are no longer on
// the map are left alone.
func (m *Map) Move(e ecs.Entity, dir geom.MoveDirection) {
	m.lock()
	defer m.unlock()
	m.move(e, dir)
}

// move reports whether e was live and whether it ate a plant.
func (m *Map) move(e ecs.Entity, dir geom.MoveDirection) (tracked, ate bool) {
	s := m.animals
	if !s.alive(e) {
		return false, false
	}
	pos := s.posMap.Get(e)
	from := pos.Vector
	if !s.index.remove(e, from) {
		return false, false
	}
	rules := moveRules{m}
	components.Steer(pos, s.orientMap.Get(e), *s.genomeMap.Get(e), dir, rules, rules)
	s.index.insert(e, pos.Vector)

	a := s.record(e)
	m.pending = append(m.pending, Event{Kind: EventMoved, Day: m.day, Pos: a.Pos, From: from, Entity: e, Element: a})
	return true, m.stepOnPlant(a.Pos, s.energyMap.Get(e))
}

func (m *Map) stepOnPlant(pos geom.Vector, energy *components.Energy) bool {
	if m.plants == nil {
		return false
	}
	p, ok := m.plants.RemoveAt(pos)
	if !ok {
		return false
	}
	energy.Value += m.opts.EnergyGain
	m.emit(EventPlantEaten, pos, p)
	return true
}

// moveRules adapts the map to the movement validator and adjuster
// interfaces without taking the lock.
type moveRules struct{ m *Map }

func (r moveRules) CanMoveTo(pos geom.Vector) bool { return r.m.canMoveTo(pos) }

func (r moveRules) AdjustMove(mv geom.Move) geom.Move {
	return r.m.policy.Adjust(r.m.bounds, mv)
}

func (m *Map) canMoveTo(pos geom.Vector) bool {
	if !m.policy.Allows(m.bounds, pos) {
		return false
	}
	if m.opts.BlockOccupied && m.animals.index.occupied(pos) {
		return false
	}
	return true
}

// IsOccupied reports whether at least one animal stands on pos.
func (m *Map) IsOccupied(pos geom.Vector) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.animals.index.occupied(pos)
}

// ObjectAt returns the element drawn on a cell: the first animal, else a
// fire, else a plant.
func (m *Map) ObjectAt(pos geom.Vector) (components.Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if cell := m.animals.index.at(pos); len(cell) > 0 {
		return m.animals.record(cell[0]), true
	}
	if m.fires != nil {
		if f, ok := m.fires.At(pos); ok {
			return f, true
		}
	}
	if m.plants != nil {
		if p, ok := m.plants.At(pos); ok {
			return p, true
		}
	}
	return nil, false
}

// Animal returns a copy of a live animal.
func (m *Map) Animal(e ecs.Entity) (components.Animal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.animals.alive(e) {
		return components.Animal{}, false
	}
	return m.animals.record(e), true
}

// AnimalsAt returns copies of the animals on pos in arrival order.
func (m *Map) AnimalsAt(pos geom.Vector) []components.Animal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.animals.records(m.animals.index.at(pos))
}

// Animals returns copies of the live animals in placement order.
func (m *Map) Animals() []components.Animal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.animals.records(m.animals.placed())
}

// Elements returns plants, fires and animals, in that order.
func (m *Map) Elements() []components.Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []components.Element
	if m.plants != nil {
		for _, p := range m.plants.Sorted() {
			out = append(out, p)
		}
	}
	if m.fires != nil {
		for _, f := range m.fires.Sorted() {
			out = append(out, f)
		}
	}
	for _, a := range m.animals.records(m.animals.placed()) {
		out = append(out, a)
	}
	return out
}

// Day returns the last day processed by AdvanceDay.
func (m *Map) Day() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.day
}

// Counts summarizes cell occupancy.
type Counts struct {
	Animals    int `json:"animals"`
	Plants     int `json:"plants"`
	Fires      int `json:"fires"`
	FreeFields int `json:"free_fields"` // cells with no animal, plant or fire
}

// Counts returns the current occupancy summary.
func (m *Map) Counts() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts()
}

func (m *Map) counts() Counts {
	c := Counts{Animals: m.animals.count}
	used := make(map[geom.Vector]struct{})
	for _, pos := range m.animals.index.usedCells() {
		used[pos] = struct{}{}
	}
	if m.plants != nil {
		c.Plants = m.plants.Len()
		for pos := range m.plants.cells {
			used[pos] = struct{}{}
		}
	}
	if m.fires != nil {
		c.Fires = m.fires.Len()
		for pos := range m.fires.cells {
			used[pos] = struct{}{}
		}
	}
	c.FreeFields = m.bounds.Area() - len(used)
	return c
}
