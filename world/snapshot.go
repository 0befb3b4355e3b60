package world

import "github.com/pthm-cable/darwin/geom"

// AnimalState is a value copy of an animal.
type AnimalState struct {
	ID          uint64         `json:"id"`
	Pos         geom.Vector    `json:"pos"`
	Orientation geom.Direction `json:"orientation"`
	Energy      int            `json:"energy"`
	BirthDay    int            `json:"birth_day"`
	ChildCount  int            `json:"child_count"`
	GenomeKey   string         `json:"genome"`
}

// FireState is a value copy of a fire.
type FireState struct {
	Pos  geom.Vector `json:"pos"`
	Life int         `json:"life"`
}

// Snapshot is a consistent copy of the map between days.
type Snapshot struct {
	Day    int           `json:"day"`
	Bounds geom.Boundary `json:"bounds"`
	Counts Counts        `json:"counts"`

	Animals []AnimalState `json:"animals"` // placement order
	Plants  []geom.Vector `json:"plants"`  // row-major
	Fires   []FireState   `json:"fires"`   // row-major

	DeadCount       int `json:"dead_count"`
	DeadLifespanSum int `json:"dead_lifespan_sum"` // sum of inclusive lifespans of removed animals
}

// Snapshot copies the map state under the read lock.
func (m *Map) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Day:             m.day,
		Bounds:          m.bounds,
		Counts:          m.counts(),
		Animals:         make([]AnimalState, 0, m.animals.count),
		DeadCount:       m.deadCount,
		DeadLifespanSum: m.deadLifespanSum,
	}
	for _, a := range m.animals.records(m.animals.placed()) {
		s.Animals = append(s.Animals, AnimalState{
			ID:          a.ID,
			Pos:         a.Pos,
			Orientation: a.Orientation,
			Energy:      a.Energy,
			BirthDay:    a.BirthDay,
			ChildCount:  a.Children,
			GenomeKey:   a.GenomeKey(),
		})
	}
	if m.plants != nil {
		s.Plants = m.plants.Positions()
	}
	if m.fires != nil {
		for _, f := range m.fires.Sorted() {
			s.Fires = append(s.Fires, FireState{Pos: f.Position(), Life: f.Life()})
		}
	}
	return s
}
