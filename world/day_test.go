package world

import (
	"errors"
	"sync"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/genome"
	"github.com/pthm-cable/darwin/geom"
)

type pair struct{ a, b uint64 }

// stubBreeder records pairs and charges each parent cost.
type stubBreeder struct {
	wellFed int
	cost    int
	fail    bool
	pairs   []pair
}

func (s *stubBreeder) CanBreed(energy int) bool { return energy >= s.wellFed }

func (s *stubBreeder) Breed(p1, p2 Parent, day int) (components.Animal, error) {
	s.pairs = append(s.pairs, pair{p1.Life.ID, p2.Life.ID})
	p1.Energy.Value -= s.cost
	p2.Energy.Value -= s.cost
	if s.fail {
		return components.Animal{}, errors.New("no child")
	}
	g := genome.Combine(p1.Genome.Part(1, true), nil)
	return components.NewAnimal(2*s.cost, p1.Pos, p1.Orientation, g, day), nil
}

func animalWithID(id uint64, pos geom.Vector, energy int) components.Animal {
	a := straightAnimal(pos, geom.North, energy)
	a.ID = id
	return a
}

func TestAdvanceDay_DailyCostAndDeath(t *testing.T) {
	m := New(Options{Width: 5, Height: 5, DailyEnergyCost: 1})
	weak := mustPlace(t, m, straightAnimal(geom.Vector{1, 1}, geom.East, 1))
	strong := mustPlace(t, m, straightAnimal(geom.Vector{3, 3}, geom.East, 5))

	var died []components.Animal
	m.Subscribe(func(ev Event) {
		if ev.Kind == EventDied {
			a, _ := ev.Animal()
			died = append(died, a)
		}
	})

	r := m.AdvanceDay(1, nil)

	if r.Died != 1 || r.Moved != 2 {
		t.Errorf("report = %+v", r)
	}
	if len(died) != 1 || died[0].Entity != weak {
		t.Fatalf("died = %v", died)
	}
	if died[0].DeathDay != 1 || died[0].Pos != (geom.Vector{2, 1}) {
		t.Errorf("died record: day %d at %v", died[0].DeathDay, died[0].Pos)
	}
	if got := m.Animals(); len(got) != 1 || got[0].Entity != strong {
		t.Errorf("live animals = %v", got)
	}
	if a := animalOf(t, m, strong); a.Energy != 4 {
		t.Errorf("strong energy = %d, want 4", a.Energy)
	}

	s := m.Snapshot()
	if s.DeadCount != 1 || s.DeadLifespanSum != 2 {
		t.Errorf("dead count %d lifespan sum %d, want 1 and 2", s.DeadCount, s.DeadLifespanSum)
	}

	m.AdvanceDay(2, nil)
	if _, ok := m.Animal(weak); ok {
		t.Error("dead animal is still on the map")
	}
	if m.IsOccupied(geom.Vector{3, 1}) {
		t.Error("dead animal kept moving")
	}
}

func TestAdvanceDay_FeedsBeforeCost(t *testing.T) {
	m := New(Options{Width: 5, Height: 5, Plants: true, EnergyGain: 3, DailyEnergyCost: 1})
	e := mustPlace(t, m, straightAnimal(geom.Vector{0, 0}, geom.North, 1))
	mustPlant(t, m, geom.Vector{0, 1})

	r := m.AdvanceDay(1, nil)
	if r.Eaten != 1 || r.Died != 0 {
		t.Errorf("report = %+v", r)
	}
	if a := animalOf(t, m, e); a.Energy != 3 {
		t.Errorf("energy = %d, want 3", a.Energy)
	}
}

func TestAdvanceDay_BreedingPairsStrongestFirst(t *testing.T) {
	m := New(Options{Width: 5, Height: 5})
	pos := geom.Vector{2, 2}
	weakest := mustPlace(t, m, animalWithID(1, pos, 10))
	strongest := mustPlace(t, m, animalWithID(2, pos, 20))
	middle := mustPlace(t, m, animalWithID(3, pos, 15))
	mustPlace(t, m, animalWithID(4, pos, 2))

	b := &stubBreeder{wellFed: 5, cost: 3}
	r := m.AdvanceDay(1, b)

	if len(b.pairs) != 1 || b.pairs[0] != (pair{2, 3}) {
		t.Fatalf("pairs = %v, want [{2 3}]", b.pairs)
	}
	if r.Born != 1 {
		t.Errorf("born = %d, want 1", r.Born)
	}
	if got := len(m.AnimalsAt(geom.Vector{2, 3})); got != 5 {
		t.Errorf("animals on cell = %d, want 5", got)
	}
	if a := animalOf(t, m, weakest); a.Energy != 10 || a.Children != 0 {
		t.Errorf("unpaired animal: energy %d children %d", a.Energy, a.Children)
	}
	for _, e := range []ecs.Entity{strongest, middle} {
		if a := animalOf(t, m, e); a.Children != 1 {
			t.Errorf("parent %d children = %d, want 1", a.ID, a.Children)
		}
	}
}

func TestAdvanceDay_EqualEnergyTieBreak(t *testing.T) {
	m := New(Options{Width: 5, Height: 5})
	pos := geom.Vector{1, 1}
	old := components.NewAnimal(10, pos, geom.North, genome.New([]genome.Gene{genome.GeneForward}), 0)
	old.ID = 9
	young := components.NewAnimal(10, pos, geom.North, genome.New([]genome.Gene{genome.GeneForward}), 5)
	young.ID = 1
	for _, a := range []components.Animal{young, animalWithID(7, pos, 10), old} {
		mustPlace(t, m, a)
	}

	b := &stubBreeder{wellFed: 5, cost: 1}
	m.AdvanceDay(6, b)

	// birthDay 0 beats 5; among birthDay 0 the lower ID goes first.
	if len(b.pairs) != 1 || b.pairs[0] != (pair{7, 9}) {
		t.Errorf("pairs = %v, want [{7 9}]", b.pairs)
	}
}

func TestAdvanceDay_FailedBreedingStillCosts(t *testing.T) {
	m := New(Options{Width: 5, Height: 5})
	pos := geom.Vector{2, 2}
	mustPlace(t, m, animalWithID(1, pos, 6))
	mustPlace(t, m, animalWithID(2, pos, 6))

	b := &stubBreeder{wellFed: 5, cost: 6, fail: true}
	r := m.AdvanceDay(1, b)

	if r.BreedFailures != 1 || r.Born != 0 {
		t.Errorf("report = %+v", r)
	}
	if r.Died != 2 || len(m.Animals()) != 0 {
		t.Errorf("parents drained by breeding should die: died=%d live=%d", r.Died, len(m.Animals()))
	}
}

func TestAdvanceDay_FailedPlacementCreditsNoChild(t *testing.T) {
	m := New(Options{Width: 3, Height: 3, Policy: Unbounded{}})
	pos := geom.Vector{2, 2}
	var parents []ecs.Entity
	for id := uint64(1); id <= 2; id++ {
		a := animalWithID(id, pos, 10)
		a.Orientation = geom.East
		parents = append(parents, mustPlace(t, m, a))
	}

	var born int
	m.Subscribe(func(ev Event) {
		if ev.Kind == EventBorn {
			born++
		}
	})

	// both parents step off the grid, so the child lands out of bounds
	r := m.AdvanceDay(1, &stubBreeder{wellFed: 1, cost: 1})

	if r.Born != 0 || r.BreedFailures != 1 || born != 0 {
		t.Errorf("report = %+v, born events %d", r, born)
	}
	if got := len(m.Animals()); got != 2 {
		t.Errorf("animals = %d, want 2", got)
	}
	for _, e := range parents {
		a := animalOf(t, m, e)
		if a.Pos != (geom.Vector{3, 2}) {
			t.Errorf("parent %d at %v, want (3,2)", a.ID, a.Pos)
		}
		if a.Children != 0 {
			t.Errorf("parent %d credited with %d children", a.ID, a.Children)
		}
		if a.Energy != 9 {
			t.Errorf("parent %d energy = %d, want 9", a.ID, a.Energy)
		}
	}
}

func TestAdvanceDay_EventsAndDayEnded(t *testing.T) {
	m := New(Options{Width: 3, Height: 3})
	pos := geom.Vector{0, 0}
	for id := uint64(1); id <= 2; id++ {
		mustPlace(t, m, animalWithID(id, pos, 10))
	}
	var born, ended int
	m.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventBorn:
			born++
			if a, ok := ev.Animal(); !ok || a.Entity != ev.Entity || a.BirthDay != 4 {
				t.Errorf("born event carries %+v", a)
			}
		case EventDayEnded:
			ended++
			if ev.Day != 4 {
				t.Errorf("day ended event day = %d", ev.Day)
			}
		}
	})
	m.AdvanceDay(4, &stubBreeder{wellFed: 1, cost: 1})
	if born != 1 || ended != 1 {
		t.Errorf("born=%d ended=%d, want 1 and 1", born, ended)
	}
	if m.Day() != 4 {
		t.Errorf("Day() = %d", m.Day())
	}
}

func TestAdvanceDay_GrowsPlants(t *testing.T) {
	m := New(Options{Width: 4, Height: 4, Plants: true, PlantGrowth: 3})
	m.AdvanceDay(1, nil)
	if got := m.Counts().Plants; got != 3 {
		t.Errorf("plants = %d, want 3", got)
	}
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	m := New(Options{Width: 8, Height: 8, Plants: true, PlantGrowth: 2, EnergyGain: 2, DailyEnergyCost: 1})
	for i := range 8 {
		mustPlace(t, m, animalWithID(uint64(i+1), geom.Vector{i, i}, 50))
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				s := m.Snapshot()
				if s.Counts.Animals != len(s.Animals) {
					t.Errorf("torn snapshot: counts %d, animals %d", s.Counts.Animals, len(s.Animals))
					return
				}
			}
		}()
	}

	for day := 1; day <= 30; day++ {
		m.AdvanceDay(day, nil)
	}
	close(done)
	wg.Wait()

	if s := m.Snapshot(); s.Day != 30 {
		t.Errorf("snapshot day = %d", s.Day)
	}
}
