package world

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// Parent is a breeding candidate as a Breeder sees it. The component
// pointers are valid for the duration of one Breed call.
type Parent struct {
	Entity      ecs.Entity
	Pos         geom.Vector
	Orientation geom.Direction
	Energy      *components.Energy
	Genome      *components.Genome
	Life        *components.Lifecycle
}

// Breeder produces children from co-located parents.
type Breeder interface {
	CanBreed(energy int) bool
	// Breed describes the child or returns an error; the parents may pay
	// for a failed attempt through their Energy. The map places the child
	// and credits both parents only once the child is on the map.
	Breed(p1, p2 Parent, day int) (components.Animal, error)
}

// DayReport summarizes one AdvanceDay call.
type DayReport struct {
	Day           int
	Moved         int
	Eaten         int
	Born          int
	Died          int
	BreedFailures int
	Counts        Counts
}

func (r DayReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("day", r.Day),
		slog.Int("moved", r.Moved),
		slog.Int("eaten", r.Eaten),
		slog.Int("born", r.Born),
		slog.Int("died", r.Died),
		slog.Int("breed_failures", r.BreedFailures),
		slog.Int("animals", r.Counts.Animals),
		slog.Int("plants", r.Counts.Plants),
		slog.Int("fires", r.Counts.Fires),
	)
}

// AdvanceDay runs one simulated day: genome moves and feeding, daily energy
// cost, deaths, breeding, fire and plant growth. breeder may be nil.
func (m *Map) AdvanceDay(day int, breeder Breeder) DayReport {
	m.lock()
	defer m.unlock()

	m.day = day
	r := DayReport{Day: day}

	for _, e := range m.animals.queryPlaced(nil) {
		tracked, ate := m.move(e, geom.FollowGenome)
		if !tracked {
			continue
		}
		r.Moved++
		if ate {
			r.Eaten++
		}
		m.animals.energyMap.Get(e).Value -= m.opts.DailyEnergyCost
	}
	r.Died += m.removeDead(day)

	if breeder != nil {
		born, failed := m.breed(day, breeder)
		r.Born += born
		r.BreedFailures += failed
		r.Died += m.removeDead(day)
	}

	m.burnFires()
	m.growPlants(m.opts.PlantGrowth)

	r.Counts = m.counts()
	m.pending = append(m.pending, Event{Kind: EventDayEnded, Day: day})
	return r
}

func (m *Map) removeDead(day int) int {
	dead := m.animals.queryPlaced(func(e *components.Energy) bool { return e.Dead() })
	for _, e := range dead {
		a := m.removeAnimal(e)
		a.DeathDay = day
		m.deadCount++
		m.deadLifespanSum += a.Lifespan(day)
		m.emit(EventDied, a.Pos, a)
	}
	return len(dead)
}

// candidate is a breeding-eligible animal collected by the breeding query.
type candidate struct {
	e        ecs.Entity
	energy   int
	birthDay int
	id       uint64
}

// breed pairs eligible animals sharing a cell. Within a cell the strongest
// go first and each animal breeds at most once a day.
func (m *Map) breed(day int, breeder Breeder) (born, failed int) {
	byCell := make(map[geom.Vector][]candidate)
	query := m.animals.filter.Query()
	for query.Next() {
		pos, _, energy, _, life := query.Get()
		if energy.Dead() || !breeder.CanBreed(energy.Value) {
			continue
		}
		byCell[pos.Vector] = append(byCell[pos.Vector], candidate{
			e:        query.Entity(),
			energy:   energy.Value,
			birthDay: life.BirthDay,
			id:       life.ID,
		})
	}

	cells := make([]geom.Vector, 0, len(byCell))
	for pos, group := range byCell {
		if len(group) >= 2 {
			cells = append(cells, pos)
		}
	}
	slices.SortFunc(cells, geom.Compare)

	for _, pos := range cells {
		group := byCell[pos]
		slices.SortFunc(group, breedingOrder)

		for i := 0; i+1 < len(group); i += 2 {
			p1, p2 := group[i].e, group[i+1].e
			child, err := breeder.Breed(m.animals.parent(p1), m.animals.parent(p2), day)
			if err != nil {
				failed++
				slog.Debug("breeding failed", "day", day, "pos", pos, "error", err)
				continue
			}
			e, err := m.place(child)
			if err != nil {
				failed++
				slog.Debug("child placement failed", "day", day, "pos", pos, "error", err)
				continue
			}
			m.animals.lifeMap.Get(p1).Children++
			m.animals.lifeMap.Get(p2).Children++
			born++
			m.emit(EventBorn, child.Pos, m.animals.record(e))
		}
	}
	return born, failed
}

func breedingOrder(a, b candidate) int {
	return cmp.Or(
		cmp.Compare(b.energy, a.energy),
		cmp.Compare(a.birthDay, b.birthDay),
		cmp.Compare(a.id, b.id),
	)
}
