package world

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// animalStore keeps animals as ark entities next to a per-cell index.
// Queries lock the ark world, so they only run under the map's write lock;
// readers go through the index and the single-component maps.
type animalStore struct {
	world *ecs.World

	mapper *ecs.Map5[
		components.Position,
		components.Orientation,
		components.Energy,
		components.Genome,
		components.Lifecycle,
	]
	filter *ecs.Filter5[
		components.Position,
		components.Orientation,
		components.Energy,
		components.Genome,
		components.Lifecycle,
	]

	posMap    *ecs.Map1[components.Position]
	orientMap *ecs.Map1[components.Orientation]
	energyMap *ecs.Map1[components.Energy]
	genomeMap *ecs.Map1[components.Genome]
	lifeMap   *ecs.Map1[components.Lifecycle]

	index   *cellIndex
	count   int
	nextSeq uint64
}

func newAnimalStore(b geom.Boundary) *animalStore {
	world := ecs.NewWorld()
	return &animalStore{
		world: world,
		mapper: ecs.NewMap5[
			components.Position,
			components.Orientation,
			components.Energy,
			components.Genome,
			components.Lifecycle,
		](world),
		filter: ecs.NewFilter5[
			components.Position,
			components.Orientation,
			components.Energy,
			components.Genome,
			components.Lifecycle,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		orientMap: ecs.NewMap1[components.Orientation](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		genomeMap: ecs.NewMap1[components.Genome](world),
		lifeMap:   ecs.NewMap1[components.Lifecycle](world),
		index:     newCellIndex(b),
	}
}

// add creates an entity for a and indexes it on its cell.
func (s *animalStore) add(a components.Animal) ecs.Entity {
	s.nextSeq++
	pos := components.Position{Vector: a.Pos}
	rot := components.Orientation{Direction: a.Orientation}
	energy := components.Energy{Value: a.Energy}
	g := components.Genome{Genome: a.Genome}
	life := components.Lifecycle{
		ID:       a.ID,
		Seq:      s.nextSeq,
		BirthDay: a.BirthDay,
		Children: a.Children,
	}

	e := s.mapper.NewEntity(&pos, &rot, &energy, &g, &life)
	s.index.insert(e, a.Pos)
	s.count++
	return e
}

// remove deletes e and returns its last state.
func (s *animalStore) remove(e ecs.Entity) components.Animal {
	a := s.record(e)
	s.index.remove(e, a.Pos)
	s.mapper.Remove(e)
	s.count--
	return a
}

// alive reports whether e is a live animal of this store.
func (s *animalStore) alive(e ecs.Entity) bool {
	return s.world.Alive(e)
}

// record copies the components of e.
func (s *animalStore) record(e ecs.Entity) components.Animal {
	pos := s.posMap.Get(e)
	rot := s.orientMap.Get(e)
	energy := s.energyMap.Get(e)
	g := s.genomeMap.Get(e)
	life := s.lifeMap.Get(e)
	return components.Animal{
		Entity:      e,
		ID:          life.ID,
		Pos:         pos.Vector,
		Orientation: rot.Direction,
		Energy:      energy.Value,
		Genome:      g.Genome,
		BirthDay:    life.BirthDay,
		Children:    life.Children,
	}
}

func (s *animalStore) records(entities []ecs.Entity) []components.Animal {
	out := make([]components.Animal, 0, len(entities))
	for _, e := range entities {
		out = append(out, s.record(e))
	}
	return out
}

// inOrder sorts entities by placement order in place.
func (s *animalStore) inOrder(entities []ecs.Entity) []ecs.Entity {
	slices.SortFunc(entities, func(a, b ecs.Entity) int {
		return cmp.Compare(s.lifeMap.Get(a).Seq, s.lifeMap.Get(b).Seq)
	})
	return entities
}

// placed returns every live animal in placement order without a query.
func (s *animalStore) placed() []ecs.Entity {
	return s.inOrder(s.index.all())
}

// queryPlaced collects live animals in placement order through the filter.
// Callers hold the map's write lock.
func (s *animalStore) queryPlaced(keep func(*components.Energy) bool) []ecs.Entity {
	type entry struct {
		e   ecs.Entity
		seq uint64
	}
	var entries []entry
	query := s.filter.Query()
	for query.Next() {
		_, _, energy, _, life := query.Get()
		if keep == nil || keep(energy) {
			entries = append(entries, entry{query.Entity(), life.Seq})
		}
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]ecs.Entity, len(entries))
	for i, en := range entries {
		out[i] = en.e
	}
	return out
}

// parent builds the breeding view of e. The pointers stay valid until the
// next entity is created or removed.
func (s *animalStore) parent(e ecs.Entity) Parent {
	return Parent{
		Entity:      e,
		Pos:         s.posMap.Get(e).Vector,
		Orientation: s.orientMap.Get(e).Direction,
		Energy:      s.energyMap.Get(e),
		Genome:      s.genomeMap.Get(e),
		Life:        s.lifeMap.Get(e),
	}
}
