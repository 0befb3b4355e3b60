package telemetry

import (
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/darwin/world"
)

func TestAggregate(t *testing.T) {
	snap := world.Snapshot{
		Day:    7,
		Counts: world.Counts{Animals: 4, Plants: 3, Fires: 1, FreeFields: 20},
		Animals: []world.AnimalState{
			{ID: 1, Energy: 10, ChildCount: 1, GenomeKey: "01"},
			{ID: 2, Energy: 20, ChildCount: 0, GenomeKey: "12"},
			{ID: 3, Energy: 30, ChildCount: 3, GenomeKey: "12"},
			{ID: 4, Energy: 40, ChildCount: 0, GenomeKey: "01"},
		},
		DeadCount:       2,
		DeadLifespanSum: 9,
	}

	s := Aggregate(snap)

	if s.Day != 7 || s.Animals != 4 || s.Plants != 3 || s.Fires != 1 || s.FreeFields != 20 {
		t.Errorf("counts not copied: %+v", s)
	}
	if math.Abs(s.EnergyMean-25) > 1e-9 {
		t.Errorf("EnergyMean = %v, want 25", s.EnergyMean)
	}
	if s.EnergyP50 != 20 {
		t.Errorf("EnergyP50 = %v, want 20", s.EnergyP50)
	}
	if math.Abs(s.ChildrenMean-1) > 1e-9 {
		t.Errorf("ChildrenMean = %v, want 1", s.ChildrenMean)
	}
	if math.Abs(s.LifespanMean-4.5) > 1e-9 {
		t.Errorf("LifespanMean = %v, want 4.5", s.LifespanMean)
	}
	// "12" reaches two first, at the third animal.
	if s.TopGenotype != "12" || s.TopGenotypeCount != 2 {
		t.Errorf("top genotype = %q x%d, want \"12\" x2", s.TopGenotype, s.TopGenotypeCount)
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(world.Snapshot{Day: 1})
	if s.EnergyMean != 0 || s.LifespanMean != 0 || s.TopGenotype != "" || s.TopGenotypeCount != 0 {
		t.Errorf("empty snapshot produced %+v", s)
	}
}

func TestTopGenotype_TieBreak(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		want  string
		count int
	}{
		{"single", []string{"7"}, "7", 1},
		{"all distinct picks first", []string{"3", "1", "2"}, "3", 1},
		{"first to reach max wins", []string{"a", "b", "b", "a"}, "b", 2},
		{"clear winner", []string{"a", "b", "a", "c", "a"}, "a", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			animals := make([]world.AnimalState, len(tt.keys))
			for i, k := range tt.keys {
				animals[i] = world.AnimalState{GenomeKey: k}
			}
			got, n := topGenotype(animals)
			if got != tt.want || n != tt.count {
				t.Errorf("topGenotype = %q x%d, want %q x%d", got, n, tt.want, tt.count)
			}
		})
	}
}

func TestStatsLogValue(t *testing.T) {
	v := Stats{Day: 3, Animals: 5, TopGenotype: "0123"}.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v", v.Kind())
	}
	attrs := v.Group()
	found := map[string]bool{}
	for _, a := range attrs {
		found[a.Key] = true
	}
	for _, key := range []string{"day", "animals", "top_genotype", "births", "deaths"} {
		if !found[key] {
			t.Errorf("missing attribute %q", key)
		}
	}
}

func TestCollector(t *testing.T) {
	m := world.New(world.Options{Width: 3, Height: 3, DailyEnergyCost: 5})
	c, sub := NewCollector(m)
	defer sub.Cancel()

	c.Handle(world.Event{Kind: world.EventBorn})
	c.Handle(world.Event{Kind: world.EventBorn})
	c.Handle(world.Event{Kind: world.EventDied})
	c.Handle(world.Event{Kind: world.EventMoved})

	d := c.Flush()
	if d.Births != 2 || d.Deaths != 1 {
		t.Errorf("flush = %+v", d)
	}
	if again := c.Flush(); again != (DayCounts{}) {
		t.Errorf("second flush = %+v, want zero", again)
	}

	var s Stats
	d.Apply(&s)
	if s.Births != 2 || s.Deaths != 1 {
		t.Errorf("Apply = %+v", s)
	}
}
