package game

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pthm-cable/darwin/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.MustLoad("")
	cfg.Map.Width, cfg.Map.Height = 10, 10
	cfg.Simulation.StartAnimals = 12
	cfg.Simulation.StartPlants = 15
	cfg.Simulation.Days = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, seed int64) *Game {
	t.Helper()
	g, err := NewGame(cfg, Options{Seed: seed, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestNewGame_PlacesStartingPopulation(t *testing.T) {
	g := newTestGame(t, testConfig(t), 1)
	c := g.Map().Counts()
	if c.Animals != 12 || c.Plants != 15 {
		t.Errorf("counts = %+v, want 12 animals and 15 plants", c)
	}
	if g.Day() != 0 {
		t.Errorf("Day() before first step = %d", g.Day())
	}
	seen := map[uint64]bool{}
	for _, a := range g.Map().Animals() {
		if seen[a.ID] {
			t.Fatalf("duplicate animal ID %d", a.ID)
		}
		seen[a.ID] = true
		if a.BirthDay != 1 {
			t.Errorf("founder birthDay = %d, want 1", a.BirthDay)
		}
	}
}

func TestNewGame_BlockedPlacementSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.Map.Width, cfg.Map.Height = 3, 3
	cfg.Map.BlockOccupied = true
	cfg.Simulation.StartAnimals = 20
	cfg.Simulation.StartPlants = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t, cfg, 2)
	if got := len(g.Map().Animals()); got != 9 {
		t.Errorf("placed %d animals on a 3x3 blocking map, want 9", got)
	}
}

func TestStep_AdvancesDayCounter(t *testing.T) {
	g := newTestGame(t, testConfig(t), 3)
	for want := 1; want <= 5; want++ {
		s := g.Step()
		if s.Day != want || g.Day() != want {
			t.Fatalf("step %d: stats day %d, game day %d", want, s.Day, g.Day())
		}
		if g.Stats() != s {
			t.Fatal("Stats() differs from Step result")
		}
	}
}

func TestStep_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	a := newTestGame(t, cfg, 42)
	b := newTestGame(t, cfg, 42)
	for range 20 {
		sa, sb := a.Step(), b.Step()
		if sa != sb {
			t.Fatalf("same seed diverged on day %d:\n%+v\n%+v", sa.Day, sa, sb)
		}
	}
}

func TestStep_StatsTrackBirthsAndDeaths(t *testing.T) {
	cfg := testConfig(t)
	cfg.Animal.StartEnergy = 3
	cfg.Animal.DailyEnergyCost = 1
	cfg.Plants.DailyGrowth = 0
	cfg.Simulation.StartPlants = 0
	g := newTestGame(t, cfg, 4)

	var deaths int
	for range 3 {
		s := g.Step()
		deaths += s.Deaths
		if s.Births != 0 {
			t.Errorf("day %d: births = %d with starving animals", s.Day, s.Births)
		}
	}
	if deaths != 12 {
		t.Errorf("deaths over three days = %d, want 12", deaths)
	}
	s := g.Stats()
	if s.Animals != 0 || s.DeadCount != 12 || s.LifespanMean != 3 {
		t.Errorf("final stats = %+v", s)
	}
}

func TestStep_HallOfFameRecordsDeaths(t *testing.T) {
	cfg := testConfig(t)
	cfg.Animal.StartEnergy = 3
	cfg.Simulation.StartPlants = 0
	cfg.Plants.DailyGrowth = 0
	cfg.HallOfFame.Enabled = true
	cfg.HallOfFame.Size = 5
	cfg.HallOfFame.MinLifespan = 1
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	g := newTestGame(t, cfg, 6)

	for range 3 {
		g.Step()
	}
	entries := g.HallOfFame().Entries()
	if len(entries) != 5 {
		t.Fatalf("hall holds %d entries, want 5", len(entries))
	}
	for _, e := range entries {
		if e.Lifespan != 3 || e.DeathDay != 3 {
			t.Errorf("entry = %+v", e)
		}
	}
	if g.Map().Counts().Animals != 0 {
		t.Error("dead population was refilled")
	}
}

func TestNewGame_HallOfFameDisabledByDefault(t *testing.T) {
	g := newTestGame(t, testConfig(t), 6)
	if g.HallOfFame() != nil {
		t.Fatal("hall of fame enabled by default")
	}
}
