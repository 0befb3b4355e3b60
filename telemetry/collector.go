package telemetry

import (
	"sync"

	"github.com/pthm-cable/darwin/world"
)

// Collector counts births and deaths from map events between flushes.
type Collector struct {
	mu     sync.Mutex
	births int
	deaths int
	eaten  int
	fires  int
}

// NewCollector creates a collector subscribed to m. Cancel the returned
// subscription to detach it.
func NewCollector(m *world.Map) (*Collector, world.Subscription) {
	c := &Collector{}
	return c, m.Subscribe(c.Handle)
}

// Handle records one event.
func (c *Collector) Handle(ev world.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Kind {
	case world.EventBorn:
		c.births++
	case world.EventDied:
		c.deaths++
	case world.EventPlantEaten:
		c.eaten++
	case world.EventFireIgnited:
		c.fires++
	}
}

// DayCounts holds the counters accumulated since the last flush.
type DayCounts struct {
	Births       int
	Deaths       int
	PlantsEaten  int
	FiresIgnited int
}

// Flush returns and resets the counters.
func (c *Collector) Flush() DayCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := DayCounts{Births: c.births, Deaths: c.deaths, PlantsEaten: c.eaten, FiresIgnited: c.fires}
	c.births, c.deaths, c.eaten, c.fires = 0, 0, 0, 0
	return out
}

// Apply copies the birth and death counts into s.
func (d DayCounts) Apply(s *Stats) {
	s.Births = d.Births
	s.Deaths = d.Deaths
}
