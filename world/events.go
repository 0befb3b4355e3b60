package world

import (
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/darwin/components"
	"github.com/pthm-cable/darwin/geom"
)

// EventKind identifies map change events.
type EventKind uint8

const (
	EventPlaced EventKind = iota
	EventRemoved
	EventMoved
	EventPlantPlaced
	EventPlantEaten
	EventPlantRemoved
	EventFireIgnited
	EventFireExtinguished
	EventBorn
	EventDied
	EventDayEnded
)

var eventNames = [...]string{
	"placed", "removed", "moved",
	"plant_placed", "plant_eaten", "plant_removed",
	"fire_ignited", "fire_extinguished",
	"born", "died", "day_ended",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a single change on the map. Animal events carry a copy of the
// animal taken when the event was queued.
type Event struct {
	Kind    EventKind
	Day     int
	Pos     geom.Vector
	From    geom.Vector // previous cell for EventMoved
	Entity  ecs.Entity  // animal events only
	Element components.Element
}

// Animal returns the animal carried by the event, if any.
func (e Event) Animal() (components.Animal, bool) {
	a, ok := e.Element.(components.Animal)
	return a, ok
}

// Handler receives map events on the goroutine that mutated the map, after
// the map lock has been released.
type Handler func(Event)

// Subscription is a handle returned by Subscribe.
type Subscription struct {
	id  uint64
	bus *eventBus
}

// Cancel stops delivery to the subscribed handler.
func (s Subscription) Cancel() {
	if s.bus != nil {
		s.bus.unsubscribe(s.id)
	}
}

type subscriber struct {
	id uint64
	fn Handler
}

type eventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber
}

func (b *eventBus) subscribe(fn Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, fn: fn})
	return Subscription{id: b.nextID, bus: b}
}

func (b *eventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *eventBus) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
}
