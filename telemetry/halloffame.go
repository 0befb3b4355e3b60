package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/pthm-cable/darwin/genome"
	"github.com/pthm-cable/darwin/world"
)

// HallEntry records a successful animal's genome and fitness.
// Genes is kept for analysis and omitted from JSON in favor of GenomeKey.
type HallEntry struct {
	AnimalID  uint64        `json:"animal_id"`
	Genes     []genome.Gene `json:"-"`
	GenomeKey string        `json:"genome"`
	Fitness   float64       `json:"fitness"`
	Children  int           `json:"children"`
	Lifespan  int           `json:"lifespan"`
	BirthDay  int           `json:"birth_day"`
	DeathDay  int           `json:"death_day"`
}

// HallOfFameOptions holds entry criteria and fitness weights.
type HallOfFameOptions struct {
	Size           int
	MinChildren    int // enough on its own
	MinLifespan    int // enough on its own
	ChildrenWeight float64
	LifespanWeight float64
}

// HallOfFame keeps the fittest dead animals of a run, ranked by children and
// lifespan. Entries are fed from map death events.
type HallOfFame struct {
	opts HallOfFameOptions

	mu   sync.Mutex
	hall []HallEntry // sorted by fitness, best first
}

// NewHallOfFame creates a hall of fame. A size below one keeps a single entry.
func NewHallOfFame(opts HallOfFameOptions) *HallOfFame {
	if opts.Size < 1 {
		opts.Size = 1
	}
	return &HallOfFame{opts: opts, hall: make([]HallEntry, 0, opts.Size)}
}

// Attach subscribes the hall to death events on m.
func (hof *HallOfFame) Attach(m *world.Map) world.Subscription {
	return m.Subscribe(func(ev world.Event) {
		if ev.Kind != world.EventDied {
			return
		}
		a, ok := ev.Animal()
		if !ok {
			return
		}
		if a.DeathDay == 0 {
			a.DeathDay = ev.Day
		}
		var genes []genome.Gene
		if a.Genome != nil {
			genes = a.Genome.Genes()
		}
		hof.Consider(HallEntry{
			AnimalID:  a.ID,
			Genes:     genes,
			GenomeKey: a.GenomeKey(),
			Children:  a.Children,
			Lifespan:  a.Lifespan(a.DeathDay),
			BirthDay:  a.BirthDay,
			DeathDay:  a.DeathDay,
		})
	})
}

// Consider evaluates a dead animal for hall of fame entry.
// Returns true if the entry was added to the hall.
func (hof *HallOfFame) Consider(e HallEntry) bool {
	if !hof.meetsEntryCriteria(e) {
		return false
	}
	e.Fitness = hof.calculateFitness(e)

	hof.mu.Lock()
	defer hof.mu.Unlock()
	hof.hall = hof.insertEntry(hof.hall, e)
	return hof.contains(e.AnimalID)
}

// meetsEntryCriteria checks if an animal qualifies for the hall.
func (hof *HallOfFame) meetsEntryCriteria(e HallEntry) bool {
	if len(e.Genes) == 0 {
		return false
	}
	if hof.opts.MinChildren > 0 && e.Children >= hof.opts.MinChildren {
		return true
	}
	return hof.opts.MinLifespan > 0 && e.Lifespan >= hof.opts.MinLifespan
}

// calculateFitness computes the weighted fitness score.
func (hof *HallOfFame) calculateFitness(e HallEntry) float64 {
	return float64(e.Children)*hof.opts.ChildrenWeight + float64(e.Lifespan)*hof.opts.LifespanWeight
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed. Equal fitness
// keeps the earlier entry ahead.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hall) >= hof.opts.Size && idx >= hof.opts.Size {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.opts.Size {
		hall = hall[:hof.opts.Size]
	}
	return hall
}

func (hof *HallOfFame) contains(id uint64) bool {
	for _, e := range hof.hall {
		if e.AnimalID == id {
			return true
		}
	}
	return false
}

// Entries returns a copy of the hall, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	return append([]HallEntry(nil), hof.hall...)
}

// Len returns the number of entries.
func (hof *HallOfFame) Len() int {
	hof.mu.Lock()
	defer hof.mu.Unlock()
	return len(hof.hall)
}

// LogStats logs the hall's size and best entry.
func (hof *HallOfFame) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	entries := hof.Entries()
	if len(entries) == 0 {
		logger.Info("hall_of_fame", "size", 0)
		return
	}
	best := entries[0]
	logger.Info("hall_of_fame",
		"size", len(entries),
		"best_animal", best.AnimalID,
		"best_genome", best.GenomeKey,
		"best_fitness", best.Fitness,
		"best_children", best.Children,
		"best_lifespan", best.Lifespan,
	)
}

// WriteJSON writes the hall, best first, to path.
func (hof *HallOfFame) WriteJSON(path string) error {
	data, err := json.MarshalIndent(hof.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hall of fame: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write hall of fame: %w", err)
	}
	return nil
}
