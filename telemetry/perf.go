package telemetry

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phases of one engine day, in the order they run.
const (
	PhaseAdvance   = "advance"
	PhaseSnapshot  = "snapshot"
	PhaseStats     = "stats"
	PhaseBookmarks = "bookmarks"
	PhaseSink      = "sink"
	PhaseNotify    = "notify"
)

// daySample is the timing of one completed day.
type daySample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector keeps the timings of the last few days in a ring. It is
// driven by the engine worker only.
type PerfCollector struct {
	ring  []daySample
	next  int
	count int

	current    daySample
	dayStart   time.Time
	phase      string
	phaseStart time.Time

	now func() time.Time
}

// NewPerfCollector creates a collector over the last window days.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 50
	}
	return &PerfCollector{
		ring: make([]daySample, window),
		now:  time.Now,
	}
}

// StartDay begins timing a new day.
func (p *PerfCollector) StartDay() {
	p.dayStart = p.now()
	p.current = daySample{phases: make(map[string]time.Duration)}
	p.phase = ""
}

// StartPhase closes the running phase and opens phase. Re-entered phases
// accumulate.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.phase = ""
}

// EndDay records the current day in the ring.
func (p *PerfCollector) EndDay() {
	now := p.now()
	p.closePhase(now)
	p.current.total = now.Sub(p.dayStart)
	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// PerfStats summarizes the days in the window.
type PerfStats struct {
	Days int

	AvgDay    time.Duration
	MedianDay time.Duration
	P95Day    time.Duration
	MinDay    time.Duration
	MaxDay    time.Duration

	PhaseAvg map[string]time.Duration
	// PhaseShare is each phase's fraction of the summed day time.
	PhaseShare map[string]float64

	DaysPerSecond float64
}

// Slowest returns the phase with the largest average, or "".
func (s PerfStats) Slowest() string {
	var name string
	var worst time.Duration
	for phase, d := range s.PhaseAvg {
		if d > worst || (d == worst && phase < name) {
			name, worst = phase, d
		}
	}
	return name
}

// Stats summarizes the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Days:       p.count,
		PhaseAvg:   make(map[string]time.Duration),
		PhaseShare: make(map[string]float64),
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	phaseSums := make(map[string]float64)
	for i, day := range p.ring[:p.count] {
		totals[i] = float64(day.total)
		for phase, d := range day.phases {
			phaseSums[phase] += float64(d)
		}
	}
	sorted := slices.Clone(totals)
	slices.Sort(sorted)

	n := float64(p.count)
	mean := stat.Mean(totals, nil)
	s.AvgDay = time.Duration(mean)
	s.MedianDay = time.Duration(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	s.P95Day = time.Duration(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	s.MinDay = time.Duration(floats.Min(totals))
	s.MaxDay = time.Duration(floats.Max(totals))

	sum := floats.Sum(totals)
	for phase, total := range phaseSums {
		s.PhaseAvg[phase] = time.Duration(total / n)
		if sum > 0 {
			s.PhaseShare[phase] = total / sum
		}
	}
	if mean > 0 {
		s.DaysPerSecond = float64(time.Second) / mean
	}
	return s
}

// LogStats logs the summary with one attribute per phase.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		"days", s.Days,
		"avg_day_us", s.AvgDay.Microseconds(),
		"p50_day_us", s.MedianDay.Microseconds(),
		"p95_day_us", s.P95Day.Microseconds(),
		"max_day_us", s.MaxDay.Microseconds(),
		"days_per_sec", int(s.DaysPerSecond),
	}
	if slowest := s.Slowest(); slowest != "" {
		attrs = append(attrs, "slowest", slowest)
	}
	for _, phase := range slices.Sorted(maps.Keys(s.PhaseAvg)) {
		attrs = append(attrs, phase+"_us", s.PhaseAvg[phase].Microseconds())
	}
	logger.Info("perf", attrs...)
}
