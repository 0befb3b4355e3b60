package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkPopulationRecovery BookmarkType = "population_recovery"
	BookmarkExtinction         BookmarkType = "extinction"
	BookmarkGenotypeDominance  BookmarkType = "genotype_dominance"
	BookmarkStablePopulation   BookmarkType = "stable_population"
)

// Detection thresholds.
const (
	crashDrop         = 0.30 // share lost from the recent peak
	crashMinLoss      = 10
	recoveryFactor    = 3
	recoveryMinCount  = 6
	dominanceShare    = 0.5
	dominanceMinCount = 5
	stableWindow      = 4
	stableDays        = 5
	stableMaxCV2      = 0.04 // squared coefficient of variation
	stableMinCount    = 10
)

// Bookmark represents an automatically detected moment in a run.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Day         int          `json:"day"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("bookmark",
		"type", string(b.Type),
		"day", b.Day,
		"description", b.Description,
	)
}

// BookmarkDetector watches daily statistics for population events. It is
// not safe for concurrent use.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []Stats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentMin   int // population minimum since the last recovery
	recentPeak  int // population peak since the last crash
	stableDays  int // consecutive days with a stable population
	extinct     bool
	dominantKey string
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindow {
		historySize = stableWindow
	}
	return &BookmarkDetector{
		history:     make([]Stats, historySize),
		historySize: historySize,
		recentMin:   -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(s Stats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(Stats) *Bookmark{
		bd.checkExtinction,
		bd.checkCrash,
		bd.checkRecovery,
		bd.checkDominance,
		bd.checkStable,
	} {
		if b := check(s); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(s)
	if s.Animals > bd.recentPeak {
		bd.recentPeak = s.Animals
	}
	if bd.recentMin < 0 || s.Animals < bd.recentMin {
		bd.recentMin = s.Animals
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(s Stats) {
	bd.history[bd.historyIdx] = s
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []Stats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	n = min(n, size)
	out := make([]Stats, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, bd.history[(bd.historyIdx-i+bd.historySize)%bd.historySize])
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(s Stats) *Bookmark {
	if s.Animals > 0 || bd.extinct || bd.recentPeak == 0 {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Day:         s.Day,
		Description: fmt.Sprintf("Population died out after a peak of %d", bd.recentPeak),
	}
}

func (bd *BookmarkDetector) checkCrash(s Stats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}
	drop := 1 - float64(s.Animals)/float64(bd.recentPeak)
	if drop <= crashDrop || s.Animals > bd.recentPeak-crashMinLoss {
		return nil
	}
	// Reset peak after crash
	oldPeak := bd.recentPeak
	bd.recentPeak = s.Animals
	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Day:         s.Day,
		Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, s.Animals),
	}
}

func (bd *BookmarkDetector) checkRecovery(s Stats) *Bookmark {
	if bd.recentMin <= 0 || bd.recentMin > recoveryMinCount/2 {
		return nil
	}
	if s.Animals < bd.recentMin*recoveryFactor || s.Animals < recoveryMinCount {
		return nil
	}
	oldMin := bd.recentMin
	bd.recentMin = s.Animals
	bd.extinct = false
	return &Bookmark{
		Type:        BookmarkPopulationRecovery,
		Day:         s.Day,
		Description: fmt.Sprintf("Population recovered from %d to %d", oldMin, s.Animals),
	}
}

// checkDominance fires once per genotype when it first holds at least half
// of the population.
func (bd *BookmarkDetector) checkDominance(s Stats) *Bookmark {
	if s.Animals < dominanceMinCount || s.TopGenotype == "" || s.TopGenotype == bd.dominantKey {
		return nil
	}
	share := float64(s.TopGenotypeCount) / float64(s.Animals)
	if share < dominanceShare {
		return nil
	}
	bd.dominantKey = s.TopGenotype
	return &Bookmark{
		Type:        BookmarkGenotypeDominance,
		Day:         s.Day,
		Description: fmt.Sprintf("Genotype %s holds %.0f%% of %d animals", s.TopGenotype, share*100, s.Animals),
	}
}

func (bd *BookmarkDetector) checkStable(s Stats) *Bookmark {
	if s.Animals < stableMinCount {
		bd.stableDays = 0
		return nil
	}
	window := append(bd.recent(stableWindow-1), s)
	if len(window) < stableWindow {
		return nil
	}

	counts := make([]float64, len(window))
	for i, h := range window {
		counts[i] = float64(h.Animals)
	}
	mean, variance := stat.PopMeanVariance(counts, nil)
	if mean > 0 && variance/(mean*mean) < stableMaxCV2 {
		bd.stableDays++
	} else {
		bd.stableDays = 0
	}

	if bd.stableDays != stableDays { // trigger exactly once per stable run
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStablePopulation,
		Day:         s.Day,
		Description: fmt.Sprintf("Stable population of about %.0f animals over %d days", mean, stableDays),
	}
}
