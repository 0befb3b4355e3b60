package telemetry

import "testing"

func population(day, animals int) Stats {
	return Stats{Day: day, Animals: animals}
}

// feed runs counts through bd starting at day 1 and returns every bookmark.
func feed(bd *BookmarkDetector, counts ...int) []Bookmark {
	var all []Bookmark
	for i, n := range counts {
		all = append(all, bd.Check(population(i+1, n))...)
	}
	return all
}

func ofType(bookmarks []Bookmark, typ BookmarkType) []Bookmark {
	var out []Bookmark
	for _, b := range bookmarks {
		if b.Type == typ {
			out = append(out, b)
		}
	}
	return out
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	got := ofType(feed(bd, 30, 40, 38, 20), BookmarkPopulationCrash)
	if len(got) != 1 {
		t.Fatalf("crash bookmarks = %v", got)
	}
	if got[0].Day != 4 {
		t.Errorf("crash day = %d, want 4", got[0].Day)
	}
}

func TestBookmarkDetector_SmallDropIgnored(t *testing.T) {
	bd := NewBookmarkDetector(10)
	// 40% drop but fewer than ten animals lost
	if got := ofType(feed(bd, 20, 12), BookmarkPopulationCrash); len(got) != 0 {
		t.Errorf("unexpected crash: %v", got)
	}
}

func TestBookmarkDetector_Recovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	got := ofType(feed(bd, 2, 3, 6, 7), BookmarkPopulationRecovery)
	if len(got) != 1 || got[0].Day != 3 {
		t.Errorf("recovery bookmarks = %v, want one on day 3", got)
	}
}

func TestBookmarkDetector_ExtinctionOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	all := feed(bd, 5, 0, 0, 0)
	got := ofType(all, BookmarkExtinction)
	if len(got) != 1 || got[0].Day != 2 {
		t.Errorf("extinction bookmarks = %v, want one on day 2", got)
	}
	if crash := ofType(all, BookmarkPopulationCrash); len(crash) != 0 {
		t.Errorf("extinction of five animals reported as crash: %v", crash)
	}
}

func TestBookmarkDetector_GenotypeDominance(t *testing.T) {
	bd := NewBookmarkDetector(10)
	tests := []struct {
		key   string
		count int
		fires bool
	}{
		{"01", 4, false}, // 40%
		{"01", 5, true},
		{"01", 8, false}, // already reported
		{"22", 6, true},
		{"01", 7, true},
	}
	for i, tt := range tests {
		s := Stats{Day: i + 1, Animals: 10, TopGenotype: tt.key, TopGenotypeCount: tt.count}
		got := ofType(bd.Check(s), BookmarkGenotypeDominance)
		if (len(got) == 1) != tt.fires {
			t.Errorf("day %d %s x%d: bookmarks %v, want fired=%v", s.Day, tt.key, tt.count, got, tt.fires)
		}
	}
}

func TestBookmarkDetector_StablePopulation(t *testing.T) {
	bd := NewBookmarkDetector(10)
	var fired []int
	for day := 1; day <= 12; day++ {
		for _, b := range bd.Check(population(day, 20+day%2)) {
			if b.Type == BookmarkStablePopulation {
				fired = append(fired, b.Day)
			}
		}
	}
	// The first full window closes on day 4, five stable days later is day 8.
	if len(fired) != 1 || fired[0] != 8 {
		t.Errorf("stable bookmarks on days %v, want [8]", fired)
	}
}

func TestBookmarkDetector_UnstableReset(t *testing.T) {
	bd := NewBookmarkDetector(10)
	counts := []int{20, 20, 20, 20, 20, 20, 60, 20, 20, 20}
	if got := ofType(feed(bd, counts...), BookmarkStablePopulation); len(got) != 0 {
		t.Errorf("stable bookmark despite spike: %v", got)
	}
}

func TestBookmarkDetector_Recent(t *testing.T) {
	bd := NewBookmarkDetector(4)
	feed(bd, 1, 2, 3, 4, 5, 6)
	got := bd.recent(3)
	want := []int{4, 5, 6}
	for i := range want {
		if got[i].Animals != want[i] {
			t.Fatalf("recent(3) = %v, want animals %v", got, want)
		}
	}
	if n := len(NewBookmarkDetector(4).recent(3)); n != 0 {
		t.Errorf("empty detector returned %d entries", n)
	}
}
