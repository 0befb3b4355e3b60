package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pthm-cable/darwin/telemetry"
	"github.com/pthm-cable/darwin/world"
)

// recordingSink stores every row it receives and can be told to fail.
type recordingSink struct {
	mu   sync.Mutex
	days []int
	fail bool
}

func (s *recordingSink) Write(mapID string, st telemetry.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = append(s.days, st.Day)
	if s.fail {
		return errors.New("disk full")
	}
	return nil
}

func (s *recordingSink) Days() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.days...)
}

func newTestEngine(t *testing.T, opts EngineOptions) *Engine {
	t.Helper()
	g := newTestGame(t, testConfig(t), 7)
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return NewEngine(g, opts)
}

func waitDone(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not finish")
	}
}

// ---------- lifecycle ----------

func TestEngine_DayLimit(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(t, EngineOptions{Sink: sink, MapID: "m", Days: 5})

	var finished atomic.Int32
	e.OnFinished(func() { finished.Add(1) })

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)

	if got := e.Game().Day(); got != 5 {
		t.Errorf("day = %d, want 5", got)
	}
	if got := sink.Days(); len(got) != 5 || got[0] != 1 || got[4] != 5 {
		t.Errorf("sink days = %v", got)
	}
	if e.State() != StateStopped {
		t.Errorf("state = %s", e.State())
	}
	e.Stop()
	if finished.Load() != 1 {
		t.Errorf("finished fired %d times", finished.Load())
	}
}

func TestEngine_StartTwice(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Days: 1})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	waitDone(t, e)
	if err := e.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start after finish = %v, want ErrAlreadyStarted", err)
	}
}

func TestEngine_StopIdle(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	var finished atomic.Int32
	e.OnFinished(func() { finished.Add(1) })

	e.Stop()
	e.Stop()
	if finished.Load() != 1 {
		t.Errorf("finished fired %d times", finished.Load())
	}
	if e.Game().Day() != 0 {
		t.Errorf("idle stop advanced to day %d", e.Game().Day())
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start after Stop = %v", err)
	}
}

func TestEngine_StopJoinsWorker(t *testing.T) {
	e := newTestEngine(t, EngineOptions{DayDelay: time.Millisecond})
	var finished atomic.Int32
	e.OnFinished(func() { finished.Add(1) })

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	e.Stop()

	select {
	case <-e.Done():
	default:
		t.Fatal("Stop returned before the worker finished")
	}
	day := e.Day()
	time.Sleep(5 * time.Millisecond)
	if e.Day() != day {
		t.Error("days advanced after Stop")
	}
	e.Stop()
	if finished.Load() != 1 {
		t.Errorf("finished fired %d times", finished.Load())
	}
}

func TestEngine_ContextCancel(t *testing.T) {
	e := newTestEngine(t, EngineOptions{DayDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitDone(t, e)
	if e.State() != StateStopped {
		t.Errorf("state = %s", e.State())
	}
}

// ---------- pause / resume ----------

func TestEngine_PauseResume(t *testing.T) {
	e := newTestEngine(t, EngineOptions{DayDelay: time.Millisecond})
	if e.Pause() {
		t.Error("Pause on idle engine succeeded")
	}
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	if !e.Pause() {
		t.Fatal("Pause on running engine failed")
	}
	if e.Pause() {
		t.Error("second Pause succeeded")
	}
	// Let an in-flight day settle.
	time.Sleep(10 * time.Millisecond)
	paused := e.Day()
	time.Sleep(20 * time.Millisecond)
	if got := e.Day(); got != paused {
		t.Errorf("days advanced while paused: %d -> %d", paused, got)
	}
	if e.State() != StatePaused {
		t.Errorf("state = %s", e.State())
	}

	if !e.Resume() {
		t.Fatal("Resume failed")
	}
	if e.Resume() {
		t.Error("second Resume succeeded")
	}
	deadline := time.Now().Add(5 * time.Second)
	for e.Day() <= paused {
		if time.Now().After(deadline) {
			t.Fatal("no days after Resume")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngine_StopWhilePaused(t *testing.T) {
	e := newTestEngine(t, EngineOptions{DayDelay: time.Millisecond})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Pause()
	e.Stop()
	if e.State() != StateStopped {
		t.Errorf("state = %s", e.State())
	}
	if e.Resume() {
		t.Error("Resume after Stop succeeded")
	}
}

func TestEngine_CancelWhilePaused(t *testing.T) {
	e := newTestEngine(t, EngineOptions{DayDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	e.Pause()
	time.Sleep(5 * time.Millisecond)
	cancel()
	waitDone(t, e)
}

// ---------- listeners and sink ----------

func TestEngine_DayListenerOrder(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Days: 4})
	var days []int
	e.OnDayEnd(func(snap world.Snapshot, day int, s telemetry.Stats) {
		if s.Day != day || snap.Day != day {
			t.Errorf("stats day %d, snapshot day %d, listener day %d", s.Day, snap.Day, day)
		}
		if len(snap.Animals) != s.Animals {
			t.Errorf("snapshot holds %d animals, stats %d", len(snap.Animals), s.Animals)
		}
		days = append(days, day)
	})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Wait()

	want := []int{1, 2, 3, 4}
	if len(days) != len(want) {
		t.Fatalf("listener days = %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("listener days = %v, want %v", days, want)
		}
	}
}

func TestEngine_RequestStopFromListener(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	e.OnDayEnd(func(_ world.Snapshot, day int, _ telemetry.Stats) {
		if day == 3 {
			e.RequestStop()
		}
	})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)
	if got := e.Game().Day(); got != 3 {
		t.Errorf("stopped at day %d, want 3", got)
	}
}

func TestEngine_SinkErrorsTolerated(t *testing.T) {
	sink := &recordingSink{fail: true}
	e := newTestEngine(t, EngineOptions{Sink: sink, Days: 3})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)
	if got := len(sink.Days()); got != 3 {
		t.Errorf("sink writes = %d, want 3", got)
	}
}

func TestEngine_PerfRecordsDays(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Days: 6, PerfWindow: 4})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)
	p := e.Perf()
	if p.Days != 4 {
		t.Errorf("perf window holds %d days, want 4", p.Days)
	}
	if p.MaxDay < p.MinDay {
		t.Errorf("max %v < min %v", p.MaxDay, p.MinDay)
	}
}

func TestEngine_BookmarkSnapshots(t *testing.T) {
	cfg := testConfig(t)
	cfg.Animal.StartEnergy = 3
	cfg.Simulation.StartPlants = 0
	cfg.Plants.DailyGrowth = 0
	g := newTestGame(t, cfg, 5)

	dir := t.TempDir()
	e := NewEngine(g, EngineOptions{
		MapID:       "m",
		Days:        4,
		Bookmarks:   telemetry.NewBookmarkDetector(10),
		SnapshotDir: dir,
		Logger:      quietLogger(),
	})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)

	path := filepath.Join(dir, "m_day3_extinction.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("extinction snapshot missing: %v", err)
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Seed != 5 || snap.World.Day != 3 || snap.World.DeadCount != 12 {
		t.Errorf("snapshot = seed %d day %d dead %d", snap.Seed, snap.World.Day, snap.World.DeadCount)
	}
	if snap.Bookmark == nil || snap.Bookmark.Type != telemetry.BookmarkExtinction {
		t.Errorf("bookmark = %+v", snap.Bookmark)
	}
}

func TestEngine_SaveSnapshotAfterRun(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Days: 2})
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Wait()

	path, err := e.SaveSnapshot(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "map_day2.json" {
		t.Errorf("snapshot path = %s", path)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StatePaused, "paused"},
		{StateStopped, "stopped"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
