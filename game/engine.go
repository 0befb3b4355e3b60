package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/darwin/telemetry"
	"github.com/pthm-cable/darwin/world"
)

// ErrAlreadyStarted is returned by Start on an engine that left the idle state.
var ErrAlreadyStarted = errors.New("engine already started")

// State is the engine lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// DayListener is notified on the worker goroutine after every day with the
// snapshot the day's statistics were built from.
type DayListener func(snap world.Snapshot, day int, s telemetry.Stats)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Sink     telemetry.StatsSink // nil disables output
	MapID    string
	Days     int           // stop after this many days, 0 = unlimited
	DayDelay time.Duration // pause between days

	LogStats        bool
	PerfWindow      int
	PerfLogInterval int // days between perf logs, 0 disables

	Bookmarks   *telemetry.BookmarkDetector // nil disables detection
	SnapshotDir string                      // snapshots on bookmarks, empty disables

	Logger *slog.Logger
}

// Engine runs a Game on a background worker. Pause, Resume and Stop take
// effect between days, never in the middle of one.
type Engine struct {
	game *Game
	opts EngineOptions
	perf *telemetry.PerfCollector

	state   atomic.Int32
	lastDay atomic.Int64

	mu       sync.Mutex
	cond     *sync.Cond
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	dayListeners      []DayListener
	finishedListeners []func()
	finishOnce        sync.Once
}

// NewEngine creates an idle engine for g.
func NewEngine(g *Game, opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = g.logger
	}
	e := &Engine{
		game:   g,
		opts:   opts,
		perf:   telemetry.NewPerfCollector(opts.PerfWindow),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Day returns the last completed day. Unlike Game().Day it is safe to call
// while the worker runs.
func (e *Engine) Day() int { return int(e.lastDay.Load()) }

// Game returns the simulated game.
func (e *Engine) Game() *Game { return e.game }

// OnDayEnd registers a listener called after each completed day.
func (e *Engine) OnDayEnd(fn DayListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dayListeners = append(e.dayListeners, fn)
}

// OnFinished registers a listener called once when the run ends.
func (e *Engine) OnFinished(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishedListeners = append(e.finishedListeners, fn)
}

// Start launches the worker. It fails unless the engine is idle.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StateIdle {
		return ErrAlreadyStarted
	}
	e.state.Store(int32(StateRunning))

	// Wake a paused worker when ctx ends.
	stopWake := context.AfterFunc(ctx, func() {
		e.mu.Lock()
		e.cond.Broadcast()
		e.mu.Unlock()
	})
	go func() {
		defer stopWake()
		e.run(ctx)
	}()

	e.opts.Logger.Info("engine started", "map_id", e.opts.MapID, "days", e.opts.Days)
	return nil
}

// Pause suspends the run after the current day.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StateRunning {
		return false
	}
	e.state.Store(int32(StatePaused))
	return true
}

// Resume continues a paused run.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.State() != StatePaused {
		return false
	}
	e.state.Store(int32(StateRunning))
	e.cond.Broadcast()
	return true
}

// RequestStop asks the worker to stop after the current day without
// waiting. It is safe to call from listeners.
func (e *Engine) RequestStop() {
	e.mu.Lock()
	prev := e.State()
	if prev != StateStopped {
		e.state.Store(int32(StateStopped))
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	e.stopOnce.Do(func() { close(e.stopCh) })
	if prev == StateIdle {
		// no worker will ever run
		e.finish()
	}
}

// Stop ends the run and waits for the in-flight day to finish. Calling it
// again is a no-op. Listeners must use RequestStop instead.
func (e *Engine) Stop() {
	e.RequestStop()
	<-e.done
}

// Wait blocks until the run has ended.
func (e *Engine) Wait() {
	<-e.done
}

// Done is closed when the run has ended.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) run(ctx context.Context) {
	defer e.finish()

	for {
		if !e.awaitRunning(ctx) {
			return
		}

		e.runDay()

		day := e.game.Day()
		if e.opts.Days > 0 && day >= e.opts.Days {
			e.opts.Logger.Info("day limit reached", "day", day)
			return
		}

		if e.opts.DayDelay > 0 {
			t := time.NewTimer(e.opts.DayDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-e.stopCh:
				t.Stop()
				return
			case <-t.C:
			}
		}
	}
}

// awaitRunning blocks while paused and reports whether another day should run.
func (e *Engine) awaitRunning(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.State() == StatePaused && ctx.Err() == nil {
		e.cond.Wait()
	}
	return e.State() == StateRunning && ctx.Err() == nil
}

func (e *Engine) runDay() {
	e.perf.StartDay()

	e.perf.StartPhase(telemetry.PhaseAdvance)
	report := e.game.advance()
	e.lastDay.Store(int64(report.Day))

	e.perf.StartPhase(telemetry.PhaseSnapshot)
	snap := e.game.Map().Snapshot()

	e.perf.StartPhase(telemetry.PhaseStats)
	stats := e.game.collect(snap)
	if e.opts.LogStats {
		stats.LogStats(e.opts.Logger)
	}

	e.perf.StartPhase(telemetry.PhaseBookmarks)
	if e.opts.Bookmarks != nil {
		for _, b := range e.opts.Bookmarks.Check(stats) {
			b.LogBookmark(e.opts.Logger)
			if e.opts.SnapshotDir == "" {
				continue
			}
			if _, err := e.writeSnapshot(e.opts.SnapshotDir, snap, &b); err != nil {
				e.opts.Logger.Warn("snapshot failed", "day", stats.Day, "bookmark", string(b.Type), "error", err)
			}
		}
	}
	e.opts.Logger.Debug("day done", "report", report)

	e.perf.StartPhase(telemetry.PhaseSink)
	if e.opts.Sink != nil {
		if err := e.opts.Sink.Write(e.opts.MapID, stats); err != nil {
			e.opts.Logger.Warn("stats sink write failed", "day", stats.Day, "map_id", e.opts.MapID, "error", err)
		}
	}

	e.perf.StartPhase(telemetry.PhaseNotify)
	e.mu.Lock()
	listeners := append([]DayListener(nil), e.dayListeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn(snap, stats.Day, stats)
	}

	e.mu.Lock()
	e.perf.EndDay()
	e.mu.Unlock()
	if n := e.opts.PerfLogInterval; n > 0 && stats.Day%n == 0 {
		e.Perf().LogStats(e.opts.Logger)
	}
}

// finish moves to Stopped and notifies finished listeners exactly once.
func (e *Engine) finish() {
	e.finishOnce.Do(func() {
		e.mu.Lock()
		e.state.Store(int32(StateStopped))
		listeners := append([]func(){}, e.finishedListeners...)
		e.mu.Unlock()

		for _, fn := range listeners {
			fn()
		}
		e.opts.Logger.Info("engine finished", "map_id", e.opts.MapID, "day", e.game.Day())
		close(e.done)
	})
}

// SaveSnapshot writes the current map state to dir, tagged with b if it is
// non-nil, and returns the file path.
func (e *Engine) SaveSnapshot(dir string, b *telemetry.Bookmark) (string, error) {
	return e.writeSnapshot(dir, e.game.Map().Snapshot(), b)
}

func (e *Engine) writeSnapshot(dir string, ws world.Snapshot, b *telemetry.Bookmark) (string, error) {
	snap := telemetry.NewSnapshot(e.snapshotID(), e.game.Seed(), e.game.Map().Policy().Name(), ws, b)
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		return "", err
	}
	e.opts.Logger.Info("snapshot saved", "path", path, "day", snap.World.Day)
	return path, nil
}

func (e *Engine) snapshotID() string {
	if e.opts.MapID == "" {
		return "map"
	}
	return e.opts.MapID
}

// Perf returns the rolling day timing statistics. Samples are recorded
// under the engine lock.
func (e *Engine) Perf() telemetry.PerfStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perf.Stats()
}
