package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pthm-cable/darwin/config"
	"github.com/pthm-cable/darwin/game"
	"github.com/pthm-cable/darwin/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV stats and config snapshot (overrides config)")
	seed := flag.Int64("seed", -1, "RNG seed (-1 = use config, 0 = time-based)")
	days := flag.Int("days", -1, "Stop after N days (-1 = use config, 0 = unlimited)")
	mapID := flag.String("map-id", "", "Map identifier used for the stats file name (overrides config)")
	logStats := flag.Bool("log-stats", false, "Output daily stats via slog")
	logFormat := flag.String("log-format", "json", "Log format: json | text")
	logLevel := flag.String("log-level", "info", "Log level: debug | info | warn | error")
	dayDelay := flag.Duration("day-delay", -1, "Pause between days (-1 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files (overrides config)")

	flag.Parse()

	logger, err := newLogger(*logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *seed >= 0 {
		cfg.Simulation.Seed = *seed
	}
	if *days >= 0 {
		cfg.Simulation.Days = *days
	}
	if *mapID != "" {
		cfg.Telemetry.MapID = *mapID
	}
	if *logStats {
		cfg.Telemetry.LogStats = true
	}
	if *dayDelay >= 0 {
		cfg.Simulation.DayDelay = *dayDelay
	}
	if *snapshotDir != "" {
		cfg.Telemetry.SnapshotDir = *snapshotDir
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid flags", "error", err)
		return 2
	}

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		logger.Error("failed to create output directory", "error", err)
		return 1
	}
	defer func() {
		if err := output.Close(); err != nil {
			logger.Warn("closing stats output", "error", err)
		}
	}()
	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config snapshot", "error", err)
		return 1
	}

	g, err := game.NewGame(cfg, game.Options{Seed: cfg.Simulation.Seed, Logger: logger})
	if err != nil {
		logger.Error("failed to create simulation", "error", err)
		return 1
	}
	defer g.Close()

	engineOpts := game.EngineOptions{
		MapID:           cfg.Telemetry.MapID,
		Days:            cfg.Simulation.Days,
		DayDelay:        cfg.Simulation.DayDelay,
		LogStats:        cfg.Telemetry.LogStats,
		PerfWindow:      cfg.Telemetry.PerfWindow,
		PerfLogInterval: cfg.Telemetry.PerfLogInterval,
		SnapshotDir:     cfg.Telemetry.SnapshotDir,
		Logger:          logger,
	}
	if output != nil {
		engineOpts.Sink = output
	}
	if cfg.Telemetry.Bookmarks {
		engineOpts.Bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory)
	}
	engine := game.NewEngine(g, engineOpts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting simulation",
		"seed", cfg.Simulation.Seed,
		"days", cfg.Simulation.Days,
		"output_dir", output.Dir(),
	)
	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		return 1
	}
	engine.Wait()

	if dir := cfg.Telemetry.SnapshotDir; dir != "" {
		if _, err := engine.SaveSnapshot(dir, nil); err != nil {
			logger.Warn("final snapshot failed", "error", err)
		}
	}

	s := g.Stats()
	logger.Info("simulation finished",
		"day", s.Day,
		"animals", s.Animals,
		"plants", s.Plants,
		"dead", s.DeadCount,
		"top_genotype", s.TopGenotype,
		"stats_file", output.Path(cfg.Telemetry.MapID),
	)
	if hof := g.HallOfFame(); hof != nil {
		hof.LogStats(logger)
		if output != nil {
			path := filepath.Join(output.Dir(), cfg.Telemetry.MapID+"_hall_of_fame.json")
			if err := hof.WriteJSON(path); err != nil {
				logger.Warn("writing hall of fame", "error", err)
			}
		}
	}
	if ctx.Err() != nil {
		return 130
	}
	return 0
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}
	return nil, fmt.Errorf("invalid -log-format %q, want json or text", format)
}
