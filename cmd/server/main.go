package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"voxelcraft.ai/durability/internal/logging"
	persistlog "voxelcraft.ai/durability/internal/persistence/log"
	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/replicate"
	"voxelcraft.ai/durability/internal/sim/tuning"
	"voxelcraft.ai/durability/internal/sim/world"
)

func main() {
	var (
		worldID     = flag.String("world", "world_1", "world id")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml or tuning.toml (default: <configs>/tuning.yaml)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite audit index")
		interactive = flag.Bool("console", false, "run the interactive operator console")
	)
	flag.Parse()

	var con *console
	logger := logging.New("server", logging.ProfileRuntime)
	if *interactive {
		c, err := newConsole()
		if err != nil {
			logger.Fatal().Err(err).Msg("console")
		}
		con = c
		logger = logging.NewWithWriter("server", con.Stdout(), zerolog.InfoLevel)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogs")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatal().Err(err).Msg("load tuning")
		}
		logger.Warn().Str("path", tp).Msg("tuning not found; using defaults")
		tune = tuning.Defaults()
		if err := tuning.ApplyEnv(&tune); err != nil {
			logger.Fatal().Err(err).Msg("load tuning")
		}
		if err := tune.Validate(); err != nil {
			logger.Fatal().Err(err).Msg("load tuning")
		}
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("data dir")
	}

	// Optional read-model index (the JSONL audit log stays authoritative).
	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("open index backend")
	}
	if idx != nil {
		defer func() {
			st := idx.Stats()
			_ = idx.Close()
			logger.Info().
				Uint64("written", st.WrittenTotal).
				Uint64("dropped", st.DropAuditTotal).
				Msg("index closed")
		}()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Warn().Err(err).Msg("index backend: upsert catalogs")
		}
	}

	// Game time continues where the previous run's audit trail ended.
	startMs, err := persistlog.LastTimeMs(worldDir)
	if err != nil {
		logger.Warn().Err(err).Msg("read last game time; starting at 0")
		startMs = 0
	}
	runID := persistlog.NewRunID(time.Now())
	logger = logger.With().Str("run", runID).Logger()

	auditLog := persistlog.NewAuditLogger(worldDir, runID)
	defer auditLog.Close()
	sinks := []world.AuditSink{auditLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}

	w, err := world.New(world.WorldConfig{
		ID: *worldID,
		Durability: durability.Config{
			DecayIntervalMs:  tune.Durability.DecayIntervalMs,
			DecayAmount:      tune.Durability.DecayAmount,
			ToolWearPerBreak: tune.Durability.ToolWearPerBreak,
			EmptyBlock:       tune.Durability.EmptyBlock,
		},
		Logger:  logger,
		Audit:   sinks,
		RunID:   runID,
		StartMs: startMs,
	}, cats)
	if err != nil {
		logger.Fatal().Err(err).Msg("world")
	}
	tracker := replicate.NewTracker(w.Store(), w.Dispatcher())

	ctx, cancel := signalContext()
	defer cancel()

	r := newRunner(w, tracker, tune.TickRateHz, logger)
	logger.Info().
		Str("world", *worldID).
		Int("tick_rate_hz", tune.TickRateHz).
		Int64("decay_interval_ms", tune.Durability.DecayIntervalMs).
		Str("world_dir", worldDir).
		Msg("server started")

	if con != nil {
		con.r = r
		go con.Run(ctx, cancel)
	}

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("world stopped")
	}
	logger.Info().Int64("now_ms", r.nowMs).Int("entities", w.Store().Len()).Msg("server stopped")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
