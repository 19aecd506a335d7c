package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"railcraft.ai/internal/logging"
	"railcraft.ai/internal/sim/ids"
	"railcraft.ai/internal/sim/multigame"
	"railcraft.ai/internal/sim/tuning"
	"railcraft.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		gamesPath  = flag.String("games", "", "path to games.yaml (default: <configs>/games.yaml)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (tick/audit/force-stop/snapshot metadata)")
		logLevel   = flag.String("log_level", "", "override the tuning log level")

		snapPath   = flag.String("snapshot", "", "snapshot to resume the default game from (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "resume each game from its latest snapshot when -snapshot is empty")
	)
	flag.Parse()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if errors.Is(err, os.ErrNotExist) {
		tune, err = tuning.Defaults(), nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load tuning: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		tune.Log.Level = *logLevel
	}
	logger, err := logging.New(logging.Config{
		Level:      tune.Log.Level,
		File:       tune.Log.File,
		MaxSizeMB:  tune.Log.MaxSizeMB,
		MaxBackups: tune.Log.MaxBackups,
		MaxAgeDays: tune.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	gp := strings.TrimSpace(*gamesPath)
	if gp == "" {
		gp = filepath.Join(*configDir, "games.yaml")
	}
	if _, err := os.Stat(gp); err != nil {
		logger.Info("games config not found; hosting one default game", zap.String("path", gp))
		gp = ""
	}
	gcfg, err := multigame.Load(gp)
	if err != nil {
		logger.Fatal("load games config", zap.Error(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	mirror, err := buildMirror(*dataDir, logger)
	if err != nil {
		logger.Fatal("snapshot mirror", zap.Error(err))
	}
	defer mirror.Close()

	var (
		runtimes []*multigame.Runtime
		hosted   []*hostedGame
	)
	for _, spec := range gcfg.Games {
		opts := hostOptions{
			DataDir:    *dataDir,
			DisableDB:  *disableDB,
			LoadLatest: *loadLatest,
			Mirror:     mirror,
		}
		if spec.ID == gcfg.DefaultGameID {
			opts.Snapshot = strings.TrimSpace(*snapPath)
		}
		h, err := hostGame(ctx, spec, tune, opts, logger)
		if err != nil {
			logger.Fatal("host game", zap.String("game", spec.ID), zap.Error(err))
		}
		defer h.Close()
		hosted = append(hosted, h)
		runtimes = append(runtimes, h.Runtime)
	}

	mgr, err := multigame.NewManager(ids.GameID(gcfg.DefaultGameID), runtimes, filepath.Join(*dataDir, "games_state.json"), logger)
	if err != nil {
		logger.Fatal("game manager", zap.Error(err))
	}
	defer mgr.Close()

	go func() {
		if err := mgr.RunAll(ctx); err != nil {
			logger.Error("games stopped", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(mgr, hosted, mirror))
	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
		_ = mgr.FlushState(ctx2)
	}()

	logger.Info("listening", zap.String("addr", *addr), zap.Int("games", len(runtimes)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("ListenAndServe", zap.Error(err))
	}
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
