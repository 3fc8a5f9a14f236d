package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"orbitcmd/internal/api"
	"orbitcmd/internal/metrics"
	"orbitcmd/pkg/burn"
	"orbitcmd/pkg/config"
	"orbitcmd/pkg/db"
	"orbitcmd/pkg/db/maintenance"
	"orbitcmd/pkg/engine"
	"orbitcmd/pkg/feed"
	"orbitcmd/pkg/logging"
	"orbitcmd/pkg/probe"
	"orbitcmd/pkg/store"
	"orbitcmd/pkg/track"
	"orbitcmd/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/orbitcmd.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/orbitcmd.yaml")
		return
	}

	if err := run(context.Background(), "configs/orbitcmd.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A .env next to the binary can override blank config fields.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("OrbitCmd started", "version", version.Version, "backend", appCfg.Store.Backend)

	st, closeStore, err := initStore(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := st.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to bootstrap telemetry record: %w", err)
	}
	if created {
		slog.Info("Telemetry record created with default orbit")
	} else {
		slog.Info("Telemetry record restored from previous run")
	}

	maintenance.Run(ctx, st, time.Duration(appCfg.History.Retention))

	ring := feed.New(appCfg.Feed.Capacity, appCfg.Feed.MirrorPath)
	if err := ring.Load(); err != nil {
		slog.Warn("Could not restore angle feed from mirror", "error", err)
	}

	eng := engine.New(st, ring, time.Duration(appCfg.Engine.TickInterval))
	go eng.Run(ctx)

	// Startup Probes
	probes := []probe.Probe{
		probe.StoreCheck(st),
		probe.HistoryCheck(st),
		probe.MirrorCheck(appCfg.Feed.MirrorPath),
		probe.AuditCheck(appCfg.Log.Audit.Path),
	}
	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, st, ring)
}

func initStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		dbConn, err := db.Init(cfg.Store.DB.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		st := store.NewSQLiteStore(dbConn)
		return st, func() { dbConn.Close() }, nil
	case "file":
		st := store.NewFileStore(cfg.Store.File.Path, cfg.Store.File.CommandsPath)
		return st, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runServer(ctx context.Context, cfg *config.Config, st store.Store, ring *feed.Ring) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	var limiter *api.IPRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewIPRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)
	}

	sched := burn.NewScheduler(st)
	streams := api.NewStreamLimiter(cfg.Stream.MaxClientsPerIP)

	srv := api.NewServer(cfg.Server.Address,
		api.NewCommandHandler(sched, limiter, cfg.Server.TrustProxy),
		api.NewTelemetryHandler(st),
		api.NewFeedHandler(ring, streams, time.Duration(cfg.Stream.Keepalive), cfg.Server.TrustProxy),
		api.NewWSHandler(ring, streams, cfg.Server.TrustProxy),
		api.NewCommandsHandler(st, cfg.History.Limit),
		api.NewTrackHandler(track.NewBuilder(ring, cfg.Track.Points)),
		shutdownFunc,
	)

	srv.Handler = metrics.Middleware(loggingMiddleware(srv.Handler))
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
