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

	"github.com/getsentry/sentry-go"

	"github.com/routify-transit/routify/internal/admin"
	"github.com/routify-transit/routify/internal/config"
	"github.com/routify-transit/routify/internal/graph"
	"github.com/routify-transit/routify/internal/metrics"
	"github.com/routify-transit/routify/internal/planner"
	"github.com/routify-transit/routify/internal/report"
	"github.com/routify-transit/routify/internal/tcpserver"
)

const version = "1.0.0"

const (
	configRefreshInterval = time.Minute
	configMaxRetries      = 3
)

func main() {
	var (
		configFile = flag.String("config-file", "", "Path to a local YAML configuration file")
		configURL  = flag.String("config-url", "", "URL to a remote YAML configuration file")
	)
	flag.Parse()

	configAuthUser := os.Getenv("CONFIG_AUTH_USER")
	configAuthPass := os.Getenv("CONFIG_AUTH_PASS")

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	report.SetupSentry()
	defer report.FlushSentry()
	report.ConfigureScope("production", version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	client := config.NewPooledClient()

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadConfigFromFile(*configFile)
	} else {
		startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		cfg, err = config.LoadConfigFromURL(startupCtx, client, *configURL, configAuthUser, configAuthPass)
		startupCancel()
	}
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	g := graph.New()
	if err := ingestGraph(g, cfg, logger); err != nil {
		logger.Error("failed to ingest GTFS data", "error", err)
		os.Exit(1)
	}
	g.Finalize()
	logger.Info("graph loaded", "stations", g.StationCount())

	p := planner.New(g, logger)
	ms := metrics.NewMetricsService()

	configService := config.NewConfigService(logger, client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *configURL != "" {
		go configService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, configRefreshInterval, configMaxRetries)
	}

	tcpSrv := tcpserver.New(g, p, ms, logger)
	go func() {
		if err := tcpSrv.ListenAndServe(ctx, cfg.TCPAddr); err != nil {
			logger.Error("tcp server stopped", "error", err)
			report.ReportError(err, sentry.LevelFatal)
			cancel()
		}
	}()

	adminSrv := admin.New(g, version)
	httpSrv := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      adminSrv.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("starting admin server", "addr", cfg.AdminAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server stopped", "error", err)
			report.ReportError(err, sentry.LevelFatal)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("shutting down due to server failure")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}
}

// ingestGraph loads stops and stop times from disk into g. Both files are
// required; a missing or unreadable one is fatal at startup, while
// malformed rows inside them are logged and skipped by the ingesters.
func ingestGraph(g *graph.Graph, cfg *config.Config, logger *slog.Logger) error {
	stopsFile, err := os.Open(cfg.StopsFile)
	if err != nil {
		return fmt.Errorf("opening stops file: %w", err)
	}
	defer stopsFile.Close()
	if err := g.IngestStops(stopsFile, logger); err != nil {
		return fmt.Errorf("ingesting stops: %w", err)
	}

	stopTimesFile, err := os.Open(cfg.StopTimesFile)
	if err != nil {
		return fmt.Errorf("opening stop times file: %w", err)
	}
	defer stopTimesFile.Close()
	if err := g.IngestStopTimes(stopTimesFile, logger); err != nil {
		return fmt.Errorf("ingesting stop times: %w", err)
	}
	return nil
}
