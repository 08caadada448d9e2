package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/beacon/pkg/config"
	"github.com/cuemby/beacon/pkg/events"
	"github.com/cuemby/beacon/pkg/log"
	"github.com/cuemby/beacon/pkg/obsmetrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the beacon agent: collect, evaluate alerts, and serve the scrape endpoint",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildAgent(ctx, cfg)
	if err != nil {
		obsmetrics.RegisterComponent("runtime", false, err.Error())
		return fmt.Errorf("failed to build agent: %w", err)
	}

	obsmetrics.SetVersion(Version)
	obsmetrics.RegisterComponent("runtime", true, a.runtime.Name())
	obsmetrics.RegisterComponent("timeseries", true, cfg.Storage.Backend)
	obsmetrics.RegisterComponent("eventbus", true, "")

	logger := log.WithComponent("beacond")

	a.bus.Start()
	defer a.bus.Stop()

	a.lifecycle.Attach(a.bus)

	dispatcherSub := a.bus.Subscribe(func(ctx context.Context, e *events.Event) error {
		a.dispatcher.Dispatch(ctx, e)
		return nil
	}, nil, nil, 0)
	defer a.bus.Unsubscribe(dispatcherSub)

	if cfg.Storage.Retention.CleanupIntervalHours > 0 {
		period := time.Duration(cfg.Storage.Retention.CleanupIntervalHours * float64(time.Hour))
		if err := a.retention.StartAuto(period); err != nil {
			logger.Warn().Err(err).Msg("failed to start retention auto-sweep")
		}
		defer a.retention.StopAuto()
	}

	tracker := newTargetTracker()
	go watchRuntimeEvents(ctx, a.runtime, tracker, a.bus)

	collectionInterval := cfg.Global.DefaultCollectionInterval.Duration
	if collectionInterval <= 0 {
		collectionInterval = 15 * time.Second
	}
	go a.runCollectionLoop(ctx, collectionInterval, tracker)

	alertInterval := cfg.Alerts.EvaluationInterval.Duration
	if alertInterval <= 0 {
		alertInterval = 15 * time.Second
	}
	go a.runAlertLoop(ctx, alertInterval)

	go a.health.run(ctx, collectionInterval, tracker)

	var httpServer *http.Server
	if cfg.Prometheus.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Prometheus.Path, a.scrapeHandler())
		mux.Handle("/internal/metrics", obsmetrics.Handler())
		mux.Handle("/healthz", obsmetrics.HealthHandler())
		mux.Handle("/readyz", obsmetrics.ReadyHandler())
		mux.Handle("/livez", obsmetrics.LivenessHandler())
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Prometheus.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Int("port", cfg.Prometheus.Port).Str("path", cfg.Prometheus.Path).Msg("scrape endpoint listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("scrape endpoint failed")
			}
		}()
	}

	logger.Info().Str("runtime", a.runtime.Name()).Msg("beacond is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")
	cancel()
	obsmetrics.UpdateComponent("eventbus", false, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("scrape endpoint did not shut down cleanly")
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close time-series store")
	}

	logger.Info().Msg("shutdown complete")
	if sig == syscall.SIGINT {
		os.Exit(130)
	}
	return nil
}

