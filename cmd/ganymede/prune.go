package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/admission/maintenance"
	"mercator-hq/ganymede/pkg/admission/tier"
	"mercator-hq/ganymede/pkg/config"
)

var pruneFlags struct {
	once bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune stale quota records",
	Long: `Remove quota records whose owners have been idle long enough that a
fresh record would behave identically. A bucket untouched for the full
refill horizon of every tier has refilled to capacity, so deleting its
record never changes a decision.

With --once a single pruning pass runs and the command exits. Without
it the command runs as a daemon on the cron schedule from gate.prune,
reloading tier definitions on change when tiers.watch is enabled.

Examples:
  # Single pruning pass
  ganymede prune --once

  # Scheduled daemon (requires gate.prune.enabled)
  ganymede prune`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneFlags.once, "once", false, "run one pruning pass and exit")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	registry, err := tier.NewRegistry(ctx, tier.NewFileSource(cfg.Tiers.Path), logger)
	if err != nil {
		return fmt.Errorf("failed to load tiers: %w", err)
	}

	pruner := maintenance.NewPruner(st, registry, &maintenance.Config{
		Schedule: cfg.Gate.Prune.Schedule,
		MinAge:   24 * time.Hour,
	})

	if pruneFlags.once {
		deleted, err := pruner.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Pruned %d stale quota records\n", deleted)
		return nil
	}

	if !cfg.Gate.Prune.Enabled {
		return fmt.Errorf("scheduled pruning is disabled; enable gate.prune or pass --once")
	}

	if cfg.Tiers.Watch {
		watcher := tier.NewWatcher(cfg.Tiers.Path, registry, logger, cfg.Tiers.Debounce)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("tier watcher exited", "error", err)
			}
		}()
	}

	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		srv := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := pruner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start prune scheduler: %w", err)
	}
	defer pruner.Stop()

	if next := pruner.NextPruning(); next != nil {
		fmt.Printf("✓ Prune scheduler running (next pruning %s)\n", next.Format(time.RFC3339))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println("\nShutting down")
	return nil
}
