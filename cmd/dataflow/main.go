// If you are AI: This is the main entrypoint for the dataflow daemon.
// It handles configuration loading, block startup, HTTP services, and graceful shutdown.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"dataflow/internal/config"
	"dataflow/internal/core/flow"
	"dataflow/internal/core/pool"
	"dataflow/internal/observability"
	"dataflow/internal/server"
	"dataflow/internal/svc/api"
	"dataflow/internal/svc/blocks"
	"dataflow/internal/svc/health"
	"dataflow/internal/svc/wstap"

	"golang.org/x/sync/errgroup"
)

// main is the entrypoint for the dataflow daemon.
// It loads configuration, builds the block graph, serves HTTP and shuts down on signal.
func main() {
	// Parse command-line flags
	configPath := flag.String("config", "configs/dataflow.example.yaml", "Path to configuration file (.yaml or .toml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.InitLogger("dataflow", cfg.Log.Level, cfg.Log.JSON)

	// Build the port graph
	registry := flow.NewRegistry()
	buffers := pool.New(pool.DefaultMaxIdle)
	manager := blocks.NewManager(registry, buffers)
	if err := manager.Build(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to build blocks")
	}

	// Create server
	srv := server.New(cfg,
		health.New(manager.Ready),
		api.NewService(registry, manager),
		wstap.NewService(registry, cfg.Server.TapCapacity),
		observability.NewMetricsService(registry, buffers),
	)

	// Create shutdown handler
	shutdownHandler := server.NewShutdownHandler(srv, context.Background())
	g, ctx := errgroup.WithContext(shutdownHandler.Context())

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return manager.Run(ctx)
	})
	g.Go(func() error {
		return shutdownHandler.Wait(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}

	logger.Info().Msg("server shut down cleanly")
}
