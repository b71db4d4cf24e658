package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/obskit/vitals/internal/app"
	"github.com/obskit/vitals/internal/config"
	"github.com/obskit/vitals/internal/version"
)

func main() {
	cmd := &cli.Command{
		Name:    "vitals",
		Usage:   "In-process observability service: metrics, events, health and profiling over HTTP",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	debug := cmd.Bool("debug")

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting vitals", "version", version.String(), "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer application.Close()

	// Setup graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if application.Watcher != nil {
		application.Watcher.Run(shutdownCtx)
		defer application.Watcher.Wait()
	}

	if application.Profiler != nil {
		application.Profiler.Start()
		defer application.Profiler.Stop()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if application.OTEL != nil {
		wg.Go(func() {
			if err := application.OTEL.Start(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("otel exporter: %w", err)
			}
		})
		defer application.OTEL.Stop()
	}

	wg.Go(func() {
		if err := application.Server.Start(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("server: %w", err)
		}
	})

	// Wait for shutdown or component failure
	select {
	case err := <-errChan:
		slog.Error("component error", "error", err)
		stop()
	case <-shutdownCtx.Done():
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}
