package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/defender"
	"github.com/cbs4385/Orc-sub003/internal/scenario"
	"github.com/cbs4385/Orc-sub003/internal/sim"
)

const (
	ConfigPath   = "config/marchsim.yaml"
	ScenarioPath = "config/scenario.yaml"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("MARCHSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	defender.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("marchsim starting",
		"log_level", cfg.LogLevel,
		"tick_ms", cfg.TickMS,
		"grid", fmt.Sprintf("%dx%d", cfg.Nav.Cols, cfg.Nav.Rows))

	scPath := ScenarioPath
	if p := os.Getenv("MARCHSIM_SCENARIO"); p != "" {
		scPath = p
	}
	sc, err := scenario.Load(scPath)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	engine := sim.New(cfg)
	engine.LoadScenario(sc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("marchsim stopped", "ticks", engine.Tick())
	return nil
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
