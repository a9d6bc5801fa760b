// Package main implements the lsl2logs entry point: it records discovered
// data streams to timestamped CSV files until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/UlloLabs/LSL2Logs/config"
	apperrors "github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl/natsbridge"
	"github.com/UlloLabs/LSL2Logs/metric"
	"github.com/UlloLabs/LSL2Logs/monitor"
	"github.com/UlloLabs/LSL2Logs/recorder"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "lsl2logs"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	cfg, err := loadConfiguration(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	logger.Info("starting lsl2logs",
		"version", Version,
		"output_folder", cfg.Recorder.OutputFolder,
		"split_metadata", cfg.Recorder.SplitMetadata,
		"predicate", cfg.Recorder.Predicate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metric.NewRegistry()

	bridge, err := natsbridge.Dial(ctx, cfg.NATS,
		logger.With("component", "natsbridge"), registry)
	if err != nil {
		return err
	}
	defer bridge.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, "/metrics", registry)
		group.Go(metricsServer.Start)
		logger.Info("metrics available", "address", metricsServer.Address())
	}

	recorderOpts := []recorder.Option{
		recorder.WithLogger(logger.With("component", "recorder")),
		recorder.WithMetrics(registry),
	}

	var tail *monitor.Monitor
	if cfg.Monitor.Enabled {
		tail = monitor.New(cfg.Monitor.Config,
			logger.With("component", "monitor"), registry)
		if err := tail.Initialize(); err != nil {
			return err
		}
		if err := tail.Start(groupCtx); err != nil {
			return err
		}
		recorderOpts = append(recorderOpts, recorder.WithRowSink(tail))
	}

	rec := recorder.New(cfg.Recorder, bridge, recorderOpts...)
	if err := rec.Initialize(); err != nil {
		return err
	}

	group.Go(func() error {
		return rec.Run(groupCtx)
	})

	// unblock the metrics server when the recorder loop ends
	group.Go(func() error {
		<-groupCtx.Done()
		shutdown(metricsServer, tail, cliCfg.ShutdownTimeout)
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("recording stopped, bye")
	return nil
}

// loadConfiguration merges the config file with CLI overrides. Flags win
// over file values, which win over defaults.
func loadConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.NewLoader(cliCfg.ConfigPath).Load()
	if err != nil {
		return nil, err
	}

	if cliCfg.Predicate != unsetString {
		cfg.Recorder.Predicate = cliCfg.Predicate
	}
	if cliCfg.BufferSeconds != unsetInt {
		cfg.Recorder.BufferSeconds = cliCfg.BufferSeconds
	}
	if cliCfg.SplitMetadata {
		cfg.Recorder.SplitMetadata = true
	}
	if cliCfg.OutputFolder != unsetString {
		cfg.Recorder.OutputFolder = cliCfg.OutputFolder
	}
	if cliCfg.NATSURL != unsetString {
		cfg.NATS.URL = cliCfg.NATSURL
	}
	if cliCfg.MetricsPort != unsetInt {
		cfg.Metrics.Enabled = cliCfg.MetricsPort != 0
		if cliCfg.MetricsPort != 0 {
			cfg.Metrics.Port = cliCfg.MetricsPort
		}
	}
	if cliCfg.MonitorPort != unsetInt {
		cfg.Monitor.Enabled = cliCfg.MonitorPort != 0
		if cliCfg.MonitorPort != 0 {
			cfg.Monitor.Port = cliCfg.MonitorPort
		}
	}
	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// shutdown stops the auxiliary servers once the main loop has ended.
func shutdown(metricsServer *metric.Server, tail *monitor.Monitor, timeout time.Duration) {
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Warn("metrics server stop failed", "error", err)
		}
	}
	if tail != nil {
		// the monitor also stops itself on context cancellation
		if err := tail.Stop(timeout); err != nil && !errors.Is(err, apperrors.ErrNotStarted) {
			slog.Warn("monitor stop failed", "error", err)
		}
	}
}
