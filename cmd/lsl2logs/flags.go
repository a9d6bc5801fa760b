package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	Predicate       string
	BufferSeconds   int
	SplitMetadata   bool
	OutputFolder    string
	NATSURL         string
	MetricsPort     int
	MonitorPort     int
	LogLevel        string
	LogFormat       string
	Verbose         bool
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
}

// flagSentinel marks int/string flags the user did not set, so defaults do
// not override the config file layer.
const (
	unsetString = "\x00unset"
	unsetInt    = -1
)

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("LSL2LOGS_CONFIG", ""),
		"Path to JSON configuration file, optional (env: LSL2LOGS_CONFIG)")

	flag.StringVar(&cfg.Predicate, "pred", unsetString,
		`Predicate to filter streams, e.g. "type='EEG'" or `+
			`"(type='EEG' and name='BioSemi') or type='HR'". `+
			`Case-sensitive. Empty records all streams (env: LSL2LOGS_PRED)`)

	flag.IntVar(&cfg.BufferSeconds, "buflen", unsetInt,
		"Inlet buffer retention in seconds, x100 samples when the stream has "+
			"no nominal rate. Each new session first drains buffered data "+
			"(env: LSL2LOGS_BUFLEN)")

	flag.BoolVar(&cfg.SplitMetadata, "split-metadata", false,
		"Write two CSV files per session, stream metadata separated from "+
			"data rows (env: LSL2LOGS_SPLIT_METADATA)")
	flag.BoolVar(&cfg.SplitMetadata, "s", false,
		"Shorthand for -split-metadata")

	flag.StringVar(&cfg.OutputFolder, "output-folder", unsetString,
		"Folder for CSV files, must exist (env: LSL2LOGS_OUTPUT_FOLDER)")
	flag.StringVar(&cfg.OutputFolder, "of", unsetString,
		"Shorthand for -output-folder")

	flag.StringVar(&cfg.NATSURL, "nats-url", unsetString,
		"NATS broker relaying stream traffic (env: LSL2LOGS_NATS_URL)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port", unsetInt,
		"Prometheus metrics port, 0 to disable (env: LSL2LOGS_METRICS_PORT)")

	flag.IntVar(&cfg.MonitorPort, "monitor-port", unsetInt,
		"WebSocket live-tail port, 0 to disable (env: LSL2LOGS_MONITOR_PORT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LSL2LOGS_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: LSL2LOGS_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LSL2LOGS_LOG_FORMAT", ""),
		"Log format: json, text (env: LSL2LOGS_LOG_FORMAT)")

	flag.BoolVar(&cfg.Verbose, "verbose", false,
		"Debug-level logging, echoes every written row")
	flag.BoolVar(&cfg.Verbose, "v", false,
		"Shorthand for -verbose")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("LSL2LOGS_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: LSL2LOGS_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printHelp

	flag.Parse()

	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if cfg.LogFormat != "" && !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.BufferSeconds != unsetInt && cfg.BufferSeconds <= 0 {
		return fmt.Errorf("invalid buffer length: %d", cfg.BufferSeconds)
	}

	for name, port := range map[string]int{
		"metrics-port": cfg.MetricsPort,
		"monitor-port": cfg.MonitorPort,
	} {
		if port != unsetInt && (port < 0 || port > 65535) {
			return fmt.Errorf("invalid %s: %d", name, port)
		}
	}

	return nil
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Record streamed samples to timestamped CSV files

Usage:
  %s [flags]

Streams are discovered continuously; a stream that vanishes and comes
back under a new uid is picked up again automatically. Each run is one
recording session with its own data_<timestamp>.csv (and, with
-split-metadata, metadata_<timestamp>.csv) under the output folder.
The folder must already exist.

Flags:
`, appName, appName)
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # record every stream to ./logs
  %s

  # only EEG streams, split metadata out, custom folder
  %s -pred "type='EEG'" -s -of /data/session42

  # verbose run against a remote broker
  %s -v -nats-url nats://broker:4222
`, appName, appName, appName)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
