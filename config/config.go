package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/UlloLabs/LSL2Logs/errors"
	"github.com/UlloLabs/LSL2Logs/lsl/natsbridge"
	"github.com/UlloLabs/LSL2Logs/monitor"
	"github.com/UlloLabs/LSL2Logs/recorder"
)

// EnvPrefix is the prefix of all environment overrides.
const EnvPrefix = "LSL2LOGS"

// LoggingConfig controls the log handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level"`

	// Format is "json" or "text".
	Format string `json:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled toggles the /metrics server.
	Enabled bool `json:"enabled"`

	// Port is the HTTP listen port.
	Port int `json:"port"`
}

// MonitorConfig controls the WebSocket live tail.
type MonitorConfig struct {
	// Enabled toggles the live-tail server.
	Enabled bool `json:"enabled"`

	monitor.Config
}

// Config is the complete application configuration.
type Config struct {
	Recorder recorder.Config   `json:"recorder"`
	NATS     natsbridge.Config `json:"nats"`
	Metrics  MetricsConfig     `json:"metrics"`
	Monitor  MonitorConfig     `json:"monitor"`
	Logging  LoggingConfig     `json:"logging"`
}

// Default returns the application defaults.
func Default() *Config {
	return &Config{
		Recorder: recorder.DefaultConfig(),
		NATS:     natsbridge.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Monitor: MonitorConfig{
			Enabled: false,
			Config:  monitor.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.Recorder.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("invalid metrics port %d", c.Metrics.Port))
	}
	if c.Monitor.Enabled {
		if err := c.Monitor.Config.Validate(); err != nil {
			return err
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	return nil
}

// Loader builds a Config from defaults, an optional file, and environment
// overrides.
type Loader struct {
	path      string
	envPrefix string
}

// NewLoader creates a loader. path may be empty to skip the file layer.
func NewLoader(path string) *Loader {
	return &Loader{
		path:      path,
		envPrefix: EnvPrefix,
	}
}

// Load merges the layers and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load",
				fmt.Sprintf("read config file %s", l.path))
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load",
				fmt.Sprintf("parse config file %s", l.path))
		}
	}

	l.applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies LSL2LOGS_* environment variables on top of the
// file layer.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(l.envPrefix + "_PRED"); val != "" {
		cfg.Recorder.Predicate = val
	}
	if val := os.Getenv(l.envPrefix + "_BUFLEN"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Recorder.BufferSeconds = n
		}
	}
	if val := os.Getenv(l.envPrefix + "_SPLIT_METADATA"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Recorder.SplitMetadata = b
		}
	}
	if val := os.Getenv(l.envPrefix + "_OUTPUT_FOLDER"); val != "" {
		cfg.Recorder.OutputFolder = val
	}
	if val := os.Getenv(l.envPrefix + "_LOOP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Recorder.LoopInterval = d
		}
	}
	if val := os.Getenv(l.envPrefix + "_NATS_URL"); val != "" {
		cfg.NATS.URL = val
	}
	if val := os.Getenv(l.envPrefix + "_METRICS_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = n
		}
	}
	if val := os.Getenv(l.envPrefix + "_MONITOR_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Monitor.Port = n
			cfg.Monitor.Enabled = true
		}
	}
	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}
