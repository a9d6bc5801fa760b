package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Predicate:     unsetString,
		BufferSeconds: unsetInt,
		OutputFolder:  unsetString,
		NATSURL:       unsetString,
		MetricsPort:   unsetInt,
		MonitorPort:   unsetInt,
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr bool
	}{
		{"defaults", nil, false},
		{"version skips validation", func(c *CLIConfig) {
			c.ShowVersion = true
			c.LogLevel = "bogus"
		}, false},
		{"bad log level", func(c *CLIConfig) { c.LogLevel = "loud" }, true},
		{"bad log format", func(c *CLIConfig) { c.LogFormat = "xml" }, true},
		{"bad buflen", func(c *CLIConfig) { c.BufferSeconds = 0 }, true},
		{"bad metrics port", func(c *CLIConfig) { c.MetricsPort = 70000 }, true},
		{"bad monitor port", func(c *CLIConfig) { c.MonitorPort = -2 }, true},
		{"missing config file", func(c *CLIConfig) {
			c.ConfigPath = filepath.Join("testdata", "absent.json")
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCLIConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := validateFlags(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCLIOverridesConfig(t *testing.T) {
	cli := defaultCLIConfig()
	cli.Predicate = "type='EEG'"
	cli.BufferSeconds = 5
	cli.SplitMetadata = true
	cli.OutputFolder = t.TempDir()
	cli.NATSURL = "nats://broker:4222"
	cli.MetricsPort = 0
	cli.MonitorPort = 9001
	cli.LogLevel = "debug"

	cfg, err := loadConfiguration(cli)
	require.NoError(t, err)

	assert.Equal(t, "type='EEG'", cfg.Recorder.Predicate)
	assert.Equal(t, 5, cfg.Recorder.BufferSeconds)
	assert.True(t, cfg.Recorder.SplitMetadata)
	assert.Equal(t, cli.OutputFolder, cfg.Recorder.OutputFolder)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.False(t, cfg.Metrics.Enabled, "metrics port 0 disables the server")
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 9001, cfg.Monitor.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("LSL2LOGS_TEST_STR", "value")
	assert.Equal(t, "value", getEnv("LSL2LOGS_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("LSL2LOGS_TEST_MISSING", "fallback"))

	t.Setenv("LSL2LOGS_TEST_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("LSL2LOGS_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("LSL2LOGS_TEST_MISSING", time.Second))

	t.Setenv("LSL2LOGS_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("LSL2LOGS_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("LSL2LOGS_TEST_MISSING", 7))
}
