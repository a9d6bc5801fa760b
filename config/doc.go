// Package config loads the application configuration: defaults, then an
// optional JSON file, then LSL2LOGS_* environment overrides. The merged
// result is validated before use.
package config
