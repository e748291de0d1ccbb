// Package config provides configuration loading and validation for the capture decoder.
// It handles YAML-based configuration with per-section validation and supplies defaults
// so the command-line tool runs without a configuration file.
package config
