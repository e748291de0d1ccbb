package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Input formats understood by the capture reader
const (
	InputFormatHex = "hex"
	InputFormatRaw = "raw"
)

// Config represents the complete decoder configuration
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Decode    DecodeConfig    `yaml:"decode"`
	Reference ReferenceConfig `yaml:"reference"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InputConfig controls how captures are read into a byte stream
type InputConfig struct {
	Format      string `yaml:"format"`       // hex or raw
	TrimPadding bool   `yaml:"trim_padding"` // strip trailing 0x00 HID report padding
}

// DecodeConfig contains frame decoding parameters
type DecodeConfig struct {
	Workers   int `yaml:"workers"`
	FrameSize int `yaml:"frame_size"` // bytes per data frame
}

// ReferenceConfig describes the reference CSV export
type ReferenceConfig struct {
	Column     int  `yaml:"column"` // zero-based column holding the waveform value
	SkipHeader bool `yaml:"skip_header"`
}

// ExportConfig contains waveform export parameters
type ExportConfig struct {
	SampleRate int `yaml:"sample_rate"` // Hz
	BitDepth   int `yaml:"bit_depth"`
}

// MetricsConfig contains metrics output configuration
type MetricsConfig struct {
	Textfile  string `yaml:"textfile"` // empty disables metrics output
	Namespace string `yaml:"namespace"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Format:      InputFormatHex,
			TrimPadding: false,
		},
		Decode: DecodeConfig{
			Workers:   4,
			FrameSize: 20,
		},
		Reference: ReferenceConfig{
			Column:     3,
			SkipHeader: true,
		},
		Export: ExportConfig{
			SampleRate: 60,
			BitDepth:   8,
		},
		Metrics: MetricsConfig{
			Namespace: "poxymeter",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input config: %w", err)
	}

	if err := c.Decode.Validate(); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("reference config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates input configuration
func (i *InputConfig) Validate() error {
	if i.Format != InputFormatHex && i.Format != InputFormatRaw {
		return fmt.Errorf("format must be 'hex' or 'raw', got '%s'", i.Format)
	}
	return nil
}

// Validate validates decode configuration
func (d *DecodeConfig) Validate() error {
	if d.Workers < 1 || d.Workers > 256 {
		return fmt.Errorf("workers must be between 1 and 256, got %d", d.Workers)
	}

	// The delta encoding only exists for 20-byte frames
	if d.FrameSize != 20 {
		return fmt.Errorf("frame_size must be 20 bytes, got %d", d.FrameSize)
	}

	return nil
}

// Validate validates reference configuration
func (r *ReferenceConfig) Validate() error {
	if r.Column < 0 {
		return fmt.Errorf("column cannot be negative, got %d", r.Column)
	}
	return nil
}

// Validate validates export configuration
func (e *ExportConfig) Validate() error {
	if e.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", e.SampleRate)
	}

	if e.BitDepth != 8 && e.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 8 or 16, got %d", e.BitDepth)
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Textfile != "" && m.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty when textfile is set")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr, or a file path

	return nil
}
