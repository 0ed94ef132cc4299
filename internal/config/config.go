// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// Config represents the complete application configuration. The API key is
// deliberately absent: it is read from the environment only and never stored
// on disk.
type Config struct {
	Session SessionConfig `yaml:"session"`
	Video   VideoConfig   `yaml:"video"`
	Capture CaptureConfig `yaml:"capture"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SessionConfig configures the live conversation.
type SessionConfig struct {
	Model             string `yaml:"model"`
	Voice             string `yaml:"voice"`
	SystemInstruction string `yaml:"system_instruction"`
}

// VideoConfig configures camera capture and frame transmission.
type VideoConfig struct {
	Enabled    bool   `yaml:"enabled"`
	IntervalMs int    `yaml:"interval_ms"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FrameRate  int    `yaml:"frame_rate"`
	Device     string `yaml:"device"`
}

// CaptureConfig configures the capture toolchain.
type CaptureConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Model:             live.DefaultModel,
			Voice:             live.DefaultVoice,
			SystemInstruction: live.DefaultSystemInstruction,
		},
		Video: VideoConfig{
			Enabled:    true,
			IntervalMs: 1000,
			Width:      1280,
			Height:     720,
			FrameRate:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9091",
		},
	}
}

// Load reads and parses the configuration file, filling unset fields from
// the defaults.
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

// VideoInterval returns the frame interval as a duration, zero when video is
// disabled.
func (c *Config) VideoInterval() time.Duration {
	if !c.Video.Enabled {
		return 0
	}
	return time.Duration(c.Video.IntervalMs) * time.Millisecond
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if err := c.Video.Validate(); err != nil {
		return fmt.Errorf("video config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	return nil
}

// Validate checks the session section.
func (s *SessionConfig) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}

// Validate checks the video section.
func (v *VideoConfig) Validate() error {
	if !v.Enabled {
		return nil
	}
	if v.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", v.IntervalMs)
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", v.Width, v.Height)
	}
	if v.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", v.FrameRate)
	}
	return nil
}

// Validate checks the logging section.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", l.Format)
	}
	return nil
}

// Validate checks the metrics section.
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address must be set when metrics are enabled")
	}
	return nil
}
