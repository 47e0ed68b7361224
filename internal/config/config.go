// Package config loads soundboard settings: defaults, then the YAML config
// file read by viper, then SOUNDBOARD_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/soundboard/internal/spatial"
	"github.com/dgnsrekt/soundboard/pkg/sound"
)

// Config represents the soundboard configuration.
type Config struct {
	// Output device and playback settings
	Audio AudioConfig `yaml:"audio"`

	// Remote source settings
	Fetch FetchConfig `yaml:"fetch"`

	// Interactive board settings
	Board BoardConfig `yaml:"board"`
}

// AudioConfig contains output and playback settings.
type AudioConfig struct {
	SampleRate      int           `yaml:"sample_rate" env:"SOUNDBOARD_SAMPLE_RATE"`
	BufferSize      time.Duration `yaml:"buffer_size" env:"SOUNDBOARD_BUFFER_SIZE"`
	ResampleQuality int           `yaml:"resample_quality" env:"SOUNDBOARD_RESAMPLE_QUALITY"`
	Volume          float64       `yaml:"volume" env:"SOUNDBOARD_VOLUME"`
	Unlock          string        `yaml:"unlock" env:"SOUNDBOARD_UNLOCK"`
}

// FetchConfig contains settings for http(s) sources.
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout" env:"SOUNDBOARD_FETCH_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"SOUNDBOARD_FETCH_RPS"`
	MaxBytes          int64         `yaml:"max_bytes" env:"SOUNDBOARD_FETCH_MAX_BYTES"`
}

// BoardConfig contains settings for the interactive board.
type BoardConfig struct {
	Dir           string  `yaml:"dir" env:"SOUNDBOARD_DIR"`
	Spatial       bool    `yaml:"spatial" env:"SOUNDBOARD_SPATIAL"`
	Radius        float64 `yaml:"radius" env:"SOUNDBOARD_RADIUS"`
	Step          float64 `yaml:"step" env:"SOUNDBOARD_STEP"`
	DistanceModel string  `yaml:"distance_model" env:"SOUNDBOARD_DISTANCE_MODEL"`
	Mouse         bool    `yaml:"mouse" env:"SOUNDBOARD_MOUSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	s := sound.DefaultConfig()
	return Config{
		Audio: AudioConfig{
			SampleRate:      s.SampleRate,
			BufferSize:      s.BufferSize,
			ResampleQuality: s.ResampleQuality,
			Volume:          1.0,
			Unlock:          s.Unlock,
		},
		Fetch: FetchConfig{
			Timeout:           s.FetchTimeout,
			RequestsPerSecond: s.FetchRequestsPerSecond,
			MaxBytes:          s.FetchMaxBytes,
		},
		Board: BoardConfig{
			Dir:           ".",
			Spatial:       true,
			Radius:        3,
			Step:          0.5,
			DistanceModel: spatial.DistanceInverse.String(),
			Mouse:         false,
		},
	}
}

// ApplyEnv overrides cfg with any SOUNDBOARD_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Sound().Validate(); err != nil {
		return err
	}

	if c.Audio.Volume < 0.0 || c.Audio.Volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", c.Audio.Volume)
	}

	if _, err := spatial.ParseDistanceModel(c.Board.DistanceModel); err != nil {
		return err
	}
	if c.Board.Radius <= 0 {
		return fmt.Errorf("board radius must be positive, got %f", c.Board.Radius)
	}
	if c.Board.Step <= 0 {
		return fmt.Errorf("board step must be positive, got %f", c.Board.Step)
	}

	if dir, err := homedir.Expand(c.Board.Dir); err == nil {
		c.Board.Dir = dir
	}
	return nil
}

// Sound returns the session configuration.
func (c Config) Sound() sound.Config {
	return sound.Config{
		SampleRate:             c.Audio.SampleRate,
		BufferSize:             c.Audio.BufferSize,
		ResampleQuality:        c.Audio.ResampleQuality,
		Unlock:                 c.Audio.Unlock,
		FetchTimeout:           c.Fetch.Timeout,
		FetchRequestsPerSecond: c.Fetch.RequestsPerSecond,
		FetchMaxBytes:          c.Fetch.MaxBytes,
	}
}

// DistanceModel returns the parsed board distance model.
func (c Config) DistanceModel() spatial.DistanceModel {
	m, _ := spatial.ParseDistanceModel(c.Board.DistanceModel)
	return m
}
