package sound

import (
	"fmt"
	"time"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/source"
	"github.com/dgnsrekt/soundboard/internal/unlock"
)

// Config holds configuration for a Session.
type Config struct {
	// SampleRate of the output device and of every cached buffer (44100 or 48000)
	SampleRate int

	// BufferSize is the device latency; 0 picks a platform default
	BufferSize time.Duration

	// ResampleQuality is the beep resampler quality (1-64)
	ResampleQuality int

	// Unlock selects when the keep-alive shim runs ("auto", "always" or "never")
	Unlock string

	// FetchTimeout bounds a single remote fetch
	FetchTimeout time.Duration

	// FetchRequestsPerSecond throttles remote fetches; 0 disables throttling
	FetchRequestsPerSecond float64

	// FetchMaxBytes caps the size of a remote source; 0 disables the cap
	FetchMaxBytes int64
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	backend := audio.DefaultBackendConfig()
	fetch := source.DefaultFetcherConfig()
	return Config{
		SampleRate:             backend.SampleRate,
		BufferSize:             backend.BufferSize,
		ResampleQuality:        4,
		Unlock:                 string(unlock.PolicyAuto),
		FetchTimeout:           fetch.Timeout,
		FetchRequestsPerSecond: fetch.RequestsPerSecond,
		FetchMaxBytes:          fetch.MaxBytes,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.backend().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ResampleQuality < 1 || c.ResampleQuality > 64 {
		return fmt.Errorf("%w: resample quality must be between 1 and 64, got %d", ErrInvalidConfig, c.ResampleQuality)
	}
	if _, err := unlock.ParsePolicy(c.Unlock); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.FetchTimeout < 0 || c.FetchRequestsPerSecond < 0 || c.FetchMaxBytes < 0 {
		return fmt.Errorf("%w: fetch limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) backend() audio.BackendConfig {
	return audio.BackendConfig{SampleRate: c.SampleRate, BufferSize: c.BufferSize}
}

func (c Config) fetcher() source.FetcherConfig {
	return source.FetcherConfig{
		Timeout:           c.FetchTimeout,
		RequestsPerSecond: c.FetchRequestsPerSecond,
		MaxBytes:          c.FetchMaxBytes,
	}
}

func (c Config) policy() unlock.Policy {
	p, _ := unlock.ParsePolicy(c.Unlock)
	return p
}
