package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Errors returned by backends.
var (
	ErrBackendUnavailable = errors.New("audio backend is not available")
	ErrBackendClosed      = errors.New("audio backend is closed")
)

const (
	// Channels is fixed: every chain is mixed as stereo.
	Channels = 2

	// BytesPerFrame is one stereo frame of float32 little endian samples.
	BytesPerFrame = Channels * 4
)

// BackendConfig describes the output device to open.
type BackendConfig struct {
	SampleRate int           // 44100 or 48000 Hz
	BufferSize time.Duration // device latency; 0 picks a platform default
}

// DefaultBackendConfig returns the default output configuration.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		SampleRate: 44100,
		BufferSize: 0,
	}
}

// Validate checks the configuration.
func (c BackendConfig) Validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// Backend is a host output device. Players created from it read
// interleaved stereo float32 little endian frames.
type Backend interface {
	// NewPlayer creates a player pulling from r. The player starts paused.
	NewPlayer(r io.Reader) (Player, error)

	// Suspend pauses the whole device.
	Suspend() error

	// Resume resumes a suspended device.
	Resume() error

	// Err reports a device level failure, if any.
	Err() error

	// SampleRate returns the device sample rate.
	SampleRate() int

	// Close releases the device.
	Close() error
}

// Player is one stream on a Backend.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Err() error
	Close() error
}

// Opener creates a Backend. Sessions call it lazily on first use.
type Opener func(cfg BackendConfig) (Backend, error)
