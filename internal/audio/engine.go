package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"github.com/dgnsrekt/soundboard/internal/spatial"
)

// ErrEngineClosed is returned once Close has been called.
var ErrEngineClosed = errors.New("audio engine is closed")

// Engine mixes signal chains into a single Backend player.
//
// Every chain added with Add is streamed while the engine lock is held, so
// code that mutates a live chain (gain, panner position, stop) must hold the
// lock too. Lock and Unlock expose it.
type Engine struct {
	mu       sync.Mutex
	backend  Backend
	player   Player
	format   beep.Format
	mixer    *beep.Mixer
	listener spatial.Listener
	buf      [][2]float64
	closed   bool

	// frames rendered so far
	clock     atomic.Int64
	suspended atomic.Bool
}

// NewEngine starts mixing into a new player on backend.
func NewEngine(backend Backend) (*Engine, error) {
	if backend == nil {
		return nil, ErrBackendUnavailable
	}

	e := &Engine{
		backend: backend,
		format: beep.Format{
			SampleRate:  beep.SampleRate(backend.SampleRate()),
			NumChannels: Channels,
			Precision:   4,
		},
		mixer:    &beep.Mixer{},
		listener: spatial.DefaultListener(),
	}

	player, err := backend.NewPlayer(e)
	if err != nil {
		return nil, fmt.Errorf("failed to create output player: %w", err)
	}
	player.Play()
	if err := player.Err(); err != nil {
		_ = player.Close()
		return nil, fmt.Errorf("output player failed to start: %w", err)
	}
	e.player = player

	log.Debug("Audio engine started", "sample_rate", e.format.SampleRate)
	return e, nil
}

// Read renders mixed audio as interleaved float32 little endian stereo.
// Silence is produced when nothing is playing so the device never starves.
func (e *Engine) Read(p []byte) (int, error) {
	frames := len(p) / BytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0, ErrEngineClosed
	}
	if cap(e.buf) < frames {
		e.buf = make([][2]float64, frames)
	}
	buf := e.buf[:frames]
	for i := range buf {
		buf[i] = [2]float64{}
	}
	n, _ := e.mixer.Stream(buf)
	for i := n; i < frames; i++ {
		buf[i] = [2]float64{}
	}
	e.mu.Unlock()

	for i, frame := range buf {
		off := i * BytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(clampSample(frame[0]))))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(float32(clampSample(frame[1]))))
	}
	e.clock.Add(int64(frames))

	return frames * BytesPerFrame, nil
}

func clampSample(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// Lock acquires the streaming lock.
func (e *Engine) Lock() { e.mu.Lock() }

// Unlock releases the streaming lock.
func (e *Engine) Unlock() { e.mu.Unlock() }

// Add starts streaming s immediately.
func (e *Engine) Add(s ...beep.Streamer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mixer.Add(s...)
}

// Active returns the number of chains in the mixer.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixer.Len()
}

// Format returns the mixing format.
func (e *Engine) Format() beep.Format { return e.format }

// SampleRate returns the mixing sample rate.
func (e *Engine) SampleRate() beep.SampleRate { return e.format.SampleRate }

// Now returns the engine clock: how much audio has been rendered.
func (e *Engine) Now() time.Duration {
	return e.format.SampleRate.D(int(e.clock.Load()))
}

// Listener returns the applied listener state.
func (e *Engine) Listener() spatial.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

// SetListener applies l to every positional chain from the next block on.
func (e *Engine) SetListener(l spatial.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// ListenerSource returns a function reading the applied listener. It does
// not lock and is meant for streamers running inside the mixer.
func (e *Engine) ListenerSource() func() spatial.Listener {
	return func() spatial.Listener { return e.listener }
}

// Backend returns the backend the engine plays on.
func (e *Engine) Backend() Backend { return e.backend }

// Suspend suspends the device.
func (e *Engine) Suspend() error {
	if err := e.backend.Suspend(); err != nil {
		return err
	}
	e.suspended.Store(true)
	return nil
}

// Suspended reports whether Suspend was called without a Resume since.
func (e *Engine) Suspended() bool { return e.suspended.Load() }

// Resume resumes the device and restarts the output player if it stopped.
func (e *Engine) Resume() error {
	if err := e.backend.Resume(); err != nil {
		return fmt.Errorf("failed to resume backend: %w", err)
	}
	e.suspended.Store(false)
	if !e.player.IsPlaying() {
		e.player.Play()
	}
	return e.player.Err()
}

// Close stops mixing and releases the backend.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mixer.Clear()
	e.mu.Unlock()

	_ = e.player.Close()
	return e.backend.Close()
}
