//go:build (linux && cgo) || windows || darwin

package audio

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoContext     *oto.Context
	otoContextRate int
	otoContextMu   sync.Mutex
)

// OtoBackend implements Backend on top of oto.
type OtoBackend struct {
	context    *oto.Context
	sampleRate int

	mu      sync.Mutex
	players []*otoPlayer
	closed  bool
}

// OpenOto creates (or reuses) the process oto context. It waits for the
// device to become ready, with a longer timeout on darwin where CoreAudio is
// slow to start.
func OpenOto(cfg BackendConfig) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	otoContextMu.Lock()
	defer otoContextMu.Unlock()

	if otoContext != nil {
		if otoContextRate != cfg.SampleRate {
			return nil, fmt.Errorf("oto context already running at %d Hz", otoContextRate)
		}
		return &OtoBackend{context: otoContext, sampleRate: otoContextRate}, nil
	}

	platform := DetectPlatform()
	bufferSize := cfg.BufferSize
	if bufferSize == 0 {
		bufferSize = time.Millisecond * time.Duration(platform.BufferSizeMillis())
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	log.Debug("Initializing oto context",
		"sample_rate", op.SampleRate,
		"buffer_size", op.BufferSize,
		"platform", platform.OS,
		"subsystem", platform.AudioSubsystem)

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	readyTimeout := 5 * time.Second
	if platform.OS == PlatformDarwin {
		readyTimeout = 10 * time.Second
	}

	select {
	case <-ready:
	case <-time.After(readyTimeout):
		return nil, fmt.Errorf("oto context not ready after %v", readyTimeout)
	}

	otoContext = ctx
	otoContextRate = cfg.SampleRate
	log.Debug("Oto context ready")

	return &OtoBackend{context: ctx, sampleRate: cfg.SampleRate}, nil
}

// NewPlayer creates a paused oto player reading from r.
func (b *OtoBackend) NewPlayer(r io.Reader) (Player, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	p := &otoPlayer{player: b.context.NewPlayer(r), backend: b}
	b.players = append(b.players, p)
	return p, nil
}

// Suspend suspends the device.
func (b *OtoBackend) Suspend() error {
	return b.context.Suspend()
}

// Resume resumes the device.
func (b *OtoBackend) Resume() error {
	return b.context.Resume()
}

// Err returns the context error.
func (b *OtoBackend) Err() error {
	return b.context.Err()
}

// SampleRate returns the context sample rate.
func (b *OtoBackend) SampleRate() int {
	return b.sampleRate
}

// Close closes every player created by this backend. The oto context itself
// cannot be closed in v3 and stays alive for the process.
func (b *OtoBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	players := b.players
	b.players = nil
	b.mu.Unlock()

	var firstErr error
	for _, p := range players {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *OtoBackend) remove(p *otoPlayer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.players = slices.DeleteFunc(b.players, func(q *otoPlayer) bool { return q == p })
}

// otoPlayer adapts *oto.Player to Player.
type otoPlayer struct {
	player    *oto.Player
	backend   *OtoBackend
	closeOnce sync.Once
	closeErr  error
}

func (p *otoPlayer) Play()                    { p.player.Play() }
func (p *otoPlayer) Pause()                   { p.player.Pause() }
func (p *otoPlayer) IsPlaying() bool          { return p.player.IsPlaying() }
func (p *otoPlayer) SetVolume(volume float64) { p.player.SetVolume(volume) }
func (p *otoPlayer) Err() error               { return p.player.Err() }

func (p *otoPlayer) Close() error {
	p.closeOnce.Do(func() {
		p.player.Pause()
		p.closeErr = p.player.Close()
		p.backend.remove(p)
	})
	return p.closeErr
}
