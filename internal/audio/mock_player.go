package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// MockBackend implements Backend without touching hardware. Nothing is read
// from players until Pump is called, which makes playback deterministic in
// tests.
type MockBackend struct {
	mu         sync.Mutex
	sampleRate int
	players    []*MockPlayer
	suspended  bool
	closed     bool

	// PlayErr, when set, is reported by players created afterwards once
	// they are started.
	PlayErr error

	// Test helpers
	PlayersCreated int
	PlayersClosed  int
	SuspendCount   int
	ResumeCount    int
}

// NewMockBackend creates a mock backend at the given sample rate.
func NewMockBackend(sampleRate int) *MockBackend {
	log.Debug("Creating mock audio backend", "sample_rate", sampleRate)
	return &MockBackend{sampleRate: sampleRate}
}

// MockOpener returns an Opener that always yields b.
func MockOpener(b *MockBackend) Opener {
	return func(BackendConfig) (Backend, error) {
		return b, nil
	}
}

// NewPlayer creates a paused mock player.
func (b *MockBackend) NewPlayer(r io.Reader) (Player, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}

	p := &MockPlayer{backend: b, reader: r, volume: 1.0, playErr: b.PlayErr}
	b.players = append(b.players, p)
	b.PlayersCreated++
	return p, nil
}

// Suspend stops Pump from reading.
func (b *MockBackend) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = true
	b.SuspendCount++
	return nil
}

// Resume lets Pump read again.
func (b *MockBackend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = false
	b.ResumeCount++
	return nil
}

// Suspended reports whether the backend is suspended.
func (b *MockBackend) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended
}

// Err always returns nil.
func (b *MockBackend) Err() error { return nil }

// SampleRate returns the configured sample rate.
func (b *MockBackend) SampleRate() int { return b.sampleRate }

// Close closes every player.
func (b *MockBackend) Close() error {
	b.mu.Lock()
	players := b.players
	b.players = nil
	b.closed = true
	b.mu.Unlock()

	for _, p := range players {
		_ = p.Close()
	}
	return nil
}

// Players returns the players that are still open.
func (b *MockBackend) Players() []*MockPlayer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*MockPlayer, len(b.players))
	copy(out, b.players)
	return out
}

// Pump reads frames from every playing player and returns the samples read
// from the first one, decoded back to float64 stereo frames.
func (b *MockBackend) Pump(frames int) [][2]float64 {
	b.mu.Lock()
	if b.suspended {
		b.mu.Unlock()
		return nil
	}
	players := make([]*MockPlayer, len(b.players))
	copy(players, b.players)
	b.mu.Unlock()

	var first [][2]float64
	for _, p := range players {
		if !p.IsPlaying() {
			continue
		}
		out := p.read(frames)
		if first == nil {
			first = out
		}
	}
	return first
}

func (b *MockBackend) remove(p *MockPlayer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, q := range b.players {
		if q == p {
			b.players = append(b.players[:i], b.players[i+1:]...)
			b.PlayersClosed++
			return
		}
	}
}

// MockPlayer implements Player for MockBackend.
type MockPlayer struct {
	backend *MockBackend
	reader  io.Reader
	playErr error

	mu      sync.Mutex
	playing bool
	closed  bool
	volume  float64
	err     error

	// Test helpers
	PlayCount  int
	FramesRead int
}

// Play starts the player.
func (p *MockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.PlayCount++
	if p.playErr != nil {
		p.err = p.playErr
		return
	}
	p.playing = true
}

// Pause pauses the player.
func (p *MockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

// IsPlaying reports whether the player is playing.
func (p *MockPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetVolume sets the player volume.
func (p *MockPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

// Err returns the simulated playback error.
func (p *MockPlayer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close closes the player and detaches it from the backend.
func (p *MockPlayer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.playing = false
	p.mu.Unlock()

	p.backend.remove(p)
	return nil
}

// Closed reports whether Close was called.
func (p *MockPlayer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *MockPlayer) read(frames int) [][2]float64 {
	buf := make([]byte, frames*BytesPerFrame)
	n, err := io.ReadFull(p.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
	}

	got := n / BytesPerFrame
	p.mu.Lock()
	p.FramesRead += got
	p.mu.Unlock()

	out := make([][2]float64, got)
	for i := range out {
		off := i * BytesPerFrame
		out[i][0] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
		out[i][1] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:])))
	}
	return out
}
