// Package unlock keeps idle-suspending output devices awake.
//
// Sound servers such as PulseAudio and PipeWire suspend a sink after a few
// seconds of silence, and the first sound played afterwards loses its attack
// while the sink wakes up. The Shim holds a hidden player that loops silence
// so the sink never looks idle.
package unlock

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/soundboard/internal/audio"
)

// ErrShimClosed is returned by Resume after Close.
var ErrShimClosed = errors.New("unlock shim is closed")

// Policy selects when the shim is used.
type Policy string

const (
	PolicyAuto   Policy = "auto"
	PolicyAlways Policy = "always"
	PolicyNever  Policy = "never"
)

// ParsePolicy parses a policy name. The empty string is auto.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAuto:
		return PolicyAuto, nil
	case PolicyAlways:
		return PolicyAlways, nil
	case PolicyNever:
		return PolicyNever, nil
	default:
		return PolicyAuto, fmt.Errorf("unknown unlock policy %q (want auto, always or never)", s)
	}
}

// Required reports whether the shim should run under policy on platform.
func Required(policy Policy, platform *audio.PlatformInfo) bool {
	switch policy {
	case PolicyAlways:
		return true
	case PolicyNever:
		return false
	default:
		return platform != nil && platform.NeedsUnlock()
	}
}

// silence is an endless stream of zero frames.
type silence struct{}

func (silence) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// Shim owns the silent keep-alive player.
type Shim struct {
	backend audio.Backend

	mu      sync.Mutex
	player  audio.Player
	closed  bool
	started int
}

// New creates a shim for backend. No player exists until Resume.
func New(backend audio.Backend) *Shim {
	return &Shim{backend: backend}
}

// Resume starts the silent player, creating it if needed. A player that
// failed earlier is torn down and replaced.
func (s *Shim) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrShimClosed
	}

	if s.player != nil && s.player.Err() != nil {
		log.Debug("Recreating failed unlock player", "error", s.player.Err())
		s.teardown()
	}

	if s.player == nil {
		p, err := s.backend.NewPlayer(silence{})
		if err != nil {
			return fmt.Errorf("failed to create unlock player: %w", err)
		}
		p.SetVolume(0)
		s.player = p
	}

	if !s.player.IsPlaying() {
		s.player.Play()
		s.started++
	}
	if err := s.player.Err(); err != nil {
		s.teardown()
		return fmt.Errorf("unlock player failed: %w", err)
	}
	return nil
}

// Active reports whether the silent player is running.
func (s *Shim) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player != nil && s.player.IsPlaying()
}

// Starts returns how many times the player was started.
func (s *Shim) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Close stops the player. The shim cannot be resumed afterwards.
func (s *Shim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.teardown()
	return nil
}

func (s *Shim) teardown() {
	if s.player == nil {
		return
	}
	if err := s.player.Close(); err != nil {
		log.Debug("Failed to close unlock player", "error", err)
	}
	s.player = nil
}
