package sound

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/spatial"
)

const (
	statePlaying int32 = iota
	stateStopped
	stateEnded
)

// Sound is the handle of one playback started by Session.Play.
//
// Methods must not be called from inside a Processor: processors run while
// the engine lock is held.
type Sound struct {
	id      uuid.UUID
	seq     uint64
	tag     string
	session *Session
	engine  *audio.Engine

	// chain stages, mutated under the engine lock
	ctrl   *beep.Ctrl
	gain   *effects.Gain
	panner *spatial.Panner

	onEnd func(tag string)
	done  chan struct{}
	state atomic.Int32

	mu       sync.Mutex
	volume   float64
	position Vec3
}

// ID returns the unique handle id.
func (s *Sound) ID() uuid.UUID { return s.id }

// Tag returns the tag the sound was played with.
func (s *Sound) Tag() string { return s.tag }

// Positional reports whether the sound has a spatializer.
func (s *Sound) Positional() bool { return s.panner != nil }

// Playing reports whether the sound has neither ended nor been stopped.
func (s *Sound) Playing() bool { return s.state.Load() == statePlaying }

// Done is closed when the sound ends or is stopped.
func (s *Sound) Done() <-chan struct{} { return s.done }

// Volume returns the current linear gain.
func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Position returns the source position. It is the zero vector for sounds
// that are not positional.
func (s *Sound) Position() Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Stop halts playback immediately. The OnEnd callback will not run. Calling
// Stop more than once, or after the sound ended, does nothing.
func (s *Sound) Stop() {
	if !s.state.CompareAndSwap(statePlaying, stateStopped) {
		return
	}

	s.engine.Lock()
	s.ctrl.Streamer = nil
	s.engine.Unlock()

	s.session.untrack(s)
	close(s.done)
	log.Debug("Sound stopped", "id", s.id, "tag", s.tag)
}

// SetVolume changes the gain from the next rendered block on. Negative
// values are treated as 0; NaN and infinities are ignored.
func (s *Sound) SetVolume(v float64) {
	if !finite(v) {
		return
	}
	v = max(v, 0)

	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()

	s.engine.Lock()
	s.gain.Gain = v - 1
	s.engine.Unlock()

	log.Debug("Sound volume changed", "id", s.id, "volume", v, "at", s.engine.Now())
}

// SetPosition moves a positional sound. It does nothing for other sounds.
func (s *Sound) SetPosition(x, y, z float64) {
	if s.panner == nil {
		return
	}
	pos := spatial.V(x, y, z)

	s.mu.Lock()
	s.position = pos
	s.mu.Unlock()

	s.engine.Lock()
	s.panner.Params.Position = pos
	s.engine.Unlock()
}

// finish runs from the mixer, with the engine lock held, once the chain
// has drained.
func (s *Sound) finish() {
	if !s.state.CompareAndSwap(statePlaying, stateEnded) {
		return
	}
	s.session.untrack(s)
	close(s.done)

	if s.onEnd != nil {
		go s.onEnd(s.tag)
	}
}
