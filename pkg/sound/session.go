package sound

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/samber/lo"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/cache"
	"github.com/dgnsrekt/soundboard/internal/decode"
	"github.com/dgnsrekt/soundboard/internal/source"
	"github.com/dgnsrekt/soundboard/internal/spatial"
	"github.com/dgnsrekt/soundboard/internal/unlock"
)

// CacheStats reports buffer cache activity.
type CacheStats = cache.Stats

// Session owns everything a process needs to play sounds: the lazily
// created engine, the buffer cache, the listener, the set of live sounds
// and the unlock shim.
type Session struct {
	cfg      Config
	opener   audio.Opener
	platform func() *audio.PlatformInfo
	buffers  *cache.Buffers

	// mu guards the engine, shim and listener. It is taken before the
	// engine lock, never after.
	mu       sync.Mutex
	engine   *audio.Engine
	shim     *unlock.Shim
	listener spatial.Listener
	closed   bool

	soundsMu sync.Mutex
	sounds   map[*Sound]struct{}
	seq      uint64
	draining bool
}

// Option customizes a Session.
type Option func(*Session)

// WithOpener replaces the output device opener.
func WithOpener(opener audio.Opener) Option {
	return func(s *Session) { s.opener = opener }
}

// WithDecoder replaces the decoder used on cache misses.
func WithDecoder(d cache.Decoder) Option {
	return func(s *Session) { s.buffers = cache.NewBuffers(d) }
}

// WithPlatform skips platform detection.
func WithPlatform(p *audio.PlatformInfo) Option {
	return func(s *Session) { s.platform = func() *audio.PlatformInfo { return p } }
}

// New creates a session. The output device is not touched until the first
// call that needs it.
func New(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		platform: sync.OnceValue(audio.DetectPlatform),
		listener: spatial.DefaultListener(),
		sounds:   make(map[*Sound]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.opener == nil {
		s.opener = s.defaultOpener
	}
	if s.buffers == nil {
		fetcher := source.NewFetcher(cfg.fetcher())
		s.buffers = cache.NewBuffers(decode.New(fetcher, beep.SampleRate(cfg.SampleRate), cfg.ResampleQuality))
	}
	return s, nil
}

func (s *Session) defaultOpener(cfg audio.BackendConfig) (audio.Backend, error) {
	if p := s.platform(); p.ShouldUseMockAudio() {
		return nil, fmt.Errorf("%w: no usable device on %v", audio.ErrBackendUnavailable, p)
	}
	return audio.OpenOto(cfg)
}

// ensureEngine returns the engine, creating it on first use. A failed
// creation is not remembered; the next call tries again.
func (s *Session) ensureEngine() (*audio.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.engine != nil {
		return s.engine, nil
	}

	backend, err := s.opener(s.cfg.backend())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	engine, err := audio.NewEngine(backend)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	engine.SetListener(s.listener)
	s.engine = engine

	if unlock.Required(s.cfg.policy(), s.platform()) {
		s.shim = unlock.New(backend)
	}

	log.Info("Audio engine ready",
		"sample_rate", engine.SampleRate(),
		"unlock_shim", s.shim != nil)
	return engine, nil
}

// Engine returns the audio engine, creating it if needed. It returns nil
// when no engine can be created.
func (s *Session) Engine() *audio.Engine {
	engine, err := s.ensureEngine()
	if err != nil {
		log.Debug("Audio engine unavailable", "error", err)
		return nil
	}
	return engine
}

// Play starts src and returns its handle. It returns nil when nothing could
// be played: no engine, a source that fails to load or a cancelled ctx.
// Failures are logged, not returned.
func (s *Session) Play(ctx context.Context, src Source, opts Options) *Sound {
	engine, err := s.ensureEngine()
	if err != nil {
		log.Warn("Skipping playback, audio engine unavailable", "source", src, "error", err)
		return nil
	}
	if err := ctx.Err(); err != nil {
		log.Debug("Skipping playback, request cancelled", "source", src)
		return nil
	}

	buf, err := s.buffers.Resolve(ctx, src, opts.Tag)
	if err != nil {
		log.Warn("Skipping playback, unable to load sound", "source", src, "tag", opts.Tag, "error", err)
		return nil
	}

	// handles without a tag are named after their source
	if opts.Tag == "" {
		opts.Tag = src.String()
	}

	if engine.Suspended() {
		if err := engine.Resume(); err != nil {
			log.Warn("Unable to resume audio output", "error", err)
		}
	}
	s.resumeShim()

	return s.start(engine, buf, opts)
}

// Preload decodes src into the cache under tag without playing it.
func (s *Session) Preload(ctx context.Context, src Source, tag string) error {
	_, err := s.buffers.Resolve(ctx, src, tag)
	return err
}

// start builds the chain for buf and adds it to the mixer:
// buffer, rate, spatializer, processors, gain, control, completion.
func (s *Session) start(engine *audio.Engine, buf *beep.Buffer, opts Options) *Sound {
	var chain beep.Streamer = buf.Streamer(0, buf.Len())

	ratio := opts.rate() * float64(buf.Format().SampleRate) / float64(engine.SampleRate())
	if ratio != 1 {
		chain = beep.ResampleRatio(s.cfg.ResampleQuality, ratio, chain)
	}

	volume := opts.volume()
	snd := &Sound{
		id:      uuid.New(),
		tag:     opts.Tag,
		session: s,
		engine:  engine,
		onEnd:   opts.OnEnd,
		done:    make(chan struct{}),
		volume:  volume,
	}

	if opts.Spatial != nil {
		params := opts.Spatial.params()
		snd.panner = spatial.NewPanner(chain, params, engine.ListenerSource())
		snd.position = params.Position
		chain = snd.panner
	}

	for _, p := range opts.Processors {
		if p != nil {
			chain = p(chain)
		}
	}

	snd.gain = &effects.Gain{Streamer: chain, Gain: volume - 1}
	snd.ctrl = &beep.Ctrl{Streamer: snd.gain}

	if !s.track(snd) {
		log.Debug("Skipping playback, session closing", "tag", opts.Tag)
		return nil
	}
	engine.Add(beep.Seq(snd.ctrl, beep.Callback(snd.finish)))

	log.Debug("Sound started",
		"id", snd.id,
		"tag", snd.tag,
		"duration", buf.Format().SampleRate.D(buf.Len()),
		"volume", volume,
		"rate", opts.rate(),
		"positional", snd.Positional())
	return snd
}

func (s *Session) track(snd *Sound) bool {
	s.soundsMu.Lock()
	defer s.soundsMu.Unlock()
	if s.draining {
		return false
	}
	s.seq++
	snd.seq = s.seq
	s.sounds[snd] = struct{}{}
	return true
}

func (s *Session) untrack(snd *Sound) {
	s.soundsMu.Lock()
	defer s.soundsMu.Unlock()
	delete(s.sounds, snd)
}

func (s *Session) snapshot(filter func(*Sound) bool) []*Sound {
	s.soundsMu.Lock()
	out := lo.Filter(lo.Keys(s.sounds), func(snd *Sound, _ int) bool {
		return filter == nil || filter(snd)
	})
	s.soundsMu.Unlock()

	slices.SortFunc(out, func(a, b *Sound) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Sounds returns the live sounds in start order.
func (s *Session) Sounds() []*Sound {
	return s.snapshot(nil)
}

// ActiveSpatial returns the live positional sounds in start order.
func (s *Session) ActiveSpatial() []*Sound {
	return s.snapshot((*Sound).Positional)
}

// StopAll stops every live sound.
func (s *Session) StopAll() {
	for _, snd := range s.Sounds() {
		snd.Stop()
	}
}

// SetListenerPosition moves the listener. The change applies at once if the
// engine exists and when it is created otherwise.
func (s *Session) SetListenerPosition(x, y, z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener.Position = spatial.V(x, y, z)
	s.applyListener()
}

// SetListenerOrientation turns the listener. Zero vectors keep the current
// value.
func (s *Session) SetListenerOrientation(forward, up Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !forward.IsZero() {
		s.listener.Forward = forward
	}
	if !up.IsZero() {
		s.listener.Up = up
	}
	s.applyListener()
}

func (s *Session) applyListener() {
	if s.engine != nil {
		s.engine.SetListener(s.listener)
	}
}

// Listener returns the session listener state.
func (s *Session) Listener() Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// CacheStats returns buffer cache statistics.
func (s *Session) CacheStats() CacheStats {
	return s.buffers.Stats()
}

// TryResume creates the engine if needed, resumes a suspended device and
// starts the unlock shim where the platform needs it. Shim failures are
// logged; the shim is recreated on the next call.
func (s *Session) TryResume() error {
	engine, err := s.ensureEngine()
	if err != nil {
		log.Debug("Resume skipped", "error", err)
		return err
	}
	if err := engine.Resume(); err != nil {
		log.Warn("Unable to resume audio output", "error", err)
		return err
	}

	s.resumeShim()
	return nil
}

// resumeShim starts the unlock shim, if the session has one. Failures are
// logged; the shim is recreated on the next call.
func (s *Session) resumeShim() {
	s.mu.Lock()
	shim := s.shim
	s.mu.Unlock()

	if shim == nil {
		return
	}
	if err := shim.Resume(); err != nil {
		log.Warn("Unlock shim failed", "error", err)
	}
}

// ResumeOnInteraction calls TryResume on the first event from src. The
// returned channel is closed once that has happened or ctx is done.
func (s *Session) ResumeOnInteraction(ctx context.Context, src InteractionSource) <-chan struct{} {
	return unlock.OnFirstInteraction(ctx, src, s.TryResume)
}

// Suspend pauses the output device. It does nothing before the engine
// exists.
func (s *Session) Suspend() error {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		return nil
	}
	return engine.Suspend()
}

// Close stops every sound and releases the device. The cache is dropped
// with the session.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	engine, shim := s.engine, s.shim
	s.engine, s.shim = nil, nil
	s.mu.Unlock()

	s.soundsMu.Lock()
	s.draining = true
	s.soundsMu.Unlock()

	s.StopAll()

	var errs []error
	if shim != nil {
		errs = append(errs, shim.Close())
	}
	if engine != nil {
		errs = append(errs, engine.Close())
	}
	log.Debug("Sound session closed")
	return errors.Join(errs...)
}
