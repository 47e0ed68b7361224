package spatial

import "github.com/gopxl/beep/v2"

// Panner spatializes its input. The input is folded to mono and spread over
// the two output channels according to the listener returned by Listener.
//
// Params and Listener are read on every Stream call, so callers must mutate
// Params under the same lock that guards streaming.
type Panner struct {
	Streamer beep.Streamer
	Params   Params
	Listener func() Listener
}

// NewPanner wraps s with params p (defaults applied).
func NewPanner(s beep.Streamer, p Params, listener func() Listener) *Panner {
	return &Panner{
		Streamer: s,
		Params:   p.WithDefaults(),
		Listener: listener,
	}
}

// Stream implements beep.Streamer.
func (p *Panner) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = p.Streamer.Stream(samples)
	gl, gr := p.Gains()
	for i := range samples[:n] {
		mono := (samples[i][0] + samples[i][1]) / 2
		samples[i][0] = mono * gl
		samples[i][1] = mono * gr
	}
	return n, ok
}

// Err implements beep.Streamer.
func (p *Panner) Err() error {
	return p.Streamer.Err()
}

// Gains returns the current left and right gains.
func (p *Panner) Gains() (left, right float64) {
	l := DefaultListener()
	if p.Listener != nil {
		l = p.Listener()
	}
	return Gains(l, p.Params)
}
