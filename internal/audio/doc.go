// Package audio owns the connection to the host output device. A Backend
// (oto in production, a mock in tests) pulls interleaved float32 samples from
// an Engine, which mixes every active signal chain with beep and keeps the
// sample clock that gain changes are scheduled against.
package audio
