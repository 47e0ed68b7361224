// Package spatial positions sounds relative to a listener. It implements the
// linear, inverse and exponential distance models, directional cone
// attenuation and equal-power stereo panning, and wraps them in a beep
// streamer (Panner) that is inserted into a playback chain.
package spatial
