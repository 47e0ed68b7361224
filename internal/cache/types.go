package cache

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/dgnsrekt/soundboard/internal/source"
)

// Decoder turns a source into a PCM buffer.
type Decoder interface {
	Decode(ctx context.Context, src source.Source) (*beep.Buffer, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, src source.Source) (*beep.Buffer, error)

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, src source.Source) (*beep.Buffer, error) {
	return f(ctx, src)
}

// Stats holds cache performance metrics
type Stats struct {
	Entries int   // Number of keys
	Buffers int   // Number of distinct buffers (a buffer may have two keys)
	Frames  int64 // Total frames across distinct buffers

	Hits     int64 // Resolutions served from the cache
	Misses   int64 // Resolutions that needed a decode
	Decodes  int64 // Decodes actually run (shared decodes count once)
	Failures int64 // Decodes that failed

	LastDecode time.Time
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}
