package sound

import (
	"math"
	"strconv"

	"github.com/gopxl/beep/v2"

	"github.com/dgnsrekt/soundboard/internal/source"
	"github.com/dgnsrekt/soundboard/internal/spatial"
	"github.com/dgnsrekt/soundboard/internal/unlock"
)

type (
	// Source is encoded audio: a file path, an http(s) URL or bytes.
	Source = source.Source

	// Vec3 is a point or direction in listener space.
	Vec3 = spatial.Vec3

	// Listener is the session-wide listener position and orientation.
	Listener = spatial.Listener

	// DistanceModel selects how gain falls off with distance.
	DistanceModel = spatial.DistanceModel

	// InteractionSource delivers user interaction events.
	InteractionSource = unlock.InteractionSource
)

const (
	DistanceInverse     = spatial.DistanceInverse
	DistanceLinear      = spatial.DistanceLinear
	DistanceExponential = spatial.DistanceExponential
)

// File returns a Source for a file path or an http(s) URL.
func File(path string) Source { return source.Path(path) }

// Bytes returns a Source for encoded audio held in memory. name is a hint
// for format detection and may be empty.
func Bytes(data []byte, name string) Source { return source.Bytes(data, name) }

// IntTag formats a numeric tag as a cache key.
func IntTag(n int) string { return strconv.Itoa(n) }

// Processor inserts an extra stage into a sound's chain, between the
// spatializer and the gain stage.
type Processor func(beep.Streamer) beep.Streamer

// Options configures one Play call. The zero value plays at full volume,
// original rate, not positional and uncached unless the source is a path.
type Options struct {
	// Tag caches the decoded buffer under this key
	Tag string

	// Volume is the linear gain; nil means 1.0 (use lo.ToPtr for literals)
	Volume *float64

	// Rate scales playback speed and pitch; 0 means 1.0
	Rate float64

	// Processors run in the order given
	Processors []Processor

	// OnEnd is called with Tag when playback ends naturally. It is not
	// called for stopped sounds.
	OnEnd func(tag string)

	// Spatial makes the sound positional
	Spatial *Spatial
}

// Spatial positions a sound relative to the listener. Zero values pick the
// defaults: inverse model, ref distance 1, max distance 10000, rolloff 1,
// 360 degree cones, outer gain 0 and orientation +X.
type Spatial struct {
	X, Y, Z float64

	DistanceModel DistanceModel
	RefDistance   float64
	MaxDistance   float64
	Rolloff       *float64

	ConeInnerAngle float64
	ConeOuterAngle float64
	ConeOuterGain  float64

	Orientation *Vec3
}

// At returns a Spatial at x, y, z with default parameters.
func At(x, y, z float64) *Spatial {
	return &Spatial{X: x, Y: y, Z: z}
}

func (s *Spatial) params() spatial.Params {
	p := spatial.DefaultParams(spatial.V(s.X, s.Y, s.Z))
	p.DistanceModel = s.DistanceModel
	p.RefDistance = s.RefDistance
	p.MaxDistance = s.MaxDistance
	if s.Rolloff != nil {
		p.Rolloff = *s.Rolloff
	}
	p.ConeInnerAngle = s.ConeInnerAngle
	p.ConeOuterAngle = s.ConeOuterAngle
	p.ConeOuterGain = s.ConeOuterGain
	if s.Orientation != nil {
		p.Orientation = *s.Orientation
	}
	return p.WithDefaults()
}

func (o Options) volume() float64 {
	if o.Volume == nil || !finite(*o.Volume) {
		return 1
	}
	return max(*o.Volume, 0)
}

func (o Options) rate() float64 {
	if o.Rate <= 0 || !finite(o.Rate) {
		return 1
	}
	return o.Rate
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
