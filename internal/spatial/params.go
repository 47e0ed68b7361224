package spatial

import (
	"fmt"
	"strings"
)

// DistanceModel selects how gain falls off with distance.
type DistanceModel int

const (
	// DistanceInverse is ref / (ref + rolloff*(d-ref)).
	DistanceInverse DistanceModel = iota
	// DistanceLinear is 1 - rolloff*(d-ref)/(max-ref).
	DistanceLinear
	// DistanceExponential is (d/ref)^-rolloff.
	DistanceExponential
)

// String returns the model name.
func (m DistanceModel) String() string {
	switch m {
	case DistanceInverse:
		return "inverse"
	case DistanceLinear:
		return "linear"
	case DistanceExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// ParseDistanceModel parses a model name. The empty string is inverse.
func ParseDistanceModel(s string) (DistanceModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inverse":
		return DistanceInverse, nil
	case "linear":
		return DistanceLinear, nil
	case "exponential":
		return DistanceExponential, nil
	default:
		return DistanceInverse, fmt.Errorf("unknown distance model %q", s)
	}
}

// Listener is the global ear: where it is and which way it faces.
type Listener struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
}

// DefaultListener sits at the origin looking down -Z with +Y up.
func DefaultListener() Listener {
	return Listener{
		Forward: V(0, 0, -1),
		Up:      V(0, 1, 0),
	}
}

// Params configures one positional sound.
type Params struct {
	Position    Vec3
	Orientation Vec3 // direction the source faces; zero disables the cone

	DistanceModel DistanceModel
	RefDistance   float64 // distance at which gain is 1
	MaxDistance   float64 // distance beyond which gain stops falling
	Rolloff       float64 // how fast gain falls; 0 disables distance attenuation

	ConeInnerAngle float64 // degrees, full gain inside
	ConeOuterAngle float64 // degrees, ConeOuterGain outside
	ConeOuterGain  float64
}

// DefaultParams returns params for a source at p with the usual defaults:
// inverse model, ref 1, max 10000, rolloff 1, an omnidirectional cone and
// orientation +X.
func DefaultParams(p Vec3) Params {
	return Params{
		Position:       p,
		Orientation:    V(1, 0, 0),
		DistanceModel:  DistanceInverse,
		RefDistance:    1,
		MaxDistance:    10000,
		Rolloff:        1,
		ConeInnerAngle: 360,
		ConeOuterAngle: 360,
		ConeOuterGain:  0,
	}
}

// WithDefaults fills values that cannot be meaningful at zero.
func (p Params) WithDefaults() Params {
	d := DefaultParams(p.Position)
	if p.RefDistance <= 0 {
		p.RefDistance = d.RefDistance
	}
	if p.MaxDistance <= 0 {
		p.MaxDistance = d.MaxDistance
	}
	if p.Rolloff < 0 {
		p.Rolloff = d.Rolloff
	}
	if p.ConeInnerAngle <= 0 && p.ConeOuterAngle <= 0 {
		p.ConeInnerAngle = d.ConeInnerAngle
		p.ConeOuterAngle = d.ConeOuterAngle
	}
	if p.ConeOuterGain < 0 {
		p.ConeOuterGain = 0
	}
	if p.ConeOuterGain > 1 {
		p.ConeOuterGain = 1
	}
	return p
}
