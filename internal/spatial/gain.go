package spatial

import "math"

// DistanceGain returns the attenuation for a source at distance d.
func DistanceGain(model DistanceModel, d, ref, maxDist, rolloff float64) float64 {
	switch model {
	case DistanceLinear:
		lo, hi := math.Min(ref, maxDist), math.Max(ref, maxDist)
		d = math.Min(math.Max(d, lo), hi)
		if hi == lo {
			return 1
		}
		r := math.Min(math.Max(rolloff, 0), 1)
		return 1 - r*(d-ref)/(maxDist-ref)

	case DistanceExponential:
		if ref <= 0 {
			return 1
		}
		d = math.Max(d, ref)
		return math.Pow(d/ref, -rolloff)

	default:
		if ref <= 0 {
			return 1
		}
		d = math.Max(d, ref)
		return ref / (ref + rolloff*(d-ref))
	}
}

// ConeGain returns the directional attenuation of a source facing
// p.Orientation as heard from listenerPos.
func ConeGain(p Params, listenerPos Vec3) float64 {
	if p.Orientation.IsZero() || (p.ConeInnerAngle >= 360 && p.ConeOuterAngle >= 360) {
		return 1
	}

	toListener := listenerPos.Sub(p.Position)
	if toListener.IsZero() {
		return 1
	}

	cos := clamp(toListener.Normalize().Dot(p.Orientation.Normalize()), -1, 1)
	angle := math.Abs(degrees(math.Acos(cos)))
	inner := math.Abs(p.ConeInnerAngle) / 2
	outer := math.Abs(p.ConeOuterAngle) / 2

	switch {
	case angle <= inner:
		return 1
	case angle >= outer:
		return p.ConeOuterGain
	default:
		x := (angle - inner) / (outer - inner)
		return (1 - x) + p.ConeOuterGain*x
	}
}

// Azimuth returns the horizontal angle of src around the listener in
// degrees: 0 ahead, +90 right, -90 left, ±180 behind.
func Azimuth(l Listener, src Vec3) float64 {
	rel := src.Sub(l.Position)
	if rel.IsZero() {
		return 0
	}
	rel = rel.Normalize()

	front := l.Forward.Normalize()
	right := front.Cross(l.Up).Normalize()
	if front.IsZero() || right.IsZero() {
		return 0
	}
	up := right.Cross(front)

	proj := rel.Sub(up.Scale(rel.Dot(up)))
	if proj.IsZero() {
		// straight above or below
		return 0
	}
	proj = proj.Normalize()

	az := degrees(math.Acos(clamp(proj.Dot(right), -1, 1)))
	if proj.Dot(front) < 0 {
		az = 360 - az
	}
	if az <= 270 {
		return 90 - az
	}
	return 450 - az
}

// EqualPower returns left and right gains for a mono signal at azimuth az.
// Sources behind the listener fold onto the front half.
func EqualPower(az float64) (left, right float64) {
	az = clamp(az, -180, 180)
	if az < -90 {
		az = -180 - az
	} else if az > 90 {
		az = 180 - az
	}
	x := (az + 90) / 180
	return math.Cos(x * math.Pi / 2), math.Sin(x * math.Pi / 2)
}

// Gains combines distance, cone and panning into per-channel gains.
func Gains(l Listener, p Params) (left, right float64) {
	dist := p.Position.Sub(l.Position).Len()
	g := DistanceGain(p.DistanceModel, dist, p.RefDistance, p.MaxDistance, p.Rolloff)
	g *= ConeGain(p, l.Position)
	pl, pr := EqualPower(Azimuth(l, p.Position))
	return g * pl, g * pr
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
