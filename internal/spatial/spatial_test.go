package spatial

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

const eps = 1e-9

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDistanceGain(t *testing.T) {
	tests := []struct {
		name    string
		model   DistanceModel
		d       float64
		ref     float64
		max     float64
		rolloff float64
		want    float64
	}{
		{"inverse at ref", DistanceInverse, 1, 1, 10000, 1, 1},
		{"inverse inside ref", DistanceInverse, 0.2, 1, 10000, 1, 1},
		{"inverse at 2", DistanceInverse, 2, 1, 10000, 1, 0.5},
		{"inverse at 4 rolloff 2", DistanceInverse, 4, 1, 10000, 2, 1.0 / 7},
		{"inverse no rolloff", DistanceInverse, 50, 1, 10000, 0, 1},
		{"linear halfway", DistanceLinear, 6, 1, 11, 1, 0.5},
		{"linear beyond max", DistanceLinear, 50, 1, 11, 1, 0},
		{"linear rolloff clamped", DistanceLinear, 6, 1, 11, 4, 0.5},
		{"linear ref equals max", DistanceLinear, 6, 5, 5, 1, 1},
		{"exponential at 2", DistanceExponential, 2, 1, 10000, 1, 0.5},
		{"exponential at 4 rolloff 2", DistanceExponential, 4, 1, 10000, 2, 1.0 / 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceGain(tt.model, tt.d, tt.ref, tt.max, tt.rolloff)
			if !almost(got, tt.want) {
				t.Errorf("DistanceGain() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestConeGain(t *testing.T) {
	base := DefaultParams(V(0, 0, 0))
	base.Orientation = V(1, 0, 0)
	base.ConeInnerAngle = 90
	base.ConeOuterAngle = 180
	base.ConeOuterGain = 0.2

	tests := []struct {
		name     string
		listener Vec3
		want     float64
	}{
		{"straight ahead", V(5, 0, 0), 1},
		{"inside inner", V(5, 3, 0), 1},
		{"behind", V(-5, 0, 0), 0.2},
		{"side at outer edge", V(0, 5, 0), 0.2},
		{"between cones", V(5, 5*math.Tan(67.5*math.Pi/180), 0), 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConeGain(base, tt.listener)
			if !almost(got, tt.want) {
				t.Errorf("ConeGain() = %f, want %f", got, tt.want)
			}
		})
	}

	omni := DefaultParams(V(0, 0, 0))
	if g := ConeGain(omni, V(-3, 0, 0)); g != 1 {
		t.Errorf("omnidirectional cone gain = %f, want 1", g)
	}
}

func TestAzimuth(t *testing.T) {
	l := DefaultListener()

	tests := []struct {
		name string
		src  Vec3
		want float64
	}{
		{"ahead", V(0, 0, -3), 0},
		{"right", V(3, 0, 0), 90},
		{"left", V(-3, 0, 0), -90},
		{"behind", V(0, 0, 3), -180},
		{"above", V(0, 3, 0), 0},
		{"same spot", V(0, 0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Azimuth(l, tt.src); !almost(got, tt.want) {
				t.Errorf("Azimuth() = %f, want %f", got, tt.want)
			}
		})
	}

	// Turning the listener to face +X puts a source at +X straight ahead.
	turned := Listener{Forward: V(1, 0, 0), Up: V(0, 1, 0)}
	if got := Azimuth(turned, V(4, 0, 0)); !almost(got, 0) {
		t.Errorf("Azimuth() for turned listener = %f, want 0", got)
	}
}

func TestEqualPower(t *testing.T) {
	l, r := EqualPower(0)
	if !almost(l, math.Sqrt2/2) || !almost(r, math.Sqrt2/2) {
		t.Errorf("center gains = (%f, %f), want both %f", l, r, math.Sqrt2/2)
	}

	l, r = EqualPower(90)
	if l > eps || !almost(r, 1) {
		t.Errorf("right gains = (%f, %f), want (0, 1)", l, r)
	}

	l, r = EqualPower(-90)
	if !almost(l, 1) || r > eps {
		t.Errorf("left gains = (%f, %f), want (1, 0)", l, r)
	}

	// Behind-right folds onto front-right.
	l1, r1 := EqualPower(135)
	l2, r2 := EqualPower(45)
	if !almost(l1, l2) || !almost(r1, r2) {
		t.Errorf("EqualPower(135) = (%f, %f), want EqualPower(45) = (%f, %f)", l1, r1, l2, r2)
	}

	// Power is preserved everywhere.
	for az := -180.0; az <= 180; az += 15 {
		l, r := EqualPower(az)
		if !almost(l*l+r*r, 1) {
			t.Errorf("EqualPower(%f) power = %f, want 1", az, l*l+r*r)
		}
	}
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{Position: V(1, 2, 3), Rolloff: -1}.WithDefaults()
	if p.RefDistance != 1 || p.MaxDistance != 10000 || p.Rolloff != 1 {
		t.Errorf("distance defaults not applied: %+v", p)
	}
	if p.ConeInnerAngle != 360 || p.ConeOuterAngle != 360 {
		t.Errorf("cone defaults not applied: %+v", p)
	}

	zeroRolloff := Params{Rolloff: 0}.WithDefaults()
	if zeroRolloff.Rolloff != 0 {
		t.Errorf("explicit zero rolloff overwritten: %f", zeroRolloff.Rolloff)
	}
}

func TestParseDistanceModel(t *testing.T) {
	for _, m := range []DistanceModel{DistanceInverse, DistanceLinear, DistanceExponential} {
		got, err := ParseDistanceModel(m.String())
		if err != nil || got != m {
			t.Errorf("ParseDistanceModel(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseDistanceModel("logarithmic"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestPannerStream(t *testing.T) {
	listener := DefaultListener()
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.5, 0.5}
		}
		return len(samples), true
	})

	p := NewPanner(src, DefaultParams(V(1, 0, 0)), func() Listener { return listener })

	buf := make([][2]float64, 16)
	n, ok := p.Stream(buf)
	if n != 16 || !ok {
		t.Fatalf("Stream() = %d, %v", n, ok)
	}
	if buf[0][0] > eps || !almost(buf[0][1], 0.5) {
		t.Errorf("source on the right: got %v, want [0 0.5]", buf[0])
	}

	// Moving the listener past the source flips it to the left and the
	// next block picks that up.
	listener.Position = V(3, 0, 0)
	p.Stream(buf)
	if !almost(buf[0][0], 0.5*0.5) || buf[0][1] > eps {
		t.Errorf("source on the left at distance 2: got %v, want [0.25 0]", buf[0])
	}
}
