package glottal

import (
	"math"
	"math/rand/v2"
	"testing"
)

const testRate = 44100.0

func TestSource_UnvoicedIsSilent(t *testing.T) {
	s := NewSource(testRate, nil)
	for _, f0 := range []float64{0, -120, math.NaN()} {
		if got := s.Next(Params{F0: f0, Voice: 1, Aspiration: 1}, 0); got != 0 {
			t.Errorf("f0=%v: got %v, want 0", f0, got)
		}
	}
}

func TestNaturalPulse(t *testing.T) {
	tests := []struct {
		name           string
		phase, openLen float64
		want           float64
	}{
		{"start", 0, 100, 0},
		{"middle", 50, 100, -1},
		{"quarter", 25, 100, -0.5625},
		{"closed", 150, 100, 0},
		{"no open phase", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NaturalPulse(tt.phase, tt.openLen); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSource_PeriodWraps(t *testing.T) {
	s := NewSource(testRate, nil)
	p := Params{F0: 100, Voice: 1, OpenPhase: 0.5}
	period := testRate / p.F0

	for i := int64(0); i < 10000; i++ {
		s.Next(p, i)
		if s.Phase() < 0 || s.Phase() >= period {
			t.Fatalf("tick %d: phase %v outside [0, %v)", i, s.Phase(), period)
		}
	}
}

func TestSource_NaturalPulsePerPeriod(t *testing.T) {
	s := NewSource(testRate, nil)
	p := Params{F0: 147, Voice: 1, OpenPhase: 0.5}

	// Count onsets of the negative excursion over one second.
	onsets := 0
	prev := 0.0
	for i := int64(0); i < int64(testRate); i++ {
		v := s.Next(p, i)
		if prev == 0 && v < 0 {
			onsets++
		}
		prev = v
	}
	if onsets < 146 || onsets > 148 {
		t.Errorf("got %d pulses in one second, want about 147", onsets)
	}
}

func TestSource_RoboticSawtooth(t *testing.T) {
	s := NewSource(testRate, nil)
	p := Params{F0: 110, Voice: 1, OpenPhase: 0.5, Robotic: 0.5}

	v := s.Next(p, 0)
	// phase is 1 after the first tick
	phase := 1.0
	period := testRate / p.F0
	want := NaturalPulse(phase, period*0.5)*0.5 + (1-2*phase/period)*roboticGain*0.5
	if math.Abs(v-want) > 1e-12 {
		t.Errorf("got %v, want %v", v, want)
	}
}

func TestSource_AspirationOnly(t *testing.T) {
	s := NewSource(testRate, rand.NewPCG(1, 2))
	p := Params{F0: 120, Voice: 0, Aspiration: 1, OpenPhase: 0.5}

	var energy float64
	for i := int64(0); i < 4410; i++ {
		v := s.Next(p, i)
		if math.Abs(v) > aspirationGain {
			t.Fatalf("tick %d: aspiration sample %v exceeds %v", i, v, aspirationGain)
		}
		energy += v * v
	}
	if energy == 0 {
		t.Error("expected aspiration noise, got silence")
	}
}

func TestSource_SeededIsReproducible(t *testing.T) {
	a := NewSource(testRate, rand.NewPCG(7, 9))
	b := NewSource(testRate, rand.NewPCG(7, 9))
	p := Params{F0: 90, Voice: 1, Aspiration: 0.4, OpenPhase: 0.6, Flutter: 0.3, Tilt: 40, Robotic: 0.8}

	for i := int64(0); i < 5000; i++ {
		if va, vb := a.Next(p, i), b.Next(p, i); va != vb {
			t.Fatalf("tick %d: %v != %v", i, va, vb)
		}
	}
}

func TestFlutterBounded(t *testing.T) {
	for i := 0; i < 44100; i++ {
		if v := flutter(float64(i) / testRate); math.Abs(v) > 1 {
			t.Fatalf("flutter term %v out of [-1, 1]", v)
		}
	}
}
