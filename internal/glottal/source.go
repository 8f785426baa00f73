// Package glottal models the excitation signal of the vocal folds: a smooth
// natural pulse, an optional buzzy sawtooth, pitch flutter, spectral tilt and
// aspiration noise.
package glottal

import (
	"math"
	"math/rand/v2"

	"github.com/dgnsrekt/formant/internal/dsp"
)

const (
	// FlutterDepth is the largest relative f0 deviation at flutter 1.
	FlutterDepth = 0.20

	aspirationGain = 0.5
	roboticGain    = 0.5
	gritThreshold  = 0.5
	gritGain       = 0.8
)

// flutterHz are the three incommensurate flutter components.
var flutterHz = [3]float64{12.7, 7.1, 4.7}

// Params are the per-tick inputs of the source.
type Params struct {
	F0         float64 // fundamental frequency in Hz
	Voice      float64 // voicing amplitude
	Aspiration float64 // aspiration noise amplitude
	OpenPhase  float64 // open phase as a fraction of the period
	Flutter    float64 // 0..1
	Tilt       float64 // 0..100
	Robotic    float64 // 0..1 blend towards the sawtooth
}

// Source generates one excitation sample per tick. Its phase persists
// across frames so pitch periods stay continuous over an utterance.
type Source struct {
	sampleRate float64
	phase      float64
	noise      *dsp.Noise
	tilt       *dsp.TiltFilter
}

// NewSource returns a source for the given sample rate. src seeds the
// aspiration noise and robotic grit; nil picks a random seed.
func NewSource(sampleRate float64, src rand.Source) *Source {
	return &Source{
		sampleRate: sampleRate,
		noise:      dsp.NewNoise(src),
		tilt:       dsp.NewTiltFilter(),
	}
}

// Phase returns the position inside the current pitch period in samples.
func (s *Source) Phase() float64 {
	return s.phase
}

// Next returns the excitation for sample index clock.
func (s *Source) Next(p Params, clock int64) float64 {
	if p.F0 <= 0 || math.IsNaN(p.F0) {
		return 0
	}

	f0 := p.F0
	if p.Flutter > 0 {
		f0 *= 1 + flutter(float64(clock)/s.sampleRate)*FlutterDepth*p.Flutter
	}

	period := s.sampleRate / f0
	s.phase++
	if s.phase >= period {
		s.phase -= period
	}

	voice := NaturalPulse(s.phase, period*p.OpenPhase)
	if p.Robotic > 0 {
		robot := 1 - 2*(s.phase/period)
		if p.Robotic > gritThreshold {
			robot += s.noise.White() * (p.Robotic - gritThreshold) * gritGain
		}
		robot *= roboticGain
		voice = voice*(1-p.Robotic) + robot*p.Robotic
	}

	s.tilt.Set(p.Tilt)
	voice = s.tilt.Process(voice)

	return voice*p.Voice + s.noise.Next()*p.Aspiration*aspirationGain
}

// NaturalPulse is the glottal flow derivative shape: a single smooth
// negative excursion -(4x(1-x))^2 over the open phase, zero while closed.
func NaturalPulse(phase, openLen float64) float64 {
	if openLen <= 0 || phase >= openLen {
		return 0
	}
	x := phase / openLen
	v := 4 * x * (1 - x)
	return -(v * v)
}

// flutter is the normalised sum of the flutter sinusoids at time t seconds.
func flutter(t float64) float64 {
	var sum float64
	for _, hz := range flutterHz {
		sum += math.Sin(2 * math.Pi * hz * t)
	}
	return sum / float64(len(flutterHz))
}
