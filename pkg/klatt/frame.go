package klatt

import (
	"errors"
	"fmt"
	"math"
)

// NumFormants is the number of oral formants in each branch.
const NumFormants = 6

// ErrInvalidFrame is returned by Frame.Validate.
var ErrInvalidFrame = errors.New("invalid frame")

// Kind tells where a frame in a sequence came from.
type Kind int

const (
	// KindPhoneme is a frame resolved from a phoneme symbol.
	KindPhoneme Kind = iota
	// KindSilence is a pause (space, lead-in or punctuation).
	KindSilence
	// KindStopGap is the occlusion inserted before a stop.
	KindStopGap
	// KindStopAnchor is the zero-amplitude attack point before a stop burst.
	KindStopAnchor
	// KindTail is the closing silence that lets the filters decay.
	KindTail
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPhoneme:
		return "phoneme"
	case KindSilence:
		return "silence"
	case KindStopGap:
		return "stop-gap"
	case KindStopAnchor:
		return "stop-anchor"
	case KindTail:
		return "tail"
	default:
		return "unknown"
	}
}

// Formant is a resonance given by center frequency and bandwidth in Hz.
type Formant struct {
	Freq float64
	BW   float64
}

// ParallelFormant is a formant of the parallel branch with its own gain.
type ParallelFormant struct {
	Freq float64
	BW   float64
	Gain float64
}

// Frame is the acoustic target of one phoneme.
type Frame struct {
	Symbol string
	Kind   Kind

	IsStop       bool
	IsNasal      bool
	IsVowel      bool
	IsVoiced     bool
	CopyAdjacent bool
	Silence      bool

	// Source amplitudes
	VoiceAmp      float64
	AspirationAmp float64
	FricationAmp  float64
	BypassAmp     float64

	// Cascade branch, F1 first
	Cascade   [NumFormants]Formant
	NasalPole Formant
	NasalZero Formant
	NasalAmp  float64

	// Parallel branch, F1 first
	Parallel [NumFormants]ParallelFormant

	// Duration in milliseconds, before the speed multiplier.
	Duration float64
}

// DefaultFrame returns the neutral frame every table entry starts from:
// silent sources, a schwa-like vocal tract and a 60 ms duration.
func DefaultFrame() Frame {
	return Frame{
		Cascade: [NumFormants]Formant{
			{500, 60}, {1500, 90}, {2500, 150}, {3300, 250}, {3750, 200}, {4900, 1000},
		},
		NasalPole: Formant{200, 100},
		NasalZero: Formant{250, 100},
		Parallel: [NumFormants]ParallelFormant{
			{500, 100, 0}, {1500, 100, 0}, {2500, 100, 0}, {3300, 250, 0}, {3750, 200, 0}, {4900, 1000, 0},
		},
		Duration: 60,
	}
}

// Silent reports whether all source amplitudes are zero.
func (f Frame) Silent() bool {
	return f.VoiceAmp == 0 && f.AspirationAmp == 0 && f.FricationAmp == 0 && f.BypassAmp == 0
}

// Mute zeroes every source amplitude, leaving the vocal tract untouched.
func (f *Frame) Mute() {
	f.VoiceAmp, f.AspirationAmp, f.FricationAmp, f.BypassAmp = 0, 0, 0, 0
	f.NasalAmp = 0
}

// Validate checks that frequencies and bandwidths are finite and positive
// and that the duration is positive.
func (f Frame) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be finite and > 0, got %v", ErrInvalidFrame, name, v)
		}
		return nil
	}

	for i, c := range f.Cascade {
		if err := check(fmt.Sprintf("cf%d", i+1), c.Freq); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("cb%d", i+1), c.BW); err != nil {
			return err
		}
	}
	for i, p := range f.Parallel {
		if err := check(fmt.Sprintf("pf%d", i+1), p.Freq); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("pb%d", i+1), p.BW); err != nil {
			return err
		}
	}
	for name, v := range map[string]float64{
		"fnp":      f.NasalPole.Freq,
		"bnp":      f.NasalPole.BW,
		"fnz":      f.NasalZero.Freq,
		"bnz":      f.NasalZero.BW,
		"duration": f.Duration,
	} {
		if err := check(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Lerp interpolates every numeric field between a and b at t in [0, 1].
// Flags, symbol and kind are taken from a.
func Lerp(a, b Frame, t float64) Frame {
	l := func(x, y float64) float64 { return x + (y-x)*t }

	out := a
	out.VoiceAmp = l(a.VoiceAmp, b.VoiceAmp)
	out.AspirationAmp = l(a.AspirationAmp, b.AspirationAmp)
	out.FricationAmp = l(a.FricationAmp, b.FricationAmp)
	out.BypassAmp = l(a.BypassAmp, b.BypassAmp)

	for i := range out.Cascade {
		out.Cascade[i].Freq = l(a.Cascade[i].Freq, b.Cascade[i].Freq)
		out.Cascade[i].BW = l(a.Cascade[i].BW, b.Cascade[i].BW)
	}
	out.NasalPole = Formant{l(a.NasalPole.Freq, b.NasalPole.Freq), l(a.NasalPole.BW, b.NasalPole.BW)}
	out.NasalZero = Formant{l(a.NasalZero.Freq, b.NasalZero.Freq), l(a.NasalZero.BW, b.NasalZero.BW)}
	out.NasalAmp = l(a.NasalAmp, b.NasalAmp)

	for i := range out.Parallel {
		out.Parallel[i] = ParallelFormant{
			Freq: l(a.Parallel[i].Freq, b.Parallel[i].Freq),
			BW:   l(a.Parallel[i].BW, b.Parallel[i].BW),
			Gain: l(a.Parallel[i].Gain, b.Parallel[i].Gain),
		}
	}
	out.Duration = l(a.Duration, b.Duration)
	return out
}
