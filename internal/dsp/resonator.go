package dsp

import "math"

// Resonator is an all-pole second-order section modelling one formant.
type Resonator struct {
	sampleRate float64
	coef       Coefficients
	p1, p2     float64

	// last (freq, bw) after clamping, used to skip recomputation
	freq, bw float64
}

// NewResonator returns a silent resonator for the given sample rate.
func NewResonator(sampleRate float64) *Resonator {
	return &Resonator{sampleRate: sampleRate}
}

// Set clamps freq below Nyquist minus NyquistGuard and floors bw at
// MinBandwidth, then recomputes coefficients if either value changed.
func (r *Resonator) Set(freq, bw float64) {
	freq = math.Min(freq, r.sampleRate/2-NyquistGuard)
	bw = math.Max(MinBandwidth, bw)
	if freq == r.freq && bw == r.bw {
		return
	}
	r.freq, r.bw = freq, bw
	r.coef = PoleCoefficients(freq, bw, r.sampleRate)
}

// Coefficients returns the current filter terms.
func (r *Resonator) Coefficients() Coefficients {
	return r.coef
}

// Process runs one sample through the filter. A non-finite or runaway
// output is replaced by zero and the whole section is reset.
func (r *Resonator) Process(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	y := r.coef.A*x + r.coef.B*r.p1 + r.coef.C*r.p2
	if !finite(y) || math.Abs(y) > DivergenceLimit {
		r.Reset()
		return 0
	}
	r.p2 = r.p1
	r.p1 = y
	return y
}

// Reset zeroes coefficients, history and the memoised frequency pair.
func (r *Resonator) Reset() {
	r.coef = Coefficients{}
	r.p1, r.p2 = 0, 0
	r.freq, r.bw = 0, 0
}
