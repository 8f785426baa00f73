package dsp

import "math"

// minPoleGain is the smallest |a| that may be inverted into zero terms.
const minPoleGain = 1e-5

// Antiresonator is an all-zero second-order section. It realises the nasal
// zero by inverting the pole terms of a resonator: a' = 1/a, b' = -b/a,
// c' = -c/a. Its history holds past inputs, not past outputs.
type Antiresonator struct {
	sampleRate float64
	coef       Coefficients
	x1, x2     float64
	freq, bw   float64
}

// NewAntiresonator returns a silent antiresonator for the given sample rate.
func NewAntiresonator(sampleRate float64) *Antiresonator {
	return &Antiresonator{sampleRate: sampleRate}
}

// Set recomputes the zero terms when (freq, bw) changes. When the pole gain
// is too close to zero the previous coefficients are kept.
func (z *Antiresonator) Set(freq, bw float64) {
	if freq == z.freq && bw == z.bw {
		return
	}
	z.freq, z.bw = freq, bw

	p := PoleCoefficients(freq, bw, z.sampleRate)
	if math.Abs(p.A) < minPoleGain || !finite(p.A) {
		return
	}
	z.coef = Coefficients{A: 1 / p.A, B: -p.B / p.A, C: -p.C / p.A}
}

// Coefficients returns the current filter terms.
func (z *Antiresonator) Coefficients() Coefficients {
	return z.coef
}

// Process runs one sample through the zero pair.
func (z *Antiresonator) Process(x float64) float64 {
	if math.IsNaN(x) {
		x = 0
	}
	y := z.coef.A*x + z.coef.B*z.x1 + z.coef.C*z.x2
	if !finite(y) {
		z.x1, z.x2 = 0, 0
		return 0
	}
	z.x2 = z.x1
	z.x1 = x
	return y
}

// Reset zeroes coefficients, history and the memoised frequency pair.
func (z *Antiresonator) Reset() {
	z.coef = Coefficients{}
	z.x1, z.x2 = 0, 0
	z.freq, z.bw = 0, 0
}
