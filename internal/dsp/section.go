package dsp

import "math"

const (
	// NyquistGuard keeps resonator center frequencies below Nyquist.
	NyquistGuard = 200.0

	// MinBandwidth is the narrowest bandwidth a resonator accepts.
	MinBandwidth = 50.0

	// DivergenceLimit is the output magnitude treated as filter blow-up.
	DivergenceLimit = 1000.0
)

// Section is a stateful second-order filter cell.
type Section interface {
	// Set updates the center frequency and bandwidth in Hz.
	Set(freq, bw float64)
	// Process filters one sample.
	Process(x float64) float64
	// Reset zeroes coefficients and history.
	Reset()
}

// Coefficients are the a, b, c terms of a two-pole section:
// y[n] = a*x[n] + b*y[n-1] + c*y[n-2].
type Coefficients struct {
	A, B, C float64
}

// PoleCoefficients derives the two-pole terms for a resonance at freq with
// the given bandwidth, normalised to unity gain at DC.
func PoleCoefficients(freq, bw, sampleRate float64) Coefficients {
	r := math.Exp(-math.Pi * bw / sampleRate)
	c := -(r * r)
	b := 2 * r * math.Cos(2*math.Pi*freq/sampleRate)
	return Coefficients{A: 1 - b - c, B: b, C: c}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
