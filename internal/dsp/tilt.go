package dsp

// maxTiltFeedback is the feedback coefficient reached at tilt 100.
const maxTiltFeedback = 0.99

// TiltFilter is a one-pole low-pass applied to the voicing source.
// Tilt runs from 0 (flat) to 100 (heavily muffled).
type TiltFilter struct {
	a, b float64
	y1   float64
	tilt float64
}

// NewTiltFilter returns a flat (pass-through) tilt filter.
func NewTiltFilter() *TiltFilter {
	return &TiltFilter{a: 1, tilt: -1}
}

// Set maps tilt onto the feedback coefficient.
func (t *TiltFilter) Set(tilt float64) {
	if tilt == t.tilt {
		return
	}
	t.tilt = tilt
	if tilt <= 0 || !finite(tilt) {
		t.a, t.b = 1, 0
		return
	}
	b := min(maxTiltFeedback, tilt/100*maxTiltFeedback)
	t.a, t.b = 1-b, b
}

// Process filters one sample.
func (t *TiltFilter) Process(x float64) float64 {
	y := t.a*x + t.b*t.y1
	t.y1 = y
	return y
}
