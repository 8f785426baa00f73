package dsp

import "math/rand/v2"

// Noise produces smoothed white noise: each sample averages the previous
// output with a fresh uniform sample in [-1, 1).
type Noise struct {
	rng  *rand.Rand
	last float64
}

// NewNoise returns a generator drawing from src. A nil src gives a
// randomly seeded generator.
func NewNoise(src rand.Source) *Noise {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Noise{rng: rand.New(src)}
}

// Next returns the next smoothed noise sample.
func (n *Noise) Next() float64 {
	n.last = (n.last + n.White()) * 0.5
	return n.last
}

// White returns an unsmoothed uniform sample in [-1, 1).
func (n *Noise) White() float64 {
	return n.rng.Float64()*2 - 1
}
