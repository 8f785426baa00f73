package klatt

import (
	"math"
	"math/rand/v2"

	"github.com/dgnsrekt/formant/internal/dsp"
	"github.com/dgnsrekt/formant/internal/glottal"
)

const (
	// OutputGain scales the mixed branches before the tanh limiter.
	OutputGain = 0.4
	// FadeSamples is the length of the closing gain ramp of the last frame.
	FadeSamples = 2000

	vibratoDepth = 0.05
	breathGain   = 0.5
)

// Option configures an Engine.
type Option func(*Engine)

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.sampleRate = float64(rate)
		}
	}
}

// WithSeed makes every noise source of the engine deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = &seed
	}
}

// Engine renders a Sequence one sample at a time.
type Engine struct {
	seq        Sequence
	voice      VoiceConfig
	sampleRate float64
	seed       *uint64

	index   int
	elapsed float64
	clock   int64
	total   int64

	source    *glottal.Source
	frication *dsp.Noise
	nasalPole *dsp.Resonator
	nasalZero *dsp.Antiresonator
	cascade   [NumFormants]*dsp.Resonator
	parallel  [NumFormants]*dsp.Resonator
}

// NewEngine returns an engine positioned at the first frame of seq. The
// engine keeps its own copy of seq.
func NewEngine(seq Sequence, voice VoiceConfig, opts ...Option) *Engine {
	e := &Engine{
		seq:        append(Sequence(nil), seq...),
		voice:      voice.normalized(),
		sampleRate: SampleRate,
	}
	for _, opt := range opts {
		opt(e)
	}

	var srcA, srcB rand.Source
	if e.seed != nil {
		srcA = rand.NewPCG(*e.seed, 1)
		srcB = rand.NewPCG(*e.seed, 2)
	}
	e.source = glottal.NewSource(e.sampleRate, srcA)
	e.frication = dsp.NewNoise(srcB)
	e.nasalPole = dsp.NewResonator(e.sampleRate)
	e.nasalZero = dsp.NewAntiresonator(e.sampleRate)
	for k := range NumFormants {
		e.cascade[k] = dsp.NewResonator(e.sampleRate)
		e.parallel[k] = dsp.NewResonator(e.sampleRate)
	}
	e.total = int64(e.Len())
	return e
}

// SampleRate returns the output rate in Hz.
func (e *Engine) SampleRate() int {
	return int(e.sampleRate)
}

// Len returns the number of samples the whole sequence renders to.
func (e *Engine) Len() int {
	return e.seq.Samples(e.voice.Speed, e.sampleRate)
}

// PaddedLen is Len plus TailMarginMS of decay, the length of a finished
// utterance. An empty sequence pads to nothing.
func (e *Engine) PaddedLen() int {
	if len(e.seq) == 0 {
		return 0
	}
	n := int(math.Ceil((e.seq.DurationMS()/e.voice.Speed + TailMarginMS) * e.sampleRate / 1000))
	return max(n, e.Len())
}

// Pending reports whether frames remain to be rendered.
func (e *Engine) Pending() bool {
	return e.index < len(e.seq) || e.elapsed > 0
}

// Position returns the current frame index and the sample offset inside it.
func (e *Engine) Position() (frame int, offset int) {
	return e.index, int(e.elapsed)
}

// Process fills out with the next len(out) samples, padding with silence
// once the sequence is exhausted, and reports whether audio is still
// pending afterwards.
func (e *Engine) Process(out []float64) bool {
	for i := range out {
		out[i] = e.Next()
	}
	return e.Pending()
}

// Next renders one sample. Past the last frame it returns 0.
func (e *Engine) Next() float64 {
	if e.index >= len(e.seq) {
		return 0
	}

	cur := e.seq[e.index]
	next := cur
	if e.index+1 < len(e.seq) {
		next = e.seq[e.index+1]
	}

	dur := frameSamples(cur, e.voice.Speed, e.sampleRate)
	t := math.Min(1, math.Max(0, e.elapsed/dur))
	out := e.sample(Lerp(cur, next, t))

	if e.index == len(e.seq)-1 {
		if remaining := dur - e.elapsed; remaining < FadeSamples {
			out *= math.Max(0, remaining) / FadeSamples
		}
	}

	e.elapsed++
	e.clock++
	if e.elapsed >= dur {
		e.elapsed = 0
		e.index++
	}
	return out
}

// sample runs the source and both branches for the interpolated frame f.
func (e *Engine) sample(f Frame) float64 {
	v := e.voice

	aspiration := f.AspirationAmp
	if v.Breathiness > 0 && f.VoiceAmp > 0 {
		aspiration = math.Max(aspiration, v.Breathiness*breathGain*f.VoiceAmp)
	}

	excitation := e.source.Next(glottal.Params{
		F0:         e.pitch(),
		Voice:      f.VoiceAmp,
		Aspiration: aspiration,
		OpenPhase:  v.Mouth,
		Flutter:    v.Flutter,
		Tilt:       v.Tilt,
		Robotic:    v.Robotic,
	}, e.clock)

	e.nasalPole.Set(f.NasalPole.Freq, f.NasalPole.BW)
	e.nasalZero.Set(f.NasalZero.Freq, f.NasalZero.BW)

	casc := excitation
	if f.NasalAmp > 0 {
		casc = e.nasalPole.Process(e.nasalZero.Process(casc))
	}
	for k := NumFormants - 1; k >= 0; k-- {
		e.cascade[k].Set(f.Cascade[k].Freq, f.Cascade[k].BW)
		casc = e.cascade[k].Process(casc)
	}

	noise := e.frication.Next() * f.FricationAmp
	par := noise * f.BypassAmp
	for k, p := range f.Parallel {
		e.parallel[k].Set(p.Freq, p.BW)
		par += (e.parallel[k].Process(noise) - noise) * p.Gain
	}

	return math.Tanh((casc + par) * OutputGain)
}

// pitch is the instantaneous f0 before flutter.
func (e *Engine) pitch() float64 {
	v := e.voice
	f0 := v.Pitch
	if v.VibratoDepth > 0 {
		t := float64(e.clock) / e.sampleRate
		f0 *= 1 + math.Sin(2*math.Pi*v.VibratoRate*t)*vibratoDepth*v.VibratoDepth
	}
	if v.Declination > 0 && e.total > 0 {
		f0 *= 1 - v.Declination*MaxDeclination*float64(e.clock)/float64(e.total)
	}
	return f0
}
