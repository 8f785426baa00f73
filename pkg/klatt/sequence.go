package klatt

import (
	"math"
	"strings"
)

// Symbols with structural meaning in a phoneme stream.
const (
	Space           = " "
	LengthMark      = "ː"
	PrimaryStress   = "ˈ"
	SecondaryStress = "ˌ"
)

// Sequencer timing in milliseconds.
const (
	LeadInMS     = 100.0
	PauseMS      = 100.0
	StopGapMS    = 40.0
	StopAnchorMS = 10.0
	TailMS       = 400.0
	TailMarginMS = 200.0

	lengthFactor = 1.5
)

// SampleRate is the reference output rate in Hz.
const SampleRate = 44100

// Table resolves phoneme symbols to their baseline frames.
type Table interface {
	Lookup(symbol string) (Frame, bool)
}

// Sequence is the ordered frame timeline of one utterance.
type Sequence []Frame

// DurationMS is the nominal length before the speed multiplier.
func (s Sequence) DurationMS() float64 {
	var total float64
	for _, f := range s {
		total += frameMS(f)
	}
	return total
}

// Samples returns the number of samples the engine renders for s.
func (s Sequence) Samples(speed, sampleRate float64) int {
	if speed <= 0 {
		speed = 1
	}
	var n int
	for _, f := range s {
		n += int(math.Ceil(frameSamples(f, speed, sampleRate)))
	}
	return n
}

// Build turns a segmented phoneme stream into a frame sequence.
//
// Unknown symbols are dropped. A space becomes a pause, a length mark
// stretches the previous frame and stress marks are ignored. Stops get a
// silent gap and a zero-amplitude anchor in front of them. Afterwards the
// formants are scaled by the voice's throat and tongue factors and a tail
// silence with frozen formants is appended. A stream that resolves to no
// frames yields an empty sequence.
func Build(symbols []string, table Table, voice VoiceConfig) Sequence {
	silence := silenceFrame(table)

	seq := Sequence{withKind(silence, KindSilence, LeadInMS)}
	resolved := false

	for _, sym := range symbols {
		switch sym {
		case "":
			continue
		case Space:
			seq = append(seq, withKind(silence, KindSilence, PauseMS))
			resolved = true
			continue
		case LengthMark:
			prev := &seq[len(seq)-1]
			prev.Duration = frameMS(*prev) * lengthFactor
			continue
		case PrimaryStress, SecondaryStress:
			continue
		}

		key, base, ok := resolve(table, sym)
		if !ok {
			continue
		}
		if o, ok := voice.Overrides[key]; ok {
			base = o.Apply(base)
		}
		base.Symbol = key
		base.Kind = KindPhoneme
		if base.Silence {
			base.Kind = KindSilence
		}

		if base.IsStop {
			seq = append(seq,
				withKind(silence, KindStopGap, StopGapMS),
				withKind(silence, KindStopAnchor, StopAnchorMS),
			)
		}
		seq = append(seq, base)
		resolved = true
	}

	if !resolved {
		return nil
	}

	copyAdjacentFormants(seq)
	scaleFormants(seq, voice)
	return append(seq, tailFrame(silence, seq[len(seq)-1]))
}

// resolve looks up sym exactly and then in lower case.
func resolve(table Table, sym string) (string, Frame, bool) {
	if f, ok := table.Lookup(sym); ok {
		return sym, f, true
	}
	if lower := strings.ToLower(sym); lower != sym {
		if f, ok := table.Lookup(lower); ok {
			return lower, f, true
		}
	}
	return "", Frame{}, false
}

func silenceFrame(table Table) Frame {
	f, ok := table.Lookup(Space)
	if !ok {
		f = DefaultFrame()
	}
	f.Mute()
	f.Silence = true
	f.IsStop = false
	f.CopyAdjacent = false
	return f
}

func withKind(f Frame, kind Kind, ms float64) Frame {
	f.Kind = kind
	f.Duration = ms
	if kind != KindPhoneme {
		f.Symbol = ""
	}
	return f
}

// copyAdjacentFormants gives frames flagged CopyAdjacent the cascade formant
// frequencies of the next frame, or of the previous one when the next is
// missing or silent. A frame between two silent frames keeps its own.
func copyAdjacentFormants(seq Sequence) {
	for i := range seq {
		if !seq[i].CopyAdjacent {
			continue
		}
		var src *Frame
		switch {
		case i+1 < len(seq) && !seq[i+1].Silence:
			src = &seq[i+1]
		case i > 0 && !seq[i-1].Silence:
			src = &seq[i-1]
		default:
			continue
		}
		for k := range seq[i].Cascade {
			if f := src.Cascade[k].Freq; f != 0 {
				seq[i].Cascade[k].Freq = f
			}
		}
	}
}

func scaleFormants(seq Sequence, voice VoiceConfig) {
	throat, tongue := voice.Throat, voice.Tongue
	if throat <= 0 {
		throat = 1
	}
	if tongue <= 0 {
		tongue = 1
	}
	for i := range seq {
		f := &seq[i]
		for k := range f.Cascade {
			f.Cascade[k].Freq *= throat
			f.Cascade[k].BW *= throat
			f.Parallel[k].Freq *= throat
			f.Parallel[k].BW *= throat
		}
		f.Cascade[1].Freq *= tongue
	}
}

// tailFrame is a silent frame holding the last frame's vocal tract so that
// the resonators ring out instead of jumping.
func tailFrame(silence, last Frame) Frame {
	t := withKind(silence, KindTail, TailMS)
	t.Cascade = last.Cascade
	t.Parallel = last.Parallel
	for k := range t.Parallel {
		t.Parallel[k].Gain = 0
	}
	return t
}

func frameMS(f Frame) float64 {
	if f.Duration <= 0 || math.IsNaN(f.Duration) {
		return DefaultFrame().Duration
	}
	return f.Duration
}

// frameSamples is the fractional length of f in samples; at least one.
func frameSamples(f Frame, speed, sampleRate float64) float64 {
	return math.Max(1, frameMS(f)/speed*sampleRate/1000)
}
