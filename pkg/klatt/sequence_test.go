package klatt

import (
	"testing"
)

type mapTable map[string]Frame

func (m mapTable) Lookup(symbol string) (Frame, bool) {
	f, ok := m[symbol]
	return f, ok
}

func testTable() mapTable {
	silence := DefaultFrame()
	silence.Silence = true

	a := DefaultFrame()
	a.IsVowel, a.IsVoiced = true, true
	a.VoiceAmp = 1
	a.Cascade[0].Freq, a.Cascade[1].Freq, a.Cascade[2].Freq = 700, 1220, 2600
	a.Duration = 130

	i := DefaultFrame()
	i.IsVowel, i.IsVoiced = true, true
	i.VoiceAmp = 1
	i.Cascade[0].Freq, i.Cascade[1].Freq, i.Cascade[2].Freq = 280, 2250, 2890
	i.Duration = 120

	tt := DefaultFrame()
	tt.IsStop = true
	tt.FricationAmp = 0.6
	tt.Parallel[3].Gain = 0.5
	tt.Duration = 30

	h := DefaultFrame()
	h.CopyAdjacent = true
	h.AspirationAmp = 0.7
	h.Duration = 60

	return mapTable{" ": silence, "a": a, "i": i, "t": tt, "h": h}
}

func kinds(seq Sequence) []Kind {
	out := make([]Kind, len(seq))
	for i, f := range seq {
		out[i] = f.Kind
	}
	return out
}

func TestBuild_StopExpansion(t *testing.T) {
	seq := Build([]string{"a", "t", "a"}, testTable(), DefaultVoiceConfig())

	want := []struct {
		kind   Kind
		symbol string
		ms     float64
	}{
		{KindSilence, "", LeadInMS},
		{KindPhoneme, "a", 130},
		{KindStopGap, "", StopGapMS},
		{KindStopAnchor, "", StopAnchorMS},
		{KindPhoneme, "t", 30},
		{KindPhoneme, "a", 130},
		{KindTail, "", TailMS},
	}
	if len(seq) != len(want) {
		t.Fatalf("got kinds %v, want %d frames", kinds(seq), len(want))
	}
	for i, w := range want {
		f := seq[i]
		if f.Kind != w.kind || f.Symbol != w.symbol || f.Duration != w.ms {
			t.Errorf("frame %d: got (%v, %q, %v), want (%v, %q, %v)",
				i, f.Kind, f.Symbol, f.Duration, w.kind, w.symbol, w.ms)
		}
	}
	for _, i := range []int{2, 3} {
		if !seq[i].Silent() {
			t.Errorf("frame %d (%v) should have zero amplitudes", i, seq[i].Kind)
		}
	}
}

func TestBuild_Symbols(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		want    []string
		kinds   []Kind
	}{
		{
			name:    "unknown symbols dropped",
			symbols: []string{"a", "x", "ʘ", "i"},
			want:    []string{"", "a", "i", ""},
		},
		{
			name:    "stress marks ignored",
			symbols: []string{"ˈ", "a", "ˌ", "i"},
			want:    []string{"", "a", "i", ""},
		},
		{
			name:    "lowercase fallback",
			symbols: []string{"A", "I"},
			want:    []string{"", "a", "i", ""},
		},
		{
			name:    "space is a pause",
			symbols: []string{"a", " ", "i"},
			want:    []string{"", "a", "", "i", ""},
			kinds:   []Kind{KindSilence, KindPhoneme, KindSilence, KindPhoneme, KindTail},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seq := Build(tc.symbols, testTable(), DefaultVoiceConfig())
			if len(seq) != len(tc.want) {
				t.Fatalf("got %d frames %v, want %d", len(seq), kinds(seq), len(tc.want))
			}
			for i, sym := range tc.want {
				if seq[i].Symbol != sym {
					t.Errorf("frame %d: got symbol %q, want %q", i, seq[i].Symbol, sym)
				}
				if tc.kinds != nil && seq[i].Kind != tc.kinds[i] {
					t.Errorf("frame %d: got kind %v, want %v", i, seq[i].Kind, tc.kinds[i])
				}
			}
			if seq[len(seq)-1].Kind != KindTail {
				t.Errorf("last frame: got %v, want tail", seq[len(seq)-1].Kind)
			}
		})
	}
}

func TestBuild_LengthMark(t *testing.T) {
	seq := Build([]string{"a", "ː", "i"}, testTable(), DefaultVoiceConfig())
	if got, want := seq[1].Duration, 130*1.5; got != want {
		t.Errorf("lengthened duration: got %v, want %v", got, want)
	}
	if got := seq[2].Duration; got != 120 {
		t.Errorf("following frame: got %v, want 120", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	for _, in := range [][]string{nil, {}, {"x", "ˈ", "ː"}} {
		if seq := Build(in, testTable(), DefaultVoiceConfig()); len(seq) != 0 {
			t.Errorf("Build(%q): got %d frames, want none", in, len(seq))
		}
	}
}

func TestBuild_Override(t *testing.T) {
	voice := DefaultVoiceConfig()
	voice.Overrides = map[string]Override{
		"a": {CF1: Float(750), Duration: Float(200)},
	}
	seq := Build([]string{"A"}, testTable(), voice)

	a := seq[1]
	if a.Cascade[0].Freq != 750 {
		t.Errorf("cf1: got %v, want 750", a.Cascade[0].Freq)
	}
	if a.Cascade[1].Freq != 1220 {
		t.Errorf("cf2: got %v, want table value 1220", a.Cascade[1].Freq)
	}
	if a.Duration != 200 {
		t.Errorf("duration: got %v, want 200", a.Duration)
	}
}

func TestBuild_OverrideMakesStop(t *testing.T) {
	voice := DefaultVoiceConfig()
	voice.Overrides = map[string]Override{"i": {IsStop: Bool(true)}}
	seq := Build([]string{"i"}, testTable(), voice)

	want := []Kind{KindSilence, KindStopGap, KindStopAnchor, KindPhoneme, KindTail}
	got := kinds(seq)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBuild_CopyAdjacent(t *testing.T) {
	table := testTable()

	// Next frame is voiced: copy from it.
	seq := Build([]string{"a", "h", "i"}, table, DefaultVoiceConfig())
	if got, want := seq[2].Cascade[1].Freq, table["i"].Cascade[1].Freq; got != want {
		t.Errorf("h before i: F2 got %v, want %v", got, want)
	}

	// Next frame is the tail silence: copy from the previous one.
	seq = Build([]string{"a", "h"}, table, DefaultVoiceConfig())
	if got, want := seq[2].Cascade[1].Freq, table["a"].Cascade[1].Freq; got != want {
		t.Errorf("h after a: F2 got %v, want %v", got, want)
	}

	// Bandwidths are not copied.
	if got, want := seq[2].Cascade[0].BW, table["h"].Cascade[0].BW; got != want {
		t.Errorf("h bandwidth: got %v, want %v", got, want)
	}

	// Between the lead-in and a stop gap: nothing to copy.
	sp, h := table[" "], table["h"]
	sp.Cascade[1].Freq, h.Cascade[1].Freq = 1500, 1800
	table[" "], table["h"] = sp, h
	seq = Build([]string{"h", "t"}, table, DefaultVoiceConfig())
	if seq[1].Symbol != "h" || seq[2].Kind != KindStopGap {
		t.Fatalf("got kinds %v, want h then a stop gap", kinds(seq))
	}
	if got := seq[1].Cascade[1].Freq; got != 1800 {
		t.Errorf("h between silences: F2 got %v, want its own 1800", got)
	}
}

func TestBuild_Scaling(t *testing.T) {
	table := testTable()
	voice := DefaultVoiceConfig()
	voice.Throat = 1.2
	voice.Tongue = 1.1

	seq := Build([]string{"a"}, table, voice)
	a, src := seq[1], table["a"]

	tests := []struct {
		name      string
		got, want float64
	}{
		{"cf1", a.Cascade[0].Freq, src.Cascade[0].Freq * 1.2},
		{"cb1", a.Cascade[0].BW, src.Cascade[0].BW * 1.2},
		{"cf2", a.Cascade[1].Freq, src.Cascade[1].Freq * 1.2 * 1.1},
		{"cf3", a.Cascade[2].Freq, src.Cascade[2].Freq * 1.2},
		{"pf2", a.Parallel[1].Freq, src.Parallel[1].Freq * 1.2},
		{"pb4", a.Parallel[3].BW, src.Parallel[3].BW * 1.2},
		{"fnp", a.NasalPole.Freq, src.NasalPole.Freq},
	}
	for _, tc := range tests {
		if diff := tc.got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestBuild_TailFrozen(t *testing.T) {
	seq := Build([]string{"i"}, testTable(), DefaultVoiceConfig())
	last, tail := seq[len(seq)-2], seq[len(seq)-1]

	if tail.Kind != KindTail || tail.Duration != TailMS {
		t.Fatalf("tail: got (%v, %v), want (tail, %v)", tail.Kind, tail.Duration, TailMS)
	}
	if !tail.Silent() {
		t.Error("tail should have zero amplitudes")
	}
	if tail.Cascade != last.Cascade {
		t.Errorf("tail cascade: got %+v, want %+v", tail.Cascade, last.Cascade)
	}
	for k := range tail.Parallel {
		if tail.Parallel[k].Freq != last.Parallel[k].Freq || tail.Parallel[k].Gain != 0 {
			t.Errorf("tail parallel %d: got %+v", k+1, tail.Parallel[k])
		}
	}
}

func TestSequence_Samples(t *testing.T) {
	seq := Sequence{
		{Duration: 100},
		{Duration: 130},
		{Duration: 400},
	}
	if got := seq.DurationMS(); got != 630 {
		t.Errorf("DurationMS: got %v, want 630", got)
	}
	if got, want := seq.Samples(1, SampleRate), 4410+5733+17640; got != want {
		t.Errorf("Samples at speed 1: got %d, want %d", got, want)
	}
	if got, want := seq.Samples(2, SampleRate), 2205+2867+8820; got != want {
		t.Errorf("Samples at speed 2: got %d, want %d", got, want)
	}
}
