package phoneme

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dgnsrekt/formant/pkg/klatt"
)

func TestDefault(t *testing.T) {
	tbl := Default()
	if got := tbl.Len(); got != 52 {
		t.Errorf("Len: got %d, want 52", got)
	}
	if tbl.Digest() == "" {
		t.Error("Digest should not be empty")
	}
	if Default() != tbl {
		t.Error("Default should return the same table")
	}
}

func TestDefault_Entries(t *testing.T) {
	tbl := Default()

	tests := []struct {
		symbol string
		check  func(klatt.Frame) bool
		desc   string
	}{
		{"a", func(f klatt.Frame) bool { return f.VoiceAmp == 1 && f.Cascade[0].Freq == 650 && f.IsVowel }, "voiced vowel at 650 Hz"},
		{"a", func(f klatt.Frame) bool { return f.Cascade[3].Freq == 3300 && f.Parallel[5].BW == 1000 }, "defaults for untouched formants"},
		{"t", func(f klatt.Frame) bool { return f.IsStop && !f.IsVoiced && f.Duration == 30 }, "unvoiced stop"},
		{"b", func(f klatt.Frame) bool { return f.IsStop && f.IsVoiced && f.BypassAmp == 0.1 }, "voiced stop with bypass"},
		{"m", func(f klatt.Frame) bool { return f.IsNasal && f.NasalAmp == 1 && f.NasalZero.Freq == 450 }, "nasal"},
		{"\u025b\u0303", func(f klatt.Frame) bool { return f.IsNasal && f.IsVowel && f.NasalPole.Freq == 250 }, "nasal vowel"},
		{"h", func(f klatt.Frame) bool { return f.CopyAdjacent && f.AspirationAmp == 1 && !f.IsVoiced }, "aspirate"},
		{" ", func(f klatt.Frame) bool { return f.Silence && f.Silent() && f.Kind == klatt.KindSilence }, "space"},
		{"ʔ", func(f klatt.Frame) bool { return f.Silence && f.Duration == 60 }, "glottal stop"},
		{"s", func(f klatt.Frame) bool { return f.FricationAmp == 0.3 && f.Parallel[5].Freq == 5250 }, "sibilant"},
	}
	for _, tc := range tests {
		f, ok := tbl.Lookup(tc.symbol)
		if !ok {
			t.Errorf("%q: not found", tc.symbol)
			continue
		}
		if f.Symbol != tc.symbol {
			t.Errorf("%q: got symbol %q", tc.symbol, f.Symbol)
		}
		if !tc.check(f) {
			t.Errorf("%q: want %s, got %+v", tc.symbol, tc.desc, f)
		}
	}

	if _, ok := tbl.Lookup("x"); ok {
		t.Error(`"x" should not be in the table`)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"zero bandwidth", `"a": {av: 1, cb1: 0}`, ErrInvalidEntry},
		{"negative duration", `"a": {duration: -5}`, ErrInvalidEntry},
		{"empty", ``, nil},
		{"unknown key", `"a": {formant1: 700}`, nil},
		{"not a map", `- a`, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestParse_ExplicitVoicing(t *testing.T) {
	tbl, err := Parse([]byte("\"ʒ\": {av: 0.3, is_voiced: false}\n\"x\": {af: 0.2}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f, _ := tbl.Lookup("ʒ"); f.IsVoiced {
		t.Error("explicit is_voiced: false should win over av > 0")
	}
	if f, _ := tbl.Lookup("x"); f.IsVoiced {
		t.Error("entry without av should be unvoiced")
	}
	if got, want := tbl.Symbols(), []string{"x", "ʒ"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols: got %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yml")
	if err := os.WriteFile(path, []byte("\" \": {silence: true}\n\"a\": {av: 1, cf1: 700}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len: got %d, want 2", tbl.Len())
	}
	if tbl.Digest() == Default().Digest() {
		t.Error("digest should depend on the contents")
	}

	if _, err := Load(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}
}

func TestSegment(t *testing.T) {
	tbl := Default()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "hɛlo", []string{"h", "ɛ", "l", "o"}},
		{"nasal vowel stays whole", "b\u0254\u0303\u0292u\u0281", []string{"b", "\u0254\u0303", "\u0292", "u", "\u0281"}},
		{"marks pass through", "ˈaːt", []string{"ˈ", "a", "ː", "t"}},
		{"white space collapses", "a  \t\ni", []string{"a", " ", "i"}},
		{"unknown runes kept", "aqi", []string{"a", "q", "i"}},
		{"empty", "", []string{}},
		// U+0065 U+0301 composes to U+00E9, which is not a table symbol.
		{"normalized", "e\u0301", []string{"\u00e9"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tbl.Segment(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Segment(%q): got %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSegment_BuildsSequence(t *testing.T) {
	tbl := Default()
	seq := klatt.Build(tbl.Segment("ˈdɑg"), tbl, klatt.DefaultVoiceConfig())

	var got []klatt.Kind
	for _, f := range seq {
		got = append(got, f.Kind)
	}
	want := []klatt.Kind{
		klatt.KindSilence,
		klatt.KindStopGap, klatt.KindStopAnchor, klatt.KindPhoneme, // d
		klatt.KindPhoneme, // ɑ
		klatt.KindStopGap, klatt.KindStopAnchor, klatt.KindPhoneme, // g
		klatt.KindTail,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("kinds: got %v, want %v", got, want)
	}
}
