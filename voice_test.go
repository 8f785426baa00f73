package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/formant/pkg/klatt"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestDecodeVoice(t *testing.T) {
	voice := klatt.DefaultVoiceConfig()
	data := []byte(`
pitch: 90
throat: 0.85
overrides:
  I:
    cf1: 400
  i:
    duration: 80
`)
	if err := decodeVoice(data, &voice); err != nil {
		t.Fatalf("decodeVoice: %v", err)
	}
	if voice.Pitch != 90 || voice.Throat != 0.85 {
		t.Errorf("pitch/throat: got %v/%v, want 90/0.85", voice.Pitch, voice.Throat)
	}
	if voice.Speed != 1 {
		t.Errorf("speed: got %v, want untouched 1", voice.Speed)
	}
	if len(voice.Overrides) != 2 {
		t.Fatalf("overrides: got %d, want 2 (symbols are case sensitive)", len(voice.Overrides))
	}
	if got := voice.Overrides["I"].CF1; got == nil || *got != 400 {
		t.Errorf("override I.cf1: got %v, want 400", got)
	}
}

func TestDecodeVoice_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "pich: 90\n"},
		{"wrong type", "pitch: high\n"},
		{"unknown override field", "overrides:\n  a:\n    f1: 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voice := klatt.DefaultVoiceConfig()
			if err := decodeVoice([]byte(tt.data), &voice); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeVoice_Empty(t *testing.T) {
	voice := klatt.DefaultVoiceConfig()
	if err := decodeVoice(nil, &voice); err != nil {
		t.Fatalf("decodeVoice: %v", err)
	}
	if voice.Pitch != klatt.DefaultVoiceConfig().Pitch {
		t.Errorf("pitch changed: %v", voice.Pitch)
	}
}

func TestEncodeVoice_RoundTrip(t *testing.T) {
	want := klatt.DefaultVoiceConfig()
	want.Robotic = 0.3
	want.Overrides = map[string]klatt.Override{"a": {AV: klatt.Float(0.5)}}

	data, err := encodeVoice(want)
	if err != nil {
		t.Fatal(err)
	}
	var got klatt.VoiceConfig
	if err := decodeVoice(data, &got); err != nil {
		t.Fatalf("decoding own output: %v\n%s", err, data)
	}
	if got.Robotic != 0.3 || got.Pitch != want.Pitch {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if av := got.Overrides["a"].AV; av == nil || *av != 0.5 {
		t.Errorf("override a.av: got %v, want 0.5", av)
	}
}

func TestLoadVoice_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.yml")
	if err := os.WriteFile(path, []byte("pitch: 150\nthroat: 0.8\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addVoiceFlags(flags)
	if err := flags.Parse([]string{"--pitch", "90", "--voice", path}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { viper.Set("voice.file", "") })

	voice, err := loadVoice(flags)
	if err != nil {
		t.Fatalf("loadVoice: %v", err)
	}
	if voice.Pitch != 90 {
		t.Errorf("pitch: got %v, want 90 from the flag", voice.Pitch)
	}
	if voice.Throat != 0.8 {
		t.Errorf("throat: got %v, want 0.8 from the file", voice.Throat)
	}
}

func TestLoadVoice_Invalid(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addVoiceFlags(flags)
	if err := flags.Parse([]string{"--speed", "0"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { viper.Set("voice.speed", 1.0) })

	if _, err := loadVoice(flags); err == nil {
		t.Error("expected error for zero speed")
	}
}
