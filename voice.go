package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dgnsrekt/formant/pkg/klatt"
	"github.com/dgnsrekt/formant/utils"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// voiceParam ties a VoiceConfig field to its config key and flag.
type voiceParam struct {
	key   string
	flag  string
	usage string
	field func(*klatt.VoiceConfig) *float64
}

var voiceParams = []voiceParam{
	{"voice.pitch", "pitch", "base pitch in Hz", func(v *klatt.VoiceConfig) *float64 { return &v.Pitch }},
	{"voice.speed", "speed", "speaking rate multiplier", func(v *klatt.VoiceConfig) *float64 { return &v.Speed }},
	{"voice.declination", "declination", "pitch fall over the utterance (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.Declination }},
	{"voice.throat", "throat", "formant scale, below 1 sounds larger", func(v *klatt.VoiceConfig) *float64 { return &v.Throat }},
	{"voice.mouth", "mouth", "glottal open phase ratio (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.Mouth }},
	{"voice.tongue", "tongue", "second formant scale", func(v *klatt.VoiceConfig) *float64 { return &v.Tongue }},
	{"voice.breathiness", "breathiness", "aspiration mixed into voicing (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.Breathiness }},
	{"voice.flutter", "flutter", "natural pitch jitter (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.Flutter }},
	{"voice.vibrato_depth", "vibrato-depth", "vibrato depth (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.VibratoDepth }},
	{"voice.vibrato_rate", "vibrato-rate", "vibrato rate in Hz", func(v *klatt.VoiceConfig) *float64 { return &v.VibratoRate }},
	{"voice.tilt", "tilt", "spectral tilt (0-100)", func(v *klatt.VoiceConfig) *float64 { return &v.Tilt }},
	{"voice.robotic", "robotic", "robotic waveform mix (0-1)", func(v *klatt.VoiceConfig) *float64 { return &v.Robotic }},
}

// addVoiceFlags registers one flag per voice parameter and binds it to its
// config key.
func addVoiceFlags(flags *pflag.FlagSet) {
	def := klatt.DefaultVoiceConfig()
	for _, p := range voiceParams {
		flags.Float64(p.flag, *p.field(&def), p.usage)
		_ = viper.BindPFlag(p.key, flags.Lookup(p.flag))
		viper.SetDefault(p.key, *p.field(&def))
	}
	flags.String("voice", "", "voice file (YAML)")
	_ = viper.BindPFlag("voice.file", flags.Lookup("voice"))
}

// loadVoice returns the effective voice. Values from the config file and
// environment are applied first, a voice file replaces them and flags set
// on the command line win over both.
func loadVoice(flags *pflag.FlagSet) (klatt.VoiceConfig, error) {
	voice := klatt.DefaultVoiceConfig()
	for _, p := range voiceParams {
		*p.field(&voice) = viper.GetFloat64(p.key)
	}

	if path := viper.GetString("voice.file"); path != "" {
		data, err := os.ReadFile(utils.ExpandPath(path))
		if err != nil {
			return voice, fmt.Errorf("unable to read voice file: %w", err)
		}
		if err := decodeVoice(data, &voice); err != nil {
			return voice, fmt.Errorf("%s: %w", path, err)
		}
		for _, p := range voiceParams {
			if f := flags.Lookup(p.flag); f != nil && f.Changed {
				*p.field(&voice) = viper.GetFloat64(p.key)
			}
		}
	}

	if err := voice.Validate(); err != nil {
		return voice, err
	}
	return voice, nil
}

// decodeVoice decodes YAML onto voice. Keys that are absent keep their
// current value; unknown keys are an error. Phoneme symbols in overrides
// are case sensitive, which is why this does not go through viper.
func decodeVoice(data []byte, voice *klatt.VoiceConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(voice); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid voice: %w", err)
	}
	return nil
}

// encodeVoice renders voice as YAML.
func encodeVoice(voice klatt.VoiceConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(voice); err != nil {
		return nil, fmt.Errorf("unable to encode voice: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
