package klatt

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidVoice is returned by VoiceConfig.Validate.
var ErrInvalidVoice = errors.New("invalid voice")

// MaxDeclination is the relative f0 drop over a whole utterance at
// declination 1.
const MaxDeclination = 0.25

// VoiceConfig holds the global parameters of one utterance.
type VoiceConfig struct {
	Pitch        float64 `yaml:"pitch" json:"pitch"`                 // base f0 in Hz
	Speed        float64 `yaml:"speed" json:"speed"`                 // duration divisor
	Declination  float64 `yaml:"declination" json:"declination"`     // 0..1, f0 drop over the utterance
	Throat       float64 `yaml:"throat" json:"throat"`               // formant frequency and bandwidth scale
	Mouth        float64 `yaml:"mouth" json:"mouth"`                 // open phase ratio of the glottis
	Tongue       float64 `yaml:"tongue" json:"tongue"`               // extra F2 scale
	Breathiness  float64 `yaml:"breathiness" json:"breathiness"`     // 0..1
	Flutter      float64 `yaml:"flutter" json:"flutter"`             // 0..1
	VibratoDepth float64 `yaml:"vibrato_depth" json:"vibrato_depth"` // 0..1
	VibratoRate  float64 `yaml:"vibrato_rate" json:"vibrato_rate"`   // Hz
	Tilt         float64 `yaml:"tilt" json:"tilt"`                   // 0..100
	Robotic      float64 `yaml:"robotic" json:"robotic"`             // 0..1

	// Overrides patch the default table per phoneme symbol.
	Overrides map[string]Override `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// DefaultVoiceConfig returns a neutral voice.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Pitch:       120,
		Speed:       1,
		Throat:      1,
		Mouth:       0.5,
		Tongue:      1,
		VibratoRate: 6,
	}
}

// Validate checks ranges of every parameter.
func (v VoiceConfig) Validate() error {
	ranges := []struct {
		name     string
		val      float64
		min, max float64
		openMin  bool
	}{
		{"pitch", v.Pitch, 0, 2000, true},
		{"speed", v.Speed, 0, 10, true},
		{"declination", v.Declination, 0, 1, false},
		{"throat", v.Throat, 0, 4, true},
		{"mouth", v.Mouth, 0, 1, true},
		{"tongue", v.Tongue, 0, 4, true},
		{"breathiness", v.Breathiness, 0, 1, false},
		{"flutter", v.Flutter, 0, 1, false},
		{"vibrato_depth", v.VibratoDepth, 0, 1, false},
		{"vibrato_rate", v.VibratoRate, 0, 1000, false},
		{"tilt", v.Tilt, 0, 100, false},
		{"robotic", v.Robotic, 0, 1, false},
	}
	for _, r := range ranges {
		if math.IsNaN(r.val) || r.val > r.max || r.val < r.min || (r.openMin && r.val == r.min) {
			return fmt.Errorf("%w: %s must be in %s%v, %v], got %v",
				ErrInvalidVoice, r.name, bracket(r.openMin), r.min, r.max, r.val)
		}
	}
	return nil
}

func bracket(open bool) string {
	if open {
		return "("
	}
	return "["
}

// normalized fills zero values the engine cannot run with.
func (v VoiceConfig) normalized() VoiceConfig {
	if v.Speed <= 0 || math.IsNaN(v.Speed) {
		v.Speed = 1
	}
	if v.Mouth <= 0 {
		v.Mouth = 0.5
	}
	if v.VibratoRate <= 0 {
		v.VibratoRate = 6
	}
	return v
}
