package klatt

// Override is a sparse, field-by-field patch over a Frame. Nil fields leave
// the base value alone. The YAML keys follow the classic Klatt parameter
// names.
type Override struct {
	IsStop       *bool `yaml:"is_stop,omitempty" json:"is_stop,omitempty"`
	IsNasal      *bool `yaml:"is_nasal,omitempty" json:"is_nasal,omitempty"`
	IsVowel      *bool `yaml:"is_vowel,omitempty" json:"is_vowel,omitempty"`
	IsVoiced     *bool `yaml:"is_voiced,omitempty" json:"is_voiced,omitempty"`
	CopyAdjacent *bool `yaml:"copy_adjacent,omitempty" json:"copy_adjacent,omitempty"`
	Silence      *bool `yaml:"silence,omitempty" json:"silence,omitempty"`

	AV *float64 `yaml:"av,omitempty" json:"av,omitempty"` // voicing
	AH *float64 `yaml:"ah,omitempty" json:"ah,omitempty"` // aspiration
	AF *float64 `yaml:"af,omitempty" json:"af,omitempty"` // frication
	AB *float64 `yaml:"ab,omitempty" json:"ab,omitempty"` // parallel bypass

	CF1 *float64 `yaml:"cf1,omitempty" json:"cf1,omitempty"`
	CF2 *float64 `yaml:"cf2,omitempty" json:"cf2,omitempty"`
	CF3 *float64 `yaml:"cf3,omitempty" json:"cf3,omitempty"`
	CF4 *float64 `yaml:"cf4,omitempty" json:"cf4,omitempty"`
	CF5 *float64 `yaml:"cf5,omitempty" json:"cf5,omitempty"`
	CF6 *float64 `yaml:"cf6,omitempty" json:"cf6,omitempty"`
	CB1 *float64 `yaml:"cb1,omitempty" json:"cb1,omitempty"`
	CB2 *float64 `yaml:"cb2,omitempty" json:"cb2,omitempty"`
	CB3 *float64 `yaml:"cb3,omitempty" json:"cb3,omitempty"`
	CB4 *float64 `yaml:"cb4,omitempty" json:"cb4,omitempty"`
	CB5 *float64 `yaml:"cb5,omitempty" json:"cb5,omitempty"`
	CB6 *float64 `yaml:"cb6,omitempty" json:"cb6,omitempty"`

	FNP *float64 `yaml:"fnp,omitempty" json:"fnp,omitempty"`
	BNP *float64 `yaml:"bnp,omitempty" json:"bnp,omitempty"`
	FNZ *float64 `yaml:"fnz,omitempty" json:"fnz,omitempty"`
	BNZ *float64 `yaml:"bnz,omitempty" json:"bnz,omitempty"`
	ANP *float64 `yaml:"anp,omitempty" json:"anp,omitempty"`

	PF1 *float64 `yaml:"pf1,omitempty" json:"pf1,omitempty"`
	PF2 *float64 `yaml:"pf2,omitempty" json:"pf2,omitempty"`
	PF3 *float64 `yaml:"pf3,omitempty" json:"pf3,omitempty"`
	PF4 *float64 `yaml:"pf4,omitempty" json:"pf4,omitempty"`
	PF5 *float64 `yaml:"pf5,omitempty" json:"pf5,omitempty"`
	PF6 *float64 `yaml:"pf6,omitempty" json:"pf6,omitempty"`
	PB1 *float64 `yaml:"pb1,omitempty" json:"pb1,omitempty"`
	PB2 *float64 `yaml:"pb2,omitempty" json:"pb2,omitempty"`
	PB3 *float64 `yaml:"pb3,omitempty" json:"pb3,omitempty"`
	PB4 *float64 `yaml:"pb4,omitempty" json:"pb4,omitempty"`
	PB5 *float64 `yaml:"pb5,omitempty" json:"pb5,omitempty"`
	PB6 *float64 `yaml:"pb6,omitempty" json:"pb6,omitempty"`
	PA1 *float64 `yaml:"pa1,omitempty" json:"pa1,omitempty"`
	PA2 *float64 `yaml:"pa2,omitempty" json:"pa2,omitempty"`
	PA3 *float64 `yaml:"pa3,omitempty" json:"pa3,omitempty"`
	PA4 *float64 `yaml:"pa4,omitempty" json:"pa4,omitempty"`
	PA5 *float64 `yaml:"pa5,omitempty" json:"pa5,omitempty"`
	PA6 *float64 `yaml:"pa6,omitempty" json:"pa6,omitempty"`

	Duration *float64 `yaml:"duration,omitempty" json:"duration,omitempty"` // ms
}

// Apply returns base with every non-nil field of o written over it.
func (o Override) Apply(base Frame) Frame {
	f := base

	setBool(&f.IsStop, o.IsStop)
	setBool(&f.IsNasal, o.IsNasal)
	setBool(&f.IsVowel, o.IsVowel)
	setBool(&f.IsVoiced, o.IsVoiced)
	setBool(&f.CopyAdjacent, o.CopyAdjacent)
	setBool(&f.Silence, o.Silence)

	set(&f.VoiceAmp, o.AV)
	set(&f.AspirationAmp, o.AH)
	set(&f.FricationAmp, o.AF)
	set(&f.BypassAmp, o.AB)

	cf := [NumFormants]*float64{o.CF1, o.CF2, o.CF3, o.CF4, o.CF5, o.CF6}
	cb := [NumFormants]*float64{o.CB1, o.CB2, o.CB3, o.CB4, o.CB5, o.CB6}
	pf := [NumFormants]*float64{o.PF1, o.PF2, o.PF3, o.PF4, o.PF5, o.PF6}
	pb := [NumFormants]*float64{o.PB1, o.PB2, o.PB3, o.PB4, o.PB5, o.PB6}
	pa := [NumFormants]*float64{o.PA1, o.PA2, o.PA3, o.PA4, o.PA5, o.PA6}
	for i := 0; i < NumFormants; i++ {
		set(&f.Cascade[i].Freq, cf[i])
		set(&f.Cascade[i].BW, cb[i])
		set(&f.Parallel[i].Freq, pf[i])
		set(&f.Parallel[i].BW, pb[i])
		set(&f.Parallel[i].Gain, pa[i])
	}

	set(&f.NasalPole.Freq, o.FNP)
	set(&f.NasalPole.BW, o.BNP)
	set(&f.NasalZero.Freq, o.FNZ)
	set(&f.NasalZero.BW, o.BNZ)
	set(&f.NasalAmp, o.ANP)

	set(&f.Duration, o.Duration)
	return f
}

// IsZero reports whether o changes nothing.
func (o Override) IsZero() bool {
	return o == Override{}
}

func set(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Float returns a pointer to v, for building overrides in code.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building overrides in code.
func Bool(v bool) *bool { return &v }
