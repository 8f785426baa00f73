package service

import "github.com/dgnsrekt/formant/pkg/klatt"

// Default NATS subjects.
const (
	SubjectSynthesize = "formant.synthesize"
	// SubjectAudioSuffix is appended to the request subject for requests
	// that carry no reply subject.
	SubjectAudioSuffix = ".audio"
)

// Request asks for one utterance. Either IPA text or pre-segmented symbols
// must be set; Symbols wins when both are.
type Request struct {
	ID      string             `json:"id"`
	IPA     string             `json:"ipa,omitempty"`
	Symbols []string           `json:"symbols,omitempty"`
	Voice   *klatt.VoiceConfig `json:"voice,omitempty"`
}

// Chunk is one block of rendered audio. PCM is mono signed 16-bit little
// endian, base64 encoded on the wire. The last chunk of a request has Final
// set; a failed request gets a single final chunk carrying Error. The PCM of
// all chunks matches the CLI render, tail margin included.
type Chunk struct {
	ID         string `json:"id"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
	Error      string `json:"error,omitempty"`
}
