// Package pcm converts rendered float samples to 16-bit integer PCM and
// wraps them in RIFF/WAVE containers.
package pcm

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrEmptyBuffer is returned when encoding a buffer without samples.
var ErrEmptyBuffer = errors.New("empty sample buffer")

// BitDepth of every encoded sample.
const BitDepth = 16

const fullScale = math.MaxInt16

// Sample maps a float sample to int16. The input is clamped to [-1, 1] and
// scaled symmetrically, so -1 maps to -32767 rather than -32768. NaN maps
// to 0.
func Sample(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * fullScale))
}

// ToInt16 converts a whole buffer.
func ToInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = Sample(v)
	}
	return out
}

// S16LE encodes samples as signed 16-bit little endian bytes, the format
// the audio device and the streaming service use.
func S16LE(samples []float64) []byte {
	return AppendS16LE(make([]byte, 0, 2*len(samples)), samples)
}

// AppendS16LE appends the encoding of samples to dst.
func AppendS16LE(dst []byte, samples []float64) []byte {
	for _, v := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(Sample(v)))
	}
	return dst
}

// DecodeS16LE is the inverse of S16LE. A trailing odd byte is ignored.
func DecodeS16LE(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}
