package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the RIFF format tag of uncompressed integer PCM.
const wavFormatPCM = 1

// EncodeWAV writes samples as a mono 16-bit WAV file. The encoder has to
// seek back to patch chunk sizes, so writers that cannot seek are fed
// through an in-memory buffer.
func EncodeWAV(w io.Writer, samples []float64, sampleRate int) error {
	return EncodeWAV16(w, ToInt16(samples), sampleRate)
}

// EncodeWAV16 is EncodeWAV for samples that are already 16-bit.
func EncodeWAV16(w io.Writer, samples []int16, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyBuffer
	}
	if ws, ok := w.(io.WriteSeeker); ok && seekable(ws) {
		return encode(ws, samples, sampleRate)
	}

	buf := &seekBuffer{}
	if err := encode(buf, samples, sampleRate); err != nil {
		return err
	}
	_, err := w.Write(buf.data)
	return err
}

// WriteWAVFile writes samples to path, replacing any existing file.
func WriteWAVFile(path string, samples []float64, sampleRate int) error {
	return WriteWAV16File(path, ToInt16(samples), sampleRate)
}

// WriteWAV16File is WriteWAVFile for samples that are already 16-bit.
func WriteWAV16File(path string, samples []int16, sampleRate int) (err error) {
	if len(samples) == 0 {
		return ErrEmptyBuffer
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f, samples, sampleRate)
}

func encode(ws io.WriteSeeker, samples []int16, sampleRate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}

	enc := wav.NewEncoder(ws, sampleRate, BitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}

// seekable reports whether ws really supports seeking; pipes and terminals
// implement io.Seeker but fail on use.
func seekable(ws io.WriteSeeker) bool {
	_, err := ws.Seek(0, io.SeekCurrent)
	return err == nil
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, errors.New("seek: invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, errors.New("seek: negative position")
	}
	b.pos = int(pos)
	return pos, nil
}
