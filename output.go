package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/audio"
	"github.com/dgnsrekt/formant/internal/pcm"
	"github.com/dgnsrekt/formant/utils"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// wavHeaderSize is the size of the canonical RIFF header written by pcm.
const wavHeaderSize = 44

var errTerminalOutput = errors.New("refusing to write audio to a terminal: redirect stdout or use --output FILE")

// writeAudio writes s16le data as WAV to path, or to stdout when path is -.
func writeAudio(path string, data []byte, rate int) error {
	samples := pcm.DecodeS16LE(data)
	if path == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
			return errTerminalOutput
		}
		if err := pcm.EncodeWAV16(os.Stdout, samples, rate); err != nil {
			return fmt.Errorf("unable to write to stdout: %w", err)
		}
		return nil
	}

	path = utils.ExpandPath(path)
	if !utils.IsWAVFile(path) {
		log.Warn("Output file has no .wav extension", "path", path)
	}
	if err := pcm.WriteWAV16File(path, samples, rate); err != nil {
		return err
	}
	log.Info("Wrote audio",
		"path", path,
		"size", humanize.Bytes(uint64(wavHeaderSize+len(data))),
		"duration", humanizeDuration(len(samples), rate))
	return nil
}

// newPlayer opens the audio device. Only one player may exist per process.
func newPlayer(rate int) (audio.Player, error) {
	cfg := audio.DefaultPlayerConfig()
	cfg.SampleRate = rate
	p, err := audio.NewPlayer(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	return p, nil
}

// playAudio plays data and blocks until playback ends or ctx is done.
func playAudio(ctx context.Context, p audio.Player, data []byte) error {
	err := p.Play(ctx, data)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// humanizeDuration formats the play time of a number of samples.
func humanizeDuration(samples, rate int) string {
	return audio.Duration(2*samples, rate).Round(time.Millisecond).String()
}
