package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrClosed is returned when playing on a closed player.
var ErrClosed = errors.New("player is closed")

// pollInterval is how often Play checks whether the device drained.
const pollInterval = 10 * time.Millisecond

// Player plays mono signed 16-bit little endian PCM.
type Player interface {
	// Play blocks until pcm has been played or ctx is done.
	Play(ctx context.Context, pcm []byte) error
	Close() error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize int // device buffer in bytes
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		BufferSize: 4096,
	}
}

// OtoPlayer is a Player backed by an oto context.
type OtoPlayer struct {
	context    *oto.Context
	sampleRate int

	mu     sync.Mutex
	closed bool
}

var _ Player = (*OtoPlayer)(nil)

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*OtoPlayer, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*2),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &OtoPlayer{context: ctx, sampleRate: config.SampleRate}, nil
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	// oto only supports these rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Play implements Player.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	// The reader must own its bytes for the whole playback.
	data := bytes.Clone(pcm)
	player := p.context.NewPlayer(bytes.NewReader(data))
	p.mu.Unlock()
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Duration returns how long pcm takes to play at the player's rate.
func (p *OtoPlayer) Duration(pcm []byte) time.Duration {
	return Duration(len(pcm), p.sampleRate)
}

// Close releases the player. oto contexts cannot be closed in v3; the
// device is released when the process exits.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Duration returns the play time of n bytes of mono 16-bit PCM.
func Duration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := n / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
