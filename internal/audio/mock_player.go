package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockPlayer is a Player that records what it plays without producing
// sound, for exercising playback paths without an audio device.
type MockPlayer struct {
	// Delay simulates real playback time when set.
	Delay func(pcm []byte) time.Duration
	// OnPlay is called with every buffer.
	OnPlay func(pcm []byte)

	mu     sync.Mutex
	played [][]byte
	closed bool
}

var _ Player = (*MockPlayer)(nil)

// NewMockPlayer returns a mock that plays instantly.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play implements Player.
func (m *MockPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.played = append(m.played, append([]byte(nil), pcm...))
	onPlay, delay := m.OnPlay, m.Delay
	m.mu.Unlock()

	if onPlay != nil {
		onPlay(pcm)
	}
	if delay == nil {
		return ctx.Err()
	}

	timer := time.NewTimer(delay(pcm))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Played returns copies of every buffer played so far.
func (m *MockPlayer) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.played...)
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
