// Package service exposes the synthesizer over NATS. Each request is
// rendered by its own engine and streamed back block by block.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/pcm"
	"github.com/dgnsrekt/formant/internal/phoneme"
	"github.com/dgnsrekt/formant/pkg/klatt"
	"github.com/nats-io/nats.go"
)

var (
	// ErrEmptyRequest is returned for requests without IPA or symbols.
	ErrEmptyRequest = errors.New("request has no ipa or symbols")
	// ErrClosed is reported to requests that arrive after Close.
	ErrClosed = errors.New("service is shutting down")
)

// Publisher sends a message; *nats.Conn implements it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subscriber registers message handlers; *nats.Conn implements it.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Config controls the service.
type Config struct {
	Subject    string
	SampleRate int
	BlockSize  int           // samples per chunk
	Timeout    time.Duration // per request
	Voice      klatt.VoiceConfig
}

// DefaultConfig returns the settings used by `formant serve`.
func DefaultConfig() Config {
	return Config{
		Subject:    SubjectSynthesize,
		SampleRate: klatt.SampleRate,
		BlockSize:  4096,
		Timeout:    30 * time.Second,
		Voice:      klatt.DefaultVoiceConfig(),
	}
}

// Service answers synthesis requests.
type Service struct {
	cfg    Config
	pub    Publisher
	table  *phoneme.Table
	logger *log.Logger

	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New returns a service publishing through pub. Cancelling parent aborts
// running renders, so callers that want a graceful Close should pass a
// context that outlives their shutdown signal.
func New(parent context.Context, cfg Config, pub Publisher, table *phoneme.Table, logger *log.Logger) *Service {
	def := DefaultConfig()
	if cfg.Subject == "" {
		cfg.Subject = def.Subject
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = def.BlockSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Voice.Speed == 0 && cfg.Voice.Pitch == 0 {
		cfg.Voice = def.Voice
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:    cfg,
		pub:    pub,
		table:  table,
		logger: logger.WithPrefix("serve"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials the NATS server at url.
func Connect(url string, logger *log.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("formant"),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected from NATS", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("connected to NATS", "url", conn.ConnectedUrl())
	return conn, nil
}

// Start subscribes to the request subject.
func (s *Service) Start(sub Subscriber) error {
	subscription, err := sub.Subscribe(s.cfg.Subject, s.handleRequest)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Subject, err)
	}
	s.sub = subscription
	s.logger.Info("listening", "subject", s.cfg.Subject, "rate", s.cfg.SampleRate)
	return nil
}

// Close stops accepting requests and waits for running renders to finish.
// Requests delivered after Close get a final chunk carrying ErrClosed.
func (s *Service) Close() {
	s.mu.Lock()
	already := s.closing
	s.closing = true
	s.mu.Unlock()
	if already {
		return
	}

	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Debug("unsubscribe", "err", err)
		}
	}
	s.wg.Wait()
	s.cancel()
}

// begin registers a render unless the service is closing.
func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Service) handleRequest(msg *nats.Msg) {
	reply := msg.Reply
	if reply == "" {
		reply = msg.Subject + SubjectAudioSuffix
	}

	req, err := s.decodeRequest(msg.Data)
	if err != nil {
		s.logger.Warn("failed to decode request", "err", err)
		_ = s.publish(reply, Chunk{SampleRate: s.cfg.SampleRate, Final: true, Error: "invalid request: " + err.Error()})
		return
	}

	if !s.begin() {
		_ = s.publish(reply, Chunk{ID: req.ID, SampleRate: s.cfg.SampleRate, Final: true, Error: ErrClosed.Error()})
		return
	}
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
		defer cancel()

		start := time.Now()
		err := s.Synthesize(ctx, req, func(c Chunk) error {
			return s.publish(reply, c)
		})
		if err != nil {
			s.logger.Warn("synthesis failed", "id", req.ID, "err", err)
			_ = s.publish(reply, Chunk{ID: req.ID, SampleRate: s.cfg.SampleRate, Final: true, Error: err.Error()})
			return
		}
		s.logger.Debug("synthesized", "id", req.ID, "took", time.Since(start))
	}()
}

// decodeRequest decodes data with the service voice as the base, so a
// request voice only needs the fields it changes.
func (s *Service) decodeRequest(data []byte) (Request, error) {
	voice := s.cfg.Voice
	voice.Overrides = maps.Clone(voice.Overrides)
	req := Request{Voice: &voice}
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Synthesize renders req, tail margin included, and hands every chunk to
// emit, stopping at the first emit error or when ctx is done. A request whose symbols resolve to
// nothing produces one empty final chunk.
func (s *Service) Synthesize(ctx context.Context, req Request, emit func(Chunk) error) error {
	voice := s.cfg.Voice
	if req.Voice != nil {
		voice = *req.Voice
	}
	if err := voice.Validate(); err != nil {
		return err
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		if strings.TrimSpace(req.IPA) == "" {
			return ErrEmptyRequest
		}
		symbols = s.table.Segment(req.IPA)
	}

	seq := klatt.Build(symbols, s.table, voice)
	engine := klatt.NewEngine(seq, voice, klatt.WithSampleRate(s.cfg.SampleRate))

	remaining := engine.PaddedLen()
	buf := make([]float64, s.cfg.BlockSize)
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		size := min(s.cfg.BlockSize, remaining)
		engine.Process(buf[:size])
		remaining -= size

		chunk := Chunk{
			ID:         req.ID,
			Sequence:   n,
			SampleRate: s.cfg.SampleRate,
			PCM:        pcm.S16LE(buf[:size]),
			Final:      remaining == 0,
		}
		if err := emit(chunk); err != nil {
			return err
		}
		if chunk.Final {
			return nil
		}
	}
}

func (s *Service) publish(subject string, c Chunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	if err := s.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish chunk: %w", err)
	}
	return nil
}
