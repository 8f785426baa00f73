package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/formant/internal/cache"
	"github.com/dgnsrekt/formant/internal/pcm"
	"github.com/dgnsrekt/formant/internal/phoneme"
	"github.com/dgnsrekt/formant/pkg/klatt"
	"github.com/dgnsrekt/formant/utils"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errNothingToSay is returned when the input resolves to no phonemes.
var errNothingToSay = errors.New("input contains no known phonemes")

// renderer turns IPA text into s16le PCM, consulting the cache first.
type renderer struct {
	table    *phoneme.Table
	voice    klatt.VoiceConfig
	rate     int
	voiceKey []byte
	cache    *cache.Manager
}

// newRenderer resolves the table, the voice and the cache from the current
// configuration.
func newRenderer(flags *pflag.FlagSet) (*renderer, error) {
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	voice, err := loadVoice(flags)
	if err != nil {
		return nil, err
	}
	key, err := encodeVoice(voice)
	if err != nil {
		return nil, err
	}

	r := &renderer{
		table:    table,
		voice:    voice,
		rate:     viper.GetInt("sample_rate"),
		voiceKey: key,
	}
	if viper.GetBool("cache.enabled") {
		m, err := openCache()
		if err != nil {
			// rendering works without a cache
			log.Warn("Cache disabled", "err", err)
		}
		r.cache = m
	}
	return r, nil
}

func loadTable() (*phoneme.Table, error) {
	path := viper.GetString("table")
	if path == "" {
		return phoneme.Default(), nil
	}
	t, err := phoneme.Load(utils.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded phoneme table", "path", path, "entries", t.Len())
	return t, nil
}

func cacheDir() (string, error) {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return utils.ExpandPath(dir), nil
	}
	dir, err := gap.NewScope(gap.User, "formant").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

func openCache() (*cache.Manager, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	cfg := cache.DefaultConfig()
	cfg.DiskPath = dir
	cfg.DiskCapacity = viper.GetInt64("cache.max_size") * 1024 * 1024
	cfg.CompressionLevel = viper.GetInt("cache.compression_level")
	return cache.NewManager(cfg, log.Default())
}

// sequence builds the frame timeline of text.
func (r *renderer) sequence(text string) klatt.Sequence {
	return klatt.Build(r.table.Segment(text), r.table, r.voice)
}

// render synthesizes text and returns s16le samples.
func (r *renderer) render(text string) ([]byte, error) {
	symbols := r.table.Segment(text)
	key := cache.Key(symbols, r.voiceKey, r.rate, r.table.Digest())

	if r.cache != nil {
		data, level, err := r.cache.Get(key)
		if err == nil {
			log.Debug("Cache hit", "level", level, "size", humanize.Bytes(uint64(len(data))))
			return data, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("Cache read failed", "err", err)
		}
	}

	samples := klatt.Synthesize(symbols, r.table, r.voice, klatt.WithSampleRate(r.rate))
	if len(samples) == 0 {
		return nil, errNothingToSay
	}
	data := pcm.S16LE(samples)
	log.Debug("Rendered", "symbols", len(symbols), "samples", len(samples),
		"duration", humanizeDuration(len(samples), r.rate))

	if r.cache != nil {
		if err := r.cache.Put(key, data); err != nil {
			log.Warn("Cache write failed", "err", err)
		}
	}
	return data, nil
}

// Close flushes the cache index.
func (r *renderer) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}
