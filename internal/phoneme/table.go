// Package phoneme holds the static acoustic table that maps IPA symbols to
// their target frames, and splits IPA text into table symbols.
package phoneme

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/dgnsrekt/formant/pkg/klatt"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ErrInvalidEntry is returned when a table entry fails validation.
var ErrInvalidEntry = errors.New("invalid phoneme entry")

//go:embed ipa.yaml
var defaultTable []byte

var (
	defaultOnce sync.Once
	defaultTbl  *Table
)

// Table is an immutable symbol to frame mapping. It is safe for concurrent
// use.
type Table struct {
	frames  map[string]klatt.Frame
	symbols []string
	maxLen  int // longest symbol in runes
	digest  string
}

var _ klatt.Table = (*Table)(nil)

// Default returns the built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultTable)
		if err != nil {
			panic(fmt.Sprintf("phoneme: built-in table: %v", err))
		}
		defaultTbl = t
	})
	return defaultTbl
}

// Load reads a table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phoneme table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML table. Every entry is a partial frame over
// klatt.DefaultFrame; entries without an explicit is_voiced flag are voiced
// when av > 0.
func Parse(data []byte) (*Table, error) {
	var raw map[string]klatt.Override
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding phoneme table: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrInvalidEntry)
	}

	sum := sha256.Sum256(data)
	t := &Table{
		frames: make(map[string]klatt.Frame, len(raw)),
		digest: hex.EncodeToString(sum[:]),
	}
	for sym, o := range raw {
		key := norm.NFC.String(sym)
		if key == "" {
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidEntry)
		}
		if _, dup := t.frames[key]; dup {
			return nil, fmt.Errorf("%w: %q appears twice after normalization", ErrInvalidEntry, key)
		}

		f := o.Apply(klatt.DefaultFrame())
		f.Symbol = key
		if o.IsVoiced == nil {
			f.IsVoiced = f.VoiceAmp > 0
		}
		if f.Silence {
			f.Kind = klatt.KindSilence
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidEntry, key, err)
		}

		t.frames[key] = f
		t.symbols = append(t.symbols, key)
		t.maxLen = max(t.maxLen, utf8.RuneCountInString(key))
	}
	sort.Strings(t.symbols)
	return t, nil
}

// Lookup returns the frame for symbol.
func (t *Table) Lookup(symbol string) (klatt.Frame, bool) {
	f, ok := t.frames[symbol]
	return f, ok
}

// Symbols returns the sorted symbols of the table.
func (t *Table) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.frames)
}

// Digest identifies the table contents.
func (t *Table) Digest() string {
	return t.digest
}
