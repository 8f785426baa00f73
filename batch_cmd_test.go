package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/formant/internal/phoneme"
	"github.com/dgnsrekt/formant/pkg/klatt"
)

func testRenderer() *renderer {
	return &renderer{
		table: phoneme.Default(),
		voice: klatt.DefaultVoiceConfig(),
		rate:  klatt.SampleRate,
	}
}

func TestParseBatch(t *testing.T) {
	in := "# greetings\nhɑ\n\ndog\tdɑg\n  \nbird\tbɜd\n"
	jobs, err := parseBatch(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parseBatch: %v", err)
	}

	want := []batchJob{
		{line: 2, name: "0002", ipa: "hɑ"},
		{line: 4, name: "dog", ipa: "dɑg"},
		{line: 6, name: "bird", ipa: "bɜd"},
	}
	if len(jobs) != len(want) {
		t.Fatalf("got %d jobs, want %d", len(jobs), len(want))
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("job %d: got %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

func TestParseBatch_Errors(t *testing.T) {
	tests := map[string]string{
		"duplicate name": "a\tdɑg\na\thɑ\n",
		"empty name":     "\tdɑg\n",
		"path in name":   "../x\tdɑg\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseBatch(strings.NewReader(in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	jobs := []batchJob{
		{line: 1, name: "dog", ipa: "dɑg"},
		{line: 2, name: "ha", ipa: "hɑ"},
	}

	written, err := runBatch(context.Background(), testRenderer(), jobs, dir, 2)
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	var total int64
	for _, j := range jobs {
		st, err := os.Stat(filepath.Join(dir, j.name+".wav"))
		if err != nil {
			t.Fatalf("missing output for %s: %v", j.name, err)
		}
		if st.Size() <= wavHeaderSize {
			t.Errorf("%s: file holds no samples", j.name)
		}
		total += st.Size()
	}
	if written != total {
		t.Errorf("written: got %d, want %d", written, total)
	}
}

func TestRunBatch_NothingToSay(t *testing.T) {
	jobs := []batchJob{{line: 3, name: "digits", ipa: "123"}}
	_, err := runBatch(context.Background(), testRenderer(), jobs, t.TempDir(), 1)
	if !errors.Is(err, errNothingToSay) {
		t.Fatalf("got %v, want errNothingToSay", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the line: %v", err)
	}
}
