package cache

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T, memory int64) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		MemoryCapacity:   memory,
		DiskCapacity:     1 << 20,
		DiskPath:         t.TempDir(),
		CompressionLevel: 3,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManager_BasicOperations(t *testing.T) {
	m := newTestManager(t, 1024)

	if _, _, err := m.Get("k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("empty cache: got %v, want ErrCacheMiss", err)
	}
	if err := m.Put("k", []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, level, err := m.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "value" || level != LevelL1 {
		t.Errorf("got (%q, %v), want (value, %v)", data, level, LevelL1)
	}

	if err := m.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := m.Get("k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("after delete: got %v, want ErrCacheMiss", err)
	}
}

func TestManager_PromotesFromDisk(t *testing.T) {
	m := newTestManager(t, 4096)
	value := pcmLike(2048)
	m.Put("a", value)

	// Drop it from memory only.
	m.l1.Delete("a")

	data, level, err := m.Get("a")
	if err != nil || level != LevelL2 || !bytes.Equal(data, value) {
		t.Fatalf("first Get: got (%d bytes, %v, %v), want L2 hit", len(data), level, err)
	}
	if _, level, _ := m.Get("a"); level != LevelL1 {
		t.Errorf("second Get: got %v, want %v", level, LevelL1)
	}

	stats := m.Stats()
	if stats.L1Hits != 1 || stats.L2Hits != 1 || stats.Promotions != 1 {
		t.Errorf("stats: got %+v", stats)
	}
}

func TestManager_TooLargeForMemory(t *testing.T) {
	m := newTestManager(t, 16)
	value := pcmLike(64)
	if err := m.Put("big", value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, level, err := m.Get("big")
	if err != nil || level != LevelL2 || !bytes.Equal(data, value) {
		t.Errorf("got (%v, %v), want L2 hit", level, err)
	}
}

func TestManager_NoDir(t *testing.T) {
	if _, err := NewManager(Config{}, nil); err == nil {
		t.Error("expected error without a cache directory")
	}
}

func TestKey(t *testing.T) {
	base := Key([]string{"a", "b"}, []byte("pitch: 120"), 44100, "d1")

	tests := []struct {
		name string
		key  string
		same bool
	}{
		{"identical", Key([]string{"a", "b"}, []byte("pitch: 120"), 44100, "d1"), true},
		{"joined symbols", Key([]string{"ab"}, []byte("pitch: 120"), 44100, "d1"), false},
		{"voice", Key([]string{"a", "b"}, []byte("pitch: 121"), 44100, "d1"), false},
		{"rate", Key([]string{"a", "b"}, []byte("pitch: 120"), 48000, "d1"), false},
		{"table", Key([]string{"a", "b"}, []byte("pitch: 120"), 44100, "d2"), false},
	}
	for _, tt := range tests {
		if got := tt.key == base; got != tt.same {
			t.Errorf("%s: same key = %v, want %v", tt.name, got, tt.same)
		}
	}
	if len(base) != 64 {
		t.Errorf("key length: got %d, want 64", len(base))
	}
}

func TestManager_Prune(t *testing.T) {
	m := newTestManager(t, 1024)
	for _, k := range []string{"a", "b", "c"} {
		if err := m.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	if got := m.Prune(time.Now().Add(-time.Hour)); got != 0 {
		t.Errorf("prune old: removed %d, want 0", got)
	}
	if got := m.Prune(time.Now().Add(time.Minute)); got != 3 {
		t.Errorf("prune all: removed %d, want 3", got)
	}
	if n := m.Stats().L2.ItemCount; n != 0 {
		t.Errorf("disk items after prune: got %d, want 0", n)
	}
}

func TestManager_PruneKeepsRecentlyRead(t *testing.T) {
	m := newTestManager(t, 1024)
	for _, k := range []string{"read", "idle"} {
		if err := m.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	// served from memory, which still counts as a use of the disk entry
	if _, level, err := m.Get("read"); err != nil || level != LevelL1 {
		t.Fatalf("Get read: level %v, err %v", level, err)
	}

	if got := m.Prune(cutoff); got != 1 {
		t.Errorf("removed %d entries, want 1", got)
	}
	if _, _, err := m.Get("read"); err != nil {
		t.Errorf("read after prune: %v", err)
	}
	if _, _, err := m.Get("idle"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("idle after prune: got %v, want ErrCacheMiss", err)
	}
}
