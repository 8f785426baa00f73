package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers the memory cache over the disk cache. Hits on disk are
// promoted to memory.
type Manager struct {
	l1     *MemoryCache
	l2     *DiskCache
	logger *log.Logger

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats counts hits per level.
type ManagerStats struct {
	L1Hits     int64
	L2Hits     int64
	Misses     int64
	Promotions int64
	L1         Stats
	L2         Stats
}

// NewManager opens the disk cache at config.DiskPath. A nil logger uses the
// default logger.
func NewManager(config Config, logger *log.Logger) (*Manager, error) {
	if config.DiskPath == "" {
		return nil, errors.New("cache directory is not set")
	}
	if logger == nil {
		logger = log.Default()
	}

	l2, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	return &Manager{
		l1:     NewMemoryCache(config.MemoryCapacity),
		l2:     l2,
		logger: logger.WithPrefix("cache"),
	}, nil
}

// Get looks key up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, Level, error) {
	if data, ok := m.l1.Get(key); ok {
		m.l2.Touch(key)
		m.count(func(s *ManagerStats) { s.L1Hits++ })
		return data, LevelL1, nil
	}

	if data, ok := m.l2.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L2Hits++; s.Promotions++ })
		// Promotion is best effort.
		if err := m.l1.Put(key, data); err != nil {
			m.logger.Debug("not promoted", "key", short(key), "err", err)
		}
		return data, LevelL2, nil
	}

	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, 0, ErrCacheMiss
}

// Put stores value on both levels. A value too large for one level is
// still stored on the other.
func (m *Manager) Put(key string, value []byte) error {
	errL1 := m.l1.Put(key, value)
	if errL1 != nil && !errors.Is(errL1, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", errL1)
	}

	errL2 := m.l2.Put(key, value)
	if errL2 != nil && !errors.Is(errL2, ErrItemTooLarge) {
		return fmt.Errorf("L2 cache error: %w", errL2)
	}

	if errL1 != nil && errL2 != nil {
		return ErrItemTooLarge
	}
	m.logger.Debug("stored", "key", short(key), "bytes", len(value))
	return nil
}

// Delete removes key from both levels.
func (m *Manager) Delete(key string) error {
	return errors.Join(m.l1.Delete(key), m.l2.Delete(key))
}

// Clear empties both levels.
func (m *Manager) Clear() error {
	return errors.Join(m.l1.Clear(), m.l2.Clear())
}

// Prune drops entries last accessed before cutoff from both levels and
// returns how many were removed from disk.
func (m *Manager) Prune(cutoff time.Time) int {
	keys := m.l2.RemoveIdleSince(cutoff)
	for _, key := range keys {
		_ = m.l1.Delete(key)
	}
	if len(keys) > 0 {
		m.logger.Debug("pruned", "entries", len(keys), "idle_since", cutoff)
	}
	return len(keys)
}

// Stats returns the counters of the manager and both levels.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.L1 = m.l1.Stats()
	stats.L2 = m.l2.Stats()
	return stats
}

// Close persists the disk index.
func (m *Manager) Close() error {
	if err := m.l2.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(fn func(*ManagerStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
