// Package cache provides a two-level cache for rendered PCM audio: an
// in-memory LRU cache (L1) and a persistent, zstd-compressed disk cache (L2).
package cache
