package engine

import "tegdb/internal/walog"

// defaultCompactionFloor is the fixed floor (10 MiB) used when no
// preallocation cap is configured.
const defaultCompactionFloor int64 = 10 * 1024 * 1024

// Config tunes the storage engine and the log backend beneath it.
type Config struct {
	// MaxKeySize / MaxValueSize bound a single record; zero selects the
	// log backend's defaults (1 KiB keys, 256 KiB values).
	MaxKeySize   int
	MaxValueSize int

	// PreallocCap, if non-zero, hard-bounds the log file's size.
	PreallocCap int64

	// ResidentKeysCap, if non-zero, hard-bounds the number of live keys the
	// in-memory map may hold; exceeding it on insertion or during replay
	// fails with dberr.ErrOutOfMemoryQuota.
	ResidentKeysCap int

	// AutoCompact runs the compaction trigger once after replay, in
	// addition to after every Set.
	AutoCompact bool

	// CompactionRatio is the (log size / active data size) ratio that, once
	// exceeded alongside the floor, triggers compaction. Zero selects 2.0.
	CompactionRatio float64

	// CompactionFloorRatio derives the floor from PreallocCap (floor =
	// PreallocCap * CompactionFloorRatio) when PreallocCap is set. Zero
	// selects 0.5.
	CompactionFloorRatio float64
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		AutoCompact:          true,
		CompactionRatio:      2.0,
		CompactionFloorRatio: 0.5,
	}
}

func (c Config) compactionRatio() float64 {
	if c.CompactionRatio > 0 {
		return c.CompactionRatio
	}
	return 2.0
}

func (c Config) compactionFloorRatio() float64 {
	if c.CompactionFloorRatio > 0 {
		return c.CompactionFloorRatio
	}
	return 0.5
}

func (c Config) compactionFloor() int64 {
	if c.PreallocCap > 0 {
		return int64(float64(c.PreallocCap) * c.compactionFloorRatio())
	}
	return defaultCompactionFloor
}

func (c Config) logConfig() walog.Config {
	return walog.Config{
		MaxKeySize:   c.MaxKeySize,
		MaxValueSize: c.MaxValueSize,
		PreallocCap:  c.PreallocCap,
	}
}
