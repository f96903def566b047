package tegdb

import (
	"tegdb/internal/config"
	"tegdb/internal/engine"
)

// Config tunes the engine opened by Open. Zero numeric fields select the
// engine's defaults; the zero value's AutoCompact is false, unlike
// DefaultConfig's.
type Config struct {
	MaxKeySize           int
	MaxValueSize         int
	PreallocCap          int64
	ResidentKeysCap      int
	AutoCompact          bool
	CompactionRatio      float64
	CompactionFloorRatio float64
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	d := engine.DefaultConfig()
	return Config{
		AutoCompact:          d.AutoCompact,
		CompactionRatio:      d.CompactionRatio,
		CompactionFloorRatio: d.CompactionFloorRatio,
	}
}

// LoadConfig reads a TOML engine-config file (see internal/config).
func LoadConfig(path string) (Config, error) {
	ec, err := config.Load(path)
	if err != nil {
		return Config{}, err
	}
	return fromEngineConfig(ec), nil
}

func fromEngineConfig(ec engine.Config) Config {
	return Config{
		MaxKeySize:           ec.MaxKeySize,
		MaxValueSize:         ec.MaxValueSize,
		PreallocCap:          ec.PreallocCap,
		ResidentKeysCap:      ec.ResidentKeysCap,
		AutoCompact:          ec.AutoCompact,
		CompactionRatio:      ec.CompactionRatio,
		CompactionFloorRatio: ec.CompactionFloorRatio,
	}
}

func (c Config) toEngineConfig() engine.Config {
	return engine.Config{
		MaxKeySize:           c.MaxKeySize,
		MaxValueSize:         c.MaxValueSize,
		PreallocCap:          c.PreallocCap,
		ResidentKeysCap:      c.ResidentKeysCap,
		AutoCompact:          c.AutoCompact,
		CompactionRatio:      c.CompactionRatio,
		CompactionFloorRatio: c.CompactionFloorRatio,
	}
}
