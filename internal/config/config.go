// Package config loads the optional TOML engine-tuning file: max key/value
// size, preallocation cap, resident-key cap, compaction thresholds, and
// auto-compact, the same declarative role smf's internal/parser/toml plays
// for schema dumps.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"tegdb/internal/engine"
)

// tomlConfig is the top-level TOML document shape: "[engine]" maps
// directly onto engine.Config's tuning knobs.
type tomlConfig struct {
	Engine tomlEngine `toml:"engine"`
}

type tomlEngine struct {
	MaxKeySize           int     `toml:"max_key_size"`
	MaxValueSize         int     `toml:"max_value_size"`
	PreallocCap          int64   `toml:"prealloc_cap"`
	ResidentKeysCap      int     `toml:"resident_keys_cap"`
	AutoCompact          *bool   `toml:"auto_compact"`
	CompactionRatio      float64 `toml:"compaction_ratio"`
	CompactionFloorRatio float64 `toml:"compaction_floor_ratio"`
}

// Load reads path as a TOML engine-config file, overlaying its values onto
// engine.DefaultConfig.
func Load(path string) (engine.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads TOML content from r and overlays it onto engine.DefaultConfig.
func Parse(r io.Reader) (engine.Config, error) {
	var tc tomlConfig
	if _, err := toml.NewDecoder(r).Decode(&tc); err != nil {
		return engine.Config{}, fmt.Errorf("config: decode error: %w", err)
	}

	cfg := engine.DefaultConfig()
	e := tc.Engine
	if e.MaxKeySize != 0 {
		cfg.MaxKeySize = e.MaxKeySize
	}
	if e.MaxValueSize != 0 {
		cfg.MaxValueSize = e.MaxValueSize
	}
	if e.PreallocCap != 0 {
		cfg.PreallocCap = e.PreallocCap
	}
	if e.ResidentKeysCap != 0 {
		cfg.ResidentKeysCap = e.ResidentKeysCap
	}
	if e.CompactionRatio != 0 {
		cfg.CompactionRatio = e.CompactionRatio
	}
	if e.CompactionFloorRatio != 0 {
		cfg.CompactionFloorRatio = e.CompactionFloorRatio
	}
	if e.AutoCompact != nil {
		cfg.AutoCompact = *e.AutoCompact
	}
	return cfg, nil
}
