package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/engine"
)

func TestParseEmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), cfg)
}

func TestParseOverlaysDeclaredFields(t *testing.T) {
	doc := `
[engine]
max_key_size = 256
resident_keys_cap = 1000
compaction_ratio = 3.0
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxKeySize)
	assert.Equal(t, 1000, cfg.ResidentKeysCap)
	assert.Equal(t, 3.0, cfg.CompactionRatio)
	assert.Equal(t, engine.DefaultConfig().MaxValueSize, cfg.MaxValueSize)
}

func TestParseAutoCompactExplicitFalseOverridesDefault(t *testing.T) {
	require.True(t, engine.DefaultConfig().AutoCompact)

	doc := `
[engine]
auto_compact = false
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.False(t, cfg.AutoCompact)
}

func TestParseAutoCompactAbsentKeepsDefault(t *testing.T) {
	doc := `
[engine]
max_key_size = 64
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, cfg.AutoCompact)
}

func TestParseMalformedTOMLErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("not = [valid"))
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/does/not/exist.toml")
	assert.Error(t, err)
}
