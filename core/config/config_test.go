package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty grammar", func(c *Config) { c.Grammar.Prefixes = nil; c.Grammar.Suffixes = nil }},
		{"zero min middle", func(c *Config) { c.Grammar.MinMiddleLen = 0 }},
		{"zero bins", func(c *Config) { c.Index.PositionBins = 0 }},
		{"unknown window", func(c *Config) { c.Graph.Window = "paragraph" }},
		{"same alt window", func(c *Config) { c.Graph.AltWindow = c.Graph.Window }},
		{"zero cooccurrence", func(c *Config) { c.Graph.MinCooccurrence = 0 }},
		{"gate above one", func(c *Config) { c.Graph.AgreementGate = 1.5 }},
		{"percentile at one", func(c *Config) { c.Graph.HubDegreePercentile = 1.0 }},
		{"k_min below two", func(c *Config) { c.Cluster.KMin = 1 }},
		{"k_max below k_min", func(c *Config) { c.Cluster.KMax = 1 }},
		{"zero shuffles", func(c *Config) { c.Permutation.Shuffles = 0 }},
		{"zero workers", func(c *Config) { c.Harness.Workers = 0 }},
		{"alpha at one", func(c *Config) { c.Harness.Alpha = 1.0 }},
		{"rule without patterns", func(c *Config) {
			c.Classify.Rules = []ClassRule{{Name: "bare"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *Error
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphein.yaml")
	yaml := `
grammar:
  prefixes: ["qo", "ch"]
  suffixes: ["y", "dy"]
  min_middle_len: 2
graph:
  window: folio
  alt_window: line
  min_cooccurrence: 3
permutation:
  shuffles: 500
  seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"qo", "ch"}, cfg.Grammar.Prefixes)
	assert.Equal(t, 2, cfg.Grammar.MinMiddleLen)
	assert.Equal(t, WindowFolio, cfg.Graph.Window)
	assert.Equal(t, 3, cfg.Graph.MinCooccurrence)
	assert.Equal(t, 500, cfg.Permutation.Shuffles)
	assert.Equal(t, int64(42), cfg.Permutation.Seed)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.90, cfg.Graph.AgreementGate)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph:\n  window: nonsense\n"), 0o644))

	_, err := Load(path)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
}
