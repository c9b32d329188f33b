package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Annotation.SaveOnEdit)
	assert.Equal(t, 5, cfg.Annotation.MinBoxSize)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"min box":  func(c *Config) { c.Annotation.MinBoxSize = 0 },
		"zoom":     func(c *Config) { c.Annotation.ZoomMax = 0.1 },
		"autosave": func(c *Config) { c.Autosave.IntervalSeconds = 5 },
		"interval": func(c *Config) { c.Extraction.Interval = 0 },
		"quality":  func(c *Config) { c.Extraction.JPEGQuality = 101 },
		"format":   func(c *Config) { c.Render.Format = "gif" },
		"session":  func(c *Config) { c.Output.SessionFile = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadJSONAndYAML(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Grid.Enabled = true
			cfg.Render.LabelColors["cat"] = "#0000ff"
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("annotation:\n  page_size: 20\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Annotation.PageSize)
	assert.Equal(t, 60, cfg.Autosave.IntervalSeconds)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSessionSettings(t *testing.T) {
	cfg := Default()
	cfg.Autosave.IntervalSeconds = 90
	st := cfg.Session()
	assert.Equal(t, 90*time.Second, st.AutosaveInterval)
	assert.Equal(t, 10, st.PageSize)
	assert.True(t, st.SaveOnEdit)
	assert.Equal(t, 6, st.Precision)
}
