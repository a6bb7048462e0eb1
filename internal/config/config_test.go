package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/idphoto/pkg/composite"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Tone.Brightness = 20
	cfg.Beauty.Smoothing = 40
	cfg.Background.Mode = "radial"
	cfg.Layout.Styles = []layout.Style{{
		Name:    "visa-6",
		Paper:   "4r",
		Margins: layout.UniformMargins(3),
		Photos:  []layout.StylePhoto{{Size: "visa", Orientation: layout.Horizontal, Count: 6}},
	}}

	for _, name := range []string{"config.json", "nested/config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path), name)

		loaded, err := LoadFromFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, cfg, loaded, name)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tone:\n  contrast: 15\noutput:\n  format: png\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Tone.Contrast)
	assert.Equal(t, types.IdentityLevels(), cfg.Tone.Levels)
	assert.Equal(t, "png", cfg.Output.Format)
	assert.Equal(t, 95, cfg.Output.Quality)
	assert.Equal(t, 300, cfg.Layout.DPI)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Detection.Backend = "opencv" }},
		{"pigo without cascade", func(c *Config) { c.Detection.Backend = BackendPigo }},
		{"locator without model", func(c *Config) { c.Detection.Backend = BackendOllama; c.Detection.Locator.Model = "" }},
		{"confidence", func(c *Config) { c.Detection.Locator.MinConfidence = 2 }},
		{"tone", func(c *Config) { c.Tone.Hue = 200 }},
		{"levels gamma", func(c *Config) { c.Tone.Levels.Gamma = 0 }},
		{"beauty", func(c *Config) { c.Beauty.SlimFace = 101 }},
		{"background colour", func(c *Config) { c.Background.Color = "mauve-ish" }},
		{"background mode", func(c *Config) { c.Background.Mode = "diagonal" }},
		{"dpi", func(c *Config) { c.Layout.DPI = 0 }},
		{"style", func(c *Config) { c.Layout.Style = "nope" }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
		{"quality", func(c *Config) { c.Output.Quality = 0 }},
		{"max size", func(c *Config) { c.Output.MaxSizeKB = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBackgroundResolve(t *testing.T) {
	bg, err := BackgroundConfig{Mode: "solid", Color: "#102030"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, composite.ModeSolid, bg.Mode)
	assert.Equal(t, uint8(0x20), bg.Color.G)

	bg, err = BackgroundConfig{Mode: "vertical", Start: "white", End: "dark blue", Strength: -50}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, composite.White, bg.Start)
	assert.Equal(t, composite.DarkBlue, bg.End)
	assert.Equal(t, -50, bg.Strength)

	_, err = BackgroundConfig{Mode: "radial", Start: "white", End: "blue", Strength: 150}.Resolve()
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))
}

func TestFindStyleCustomFirst(t *testing.T) {
	l := LayoutConfig{Styles: []layout.Style{{Name: "1inch-9", Paper: "a4"}}}
	style, err := l.FindStyle("1INCH-9")
	require.NoError(t, err)
	assert.Equal(t, "a4", style.Paper)

	style, err = l.FindStyle("2inch-8")
	require.NoError(t, err)
	assert.Equal(t, "4r", style.Paper)
	assert.Len(t, l.AllStyles(), 4)
}

func TestGetConfigPath(t *testing.T) {
	assert.Contains(t, GetConfigPath(), "config.yaml")
}
