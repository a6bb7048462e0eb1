package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/idphoto/pkg/beauty"
	"github.com/menta2k/idphoto/pkg/composite"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/tone"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
	"github.com/menta2k/idphoto/pkg/vision"
)

// Detection backends
const (
	BackendNone     = "none"
	BackendPigo     = "pigo"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Detection  DetectionConfig    `json:"detection" yaml:"detection"`
	Tone       types.ToneParams   `json:"tone" yaml:"tone"`
	Beauty     types.BeautyParams `json:"beauty" yaml:"beauty"`
	Background BackgroundConfig   `json:"background" yaml:"background"`
	Layout     LayoutConfig       `json:"layout" yaml:"layout"`
	Output     OutputConfig       `json:"output" yaml:"output"`
}

// DetectionConfig selects and configures the face detector
type DetectionConfig struct {
	Backend       string           `json:"backend" yaml:"backend"`
	FaceCascade   string           `json:"face_cascade" yaml:"face_cascade"`
	PuplocCascade string           `json:"puploc_cascade" yaml:"puploc_cascade"`
	Pigo          vision.Config    `json:"pigo" yaml:"pigo"`
	URL           string           `json:"url" yaml:"url"`
	Locator       detection.Config `json:"locator" yaml:"locator"`
}

// BackgroundConfig describes the replacement background. Colours are names
// or hex values.
type BackgroundConfig struct {
	Mode     string `json:"mode" yaml:"mode"`
	Color    string `json:"color" yaml:"color"`
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end" yaml:"end"`
	Strength int    `json:"strength" yaml:"strength"`
}

// LayoutConfig holds print sheet settings
type LayoutConfig struct {
	DPI    int            `json:"dpi" yaml:"dpi"`
	Style  string         `json:"style" yaml:"style"`
	Styles []layout.Style `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format    string `json:"format" yaml:"format"`
	Quality   int    `json:"quality" yaml:"quality"`
	Lossless  bool   `json:"lossless" yaml:"lossless"`
	MaxSizeKB int    `json:"max_size_kb" yaml:"max_size_kb"`
	Dir       string `json:"dir" yaml:"dir"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	Suffix    string `json:"suffix" yaml:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			Backend: BackendNone,
			Pigo:    vision.DefaultConfig(),
			URL:     "http://localhost:11434",
			Locator: detection.DefaultConfig(),
		},
		Tone:   types.NeutralTone(),
		Beauty: types.BeautyParams{},
		Background: BackgroundConfig{
			Mode:     string(composite.ModeSolid),
			Color:    "blue",
			Start:    "white",
			End:      "blue",
			Strength: 100,
		},
		Layout: LayoutConfig{
			DPI:   units.DefaultDPI,
			Style: "1inch-9",
		},
		Output: OutputConfig{
			Format:  "jpg",
			Quality: 95,
			Dir:     "./output",
			Suffix:  "_idphoto",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file, chosen by
// extension. Fields missing from the file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration as JSON or YAML, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Detection.Backend {
	case BackendNone, "":
	case BackendPigo:
		if c.Detection.FaceCascade == "" {
			return fmt.Errorf("detection.face_cascade is required for the pigo backend")
		}
	case BackendOllama, BackendLlamaCpp:
		if c.Detection.Locator.Model == "" {
			return fmt.Errorf("detection.locator.model is required for the %s backend", c.Detection.Backend)
		}
	default:
		return fmt.Errorf("detection.backend must be one of none, pigo, ollama, llamacpp")
	}
	if c.Detection.Locator.MinConfidence < 0 || c.Detection.Locator.MinConfidence > 1 {
		return fmt.Errorf("detection.locator.min_confidence must be between 0 and 1")
	}

	if err := tone.Validate(c.Tone); err != nil {
		return fmt.Errorf("tone: %w", err)
	}
	if err := beauty.Validate(c.Beauty); err != nil {
		return fmt.Errorf("beauty: %w", err)
	}
	if _, err := c.Background.Resolve(); err != nil {
		return fmt.Errorf("background: %w", err)
	}

	if c.Layout.DPI < 1 {
		return fmt.Errorf("layout.dpi must be positive")
	}
	if _, err := c.Layout.FindStyle(c.Layout.Style); err != nil {
		return fmt.Errorf("layout.style: %w", err)
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}
	if c.Output.MaxSizeKB < 0 {
		return fmt.Errorf("output.max_size_kb must not be negative")
	}
	return nil
}

// Resolve converts colour names into a renderable background
func (b BackgroundConfig) Resolve() (composite.Background, error) {
	bg := composite.Background{Mode: composite.Mode(b.Mode), Strength: b.Strength}
	if err := types.CheckRange("strength", b.Strength, -100, 100); err != nil {
		return bg, err
	}
	var err error
	if bg.Mode == composite.ModeSolid || bg.Mode == "" {
		bg.Color, err = composite.NamedColor(b.Color)
		return bg, err
	}
	if bg.Mode != composite.ModeVertical && bg.Mode != composite.ModeRadial {
		return bg, fmt.Errorf("unknown background mode %q: %w", b.Mode, types.ErrInvalidParameter)
	}
	if bg.Start, err = composite.NamedColor(b.Start); err != nil {
		return bg, err
	}
	bg.End, err = composite.NamedColor(b.End)
	return bg, err
}

// AllStyles returns the custom styles followed by the built-in ones
func (l LayoutConfig) AllStyles() []layout.Style {
	return append(append([]layout.Style(nil), l.Styles...), layout.DefaultStyles()...)
}

// FindStyle looks a style up by name, custom styles first
func (l LayoutConfig) FindStyle(name string) (layout.Style, error) {
	style, ok := layout.FindStyle(l.AllStyles(), name)
	if !ok {
		return layout.Style{}, fmt.Errorf("unknown layout style %q: %w", name, types.ErrInvalidParameter)
	}
	return style, nil
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "idphoto", "config.yaml")
}
