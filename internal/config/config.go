package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/frame-annotator/pkg/session"
)

// Config holds the application configuration
type Config struct {
	Annotation AnnotationConfig `json:"annotation" yaml:"annotation"`
	Grid       GridConfig       `json:"grid" yaml:"grid"`
	Autosave   AutosaveConfig   `json:"autosave" yaml:"autosave"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Render     RenderConfig     `json:"render" yaml:"render"`
}

// AnnotationConfig holds editing limits
type AnnotationConfig struct {
	MinBoxSize int     `json:"min_box_size" yaml:"min_box_size"`
	ZoomMin    float64 `json:"zoom_min" yaml:"zoom_min"`
	ZoomMax    float64 `json:"zoom_max" yaml:"zoom_max"`
	ZoomStep   float64 `json:"zoom_step" yaml:"zoom_step"`
	PageSize   int     `json:"page_size" yaml:"page_size"`
	SaveOnEdit bool    `json:"save_on_edit" yaml:"save_on_edit"`
}

// GridConfig holds the grid overlay settings
type GridConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Size    int    `json:"size" yaml:"size"`
	Color   string `json:"color" yaml:"color"`
}

// AutosaveConfig holds periodic save settings
type AutosaveConfig struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	IntervalSeconds int  `json:"interval_seconds" yaml:"interval_seconds"`
}

// ExtractionConfig holds video and photo import settings
type ExtractionConfig struct {
	Interval    int `json:"interval" yaml:"interval"`
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// OutputConfig holds label output settings
type OutputConfig struct {
	SessionFile string `json:"session_file" yaml:"session_file"`
	Precision   int    `json:"precision" yaml:"precision"`
}

// RenderConfig holds overlay preview settings
type RenderConfig struct {
	LabelColors   map[string]string `json:"label_colors" yaml:"label_colors"`
	DefaultColor  string            `json:"default_color" yaml:"default_color"`
	SelectedColor string            `json:"selected_color" yaml:"selected_color"`
	Format        string            `json:"format" yaml:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Annotation: AnnotationConfig{
			MinBoxSize: 5,
			ZoomMin:    0.5,
			ZoomMax:    5.0,
			ZoomStep:   0.1,
			PageSize:   10,
			SaveOnEdit: true,
		},
		Grid: GridConfig{
			Enabled: false,
			Size:    50,
			Color:   "#808080",
		},
		Autosave: AutosaveConfig{
			Enabled:         false,
			IntervalSeconds: 60,
		},
		Extraction: ExtractionConfig{
			Interval:    30,
			JPEGQuality: 95,
		},
		Output: OutputConfig{
			SessionFile: "session_info.json",
			Precision:   6,
		},
		Render: RenderConfig{
			LabelColors:   map[string]string{},
			DefaultColor:  "#ff0000",
			SelectedColor: "#00ff00",
			Format:        "png",
		},
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a JSON or YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// Load reads filename when it exists and falls back to defaults otherwise
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFromFile(filename)
}

// SaveToFile saves configuration as JSON or YAML depending on the extension
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Annotation.MinBoxSize < 1 {
		return errors.New("annotation.min_box_size must be positive")
	}

	if c.Annotation.ZoomMin <= 0 || c.Annotation.ZoomMax < c.Annotation.ZoomMin {
		return errors.New("annotation.zoom_min must be positive and not above zoom_max")
	}

	if c.Annotation.ZoomStep <= 0 {
		return errors.New("annotation.zoom_step must be positive")
	}

	if c.Annotation.PageSize < 1 {
		return errors.New("annotation.page_size must be positive")
	}

	if c.Grid.Size < 1 {
		return errors.New("grid.size must be positive")
	}

	if c.Autosave.IntervalSeconds < 10 || c.Autosave.IntervalSeconds > 600 {
		return errors.New("autosave.interval_seconds must be between 10 and 600")
	}

	if c.Extraction.Interval < 1 || c.Extraction.Interval > 1000 {
		return errors.New("extraction.interval must be between 1 and 1000")
	}

	if c.Extraction.JPEGQuality < 1 || c.Extraction.JPEGQuality > 100 {
		return errors.New("extraction.jpeg_quality must be between 1 and 100")
	}

	if c.Output.SessionFile == "" {
		return errors.New("output.session_file cannot be empty")
	}

	if c.Output.Precision < 1 || c.Output.Precision > 12 {
		return errors.New("output.precision must be between 1 and 12")
	}

	switch strings.ToLower(c.Render.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return errors.Errorf("render.format %q is not supported", c.Render.Format)
	}

	return nil
}

// Session converts the annotation, grid, autosave and output sections into
// session settings
func (c *Config) Session() session.Settings {
	return session.Settings{
		MinBoxSize:       c.Annotation.MinBoxSize,
		ZoomMin:          c.Annotation.ZoomMin,
		ZoomMax:          c.Annotation.ZoomMax,
		ZoomStep:         c.Annotation.ZoomStep,
		PageSize:         c.Annotation.PageSize,
		SaveOnEdit:       c.Annotation.SaveOnEdit,
		GridEnabled:      c.Grid.Enabled,
		GridSize:         c.Grid.Size,
		AutosaveEnabled:  c.Autosave.Enabled,
		AutosaveInterval: time.Duration(c.Autosave.IntervalSeconds) * time.Second,
		Precision:        c.Output.Precision,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "frame-annotator", "config.yaml")
}
