package session

import (
	"time"

	"github.com/menta2k/frame-annotator/pkg/boxes"
	"github.com/menta2k/frame-annotator/pkg/geometry"
	"github.com/menta2k/frame-annotator/pkg/labelfmt"
)

// Settings is the operator-tunable state of a session. It is passed in
// explicitly so a session can be built without any display surface.
type Settings struct {
	MinBoxSize int
	ZoomMin    float64
	ZoomMax    float64
	ZoomStep   float64
	PageSize   int
	// SaveOnEdit persists the frame after every mutation
	SaveOnEdit bool

	GridEnabled bool
	GridSize    int

	AutosaveEnabled  bool
	AutosaveInterval time.Duration

	Precision int
}

// DefaultSettings mirrors the defaults of the config file
func DefaultSettings() Settings {
	return Settings{
		MinBoxSize:       boxes.DefaultMinSize,
		ZoomMin:          geometry.DefaultMinZoom,
		ZoomMax:          geometry.DefaultMaxZoom,
		ZoomStep:         geometry.DefaultZoomStep,
		PageSize:         10,
		SaveOnEdit:       true,
		GridSize:         50,
		AutosaveInterval: 60 * time.Second,
		Precision:        labelfmt.DefaultPrecision,
	}
}

// withDefaults fills zero values so a partially built Settings still works
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MinBoxSize <= 0 {
		s.MinBoxSize = d.MinBoxSize
	}
	if s.ZoomMin <= 0 {
		s.ZoomMin = d.ZoomMin
	}
	if s.ZoomMax < s.ZoomMin {
		s.ZoomMax = d.ZoomMax
	}
	if s.ZoomStep <= 0 {
		s.ZoomStep = d.ZoomStep
	}
	if s.PageSize <= 0 {
		s.PageSize = d.PageSize
	}
	if s.GridSize <= 0 {
		s.GridSize = d.GridSize
	}
	if s.AutosaveInterval <= 0 {
		s.AutosaveInterval = d.AutosaveInterval
	}
	if s.Precision == 0 {
		s.Precision = d.Precision
	}
	return s
}
