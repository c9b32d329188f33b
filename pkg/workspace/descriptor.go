package workspace

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoDescriptor is returned when the output directory has no session file
var ErrNoDescriptor = errors.New("session descriptor not found")

// Descriptor is the resumable record of a session. The vocabulary stored here
// is the only source of class index assignment.
type Descriptor struct {
	SessionID         string    `json:"session_id"`
	SourcePath        string    `json:"video_path"`
	OutputDir         string    `json:"output_dir"`
	CurrentFrameIndex int       `json:"current_frame_idx"`
	Labels            []string  `json:"labels"`
	IsImageSet        bool      `json:"is_image_set"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewDescriptor creates a descriptor with a fresh session id
func NewDescriptor(source, outputDir string, isImageSet bool) *Descriptor {
	return &Descriptor{
		SessionID:  uuid.NewString(),
		SourcePath: source,
		OutputDir:  outputDir,
		Labels:     []string{},
		IsImageSet: isImageSet,
	}
}

// LoadDescriptor reads the session descriptor
func (w *Workspace) LoadDescriptor() (*Descriptor, error) {
	data, err := os.ReadFile(w.DescriptorPath())
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNoDescriptor, w.DescriptorPath())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read session descriptor")
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "failed to parse session descriptor")
	}
	if d.SessionID == "" {
		d.SessionID = uuid.NewString()
	}
	if d.Labels == nil {
		d.Labels = []string{}
	}
	return &d, nil
}

// SaveDescriptor stamps UpdatedAt and writes the descriptor
func (w *Workspace) SaveDescriptor(d *Descriptor) error {
	if err := w.EnsureDirs(); err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session descriptor")
	}
	if err := os.WriteFile(w.DescriptorPath(), data, 0644); err != nil {
		return errors.Wrap(err, "failed to write session descriptor")
	}
	w.logger.Debug("session descriptor saved",
		zap.String("session_id", d.SessionID),
		zap.Int("frame", d.CurrentFrameIndex))
	return nil
}
