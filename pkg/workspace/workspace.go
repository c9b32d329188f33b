// Package workspace owns the on-disk layout of an annotation output
// directory:
//
//	<root>/frames/frame_000000.jpg ...
//	<root>/labels/frame_000000.txt ...
//	<root>/session_info.json
//
// Label writes are plain overwrites. A crash in the middle of a write can
// leave a truncated label file behind.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/internal/utils"
)

// Layout of an output directory
const (
	FramesDirName  = "frames"
	LabelsDirName  = "labels"
	DescriptorName = "session_info.json"
	labelExt       = ".txt"
)

// Workspace resolves paths inside one output directory
type Workspace struct {
	Root           string
	descriptorName string
	logger         *zap.Logger
}

// Open returns a workspace rooted at root. Directories are not created until
// EnsureDirs or a write needs them.
func Open(root string, logger *zap.Logger) *Workspace {
	return &Workspace{Root: root, descriptorName: DescriptorName, logger: logging.OrNop(logger)}
}

// WithDescriptorName overrides the descriptor file name
func (w *Workspace) WithDescriptorName(name string) *Workspace {
	if name != "" {
		w.descriptorName = name
	}
	return w
}

// EnsureDirs creates the root, frames and labels directories
func (w *Workspace) EnsureDirs() error {
	for _, dir := range []string{w.Root, w.FramesDir(), w.LabelsDir()} {
		if err := utils.EnsureDir(dir); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

// FramesDir holds the frame images
func (w *Workspace) FramesDir() string { return filepath.Join(w.Root, FramesDirName) }

// LabelsDir holds one label file per annotated frame
func (w *Workspace) LabelsDir() string { return filepath.Join(w.Root, LabelsDirName) }

// DescriptorPath is the session descriptor file
func (w *Workspace) DescriptorPath() string { return filepath.Join(w.Root, w.descriptorName) }

// LabelPath maps a frame file to labels/<stem>.txt
func (w *Workspace) LabelPath(framePath string) string {
	return filepath.Join(w.LabelsDir(), utils.Stem(framePath)+labelExt)
}

// ReadLabels returns the label file content for a frame. The boolean is false
// when the frame has never been annotated.
func (w *Workspace) ReadLabels(framePath string) ([]byte, bool, error) {
	data, err := os.ReadFile(w.LabelPath(framePath))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read label file")
	}
	return data, true, nil
}

// HasLabels reports whether a label file exists for the frame
func (w *Workspace) HasLabels(framePath string) bool {
	return utils.FileExists(w.LabelPath(framePath))
}

// WriteLabels overwrites the frame's label file. Zero-length data produces an
// empty file, which is distinct from no file at all.
func (w *Workspace) WriteLabels(framePath string, data []byte) error {
	if err := utils.EnsureDir(w.LabelsDir()); err != nil {
		return errors.Wrap(err, "failed to create labels directory")
	}
	path := w.LabelPath(framePath)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	w.logger.Debug("labels written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// LabelFiles lists existing label files in name order
func (w *Workspace) LabelFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(w.LabelsDir(), "*"+labelExt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list label files")
	}
	return files, nil
}
