// Package frames manages the ordered frame images of an output directory.
package frames

import (
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/internal/utils"
	"github.com/menta2k/frame-annotator/pkg/processing"
	"github.com/menta2k/frame-annotator/pkg/types"
)

// ErrNoFrames is returned when a load or import produced no usable frame
var ErrNoFrames = errors.New("no frames could be loaded")

// Frame is one decodable image in the sequence
type Frame struct {
	Index int
	Path  string
	Size  types.Size
}

// Sequence is an ordered, immutable list of frames
type Sequence struct {
	frames []Frame
}

// NewSequence wraps already probed frames, renumbering them in order
func NewSequence(frames []Frame) *Sequence {
	out := make([]Frame, len(frames))
	for i, f := range frames {
		f.Index = i
		out[i] = f
	}
	return &Sequence{frames: out}
}

// Len returns the number of frames
func (s *Sequence) Len() int { return len(s.frames) }

// At returns frame i
func (s *Sequence) At(i int) (Frame, bool) {
	if i < 0 || i >= len(s.frames) {
		return Frame{}, false
	}
	return s.frames[i], true
}

// Paths returns the frame paths in order
func (s *Sequence) Paths() []string {
	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Path
	}
	return out
}

// Loader probes frame files with the image processor
type Loader struct {
	proc   *processing.Processor
	logger *zap.Logger
}

// NewLoader creates a loader; a nil logger discards output
func NewLoader(proc *processing.Processor, logger *zap.Logger) *Loader {
	if proc == nil {
		proc = processing.NewProcessor()
	}
	return &Loader{proc: proc, logger: logging.OrNop(logger)}
}

// LoadDir reads frame_*.jpg from dir in name order. Frames whose dimensions
// cannot be read are skipped.
func (l *Loader) LoadDir(dir string) (*Sequence, error) {
	paths, err := utils.ListFrames(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list frames in %s", dir)
	}
	return l.probe(paths)
}

// LoadPaths probes an explicit list of frame files
func (l *Loader) LoadPaths(paths []string) (*Sequence, error) {
	return l.probe(paths)
}

func (l *Loader) probe(paths []string) (*Sequence, error) {
	var frames []Frame
	for _, p := range paths {
		size, err := l.proc.ImageSize(p)
		if err != nil {
			l.logger.Warn("skipping unreadable frame", zap.String("path", p), zap.Error(err))
			continue
		}
		frames = append(frames, Frame{Path: p, Size: size})
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	l.logger.Info("frames loaded", zap.Int("count", len(frames)))
	return NewSequence(frames), nil
}

// Import decodes each photo and writes it into framesDir as a numbered JPEG.
// Photos that fail to decode are skipped. Numbering continues after any
// frames already present.
func (l *Loader) Import(photos []string, framesDir string, quality int) ([]string, error) {
	if err := utils.EnsureDir(framesDir); err != nil {
		return nil, errors.Wrap(err, "failed to create frames directory")
	}
	existing, err := utils.ListFrames(framesDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list existing frames")
	}
	next := len(existing)

	var written []string
	for _, photo := range photos {
		img, err := l.proc.LoadImage(photo)
		if err != nil {
			l.logger.Warn("skipping unreadable photo", zap.String("path", photo), zap.Error(err))
			continue
		}
		dst := filepath.Join(framesDir, utils.FrameName(next))
		if err := l.proc.SaveImage(img, dst, "jpg", quality, false); err != nil {
			l.logger.Warn("failed to write frame", zap.String("path", dst), zap.Error(err))
			continue
		}
		written = append(written, dst)
		next++
	}
	if len(written) == 0 {
		return nil, ErrNoFrames
	}
	l.logger.Info("photos imported", zap.Int("count", len(written)), zap.String("dir", framesDir))
	return written, nil
}
