// Package video turns a video file into a numbered frame sequence.
package video

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/internal/utils"
)

// ErrNoFrames is returned when decoding yields no frame at all
var ErrNoFrames = errors.New("video produced no frames")

// Extractor writes every interval-th frame of a video into framesDir
type Extractor interface {
	Extract(ctx context.Context, videoPath, framesDir string, interval int) ([]string, error)
}

// GocvExtractor decodes with OpenCV
type GocvExtractor struct {
	JPEGQuality int
	logger      *zap.Logger
}

// NewGocvExtractor creates an extractor writing JPEGs at the given quality
func NewGocvExtractor(quality int, logger *zap.Logger) *GocvExtractor {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &GocvExtractor{JPEGQuality: quality, logger: logging.OrNop(logger)}
}

// Extract keeps frames 0, interval, 2*interval, ... and names them
// frame_000000.jpg, frame_000001.jpg, ... in output order.
func (e *GocvExtractor) Extract(ctx context.Context, videoPath, framesDir string, interval int) ([]string, error) {
	if interval < 1 {
		interval = 1
	}
	if err := utils.EnsureDir(framesDir); err != nil {
		return nil, errors.Wrap(err, "failed to create frames directory")
	}

	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video %s", videoPath)
	}
	defer vc.Close()

	total := int(vc.Get(gocv.VideoCaptureFrameCount))
	e.logger.Info("extracting frames",
		zap.String("video", videoPath),
		zap.Int("total", total),
		zap.Int("interval", interval))

	mat := gocv.NewMat()
	defer mat.Close()

	params := []int{gocv.IMWriteJpegQuality, e.JPEGQuality}
	var written []string
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return written, errors.Wrap(err, "extraction cancelled")
		}
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			break
		}
		if n%interval != 0 {
			continue
		}
		dst := filepath.Join(framesDir, utils.FrameName(len(written)))
		if ok := gocv.IMWriteWithParams(dst, mat, params); !ok {
			e.logger.Warn("failed to write frame", zap.String("path", dst), zap.Int("source_frame", n))
			continue
		}
		written = append(written, dst)
	}

	if len(written) == 0 {
		return nil, errors.Wrap(ErrNoFrames, videoPath)
	}
	e.logger.Info("frames extracted", zap.Int("count", len(written)))
	return written, nil
}
