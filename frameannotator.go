// Package frameannotator draws, edits and persists bounding boxes over a
// sequence of frames taken from a video or a photo set.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		frameannotator "github.com/menta2k/frame-annotator"
//		"github.com/menta2k/frame-annotator/internal/config"
//		"github.com/menta2k/frame-annotator/pkg/types"
//	)
//
//	func main() {
//		fa, err := frameannotator.New(config.Default(), nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		s, err := fa.ImportImages("out", []string{"a.jpg", "b.png"}, []string{"cat", "dog"})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer s.Close()
//
//		if _, err := s.AddBox(types.R(10, 10, 120, 80), "cat"); err != nil {
//			log.Println(err)
//		}
//		s.Next()
//	}
//
// The engine is split into small packages:
//
//  1. geometry (pkg/geometry): display to image coordinate mapping
//  2. boxes (pkg/boxes): per-frame box list, hit testing and selection
//  3. history (pkg/history): undo and redo over box snapshots
//  4. labelfmt (pkg/labelfmt): normalized label files and the vocabulary
//  5. session (pkg/session): navigation, persistence and autosave
//
// Output directories contain frames/, labels/ and a session_info.json
// descriptor that lets a session be resumed later.
package frameannotator

import (
	"context"
	"image"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menta2k/frame-annotator/internal/config"
	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/internal/utils"
	"github.com/menta2k/frame-annotator/pkg/frames"
	"github.com/menta2k/frame-annotator/pkg/labelfmt"
	"github.com/menta2k/frame-annotator/pkg/processing"
	"github.com/menta2k/frame-annotator/pkg/session"
	"github.com/menta2k/frame-annotator/pkg/types"
	"github.com/menta2k/frame-annotator/pkg/video"
	"github.com/menta2k/frame-annotator/pkg/workspace"
)

// Version of the frame annotator library
const Version = "1.0.0"

// ErrFramesExist is returned when extracting into a directory that already
// has frames. Their label files would attach to the new frames.
var ErrFramesExist = errors.New("output directory already contains frames")

// Annotator creates and resumes annotation sessions
type Annotator struct {
	cfg       *config.Config
	logger    *zap.Logger
	proc      *processing.Processor
	loader    *frames.Loader
	extractor video.Extractor
	opts      []session.Option
}

// New creates an annotator. A nil config means defaults.
func New(cfg *config.Config, logger *zap.Logger) (*Annotator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	logger = logging.OrNop(logger)
	proc := processing.NewProcessor()
	return &Annotator{
		cfg:       cfg,
		logger:    logger,
		proc:      proc,
		loader:    frames.NewLoader(proc, logger),
		extractor: video.NewGocvExtractor(cfg.Extraction.JPEGQuality, logger),
	}, nil
}

// WithExtractor replaces the video decoder
func (a *Annotator) WithExtractor(e video.Extractor) *Annotator {
	a.extractor = e
	return a
}

// WithSessionOptions adds options applied to every session created
func (a *Annotator) WithSessionOptions(opts ...session.Option) *Annotator {
	a.opts = append(a.opts, opts...)
	return a
}

// Config returns the active configuration
func (a *Annotator) Config() *config.Config { return a.cfg }

// Workspace opens an output directory with the configured descriptor name
func (a *Annotator) Workspace(outputDir string) *workspace.Workspace {
	return workspace.Open(outputDir, a.logger).WithDescriptorName(a.cfg.Output.SessionFile)
}

// ImportImages copies photos into outputDir as frames and opens a session
// on the first new frame. Labels are added to the vocabulary.
func (a *Annotator) ImportImages(outputDir string, photos []string, labels []string) (*session.Session, error) {
	ws := a.Workspace(outputDir)
	written, err := a.loader.Import(photos, ws.FramesDir(), a.cfg.Extraction.JPEGQuality)
	if err != nil {
		return nil, errors.Wrap(err, "import failed")
	}
	source := ""
	if len(photos) > 0 {
		source = filepath.Dir(photos[0])
	}
	desc, err := a.descriptorFor(ws, source, true, labels)
	if err != nil {
		return nil, err
	}
	desc.CurrentFrameIndex = a.firstIndex(ws, written)
	return a.open(ws, desc)
}

// ExtractVideo decodes every interval-th frame of videoPath into outputDir
// and opens a session on frame 0. A non-positive interval uses the config.
// outputDir must not hold frames yet; use Resume to continue a session.
func (a *Annotator) ExtractVideo(ctx context.Context, videoPath, outputDir string, interval int, labels []string) (*session.Session, error) {
	if interval <= 0 {
		interval = a.cfg.Extraction.Interval
	}
	ws := a.Workspace(outputDir)
	existing, err := utils.ListFrames(ws.FramesDir())
	if err != nil {
		return nil, errors.Wrap(err, "failed to list frames")
	}
	if len(existing) > 0 {
		return nil, errors.Wrapf(ErrFramesExist, "%s has %d frames", ws.FramesDir(), len(existing))
	}
	if _, err := a.extractor.Extract(ctx, videoPath, ws.FramesDir(), interval); err != nil {
		return nil, errors.Wrap(err, "extraction failed")
	}
	desc, err := a.descriptorFor(ws, videoPath, false, labels)
	if err != nil {
		return nil, err
	}
	desc.CurrentFrameIndex = 0
	return a.open(ws, desc)
}

// Resume reopens a previous session from its descriptor
func (a *Annotator) Resume(outputDir string) (*session.Session, error) {
	ws := a.Workspace(outputDir)
	desc, err := ws.LoadDescriptor()
	if err != nil {
		return nil, err
	}
	return a.open(ws, desc)
}

func (a *Annotator) descriptorFor(ws *workspace.Workspace, source string, isImageSet bool, labels []string) (*workspace.Descriptor, error) {
	desc, err := ws.LoadDescriptor()
	if errors.Is(err, workspace.ErrNoDescriptor) {
		desc = workspace.NewDescriptor(source, ws.Root, isImageSet)
	} else if err != nil {
		return nil, err
	}
	vocab := labelfmt.NewVocabulary(desc.Labels...)
	for _, l := range labels {
		if err := vocab.Add(l); err != nil && !errors.Is(err, labelfmt.ErrDuplicateLabel) {
			return nil, errors.Wrapf(err, "label %q", l)
		}
	}
	desc.Labels = vocab.Names()
	return desc, nil
}

// firstIndex finds the sequence position of the first newly written frame
func (a *Annotator) firstIndex(ws *workspace.Workspace, written []string) int {
	all, err := utils.ListFrames(ws.FramesDir())
	if err != nil || len(written) == 0 {
		return 0
	}
	for i, p := range all {
		if filepath.Base(p) == filepath.Base(written[0]) {
			return i
		}
	}
	return 0
}

func (a *Annotator) open(ws *workspace.Workspace, desc *workspace.Descriptor) (*session.Session, error) {
	seq, err := a.loader.LoadDir(ws.FramesDir())
	if err != nil {
		return nil, err
	}
	s, err := session.New(ws, seq, desc, a.cfg.Session(), a.logger, a.opts...)
	if err != nil {
		return nil, err
	}
	res, err := s.Goto(desc.CurrentFrameIndex)
	if err != nil {
		return nil, err
	}
	if len(res.Warnings) > 0 {
		a.logger.Warn("label warnings on resume", zap.Int("frame", res.Index), zap.Int("count", len(res.Warnings)))
	}
	return s, nil
}

// OverlayStyle builds render colors from the config
func (a *Annotator) OverlayStyle() (processing.OverlayStyle, error) {
	style := processing.DefaultOverlayStyle()
	var err error
	if style.DefaultColor, err = processing.ParseHexColor(a.cfg.Render.DefaultColor); err != nil {
		return style, errors.Wrap(err, "render.default_color")
	}
	if style.SelectedColor, err = processing.ParseHexColor(a.cfg.Render.SelectedColor); err != nil {
		return style, errors.Wrap(err, "render.selected_color")
	}
	if style.GridColor, err = processing.ParseHexColor(a.cfg.Grid.Color); err != nil {
		return style, errors.Wrap(err, "grid.color")
	}
	for label, hex := range a.cfg.Render.LabelColors {
		c, err := processing.ParseHexColor(hex)
		if err != nil {
			return style, errors.Wrapf(err, "render.label_colors[%s]", label)
		}
		style.LabelColors[label] = c
	}
	return style, nil
}

// RenderFrame writes a preview of the session's current frame with its boxes.
// When the session has a display size the preview matches the display,
// including zoom and grid; otherwise it is drawn at native resolution.
func (a *Annotator) RenderFrame(s *session.Session, dest string) error {
	frame, ok := s.Frame()
	if !ok {
		return session.ErrNoFrame
	}
	view, err := s.View()
	if err != nil {
		return err
	}
	style, err := a.OverlayStyle()
	if err != nil {
		return err
	}
	img, err := a.proc.LoadImage(frame.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", frame.Path)
	}

	var out image.Image
	if view.Viewport.Display != frame.Size || view.Grid {
		grid := 0
		if view.Grid {
			grid = view.GridSize
		}
		out = a.proc.RenderView(img, view.Viewport, view.Boxes, view.Selected, grid, style)
	} else {
		out = a.proc.CreateOverlay(img, view.Boxes, view.Selected, style)
	}
	if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
		return errors.Wrap(err, "failed to create render directory")
	}
	format := utils.GetFileExtension(dest)
	if format == "" {
		format = a.cfg.Render.Format
	}
	return a.proc.SaveImage(out, dest, format, a.cfg.Extraction.JPEGQuality, true)
}

// FileReport lists decode problems of one label file
type FileReport struct {
	Path     string
	Boxes    int
	Warnings []types.Warning
}

// Validate decodes every label file of outputDir against the stored
// vocabulary and frame sizes. Label files without a matching frame are
// reported as a warning.
func (a *Annotator) Validate(outputDir string) ([]FileReport, error) {
	ws := a.Workspace(outputDir)
	desc, err := ws.LoadDescriptor()
	if err != nil {
		return nil, err
	}
	vocab := labelfmt.NewVocabulary(desc.Labels...)
	files, err := ws.LabelFiles()
	if err != nil {
		return nil, err
	}

	var reports []FileReport
	for _, lf := range files {
		report := FileReport{Path: lf}
		framePath := filepath.Join(ws.FramesDir(), utils.Stem(lf)+".jpg")
		size, err := a.proc.ImageSize(framePath)
		if err != nil {
			report.Warnings = append(report.Warnings, types.Warning{Reason: "no readable frame for label file"})
			reports = append(reports, report)
			continue
		}
		data, _, err := ws.ReadLabels(framePath)
		if err != nil {
			return nil, err
		}
		decoded, warnings := labelfmt.Decode(data, vocab, size.W, size.H)
		report.Boxes = len(decoded)
		report.Warnings = warnings
		reports = append(reports, report)
	}
	return reports, nil
}

// GetVersion returns the version of the library
func GetVersion() string {
	return Version
}
