package processing

import (
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/frame-annotator/pkg/geometry"
	"github.com/menta2k/frame-annotator/pkg/types"
)

// Processor handles frame decoding, encoding and overlay rendering
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.Contains(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, errors.Errorf("image: unknown format for %s", path)
}

// ImageSize reads only the header of an image to find its dimensions
func (p *Processor) ImageSize(path string) (types.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Size{}, errors.Wrap(err, "failed to open frame")
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		if _, serr := f.Seek(0, 0); serr != nil {
			return types.Size{}, errors.Wrap(serr, "failed to rewind frame")
		}
		wcfg, werr := webp.DecodeConfig(f)
		if werr != nil {
			return types.Size{}, errors.Wrapf(err, "failed to read dimensions of %s", path)
		}
		cfg = wcfg
	}
	return types.Size{W: cfg.Width, H: cfg.Height}, nil
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// OverlayStyle controls box colors in rendered previews
type OverlayStyle struct {
	LabelColors   map[string]color.NRGBA
	DefaultColor  color.NRGBA
	SelectedColor color.NRGBA
	GridColor     color.NRGBA
	Captions      bool
}

// DefaultOverlayStyle returns red boxes, green selection and captions on
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		LabelColors:   map[string]color.NRGBA{},
		DefaultColor:  color.NRGBA{255, 0, 0, 255},
		SelectedColor: color.NRGBA{0, 255, 0, 255},
		GridColor:     color.NRGBA{128, 128, 128, 255},
		Captions:      true,
	}
}

func (s OverlayStyle) colorFor(b types.Box, selected bool) color.NRGBA {
	if selected {
		return s.SelectedColor
	}
	if c, ok := s.LabelColors[b.Label]; ok {
		return c
	}
	return s.DefaultColor
}

// CreateOverlay draws boxes on a copy of img at native resolution
func (p *Processor) CreateOverlay(img image.Image, boxes []types.Box, selected map[int]bool, style OverlayStyle) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h)))) // ~0.4% of min side

	for i, b := range boxes {
		c := style.colorFor(b, selected[i])
		drawRect(nrgba, b.Rect, c, stroke)
		if style.Captions {
			drawCaption(nrgba, b.Label, b.X1, b.Y1, c)
		}
	}
	return nrgba
}

// RenderView draws the frame as it appears on a display surface of the
// viewport's size: scaled, centered, with boxes and an optional grid.
func (p *Processor) RenderView(img image.Image, vp geometry.Viewport, boxes []types.Box, selected map[int]bool, gridSize int, style OverlayStyle) *image.NRGBA {
	canvas := imaging.New(maxInt(vp.Display.W, 1), maxInt(vp.Display.H, 1), color.NRGBA{0, 0, 0, 255})
	sz := vp.DisplayedSize()
	scaled := imaging.Resize(img, sz.W, sz.H, imaging.Linear)
	canvas = imaging.Paste(canvas, scaled, image.Pt(vp.Offset().X, vp.Offset().Y))

	if gridSize > 0 {
		xs, ys := vp.GridLines(gridSize)
		off := vp.Offset()
		for _, x := range xs {
			drawVLine(canvas, x, off.Y, off.Y+sz.H, style.GridColor)
		}
		for _, y := range ys {
			drawHLine(canvas, y, off.X, off.X+sz.W, style.GridColor)
		}
	}

	for i, b := range boxes {
		c := style.colorFor(b, selected[i])
		r := vp.RectToDisplay(b.Rect)
		drawRect(canvas, r, c, 2)
		if style.Captions {
			drawCaption(canvas, b.Label, r.X1, r.Y1, c)
		}
	}
	return canvas
}

// ParseHexColor parses #rrggbb or #rgb
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, errors.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Helper functions
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// drawRect strokes r inward; r uses inclusive pixel corners
func drawRect(img *image.NRGBA, r types.Rect, c color.NRGBA, stroke int) {
	r = r.Normalize()
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Y1+s, r.X1, r.X2+1, c)
		drawHLine(img, r.Y2-s, r.X1, r.X2+1, c)
		drawVLine(img, r.X1+s, r.Y1, r.Y2+1, c)
		drawVLine(img, r.X2-s, r.Y1, r.Y2+1, c)
	}
}

// drawCaption writes label above (x, y), or just inside the box when there
// is no room above.
func drawCaption(img *image.NRGBA, label string, x, y int, c color.NRGBA) {
	if label == "" {
		return
	}
	face := basicfont.Face7x13
	baseline := y - 3
	if baseline-face.Ascent < 0 {
		baseline = y + face.Ascent + 2
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x+2, baseline),
	}
	d.DrawString(label)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
