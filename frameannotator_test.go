package frameannotator

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/frame-annotator/internal/config"
	"github.com/menta2k/frame-annotator/internal/utils"
	"github.com/menta2k/frame-annotator/pkg/processing"
	"github.com/menta2k/frame-annotator/pkg/types"
	"github.com/menta2k/frame-annotator/pkg/workspace"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 100, 255})
		}
	}
	return img
}

func writePhotos(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	p := processing.NewProcessor()
	var out []string
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, "photo"+string(rune('a'+i))+".png")
		require.NoError(t, p.SaveImage(createTestImage(400, 200), path, "png", 90, false))
		out = append(out, path)
	}
	return out
}

// fakeExtractor writes frames without decoding a real video
type fakeExtractor struct{ frames int }

func (f fakeExtractor) Extract(_ context.Context, _, framesDir string, _ int) ([]string, error) {
	p := processing.NewProcessor()
	if err := utils.EnsureDir(framesDir); err != nil {
		return nil, err
	}
	var out []string
	for i := 0; i < f.frames; i++ {
		path := filepath.Join(framesDir, utils.FrameName(i))
		if err := p.SaveImage(createTestImage(320, 240), path, "jpg", 90, false); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

func TestNew(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, fa.Config())

	bad := config.Default()
	bad.Annotation.PageSize = 0
	_, err = New(bad, nil)
	assert.Error(t, err)
}

func TestImportAnnotateResume(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	out := t.TempDir()

	s, err := fa.ImportImages(out, writePhotos(t, 3), []string{"dog", "person", "cat"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.FrameCount())
	assert.Equal(t, 0, s.Index())

	_, err = s.AddBox(types.R(100, 50, 300, 150), "cat")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(filepath.Join(out, "labels", "frame_000000.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2 0.500000 0.500000 0.500000 0.500000\n", string(data))

	resumed, err := fa.Resume(out)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Index())
	assert.Equal(t, []string{"dog", "person", "cat"}, resumed.Labels())
	assert.True(t, resumed.Descriptor().IsImageSet)

	_, err = resumed.Prev()
	require.NoError(t, err)
	require.Len(t, resumed.Boxes(), 1)
	assert.Equal(t, "cat", resumed.Boxes()[0].Label)
}

func TestImportAppendsAndKeepsVocabulary(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	out := t.TempDir()

	s, err := fa.ImportImages(out, writePhotos(t, 2), []string{"dog"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = fa.ImportImages(out, writePhotos(t, 1), []string{"dog", "cat"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.FrameCount())
	assert.Equal(t, 2, s.Index(), "opens on the first newly imported frame")
	assert.Equal(t, []string{"dog", "cat"}, s.Labels())
}

func TestImportNothingReadable(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	bad := filepath.Join(t.TempDir(), "x.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

	out := t.TempDir()
	_, err = fa.ImportImages(out, []string{bad}, nil)
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(out, workspace.DescriptorName))
	assert.True(t, os.IsNotExist(err))
}

func TestResumeWithoutDescriptor(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	_, err = fa.Resume(t.TempDir())
	assert.True(t, errors.Is(err, workspace.ErrNoDescriptor))
}

func TestExtractVideoWithInjectedExtractor(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	fa.WithExtractor(fakeExtractor{frames: 4})

	out := t.TempDir()
	s, err := fa.ExtractVideo(context.Background(), "/videos/clip.mp4", out, 0, []string{"car"})
	require.NoError(t, err)
	assert.Equal(t, 4, s.FrameCount())
	d := s.Descriptor()
	assert.Equal(t, "/videos/clip.mp4", d.SourcePath)
	assert.False(t, d.IsImageSet)
	f, ok := s.Frame()
	require.True(t, ok)
	assert.Equal(t, types.Size{W: 320, H: 240}, f.Size)
}

func TestExtractVideoRefusesExistingFrames(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	fa.WithExtractor(fakeExtractor{frames: 2})

	out := t.TempDir()
	s, err := fa.ExtractVideo(context.Background(), "/videos/a.mp4", out, 0, []string{"car"})
	require.NoError(t, err)
	_, err = s.AddBox(types.R(10, 10, 100, 100), "car")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = fa.ExtractVideo(context.Background(), "/videos/b.mp4", out, 0, nil)
	assert.True(t, errors.Is(err, ErrFramesExist))

	d, err := fa.Workspace(out).LoadDescriptor()
	require.NoError(t, err)
	assert.Equal(t, "/videos/a.mp4", d.SourcePath)
}

func TestRenderFrameAndValidate(t *testing.T) {
	fa, err := New(nil, nil)
	require.NoError(t, err)
	out := t.TempDir()

	s, err := fa.ImportImages(out, writePhotos(t, 2), []string{"dog", "cat"})
	require.NoError(t, err)
	_, err = s.AddBox(types.R(10, 10, 100, 100), "dog")
	require.NoError(t, err)

	dest := filepath.Join(out, "previews", "frame_000000.png")
	require.NoError(t, fa.RenderFrame(s, dest))
	size, err := processing.NewProcessor().ImageSize(dest)
	require.NoError(t, err)
	assert.Equal(t, types.Size{W: 400, H: 200}, size)

	s.SetDisplaySize(types.Size{W: 800, H: 800})
	s.ToggleGrid()
	require.NoError(t, fa.RenderFrame(s, dest))
	size, err = processing.NewProcessor().ImageSize(dest)
	require.NoError(t, err)
	assert.Equal(t, types.Size{W: 800, H: 800}, size)
	require.NoError(t, s.Close())

	// corrupt the second frame's labels
	require.NoError(t, os.WriteFile(filepath.Join(out, "labels", "frame_000001.txt"), []byte("7 0.5 0.5 0.1 0.1\n"), 0644))
	reports, err := fa.Validate(out)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Boxes)
	assert.Empty(t, reports[0].Warnings)
	assert.Equal(t, 0, reports[1].Boxes)
	assert.Len(t, reports[1].Warnings, 1)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
