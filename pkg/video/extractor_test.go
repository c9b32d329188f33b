package video

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMissingVideo(t *testing.T) {
	e := NewGocvExtractor(0, nil)
	assert.Equal(t, 95, e.JPEGQuality)

	written, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), t.TempDir(), 30)
	assert.Error(t, err)
	assert.Empty(t, written)
}
