package labelfmt

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/frame-annotator/pkg/types"
)

func TestEncodeScenario(t *testing.T) {
	vocab := NewVocabulary("dog", "person", "cat")
	data, warnings := Encode([]types.Box{{Rect: types.R(100, 50, 300, 150), Label: "cat"}}, vocab, 400, 200, DefaultPrecision)
	assert.Empty(t, warnings)
	assert.Equal(t, "2 0.500000 0.500000 0.500000 0.500000\n", string(data))
}

func TestEncodeEmptyIsZeroBytes(t *testing.T) {
	data, warnings := Encode(nil, NewVocabulary("a"), 400, 200, DefaultPrecision)
	assert.NotNil(t, data)
	assert.Len(t, data, 0)
	assert.Empty(t, warnings)
}

func TestEncodeSkipsUnknownLabel(t *testing.T) {
	vocab := NewVocabulary("a")
	data, warnings := Encode([]types.Box{
		{Rect: types.R(0, 0, 10, 10), Label: "gone"},
		{Rect: types.R(0, 0, 20, 20), Label: "a"},
	}, vocab, 100, 100, DefaultPrecision)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, `"gone"`)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.True(t, strings.HasPrefix(string(data), "0 "))
}

func TestEncodeNativePrecision(t *testing.T) {
	vocab := NewVocabulary("a")
	data, _ := Encode([]types.Box{{Rect: types.R(0, 0, 100, 50), Label: "a"}}, vocab, 200, 100, NativePrecision)
	assert.Equal(t, "0 0.25 0.25 0.5 0.5\n", string(data))
}

func TestRoundTrip(t *testing.T) {
	vocab := NewVocabulary("a", "b", "c")
	rng := rand.New(rand.NewSource(7))
	const w, h = 1920, 1080

	var in []types.Box
	for i := 0; i < 200; i++ {
		x1 := rng.Intn(w - 10)
		y1 := rng.Intn(h - 10)
		x2 := x1 + 5 + rng.Intn(w-x1-5)
		y2 := y1 + 5 + rng.Intn(h-y1-5)
		in = append(in, types.Box{Rect: types.R(x1, y1, x2, y2), Label: vocab.Names()[i%3]})
	}

	data, warnings := Encode(in, vocab, w, h, DefaultPrecision)
	require.Empty(t, warnings)
	out, warnings := Decode(data, vocab, w, h)
	require.Empty(t, warnings)
	require.Len(t, out, len(in))

	for i := range in {
		assert.Equal(t, in[i].Label, out[i].Label)
		assert.InDelta(t, in[i].X1, out[i].X1, 1)
		assert.InDelta(t, in[i].Y1, out[i].Y1, 1)
		assert.InDelta(t, in[i].X2, out[i].X2, 1)
		assert.InDelta(t, in[i].Y2, out[i].Y2, 1)
	}
}

func TestVocabularyRemovalShiftsLabels(t *testing.T) {
	vocab := NewVocabulary("a", "b", "c", "d")
	boxes := []types.Box{
		{Rect: types.R(0, 0, 10, 10), Label: "a"},
		{Rect: types.R(10, 10, 20, 20), Label: "b"},
		{Rect: types.R(20, 20, 30, 30), Label: "c"},
		{Rect: types.R(30, 30, 40, 40), Label: "d"},
	}
	data, _ := Encode(boxes, vocab, 100, 100, DefaultPrecision)

	k, err := vocab.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, 1, k)

	out, warnings := Decode(data, vocab, 100, 100)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Label)
	assert.Equal(t, "c", out[1].Label, "old id 1 now names c")
	assert.Equal(t, "d", out[2].Label, "old id 2 now names d")
	require.Len(t, warnings, 1, "old id 3 is out of range")
	assert.Equal(t, 4, warnings[0].Line)
}

func TestDecodeSkipsMalformedLines(t *testing.T) {
	vocab := NewVocabulary("a", "b")
	data := []byte(strings.Join([]string{
		"0 0.5 0.5 0.2 0.2",
		"",
		"1 0.5 0.5",
		"x 0.5 0.5 0.2 0.2",
		"1 0.5 abc 0.2 0.2",
		"-1 0.5 0.5 0.2 0.2",
		"1 0.5 0.5 0 0.2",
		"1 0.25 0.25 0.1 0.1 extra",
		"  1   0.25 0.25 0.1 0.1  ",
	}, "\n"))

	out, warnings := Decode(data, vocab, 100, 100)
	require.Len(t, out, 2)
	assert.Equal(t, types.R(40, 40, 60, 60), out[0].Rect)
	assert.Equal(t, "b", out[1].Label)
	assert.Equal(t, types.R(20, 20, 30, 30), out[1].Rect)

	lines := make([]int, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, w.Line)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, lines)
}

func TestDecodeClampsToImage(t *testing.T) {
	vocab := NewVocabulary("a")
	out, warnings := Decode([]byte("0 0.95 0.5 0.2 0.2\n"), vocab, 100, 100)
	require.Empty(t, warnings)
	require.Len(t, out, 1)
	assert.Equal(t, types.R(85, 40, 99, 60), out[0].Rect)
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary(" a ", "b", "a", "")
	assert.Equal(t, []string{"a", "b"}, v.Names())

	assert.True(t, errors.Is(v.Add("b"), ErrDuplicateLabel))
	assert.True(t, errors.Is(v.Add("   "), ErrEmptyLabel))

	_, err := v.Remove("zzz")
	assert.True(t, errors.Is(err, ErrUnknownLabel))

	name, ok := v.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "b", name)
	_, ok = v.Name(2)
	assert.False(t, ok)
}

func TestNilVocabularyIsEmpty(t *testing.T) {
	var vocab *Vocabulary
	assert.Equal(t, -1, vocab.Index("cat"))
	_, ok := vocab.Name(0)
	assert.False(t, ok)
	assert.Equal(t, 0, vocab.Len())
	assert.Empty(t, vocab.Names())

	data, warnings := Encode([]types.Box{{Rect: types.R(0, 0, 10, 10), Label: "cat"}}, nil, 100, 100, DefaultPrecision)
	assert.Len(t, data, 0)
	assert.Len(t, warnings, 1)

	boxes, warnings := Decode([]byte("0 0.5 0.5 0.1 0.1\n"), nil, 100, 100)
	assert.Empty(t, boxes)
	assert.Len(t, warnings, 1)
}
