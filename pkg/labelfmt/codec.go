// Package labelfmt encodes and decodes per-frame label files in the
// normalized text format:
//
//	<class_id> <x_center> <y_center> <width> <height>
//
// Coordinates are fractions of the image dimensions. An empty file means the
// frame was annotated with no boxes; a missing file means it never was.
// Problems with individual boxes or lines are reported as warnings and never
// abort the whole encode or decode.
package labelfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/frame-annotator/pkg/types"
)

// DefaultPrecision is the number of decimals written per field
const DefaultPrecision = 6

// NativePrecision writes the shortest representation that round-trips
const NativePrecision = -1

const fieldCount = 5

// ToNorm converts a pixel box to the normalized representation.
// Every field is clamped to [0, 1].
func ToNorm(r types.Rect, classID, w, h int) types.NormBox {
	fw, fh := float64(w), float64(h)
	return types.NormBox{
		ClassID: classID,
		XCenter: clamp01(float64(r.X1+r.X2) / (2 * fw)),
		YCenter: clamp01(float64(r.Y1+r.Y2) / (2 * fh)),
		Width:   clamp01(float64(r.X2-r.X1) / fw),
		Height:  clamp01(float64(r.Y2-r.Y1) / fh),
	}
}

// FromNorm reconstructs a pixel rectangle, rounding to the nearest pixel and
// clamping to [0, W-1] x [0, H-1]. The result may be degenerate.
func FromNorm(n types.NormBox, w, h int) types.Rect {
	fw, fh := float64(w), float64(h)
	r := types.Rect{
		X1: int(math.Round((n.XCenter - n.Width/2) * fw)),
		Y1: int(math.Round((n.YCenter - n.Height/2) * fh)),
		X2: int(math.Round((n.XCenter + n.Width/2) * fw)),
		Y2: int(math.Round((n.YCenter + n.Height/2) * fh)),
	}
	return r.Clamp(types.Size{W: w, H: h})
}

// Encode renders boxes as label file content. Boxes whose label is not in
// vocab are skipped with a warning. An empty box list yields zero bytes.
func Encode(boxes []types.Box, vocab *Vocabulary, w, h, precision int) ([]byte, []types.Warning) {
	var (
		buf      bytes.Buffer
		warnings []types.Warning
	)
	if len(boxes) == 0 {
		return []byte{}, nil
	}
	if w <= 0 || h <= 0 {
		return []byte{}, []types.Warning{{Reason: fmt.Sprintf("invalid image size %dx%d, %d boxes not written", w, h, len(boxes))}}
	}
	if precision == 0 {
		precision = DefaultPrecision
	}
	for i, b := range boxes {
		id := vocab.Index(b.Label)
		if id < 0 {
			warnings = append(warnings, types.Warning{
				Reason: fmt.Sprintf("box %d skipped: label %q not in vocabulary", i, b.Label),
			})
			continue
		}
		n := ToNorm(b.Rect.Normalize(), id, w, h)
		buf.WriteString(strconv.Itoa(n.ClassID))
		for _, f := range []float64{n.XCenter, n.YCenter, n.Width, n.Height} {
			buf.WriteByte(' ')
			buf.WriteString(strconv.FormatFloat(f, 'f', precision, 64))
		}
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return []byte{}, warnings
	}
	return buf.Bytes(), warnings
}

// Decode parses label file content into pixel boxes. Malformed lines,
// unknown class ids and degenerate rectangles are skipped with a warning.
func Decode(data []byte, vocab *Vocabulary, w, h int) ([]types.Box, []types.Warning) {
	var (
		out      = []types.Box{}
		warnings []types.Warning
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		n, reason := parseLine(text)
		if reason != "" {
			warnings = append(warnings, types.Warning{Line: line, Text: text, Reason: reason})
			continue
		}
		name, ok := vocab.Name(n.ClassID)
		if !ok {
			warnings = append(warnings, types.Warning{
				Line:   line,
				Text:   text,
				Reason: fmt.Sprintf("class id %d outside vocabulary of %d", n.ClassID, vocab.Len()),
			})
			continue
		}
		r := FromNorm(n, w, h)
		if !r.Valid() {
			warnings = append(warnings, types.Warning{Line: line, Text: text, Reason: "degenerate box " + r.String()})
			continue
		}
		out = append(out, types.Box{Rect: r, Label: name})
	}
	if err := sc.Err(); err != nil {
		warnings = append(warnings, types.Warning{Line: line + 1, Reason: "read stopped: " + err.Error()})
	}
	return out, warnings
}

func parseLine(text string) (types.NormBox, string) {
	fields := strings.Fields(text)
	if len(fields) != fieldCount {
		return types.NormBox{}, fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.NormBox{}, "invalid class id " + strconv.Quote(fields[0])
	}
	var vals [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return types.NormBox{}, "invalid number " + strconv.Quote(f)
		}
		vals[i] = v
	}
	return types.NormBox{ClassID: id, XCenter: vals[0], YCenter: vals[1], Width: vals[2], Height: vals[3]}, ""
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
