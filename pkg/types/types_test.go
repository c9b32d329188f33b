package types

import "testing"

func TestRectNormalize(t *testing.T) {
	r := R(50, 40, 10, 20).Normalize()
	if r != R(10, 20, 50, 40) {
		t.Errorf("Expected (10,20)-(50,40), got %v", r)
	}
	if !r.Valid() {
		t.Error("Expected normalized rect to be valid")
	}
}

func TestRectContainsEdges(t *testing.T) {
	r := R(10, 10, 20, 20)
	for _, p := range []Point{{10, 10}, {20, 20}, {10, 20}, {15, 15}} {
		if !r.Contains(p) {
			t.Errorf("Expected %v to be inside %v", p, r)
		}
	}
	for _, p := range []Point{{9, 10}, {21, 15}, {15, 21}} {
		if r.Contains(p) {
			t.Errorf("Expected %v to be outside %v", p, r)
		}
	}
}

func TestRectClamp(t *testing.T) {
	got := R(-5, -1, 250, 90).Clamp(Size{W: 200, H: 100})
	want := R(0, 0, 199, 90)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if !got.Within(Size{W: 200, H: 100}) {
		t.Error("Clamped rect should be within bounds")
	}
}

func TestRectDegenerate(t *testing.T) {
	if R(5, 5, 5, 10).Valid() {
		t.Error("Zero-width rect must not be valid")
	}
	if R(5, 10, 8, 2).Valid() {
		t.Error("Inverted rect must not be valid")
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Line: 3, Text: "x y", Reason: "expected 5 fields"}
	if got := w.String(); got != `line 3: expected 5 fields ("x y")` {
		t.Errorf("Unexpected warning text %q", got)
	}
	if got := (Warning{Reason: "bare"}).String(); got != "bare" {
		t.Errorf("Unexpected warning text %q", got)
	}
}
