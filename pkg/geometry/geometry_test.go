package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestIoU_Identity(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, W: 0.5, H: 0.5},
		{X: 0.2, Y: 0.3, W: 0.1, H: 0.6},
		FullFrame,
	}
	for _, r := range rects {
		if got := IoU(r, r); math.Abs(got-1) > eps {
			t.Errorf("IoU(%v, %v) = %v, want 1", r, r, got)
		}
	}
}

func TestIoU_Disjoint(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 0.2, H: 0.2}
	b := Rect{X: 0.5, Y: 0.5, W: 0.2, H: 0.2}
	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU(disjoint) = %v, want 0", got)
	}

	// Touching edges share no area
	c := Rect{X: 0.2, Y: 0, W: 0.2, H: 0.2}
	if got := IoU(a, c); got != 0 {
		t.Errorf("IoU(touching) = %v, want 0", got)
	}
}

func TestIoU_SymmetricAndBounded(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, W: 0.5, H: 0.5},
		{X: 0.02, Y: 0.02, W: 0.5, H: 0.5},
		{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
		{X: 0.9, Y: 0.9, W: 0.3, H: 0.3},
		{X: 0.1, Y: 0.1, W: 0, H: 0.4},
		{X: 0.4, Y: 0.1, W: -0.1, H: 0.2},
	}
	for _, a := range rects {
		for _, b := range rects {
			ab, ba := IoU(a, b), IoU(b, a)
			if math.Abs(ab-ba) > eps {
				t.Errorf("IoU not symmetric for %v, %v: %v vs %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("IoU(%v, %v) = %v out of [0,1]", a, b, ab)
			}
		}
	}
}

func TestIoU_Scenario(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 0.5, H: 0.5}
	b := Rect{X: 0.02, Y: 0.02, W: 0.5, H: 0.5}

	got := IoU(a, b)
	// intersection 0.48^2 = 0.2304, union 0.5 - 0.2304 = 0.2696
	want := 0.2304 / 0.2696
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("IoU = %v, want %v", got, want)
	}
	if got <= 0.3 {
		t.Errorf("IoU = %v should exceed the 0.3 match threshold", got)
	}
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		min  float64
		want Rect
	}{
		{"inside unchanged", Rect{0.1, 0.1, 0.5, 0.5}, 0.1, Rect{0.1, 0.1, 0.5, 0.5}},
		{"shift left edge", Rect{-0.2, 0.1, 0.5, 0.5}, 0.1, Rect{0, 0.1, 0.5, 0.5}},
		{"shift right edge", Rect{0.8, 0.1, 0.5, 0.5}, 0.1, Rect{0.5, 0.1, 0.5, 0.5}},
		{"too small grows", Rect{0.5, 0.5, 0.01, 0.02}, 0.1, Rect{0.5, 0.5, 0.1, 0.1}},
		{"too big shrinks", Rect{-1, -1, 3, 2}, 0.1, FullFrame},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClampRect(tc.in, tc.min)
			if MaxDelta(got, tc.want) > eps {
				t.Errorf("ClampRect(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLerpRect(t *testing.T) {
	a := Rect{0, 0, 1, 1}
	b := Rect{0.5, 0.5, 0.5, 0.5}

	got := LerpRect(a, b, 0.5)
	want := Rect{0.25, 0.25, 0.75, 0.75}
	if MaxDelta(got, want) > eps {
		t.Errorf("LerpRect = %v, want %v", got, want)
	}

	if got := LerpRect(a, b, 0); got != a {
		t.Errorf("LerpRect t=0 = %v, want %v", got, a)
	}
	if got := LerpRect(a, b, 1); MaxDelta(got, b) > eps {
		t.Errorf("LerpRect t=1 = %v, want %v", got, b)
	}
}

func TestBoundingBox(t *testing.T) {
	got := BoundingBox(Point{0.5, 0.8}, Point{0.4, 0.3}, Point{0.6, 0.5})
	want := Rect{X: 0.4, Y: 0.3, W: 0.2, H: 0.5}
	if MaxDelta(got, want) > eps {
		t.Errorf("BoundingBox = %v, want %v", got, want)
	}
	if got := BoundingBox(); got != (Rect{}) {
		t.Errorf("BoundingBox() = %v, want zero", got)
	}
}

func TestRectAccessors(t *testing.T) {
	r := Rect{X: 0.2, Y: 0.1, W: 0.4, H: 0.5}
	if math.Abs(r.Top()-0.6) > eps {
		t.Errorf("Top = %v", r.Top())
	}
	if math.Abs(r.Right()-0.6) > eps {
		t.Errorf("Right = %v", r.Right())
	}
	c := r.Center()
	if math.Abs(c.X-0.4) > eps || math.Abs(c.Y-0.35) > eps {
		t.Errorf("Center = %v", c)
	}
	if math.Abs(r.Zoom()-2) > eps {
		t.Errorf("Zoom = %v, want 2", r.Zoom())
	}
	if (Rect{}).Zoom() != 0 {
		t.Error("Zoom of empty rect should be 0")
	}
}
