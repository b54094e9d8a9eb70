package composer

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
)

const eps = 1e-9

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withKeypoints(head, waist geometry.Point) tracking.Subject {
	return tracking.Subject{
		BBox:       geometry.BoundingBox(head, waist),
		Confidence: 0.9,
		Keypoints:  &tracking.Keypoints{Head: head, Waist: waist, PoseConfidence: 0.9},
	}
}

func TestCompose_Scenario(t *testing.T) {
	c := New(DefaultConfig(), quiet())

	crop, ok := c.Compose(withKeypoints(geometry.Point{X: 0.5, Y: 0.8}, geometry.Point{X: 0.5, Y: 0.4}))
	if !ok {
		t.Fatal("first compose should produce a target")
	}
	want := geometry.Rect{X: 0, Y: 0, W: 1.0, H: 0.5625}
	if geometry.MaxDelta(crop, want) > eps {
		t.Errorf("crop = %+v, want %+v", crop, want)
	}
	if !c.Active() {
		t.Error("composer should be active after a target")
	}
}

func TestCompose_Framing(t *testing.T) {
	tests := []struct {
		name    string
		subject tracking.Subject
		want    geometry.Rect
	}{
		{
			name:    "small subject centered",
			subject: withKeypoints(geometry.Point{X: 0.5, Y: 0.6}, geometry.Point{X: 0.5, Y: 0.5}),
			// h = 0.3, w = 0.5333, x = 0.5 - 0.2667, y = 0.5 - 0.1
			want: geometry.Rect{X: 0.5 - 0.3*16.0/9.0/2, Y: 0.4, W: 0.3 * 16.0 / 9.0, H: 0.3},
		},
		{
			name:    "tiny subject clamps to minimum height",
			subject: withKeypoints(geometry.Point{X: 0.5, Y: 0.52}, geometry.Point{X: 0.5, Y: 0.5}),
			// origin uses the unclamped width: w = 0.06 * 16/9 before the height clamp
			want: geometry.Rect{X: 0.5 - 0.06*16.0/9.0/2, Y: 0.5 - 0.06/3, W: 0.25 * 16.0 / 9.0, H: 0.25},
		},
		{
			name:    "subject at left edge shifts crop inside",
			subject: withKeypoints(geometry.Point{X: 0.05, Y: 0.6}, geometry.Point{X: 0.05, Y: 0.5}),
			want:    geometry.Rect{X: 0, Y: 0.4, W: 0.3 * 16.0 / 9.0, H: 0.3},
		},
		{
			name: "bounding box fallback without keypoints",
			subject: tracking.Subject{
				BBox:       geometry.Rect{X: 0.45, Y: 0.5, W: 0.1, H: 0.1},
				Confidence: 0.9,
			},
			want: geometry.Rect{X: 0.5 - 0.3*16.0/9.0/2, Y: 0.4, W: 0.3 * 16.0 / 9.0, H: 0.3},
		},
		{
			name: "degenerate keypoints fall back to box",
			subject: tracking.Subject{
				BBox:       geometry.Rect{X: 0.45, Y: 0.5, W: 0.1, H: 0.1},
				Confidence: 0.9,
				Keypoints: &tracking.Keypoints{
					Head:  geometry.Point{X: 0.5, Y: 0.5},
					Waist: geometry.Point{X: 0.5, Y: 0.5},
				},
			},
			want: geometry.Rect{X: 0.5 - 0.3*16.0/9.0/2, Y: 0.4, W: 0.3 * 16.0 / 9.0, H: 0.3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(DefaultConfig(), quiet())
			got, ok := c.Compose(tc.subject)
			if !ok {
				t.Fatal("expected a target")
			}
			if geometry.MaxDelta(got, tc.want) > 1e-9 {
				t.Errorf("crop = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestCompose_DegenerateSubject(t *testing.T) {
	c := New(DefaultConfig(), quiet())
	s := tracking.Subject{BBox: geometry.Rect{X: 0.5, Y: 0.5, W: 0.1, H: 0.005}}
	if _, ok := c.Compose(s); ok {
		t.Error("degenerate subject should not produce a target")
	}
	if c.Active() {
		t.Error("composer should stay inactive")
	}
}

func TestCompose_OutputInvariants(t *testing.T) {
	c := New(DefaultConfig(), quiet())
	aspect := DefaultConfig().AspectRatio

	for hx := 0.0; hx <= 1.0; hx += 0.1 {
		for hy := 0.05; hy <= 1.0; hy += 0.1 {
			for span := 0.02; span <= 0.6; span += 0.1 {
				c.Reset()
				s := withKeypoints(geometry.Point{X: hx, Y: hy}, geometry.Point{X: hx, Y: hy - span})
				crop, ok := c.Compose(s)
				if !ok {
					continue
				}
				if crop.X < -eps || crop.Y < -eps || crop.Right() > 1+eps || crop.Top() > 1+eps {
					t.Fatalf("crop %+v escapes the unit square", crop)
				}
				if crop.H < 0.25-eps && crop.W < 1-eps {
					t.Fatalf("crop %+v below minimum height", crop)
				}
				if math.Abs(crop.W/crop.H-aspect) > 1e-6 {
					t.Fatalf("crop %+v breaks aspect ratio", crop)
				}
			}
		}
	}
}

func TestCompose_Deadzone(t *testing.T) {
	c := New(DefaultConfig(), quiet())
	base := withKeypoints(geometry.Point{X: 0.5, Y: 0.6}, geometry.Point{X: 0.5, Y: 0.5})

	if _, ok := c.Compose(base); !ok {
		t.Fatal("first compose should produce a target")
	}

	tests := []struct {
		name   string
		dx, dy float64
		update bool
	}{
		{"small move suppressed", 0.03, 0.02, false},
		{"horizontal move beyond deadzone", 0.06, 0, true},
		{"vertical move beyond deadzone", 0, 0.06, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(DefaultConfig(), quiet())
			c.Compose(base)
			moved := withKeypoints(
				geometry.Point{X: 0.5 + tc.dx, Y: 0.6 + tc.dy},
				geometry.Point{X: 0.5 + tc.dx, Y: 0.5 + tc.dy},
			)
			if _, ok := c.Compose(moved); ok != tc.update {
				t.Errorf("update = %v, want %v", ok, tc.update)
			}
		})
	}
}

func TestCompose_ResetClearsDeadzone(t *testing.T) {
	c := New(DefaultConfig(), quiet())
	s := withKeypoints(geometry.Point{X: 0.5, Y: 0.6}, geometry.Point{X: 0.5, Y: 0.5})

	c.Compose(s)
	if _, ok := c.Compose(s); ok {
		t.Fatal("identical subject should be suppressed by the deadzone")
	}

	c.Reset()
	if c.Active() {
		t.Error("Reset should clear the active flag")
	}
	if _, ok := c.Compose(s); !ok {
		t.Error("after Reset the same subject should produce a target")
	}
}

func TestSetTuning(t *testing.T) {
	c := New(DefaultConfig(), quiet())

	got := c.SetTuning(Tuning{Deadzone: 0.1})
	if got.Deadzone != 0.1 {
		t.Errorf("Deadzone = %v, want 0.1", got.Deadzone)
	}
	if got.AspectRatio != 16.0/9.0 {
		t.Errorf("zero AspectRatio should leave the value unchanged, got %v", got.AspectRatio)
	}

	s := withKeypoints(geometry.Point{X: 0.5, Y: 0.6}, geometry.Point{X: 0.5, Y: 0.5})
	c.Compose(s)
	moved := withKeypoints(geometry.Point{X: 0.58, Y: 0.6}, geometry.Point{X: 0.58, Y: 0.5})
	if _, ok := c.Compose(moved); ok {
		t.Error("wider deadzone should suppress a 0.08 move")
	}

	got = c.SetTuning(Tuning{AspectRatio: 4.0 / 3.0, Deadzone: 2})
	if got.Deadzone != 0.5 {
		t.Errorf("Deadzone should cap at 0.5, got %v", got.Deadzone)
	}
	if c.Config().AspectRatio != 4.0/3.0 {
		t.Errorf("AspectRatio = %v, want 4/3", c.Config().AspectRatio)
	}
}

func TestSetTuning_ConcurrentWritersKeepBothFields(t *testing.T) {
	c := New(DefaultConfig(), quiet())

	const rounds = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			c.SetTuning(Tuning{Deadzone: 0.2})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			c.SetTuning(Tuning{AspectRatio: 4.0 / 3.0})
		}
	}()
	wg.Wait()

	got := c.Tuning()
	if got.Deadzone != 0.2 {
		t.Errorf("Deadzone = %v, want 0.2", got.Deadzone)
	}
	if got.AspectRatio != 4.0/3.0 {
		t.Errorf("AspectRatio = %v, want 4/3", got.AspectRatio)
	}
	if got.MinCropHeight != DefaultConfig().MinCropHeight {
		t.Errorf("unset MinCropHeight changed to %v", got.MinCropHeight)
	}
}
