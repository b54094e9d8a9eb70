package render

import (
	"errors"
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

func TestToTopLeft(t *testing.T) {
	tests := []struct {
		name string
		in   geometry.Rect
		want geometry.Rect
	}{
		{"full frame", geometry.FullFrame, geometry.FullFrame},
		{"bottom strip becomes top offset", geometry.Rect{X: 0, Y: 0, W: 1, H: 0.25}, geometry.Rect{X: 0, Y: 0.75, W: 1, H: 0.25}},
		{"top strip", geometry.Rect{X: 0.2, Y: 0.75, W: 0.5, H: 0.25}, geometry.Rect{X: 0.2, Y: 0, W: 0.5, H: 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToTopLeft(tt.in)
			if geometry.MaxDelta(got, tt.want) > 1e-9 {
				t.Errorf("ToTopLeft(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPixelRect(t *testing.T) {
	tests := []struct {
		name string
		crop geometry.Rect
		want image.Rectangle
	}{
		{"full frame", geometry.FullFrame, image.Rect(0, 0, 200, 100)},
		{"bottom left quarter", geometry.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}, image.Rect(0, 50, 100, 100)},
		{"top right quarter", geometry.Rect{X: 0.5, Y: 0.5, W: 0.5, H: 0.5}, image.Rect(100, 0, 200, 50)},
		{"clipped", geometry.Rect{X: 0.9, Y: 0, W: 0.5, H: 1}, image.Rect(180, 0, 200, 100)},
		{"outside", geometry.Rect{X: 1.5, Y: 0, W: 0.2, H: 0.2}, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelRect(tt.crop, 200, 100)
			if !got.Eq(tt.want) {
				t.Errorf("PixelRect = %v, want %v", got, tt.want)
			}
		})
	}
}

// twoTone returns a BGR image whose top half is white and bottom half black.
func twoTone(w, h int) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
	top := m.Region(image.Rect(0, 0, w, h/2))
	top.SetTo(gocv.NewScalar(255, 255, 255, 0))
	top.Close()
	return m
}

func TestCropOutputSizeAndOrientation(t *testing.T) {
	src := twoTone(320, 240)
	defer src.Close()

	c := NewCropper(64, 36)

	// Bottom-left origin: the upper half of the normalized frame is the
	// white top of the image.
	upper, err := c.Crop(src, geometry.Rect{X: 0, Y: 0.5, W: 1, H: 0.5})
	if err != nil {
		t.Fatalf("Crop upper: %v", err)
	}
	defer upper.Close()

	if upper.Cols() != 64 || upper.Rows() != 36 || upper.Channels() != 4 {
		t.Fatalf("output %dx%d c%d, want 64x36 c4", upper.Cols(), upper.Rows(), upper.Channels())
	}
	if v := upper.GetVecbAt(18, 32); v[0] != 255 || v[3] != 255 {
		t.Errorf("upper crop pixel = %v, want white opaque", v)
	}

	lower, err := c.Crop(src, geometry.Rect{X: 0, Y: 0, W: 1, H: 0.5})
	if err != nil {
		t.Fatalf("Crop lower: %v", err)
	}
	defer lower.Close()
	if v := lower.GetVecbAt(18, 32); v[0] != 0 {
		t.Errorf("lower crop pixel = %v, want black", v)
	}
}

func TestCropErrors(t *testing.T) {
	c := NewCropper(64, 36)

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := c.Crop(empty, geometry.FullFrame); !errors.Is(err, ErrRender) {
		t.Errorf("empty source err = %v, want ErrRender", err)
	}

	src := twoTone(32, 32)
	defer src.Close()
	if _, err := c.Crop(src, geometry.Rect{X: 2, Y: 2, W: 0.1, H: 0.1}); !errors.Is(err, ErrRender) {
		t.Errorf("outside crop err = %v, want ErrRender", err)
	}
}

func TestRendererUnbounded(t *testing.T) {
	r := NewRenderer(Config{Width: 32, Height: 18}, nil)
	defer r.Close()

	src := twoTone(128, 72)
	defer src.Close()

	out, err := r.Render(src, geometry.FullFrame)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer out.Close()
	if out.Cols() != 32 || out.Rows() != 18 {
		t.Errorf("output %dx%d, want 32x18", out.Cols(), out.Rows())
	}
}

func TestRendererBoundedWait(t *testing.T) {
	r := NewRenderer(Config{Width: 32, Height: 18, Timeout: time.Second}, nil)
	defer r.Close()

	src := twoTone(128, 72)
	defer src.Close()

	out, err := r.Render(src, geometry.FullFrame)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out.Close()
}

func TestRendererClosed(t *testing.T) {
	r := NewRenderer(Config{Width: 32, Height: 18}, nil)
	r.Close()

	src := twoTone(16, 16)
	defer src.Close()
	if _, err := r.Render(src, geometry.FullFrame); !errors.Is(err, ErrRender) {
		t.Errorf("Render after Close err = %v, want ErrRender", err)
	}
}

func TestEncodeJPEG(t *testing.T) {
	pix := make([]byte, 64*32*4)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
	m, err := MatFromBGRA(pix, 64, 32, 64*4)
	if err != nil {
		t.Fatalf("MatFromBGRA: %v", err)
	}
	defer m.Close()

	data, err := EncodeJPEG(m, 80, 32)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Errorf("missing JPEG SOI marker")
	}

	decoded, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("IMDecode: %v", err)
	}
	defer decoded.Close()
	if decoded.Cols() != 32 || decoded.Rows() != 16 {
		t.Errorf("decoded %dx%d, want 32x16", decoded.Cols(), decoded.Rows())
	}
}

func TestMatFromBGRAStrided(t *testing.T) {
	const w, h, stride = 4, 2, 24
	pix := make([]byte, stride*h)
	pix[stride] = 7 // first pixel of row 1

	m, err := MatFromBGRA(pix, w, h, stride)
	if err != nil {
		t.Fatalf("MatFromBGRA: %v", err)
	}
	defer m.Close()
	if v := m.GetVecbAt(1, 0); v[0] != 7 {
		t.Errorf("row 1 pixel = %v, want blue 7", v)
	}
}
