// Package render crops and scales source frames to the output resolution.
//
// Crops arrive normalized with a bottom-left origin; OpenCV addresses pixels
// from the top-left, so every crop passes through ToTopLeft first.
package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

var (
	// ErrRender is returned when a crop cannot be produced.
	ErrRender = errors.New("render: crop failed")

	// ErrTimeout is returned when a bounded wait for the crop expires.
	ErrTimeout = errors.New("render: timed out")
)

// ToTopLeft flips a bottom-left-origin rect into top-left coordinates.
func ToTopLeft(r geometry.Rect) geometry.Rect {
	return geometry.Rect{X: r.X, Y: 1 - r.Y - r.H, W: r.W, H: r.H}
}

// PixelRect maps a normalized bottom-left crop onto a width x height image.
// The result is clipped to the image and may be empty.
func PixelRect(crop geometry.Rect, width, height int) image.Rectangle {
	tl := ToTopLeft(crop)
	r := image.Rect(
		int(math.Floor(tl.X*float64(width))),
		int(math.Floor(tl.Y*float64(height))),
		int(math.Ceil((tl.X+tl.W)*float64(width))),
		int(math.Ceil((tl.Y+tl.H)*float64(height))),
	)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// Cropper extracts a region and resamples it bilinearly to a fixed size.
// Output is always 4-channel BGRA.
type Cropper struct {
	width  int
	height int
}

// NewCropper creates a cropper producing width x height frames
func NewCropper(width, height int) *Cropper {
	return &Cropper{width: width, height: height}
}

// Size returns the output resolution
func (c *Cropper) Size() (int, int) {
	return c.width, c.height
}

// Crop returns a new BGRA Mat of the output size. The caller owns it.
func (c *Cropper) Crop(src gocv.Mat, crop geometry.Rect) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: empty source", ErrRender)
	}
	rect := PixelRect(crop, src.Cols(), src.Rows())
	if rect.Dx() < 1 || rect.Dy() < 1 {
		return gocv.NewMat(), fmt.Errorf("%w: crop %+v outside %dx%d source", ErrRender, crop, src.Cols(), src.Rows())
	}

	region := src.Region(rect)
	defer region.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(region, &scaled, image.Pt(c.width, c.height), 0, 0, gocv.InterpolationLinear)

	out := gocv.NewMat()
	switch src.Channels() {
	case 4:
		scaled.CopyTo(&out)
	case 3:
		gocv.CvtColor(scaled, &out, gocv.ColorBGRToBGRA)
	case 1:
		gocv.CvtColor(scaled, &out, gocv.ColorGrayToBGRA)
	default:
		out.Close()
		return gocv.NewMat(), fmt.Errorf("%w: unsupported channel count %d", ErrRender, src.Channels())
	}

	if out.Empty() || out.Cols() != c.width || out.Rows() != c.height {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("%w: resample produced no output", ErrRender)
	}
	return out, nil
}
