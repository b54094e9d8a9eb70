package render

import (
	"bytes"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MatFromBGRA copies tightly packed or strided BGRA pixels into a new Mat.
func MatFromBGRA(pix []byte, width, height, stride int) (gocv.Mat, error) {
	row := width * 4
	if stride != row {
		packed := make([]byte, row*height)
		for y := 0; y < height; y++ {
			copy(packed[y*row:(y+1)*row], pix[y*stride:y*stride+row])
		}
		pix = packed
	}
	view, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap pixels: %w", err)
	}
	defer view.Close()
	// The view aliases pix; detach it so the caller may reuse the buffer.
	return view.Clone(), nil
}

// EncodeJPEG encodes m as JPEG, scaling it to maxWidth first when wider.
// 4-channel input is converted to BGR.
func EncodeJPEG(m gocv.Mat, quality, maxWidth int) ([]byte, error) {
	if m.Empty() {
		return nil, fmt.Errorf("encode jpeg: empty image")
	}

	src := m
	if m.Channels() == 4 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(m, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
	}
	if maxWidth > 0 && src.Cols() > maxWidth {
		h := src.Rows() * maxWidth / src.Cols()
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(src, &small, image.Pt(maxWidth, h), 0, 0, gocv.InterpolationArea)
		src = small
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}
