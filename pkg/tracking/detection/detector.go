// Package detection provides person and pose detection using computer vision.
//
// Backends report boxes in OpenCV's top-left pixel space; everything leaving
// this package is normalized with a bottom-left origin (see pkg/geometry).
package detection

import (
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// Detection represents a detected subject
type Detection struct {
	Box        geometry.Rect // Normalized, bottom-left origin
	Confidence float64       // Detection confidence (0-1)
	ClassID    int           // Backend class ID (COCO for YOLO, 0 otherwise)
}

// Center returns the center point of the detection
func (d Detection) Center() geometry.Point {
	return d.Box.Center()
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.Box.Area()
}

// PoseEstimate is a head/waist keypoint pair for one person.
type PoseEstimate struct {
	Head       geometry.Point
	Waist      geometry.Point
	Confidence float64
}

// Box returns the bounding box derived from the keypoints.
func (p PoseEstimate) Box() geometry.Rect {
	return geometry.BoundingBox(p.Head, p.Waist)
}

// Detector is the interface for subject detection backends
type Detector interface {
	// Detect finds subjects in the image and returns their positions
	Detect(img gocv.Mat) ([]Detection, error)

	// Close releases resources
	Close() error
}

// PoseEstimator produces head/waist keypoints independently of the detector.
type PoseEstimator interface {
	EstimatePoses(img gocv.Mat) ([]PoseEstimate, error)
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
	TorsoRatio       float64 // Waist distance below head top, in face heights
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
		TorsoRatio:       DefaultTorsoRatio,
	}
}

// FromTopLeft converts a top-left-origin pixel box into a normalized
// bottom-left-origin rectangle.
func FromTopLeft(x, y, w, h, imgW, imgH float64) geometry.Rect {
	if imgW <= 0 || imgH <= 0 {
		return geometry.Rect{}
	}
	nx := x / imgW
	nw := w / imgW
	nh := h / imgH
	ny := 1 - (y/imgH + nh)
	return geometry.Rect{X: nx, Y: ny, W: nw, H: nh}
}
