package detection

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// DefaultTorsoRatio is the head-top to waist distance in face heights.
const DefaultTorsoRatio = 3.0

// YuNetPoseEstimator derives head/waist keypoints from OpenCV's FaceDetectorYN.
// The head point is the top-center of the face box; the waist sits TorsoRatio
// face heights below it.
type YuNetPoseEstimator struct {
	detector   gocv.FaceDetectorYN
	config     Config
	torsoRatio float64
	logger     *slog.Logger
	mu         sync.Mutex // Protects inference
}

// NewYuNet creates a pose estimator using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config, logger *slog.Logger) (*YuNetPoseEstimator, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Initial input size, updated per image
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	ratio := cfg.TorsoRatio
	if ratio <= 0 {
		ratio = DefaultTorsoRatio
	}

	return &YuNetPoseEstimator{
		detector:   detector,
		config:     cfg,
		torsoRatio: ratio,
		logger:     logger.With("component", "detection.yunet"),
	}, nil
}

// EstimatePoses finds faces in the frame and converts each into a pose estimate
func (d *YuNetPoseEstimator) EstimatePoses(img gocv.Mat) ([]PoseEstimate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var poses []PoseEstimate
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		face := FromTopLeft(
			float64(faces.GetFloatAt(r, 0)),
			float64(faces.GetFloatAt(r, 1)),
			float64(faces.GetFloatAt(r, 2)),
			float64(faces.GetFloatAt(r, 3)),
			imgW, imgH,
		)
		poses = append(poses, poseFromFace(face, float64(faces.GetFloatAt(r, 14)), d.torsoRatio))
	}

	if len(poses) > 0 {
		d.logger.Debug("faces found", "count", len(poses))
	}

	return poses, nil
}

// poseFromFace extrapolates head and waist keypoints from a normalized face box.
func poseFromFace(face geometry.Rect, score, torsoRatio float64) PoseEstimate {
	head := geometry.Point{X: face.X + face.W/2, Y: geometry.Clamp(face.Top(), 0, 1)}
	waist := geometry.Point{
		X: head.X,
		Y: geometry.Clamp(head.Y-torsoRatio*face.H, 0, 1),
	}
	return PoseEstimate{Head: head, Waist: waist, Confidence: score}
}

// Close releases the detector resources
func (d *YuNetPoseEstimator) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
