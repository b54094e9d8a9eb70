package config

import (
	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/camera"
	"github.com/teslashibe/go-autoframe/pkg/surface"
	"github.com/teslashibe/go-autoframe/pkg/tracking/detection"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Capture: camera.DefaultConfig(),
		Detector: Detector{
			YOLOModel:      "models/yolov8n.onnx",
			Confidence:     0.5,
			NMS:            0.45,
			InputSize:      640,
			Poses:          true,
			YuNetModel:     "models/face_detection_yunet.onnx",
			PoseConfidence: 0.5,
			TorsoRatio:     detection.DefaultTorsoRatio,
		},
		Tracker: Tracker{
			MinConfidence:  0.5,
			MaxSubjects:    10,
			MatchIoU:       0.3,
			TrackTimeoutMs: 1000,
			PoseIoU:        0.2,
		},
		Composer: Composer{
			AspectRatio:      16.0 / 9.0,
			Deadzone:         0.05,
			MinCropHeight:    0.25,
			HeightMultiplier: 3.0,
			MinSubjectHeight: 0.01,
			LostTimeoutMs:    1000,
		},
		Interp: Interp{
			Smoothing: 0.10,
			Epsilon:   0.001,
		},
		Render: Render{
			Width:  1920,
			Height: 1080,
		},
		Bridge: Bridge{
			Service:      "autoframe",
			Addr:         "127.0.0.1:9410",
			RetryDelayMs: 1000,
			MaxRetries:   5,
			WarnLimit:    3,
			SurfaceDir:   surface.DefaultDir,
			Slots:        surface.DefaultSlots,
		},
		Sink: Sink{
			Width:     1920,
			Height:    1080,
			FrameRate: 30,
			QueueSize: bridge.DefaultQueueSize,
			Output:    "-",
		},
		Web: Web{
			Enabled:         true,
			Addr:            "127.0.0.1:8420",
			StatusFPS:       10,
			Preview:         true,
			PreviewQuality:  70,
			PreviewMaxWidth: 960,
			PreviewFPS:      10,
		},
		Log: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}
