package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

var (
	// ErrEndOfStream is returned when a non-looping file source runs out.
	ErrEndOfStream = errors.New("camera: end of stream")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("camera: source closed")
)

// Source reads frames from an OpenCV capture device.
type Source struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	closed bool

	frames atomic.Uint64
	width  int
	height int
}

// Open opens the device described by cfg
func Open(cfg Config, logger *slog.Logger) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.deviceID())
	if err != nil {
		return nil, fmt.Errorf("camera: open %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %q did not open", cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	s := &Source{
		config: cfg,
		logger: logger.With("component", "camera", "device", cfg.Device),
		vc:     vc,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}

	// Devices may not honor the requested size.
	if s.width != cfg.Width || s.height != cfg.Height {
		s.logger.Warn("device resolution differs from request",
			"requested", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			"actual", fmt.Sprintf("%dx%d", s.width, s.height))
	}
	s.logger.Info("capture opened", "width", s.width, "height", s.height, "fps", cfg.Framerate)
	return s, nil
}

// Read blocks until the next frame is decoded into dst
func (s *Source) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.vc.Read(dst) && !dst.Empty() {
		s.frames.Add(1)
		return nil
	}

	if s.config.Loop {
		s.vc.Set(gocv.VideoCapturePosFrames, 0)
		if s.vc.Read(dst) && !dst.Empty() {
			s.frames.Add(1)
			return nil
		}
	}
	return ErrEndOfStream
}

// Size returns the negotiated frame size
func (s *Source) Size() (int, int) {
	return s.width, s.height
}

// Frames returns the number of frames read
func (s *Source) Frames() uint64 {
	return s.frames.Load()
}

// Close releases the device
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.vc.Close()
}
