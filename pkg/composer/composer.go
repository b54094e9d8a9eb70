// Package composer turns a tracked subject into a target crop using
// rule-of-thirds framing with a deadzone against jitter.
package composer

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
)

// Config holds the framing rules
type Config struct {
	AspectRatio      float64 `json:"aspect_ratio"`      // Output width / height (16:9)
	Deadzone         float64 `json:"deadzone"`          // Ignore center moves smaller than this on both axes
	MinCropHeight    float64 `json:"min_crop_height"`   // Tightest allowed crop
	HeightMultiplier float64 `json:"height_multiplier"` // Crop height in subject heights
	MinSubjectHeight float64 `json:"min_subject_height"`
}

// DefaultConfig returns the standard framing rules
func DefaultConfig() Config {
	return Config{
		AspectRatio:      16.0 / 9.0,
		Deadzone:         0.05,
		MinCropHeight:    0.25,
		HeightMultiplier: 3.0,
		MinSubjectHeight: 0.01,
	}
}

// Composer computes target crops. Compose is called from the pipeline
// goroutine; SetConfig may be called from any goroutine and takes effect on
// the next Compose.
type Composer struct {
	config atomic.Pointer[Config]
	logger *slog.Logger

	mu        sync.Mutex
	center    geometry.Point
	hasCenter bool
	active    bool
}

// New creates a composer
func New(cfg Config, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Composer{logger: logger.With("component", "composer")}
	c.config.Store(&cfg)
	return c
}

// Config returns the rules currently in effect
func (c *Composer) Config() Config {
	return *c.config.Load()
}

// SetConfig replaces the framing rules
func (c *Composer) SetConfig(cfg Config) {
	c.config.Store(&cfg)
}

// Compose returns the target crop for s. It returns false when the subject is
// degenerate or its center stayed inside the deadzone.
func (c *Composer) Compose(s tracking.Subject) (geometry.Rect, bool) {
	cfg := c.Config()

	head, waist, ok := anchors(s, cfg.MinSubjectHeight)
	if !ok {
		c.logger.Debug("degenerate subject", "id", s.ID)
		return geometry.Rect{}, false
	}

	crop := frame(head, waist, cfg)
	center := geometry.Midpoint(head, waist)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasCenter &&
		math.Abs(center.X-c.center.X) < cfg.Deadzone &&
		math.Abs(center.Y-c.center.Y) < cfg.Deadzone {
		return geometry.Rect{}, false
	}

	c.center = center
	c.hasCenter = true
	c.active = true
	return crop, true
}

// anchors returns the head and waist points, falling back from keypoints to
// the bounding box when the keypoint span is too small.
func anchors(s tracking.Subject, minHeight float64) (head, waist geometry.Point, ok bool) {
	if kp := s.Keypoints; kp != nil && kp.Head.Y-kp.Waist.Y > minHeight {
		return kp.Head, kp.Waist, true
	}
	cx := s.BBox.X + s.BBox.W/2
	head = geometry.Point{X: cx, Y: s.BBox.Top()}
	waist = geometry.Point{X: cx, Y: s.BBox.Y}
	if head.Y-waist.Y <= minHeight {
		return head, waist, false
	}
	return head, waist, true
}

// frame places the head on the upper third and the waist on the lower third.
func frame(head, waist geometry.Point, cfg Config) geometry.Rect {
	subjectHeight := head.Y - waist.Y
	h := cfg.HeightMultiplier * subjectHeight
	w := h * cfg.AspectRatio

	centerX := (head.X + waist.X) / 2
	x := centerX - w/2
	y := waist.Y - h/3

	h = geometry.Clamp(min(h, 1), cfg.MinCropHeight, 1)
	w = h * cfg.AspectRatio
	if w > 1 {
		w = 1
		h = w / cfg.AspectRatio
	}

	return geometry.Rect{
		X: geometry.Clamp(x, 0, 1-w),
		Y: geometry.Clamp(y, 0, 1-h),
		W: w,
		H: h,
	}
}

// Active reports whether a target has been produced since the last Reset
func (c *Composer) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Reset forgets the stored center so the next subject always produces a target
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasCenter = false
	c.center = geometry.Point{}
	c.active = false
}
