package render

import (
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// Config configures the render stage
type Config struct {
	Width   int           // Output width in pixels
	Height  int           // Output height in pixels
	Timeout time.Duration // Bounded wait for a crop; 0 waits indefinitely
}

// DefaultConfig returns 1080p output with an unbounded wait
func DefaultConfig() Config {
	return Config{
		Width:  1920,
		Height: 1080,
	}
}

type job struct {
	src    gocv.Mat
	crop   geometry.Rect
	owned  bool // src is a clone the worker must close
	result chan result
}

type result struct {
	out gocv.Mat
	err error
}

// Renderer runs crops on a dedicated worker goroutine. Callers block until
// the crop finishes, or until Timeout when one is configured.
type Renderer struct {
	config  Config
	logger  *slog.Logger
	cropper *Cropper

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRenderer starts the render worker
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		config:  cfg,
		logger:  logger.With("component", "render"),
		cropper: NewCropper(cfg.Width, cfg.Height),
		jobs:    make(chan job),
		done:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

func (r *Renderer) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case j := <-r.jobs:
			out, err := r.cropper.Crop(j.src, j.crop)
			if j.owned {
				j.src.Close()
			}
			j.result <- result{out: out, err: err}
		}
	}
}

// Render crops src to crop. The returned Mat is BGRA at the output size and
// owned by the caller. A timed-out crop is discarded when it completes.
func (r *Renderer) Render(src gocv.Mat, crop geometry.Rect) (gocv.Mat, error) {
	j := job{crop: crop, result: make(chan result, 1)}

	if r.config.Timeout <= 0 {
		j.src = src
		select {
		case r.jobs <- j:
		case <-r.done:
			return gocv.NewMat(), ErrRender
		}
		res := <-j.result
		return res.out, res.err
	}

	// The caller may release src once we return, so a bounded wait works on
	// a private copy.
	j.src = src.Clone()
	j.owned = true
	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()

	select {
	case r.jobs <- j:
	case <-timer.C:
		j.src.Close()
		r.logger.Warn("render worker busy, dropping frame", "timeout", r.config.Timeout)
		return gocv.NewMat(), ErrTimeout
	case <-r.done:
		j.src.Close()
		return gocv.NewMat(), ErrRender
	}

	select {
	case res := <-j.result:
		return res.out, res.err
	case <-timer.C:
		go func() {
			res := <-j.result
			res.out.Close()
		}()
		r.logger.Warn("render timed out", "timeout", r.config.Timeout)
		return gocv.NewMat(), ErrTimeout
	}
}

// Size returns the output resolution
func (r *Renderer) Size() (int, int) {
	return r.cropper.Size()
}

// Close stops the worker after any crop in progress
func (r *Renderer) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}
