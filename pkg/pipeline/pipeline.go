// Package pipeline runs the per-frame decision chain: detect, track, compose,
// interpolate, render and hand the result to the bridge.
//
// Stages run strictly in that order for each frame on the goroutine calling
// Process. Detection and rendering execute on their own workers, but the
// caller waits for each, so at most one frame is in flight per stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/composer"
	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/interp"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
	"github.com/teslashibe/go-autoframe/pkg/tracking/detection"
)

// FrameSource yields captured frames. *camera.Source satisfies it.
type FrameSource interface {
	Read(dst *gocv.Mat) error
}

// Renderer crops a frame to the output size. *render.Renderer satisfies it.
type Renderer interface {
	Render(src gocv.Mat, crop geometry.Rect) (gocv.Mat, error)
}

// SurfaceWriter publishes rendered pixels under a handle. *surface.Pool
// satisfies it.
type SurfaceWriter interface {
	Write(pix []byte) (uint32, error)
}

// Announcer tells the sink about rendered surfaces. *bridge.Producer
// satisfies it.
type Announcer interface {
	SendFrame(handle uint32, ts float64, width, height int32) error
	SetCaptureActive(active bool)
}

// Deps are the external stages the pipeline drives
type Deps struct {
	Detector  detection.Detector
	Poses     detection.PoseEstimator // Optional keypoint source
	Renderer  Renderer
	Surfaces  SurfaceWriter // Optional; without it frames are not bridged
	Announcer Announcer     // Optional
	Preview   bridge.Sink   // Optional dashboard preview
}

// Result reports the outcome of one frame
type Result struct {
	Snapshot  Snapshot
	DetectErr error // Inference failed; the frame was treated as empty
	RenderErr error // Wraps render.ErrRender or render.ErrTimeout
	BridgeErr error // Surface write failed
}

var (
	// ErrNoDetector is returned by New without a detector.
	ErrNoDetector = errors.New("pipeline: detector required")

	// ErrNoRenderer is returned by New without a renderer.
	ErrNoRenderer = errors.New("pipeline: renderer required")
)

type detectJob struct {
	img   gocv.Mat
	reply chan detectResult
}

type detectResult struct {
	dets  []detection.Detection
	poses []detection.PoseEstimate
	err   error
}

// Pipeline owns the tracker, composer and interpolator. Process must be
// called from a single goroutine; the control methods are safe from any.
type Pipeline struct {
	config Config
	logger *slog.Logger
	deps   Deps

	tracker  *tracking.Tracker
	composer *composer.Composer
	interp   *interp.Interpolator

	detectJobs chan detectJob
	workerWG   sync.WaitGroup
	closeOnce  sync.Once

	commands chan command

	// Owned by the Process goroutine
	mode          Mode
	lastPrimaryAt time.Duration
	hasPrimary    bool
	seq           uint64

	snapshot atomic.Pointer[Snapshot]
	subs     subscribers
	clock    func() time.Time

	frames       atomic.Uint64
	detectErrors atomic.Uint64
	renderErrors atomic.Uint64
	published    atomic.Uint64
	resets       atomic.Uint64
}

// New builds a pipeline and starts its detection worker
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Detector == nil {
		return nil, ErrNoDetector
	}
	if deps.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LostTimeout <= 0 {
		cfg.LostTimeout = time.Second
	}

	trackCfg := cfg.Tracking
	trackCfg.Logger = cfg.Logger

	p := &Pipeline{
		config:     cfg,
		logger:     cfg.Logger.With("component", "pipeline"),
		deps:       deps,
		tracker:    tracking.New(trackCfg),
		composer:   composer.New(cfg.Composer, cfg.Logger),
		interp:     interp.New(cfg.Interp),
		detectJobs: make(chan detectJob),
		commands:   make(chan command, 16),
		mode:       ModeAuto,
		clock:      time.Now,
	}
	p.snapshot.Store(&Snapshot{
		Mode:    ModeAuto,
		Target:  geometry.FullFrame,
		Current: geometry.FullFrame,
		Zoom:    1,
	})

	p.workerWG.Add(1)
	go p.detectWorker()
	return p, nil
}

// detectWorker serializes inference so only one frame is in flight.
func (p *Pipeline) detectWorker() {
	defer p.workerWG.Done()
	for job := range p.detectJobs {
		var res detectResult
		res.dets, res.err = p.deps.Detector.Detect(job.img)
		if res.err == nil && p.deps.Poses != nil {
			poses, err := p.deps.Poses.EstimatePoses(job.img)
			if err != nil {
				p.logger.Debug("pose estimation failed", "error", err)
			}
			res.poses = poses
		}
		job.reply <- res
	}
}

func (p *Pipeline) detect(img gocv.Mat) detectResult {
	reply := make(chan detectResult, 1)
	p.detectJobs <- detectJob{img: img, reply: reply}
	return <-reply
}

// Process runs every stage for one frame captured at ts (time since the
// pipeline started).
func (p *Pipeline) Process(frame gocv.Mat, ts time.Duration) Result {
	var res Result
	p.frames.Add(1)
	p.applyCommands()

	det := p.detect(frame)
	if det.err != nil {
		p.detectErrors.Add(1)
		res.DetectErr = det.err
		p.logger.Warn("detection failed, treating frame as empty", "error", det.err)
		det.dets, det.poses = nil, nil
	}

	subjects := p.tracker.Update(det.dets, det.poses, ts)
	primary, havePrimary := p.tracker.Primary(subjects)

	if havePrimary {
		p.hasPrimary = true
		p.lastPrimaryAt = ts
		if p.mode == ModeAuto {
			if target, ok := p.composer.Compose(primary); ok {
				p.interp.SetTarget(target)
			}
		}
	} else if p.hasPrimary && ts-p.lastPrimaryAt >= p.config.LostTimeout {
		p.hasPrimary = false
		if p.mode == ModeAuto {
			p.resetShot("subject lost")
		}
	}

	current := p.interp.Tick()

	var handle uint32
	out, err := p.deps.Renderer.Render(frame, current)
	if err != nil {
		p.renderErrors.Add(1)
		res.RenderErr = err
		p.logger.Warn("render failed, dropping output", "error", err)
	} else {
		handle, res.BridgeErr = p.deliver(out)
		out.Close()
	}

	snap := p.buildSnapshot(ts, subjects, primary, havePrimary, current, handle, res.RenderErr)
	p.snapshot.Store(&snap)
	p.subs.publish(snap)
	p.published.Add(1)

	res.Snapshot = snap
	return res
}

// deliver writes the rendered frame to shared memory, announces it and feeds
// the preview.
func (p *Pipeline) deliver(out gocv.Mat) (uint32, error) {
	if p.deps.Surfaces == nil && p.deps.Preview == nil {
		return 0, nil
	}

	pix := out.ToBytes()
	w, h := out.Cols(), out.Rows()
	now := p.clock()

	var handle uint32
	if p.deps.Surfaces != nil {
		var err error
		handle, err = p.deps.Surfaces.Write(pix)
		if err != nil {
			p.logger.Warn("surface write failed", "error", err)
			return 0, fmt.Errorf("write surface: %w", err)
		}
		if p.deps.Announcer != nil {
			// Host time so real frames and the sink's keepalives share a clock.
			ts := float64(now.UnixNano()) / float64(time.Second)
			p.deps.Announcer.SendFrame(handle, ts, int32(w), int32(h))
		}
	}

	if p.deps.Preview != nil {
		err := p.deps.Preview.Emit(bridge.Buffer{
			Pix:    pix,
			Width:  w,
			Height: h,
			Stride: w * 4,
			PTS:    now.UnixNano(),
		})
		if err != nil {
			p.logger.Debug("preview failed", "error", err)
		}
	}
	return handle, nil
}

// resetShot widens back to the full frame and forgets the composer's
// deadzone anchor.
func (p *Pipeline) resetShot(reason string) {
	p.composer.Reset()
	p.interp.ResetToFullFrame()
	p.resets.Add(1)
	p.logger.Info("resetting to full frame", "reason", reason)
}

func (p *Pipeline) buildSnapshot(ts time.Duration, subjects []tracking.Subject, primary tracking.Subject,
	havePrimary bool, current geometry.Rect, handle uint32, renderErr error) Snapshot {
	p.seq++
	snap := Snapshot{
		Seq:           p.seq,
		Timestamp:     ts.Seconds(),
		Mode:          p.mode,
		Subjects:      make([]SubjectInfo, 0, len(subjects)),
		Target:        p.interp.Target(),
		Current:       current,
		Interpolating: p.interp.Interpolating(),
		Composing:     p.composer.Active(),
		Zoom:          current.Zoom(),
		Handle:        handle,
		Stats:         p.Stats(),
	}
	for _, s := range subjects {
		snap.Subjects = append(snap.Subjects, subjectInfo(s))
	}
	if havePrimary {
		snap.PrimaryID = primary.ID.String()
		snap.Score = composer.Score(current, primary)
	}
	if renderErr != nil {
		snap.RenderError = renderErr.Error()
	}
	return snap
}

// Run reads frames from src until ctx is cancelled or the source fails.
// Capture is announced active for the duration.
func (p *Pipeline) Run(ctx context.Context, src FrameSource) error {
	if p.deps.Announcer != nil {
		p.deps.Announcer.SetCaptureActive(true)
		defer p.deps.Announcer.SetCaptureActive(false)
	}

	frame := gocv.NewMat()
	defer frame.Close()

	start := p.clock()
	p.logger.Info("pipeline started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopped", "frames", p.frames.Load())
			return nil
		default:
		}

		if err := src.Read(&frame); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		p.Process(frame, p.clock().Sub(start))
	}
}

// Snapshot returns the most recent published state
func (p *Pipeline) Snapshot() Snapshot {
	return *p.snapshot.Load()
}

// Subscribe returns a channel receiving each new snapshot, latest wins, and
// a function that cancels the subscription.
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	id, ch := p.subs.add()
	return ch, func() { p.subs.remove(id) }
}

// Tuning returns the composer's runtime-adjustable rules
func (p *Pipeline) Tuning() composer.Tuning {
	return p.composer.Tuning()
}

// SetTuning adjusts the composer; the change applies from the next frame
func (p *Pipeline) SetTuning(t composer.Tuning) composer.Tuning {
	return p.composer.SetTuning(t)
}

// Stats returns the pipeline counters
func (p *Pipeline) Stats() Stats {
	return Stats{
		Frames:       p.frames.Load(),
		DetectErrors: p.detectErrors.Load(),
		RenderErrors: p.renderErrors.Load(),
		Published:    p.published.Load(),
		Resets:       p.resets.Load(),
	}
}

// Close stops the detection worker and ends all subscriptions. The caller
// must not call Process afterwards.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		close(p.detectJobs)
		p.workerWG.Wait()
		p.subs.closeAll()
	})
	return nil
}
