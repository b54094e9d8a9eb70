package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-autoframe/pkg/protocol"
	"github.com/teslashibe/go-autoframe/pkg/surface"
)

// Importer resolves a surface handle to pixels.
type Importer interface {
	Import(handle uint32) (surface.Frame, error)
}

// ConsumerConfig configures the sink side of the bridge
type ConsumerConfig struct {
	QueueSize int     // Frame backlog (default 5)
	FrameRate float64 // Render ticks per second (default 30)
	Width     int     // Blank frame width
	Height    int     // Blank frame height
	Logger    *slog.Logger
}

// DefaultConsumerConfig returns production defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		QueueSize: DefaultQueueSize,
		FrameRate: 30,
		Width:     1920,
		Height:    1080,
		Logger:    slog.Default(),
	}
}

// ConsumerStats are cumulative counters since start
type ConsumerStats struct {
	Enqueued       uint64 `json:"enqueued"`
	Evicted        uint64 `json:"evicted"`
	Emitted        uint64 `json:"emitted"`
	Blanks         uint64 `json:"blanks"`
	Skipped        uint64 `json:"skipped"`
	ImportFailures uint64 `json:"import_failures"`
	EmitErrors     uint64 `json:"emit_errors"`
	QueueLen       int    `json:"queue_len"`
	Receiving      bool   `json:"receiving"`
}

// Consumer buffers announced frames and feeds the sink on a fixed clock.
// While capture is active but no frame is ready the tick is skipped so the
// sink repeats its last image; while idle it emits black keepalive frames.
type Consumer struct {
	config   ConsumerConfig
	logger   *slog.Logger
	queue    *Queue
	importer Importer
	sink     Sink
	blank    []byte
	interval time.Duration

	receiving atomic.Bool

	enqueued       atomic.Uint64
	evicted        atomic.Uint64
	emitted        atomic.Uint64
	blanks         atomic.Uint64
	skipped        atomic.Uint64
	importFailures atomic.Uint64
	emitErrors     atomic.Uint64
}

// NewConsumer creates a consumer emitting to sink
func NewConsumer(cfg ConsumerConfig, importer Importer, sink Sink) *Consumer {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Consumer{
		config:   cfg,
		logger:   cfg.Logger.With("component", "bridge.consumer"),
		queue:    NewQueue(cfg.QueueSize),
		importer: importer,
		sink:     sink,
		blank:    blankFrame(cfg.Width, cfg.Height),
		interval: time.Duration(float64(time.Second) / cfg.FrameRate),
	}
}

// FrameArrived queues a frame announcement, evicting the oldest when full
func (c *Consumer) FrameArrived(f protocol.FrameData) {
	c.enqueued.Add(1)
	if old, evicted := c.queue.Enqueue(f); evicted {
		c.evicted.Add(1)
		c.logger.Warn("queue full, dropped oldest frame",
			"handle", old.Handle, "ts", old.Timestamp, "capacity", c.queue.Cap())
	}
}

// SetCaptureActive records the producer's capture state. Stopping capture
// drops any queued frames.
func (c *Consumer) SetCaptureActive(active bool) {
	if !active {
		c.queue.Clear()
	}
	if c.receiving.Swap(active) != active {
		c.logger.Info("capture state changed", "active", active)
	}
}

// ProducerGone treats a lost producer as stopped capture so keepalive resumes
func (c *Consumer) ProducerGone() {
	c.SetCaptureActive(false)
}

// Receiving reports whether capture is active
func (c *Consumer) Receiving() bool {
	return c.receiving.Load()
}

// Tick performs one render step at host time now
func (c *Consumer) Tick(now time.Time) {
	if f, ok := c.queue.Dequeue(); ok {
		frame, err := c.importer.Import(f.Handle)
		if err != nil {
			c.importFailures.Add(1)
			c.logger.Debug("surface import failed", "handle", f.Handle, "error", err)
			return
		}
		c.emit(Buffer{
			Pix:      frame.Pix,
			Width:    frame.Width,
			Height:   frame.Height,
			Stride:   frame.Stride,
			PTS:      int64(f.Timestamp * float64(time.Second)),
			Duration: c.interval,
		}, &c.emitted)
		return
	}

	if c.receiving.Load() {
		c.skipped.Add(1)
		return
	}

	c.emit(Buffer{
		Pix:      c.blank,
		Width:    c.config.Width,
		Height:   c.config.Height,
		Stride:   c.config.Width * 4,
		PTS:      now.UnixNano(),
		Duration: c.interval,
		Blank:    true,
	}, &c.blanks)
}

func (c *Consumer) emit(b Buffer, counter *atomic.Uint64) {
	if err := c.sink.Emit(b); err != nil {
		c.emitErrors.Add(1)
		c.logger.Warn("sink emit failed", "error", err)
		return
	}
	counter.Add(1)
}

// Run ticks the render clock until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("render clock started", "fps", c.config.FrameRate,
		"width", c.config.Width, "height", c.config.Height)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Tick(now)
		}
	}
}

// Stats returns the cumulative counters
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Enqueued:       c.enqueued.Load(),
		Evicted:        c.evicted.Load(),
		Emitted:        c.emitted.Load(),
		Blanks:         c.blanks.Load(),
		Skipped:        c.skipped.Load(),
		ImportFailures: c.importFailures.Load(),
		EmitErrors:     c.emitErrors.Load(),
		QueueLen:       c.queue.Len(),
		Receiving:      c.receiving.Load(),
	}
}
