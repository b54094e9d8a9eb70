package bridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-autoframe/internal/log"
	"github.com/teslashibe/go-autoframe/pkg/surface"
)

type fakeImporter struct {
	fail map[uint32]error
}

func (f *fakeImporter) Import(handle uint32) (surface.Frame, error) {
	if err := f.fail[handle]; err != nil {
		return surface.Frame{}, err
	}
	return surface.Frame{
		Handle: handle,
		Width:  4,
		Height: 2,
		Stride: 16,
		Pix:    make([]byte, 32),
	}, nil
}

type recordingSink struct {
	mu   sync.Mutex
	bufs []Buffer
	err  error
}

func (s *recordingSink) Emit(b Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.bufs = append(s.bufs, b)
	return nil
}

func (s *recordingSink) emitted() []Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Buffer(nil), s.bufs...)
}

func newTestConsumer(imp Importer, sink Sink) *Consumer {
	cfg := DefaultConsumerConfig()
	cfg.Width = 4
	cfg.Height = 2
	cfg.Logger = log.Nop()
	return NewConsumer(cfg, imp, sink)
}

func TestConsumer_EmitsQueuedFrameWithItsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)

	c.SetCaptureActive(true)
	c.FrameArrived(frame(30)) // ts = 1.0s
	c.Tick(time.Unix(100, 0))

	bufs := sink.emitted()
	require.Len(t, bufs, 1)
	assert.False(t, bufs[0].Blank)
	assert.Equal(t, int64(time.Second), bufs[0].PTS)
	assert.Equal(t, 4, bufs[0].Width)
	assert.Equal(t, uint64(1), c.Stats().Emitted)
}

func TestConsumer_SkipsWhileReceiving(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)

	c.SetCaptureActive(true)
	c.Tick(time.Now())
	c.Tick(time.Now())

	assert.Empty(t, sink.emitted())
	assert.Equal(t, uint64(2), c.Stats().Skipped)
}

func TestConsumer_KeepaliveWhenIdle(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)

	now := time.Unix(1700000000, 500)
	c.Tick(now)

	bufs := sink.emitted()
	require.Len(t, bufs, 1)
	b := bufs[0]
	assert.True(t, b.Blank)
	assert.Equal(t, now.UnixNano(), b.PTS)
	assert.Equal(t, 4, b.Width)
	assert.Equal(t, 2, b.Height)
	assert.Equal(t, 16, b.Stride)
	assert.Equal(t, byte(0xff), b.Pix[3])
	assert.Equal(t, time.Second/30, b.Duration)
	assert.Equal(t, uint64(1), c.Stats().Blanks)
}

func TestConsumer_StopCaptureClearsQueue(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)

	c.SetCaptureActive(true)
	c.FrameArrived(frame(1))
	c.FrameArrived(frame(2))
	c.SetCaptureActive(false)

	assert.Equal(t, 0, c.Stats().QueueLen)
	assert.False(t, c.Receiving())

	c.Tick(time.Now())
	bufs := sink.emitted()
	require.Len(t, bufs, 1)
	assert.True(t, bufs[0].Blank, "idle consumer should emit keepalive")
}

func TestConsumer_OverflowEvictsOldest(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)
	c.SetCaptureActive(true)

	for h := uint32(1); h <= 7; h++ {
		c.FrameArrived(frame(h))
	}
	stats := c.Stats()
	assert.Equal(t, 5, stats.QueueLen)
	assert.Equal(t, uint64(2), stats.Evicted)
	assert.Equal(t, uint64(7), stats.Enqueued)

	c.Tick(time.Now())
	bufs := sink.emitted()
	require.Len(t, bufs, 1)
	assert.Equal(t, int64(frame(3).Timestamp*float64(time.Second)), bufs[0].PTS)
}

func TestConsumer_ImportFailureSkipsTick(t *testing.T) {
	sink := &recordingSink{}
	imp := &fakeImporter{fail: map[uint32]error{1: surface.ErrStale}}
	c := newTestConsumer(imp, sink)

	c.SetCaptureActive(true)
	c.FrameArrived(frame(1))
	c.FrameArrived(frame(2))

	c.Tick(time.Now())
	assert.Empty(t, sink.emitted())
	assert.Equal(t, uint64(1), c.Stats().ImportFailures)

	c.Tick(time.Now())
	assert.Len(t, sink.emitted(), 1)
}

func TestConsumer_SinkErrorCounted(t *testing.T) {
	sink := &recordingSink{err: errors.New("device gone")}
	c := newTestConsumer(&fakeImporter{}, sink)

	c.Tick(time.Now())
	assert.Equal(t, uint64(1), c.Stats().EmitErrors)
	assert.Equal(t, uint64(0), c.Stats().Blanks)
}

func TestConsumer_ProducerGoneResumesKeepalive(t *testing.T) {
	sink := &recordingSink{}
	c := newTestConsumer(&fakeImporter{}, sink)

	c.SetCaptureActive(true)
	c.FrameArrived(frame(1))
	c.ProducerGone()

	assert.False(t, c.Receiving())
	assert.Equal(t, 0, c.Stats().QueueLen)
}
