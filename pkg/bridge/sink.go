package bridge

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Buffer is one frame handed to the virtual camera.
type Buffer struct {
	Pix      []byte        // BGRA, Stride bytes per row
	Width    int
	Height   int
	Stride   int
	PTS      int64         // Presentation time, host nanoseconds
	Duration time.Duration // Declared frame duration
	Blank    bool          // Keepalive frame with no captured content
}

// Sink receives at most one buffer per render tick.
type Sink interface {
	Emit(b Buffer) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(b Buffer) error

// Emit calls f(b).
func (f SinkFunc) Emit(b Buffer) error { return f(b) }

// WriterSink writes raw BGRA frames to an io.Writer, e.g. a pipe feeding a
// v4l2loopback device. Frames whose size differs from the configured
// resolution are rejected so the stream stays aligned.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	height int
}

// NewWriterSink creates a sink writing width x height BGRA frames to w
func NewWriterSink(w io.Writer, width, height int) *WriterSink {
	return &WriterSink{w: w, width: width, height: height}
}

// Emit writes the frame rows, dropping any stride padding
func (s *WriterSink) Emit(b Buffer) error {
	if b.Width != s.width || b.Height != s.height {
		return fmt.Errorf("writer sink: frame %dx%d, want %dx%d", b.Width, b.Height, s.width, s.height)
	}
	row := b.Width * 4

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Stride == row {
		_, err := s.w.Write(b.Pix[:row*b.Height])
		return err
	}
	for y := 0; y < b.Height; y++ {
		off := y * b.Stride
		if _, err := s.w.Write(b.Pix[off : off+row]); err != nil {
			return err
		}
	}
	return nil
}

// MultiSink emits to every sink, returning the first error.
type MultiSink []Sink

// Emit forwards b to each sink
func (m MultiSink) Emit(b Buffer) error {
	var firstErr error
	for _, s := range m {
		if err := s.Emit(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// blankFrame returns opaque black BGRA pixels.
func blankFrame(width, height int) []byte {
	pix := make([]byte, width*height*4)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
	return pix
}
