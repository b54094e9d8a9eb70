package bridge

import (
	"sync"
	"time"

	"github.com/teslashibe/go-autoframe/pkg/render"
)

// FrameBroadcaster publishes encoded preview frames. *hub.Hub satisfies it.
type FrameBroadcaster interface {
	BroadcastFrame(jpeg []byte)
	ClientCount() int
}

// HubSink encodes emitted buffers as JPEG and broadcasts them as a preview.
// Blank keepalive frames are skipped, as is everything while nobody watches.
type HubSink struct {
	hub      FrameBroadcaster
	quality  int
	maxWidth int
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewHubSink creates a preview sink limited to maxFPS frames per second
func NewHubSink(h FrameBroadcaster, quality, maxWidth int, maxFPS float64) *HubSink {
	s := &HubSink{hub: h, quality: quality, maxWidth: maxWidth}
	if maxFPS > 0 {
		s.interval = time.Duration(float64(time.Second) / maxFPS)
	}
	return s
}

// Emit broadcasts b unless it is blank or arrives faster than the preview rate
func (s *HubSink) Emit(b Buffer) error {
	if b.Blank || s.hub.ClientCount() == 0 {
		return nil
	}

	now := time.Now()
	s.mu.Lock()
	if s.interval > 0 && now.Sub(s.last) < s.interval {
		s.mu.Unlock()
		return nil
	}
	s.last = now
	s.mu.Unlock()

	m, err := render.MatFromBGRA(b.Pix, b.Width, b.Height, b.Stride)
	if err != nil {
		return err
	}
	defer m.Close()

	jpeg, err := render.EncodeJPEG(m, s.quality, s.maxWidth)
	if err != nil {
		return err
	}
	s.hub.BroadcastFrame(jpeg)
	return nil
}
