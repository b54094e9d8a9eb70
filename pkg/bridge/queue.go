package bridge

import (
	"sync"

	"github.com/teslashibe/go-autoframe/pkg/protocol"
)

// DefaultQueueSize is the consumer's frame backlog.
const DefaultQueueSize = 5

// Queue is a fixed-capacity FIFO of frame announcements. When full, the
// oldest entry is evicted to make room. Safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	buf   []protocol.FrameData
	head  int // Index of the oldest entry
	count int
}

// NewQueue creates a queue holding at most size frames
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{buf: make([]protocol.FrameData, size)}
}

// Enqueue appends f. If the queue was full, the evicted oldest frame is
// returned with true.
func (q *Queue) Enqueue(f protocol.FrameData) (protocol.FrameData, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var evicted protocol.FrameData
	full := q.count == len(q.buf)
	if full {
		evicted = q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
		q.count--
	}

	q.buf[(q.head+q.count)%len(q.buf)] = f
	q.count++
	return evicted, full
}

// Dequeue removes and returns the oldest frame
func (q *Queue) Dequeue() (protocol.FrameData, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return protocol.FrameData{}, false
	}
	f := q.buf[q.head]
	q.buf[q.head] = protocol.FrameData{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return f, true
}

// Clear drops every queued frame
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.buf)
	q.head = 0
	q.count = 0
}

// Len returns the number of queued frames
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity
func (q *Queue) Cap() int {
	return len(q.buf)
}
