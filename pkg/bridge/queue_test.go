package bridge

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teslashibe/go-autoframe/pkg/protocol"
)

func frame(h uint32) protocol.FrameData {
	return protocol.FrameData{Handle: h, Timestamp: float64(h) / 30, Width: 1920, Height: 1080}
}

func drainHandles(q *Queue) []uint32 {
	var got []uint32
	for {
		f, ok := q.Dequeue()
		if !ok {
			return got
		}
		got = append(got, f.Handle)
	}
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(5)
	for h := uint32(1); h <= 3; h++ {
		if _, evicted := q.Enqueue(frame(h)); evicted {
			t.Fatalf("unexpected eviction at %d", h)
		}
	}
	if diff := cmp.Diff([]uint32{1, 2, 3}, drainHandles(q)); diff != "" {
		t.Errorf("dequeue order (-want +got):\n%s", diff)
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue on empty queue should report false")
	}
}

func TestQueueEvictsOldest(t *testing.T) {
	q := NewQueue(5)
	var evicted []uint32
	for h := uint32(1); h <= 7; h++ {
		if old, ok := q.Enqueue(frame(h)); ok {
			evicted = append(evicted, old.Handle)
		}
	}

	if q.Len() != 5 {
		t.Errorf("Len = %d, want 5", q.Len())
	}
	if diff := cmp.Diff([]uint32{1, 2}, evicted); diff != "" {
		t.Errorf("evicted (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{3, 4, 5, 6, 7}, drainHandles(q)); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	q := NewQueue(DefaultQueueSize)
	rng := rand.New(rand.NewSource(7))
	var next uint32

	for i := 0; i < 1000; i++ {
		if rng.Intn(3) == 0 {
			q.Dequeue()
		} else {
			next++
			q.Enqueue(frame(next))
		}
		if q.Len() > q.Cap() {
			t.Fatalf("step %d: Len %d exceeds Cap %d", i, q.Len(), q.Cap())
		}
	}

	// Remaining handles are still strictly increasing.
	got := drainHandles(q)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("order broken: %v", got)
		}
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue(3)
	q.Enqueue(frame(1))
	q.Enqueue(frame(2))
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", q.Len())
	}
	q.Enqueue(frame(9))
	if diff := cmp.Diff([]uint32{9}, drainHandles(q)); diff != "" {
		t.Errorf("after Clear (-want +got):\n%s", diff)
	}
}

func TestNewQueueDefaultSize(t *testing.T) {
	if got := NewQueue(0).Cap(); got != DefaultQueueSize {
		t.Errorf("Cap = %d, want %d", got, DefaultQueueSize)
	}
}
