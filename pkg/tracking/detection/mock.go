package detection

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock is a scripted Detector and PoseEstimator for tests and dry runs.
// Each call pops the next scripted result; once exhausted the last one repeats.
type Mock struct {
	mu     sync.Mutex
	dets   [][]Detection
	poses  [][]PoseEstimate
	err    error
	calls  int
	closed bool
}

// NewMock creates a mock returning the given detection batches in order.
func NewMock(batches ...[]Detection) *Mock {
	return &Mock{dets: batches}
}

// WithPoses scripts pose batches returned by EstimatePoses.
func (m *Mock) WithPoses(batches ...[]PoseEstimate) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = batches
	return m
}

// SetError makes subsequent calls fail with err (nil clears it).
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted detection batch
func (m *Mock) Detect(_ gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return next(m.dets, m.calls), nil
}

// EstimatePoses returns the next scripted pose batch
func (m *Mock) EstimatePoses(_ gocv.Mat) ([]PoseEstimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return next(m.poses, m.calls), nil
}

// Calls returns how many times Detect ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the mock closed
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func next[T any](batches [][]T, call int) []T {
	if len(batches) == 0 {
		return nil
	}
	i := call - 1
	if i < 0 {
		i = 0
	}
	if i >= len(batches) {
		i = len(batches) - 1
	}
	out := make([]T, len(batches[i]))
	copy(out, batches[i])
	return out
}
