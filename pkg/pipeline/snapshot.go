package pipeline

import (
	"sync"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
)

// Mode says who chooses the target crop
type Mode string

const (
	ModeAuto   Mode = "auto"   // Composer frames the primary subject
	ModeManual Mode = "manual" // Operator-set target; composition paused
)

// SubjectInfo is the published view of a tracked subject
type SubjectInfo struct {
	ID         string          `json:"id"`
	BBox       geometry.Rect   `json:"bbox"`
	Confidence float64         `json:"confidence"`
	HasPose    bool            `json:"has_pose"`
	Head       *geometry.Point `json:"head,omitempty"`
	Waist      *geometry.Point `json:"waist,omitempty"`
}

func subjectInfo(s tracking.Subject) SubjectInfo {
	info := SubjectInfo{
		ID:         s.ID.String(),
		BBox:       s.BBox,
		Confidence: s.Confidence,
		HasPose:    s.HasKeypoints(),
	}
	if s.Keypoints != nil {
		head, waist := s.Keypoints.Head, s.Keypoints.Waist
		info.Head, info.Waist = &head, &waist
	}
	return info
}

// Snapshot is an immutable view of the pipeline after one frame
type Snapshot struct {
	Seq           uint64        `json:"seq"`
	Timestamp     float64       `json:"ts"` // Capture time in seconds since start
	Mode          Mode          `json:"mode"`
	Subjects      []SubjectInfo `json:"subjects"`
	PrimaryID     string        `json:"primary_id,omitempty"`
	Target        geometry.Rect `json:"target"`
	Current       geometry.Rect `json:"current"`
	Interpolating bool          `json:"interpolating"`
	Composing     bool          `json:"composing"` // Composer holds an active target
	Zoom          float64       `json:"zoom"`
	Score         float64       `json:"score"`
	Handle        uint32        `json:"handle,omitempty"`
	RenderError   string        `json:"render_error,omitempty"`
	Stats         Stats         `json:"stats"`
}

// Stats are cumulative pipeline counters
type Stats struct {
	Frames       uint64 `json:"frames"`
	DetectErrors uint64 `json:"detect_errors"`
	RenderErrors uint64 `json:"render_errors"`
	Published    uint64 `json:"published"`
	Resets       uint64 `json:"resets"`
}

// subscribers delivers snapshots latest-wins: a slow reader only ever sees
// the newest value.
type subscribers struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Snapshot
}

func (s *subscribers) add() (int, chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan Snapshot)
	}
	s.next++
	ch := make(chan Snapshot, 1)
	s.subs[s.next] = ch
	return s.next, ch
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *subscribers) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
