// Package tracking resolves per-frame person detections into subjects with
// stable identities.
package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/tracking/detection"
)

// Tracker assigns identities to detections by IoU against the live tracks.
type Tracker struct {
	config Config

	mu      sync.RWMutex
	tracks  *trackTable
	primary uuid.UUID // Last subject chosen by Primary
}

// New creates a tracker
func New(config Config) *Tracker {
	return &Tracker{
		config: config,
		tracks: newTrackTable(),
	}
}

// Update matches detections against the live tracks and returns one subject
// per surviving detection, in arrival order. Poses are attached to subjects
// whose box overlaps them. An empty batch only ages the tracks.
func (t *Tracker) Update(dets []detection.Detection, poses []detection.PoseEstimate, ts time.Duration) []Subject {
	dets = t.prefilter(dets)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.tracks.expire(ts, t.config.TrackTimeout) {
		if id == t.primary {
			t.primary = uuid.Nil
		}
		if t.config.Logger != nil {
			t.config.Logger.Debug("track expired", "id", id)
		}
	}

	subjects := make([]Subject, 0, len(dets))
	for _, d := range dets {
		match := t.tracks.bestMatch(d.Box, t.config.MatchIoU)
		tr := t.tracks.upsert(match, d.Box, d.Confidence, ts)
		if match == nil && t.config.Logger != nil {
			t.config.Logger.Debug("track created", "id", tr.ID, "confidence", d.Confidence)
		}

		subjects = append(subjects, Subject{
			ID:         tr.ID,
			BBox:       d.Box,
			Confidence: d.Confidence,
			Timestamp:  ts,
			Keypoints:  attachPose(d.Box, poses, t.config.PoseIoU),
		})
	}

	return subjects
}

// prefilter drops low-confidence detections and truncates to MaxSubjects
// without reordering.
func (t *Tracker) prefilter(dets []detection.Detection) []detection.Detection {
	out := make([]detection.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence < t.config.MinConfidence {
			continue
		}
		if t.config.MaxSubjects > 0 && len(out) == t.config.MaxSubjects {
			break
		}
		out = append(out, d)
	}
	return out
}

// attachPose picks the pose whose box best overlaps the subject box.
func attachPose(box geometry.Rect, poses []detection.PoseEstimate, threshold float64) *Keypoints {
	var best *detection.PoseEstimate
	bestIoU := threshold
	for i := range poses {
		if iou := geometry.IoU(box, poses[i].Box()); iou > bestIoU {
			best, bestIoU = &poses[i], iou
		}
	}
	if best == nil {
		return nil
	}
	return &Keypoints{Head: best.Head, Waist: best.Waist, PoseConfidence: best.Confidence}
}

// Primary picks the subject to frame. The previously chosen identity is kept
// while it is still present; otherwise subjects are scored by
// confidence*0.7 + relative area*0.3.
func (t *Tracker) Primary(subjects []Subject) (Subject, bool) {
	if len(subjects) == 0 {
		return Subject{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.primary != uuid.Nil {
		for _, s := range subjects {
			if s.ID == t.primary {
				return s, true
			}
		}
	}

	// Find max area for normalization
	maxArea := 0.0
	for _, s := range subjects {
		if a := s.BBox.Area(); a > maxArea {
			maxArea = a
		}
	}

	bestScore := -1.0
	best := subjects[0]
	for _, s := range subjects {
		score := s.Confidence * 0.7
		if maxArea > 0 {
			score += (s.BBox.Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = s
		}
	}

	t.primary = best.ID
	return best, true
}

// Tracks returns a copy of the live tracks in creation order
func (t *Tracker) Tracks() []Track {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracks.snapshot()
}

// Len returns the number of live tracks
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tracks.tracks)
}

// Reset forgets every track and the primary choice
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks.clear()
	t.primary = uuid.Nil
}
