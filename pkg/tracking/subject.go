package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// Keypoints are the head and waist positions attached from a pose estimate.
type Keypoints struct {
	Head           geometry.Point `json:"head"`
	Waist          geometry.Point `json:"waist"`
	PoseConfidence float64        `json:"pose_confidence"`
}

// Subject is one detection resolved to a stable identity.
type Subject struct {
	ID         uuid.UUID     `json:"id"`
	BBox       geometry.Rect `json:"bbox"`
	Confidence float64       `json:"confidence"`
	Timestamp  time.Duration `json:"timestamp"`
	Keypoints  *Keypoints    `json:"keypoints,omitempty"`
}

// HasKeypoints reports whether pose keypoints were attached.
func (s Subject) HasKeypoints() bool {
	return s.Keypoints != nil
}
