package tracking

import (
	"log/slog"
	"time"
)

// Config holds all tunable parameters for subject tracking
type Config struct {
	// Pre-filter
	MinConfidence float64 // Drop detections below this confidence
	MaxSubjects   int     // Keep at most this many detections per frame (arrival order)

	// Identity
	MatchIoU     float64       // A track matches when IoU strictly exceeds this
	TrackTimeout time.Duration // Remove tracks unseen for at least this long

	// Pose attachment
	PoseIoU float64 // A pose attaches when its box IoU strictly exceeds this

	Logger *slog.Logger
}

// DefaultConfig returns the recommended configuration for tracking
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.5,
		MaxSubjects:   10,
		MatchIoU:      0.3,
		TrackTimeout:  time.Second,
		PoseIoU:       0.2,
		Logger:        slog.Default(),
	}
}
