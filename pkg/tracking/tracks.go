package tracking

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// Track is one identity the tracker is following.
type Track struct {
	ID         uuid.UUID
	BBox       geometry.Rect
	Confidence float64
	LastSeen   time.Duration // Capture time of the last matching detection
	seq        uint64        // Creation order, used for tie-breaks
}

// trackTable maps identities to tracks. Not safe for concurrent use; the
// Tracker serializes access.
type trackTable struct {
	tracks  map[uuid.UUID]*Track
	nextSeq uint64
	newID   func() uuid.UUID
}

func newTrackTable() *trackTable {
	return &trackTable{
		tracks: make(map[uuid.UUID]*Track),
		newID:  uuid.New,
	}
}

// expire removes tracks unseen for at least timeout and returns their ids.
func (tt *trackTable) expire(now, timeout time.Duration) []uuid.UUID {
	var gone []uuid.UUID
	for id, tr := range tt.tracks {
		if now-tr.LastSeen >= timeout {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		delete(tt.tracks, id)
	}
	return gone
}

// bestMatch returns the track with the strictly greatest IoU above threshold.
// Equal IoUs resolve to the earliest-created track.
func (tt *trackTable) bestMatch(box geometry.Rect, threshold float64) *Track {
	var best *Track
	bestIoU := threshold
	for _, tr := range tt.tracks {
		iou := geometry.IoU(box, tr.BBox)
		switch {
		case iou > bestIoU:
			best, bestIoU = tr, iou
		case iou == bestIoU && best != nil && tr.seq < best.seq:
			best = tr
		}
	}
	return best
}

// upsert updates an existing track or mints a new one.
func (tt *trackTable) upsert(tr *Track, box geometry.Rect, conf float64, ts time.Duration) *Track {
	if tr == nil {
		tr = &Track{ID: tt.newID(), seq: tt.nextSeq, LastSeen: ts}
		tt.nextSeq++
		tt.tracks[tr.ID] = tr
	}
	tr.BBox = box
	tr.Confidence = conf
	if ts > tr.LastSeen {
		tr.LastSeen = ts
	}
	return tr
}

// snapshot returns copies of all tracks in creation order.
func (tt *trackTable) snapshot() []Track {
	out := make([]Track, 0, len(tt.tracks))
	for _, tr := range tt.tracks {
		out = append(out, *tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (tt *trackTable) clear() {
	tt.tracks = make(map[uuid.UUID]*Track)
}
