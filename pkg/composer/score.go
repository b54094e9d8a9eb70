package composer

import (
	"math"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
)

// Score rates how well crop frames s. Higher is better: vertical thirds
// framing contributes up to 1.0, horizontal thirds up to 0.2, and a head at or
// outside the crop edge costs up to 1.0.
func Score(crop geometry.Rect, s tracking.Subject) float64 {
	head, waist, ok := anchors(s, 0)
	if !ok {
		return 0
	}
	centerX := (head.X + waist.X) / 2
	return framingScore(head.Y, waist.Y, crop) +
		headCutoffPenalty(head.Y, crop) +
		thirdsBonus(centerX, crop)
}

// framingScore peaks with the head at 2/3 and the waist at 1/3 of the crop height.
func framingScore(headY, waistY float64, crop geometry.Rect) float64 {
	if crop.H < 0.01 {
		return 0
	}
	headErr := math.Abs((headY-crop.Y)/crop.H - 0.667)
	waistErr := math.Abs((waistY-crop.Y)/crop.H - 0.333)
	return gaussian((headErr+waistErr)/2, 0.1)
}

func headCutoffPenalty(headY float64, crop geometry.Rect) float64 {
	if crop.H < 0.01 {
		return 0
	}
	rel := (headY - crop.Y) / crop.H
	if rel > 1 || rel < 0 {
		return -1
	}
	if math.Min(rel, 1-rel) < 0.05 {
		return -0.5
	}
	return 0
}

func thirdsBonus(x float64, crop geometry.Rect) float64 {
	if crop.W < 0.01 {
		return 0
	}
	rel := (x - crop.X) / crop.W
	d := math.Min(math.Abs(rel-0.333), math.Abs(rel-0.667))
	return 0.2 * gaussian(d, 0.05)
}

func gaussian(d, sigma float64) float64 {
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}
