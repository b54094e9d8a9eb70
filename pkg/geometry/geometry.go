// Package geometry provides normalized rectangle math shared by the tracker,
// composer and interpolator.
//
// All coordinates are normalized to [0,1] with a bottom-left origin: Y grows
// upward, so a rectangle's Top is Y+H and its Bottom is Y.
package geometry

import "math"

// Point is a normalized 2D point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Rect is a normalized rectangle: origin (X,Y) at the bottom-left corner plus size (W,H).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FullFrame is the rectangle covering the whole source frame.
var FullFrame = Rect{X: 0, Y: 0, W: 1, H: 1}

// Top returns the upper edge.
func (r Rect) Top() float64 { return r.Y + r.H }

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Area returns W*H, or 0 for a degenerate rectangle.
func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Zoom returns the magnification implied by the crop height (1/H).
func (r Rect) Zoom() float64 {
	if r.H <= 0 {
		return 0
	}
	return 1 / r.H
}

// Intersect returns the overlapping region of r and o (zero Rect if disjoint).
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Top(), o.Top())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IoU returns the intersection-over-union of a and b in [0,1].
// Degenerate or disjoint inputs yield 0.
func IoU(a, b Rect) float64 {
	inter := a.Intersect(b).Area()
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return clamp(inter/union, 0, 1)
}

// BoundingBox returns the smallest rectangle containing all points.
func BoundingBox(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Lerp linearly interpolates from a toward b by factor t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpRect interpolates each component of a toward b independently.
func LerpRect(a, b Rect, t float64) Rect {
	return Rect{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		W: Lerp(a.W, b.W, t),
		H: Lerp(a.H, b.H, t),
	}
}

// MaxDelta returns the largest absolute component difference between a and b.
func MaxDelta(a, b Rect) float64 {
	d := math.Abs(a.X - b.X)
	d = math.Max(d, math.Abs(a.Y-b.Y))
	d = math.Max(d, math.Abs(a.W-b.W))
	return math.Max(d, math.Abs(a.H-b.H))
}

// ClampRect bounds the size to [minSize,1] and shifts the origin so the rectangle
// lies within the unit square.
func ClampRect(r Rect, minSize float64) Rect {
	r.W = clamp(r.W, minSize, 1)
	r.H = clamp(r.H, minSize, 1)
	r.X = clamp(r.X, 0, 1-r.W)
	r.Y = clamp(r.Y, 0, 1-r.H)
	return r
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return clamp(value, lo, hi)
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
