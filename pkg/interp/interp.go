// Package interp eases the active crop toward its target one tick at a time.
package interp

import "github.com/teslashibe/go-autoframe/pkg/geometry"

// Config holds interpolation parameters
type Config struct {
	Smoothing float64 // Fraction of the remaining distance covered per tick
	Epsilon   float64 // Snap to target when every component is closer than this
}

// DefaultConfig returns the standard easing
func DefaultConfig() Config {
	return Config{
		Smoothing: 0.10,
		Epsilon:   0.001,
	}
}

// Interpolator holds the current crop and the target it is easing toward.
// Not safe for concurrent use.
type Interpolator struct {
	config        Config
	current       geometry.Rect
	target        geometry.Rect
	interpolating bool
}

// New creates an interpolator resting on the full frame
func New(cfg Config) *Interpolator {
	return &Interpolator{
		config:  cfg,
		current: geometry.FullFrame,
		target:  geometry.FullFrame,
	}
}

// SetTarget starts easing toward r
func (i *Interpolator) SetTarget(r geometry.Rect) {
	i.target = r
	i.interpolating = true
}

// Tick advances the current crop one step and returns it
func (i *Interpolator) Tick() geometry.Rect {
	if !i.interpolating {
		return i.current
	}
	next := geometry.LerpRect(i.current, i.target, i.config.Smoothing)
	if geometry.MaxDelta(next, i.target) < i.config.Epsilon {
		next = i.target
		i.interpolating = false
	}
	i.current = next
	return i.current
}

// JumpToTarget moves the current crop straight to the target
func (i *Interpolator) JumpToTarget() {
	i.current = i.target
	i.interpolating = false
}

// ResetToFullFrame starts easing back to the full frame
func (i *Interpolator) ResetToFullFrame() {
	i.SetTarget(geometry.FullFrame)
}

// Current returns the active crop
func (i *Interpolator) Current() geometry.Rect { return i.current }

// Target returns the crop being eased toward
func (i *Interpolator) Target() geometry.Rect { return i.target }

// Interpolating reports whether the crop is still moving
func (i *Interpolator) Interpolating() bool { return i.interpolating }
