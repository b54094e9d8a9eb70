package pipeline

import (
	"errors"

	"github.com/teslashibe/go-autoframe/pkg/geometry"
)

// MinManualSize is the smallest crop side an operator may request.
const MinManualSize = 0.1

// ErrBusy is returned when operator commands arrive faster than frames.
var ErrBusy = errors.New("pipeline: command queue full")

type commandKind int

const (
	cmdManualTarget commandKind = iota
	cmdJump
	cmdReset
	cmdAuto
)

type command struct {
	kind commandKind
	rect geometry.Rect
}

// The interpolator belongs to the Process goroutine, so operator commands
// are queued and applied at the start of the next frame.
func (p *Pipeline) enqueue(c command) error {
	select {
	case p.commands <- c:
		return nil
	default:
		return ErrBusy
	}
}

// SetManualTarget pauses composition and eases toward r, clamped to the
// frame with sides of at least MinManualSize. It returns the clamped rect.
func (p *Pipeline) SetManualTarget(r geometry.Rect) (geometry.Rect, error) {
	r = geometry.ClampRect(r, MinManualSize)
	return r, p.enqueue(command{kind: cmdManualTarget, rect: r})
}

// JumpToTarget skips the remaining easing
func (p *Pipeline) JumpToTarget() error {
	return p.enqueue(command{kind: cmdJump})
}

// ResetCrop eases back to the full frame
func (p *Pipeline) ResetCrop() error {
	return p.enqueue(command{kind: cmdReset})
}

// ResumeAuto hands the target back to the composer
func (p *Pipeline) ResumeAuto() error {
	return p.enqueue(command{kind: cmdAuto})
}

func (p *Pipeline) applyCommands() {
	for {
		select {
		case c := <-p.commands:
			p.apply(c)
		default:
			return
		}
	}
}

func (p *Pipeline) apply(c command) {
	switch c.kind {
	case cmdManualTarget:
		if p.mode != ModeManual {
			p.logger.Info("manual framing engaged")
		}
		p.mode = ModeManual
		p.interp.SetTarget(c.rect)

	case cmdJump:
		p.interp.JumpToTarget()

	case cmdReset:
		p.resetShot("operator reset")

	case cmdAuto:
		if p.mode == ModeAuto {
			return
		}
		p.mode = ModeAuto
		// Drop the deadzone anchor so the next subject is framed at once.
		p.composer.Reset()
		p.logger.Info("automatic framing resumed")
	}
}
