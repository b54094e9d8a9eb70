// Package bridge moves rendered frames from the capture process to the
// virtual-camera sink process. The producer announces shared-memory surface
// handles over a websocket; the consumer queues them and feeds the sink on
// its own clock, filling gaps with keepalive frames.
package bridge

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrNotConnected is returned when a message is sent with no live connection.
	ErrNotConnected = errors.New("bridge: not connected")

	// ErrRetriesExhausted is reported by Producer.Err after the retry budget is spent.
	ErrRetriesExhausted = errors.New("bridge: retries exhausted")

	// ErrInvalidated is reported by Producer.Err after the consumer closed the connection normally.
	ErrInvalidated = errors.New("bridge: connection invalidated")

	// ErrWrongService is returned when a producer addresses another service name.
	ErrWrongService = errors.New("bridge: unknown service")

	// ErrLocked is returned when another sink already owns the service name.
	ErrLocked = errors.New("bridge: service already served by another sink")
)
