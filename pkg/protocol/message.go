// Package protocol defines the WebSocket message types exchanged between the
// frame bridge producer (capture pipeline) and consumer (virtual camera sink).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Producer → Consumer messages
	TypeFrame   MessageType = "frame"   // Shared surface handle ready for display
	TypeCapture MessageType = "capture" // Capture started or stopped

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Producer → Consumer Message Types
// =============================================================================

// FrameData announces a rendered frame waiting in a shared surface
type FrameData struct {
	Handle    uint32  `json:"handle"` // Surface handle
	Timestamp float64 `json:"ts"`     // Presentation time in seconds
	Width     int32   `json:"width"`
	Height    int32   `json:"height"`
}

// CaptureData reports whether the producer is actively capturing
type CaptureData struct {
	Active bool `json:"active"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData is used for health checks
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// PongData is the response to a ping
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
