package protocol

import "time"

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame announcement for a shared surface handle
func NewFrameMessage(handle uint32, ts float64, width, height int32) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Handle:    handle,
		Timestamp: ts,
		Width:     width,
		Height:    height,
	})
}

// NewCaptureMessage creates a capture state message
func NewCaptureMessage(active bool) (*Message, error) {
	return NewMessage(TypeCapture, CaptureData{Active: active})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// PongFor answers a ping message
func PongFor(ping *Message) (*Message, error) {
	data, err := ping.GetPingData()
	if err != nil {
		return nil, err
	}
	return NewPongMessage(data.ID, data.Timestamp, time.Now().UnixMilli())
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCaptureData extracts capture state from a message
func (m *Message) GetCaptureData() (*CaptureData, error) {
	var data CaptureData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
