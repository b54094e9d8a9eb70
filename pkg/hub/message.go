// Package hub fans websocket messages out to dashboard clients over
// channels. One goroutine owns the client set; each client has its own
// write pump.
package hub

// MessageType selects the websocket frame type
type MessageType int

const (
	// JSONMessage is sent as a text frame
	JSONMessage MessageType = iota
	// BinaryMessage is sent as a binary frame (JPEG previews)
	BinaryMessage
)

// Message is one broadcast payload
type Message struct {
	Type MessageType
	Data []byte

	// Droppable messages are skipped for clients whose buffer is full
	// instead of disconnecting them. Preview frames are droppable since a
	// newer one follows shortly.
	Droppable bool
}

// NewJSONMessage wraps pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps binary data
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// NewFrameMessage wraps an encoded preview frame
func NewFrameMessage(jpeg []byte) Message {
	return Message{Type: BinaryMessage, Data: jpeg, Droppable: true}
}
