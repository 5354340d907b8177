// Package hub fans display updates out to websocket viewers: JPEG frames on
// the camera feed, JSON results on the status feed.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded status update
	JSONMessage MessageType = iota
	// BinaryMessage is an encoded frame
	BinaryMessage
)

func (t MessageType) wsType() int {
	if t == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// String returns the type name for logging.
func (t MessageType) String() string {
	if t == BinaryMessage {
		return "binary"
	}
	return "json"
}

// Message is one broadcast payload
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
