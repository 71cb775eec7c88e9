// Package notifications delivers realtime events to connected clients.
package notifications

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged over /ws.
const (
	TypeAuth            = "auth"
	TypeAuthSuccess     = "auth_success"
	TypePing            = "ping"
	TypePong            = "pong"
	TypeTyping          = "typing"
	TypeNewMessage      = "new_message"
	TypeNewPost         = "new_post"
	TypeNotification    = "notification"
	TypeError           = "error"
	TypeMessagesDropped = "messages_dropped"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an outbound frame.
func Encode(frameType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", frameType, err)
	}
	return json.Marshal(Envelope{Type: frameType, Data: raw})
}

// MustEncode is Encode for payloads that always marshal (maps of plain values).
func MustEncode(frameType string, data any) []byte {
	b, err := Encode(frameType, data)
	if err != nil {
		panic(err)
	}
	return b
}

// ErrorFrame builds an error frame with a message.
func ErrorFrame(message string) []byte {
	return MustEncode(TypeError, map[string]string{"message": message})
}

// Decode parses an inbound frame.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("invalid frame: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("invalid frame: missing type")
	}
	return env, nil
}
