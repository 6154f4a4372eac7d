package protocol

import (
	"encoding/json"
	"fmt"
)

func EncodeServerMessage(m ServerMessage) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("trying to encode server message without type")
	}
	return json.Marshal(m)
}

func DecodeServerMessage(b []byte) (ServerMessage, error) {
	var m ServerMessage
	if len(b) == 0 {
		return m, fmt.Errorf("decode server message: %w", ErrEmptyFrame)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode server message: %w", err)
	}
	return m, nil
}

func EncodeClientMessage(m ClientMessage) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("trying to encode client message without type")
	}
	return json.Marshal(m)
}

// DecodeClientMessage parses a text frame. Unknown types are returned as is
// and left for the caller to ignore.
func DecodeClientMessage(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if len(b) == 0 {
		return m, fmt.Errorf("decode client message: %w", ErrEmptyFrame)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode client message: %w", err)
	}
	if m.Type == "" {
		return m, fmt.Errorf("decode client message: missing type")
	}
	return m, nil
}
