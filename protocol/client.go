package protocol

import "math"

// Messages coming in from the client.

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ChatMessage struct {
	ID       string `json:"id,omitempty"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	At       int64  `json:"at"`
}

// ClientMessage is a JSON text frame sent by a player.
type ClientMessage struct {
	Type       string         `json:"type"`
	Ready      *bool          `json:"ready,omitempty"`
	Appearance map[string]any `json:"appearance,omitempty"`
	Message    *ChatMessage   `json:"message,omitempty"`
	Vector     *Vector        `json:"vector,omitempty"`
}

// Input is a decoded binary input frame.
type Input struct {
	PlayerID string
	X, Y     float64
}

// EncodeInput writes the client to server input frame: player id followed by
// the movement vector as two float32.
func EncodeInput(playerID string, x, y float64) []byte {
	w := &writer{}
	w.str(playerID)
	w.f32(x)
	w.f32(y)
	return w.bytes()
}

// DecodeInput reports false for frames too short to hold a full vector.
func DecodeInput(data []byte) (Input, bool) {
	r := &reader{data: data, warned: true}
	n := int(r.u16())
	if len(data) < 2+n+8 {
		return Input{}, false
	}
	r.off = 0
	in := Input{PlayerID: r.str(), X: r.f32(), Y: r.f32()}
	if math.IsNaN(in.X) || math.IsNaN(in.Y) {
		return Input{}, false
	}
	return in, true
}
