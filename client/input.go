package client

import (
	"math"
	"time"

	"arenagame/protocol"
)

// InputSampler decides which locally sampled input vectors are worth sending.
type InputSampler struct {
	PlayerID string
	// Deadzone is the smallest change of the vector that is resent.
	Deadzone float64
	// MaxSilence forces a resend even when the vector did not move.
	MaxSilence time.Duration

	last     protocol.Vector
	lastSent time.Time
	sent     bool
}

// Sample returns the encoded input frame and true when the vector should go
// out now.
func (s *InputSampler) Sample(x, y float64, now time.Time) ([]byte, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return nil, false
	}
	moved := math.Hypot(x-s.last.X, y-s.last.Y) > s.Deadzone
	silent := s.MaxSilence > 0 && now.Sub(s.lastSent) >= s.MaxSilence
	if s.sent && !moved && !silent {
		return nil, false
	}
	s.last = protocol.Vector{X: x, Y: y}
	s.lastSent = now
	s.sent = true
	return protocol.EncodeInput(s.PlayerID, x, y), true
}
