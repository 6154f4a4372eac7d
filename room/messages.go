package room

import (
	"errors"

	"arenagame/game"
	"arenagame/replay"
)

var (
	ErrModeMismatch = errors.New("room was created in another mode")
	ErrNoRoomName   = errors.New("room name required")
	ErrNoPlayerID   = errors.New("player id required")
	ErrTooManyRooms = errors.New("too many rooms")
	ErrRoomClosed   = errors.New("room closed")
	ErrNoRoom       = errors.New("no such room")
)

// Conn is one player's socket as the room sees it. Send carries binary
// state frames, SendText JSON control frames. Both must not block.
type Conn interface {
	Send([]byte) error
	SendText([]byte) error
	Close() error
}

// Join: issued once per connection after the handshake
type Join struct {
	Conn       Conn
	PlayerID   string
	Name       string
	Appearance game.Appearance
	Reply      chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Room     string
	Mode     game.Mode
}

// Input: latest intent vector for a player
type Input struct {
	PlayerID string
	Input    game.Input
}

// Leave: issued on disconnect. Conn tells a stale socket apart from a
// reconnect that already replaced it.
type Leave struct {
	PlayerID string
	Conn     Conn
}

type Ready struct {
	PlayerID string
	Ready    bool
}

type SetAppearance struct {
	PlayerID   string
	Appearance game.Appearance
}

type Chat struct {
	PlayerID string
	Text     string
}

// ReplayRequest asks for the last finished round.
type ReplayRequest struct {
	Reply chan<- *replay.Record
}

// presenceExpired fires when a disconnected player's grace window ran out.
type presenceExpired struct {
	PlayerID string
	gen      uint64
}
