package protocol

// ServerMessage is a JSON text frame sent to players. Snapshots never travel
// this way, they use the binary frames.
type ServerMessage struct {
	Type     string       `json:"type"`
	PlayerID string       `json:"playerId,omitempty"`
	Room     string       `json:"room,omitempty"`
	TickHz   int          `json:"tickHz,omitempty"`
	Message  *ChatMessage `json:"message,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Welcome is the first text frame of every connection. It tells anonymous
// sockets the id the server assigned.
func Welcome(playerID, room string, tickHz int) ServerMessage {
	return ServerMessage{Type: MsgWelcome, PlayerID: playerID, Room: room, TickHz: tickHz}
}

func ChatFrame(msg ChatMessage) ServerMessage {
	return ServerMessage{Type: MsgChat, Message: &msg}
}

func ErrorFrame(text string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: text}
}
