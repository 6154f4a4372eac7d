package game

// RosterEntry is a player as the room knows it at round start.
type RosterEntry struct {
	PresenceMeta
	Absent bool
}

// Roster lists every player in roster order with their presence flag.
func (s *Sim) Roster() []RosterEntry {
	out := make([]RosterEntry, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, RosterEntry{
			PresenceMeta: PresenceMeta{
				PlayerID:   p.ID,
				Name:       p.Name,
				Appearance: p.Appearance,
				JoinedAt:   p.joinedAt,
			},
			Absent: p.absent,
		})
	}
	return out
}

// Present is the presence snapshot the roster currently reflects.
func (s *Sim) Present() []PresenceMeta {
	out := make([]PresenceMeta, 0, len(s.players))
	for _, e := range s.Roster() {
		if !e.Absent {
			out = append(out, e.PresenceMeta)
		}
	}
	return out
}

// NewWithRoster builds a lobby room whose roster is exactly entries, in the
// given order. Nobody is ready, so the room stays in the lobby until
// BeginRound.
func NewWithRoster(roomName string, mode Mode, entries []RosterEntry) *Sim {
	s := New(roomName, mode)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.PlayerID == "" || seen[e.PlayerID] {
			continue
		}
		seen[e.PlayerID] = true
		p := s.newPlayer(e.PresenceMeta)
		p.absent = e.Absent
		s.players = append(s.players, p)
	}
	s.updateLobbyMessage()
	return s
}
