package room

import (
	"arenagame/game"
	"arenagame/protocol"
)

// snapshot renders the simulation as the quantized wire state.
func snapshot(s *game.Sim) protocol.GameState {
	st := protocol.GameState{
		ServerTime: uint32(s.ServerTime()),
		TickIndex:  s.TickIndex(),
		RoomName:   s.RoomName(),
		Mode:       string(s.Mode()),
		Phase:      s.Phase().String(),
		Countdown:  s.Countdown(),
		Remaining:  s.Remaining(),
		Golden:     s.GoldenChain(),
		WinnerID:   s.WinnerID(),
		Message:    s.Message(),
		BombHolder: s.BombHolder(),
		BombTimer:  s.BombTimer(),
	}
	if e := s.Status(); e != nil {
		st.Status = &protocol.StatusEffect{Type: string(e.Type), Remaining: e.Remaining, PlayerID: e.PlayerID}
	}

	f := s.Fish()
	st.Fish = protocol.FishState{
		X: f.X, Y: f.Y, Size: f.Size,
		Alive: f.Alive, Spawned: f.Spawned,
		Type: string(f.Type), Direction: f.Direction,
	}
	st.PowerUp = powerUpState(s.PowerUp())
	for _, pu := range s.PowerUps() {
		st.PowerUps = append(st.PowerUps, powerUpState(pu))
	}
	for _, w := range s.Walls() {
		st.Walls = append(st.Walls, protocol.Wall{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height})
	}
	for _, m := range s.Mines() {
		st.Mines = append(st.Mines, protocol.Mine{X: m.X, Y: m.Y, Size: m.Size})
	}
	for _, p := range s.Players() {
		st.Players = append(st.Players, protocol.PlayerState{
			ID:         p.ID,
			Name:       p.Name,
			Score:      p.Score,
			Ready:      p.Ready,
			Alive:      p.Alive,
			X:          p.X,
			Y:          p.Y,
			Size:       p.Size,
			Facing:     p.Facing,
			Moving:     p.Moving,
			WalkCycle:  p.WalkCycle,
			StepAccum:  p.StepAccum,
			Appearance: game.AppearanceJSON(p.Appearance),
		})
	}
	protocol.Quantize(&st)
	return st
}

func powerUpState(pu game.PowerUp) protocol.PowerUpState {
	return protocol.PowerUpState{
		X: pu.X, Y: pu.Y, Size: pu.Size,
		Active: pu.Active, Remaining: pu.Remaining,
		Type: string(pu.Type),
	}
}
