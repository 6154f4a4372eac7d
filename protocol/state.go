package protocol

import (
	"errors"
	"fmt"
)

var ErrEmptyFrame = errors.New("protocol: empty frame")

const (
	wallWireSize    = 16
	mineWireSize    = 12
	powerUpWireSize = 18
)

func writeStatus(w *writer, st *StatusEffect) {
	if st == nil {
		st = &StatusEffect{}
	}
	w.str(st.Type)
	w.f32(st.Remaining)
	w.str(st.PlayerID)
}

func readStatus(r *reader) *StatusEffect {
	st := StatusEffect{Type: r.str(), Remaining: r.f32(), PlayerID: r.str()}
	return &st
}

func writeFish(w *writer, f FishState) {
	w.u8(fishCodes[f.Type])
	w.f32(f.X)
	w.f32(f.Y)
	w.f32(f.Size)
	w.boolean(f.Alive)
	w.boolean(f.Spawned)
	w.i16(int16(f.Direction))
}

func readFish(r *reader) FishState {
	return FishState{
		Type:      fishName(r.u8()),
		X:         r.f32(),
		Y:         r.f32(),
		Size:      r.f32(),
		Alive:     r.boolean(),
		Spawned:   r.boolean(),
		Direction: int(r.i16()),
	}
}

func writePowerUp(w *writer, p PowerUpState) {
	w.boolean(p.Active)
	w.f32(p.X)
	w.f32(p.Y)
	w.f32(p.Size)
	w.f32(p.Remaining)
	w.u8(powerUpCodes[p.Type])
}

func readPowerUp(r *reader) PowerUpState {
	return PowerUpState{
		Active:    r.boolean(),
		X:         r.f32(),
		Y:         r.f32(),
		Size:      r.f32(),
		Remaining: r.f32(),
		Type:      powerUpName(r.u8()),
	}
}

func writePowerUps(w *writer, list []PowerUpState) {
	n := min(len(list), MaxPowerUps)
	w.u8(uint8(n))
	for _, p := range list[:n] {
		writePowerUp(w, p)
	}
}

func readPowerUps(r *reader) []PowerUpState {
	n := r.count(int(r.u8()), powerUpWireSize, "power-up")
	out := make([]PowerUpState, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, readPowerUp(r))
	}
	return out
}

func writeWalls(w *writer, walls []Wall) {
	n := min(len(walls), MaxWalls)
	w.u16(uint16(n))
	for _, wl := range walls[:n] {
		w.f32(wl.X)
		w.f32(wl.Y)
		w.f32(wl.Width)
		w.f32(wl.Height)
	}
}

func readWalls(r *reader) []Wall {
	n := r.count(int(r.u16()), wallWireSize, "wall")
	out := make([]Wall, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Wall{X: r.f32(), Y: r.f32(), Width: r.f32(), Height: r.f32()})
	}
	return out
}

func writeMines(w *writer, mines []Mine) {
	n := min(len(mines), MaxMines)
	w.u8(uint8(n))
	for _, m := range mines[:n] {
		w.f32(m.X)
		w.f32(m.Y)
		w.f32(m.Size)
	}
}

func readMines(r *reader) []Mine {
	n := r.count(int(r.u8()), mineWireSize, "mine")
	out := make([]Mine, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Mine{X: r.f32(), Y: r.f32(), Size: r.f32()})
	}
	return out
}

func clipAppearance(s string) string {
	return cutString(s, MaxAppearanceWire)
}

func writePlayer(w *writer, p PlayerState) {
	w.str(p.ID)
	w.str(p.Name)
	w.u32(uint32(p.Score))
	w.boolean(p.Ready)
	w.boolean(p.Alive)
	w.f32(p.X)
	w.f32(p.Y)
	w.f32(p.Size)
	w.i16(int16(p.Facing))
	w.boolean(p.Moving)
	w.f32(p.WalkCycle)
	w.f32(p.StepAccum)
	w.str(clipAppearance(p.Appearance))
	w.str(p.Disguise)
}

func readPlayer(r *reader) PlayerState {
	return PlayerState{
		ID:         r.str(),
		Name:       r.str(),
		Score:      int(r.u32()),
		Ready:      r.boolean(),
		Alive:      r.boolean(),
		X:          r.f32(),
		Y:          r.f32(),
		Size:       r.f32(),
		Facing:     int(r.i16()),
		Moving:     r.boolean(),
		WalkCycle:  r.f32(),
		StepAccum:  r.f32(),
		Appearance: r.str(),
		Disguise:   r.str(),
	}
}

// EncodeState writes a full snapshot frame.
func EncodeState(s GameState) []byte {
	w := &writer{}
	w.u8(TypeFull)
	w.u32(s.ServerTime)
	w.u32(s.TickIndex)
	w.str(s.RoomName)
	w.str(s.Mode)
	w.u8(phaseCodes[s.Phase])
	w.f32(s.Countdown)
	w.f32(s.Remaining)
	w.str(s.HidePhase)
	w.boolean(s.Golden)
	w.str(s.WinnerID)
	w.str(s.Message)
	w.str(s.SeekerID)
	w.str(s.BombHolder)
	w.f32(s.BombTimer)
	writeStatus(w, s.Status)
	writeFish(w, s.Fish)
	writePowerUp(w, s.PowerUp)
	writePowerUps(w, s.PowerUps)
	writeWalls(w, s.Walls)
	writeMines(w, s.Mines)

	n := min(len(s.Players), MaxPlayers)
	w.u8(uint8(n))
	for _, p := range s.Players[:n] {
		writePlayer(w, p)
	}
	return w.bytes()
}

func readState(r *reader) *GameState {
	s := &GameState{
		ServerTime: r.u32(),
		TickIndex:  r.u32(),
		RoomName:   r.str(),
		Mode:       r.str(),
		Phase:      phaseName(r.u8()),
		Countdown:  r.f32(),
		Remaining:  r.f32(),
		HidePhase:  r.str(),
		Golden:     r.boolean(),
		WinnerID:   r.str(),
		Message:    r.str(),
		SeekerID:   r.str(),
		BombHolder: r.str(),
		BombTimer:  r.f32(),
	}
	if st := readStatus(r); st.Type != "" {
		s.Status = st
	}
	s.Fish = readFish(r)
	s.PowerUp = readPowerUp(r)
	s.PowerUps = readPowerUps(r)
	s.Walls = readWalls(r)
	s.Mines = readMines(r)

	n := int(r.u8())
	s.Players = make([]PlayerState, 0, n)
	for i := 0; i < n && r.remaining() > 0; i++ {
		s.Players = append(s.Players, readPlayer(r))
	}
	return s
}

// Decode parses one server frame. Truncated or malformed bodies decode to a
// best-effort partial message; only an empty frame or an unknown type byte is
// an error.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyFrame
	}
	r := &reader{data: data, off: 1}
	switch data[0] {
	case TypeFull:
		s := readState(r)
		return Message{Kind: KindFull, ServerTime: s.ServerTime, TickIndex: s.TickIndex, State: s}, nil
	case TypePatch:
		serverTime, tick := r.u32(), r.u32()
		return Message{Kind: KindPatch, ServerTime: serverTime, TickIndex: tick, Patch: readPatch(r)}, nil
	}
	return Message{}, fmt.Errorf("protocol: unknown frame type %d", data[0])
}
