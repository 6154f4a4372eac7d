package game

import (
	"fmt"
	"math"
	"sort"
	"time"

	"arenagame/grid"
	"arenagame/layout"
	"arenagame/rng"
)

// Sim is the authoritative state of one room. It is not safe for concurrent
// use; the room goroutine owns it.
type Sim struct {
	roomName string
	mode     Mode
	world    float64

	rand   *rng.Source
	layout *layout.Generator

	phase     Phase
	countdown float64
	remaining float64
	message   string
	winnerID  string
	golden    bool

	players []*Player
	inputs  map[string]Input

	fish     Fish
	walls    []grid.Rect
	mines    []layout.Mine
	powerUp  PowerUp
	powerUps []PowerUp
	status   *StatusEffect

	participants int

	bombHolder   string
	bombTimer    float64
	slowTimers   map[string]float64
	effects      map[string]*StatusEffect
	lastPass     bombPass
	powerUpClock float64

	tickIndex  uint32
	roundTick  uint64
	clock      float64
	serverTime int64
}

func New(roomName string, mode Mode) *Sim {
	mode = ParseMode(string(mode))
	world := mode.WorldSize()
	src := rng.New(rng.NewSeed())
	s := &Sim{
		roomName:   roomName,
		mode:       mode,
		world:      world,
		rand:       src,
		layout:     layout.New(src, world),
		phase:      PhaseLobby,
		remaining:  NormalFishTimeLimit,
		message:    msgWaiting,
		inputs:     make(map[string]Input),
		slowTimers: make(map[string]float64),
		effects:    make(map[string]*StatusEffect),
		fish: Fish{
			X: world / 2, Y: world / 2,
			Size: FishSize, Type: FishNormal, Direction: 1,
		},
		powerUp: PowerUp{Size: PowerUpSize},
	}
	if mode == ModeBombPass {
		s.bombTimer = BombTimerDuration
	}
	return s
}

const (
	msgWaiting       = "Waiting for players"
	msgAllReady      = "All players ready"
	msgStartingSoon  = "Round starting soon"
	msgRoundStarted  = "Round started"
	msgLastStanding  = "Last cat standing wins"
	msgNoSurvivors   = "No one survived"
	msgFishEscaped   = "The fish got away"
	msgFishNoWinner  = "The fish got away, no winner"
	msgBombSurvivor  = "Only one cat survived the bomb"
	msgBombNoWinners = "The bomb took everyone"
)

func (s *Sim) RoomName() string       { return s.roomName }
func (s *Sim) Mode() Mode             { return s.mode }
func (s *Sim) World() float64         { return s.world }
func (s *Sim) Phase() Phase           { return s.phase }
func (s *Sim) Countdown() float64     { return s.countdown }
func (s *Sim) Remaining() float64     { return s.remaining }
func (s *Sim) Message() string        { return s.message }
func (s *Sim) WinnerID() string       { return s.winnerID }
func (s *Sim) GoldenChain() bool      { return s.golden }
func (s *Sim) Fish() Fish             { return s.fish }
func (s *Sim) PowerUp() PowerUp       { return s.powerUp }
func (s *Sim) BombHolder() string     { return s.bombHolder }
func (s *Sim) BombTimer() float64     { return s.bombTimer }
func (s *Sim) Seed() uint32           { return s.rand.Seed() }
func (s *Sim) TickIndex() uint32      { return s.tickIndex }
func (s *Sim) RoundTick() uint64      { return s.roundTick }
func (s *Sim) ServerTime() int64      { return s.serverTime }
func (s *Sim) Participants() int      { return s.participants }
func (s *Sim) Walls() []grid.Rect     { return append([]grid.Rect(nil), s.walls...) }
func (s *Sim) Mines() []layout.Mine   { return append([]layout.Mine(nil), s.mines...) }
func (s *Sim) PowerUps() []PowerUp    { return append([]PowerUp(nil), s.powerUps...) }
func (s *Sim) Input(id string) Input  { return s.inputs[id] }

func (s *Sim) Status() *StatusEffect {
	if s.status == nil {
		return nil
	}
	cp := *s.status
	return &cp
}

// Players returns copies in roster (join) order.
func (s *Sim) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	return out
}

func (s *Sim) Player(id string) (Player, bool) {
	p := s.find(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

func (s *Sim) find(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Sim) newPlayer(meta PresenceMeta) *Player {
	return &Player{
		ID:         meta.PlayerID,
		Name:       fallbackName(meta.Name),
		X:          s.world / 2,
		Y:          s.world / 2,
		Size:       CatSize,
		Facing:     1,
		Appearance: SanitizeAppearance(meta.Appearance),
		joinedAt:   meta.JoinedAt,
	}
}

// SyncPresence reconciles the roster with the transport's presence snapshot.
// Missing players are dropped in lobby and ended; mid-round they stay in the
// standings but are no longer alive.
func (s *Sim) SyncPresence(entries []PresenceMeta) {
	metas := make([]PresenceMeta, 0, len(entries))
	for _, m := range entries {
		if m.PlayerID != "" {
			metas = append(metas, m)
		}
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].JoinedAt.Before(metas[j].JoinedAt)
	})

	present := make(map[string]bool, len(metas))
	for _, meta := range metas {
		if present[meta.PlayerID] {
			continue
		}
		present[meta.PlayerID] = true
		p := s.find(meta.PlayerID)
		if p == nil {
			p = s.newPlayer(meta)
			s.players = append(s.players, p)
		}
		p.absent = false
		if meta.Name != "" {
			p.Name = fallbackName(meta.Name)
		}
		if meta.Appearance != nil {
			p.Appearance = SanitizeAppearance(meta.Appearance)
		}
	}

	if s.phase == PhasePlaying || s.phase == PhaseCountdown {
		for _, p := range s.players {
			if !present[p.ID] {
				p.absent = true
				p.Alive = false
				p.Moving = false
			}
		}
	} else {
		kept := s.players[:0]
		for _, p := range s.players {
			if present[p.ID] {
				kept = append(kept, p)
			} else {
				delete(s.inputs, p.ID)
			}
		}
		s.players = kept
	}

	if s.phase == PhaseLobby {
		s.checkAllReady()
	}
}

func (s *Sim) readyCount() (ready, total int) {
	for _, p := range s.players {
		if p.absent {
			continue
		}
		total++
		if p.Ready {
			ready++
		}
	}
	return ready, total
}

func (s *Sim) updateLobbyMessage() {
	if s.phase != PhaseLobby {
		return
	}
	ready, total := s.readyCount()
	switch {
	case total == 0:
		s.message = msgWaiting
	case ready == total:
		s.message = msgAllReady
	default:
		s.message = fmt.Sprintf("Ready %d of %d", ready, total)
	}
}

func (s *Sim) checkAllReady() {
	s.updateLobbyMessage()
	ready, total := s.readyCount()
	if total > 0 && ready == total {
		s.phase = PhaseCountdown
		s.countdown = CountdownSeconds
		s.message = msgStartingSoon
	}
}

// SetReady applies a ready toggle. Readying in ended returns the room to the
// lobby first; un-readying during countdown cancels it.
func (s *Sim) SetReady(id string, ready bool) {
	p := s.find(id)
	if p == nil {
		return
	}

	if s.phase == PhaseEnded {
		s.resetToLobby()
	}

	if s.phase == PhaseCountdown && !ready {
		s.phase = PhaseLobby
		s.countdown = 0
		s.status = nil
		p.Ready = false
		s.updateLobbyMessage()
		return
	}

	if s.phase != PhaseLobby {
		return
	}
	p.Ready = ready
	s.checkAllReady()
}

func (s *Sim) resetToLobby() {
	s.phase = PhaseLobby
	s.countdown = 0
	s.winnerID = ""
	s.fish.Alive = false
	s.status = nil
	s.message = msgWaiting
	s.inputs = make(map[string]Input)
	kept := s.players[:0]
	for _, p := range s.players {
		if p.absent {
			continue
		}
		p.Ready = false
		p.Alive = false
		p.Score = 0
		p.Moving = false
		kept = append(kept, p)
	}
	s.players = kept
}

func (s *Sim) SetAppearance(id string, a Appearance) {
	if p := s.find(id); p != nil && a != nil {
		p.Appearance = SanitizeAppearance(a)
	}
}

// SetInput stores the latest intent vector for a player. Non-finite values
// are ignored and the previous vector stays in effect.
func (s *Sim) SetInput(id string, in Input) {
	if !finite(in.X) || !finite(in.Y) {
		return
	}
	s.inputs[id] = Input{
		X: grid.Clamp(in.X, -InputLimit, InputLimit),
		Y: grid.Clamp(in.Y, -InputLimit, InputLimit),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (s *Sim) alivePlayers() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (s *Sim) clampPlayer(p *Player) {
	p.X = grid.Clamp(p.X, p.Size/2, s.world-p.Size/2)
	p.Y = grid.Clamp(p.Y, p.Size/2, s.world-p.Size/2)
}

func (s *Sim) stamp(now time.Time) {
	s.serverTime = now.UnixMilli()
}
