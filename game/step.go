package game

import (
	"math"
	"time"

	"arenagame/grid"
	"arenagame/layout"
	"arenagame/rng"
)

// Step advances the room by one fixed tick of TickDt seconds. now only feeds
// the server timestamp; the simulation itself never reads the clock.
func (s *Sim) Step(now time.Time) {
	s.stamp(now)
	s.tickIndex++

	switch s.phase {
	case PhaseCountdown:
		s.countdown = math.Max(0, s.countdown-TickDt)
		if s.countdown <= 0 {
			if s.presentCount() == 0 {
				s.resetToLobby()
				return
			}
			s.BeginRound(rng.NewSeed())
		}
	case PhasePlaying:
		s.clock += TickDt
		s.roundTick++
		if s.mode == ModeBombPass {
			s.updateBombPass(TickDt)
		} else {
			s.updatePlaying(TickDt)
		}
	}
}

// BeginRound spawns every present player on a ring around the centre,
// reseeds the generator and resets the world.
func (s *Sim) BeginRound(seed uint32) {
	s.assignSpawnPositions()
	s.rand = rng.New(seed)
	s.layout = &layout.Generator{Rand: s.rand, World: s.world}
	s.resetWorld()
	s.golden = false
	s.winnerID = ""
	s.inputs = make(map[string]Input)
	s.roundTick = 0
	s.clock = 0
	s.countdown = 0

	if s.mode == ModeBombPass {
		s.beginBombRound()
	} else {
		s.spawnFish(true)
	}
	s.phase = PhasePlaying
	s.message = msgRoundStarted
}

func (s *Sim) assignSpawnPositions() {
	present := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		if !p.absent {
			present = append(present, p)
		}
	}
	s.participants = len(present)
	if len(present) == 0 {
		return
	}
	radius := math.Min(s.world/2-spawnRingMargin, spawnRingMax)
	for i, p := range present {
		angle := float64(i) / float64(len(present)) * math.Pi * 2
		p.X = s.world/2 + math.Cos(angle)*radius
		p.Y = s.world/2 + math.Sin(angle)*radius
		p.Score = 0
		p.Ready = false
		p.Alive = true
		p.WalkCycle = 0
		p.StepAccum = 0
		p.Moving = false
		p.Facing = 1
	}
}

func (s *Sim) resetWorld() {
	s.walls = nil
	s.mines = nil
	s.status = nil
	s.powerUp = PowerUp{Size: PowerUpSize}
	s.powerUps = nil
	s.effects = make(map[string]*StatusEffect)
	s.slowTimers = make(map[string]float64)
	s.lastPass = bombPass{}
	s.powerUpClock = 0
	s.bombHolder = ""
	s.bombTimer = 0
}

func (s *Sim) updatePlaying(dt float64) {
	s.remaining = math.Max(0, s.remaining-dt)
	s.updateStatusEffect(dt)
	multiplier := s.speedMultiplier()
	s.updatePowerUp(dt)
	s.updateFishMovement(dt)

	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		s.movePlayer(p, dt, multiplier)
		p.X, p.Y = grid.ResolveCircle(p.X, p.Y, p.Size/2, s.walls)
		s.clampPlayer(p)

		if s.fish.Alive && math.Hypot(p.X-s.fish.X, p.Y-s.fish.Y) < (p.Size+s.fish.Size)/2 {
			golden := s.fish.Type == FishGolden
			if golden {
				p.Score += GoldenFishPoints
			} else {
				p.Score += NormalFishPoints
			}
			s.golden = golden
			s.spawnFish(false)
		}

		for _, m := range s.mines {
			if math.Hypot(p.X-m.X, p.Y-m.Y) < (p.Size+m.Size)/2 {
				p.Alive = false
				p.Moving = false
				break
			}
		}
	}

	if s.roundOver() {
		s.endRound(s.eliminationMessage())
		return
	}

	if s.remaining <= 0 {
		if s.fish.Type == FishGolden {
			s.fish.Alive = false
			s.golden = false
			s.spawnFish(true)
			return
		}
		if s.determineWinner() != "" {
			s.endRound(msgFishEscaped)
		} else {
			s.endRound(msgFishNoWinner)
		}
	}
}

// movePlayer applies the latest input: normalized direction scaled by speed,
// with magnitude capped at 1.
func (s *Sim) movePlayer(p *Player, dt, multiplier float64) {
	in := s.inputs[p.ID]
	length := math.Hypot(in.X, in.Y)
	if length <= 0.001 {
		p.Moving = false
		p.WalkCycle = 0
		p.StepAccum = 0
		return
	}
	capped := math.Min(length, 1)
	nx, ny := in.X/length, in.Y/length
	distance := CatSpeed * multiplier * dt * capped
	p.X += nx * distance
	p.Y += ny * distance
	p.Moving = true
	if math.Abs(nx) > 0.1 {
		p.Facing = 1
		if nx < 0 {
			p.Facing = -1
		}
	}
	walk := dt * WalkFrequency * capped * multiplier
	p.WalkCycle = math.Mod(p.WalkCycle+walk, 1)
	p.StepAccum += walk
	for p.StepAccum >= 0.5 {
		p.StepAccum -= 0.5
	}
}

func (s *Sim) presentCount() int {
	n := 0
	for _, p := range s.players {
		if !p.absent {
			n++
		}
	}
	return n
}

func (s *Sim) aliveCount() int {
	n := 0
	for _, p := range s.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// roundOver is the elimination rule: a shared round ends at one survivor, a
// solo round when its only player dies.
func (s *Sim) roundOver() bool {
	alive := s.aliveCount()
	if alive == 0 {
		return true
	}
	return s.participants >= 2 && alive <= 1
}

func (s *Sim) eliminationMessage() string {
	if s.aliveCount() == 1 {
		return msgLastStanding
	}
	return msgNoSurvivors
}

// determineWinner picks the sole survivor, or the top score when nobody is
// left (first in roster order on ties), or nobody.
func (s *Sim) determineWinner() string {
	alive := s.alivePlayers()
	if len(alive) == 1 {
		return alive[0].ID
	}
	if len(alive) > 0 || s.mode == ModeBombPass {
		return ""
	}
	var best *Player
	for _, p := range s.players {
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

func (s *Sim) endRound(message string) {
	s.winnerID = s.determineWinner()
	s.phase = PhaseEnded
	if message == "" {
		message = msgNoSurvivors
	}
	s.message = message
	s.countdown = 0
	s.fish.Alive = false
	s.status = nil
	for _, p := range s.players {
		p.Moving = false
	}
}
