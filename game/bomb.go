package game

import (
	"fmt"
	"math"

	"arenagame/grid"
	"arenagame/layout"
)

// bombContactSlack lets players that were just pushed apart still count as
// touching.
const bombContactSlack = 0.5

type bombPass struct {
	from, to string
	at       float64
}

func (s *Sim) beginBombRound() {
	s.fish = Fish{X: s.world / 2, Y: s.world / 2, Size: FishSize, Type: FishNormal, Direction: 1}
	s.buildBombArena()
	s.bombTimer = BombTimerDuration
	s.assignBomb(true)
	s.remaining = s.bombTimer
}

// buildBombArena walls the big arena in and adds one generated layout
// anchored on the centre cell.
func (s *Sim) buildBombArena() {
	walls := grid.BoundaryRects(s.world)

	refs := make([]grid.Cell, 0, len(s.players))
	avoid := make([]layout.Circle, 0, len(s.players))
	for _, p := range s.players {
		refs = append(refs, grid.PositionToCell(p.X, p.Y, s.world))
		avoid = append(avoid, layout.Circle{X: p.X, Y: p.Y, R: p.Size / 2})
	}
	if len(refs) > 0 {
		anchor := grid.Cell{Row: grid.Size / 2, Col: grid.Size / 2}
		if containsCell(refs, anchor) {
			anchor.Row--
		}
		walls = append(walls, s.layout.Walls(refs, anchor, avoid)...)
	}
	s.walls = walls
	s.afterWallChange()
}

func (s *Sim) updateBombPass(dt float64) {
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		s.movePlayer(p, dt, s.playerMultiplier(p.ID))
		p.X, p.Y = grid.ResolveCircle(p.X, p.Y, p.Size/2, s.walls)
		s.clampPlayer(p)
	}
	s.pushPlayersApart()
	s.updateBombPowerUps(dt)

	if s.roundOver() {
		s.endRound(s.bombEndMessage())
		return
	}

	s.tickSlowdowns(dt)
	if !s.holderAlive() {
		s.assignBomb(true)
	}
	s.transferBomb()

	s.bombTimer = math.Max(0, s.bombTimer-dt)
	s.remaining = s.bombTimer

	if !s.holderAlive() {
		s.assignBomb(true)
	}
	if holder := s.find(s.bombHolder); holder != nil && holder.Alive && s.bombTimer <= 0 {
		holder.Alive = false
		holder.Moving = false
		s.message = fmt.Sprintf("%s could not get rid of the bomb!", holder.Name)
		s.bombHolder = ""
		s.bombTimer = BombTimerDuration
		s.remaining = s.bombTimer
	}
	if s.roundOver() {
		s.endRound(s.bombEndMessage())
		return
	}
	if s.bombHolder == "" {
		s.assignBomb(true)
	}
}

func (s *Sim) bombEndMessage() string {
	if s.aliveCount() == 1 {
		return msgBombSurvivor
	}
	return msgBombNoWinners
}

func (s *Sim) holderAlive() bool {
	p := s.find(s.bombHolder)
	return p != nil && p.Alive
}

func (s *Sim) assignBomb(resetTimer bool) {
	alive := s.alivePlayers()
	if len(alive) == 0 {
		s.bombHolder = ""
		return
	}
	s.lastPass = bombPass{}
	picked := alive[s.rand.Intn(len(alive))]
	s.bombHolder = picked.ID
	if resetTimer {
		s.bombTimer = BombTimerDuration
	}
	s.slowTimers[picked.ID] = BombSlowDuration
	s.message = fmt.Sprintf("%s has the bomb!", picked.Name)
}

// transferBomb passes the bomb to the first alive player the holder touches.
// Handing it straight back within BombPassBackWindow is ignored.
func (s *Sim) transferBomb() {
	holder := s.find(s.bombHolder)
	if holder == nil || !holder.Alive {
		return
	}
	for _, p := range s.players {
		if p.ID == holder.ID || !p.Alive {
			continue
		}
		if math.Hypot(holder.X-p.X, holder.Y-p.Y) > (holder.Size+p.Size)/2+bombContactSlack {
			continue
		}
		passBack := s.lastPass.to == holder.ID && s.lastPass.from == p.ID &&
			s.clock-s.lastPass.at < BombPassBackWindow
		if passBack {
			continue
		}
		s.bombHolder = p.ID
		s.bombTimer = math.Max(s.bombTimer, 0) + BombTimerBonus
		s.slowTimers[p.ID] = BombSlowDuration
		s.lastPass = bombPass{from: holder.ID, to: p.ID, at: s.clock}
		s.message = fmt.Sprintf("%s passed the bomb to %s", holder.Name, p.Name)
		return
	}
}

func (s *Sim) tickSlowdowns(dt float64) {
	for id, left := range s.slowTimers {
		left -= dt
		if left <= 0 {
			delete(s.slowTimers, id)
			continue
		}
		s.slowTimers[id] = left
	}
}

func (s *Sim) playerMultiplier(id string) float64 {
	m := 1.0
	if e := s.effects[id]; e != nil {
		m *= effectMultiplier(e.Type)
	}
	if left, ok := s.slowTimers[id]; ok && left > 0 {
		m *= BombSlowFactor
	}
	return m
}

// pushPlayersApart separates overlapping alive players equally along the line
// between their centres.
func (s *Sim) pushPlayersApart() {
	alive := s.alivePlayers()
	for i := 0; i < len(alive); i++ {
		for j := i + 1; j < len(alive); j++ {
			a, b := alive[i], alive[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			dist := math.Hypot(dx, dy)
			minDist := (a.Size + b.Size) / 2
			if minDist <= 0 || dist >= minDist {
				continue
			}
			if dist == 0 {
				dx, dy, dist = 1, 0, 1
			}
			push := (minDist - dist) / 2
			nx, ny := dx/dist, dy/dist
			a.X -= nx * push
			a.Y -= ny * push
			b.X += nx * push
			b.Y += ny * push
		}
	}
	for _, p := range alive {
		p.X, p.Y = grid.ResolveCircle(p.X, p.Y, p.Size/2, s.walls)
		s.clampPlayer(p)
	}
}

// updateBombPowerUps spawns a pickup every BombPowerUpInterval, ages the
// existing ones and hands out personal speed effects.
func (s *Sim) updateBombPowerUps(dt float64) {
	s.powerUpClock += dt
	if s.powerUpClock >= BombPowerUpInterval {
		s.powerUpClock -= BombPowerUpInterval
		if len(s.powerUps) < BombPowerUpMax {
			s.spawnBombPowerUp()
		}
	}

	kept := s.powerUps[:0]
	for _, pu := range s.powerUps {
		pu.Remaining -= dt
		if pu.Remaining <= 0 {
			continue
		}
		if p := s.pickupBy(pu); p != nil {
			effect := StatusSpeedUp
			if pu.Type == PowerUpSlow {
				effect = StatusSpeedDown
			}
			e := &StatusEffect{Type: effect, Remaining: PowerUpDuration, PlayerID: p.ID}
			s.effects[p.ID] = e
			s.status = e
			continue
		}
		kept = append(kept, pu)
	}
	s.powerUps = kept

	for id, e := range s.effects {
		e.Remaining -= dt
		if e.Remaining > 0 {
			continue
		}
		delete(s.effects, id)
		if s.status == e {
			s.status = nil
		}
	}
}

func (s *Sim) pickupBy(pu PowerUp) *Player {
	for _, p := range s.players {
		if p.Alive && math.Hypot(p.X-pu.X, p.Y-pu.Y) < (p.Size+pu.Size)/2 {
			return p
		}
	}
	return nil
}

func (s *Sim) spawnBombPowerUp() {
	for attempt := 0; attempt < powerUpSpawnAttempts; attempt++ {
		x := s.rand.Range(powerUpSpawnMargin, s.world-powerUpSpawnMargin)
		y := s.rand.Range(powerUpSpawnMargin, s.world-powerUpSpawnMargin)
		if grid.CircleIntersectsAny(x, y, PowerUpSize/2+layout.EntityMargin, s.walls) {
			continue
		}
		t := PowerUpFast
		if s.rand.Chance(0.5) {
			t = PowerUpSlow
		}
		s.powerUps = append(s.powerUps, PowerUp{
			X: x, Y: y, Size: PowerUpSize,
			Active: true, Remaining: BombPowerUpLifetime, Type: t,
		})
		return
	}
}
