package game

import (
	"math"

	"arenagame/grid"
	"arenagame/layout"
)

func (s *Sim) clearPowerUp() {
	s.powerUp.Active = false
	s.powerUp.Remaining = 0
	s.powerUp.X = 0
	s.powerUp.Y = 0
}

func (s *Sim) spawnPowerUp() {
	for attempt := 0; attempt < powerUpSpawnAttempts; attempt++ {
		x := s.rand.Range(powerUpSpawnMargin, s.world-powerUpSpawnMargin)
		y := s.rand.Range(powerUpSpawnMargin, s.world-powerUpSpawnMargin)
		if grid.CircleIntersectsAny(x, y, s.powerUp.Size/2+layout.EntityMargin, s.walls) {
			continue
		}
		s.powerUp.X = x
		s.powerUp.Y = y
		s.powerUp.Active = true
		s.powerUp.Remaining = PowerUpLifetime
		return
	}
	s.clearPowerUp()
}

// refreshPowerUp rolls for a new power-up on every fish spawn. A surviving
// one never outlives a fresh lifetime.
func (s *Sim) refreshPowerUp() {
	switch {
	case s.rand.Chance(PowerUpChance):
		s.spawnPowerUp()
	case s.powerUp.Active:
		s.powerUp.Remaining = math.Min(s.powerUp.Remaining, PowerUpLifetime)
	default:
		s.clearPowerUp()
	}
}

func (s *Sim) updatePowerUp(dt float64) {
	if !s.powerUp.Active {
		return
	}
	s.powerUp.Remaining -= dt
	if s.powerUp.Remaining <= 0 {
		s.clearPowerUp()
		return
	}
	for _, p := range s.players {
		if !p.Alive {
			continue
		}
		if math.Hypot(p.X-s.powerUp.X, p.Y-s.powerUp.Y) < (p.Size+s.powerUp.Size)/2 {
			s.clearPowerUp()
			s.applyStatusEffect(classicEffects[s.rand.Intn(len(classicEffects))])
			return
		}
	}
}

// applyStatusEffect starts a room-wide effect. Time effects immediately pull
// the remaining budget toward their limit.
func (s *Sim) applyStatusEffect(t StatusType) {
	s.status = &StatusEffect{Type: t, Remaining: PowerUpDuration}
	switch t {
	case StatusTimeIncrease:
		s.remaining = math.Max(s.remaining, TimeIncreaseLimit)
	case StatusTimeDecrease:
		s.remaining = math.Min(s.remaining, TimeDecreaseLimit)
	}
}

// updateStatusEffect counts the room-wide effect down. When a time effect
// expires the remaining budget is brought back to the fish's base limit.
func (s *Sim) updateStatusEffect(dt float64) {
	if s.status == nil || s.status.PlayerID != "" {
		return
	}
	s.status.Remaining -= dt
	if s.status.Remaining > 0 {
		return
	}
	ended := s.status.Type
	s.status = nil
	base := s.baseTimeLimit(s.fish.Type)
	switch ended {
	case StatusTimeIncrease:
		s.remaining = math.Min(s.remaining, base)
	case StatusTimeDecrease:
		s.remaining = math.Max(s.remaining, base)
	}
}

func (s *Sim) speedMultiplier() float64 {
	if s.status == nil || s.status.PlayerID != "" {
		return 1
	}
	return effectMultiplier(s.status.Type)
}

func effectMultiplier(t StatusType) float64 {
	switch t {
	case StatusSpeedUp:
		return SpeedUpMultiplier
	case StatusSpeedDown:
		return SpeedDownMultiplier
	}
	return 1
}
