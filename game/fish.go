package game

import (
	"math"

	"arenagame/grid"
	"arenagame/layout"
)

// spawnFish places a new fish together with a fresh wall layout, mines and
// power-up roll. A golden chain keeps spawning golden fish until broken;
// forceNormal breaks it. If no layout can be found the fish goes to the
// centre of an open arena.
func (s *Sim) spawnFish(forceNormal bool) {
	golden := !forceNormal && (s.golden || s.rand.Chance(GoldenFishChance))
	s.fish.Type = FishNormal
	if golden {
		s.fish.Type = FishGolden
	}
	s.golden = golden
	s.fish.Direction = s.rand.Sign()
	s.fish.Size = FishSize

	refs := s.referenceCells()
	avoid := make([]layout.Circle, 0, len(s.players))
	for _, p := range s.players {
		avoid = append(avoid, layout.Circle{X: p.X, Y: p.Y, R: p.Size / 2})
	}

	placed := false
	for attempt := 0; attempt < fishSpawnAttempts; attempt++ {
		x := s.rand.Range(FishSpawnMargin, s.world-FishSpawnMargin)
		y := s.rand.Range(FishSpawnMargin, s.world-FishSpawnMargin)
		cell := grid.PositionToCell(x, y, s.world)
		if containsCell(refs, cell) {
			continue
		}
		walls := s.layout.Walls(refs, cell, avoid)
		if walls == nil {
			continue
		}
		if grid.CircleIntersectsAny(x, y, s.fish.Size/2+layout.EntityMargin, walls) {
			continue
		}
		s.placeFish(walls, x, y)
		placed = true
		break
	}
	if !placed {
		s.placeFish(nil, s.world/2, s.world/2)
	}
	s.remaining = s.timeLimit(s.fish.Type)
}

func (s *Sim) placeFish(walls []grid.Rect, x, y float64) {
	s.walls = walls
	s.afterWallChange()
	s.fish.X = x
	s.fish.Y = y
	s.fish.Alive = true
	s.fish.Spawned = true
	s.mines = s.layout.Mines(s.mineBlocked)
	s.refreshPowerUp()
}

// referenceCells are the cells every layout must keep connected: alive
// players, else the first player, else the centre.
func (s *Sim) referenceCells() []grid.Cell {
	var refs []grid.Cell
	for _, p := range s.players {
		if p.Alive {
			refs = append(refs, grid.PositionToCell(p.X, p.Y, s.world))
		}
	}
	if len(refs) > 0 {
		return refs
	}
	if len(s.players) > 0 {
		p := s.players[0]
		return []grid.Cell{grid.PositionToCell(p.X, p.Y, s.world)}
	}
	return []grid.Cell{grid.PositionToCell(s.world/2, s.world/2, s.world)}
}

func containsCell(cells []grid.Cell, c grid.Cell) bool {
	for _, x := range cells {
		if x == c {
			return true
		}
	}
	return false
}

// afterWallChange drops a power-up buried by new walls and pushes players out.
func (s *Sim) afterWallChange() {
	if s.powerUp.Active && grid.CircleIntersectsAny(s.powerUp.X, s.powerUp.Y, s.powerUp.Size/2+layout.EntityMargin, s.walls) {
		s.clearPowerUp()
	}
	for _, p := range s.players {
		p.X, p.Y = grid.ResolveCircle(p.X, p.Y, p.Size/2, s.walls)
		s.clampPlayer(p)
	}
}

func (s *Sim) mineBlocked(x, y, safeRadius float64) bool {
	if grid.CircleIntersectsAny(x, y, safeRadius, s.walls) {
		return true
	}
	if s.fish.Alive && math.Hypot(x-s.fish.X, y-s.fish.Y) <= s.fish.Size/2+safeRadius {
		return true
	}
	for _, p := range s.players {
		if p.Alive && math.Hypot(x-p.X, y-p.Y) <= p.Size/2+safeRadius {
			return true
		}
	}
	return false
}

// AckSpawn clears the one-shot spawned marker once it has been broadcast.
func (s *Sim) AckSpawn() {
	s.fish.Spawned = false
}

func (s *Sim) baseTimeLimit(t FishType) float64 {
	if t == FishGolden {
		return GoldenFishTimeLimit
	}
	return NormalFishTimeLimit
}

func (s *Sim) timeLimit(t FishType) float64 {
	if s.status != nil && s.status.PlayerID == "" {
		switch s.status.Type {
		case StatusTimeIncrease:
			return TimeIncreaseLimit
		case StatusTimeDecrease:
			return TimeDecreaseLimit
		}
	}
	return s.baseTimeLimit(t)
}

// updateFishMovement swims the fish horizontally, turning around on any
// obstacle. A fish boxed in on both sides stays put.
func (s *Sim) updateFishMovement(dt float64) {
	if !s.fish.Alive {
		return
	}
	next := s.fish.X + float64(s.fish.Direction)*FishSwimSpeed*dt
	if s.fishCollidesAt(next) {
		s.fish.Direction = -s.fish.Direction
		next = s.fish.X + float64(s.fish.Direction)*FishSwimSpeed*dt
		if s.fishCollidesAt(next) {
			return
		}
	}
	s.fish.X = grid.Clamp(next, s.fish.Size/2, s.world-s.fish.Size/2)
}

func (s *Sim) fishCollidesAt(x float64) bool {
	radius := s.fish.Size / 2
	y := s.fish.Y
	if x-radius < 0 || x+radius > s.world {
		return true
	}
	if grid.CircleIntersectsAny(x, y, radius, s.walls) {
		return true
	}
	if s.powerUp.Active {
		half := s.powerUp.Size / 2
		box := grid.Rect{X: s.powerUp.X - half, Y: s.powerUp.Y - half, Width: s.powerUp.Size, Height: s.powerUp.Size}
		if grid.CircleIntersectsRect(x, y, radius, box) {
			return true
		}
	}
	for _, m := range s.mines {
		if math.Hypot(x-m.X, y-m.Y) < radius+m.Size/2 {
			return true
		}
	}
	return false
}
