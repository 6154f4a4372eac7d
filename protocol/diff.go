package protocol

import "math"

// floatTolerance is the smallest change Diff reports.
const floatTolerance = 0.0001

func floatChanged(a, b float64) bool {
	return math.Abs(a-b) > floatTolerance
}

func ptr[T any](v T) *T { return &v }

func statusEqual(a, b *StatusEffect) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type == b.Type && a.PlayerID == b.PlayerID && !floatChanged(a.Remaining, b.Remaining)
}

func fishEqual(a, b FishState) bool {
	return !floatChanged(a.X, b.X) && !floatChanged(a.Y, b.Y) && !floatChanged(a.Size, b.Size) &&
		a.Alive == b.Alive && a.Spawned == b.Spawned && a.Type == b.Type && a.Direction == b.Direction
}

func powerUpEqual(a, b PowerUpState) bool {
	return !floatChanged(a.X, b.X) && !floatChanged(a.Y, b.Y) && !floatChanged(a.Size, b.Size) &&
		!floatChanged(a.Remaining, b.Remaining) && a.Active == b.Active && a.Type == b.Type
}

func powerUpsEqual(a, b []PowerUpState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !powerUpEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func wallsEqual(a, b []Wall) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if floatChanged(a[i].X, b[i].X) || floatChanged(a[i].Y, b[i].Y) ||
			floatChanged(a[i].Width, b[i].Width) || floatChanged(a[i].Height, b[i].Height) {
			return false
		}
	}
	return true
}

func minesEqual(a, b []Mine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if floatChanged(a[i].X, b[i].X) || floatChanged(a[i].Y, b[i].Y) || floatChanged(a[i].Size, b[i].Size) {
			return false
		}
	}
	return true
}

// diffPlayer returns nil when nothing changed. A nil prev means the player is
// new and every field is sent.
func diffPlayer(prev *PlayerState, cur PlayerState) *PlayerPatch {
	p := PlayerPatch{ID: cur.ID}
	changed := false
	set := func(differs bool, apply func()) {
		if prev == nil || differs {
			apply()
			changed = true
		}
	}
	var old PlayerState
	if prev != nil {
		old = *prev
	}
	set(old.Name != cur.Name, func() { p.Name = ptr(cur.Name) })
	set(old.Ready != cur.Ready, func() { p.Ready = ptr(cur.Ready) })
	set(old.Alive != cur.Alive, func() { p.Alive = ptr(cur.Alive) })
	set(floatChanged(old.X, cur.X), func() { p.X = ptr(cur.X) })
	set(floatChanged(old.Y, cur.Y), func() { p.Y = ptr(cur.Y) })
	set(floatChanged(old.Size, cur.Size), func() { p.Size = ptr(cur.Size) })
	set(old.Facing != cur.Facing, func() { p.Facing = ptr(cur.Facing) })
	set(old.Moving != cur.Moving, func() { p.Moving = ptr(cur.Moving) })
	set(floatChanged(old.WalkCycle, cur.WalkCycle), func() { p.WalkCycle = ptr(cur.WalkCycle) })
	set(floatChanged(old.StepAccum, cur.StepAccum), func() { p.StepAccum = ptr(cur.StepAccum) })
	set(old.Score != cur.Score, func() { p.Score = ptr(cur.Score) })
	set(old.Appearance != cur.Appearance, func() { p.Appearance = ptr(cur.Appearance) })
	set(old.Disguise != cur.Disguise, func() { p.Disguise = ptr(cur.Disguise) })
	if !changed {
		return nil
	}
	return &p
}

// Diff returns the patch that turns prev into cur, or nil if nothing
// changed. Players are listed in cur's roster order.
func Diff(prev, cur GameState) *StatePatch {
	p := &StatePatch{}
	if prev.Phase != cur.Phase {
		p.Phase = ptr(cur.Phase)
	}
	if floatChanged(prev.Countdown, cur.Countdown) {
		p.Countdown = ptr(cur.Countdown)
	}
	if floatChanged(prev.Remaining, cur.Remaining) {
		p.Remaining = ptr(cur.Remaining)
	}
	if prev.Message != cur.Message {
		p.Message = ptr(cur.Message)
	}
	if prev.WinnerID != cur.WinnerID {
		p.WinnerID = ptr(cur.WinnerID)
	}
	if prev.Golden != cur.Golden {
		p.Golden = ptr(cur.Golden)
	}
	if !statusEqual(prev.Status, cur.Status) {
		p.Status = &StatusEffect{}
		if cur.Status != nil {
			*p.Status = *cur.Status
		}
	}
	if !fishEqual(prev.Fish, cur.Fish) {
		p.Fish = ptr(cur.Fish)
	}
	if !powerUpEqual(prev.PowerUp, cur.PowerUp) {
		p.PowerUp = ptr(cur.PowerUp)
	}
	if !powerUpsEqual(prev.PowerUps, cur.PowerUps) {
		p.PowerUps = ptr(append([]PowerUpState{}, cur.PowerUps...))
	}
	if prev.SeekerID != cur.SeekerID {
		p.SeekerID = ptr(cur.SeekerID)
	}
	if prev.HidePhase != cur.HidePhase {
		p.HidePhase = ptr(cur.HidePhase)
	}
	if !wallsEqual(prev.Walls, cur.Walls) {
		p.Walls = ptr(append([]Wall{}, cur.Walls...))
	}
	if !minesEqual(prev.Mines, cur.Mines) {
		p.Mines = ptr(append([]Mine{}, cur.Mines...))
	}

	before := make(map[string]*PlayerState, len(prev.Players))
	for i := range prev.Players {
		before[prev.Players[i].ID] = &prev.Players[i]
	}
	present := make(map[string]bool, len(cur.Players))
	for _, c := range cur.Players {
		present[c.ID] = true
		if pp := diffPlayer(before[c.ID], c); pp != nil {
			p.Players = append(p.Players, *pp)
		}
	}
	for _, old := range prev.Players {
		if !present[old.ID] {
			p.Removed = append(p.Removed, old.ID)
		}
	}

	if prev.Mode != cur.Mode {
		p.Mode = ptr(cur.Mode)
	}
	if prev.BombHolder != cur.BombHolder {
		p.BombHolder = ptr(cur.BombHolder)
	}
	if floatChanged(prev.BombTimer, cur.BombTimer) {
		p.BombTimer = ptr(cur.BombTimer)
	}
	if p.Empty() {
		return nil
	}
	return p
}

func applyPlayer(dst *PlayerState, p PlayerPatch) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Ready != nil {
		dst.Ready = *p.Ready
	}
	if p.Alive != nil {
		dst.Alive = *p.Alive
	}
	if p.X != nil {
		dst.X = *p.X
	}
	if p.Y != nil {
		dst.Y = *p.Y
	}
	if p.Size != nil {
		dst.Size = *p.Size
	}
	if p.Facing != nil {
		dst.Facing = *p.Facing
	}
	if p.Moving != nil {
		dst.Moving = *p.Moving
	}
	if p.WalkCycle != nil {
		dst.WalkCycle = *p.WalkCycle
	}
	if p.StepAccum != nil {
		dst.StepAccum = *p.StepAccum
	}
	if p.Score != nil {
		dst.Score = *p.Score
	}
	if p.Appearance != nil {
		dst.Appearance = *p.Appearance
	}
	if p.Disguise != nil {
		dst.Disguise = *p.Disguise
	}
}

// ApplyPatch merges patch onto a copy of base. Existing players keep their
// position in the roster, new ones are appended and removed ids dropped.
func ApplyPatch(base GameState, patch *StatePatch) GameState {
	out := base.Clone()
	if patch == nil {
		return out
	}
	if patch.Phase != nil {
		out.Phase = *patch.Phase
	}
	if patch.Countdown != nil {
		out.Countdown = *patch.Countdown
	}
	if patch.Remaining != nil {
		out.Remaining = *patch.Remaining
	}
	if patch.Message != nil {
		out.Message = *patch.Message
	}
	if patch.WinnerID != nil {
		out.WinnerID = *patch.WinnerID
	}
	if patch.Golden != nil {
		out.Golden = *patch.Golden
	}
	if patch.Status != nil {
		out.Status = nil
		if patch.Status.Type != "" {
			out.Status = ptr(*patch.Status)
		}
	}
	if patch.Fish != nil {
		out.Fish = *patch.Fish
	}
	if patch.PowerUp != nil {
		out.PowerUp = *patch.PowerUp
	}
	if patch.PowerUps != nil {
		out.PowerUps = append([]PowerUpState(nil), (*patch.PowerUps)...)
	}
	if patch.SeekerID != nil {
		out.SeekerID = *patch.SeekerID
	}
	if patch.HidePhase != nil {
		out.HidePhase = *patch.HidePhase
	}
	if patch.Walls != nil {
		out.Walls = append([]Wall(nil), (*patch.Walls)...)
	}
	if patch.Mines != nil {
		out.Mines = append([]Mine(nil), (*patch.Mines)...)
	}

	if len(patch.Removed) > 0 {
		gone := make(map[string]bool, len(patch.Removed))
		for _, id := range patch.Removed {
			gone[id] = true
		}
		kept := out.Players[:0]
		for _, p := range out.Players {
			if !gone[p.ID] {
				kept = append(kept, p)
			}
		}
		out.Players = kept
	}
	for _, pp := range patch.Players {
		idx := -1
		for i := range out.Players {
			if out.Players[i].ID == pp.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			out.Players = append(out.Players, PlayerState{ID: pp.ID})
			idx = len(out.Players) - 1
		}
		applyPlayer(&out.Players[idx], pp)
	}

	if patch.Mode != nil {
		out.Mode = *patch.Mode
	}
	if patch.BombHolder != nil {
		out.BombHolder = *patch.BombHolder
	}
	if patch.BombTimer != nil {
		out.BombTimer = *patch.BombTimer
	}
	return out
}

func roundTo(v float64, decimals int) float64 {
	f := math.Pow10(decimals)
	return math.Round(v*f) / f
}

func quantizeSeconds(v float64) float64 { return roundTo(v, 3) }

// quantizeWalkCycle keeps the cycle in [0,1). Values wrap, so a cycle that
// rounds up to a full turn reads as zero.
func quantizeWalkCycle(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v -= math.Floor(v)
	return math.Mod(math.Round(v*65535), 65535) / 65535
}

// Quantize rounds a snapshot the way it is sent: coordinates to whole
// pixels, durations to milliseconds and the walk cycle to 1/65535.
func Quantize(s *GameState) {
	s.Countdown = quantizeSeconds(s.Countdown)
	s.Remaining = quantizeSeconds(s.Remaining)
	s.BombTimer = quantizeSeconds(s.BombTimer)

	s.Fish.X = math.Round(s.Fish.X)
	s.Fish.Y = math.Round(s.Fish.Y)
	s.Fish.Size = math.Round(s.Fish.Size)

	quantizePowerUp(&s.PowerUp)
	for i := range s.PowerUps {
		quantizePowerUp(&s.PowerUps[i])
	}
	if s.Status != nil {
		s.Status.Remaining = quantizeSeconds(s.Status.Remaining)
	}
	for i := range s.Walls {
		w := &s.Walls[i]
		w.X, w.Y = math.Round(w.X), math.Round(w.Y)
		w.Width, w.Height = math.Round(w.Width), math.Round(w.Height)
	}
	for i := range s.Mines {
		m := &s.Mines[i]
		m.X, m.Y, m.Size = math.Round(m.X), math.Round(m.Y), math.Round(m.Size)
	}
	for i := range s.Players {
		p := &s.Players[i]
		p.X, p.Y, p.Size = math.Round(p.X), math.Round(p.Y), math.Round(p.Size)
		p.WalkCycle = quantizeWalkCycle(p.WalkCycle)
		p.StepAccum = roundTo(p.StepAccum, 3)
	}
}

func quantizePowerUp(p *PowerUpState) {
	p.X, p.Y, p.Size = math.Round(p.X), math.Round(p.Y), math.Round(p.Size)
	p.Remaining = quantizeSeconds(p.Remaining)
}
