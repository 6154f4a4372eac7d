package client

import (
	"math"
	"time"

	"arenagame/protocol"
)

// Reconciler keeps the client's shadow copy of the room and the previous
// copy it interpolates from.
type Reconciler struct {
	// Interval is the nominal time between two server broadcasts.
	Interval time.Duration

	prev, cur   protocol.GameState
	windowStart time.Time
}

func NewReconciler(interval time.Duration) *Reconciler {
	return &Reconciler{Interval: interval}
}

// Apply decodes one server frame into the shadow state and restarts the
// interpolation window at now. A full frame replaces the shadow and resets
// the window so nothing is interpolated across it.
func (r *Reconciler) Apply(data []byte, now time.Time) (protocol.Message, error) {
	msg, err := protocol.Decode(data)
	if err != nil {
		return msg, err
	}
	switch msg.Kind {
	case protocol.KindFull:
		r.cur = msg.State.Clone()
		r.prev = r.cur.Clone()
	case protocol.KindPatch:
		old := r.cur
		r.cur = protocol.ApplyPatch(old, msg.Patch)
		r.cur.ServerTime = msg.ServerTime
		r.cur.TickIndex = msg.TickIndex
		r.prev = old
	}
	r.windowStart = now
	return msg, nil
}

// State returns a copy of the latest shadow state.
func (r *Reconciler) State() protocol.GameState {
	return r.cur.Clone()
}

func (r *Reconciler) alpha(now time.Time) float64 {
	if r.Interval <= 0 {
		return 1
	}
	a := float64(now.Sub(r.windowStart)) / float64(r.Interval)
	return math.Max(0, math.Min(1, a))
}

// Render returns the shadow state with player and fish motion interpolated
// between the previous and the latest message.
func (r *Reconciler) Render(now time.Time) protocol.GameState {
	out := r.cur.Clone()
	a := r.alpha(now)
	if a >= 1 {
		return out
	}
	for i := range out.Players {
		p := &out.Players[i]
		old, ok := r.prev.Player(p.ID)
		if !ok {
			continue
		}
		p.X = lerp(old.X, p.X, a)
		p.Y = lerp(old.Y, p.Y, a)
		p.Size = lerp(old.Size, p.Size, a)
		p.WalkCycle = lerpCycle(old.WalkCycle, p.WalkCycle, a)
	}
	// a freshly spawned fish jumps instead of sliding across the arena
	if r.prev.Fish.Alive && out.Fish.Alive && !out.Fish.Spawned {
		out.Fish.X = lerp(r.prev.Fish.X, out.Fish.X, a)
		out.Fish.Y = lerp(r.prev.Fish.Y, out.Fish.Y, a)
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// lerpCycle interpolates a value in [0,1) along the shorter way round.
func lerpCycle(a, b, t float64) float64 {
	d := b - a
	if d > 0.5 {
		d--
	} else if d < -0.5 {
		d++
	}
	v := a + d*t
	return v - math.Floor(v)
}
