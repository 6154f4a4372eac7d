package replay

import (
	"time"

	"arenagame/game"
)

// Recorder collects the current round of one room. It is owned by the room
// goroutine and not safe for concurrent use.
type Recorder struct {
	cur  *Record
	last *Record
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start opens a record for the round sim has just begun.
func (r *Recorder) Start(sim *game.Sim, now time.Time) {
	rec := &Record{
		Room:      sim.RoomName(),
		Mode:      string(sim.Mode()),
		Seed:      sim.Seed(),
		StartedAt: now,
	}
	for _, e := range sim.Roster() {
		rec.Roster = append(rec.Roster, entrant(e.PresenceMeta, e.Absent))
	}
	r.cur = rec
}

func (r *Recorder) Recording() bool { return r.cur != nil }

func (r *Recorder) add(ev Event) {
	if r.cur == nil {
		return
	}
	if len(r.cur.Events) >= MaxEvents {
		r.cur.Truncated = true
		return
	}
	r.cur.Events = append(r.cur.Events, ev)
}

// Input logs an accepted intent vector ahead of the given playing tick.
func (r *Recorder) Input(tick uint64, playerID string, in game.Input) {
	r.add(Event{Tick: tick, Kind: EventInput, PlayerID: playerID, X: in.X, Y: in.Y})
}

// Presence logs a presence snapshot handed to the simulation mid-round.
func (r *Recorder) Presence(tick uint64, present []game.PresenceMeta) {
	r.add(Event{Tick: tick, Kind: EventPresence, Present: entrants(present)})
}

// Finish closes the record with the outcome of sim and keeps it as the last
// finished round.
func (r *Recorder) Finish(sim *game.Sim) *Record {
	rec := r.cur
	if rec == nil {
		return nil
	}
	r.cur = nil
	rec.Ticks = sim.RoundTick()
	rec.Winner = sim.WinnerID()
	rec.Scores = make(map[string]int)
	for _, p := range sim.Players() {
		rec.Scores[p.ID] = p.Score
	}
	r.last = rec
	return rec
}

// Abort drops the round in progress without a result.
func (r *Recorder) Abort() { r.cur = nil }

// Last is the most recent finished round, or nil.
func (r *Recorder) Last() *Record { return r.last }
