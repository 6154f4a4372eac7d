// Package replay records finished rounds as seed, roster and input log, and
// re-simulates them. The simulation is a pure function of those three, so a
// record is enough to rebuild every tick of the round.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"arenagame/game"
)

var ErrNoRecord = errors.New("replay: no record")

// MaxEvents bounds the input log of one round.
const MaxEvents = 200_000

type EventKind uint8

const (
	EventInput EventKind = iota
	EventPresence
)

type Entrant struct {
	PlayerID   string    `msgpack:"id"`
	Name       string    `msgpack:"name"`
	Appearance string    `msgpack:"appearance,omitempty"`
	JoinedAt   time.Time `msgpack:"joinedAt"`
	Absent     bool      `msgpack:"absent,omitempty"`
}

// Event is applied before the playing tick with the same index.
type Event struct {
	Tick     uint64    `msgpack:"t"`
	Kind     EventKind `msgpack:"k"`
	PlayerID string    `msgpack:"p,omitempty"`
	X        float64   `msgpack:"x,omitempty"`
	Y        float64   `msgpack:"y,omitempty"`
	Present  []Entrant `msgpack:"present,omitempty"`
}

type Record struct {
	Room      string         `msgpack:"room"`
	Mode      string         `msgpack:"mode"`
	Seed      uint32         `msgpack:"seed"`
	StartedAt time.Time      `msgpack:"startedAt"`
	Roster    []Entrant      `msgpack:"roster"`
	Events    []Event        `msgpack:"events"`
	Ticks     uint64         `msgpack:"ticks"`
	Winner    string         `msgpack:"winner"`
	Scores    map[string]int `msgpack:"scores"`
	Truncated bool           `msgpack:"truncated,omitempty"`
}

func Marshal(r *Record) ([]byte, error) {
	if r == nil {
		return nil, ErrNoRecord
	}
	b, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("replay: marshal: %w", err)
	}
	return b, nil
}

func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("replay: unmarshal: %w", err)
	}
	return &r, nil
}

func entrant(m game.PresenceMeta, absent bool) Entrant {
	return Entrant{
		PlayerID:   m.PlayerID,
		Name:       m.Name,
		Appearance: game.AppearanceJSON(m.Appearance),
		JoinedAt:   m.JoinedAt,
		Absent:     absent,
	}
}

func (e Entrant) meta() game.PresenceMeta {
	m := game.PresenceMeta{PlayerID: e.PlayerID, Name: e.Name, JoinedAt: e.JoinedAt}
	if e.Appearance != "" {
		var a game.Appearance
		if json.Unmarshal([]byte(e.Appearance), &a) == nil {
			m.Appearance = a
		}
	}
	return m
}

func entrants(metas []game.PresenceMeta) []Entrant {
	out := make([]Entrant, 0, len(metas))
	for _, m := range metas {
		out = append(out, entrant(m, false))
	}
	return out
}

// Run rebuilds the round and returns the simulation as it stood on the
// last recorded tick.
func Run(r *Record) (*game.Sim, error) {
	if r == nil {
		return nil, ErrNoRecord
	}
	roster := make([]game.RosterEntry, 0, len(r.Roster))
	for _, e := range r.Roster {
		roster = append(roster, game.RosterEntry{PresenceMeta: e.meta(), Absent: e.Absent})
	}
	sim := game.NewWithRoster(r.Room, game.Mode(r.Mode), roster)
	sim.BeginRound(r.Seed)

	now := r.StartedAt
	next := 0
	for t := uint64(0); t < r.Ticks; t++ {
		for next < len(r.Events) && r.Events[next].Tick <= t {
			apply(sim, r.Events[next])
			next++
		}
		now = now.Add(game.TickInterval)
		sim.Step(now)
		if sim.Phase() != game.PhasePlaying {
			if t+1 < r.Ticks {
				return sim, fmt.Errorf("replay: round ended after %d of %d ticks", t+1, r.Ticks)
			}
			break
		}
	}
	return sim, nil
}

func apply(sim *game.Sim, ev Event) {
	switch ev.Kind {
	case EventInput:
		sim.SetInput(ev.PlayerID, game.Input{X: ev.X, Y: ev.Y})
	case EventPresence:
		metas := make([]game.PresenceMeta, 0, len(ev.Present))
		for _, e := range ev.Present {
			metas = append(metas, e.meta())
		}
		sim.SyncPresence(metas)
	}
}

// Verify re-simulates r and checks the outcome against what was recorded.
func Verify(r *Record) error {
	sim, err := Run(r)
	if err != nil {
		return err
	}
	if r.Truncated {
		return nil
	}
	if sim.WinnerID() != r.Winner {
		return fmt.Errorf("replay: winner %q, recorded %q", sim.WinnerID(), r.Winner)
	}
	for _, p := range sim.Players() {
		if want, ok := r.Scores[p.ID]; ok && want != p.Score {
			return fmt.Errorf("replay: %s scored %d, recorded %d", p.ID, p.Score, want)
		}
	}
	return nil
}
