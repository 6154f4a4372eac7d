package game

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

var epoch = time.Unix(1700000000, 0)

func metas(ids ...string) []PresenceMeta {
	out := make([]PresenceMeta, 0, len(ids))
	for i, id := range ids {
		out = append(out, PresenceMeta{PlayerID: id, Name: id, JoinedAt: epoch.Add(time.Duration(i) * time.Second)})
	}
	return out
}

func newRoom(t *testing.T, mode Mode, ids ...string) *Sim {
	t.Helper()
	s := New("test", mode)
	s.SyncPresence(metas(ids...))
	if len(s.Players()) != len(ids) {
		t.Fatalf("roster has %d players, want %d", len(s.Players()), len(ids))
	}
	return s
}

func mustFind(t *testing.T, s *Sim, id string) *Player {
	t.Helper()
	p := s.find(id)
	if p == nil {
		t.Fatalf("player %q not in roster", id)
	}
	return p
}

func TestSyncPresenceOrdersByJoinTime(t *testing.T) {
	s := New("test", ModeClassic)
	s.SyncPresence([]PresenceMeta{
		{PlayerID: "late", JoinedAt: epoch.Add(5 * time.Second)},
		{PlayerID: "early", Name: "Early", JoinedAt: epoch},
		{PlayerID: ""},
	})
	players := s.Players()
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].ID != "early" || players[1].ID != "late" {
		t.Fatalf("unexpected roster order: %s, %s", players[0].ID, players[1].ID)
	}
	if players[1].Name != "Player" {
		t.Fatalf("expected fallback name, got %q", players[1].Name)
	}
	if players[0].Alive || players[0].Ready || players[0].Size != CatSize {
		t.Fatalf("new player not in lobby state: %+v", players[0])
	}
	if s.Message() != "Ready 0 of 2" {
		t.Fatalf("unexpected lobby message %q", s.Message())
	}
}

func TestSyncPresenceRemovesInLobbyFlagsMidRound(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b", "c")
	s.SyncPresence(metas("a", "b"))
	if len(s.Players()) != 2 {
		t.Fatalf("lobby should drop absent players")
	}

	s.SyncPresence(metas("a", "b", "c"))
	s.BeginRound(1)
	s.SyncPresence(metas("a", "c"))
	if len(s.Players()) != 3 {
		t.Fatalf("mid-round presence must keep the roster")
	}
	b := mustFind(t, s, "b")
	if b.Alive {
		t.Fatalf("absent player should be eliminated mid-round")
	}
}

func TestReadyUpStartsCountdownThenRound(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b")
	s.SetReady("a", true)
	if s.Phase() != PhaseLobby {
		t.Fatalf("phase = %v after one ready, want lobby", s.Phase())
	}
	s.SetReady("b", true)
	if s.Phase() != PhaseCountdown {
		t.Fatalf("phase = %v after all ready, want countdown", s.Phase())
	}
	if s.Countdown() != CountdownSeconds {
		t.Fatalf("countdown = %f, want %f", s.Countdown(), CountdownSeconds)
	}

	steps := 0
	for s.Phase() == PhaseCountdown && steps < 400 {
		s.Step(epoch)
		steps++
	}
	if s.Phase() != PhasePlaying {
		t.Fatalf("phase = %v after countdown, want playing", s.Phase())
	}
	if steps < 179 || steps > 181 {
		t.Fatalf("countdown took %d ticks, want about %d", steps, int(CountdownSeconds*TickHz))
	}
	limit := WorldSize/2 - 40
	for _, p := range s.Players() {
		if !p.Alive || p.Ready {
			t.Fatalf("player %s not reset for the round: %+v", p.ID, p)
		}
		if d := math.Hypot(p.X-WorldSize/2, p.Y-WorldSize/2); d > limit+1e-9 {
			t.Fatalf("player %s spawned %f from centre, want <= %f", p.ID, d, limit)
		}
	}
	if !s.Fish().Alive {
		t.Fatalf("expected a fish after round start")
	}
	if s.Fish().Type != FishNormal {
		t.Fatalf("first fish of a round must be normal, got %s", s.Fish().Type)
	}
}

func TestCountdownWithEveryoneGoneReturnsToLobby(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b")
	mustFind(t, s, "a").Score = 7
	s.SetReady("a", true)
	s.SetReady("b", true)
	s.SyncPresence(nil)
	if s.Phase() != PhaseCountdown {
		t.Fatalf("phase = %v, leaving mid-countdown only flags players", s.Phase())
	}

	for i := 0; i < 400 && s.Phase() == PhaseCountdown; i++ {
		s.Step(epoch)
	}
	if s.Phase() != PhaseLobby {
		t.Fatalf("phase = %v after an empty countdown, want lobby", s.Phase())
	}
	if len(s.Players()) != 0 || s.WinnerID() != "" {
		t.Fatalf("absent players must be pruned without a winner: players=%d winner=%q", len(s.Players()), s.WinnerID())
	}
}

func TestUnreadyDuringCountdownCancels(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b")
	s.SetReady("a", true)
	s.SetReady("b", true)
	s.Step(epoch)
	s.SetReady("b", false)
	if s.Phase() != PhaseLobby {
		t.Fatalf("phase = %v, want lobby after un-ready", s.Phase())
	}
	if s.Countdown() != 0 {
		t.Fatalf("countdown not cleared: %f", s.Countdown())
	}
	a, _ := s.Player("a")
	b, _ := s.Player("b")
	if !a.Ready || b.Ready {
		t.Fatalf("only the un-readying player should lose ready: a=%v b=%v", a.Ready, b.Ready)
	}
}

func TestLeavingLobbyCanCompleteReadiness(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b")
	s.SetReady("a", true)
	s.SyncPresence(metas("a"))
	if s.Phase() != PhaseCountdown {
		t.Fatalf("phase = %v, want countdown once the only remaining player is ready", s.Phase())
	}
}

func TestReadyAfterEndReturnsToLobby(t *testing.T) {
	s := newRoom(t, ModeClassic, "a", "b", "c")
	s.BeginRound(3)
	s.SyncPresence(metas("a", "b"))
	mustFind(t, s, "a").Score = 4
	s.endRound("done")

	s.SetReady("a", true)
	if s.Phase() != PhaseLobby {
		t.Fatalf("phase = %v, want lobby", s.Phase())
	}
	if len(s.Players()) != 2 {
		t.Fatalf("players that left during the round should be pruned, got %d", len(s.Players()))
	}
	for _, p := range s.Players() {
		if p.Score != 0 || p.Alive {
			t.Fatalf("player %s not reset: %+v", p.ID, p)
		}
	}
	a, _ := s.Player("a")
	if !a.Ready {
		t.Fatalf("the readying player should be ready in the new lobby")
	}
	if s.WinnerID() != "" {
		t.Fatalf("winner not cleared")
	}
}

func TestSetInputClampsAndIgnoresNonFinite(t *testing.T) {
	s := newRoom(t, ModeClassic, "a")
	s.SetInput("a", Input{X: 9, Y: -0.5})
	if in := s.Input("a"); in.X != InputLimit || in.Y != -0.5 {
		t.Fatalf("unexpected clamped input %+v", in)
	}
	s.SetInput("a", Input{X: math.NaN(), Y: 0})
	s.SetInput("a", Input{X: 0, Y: math.Inf(1)})
	if in := s.Input("a"); in.X != InputLimit || in.Y != -0.5 {
		t.Fatalf("non-finite input replaced the previous vector: %+v", in)
	}
}

func TestSanitizeAppearance(t *testing.T) {
	in := Appearance{
		"nested": map[string]any{"x": 1},
		"nan":    math.NaN(),
		"ok":     true,
		"color":  "orange",
	}
	for i := 0; i < 30; i++ {
		in[strings.Repeat("k", 1+i%8)+string(rune('a'+i%26))] = strings.Repeat("v", 60)
	}
	out := SanitizeAppearance(in)
	if len(out) > MaxAppearanceKeys {
		t.Fatalf("kept %d keys, want <= %d", len(out), MaxAppearanceKeys)
	}
	if _, ok := out["nested"]; ok {
		t.Fatalf("nested values must be dropped")
	}
	if _, ok := out["nan"]; ok {
		t.Fatalf("non-finite numbers must be dropped")
	}
	data, _ := json.Marshal(out)
	if len(data) > MaxAppearanceBytes {
		t.Fatalf("sanitized appearance is %d bytes", len(data))
	}
	if SanitizeAppearance(nil) != nil {
		t.Fatalf("nil appearance should stay nil")
	}
}

func TestSetAppearanceUpdatesPlayer(t *testing.T) {
	s := newRoom(t, ModeClassic, "a")
	s.SetAppearance("a", Appearance{"color": "grey", "bad": []int{1}})
	a, _ := s.Player("a")
	if a.Appearance["color"] != "grey" || len(a.Appearance) != 1 {
		t.Fatalf("unexpected appearance %+v", a.Appearance)
	}
	if AppearanceJSON(a.Appearance) != `{"color":"grey"}` {
		t.Fatalf("unexpected appearance json %s", AppearanceJSON(a.Appearance))
	}
}

func TestNewWithRosterKeepsOrderAndAbsence(t *testing.T) {
	live := newRoom(t, ModeClassic, "a", "b", "c")
	live.SetReady("a", true)
	live.SetReady("b", true)
	live.SetReady("c", true)
	live.SyncPresence(metas("a", "c"))

	entries := live.Roster()
	if len(entries) != 3 || !entries[1].Absent {
		t.Fatalf("roster should keep the absent player flagged: %+v", entries)
	}
	if got := len(live.Present()); got != 2 {
		t.Fatalf("present = %d, want 2", got)
	}

	rebuilt := NewWithRoster("test", ModeClassic, entries)
	if rebuilt.Phase() != PhaseLobby {
		t.Fatalf("rebuilt room must wait in the lobby, got %s", rebuilt.Phase())
	}
	live.BeginRound(99)
	rebuilt.BeginRound(99)
	a, b := live.Players(), rebuilt.Players()
	if len(a) != len(b) {
		t.Fatalf("roster sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].X != b[i].X || a[i].Y != b[i].Y || a[i].Alive != b[i].Alive {
			t.Fatalf("player %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if len(live.Walls()) != len(rebuilt.Walls()) {
		t.Fatalf("same seed must build the same arena")
	}
}
