package client

import (
	"math"
	"testing"
	"time"

	"arenagame/protocol"
)

var t0 = time.Unix(1700000000, 0)

func baseState() protocol.GameState {
	return protocol.GameState{
		RoomName: "r",
		Mode:     "classic",
		Phase:    "playing",
		Fish:     protocol.FishState{X: 100, Y: 100, Size: 28, Alive: true, Type: "normal"},
		Players: []protocol.PlayerState{
			{ID: "a", Name: "A", X: 100, Y: 200, Size: 36, Alive: true, WalkCycle: 0.9},
			{ID: "b", Name: "B", X: 300, Y: 300, Size: 36, Alive: true},
		},
	}
}

func mustApply(t *testing.T, r *Reconciler, data []byte, now time.Time) protocol.Message {
	t.Helper()
	msg, err := r.Apply(data, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return msg
}

func TestFullSnapshotResetsWindow(t *testing.T) {
	r := NewReconciler(100 * time.Millisecond)
	mustApply(t, r, protocol.EncodeState(baseState()), t0)
	got := r.Render(t0)
	a, _ := got.Player("a")
	if a.X != 100 || a.Y != 200 {
		t.Fatalf("full snapshot should render as is, got (%f,%f)", a.X, a.Y)
	}

	moved := baseState()
	moved.Players[0].X = 200
	mustApply(t, r, protocol.EncodeState(moved), t0.Add(10*time.Millisecond))
	got = r.Render(t0.Add(20 * time.Millisecond))
	a, _ = got.Player("a")
	if a.X != 200 {
		t.Fatalf("a full snapshot must not interpolate from the old state, x=%f", a.X)
	}
}

func TestPatchMergesAndInterpolates(t *testing.T) {
	r := NewReconciler(100 * time.Millisecond)
	base := baseState()
	mustApply(t, r, protocol.EncodeState(base), t0)

	next := base.Clone()
	next.Players[0].X = 200
	next.Players[0].WalkCycle = 0.1
	next.Players = next.Players[:1]
	next.Players = append(next.Players, protocol.PlayerState{ID: "c", Name: "C", X: 50, Y: 50, Size: 36})
	next.Fish.X = 120
	patch := protocol.Diff(base, next)
	msg := mustApply(t, r, protocol.EncodePatch(patch, 5, 6), t0.Add(time.Second))
	if msg.Kind != protocol.KindPatch {
		t.Fatalf("expected a patch message")
	}

	st := r.State()
	if st.TickIndex != 6 || st.ServerTime != 5 {
		t.Fatalf("patch header not applied: tick=%d time=%d", st.TickIndex, st.ServerTime)
	}
	if _, ok := st.Player("b"); ok {
		t.Fatalf("removed player still in shadow state")
	}
	if c, ok := st.Player("c"); !ok || c.Name != "C" {
		t.Fatalf("new player missing from shadow state")
	}

	mid := r.Render(t0.Add(time.Second + 50*time.Millisecond))
	a, _ := mid.Player("a")
	if math.Abs(a.X-150) > 1e-6 {
		t.Fatalf("halfway x = %f, want 150", a.X)
	}
	// 0.9 -> 0.1 goes forward through 1.0, halfway is 0.0
	if a.WalkCycle > 1e-3 && a.WalkCycle < 1-1e-3 {
		t.Fatalf("walk cycle interpolated the long way round: %f", a.WalkCycle)
	}
	if math.Abs(mid.Fish.X-110) > 1e-6 {
		t.Fatalf("fish x = %f, want 110", mid.Fish.X)
	}
	if c, _ := mid.Player("c"); c.X != 50 {
		t.Fatalf("a new player has nothing to interpolate from, x=%f", c.X)
	}

	end := r.Render(t0.Add(5 * time.Second))
	if a, _ := end.Player("a"); a.X != 200 {
		t.Fatalf("alpha must clamp at 1, x=%f", a.X)
	}
}

func TestSpawnedFishDoesNotSlide(t *testing.T) {
	r := NewReconciler(100 * time.Millisecond)
	base := baseState()
	mustApply(t, r, protocol.EncodeState(base), t0)
	next := base.Clone()
	next.Fish.X = 400
	next.Fish.Spawned = true
	mustApply(t, r, protocol.EncodePatch(protocol.Diff(base, next), 0, 1), t0)
	if got := r.Render(t0.Add(10 * time.Millisecond)); got.Fish.X != 400 {
		t.Fatalf("respawned fish should jump, x=%f", got.Fish.X)
	}
}

func TestApplyRejectsEmptyFrame(t *testing.T) {
	r := NewReconciler(time.Second)
	if _, err := r.Apply(nil, t0); err == nil {
		t.Fatalf("expected error for empty frame")
	}
}

func TestLerpCycle(t *testing.T) {
	cases := []struct{ a, b, t, want float64 }{
		{0.2, 0.4, 0.5, 0.3},
		{0.9, 0.1, 0.5, 0.0},
		{0.1, 0.9, 0.5, 0.0},
		{0.8, 0.0, 0.5, 0.9},
	}
	for _, c := range cases {
		got := lerpCycle(c.a, c.b, c.t)
		d := math.Abs(got - c.want)
		if d > 1e-9 && math.Abs(d-1) > 1e-9 {
			t.Fatalf("lerpCycle(%v,%v,%v) = %v, want %v", c.a, c.b, c.t, got, c.want)
		}
	}
}

func TestInputSamplerDeadzoneAndSilence(t *testing.T) {
	s := &InputSampler{PlayerID: "p", Deadzone: 0.05, MaxSilence: 200 * time.Millisecond}
	frame, ok := s.Sample(0, 0, t0)
	if !ok {
		t.Fatalf("first sample must be sent")
	}
	in, _ := protocol.DecodeInput(frame)
	if in.PlayerID != "p" {
		t.Fatalf("frame carries id %q", in.PlayerID)
	}
	if _, ok := s.Sample(0.01, 0.01, t0.Add(10*time.Millisecond)); ok {
		t.Fatalf("change inside the deadzone must not be sent")
	}
	if _, ok := s.Sample(0.5, 0, t0.Add(20*time.Millisecond)); !ok {
		t.Fatalf("change beyond the deadzone must be sent")
	}
	if _, ok := s.Sample(0.5, 0, t0.Add(100*time.Millisecond)); ok {
		t.Fatalf("unchanged input inside the silence window must not be sent")
	}
	if _, ok := s.Sample(0.5, 0, t0.Add(230*time.Millisecond)); !ok {
		t.Fatalf("silence interval elapsed, input must be resent")
	}
	if _, ok := s.Sample(math.NaN(), 0, t0.Add(time.Second)); ok {
		t.Fatalf("NaN input must never be sent")
	}
}

func TestWSURL(t *testing.T) {
	got, err := wsURL("http://localhost:8080/", Options{Room: "r 1", Name: "cat", Mode: "classic"})
	if err != nil {
		t.Fatalf("wsURL: %v", err)
	}
	want := "ws://localhost:8080/ws?mode=classic&name=cat&room=r+1"
	if got != want {
		t.Fatalf("wsURL = %q, want %q", got, want)
	}
	if _, err := wsURL("ftp://x", Options{Room: "r"}); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
