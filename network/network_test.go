package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arenagame/client"
	"arenagame/config"
	"arenagame/protocol"
	"arenagame/room"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	m := room.NewManager(room.Options{ReconnectGrace: -1})
	srv := httptest.NewServer(NewRouter(m, config.Config{AllowedOrigins: []string{"*"}}))
	t.Cleanup(func() {
		srv.Close()
		m.Close()
	})
	return srv, m
}

func dial(t *testing.T, srv *httptest.Server, opts client.Options) *client.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := client.Dial(ctx, srv.URL, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func nextMessage(t *testing.T, s *client.Session, typ string) protocol.ServerMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.Messages():
			if msg.Type == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q frame", typ)
		}
	}
}

func waitState(t *testing.T, s *client.Session, cond func(protocol.GameState) bool) protocol.GameState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		if st := s.State(); cond(st) {
			return st
		}
		select {
		case <-s.Updates():
		case <-s.Done():
			t.Fatalf("connection closed: %v", s.Err())
		case <-timeout:
			t.Fatalf("timed out waiting for state")
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestWebsocketSessionPlaysInRoom(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dial(t, srv, client.Options{Room: "den", Name: "Tom"})
	welcome := nextMessage(t, a, protocol.MsgWelcome)
	if welcome.PlayerID == "" || welcome.Room != "den" || welcome.TickHz != 60 {
		t.Fatalf("unexpected welcome %+v", welcome)
	}
	if a.ID() != welcome.PlayerID {
		t.Fatalf("session id %q, welcome %q", a.ID(), welcome.PlayerID)
	}

	b := dial(t, srv, client.Options{Room: "den", PlayerID: "felix", Name: "Felix"})
	both := func(st protocol.GameState) bool {
		_, okA := st.Player(welcome.PlayerID)
		_, okB := st.Player("felix")
		return okA && okB
	}
	st := waitState(t, a, both)
	if p, _ := st.Player("felix"); p.Name != "Felix" {
		t.Fatalf("name not carried over: %q", p.Name)
	}
	waitState(t, b, both)

	if err := b.Say("meow"); err != nil {
		t.Fatalf("say: %v", err)
	}
	chat := nextMessage(t, a, protocol.MsgChat)
	if chat.Message == nil || chat.Message.Text != "meow" || chat.Message.PlayerID != "felix" {
		t.Fatalf("unexpected chat %+v", chat.Message)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitState(t, a, func(st protocol.GameState) bool {
		_, ok := st.Player("felix")
		return !ok
	})

	if err := a.SetReady(true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	waitState(t, a, func(st protocol.GameState) bool { return st.Phase == "countdown" })
	if err := a.SendInput(1, 0); err != nil {
		t.Fatalf("input: %v", err)
	}
	if sent, err := a.Steer(0.5, 0, time.Now()); err != nil || !sent {
		t.Fatalf("steer: sent=%v err=%v", sent, err)
	}
}

func TestWebsocketModeMismatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/rooms", "application/json", strings.NewReader(`{"mode":"bomb-pass"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created struct {
		RoomName string `json:"roomName"`
		Mode     string `json:"mode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.RoomName == "" || created.Mode != "bomb-pass" {
		t.Fatalf("unexpected create response %d %+v", resp.StatusCode, created)
	}

	s := dial(t, srv, client.Options{Room: created.RoomName, Mode: "classic"})
	msg := nextMessage(t, s, protocol.MsgError)
	if !strings.Contains(msg.Error, "another mode") {
		t.Fatalf("unexpected error text %q", msg.Error)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("server should hang up after a failed join")
	}
}

func TestRoomDirectoryAndReplay(t *testing.T) {
	srv, _ := newTestServer(t)
	s := dial(t, srv, client.Options{Room: "lobby-1", PlayerID: "p1"})
	waitState(t, s, func(st protocol.GameState) bool {
		_, ok := st.Player("p1")
		return ok
	})

	resp, err := http.Get(srv.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var body struct {
		Rooms []room.Summary `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(body.Rooms) != 1 || body.Rooms[0].Name != "lobby-1" || body.Rooms[0].Players != 1 {
		t.Fatalf("unexpected directory %+v", body.Rooms)
	}

	for _, path := range []string{"/api/rooms/lobby-1/replay", "/api/rooms/nowhere/replay", "/api/rooms/lobby-1/replay/verify"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: status %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestWebsocketRequiresRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://play.example"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if !check(req) {
		t.Fatalf("requests without origin should pass")
	}
	req.Header.Set("Origin", "https://play.example")
	if !check(req) {
		t.Fatalf("listed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Fatalf("unlisted origin accepted")
	}
	if !originChecker([]string{"*"})(req) {
		t.Fatalf("wildcard should accept any origin")
	}
}
