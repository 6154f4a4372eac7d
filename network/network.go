package network

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"arenagame/config"
	"arenagame/game"
	"arenagame/protocol"
	"arenagame/replay"
	"arenagame/room"
)

const joinTimeout = 5 * time.Second

type server struct {
	manager  *room.Manager
	upgrader websocket.Upgrader
}

// NewRouter wires the websocket endpoint and the small JSON API around the
// room manager.
func NewRouter(m *room.Manager, cfg config.Config) http.Handler {
	s := &server{manager: m}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(cfg.AllowedOrigins)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.handleWS)
	r.Route("/api/rooms", func(sub chi.Router) {
		sub.Get("/", s.handleListRooms)
		sub.Post("/", s.handleCreateRoom)
		sub.Get("/{name}/replay", s.handleReplay)
		sub.Get("/{name}/replay/verify", s.handleVerifyReplay)
	})
	return r
}

// originChecker allows every origin when the list contains "*". Requests
// without an Origin header come from non-browser clients and are allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	all := slices.Contains(allowed, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return all || origin == "" || slices.Contains(allowed, origin)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.manager.ListRooms()})
}

func (s *server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	code, err := s.manager.CreateRoom(game.Mode(body.Mode))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"roomName": code, "mode": string(game.ParseMode(body.Mode))})
}

func (s *server) lastRecord(w http.ResponseWriter, r *http.Request) (*replay.Record, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), joinTimeout)
	defer cancel()
	rec, err := s.manager.Replay(ctx, chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, room.ErrNoRoom), errors.Is(err, replay.ErrNoRecord), errors.Is(err, room.ErrRoomClosed):
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return rec, true
}

func (s *server) handleReplay(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lastRecord(w, r)
	if !ok {
		return
	}
	b, err := replay.Marshal(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *server) handleVerifyReplay(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lastRecord(w, r)
	if !ok {
		return
	}
	if err := replay.Verify(rec); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ticks": rec.Ticks, "winner": rec.Winner})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomName := q.Get("room")
	if roomName == "" {
		http.Error(w, "room required", http.StatusBadRequest)
		return
	}
	playerID := q.Get("playerId")
	if playerID == "" {
		playerID = uuid.NewString()
	}

	// Upgrade HTTP -> WebSocket
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	c := newConn(ws)
	go c.writePump()

	welcome, _ := protocol.EncodeServerMessage(protocol.Welcome(playerID, roomName, game.TickHz))
	_ = c.SendText(welcome)

	ctx, cancel := context.WithTimeout(r.Context(), joinTimeout)
	rm, _, err := s.manager.Join(ctx, roomName, game.Mode(q.Get("mode")), room.Join{
		Conn:     c,
		PlayerID: playerID,
		Name:     q.Get("name"),
	})
	cancel()
	if err != nil {
		log.Printf("join %s: %v", roomName, err)
		msg := err.Error()
		if errors.Is(err, room.ErrModeMismatch) {
			msg = "This room was created in another mode."
		}
		if b, encErr := protocol.EncodeServerMessage(protocol.ErrorFrame(msg)); encErr == nil {
			_ = c.SendText(b)
		}
		c.Close()
		return
	}

	s.readLoop(rm, c, playerID)
}

// readLoop feeds the room until the socket goes away.
func (s *server) readLoop(rm *room.Room, c *wsConn, playerID string) {
	ws := c.ws
	defer func() {
		rm.Send(room.Leave{PlayerID: playerID, Conn: c})
		c.Close()
	}()

	// Basic timeouts + pong handling (keeps connections healthy)
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("read %s: %v", playerID, err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		switch kind {
		case websocket.BinaryMessage:
			in, ok := protocol.DecodeInput(data)
			if !ok || in.PlayerID != playerID {
				continue
			}
			rm.Send(room.Input{PlayerID: playerID, Input: game.Input{X: in.X, Y: in.Y}})
		case websocket.TextMessage:
			msg, err := protocol.DecodeClientMessage(data)
			if err != nil {
				log.Printf("read %s: %v", playerID, err)
				continue
			}
			dispatch(rm, playerID, msg)
		}
	}
}

func dispatch(rm *room.Room, playerID string, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.MsgReady:
		if msg.Ready != nil {
			rm.Send(room.Ready{PlayerID: playerID, Ready: *msg.Ready})
		}
	case protocol.MsgInput:
		if msg.Vector != nil {
			rm.Send(room.Input{PlayerID: playerID, Input: game.Input{X: msg.Vector.X, Y: msg.Vector.Y}})
		}
	case protocol.MsgChat:
		if msg.Message != nil {
			rm.Send(room.Chat{PlayerID: playerID, Text: msg.Message.Text})
		}
	case protocol.MsgAppearance:
		if msg.Appearance != nil {
			rm.Send(room.SetAppearance{PlayerID: playerID, Appearance: game.Appearance(msg.Appearance)})
		}
	}
}
