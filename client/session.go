package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arenagame/protocol"
)

type Options struct {
	Room     string
	PlayerID string
	Name     string
	Mode     string
	// Interval is the broadcast interval used for interpolation.
	Interval time.Duration
	// Deadzone and MaxSilence configure the sampler behind Steer.
	Deadzone   float64
	MaxSilence time.Duration
}

const (
	defaultDeadzone   = 0.02
	defaultMaxSilence = 250 * time.Millisecond
)

// frameConn is the part of *websocket.Conn a Session uses.
type frameConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	WriteControl(int, []byte, time.Time) error
	SetWriteDeadline(time.Time) error
	Close() error
}

// Session is a headless player connection. Binary frames from the server
// feed a Reconciler, text frames are delivered on Messages.
type Session struct {
	conn    frameConn
	writeMu sync.Mutex

	mu       sync.Mutex
	rec      *Reconciler
	playerID string
	sampler  InputSampler

	updates  chan protocol.Message
	messages chan protocol.ServerMessage
	done     chan struct{}
	err      error
}

// wsURL turns an http(s) or ws(s) base url into the /ws endpoint url.
func wsURL(base string, opts Options) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("room", opts.Room)
	if opts.PlayerID != "" {
		q.Set("playerId", opts.PlayerID)
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.Mode != "" {
		q.Set("mode", opts.Mode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to the server at base (for example http://localhost:8080)
// and joins opts.Room. When opts.PlayerID is empty the id assigned by the
// server is taken from its welcome frame.
func Dial(ctx context.Context, base string, opts Options) (*Session, error) {
	if opts.Room == "" {
		return nil, fmt.Errorf("dial: room required")
	}
	target, err := wsURL(base, opts)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return newSession(conn, opts), nil
}

func newSession(conn frameConn, opts Options) *Session {
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 15
	}
	if opts.Deadzone <= 0 {
		opts.Deadzone = defaultDeadzone
	}
	if opts.MaxSilence <= 0 {
		opts.MaxSilence = defaultMaxSilence
	}
	s := &Session{
		playerID: opts.PlayerID,
		conn:     conn,
		rec:      NewReconciler(opts.Interval),
		sampler:  InputSampler{Deadzone: opts.Deadzone, MaxSilence: opts.MaxSilence},
		updates:  make(chan protocol.Message, 64),
		messages: make(chan protocol.ServerMessage, 16),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			s.mu.Lock()
			msg, err := s.rec.Apply(data, time.Now())
			s.mu.Unlock()
			if err != nil {
				log.Printf("client: dropping frame: %v", err)
				continue
			}
			select {
			case s.updates <- msg:
			default:
			}
		case websocket.TextMessage:
			msg, err := protocol.DecodeServerMessage(data)
			if err != nil {
				log.Printf("client: %v", err)
				continue
			}
			if msg.Type == protocol.MsgWelcome {
				s.mu.Lock()
				s.playerID = msg.PlayerID
				s.mu.Unlock()
			}
			select {
			case s.messages <- msg:
			default:
			}
		}
	}
}

// Updates delivers every decoded state frame. Frames are dropped when the
// reader falls behind; State always has the merged result.
func (s *Session) Updates() <-chan protocol.Message { return s.updates }

func (s *Session) Messages() <-chan protocol.ServerMessage { return s.messages }

// Done is closed when the connection is gone.
func (s *Session) Done() <-chan struct{} { return s.done }

// ID is the player id of this session, empty until the welcome frame
// arrived for anonymous sessions.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) State() protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.State()
}

func (s *Session) Render(now time.Time) protocol.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Render(now)
}

func (s *Session) write(kind int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(kind, data)
}

// SendInputFrame sends an already encoded input frame.
func (s *Session) SendInputFrame(frame []byte) error {
	return s.write(websocket.BinaryMessage, frame)
}

// SendInput sends x,y right away, bypassing the sampler.
func (s *Session) SendInput(x, y float64) error {
	return s.SendInputFrame(protocol.EncodeInput(s.ID(), x, y))
}

// Steer feeds a locally sampled vector through the session's sampler and
// sends it only when it moved past the deadzone or the silence interval
// ran out. It reports whether a frame went out.
func (s *Session) Steer(x, y float64, now time.Time) (bool, error) {
	s.mu.Lock()
	s.sampler.PlayerID = s.playerID
	frame, ok := s.sampler.Sample(x, y, now)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := s.SendInputFrame(frame); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) send(m protocol.ClientMessage) error {
	b, err := protocol.EncodeClientMessage(m)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, b)
}

func (s *Session) SetReady(ready bool) error {
	return s.send(protocol.ClientMessage{Type: protocol.MsgReady, Ready: &ready})
}

func (s *Session) SetAppearance(a map[string]any) error {
	return s.send(protocol.ClientMessage{Type: protocol.MsgAppearance, Appearance: a})
}

func (s *Session) Say(text string) error {
	return s.send(protocol.ClientMessage{Type: protocol.MsgChat, Message: &protocol.ChatMessage{Text: text}})
}

// Close sends a close frame and waits briefly for the server to hang up.
func (s *Session) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.writeMu.Unlock()
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
	return s.conn.Close()
}
