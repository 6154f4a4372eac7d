package client

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"arenagame/protocol"
)

type inbound struct {
	kind int
	data []byte
}

// fakeFrameConn hands out queued inbound frames and records writes.
type fakeFrameConn struct {
	in     chan inbound
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	binary [][]byte
}

func newFakeFrameConn(frames ...inbound) *fakeFrameConn {
	f := &fakeFrameConn{in: make(chan inbound, len(frames)), closed: make(chan struct{})}
	for _, fr := range frames {
		f.in <- fr
	}
	return f
}

func (f *fakeFrameConn) ReadMessage() (int, []byte, error) {
	select {
	case fr := <-f.in:
		return fr.kind, fr.data, nil
	case <-f.closed:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeFrameConn) WriteMessage(kind int, data []byte) error {
	if kind == websocket.BinaryMessage {
		f.mu.Lock()
		f.binary = append(f.binary, data)
		f.mu.Unlock()
	}
	return nil
}

func (f *fakeFrameConn) WriteControl(int, []byte, time.Time) error { return f.Close() }
func (f *fakeFrameConn) SetWriteDeadline(time.Time) error         { return nil }

func (f *fakeFrameConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeFrameConn) inputs(t *testing.T) []protocol.Input {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Input
	for _, b := range f.binary {
		in, ok := protocol.DecodeInput(b)
		if !ok {
			t.Fatalf("undecodable input frame %v", b)
		}
		out = append(out, in)
	}
	return out
}

func TestSessionSteerThrottlesInput(t *testing.T) {
	welcome, err := protocol.EncodeServerMessage(protocol.Welcome("p1", "den", 60))
	if err != nil {
		t.Fatalf("encode welcome: %v", err)
	}
	fc := newFakeFrameConn(inbound{kind: websocket.TextMessage, data: welcome})
	s := newSession(fc, Options{Room: "den", Deadzone: 0.05, MaxSilence: 200 * time.Millisecond})
	defer s.Close()

	select {
	case msg := <-s.Messages():
		if msg.Type != protocol.MsgWelcome {
			t.Fatalf("unexpected first message %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("welcome not delivered")
	}

	steps := []struct {
		x, y  float64
		at    time.Duration
		wantX float64
		sent  bool
	}{
		{0.5, 0, 0, 0.5, true},
		{0.52, 0.01, 10 * time.Millisecond, 0, false},
		{0.51, 0, 150 * time.Millisecond, 0, false},
		{0.51, 0, 260 * time.Millisecond, 0.51, true},
		{-1, 0, 270 * time.Millisecond, -1, true},
	}
	var want []float64
	for i, st := range steps {
		sent, err := s.Steer(st.x, st.y, t0.Add(st.at))
		if err != nil {
			t.Fatalf("step %d: steer: %v", i, err)
		}
		if sent != st.sent {
			t.Fatalf("step %d: sent=%v, want %v", i, sent, st.sent)
		}
		if st.sent {
			want = append(want, st.wantX)
		}
	}

	got := fc.inputs(t)
	if len(got) != len(want) {
		t.Fatalf("wrote %d input frames, want %d", len(got), len(want))
	}
	for i, in := range got {
		if in.PlayerID != "p1" {
			t.Fatalf("frame %d carries id %q, want the welcome id", i, in.PlayerID)
		}
		if math.Abs(in.X-want[i]) > 1e-6 {
			t.Fatalf("frame %d x=%v, want %v", i, in.X, want[i])
		}
	}
}
