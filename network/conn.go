package network

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 20 // 1MB
	sendQueue      = 64
)

var (
	errConnClosed = errors.New("connection closed")
	errQueueFull  = errors.New("send queue full")
)

type frame struct {
	kind int
	data []byte
}

// wsConn is a room.Conn over a gorilla socket. Sends are queued and written
// by writePump, so the room goroutine never waits on the network.
type wsConn struct {
	ws   *websocket.Conn
	send chan frame
	done chan struct{}
	once sync.Once
}

func newConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		ws:   ws,
		send: make(chan frame, sendQueue),
		done: make(chan struct{}),
	}
}

func (c *wsConn) Send(b []byte) error     { return c.enqueue(websocket.BinaryMessage, b) }
func (c *wsConn) SendText(b []byte) error { return c.enqueue(websocket.TextMessage, b) }

func (c *wsConn) enqueue(kind int, b []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- frame{kind: kind, data: b}:
		return nil
	default:
		return errQueueFull
	}
}

// Close stops the write pump, which says goodbye and closes the socket.
func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(f.kind, f.data); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued, typically an error frame sent right
// before Close.
func (c *wsConn) flush() {
	for {
		select {
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(f.kind, f.data); err != nil {
				return
			}
		default:
			return
		}
	}
}
