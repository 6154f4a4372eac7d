package room

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"sort"
	"sync"
	"time"

	"arenagame/game"
	"arenagame/replay"
)

type Options struct {
	// MaxRooms caps concurrently running rooms; zero means no limit.
	MaxRooms int
	// ReconnectGrace defaults to DefaultReconnectGrace; negative drops
	// players as soon as their socket closes.
	ReconnectGrace time.Duration
}

// Manager holds rooms by name. Rooms are created on first join or via
// CreateRoom, and removed when the last player is gone.
type Manager struct {
	opts  Options
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager(opts Options) *Manager {
	if opts.ReconnectGrace == 0 {
		opts.ReconnectGrace = DefaultReconnectGrace
	}
	return &Manager{
		opts:  opts,
		rooms: make(map[string]*Room),
	}
}

// GetOrCreateRoom returns the room with the given name, creating it in mode
// if needed. An empty mode joins whatever the room plays.
func (m *Manager) GetOrCreateRoom(name string, mode game.Mode) (*Room, error) {
	if name == "" {
		return nil, ErrNoRoomName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		if mode != "" && game.ParseMode(string(mode)) != r.Mode {
			return nil, ErrModeMismatch
		}
		return r, nil
	}
	return m.startLocked(name, mode)
}

func (m *Manager) startLocked(name string, mode game.Mode) (*Room, error) {
	if m.opts.MaxRooms > 0 && len(m.rooms) >= m.opts.MaxRooms {
		return nil, ErrTooManyRooms
	}
	r := New(name, mode)
	r.Grace = m.opts.ReconnectGrace
	r.OnEmpty = m.removeRoom
	m.rooms[name] = r
	go r.Run()
	log.Printf("room %s: created (%s)", name, r.Mode)
	return r, nil
}

func (m *Manager) removeRoom(name string, r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[name]; ok && cur == r {
		delete(m.rooms, name)
		log.Printf("room %s: closed", name)
	}
	r.Stop()
}

// Join admits a connection into the named room, creating the room on first
// join. A room that shuts down while the join is in flight is replaced.
func (m *Manager) Join(ctx context.Context, name string, mode game.Mode, j Join) (*Room, JoinResult, error) {
	for attempt := 0; attempt < 3; attempt++ {
		r, err := m.GetOrCreateRoom(name, mode)
		if err != nil {
			return nil, JoinResult{}, err
		}
		res, err := r.Join(ctx, j)
		if errors.Is(err, ErrRoomClosed) {
			m.removeRoom(name, r)
			continue
		}
		if err != nil {
			return nil, JoinResult{}, err
		}
		return r, res, nil
	}
	return nil, JoinResult{}, ErrRoomClosed
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom generates a unique 6-char name, starts the room, and returns
// the name.
func (m *Manager) CreateRoom(mode game.Mode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		if _, err := m.startLocked(code, mode); err != nil {
			return "", err
		}
		return code, nil
	}
}

// ListRooms returns the directory sorted by room name.
func (m *Manager) ListRooms() []Summary {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Summary())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) Room(name string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[name]
	return r, ok
}

// Replay returns the last finished round of the named room.
func (m *Manager) Replay(ctx context.Context, name string) (*replay.Record, error) {
	r, ok := m.Room(name)
	if !ok {
		return nil, ErrNoRoom
	}
	rec, err := r.LastReplay(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, replay.ErrNoRecord
	}
	return rec, nil
}

// Close stops every room.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, r := range m.rooms {
		r.Stop()
		delete(m.rooms, name)
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
