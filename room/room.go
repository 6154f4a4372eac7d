package room

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"arenagame/game"
	"arenagame/protocol"
	"arenagame/replay"
)

const (
	DefaultReconnectGrace = 10 * time.Second
	// IdleTimeout disposes of rooms nobody ever joined.
	IdleTimeout   = 30 * time.Second
	maxChatLength = 200
)

// Summary is the directory entry of one room.
type Summary struct {
	Name      string `json:"roomName"`
	Mode      string `json:"mode"`
	Phase     string `json:"phase"`
	Players   int    `json:"playerCount"`
	UpdatedAt int64  `json:"updatedAt"`
}

type Room struct {
	Inbox          chan any
	Name           string
	Mode           game.Mode
	Grace          time.Duration
	OnEmpty        func(name string, r *Room)
	tickHz         int
	broadcastEvery int

	sim       *game.Sim
	clients   map[string]Conn
	presence  map[string]game.PresenceMeta
	pending   map[string]uint64
	needsFull map[string]bool
	gen       uint64
	prev      *protocol.GameState
	recorder  *replay.Recorder
	idleSince time.Time

	summary  atomic.Pointer[Summary]
	quit     chan struct{}
	stopOnce sync.Once
}

func New(name string, mode game.Mode) *Room {
	mode = game.ParseMode(string(mode))
	broadcastEvery := game.TickHz / game.BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}
	r := &Room{
		Inbox:          make(chan any, 256),
		Name:           name,
		Mode:           mode,
		Grace:          DefaultReconnectGrace,
		tickHz:         game.TickHz,
		broadcastEvery: broadcastEvery,
		sim:            game.New(name, mode),
		clients:        make(map[string]Conn),
		presence:       make(map[string]game.PresenceMeta),
		pending:        make(map[string]uint64),
		needsFull:      make(map[string]bool),
		recorder:       replay.NewRecorder(),
		idleSince:      time.Now(),
		quit:           make(chan struct{}),
	}
	r.publish()
	return r
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once the room stopped.
func (r *Room) Done() <-chan struct{} { return r.quit }

// Summary is safe to call from any goroutine.
func (r *Room) Summary() Summary {
	if s := r.summary.Load(); s != nil {
		return *s
	}
	return Summary{Name: r.Name, Mode: string(r.Mode)}
}

// Send posts a command to the room. It reports false once the room stopped.
func (r *Room) Send(cmd any) bool {
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

// Join admits a connection and waits for the room to accept it.
func (r *Room) Join(ctx context.Context, j Join) (JoinResult, error) {
	if j.PlayerID == "" {
		return JoinResult{}, ErrNoPlayerID
	}
	reply := make(chan JoinResult, 1)
	j.Reply = reply
	select {
	case r.Inbox <- j:
	case <-r.quit:
		return JoinResult{}, ErrRoomClosed
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-r.quit:
		return JoinResult{}, ErrRoomClosed
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// LastReplay returns the record of the last finished round, nil when there
// is none yet.
func (r *Room) LastReplay(ctx context.Context) (*replay.Record, error) {
	reply := make(chan *replay.Record, 1)
	select {
	case r.Inbox <- ReplayRequest{Reply: reply}:
	case <-r.quit:
		return nil, ErrRoomClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rec := <-reply:
		return rec, nil
	case <-r.quit:
		return nil, ErrRoomClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Room) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(r.tickHz))
	defer ticker.Stop()
	defer r.closeAll()

	ticks := 0
	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case now := <-ticker.C:
			r.step(now)
			ticks++
			if ticks%r.broadcastEvery == 0 {
				r.broadcastState()
				r.checkIdle(now)
			}
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case Leave:
		if cur, ok := r.clients[c.PlayerID]; ok && (c.Conn == nil || cur == c.Conn) {
			r.disconnect(c.PlayerID)
		}
	case Input:
		if _, ok := r.clients[c.PlayerID]; !ok {
			return
		}
		r.setInput(c.PlayerID, c.Input)
	case Ready:
		if _, ok := r.clients[c.PlayerID]; ok {
			r.sim.SetReady(c.PlayerID, c.Ready)
		}
	case SetAppearance:
		if _, ok := r.clients[c.PlayerID]; !ok {
			return
		}
		r.sim.SetAppearance(c.PlayerID, c.Appearance)
		if meta, ok := r.presence[c.PlayerID]; ok && c.Appearance != nil {
			meta.Appearance = game.SanitizeAppearance(c.Appearance)
			r.presence[c.PlayerID] = meta
		}
	case Chat:
		r.handleChat(c)
	case ReplayRequest:
		c.Reply <- r.recorder.Last()
	case presenceExpired:
		r.expire(c)
	}
}

func (r *Room) handleJoin(c Join) {
	if old, ok := r.clients[c.PlayerID]; ok && old != c.Conn {
		_ = old.Close()
	}
	r.clients[c.PlayerID] = c.Conn
	r.needsFull[c.PlayerID] = true
	if _, ok := r.pending[c.PlayerID]; ok {
		delete(r.pending, c.PlayerID)
		log.Printf("room %s: %s reconnected", r.Name, c.PlayerID)
	}

	meta, ok := r.presence[c.PlayerID]
	if !ok {
		meta = game.PresenceMeta{PlayerID: c.PlayerID, JoinedAt: time.Now()}
	}
	if c.Name != "" {
		meta.Name = c.Name
	}
	if c.Appearance != nil {
		meta.Appearance = game.SanitizeAppearance(c.Appearance)
	}
	r.presence[c.PlayerID] = meta
	r.syncPresence()
	r.idleSince = time.Time{}
	r.publish()

	if c.Reply != nil {
		c.Reply <- JoinResult{PlayerID: c.PlayerID, Room: r.Name, Mode: r.Mode}
	}
}

func (r *Room) setInput(id string, in game.Input) {
	r.sim.SetInput(id, in)
	if r.recorder.Recording() {
		r.recorder.Input(r.sim.RoundTick(), id, in)
	}
}

// disconnect closes the player's socket and starts the grace window. The
// player stays in the roster until it expires or they reconnect.
func (r *Room) disconnect(id string) {
	if c, ok := r.clients[id]; ok {
		_ = c.Close()
	}
	delete(r.clients, id)
	delete(r.needsFull, id)
	r.setInput(id, game.Input{})

	r.gen++
	gen := r.gen
	r.pending[id] = gen
	if r.Grace <= 0 {
		r.expire(presenceExpired{PlayerID: id, gen: gen})
		return
	}
	time.AfterFunc(r.Grace, func() {
		r.Send(presenceExpired{PlayerID: id, gen: gen})
	})
	r.publish()
}

func (r *Room) expire(c presenceExpired) {
	if gen, ok := r.pending[c.PlayerID]; !ok || gen != c.gen {
		return
	}
	delete(r.pending, c.PlayerID)
	delete(r.presence, c.PlayerID)
	r.syncPresence()
	r.publish()
	log.Printf("room %s: %s left", r.Name, c.PlayerID)

	if len(r.clients) == 0 && len(r.pending) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.Name, r)
	}
}

// syncPresence hands the presence set to the simulation in join order and
// logs it when a round is being recorded.
func (r *Room) syncPresence() {
	metas := make([]game.PresenceMeta, 0, len(r.presence))
	for _, m := range r.presence {
		metas = append(metas, m)
	}
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].JoinedAt.Equal(metas[j].JoinedAt) {
			return metas[i].JoinedAt.Before(metas[j].JoinedAt)
		}
		return metas[i].PlayerID < metas[j].PlayerID
	})
	r.sim.SyncPresence(metas)
	if r.recorder.Recording() {
		r.recorder.Presence(r.sim.RoundTick(), metas)
	}
}

func (r *Room) handleChat(c Chat) {
	p, ok := r.sim.Player(c.PlayerID)
	if !ok {
		return
	}
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return
	}
	if len(text) > maxChatLength {
		text = text[:maxChatLength]
		for !utf8.ValidString(text) {
			text = text[:len(text)-1]
		}
	}
	b, err := protocol.EncodeServerMessage(protocol.ChatFrame(protocol.ChatMessage{
		ID:       uuid.NewString(),
		PlayerID: p.ID,
		Name:     p.Name,
		Text:     text,
		At:       time.Now().UnixMilli(),
	}))
	if err != nil {
		log.Printf("room %s: chat: %v", r.Name, err)
		return
	}
	var failed []string
	for id, conn := range r.clients {
		if err := conn.SendText(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.disconnect(id)
	}
}

func (r *Room) step(now time.Time) {
	before := r.sim.Phase()
	r.sim.Step(now)
	after := r.sim.Phase()
	if before == after {
		return
	}
	switch {
	case after == game.PhasePlaying:
		r.recorder.Start(r.sim, now)
		log.Printf("room %s: round started, seed %d", r.Name, r.sim.Seed())
	case before == game.PhasePlaying && after == game.PhaseEnded:
		if rec := r.recorder.Finish(r.sim); rec != nil {
			log.Printf("room %s: round ended after %d ticks, winner %q", r.Name, rec.Ticks, rec.Winner)
		}
	case before == game.PhasePlaying:
		r.recorder.Abort()
	}
}

// broadcastState sends a full frame to new sockets and on the very first
// broadcast, and a patch against the previous broadcast otherwise. Nothing
// goes out when nothing changed.
func (r *Room) broadcastState() {
	cur := snapshot(r.sim)
	first := r.prev == nil
	var patch, full []byte
	if !first {
		if p := protocol.Diff(*r.prev, cur); p != nil {
			patch = protocol.EncodePatch(p, cur.ServerTime, cur.TickIndex)
		}
	}
	if first || len(r.needsFull) > 0 {
		full = protocol.EncodeState(cur)
	}

	r.prev = &cur
	r.sim.AckSpawn()
	r.publish()

	var failed []string
	for id, c := range r.clients {
		frame := patch
		if first || r.needsFull[id] {
			frame = full
		}
		if frame == nil {
			continue
		}
		if err := c.Send(frame); err != nil {
			failed = append(failed, id)
			continue
		}
		delete(r.needsFull, id)
	}
	for _, id := range failed {
		log.Printf("room %s: dropping %s, send failed", r.Name, id)
		r.disconnect(id)
	}
}

func (r *Room) checkIdle(now time.Time) {
	if len(r.clients) > 0 || len(r.pending) > 0 {
		r.idleSince = time.Time{}
		return
	}
	if r.idleSince.IsZero() {
		r.idleSince = now
		return
	}
	if now.Sub(r.idleSince) >= IdleTimeout && r.OnEmpty != nil {
		r.OnEmpty(r.Name, r)
	}
}

func (r *Room) publish() {
	r.summary.Store(&Summary{
		Name:      r.Name,
		Mode:      string(r.Mode),
		Phase:     r.sim.Phase().String(),
		Players:   len(r.sim.Players()),
		UpdatedAt: time.Now().UnixMilli(),
	})
}

func (r *Room) closeAll() {
	for id, c := range r.clients {
		_ = c.Close()
		delete(r.clients, id)
	}
}
