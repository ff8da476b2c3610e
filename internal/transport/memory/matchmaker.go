package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/transport"
)

// lobby is the hub's room registry. It shares the hub lock and queue so
// room events and channel traffic flush in one order.
type lobby struct {
	hub      *Hub
	rooms    map[string]*model.Room
	order    []string
	seq      int
	watchers map[*Matchmaker]map[int]transport.RoomHandler
}

func newLobby(h *Hub) *lobby {
	return &lobby{
		hub:      h,
		rooms:    make(map[string]*model.Room),
		watchers: make(map[*Matchmaker]map[int]transport.RoomHandler),
	}
}

// Matchmaker returns a new room client bound to the hub's registry.
func (h *Hub) Matchmaker() *Matchmaker {
	return &Matchmaker{hub: h}
}

// Rooms returns a snapshot of every room, in creation order.
func (h *Hub) Rooms() []model.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lobby.list()
}

// Matchmaker is one peer's view of the hub lobby.
type Matchmaker struct {
	hub     *Hub
	actor   model.Actor
	roomID  string
	watchID int
	mu      sync.Mutex // guards watchID only; the rest sits under hub.mu
}

var _ transport.Matchmaker = (*Matchmaker)(nil)

func (m *Matchmaker) SetActor(_ context.Context, actor model.Actor) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.actor = actor
	if r, ok := m.hub.lobby.rooms[m.roomID]; ok {
		if i := r.ActorIndex(actor.SessionID); i >= 0 {
			r.Actors[i] = actor
			m.hub.lobby.announceActors(r)
		}
	}
	return nil
}

func (m *Matchmaker) CreateRoom(_ context.Context, opts model.RoomOptions) (*model.Room, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	if m.actor.SessionID == "" {
		return nil, transport.ErrNotConnected
	}
	l := m.hub.lobby
	l.leave(m)

	opts = opts.WithDefaults()
	l.seq++
	now := time.Now()
	r := &model.Room{
		ID:         fmt.Sprintf("room-%d", l.seq),
		Name:       opts.Name,
		Mode:       opts.Mode,
		CreatorID:  m.actor.SessionID,
		Actors:     []model.Actor{m.actor},
		MaxPlayers: opts.MaxPlayers,
		MinPlayers: opts.MinPlayers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.rooms[r.ID] = r
	l.order = append(l.order, r.ID)
	m.roomID = r.ID

	l.announceActors(r)
	l.announceList()
	return r.Clone(), nil
}

func (m *Matchmaker) JoinRoom(_ context.Context, roomID string) (*model.Room, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	if m.actor.SessionID == "" {
		return nil, transport.ErrNotConnected
	}
	l := m.hub.lobby
	r, ok := l.rooms[roomID]
	if !ok {
		return nil, transport.ErrRoomNotFound
	}
	if r.HasActor(m.actor.SessionID) {
		m.roomID = r.ID
		return r.Clone(), nil
	}
	if r.Closed || r.GameStarted {
		return nil, transport.ErrGameStarted
	}
	if r.IsFull() {
		return nil, transport.ErrRoomFull
	}

	l.leave(m)
	r.Actors = append(r.Actors, m.actor)
	r.UpdatedAt = time.Now()
	m.roomID = r.ID

	l.announceActors(r)
	l.announceList()
	return r.Clone(), nil
}

func (m *Matchmaker) LeaveRoom(context.Context) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.hub.lobby.leave(m)
	return nil
}

func (m *Matchmaker) ListRooms(context.Context) ([]model.Room, error) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	return m.hub.lobby.list(), nil
}

func (m *Matchmaker) StartGame(context.Context) error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()

	l := m.hub.lobby
	r, ok := l.rooms[m.roomID]
	if !ok {
		return transport.ErrNotInRoom
	}
	if !r.CreatedBy(m.actor.SessionID) {
		return transport.ErrNotRoomCreator
	}
	if r.GameStarted {
		return transport.ErrGameStarted
	}

	r.Closed = true
	r.GameStarted = true
	r.UpdatedAt = time.Now()

	snapshot := *r.Clone()
	for _, a := range r.Actors {
		for _, w := range l.watchersOf(a.SessionID) {
			l.enqueue(func() { w.HandleGameStart(snapshot) })
		}
	}
	l.announceList()
	return nil
}

func (m *Matchmaker) CurrentRoom() *model.Room {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	r, ok := m.hub.lobby.rooms[m.roomID]
	if !ok {
		return nil
	}
	return r.Clone()
}

func (m *Matchmaker) InLobby() bool {
	return m.CurrentRoom() == nil
}

func (m *Matchmaker) Watch(h transport.RoomHandler) func() {
	m.mu.Lock()
	m.watchID++
	id := m.watchID
	m.mu.Unlock()

	m.hub.mu.Lock()
	l := m.hub.lobby
	if l.watchers[m] == nil {
		l.watchers[m] = make(map[int]transport.RoomHandler)
	}
	l.watchers[m][id] = h
	m.hub.mu.Unlock()

	return func() {
		m.hub.mu.Lock()
		defer m.hub.mu.Unlock()
		delete(l.watchers[m], id)
	}
}

func (m *Matchmaker) Close() error {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.hub.lobby.leave(m)
	delete(m.hub.lobby.watchers, m)
	return nil
}

// The helpers below run with hub.mu held.

func (l *lobby) leave(m *Matchmaker) {
	r, ok := l.rooms[m.roomID]
	m.roomID = ""
	if !ok {
		return
	}

	if i := r.ActorIndex(m.actor.SessionID); i >= 0 {
		r.Actors = append(r.Actors[:i], r.Actors[i+1:]...)
		r.UpdatedAt = time.Now()
	}
	if len(r.Actors) == 0 {
		delete(l.rooms, r.ID)
		for i, id := range l.order {
			if id == r.ID {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	} else {
		l.announceActors(r)
	}
	l.announceList()
}

func (l *lobby) list() []model.Room {
	rooms := make([]model.Room, 0, len(l.order))
	for _, id := range l.order {
		rooms = append(rooms, *l.rooms[id].Clone())
	}
	return rooms
}

func (l *lobby) announceList() {
	for _, handlers := range l.watchers {
		for _, w := range handlers {
			rooms := l.list()
			l.enqueue(func() { w.HandleRoomList(rooms) })
		}
	}
}

func (l *lobby) announceActors(r *model.Room) {
	for _, a := range r.Actors {
		for _, w := range l.watchersOf(a.SessionID) {
			snapshot := *r.Clone()
			l.enqueue(func() { w.HandleRoomActors(snapshot) })
		}
	}
}

func (l *lobby) watchersOf(sessionID string) []transport.RoomHandler {
	var out []transport.RoomHandler
	for m, handlers := range l.watchers {
		if m.actor.SessionID != sessionID {
			continue
		}
		for _, w := range handlers {
			out = append(out, w)
		}
	}
	return out
}

func (l *lobby) enqueue(fn func()) {
	l.hub.queue = append(l.hub.queue, delivery{fn: fn})
}
