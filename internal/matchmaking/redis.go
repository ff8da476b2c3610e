package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/transport"
)

const lockTTL = 5 * time.Second

type eventKind string

const (
	eventList   eventKind = "list"
	eventActors eventKind = "actors"
	eventStart  eventKind = "start"
)

type roomEvent struct {
	Kind   eventKind `json:"kind"`
	RoomID string    `json:"room_id,omitempty"`
}

// RedisMatchmaker keeps rooms as JSON documents in Redis and fans room
// events out over Pub/Sub. One instance serves one peer.
type RedisMatchmaker struct {
	rdb    *redis.Client
	ids    *IDGenerator
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	actor    model.Actor
	room     *model.Room
	watchers map[int]transport.RoomHandler
	nextID   int

	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ transport.Matchmaker = (*RedisMatchmaker)(nil)

// NewRedisMatchmaker creates a matchmaker; rooms expire after ttl without writes.
func NewRedisMatchmaker(rdb *redis.Client, ids *IDGenerator, ttl time.Duration) *RedisMatchmaker {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisMatchmaker{
		rdb:      rdb,
		ids:      ids,
		ttl:      ttl,
		logger:   slog.Default().With("component", "matchmaking"),
		watchers: make(map[int]transport.RoomHandler),
	}
}

// Start subscribes to room events. Watchers get nothing before Start.
func (m *RedisMatchmaker) Start(ctx context.Context) error {
	pubsub := m.rdb.Subscribe(ctx, RoomEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe room events: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.pubsub = pubsub
	m.cancel = cancel

	m.wg.Add(1)
	go m.eventLoop(loopCtx, pubsub.Channel())

	m.logger.Info("Matchmaker started", "channel", RoomEventsChannel)
	return nil
}

func (m *RedisMatchmaker) SetActor(ctx context.Context, actor model.Actor) error {
	m.mu.Lock()
	m.actor = actor
	roomID := ""
	if m.room != nil {
		roomID = m.room.ID
	}
	m.mu.Unlock()

	if roomID == "" {
		return nil
	}
	return m.withLock(ctx, roomID, func(r *model.Room) (bool, error) {
		i := r.ActorIndex(actor.SessionID)
		if i < 0 {
			return false, nil
		}
		r.Actors[i] = actor
		return true, nil
	}, eventActors)
}

func (m *RedisMatchmaker) CreateRoom(ctx context.Context, opts model.RoomOptions) (*model.Room, error) {
	actor := m.currentActor()
	if actor.SessionID == "" {
		return nil, transport.ErrNotConnected
	}
	if err := m.LeaveRoom(ctx); err != nil {
		m.logger.Warn("Failed to leave previous room", "error", err)
	}

	opts = opts.WithDefaults()
	now := time.Now()
	r := &model.Room{
		ID:         m.ids.Next(),
		Name:       opts.Name,
		Mode:       opts.Mode,
		CreatorID:  actor.SessionID,
		Actors:     []model.Actor{actor},
		MaxPlayers: opts.MaxPlayers,
		MinPlayers: opts.MinPlayers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.saveRoom(ctx, r); err != nil {
		return nil, err
	}
	if err := m.rdb.SAdd(ctx, RoomIndexKey, r.ID).Err(); err != nil {
		return nil, fmt.Errorf("index room: %w", err)
	}

	m.setRoom(r)
	m.publish(ctx, roomEvent{Kind: eventActors, RoomID: r.ID})
	m.publish(ctx, roomEvent{Kind: eventList})

	m.logger.Info("Room created", "roomId", r.ID, "mode", r.Mode, "creator", actor.SessionID)
	return r.Clone(), nil
}

func (m *RedisMatchmaker) JoinRoom(ctx context.Context, roomID string) (*model.Room, error) {
	actor := m.currentActor()
	if actor.SessionID == "" {
		return nil, transport.ErrNotConnected
	}
	if current := m.CurrentRoom(); current != nil && current.ID != roomID {
		if err := m.LeaveRoom(ctx); err != nil {
			m.logger.Warn("Failed to leave previous room", "error", err)
		}
	}

	var joined *model.Room
	err := m.withLock(ctx, roomID, func(r *model.Room) (bool, error) {
		joined = r
		if r.HasActor(actor.SessionID) {
			return false, nil
		}
		if r.Closed || r.GameStarted {
			return false, transport.ErrGameStarted
		}
		if r.IsFull() {
			return false, transport.ErrRoomFull
		}
		r.Actors = append(r.Actors, actor)
		return true, nil
	}, eventActors, eventList)
	if err != nil {
		return nil, err
	}

	m.setRoom(joined)
	m.logger.Info("Room joined", "roomId", roomID, "session", actor.SessionID, "actors", len(joined.Actors))
	return joined.Clone(), nil
}

func (m *RedisMatchmaker) LeaveRoom(ctx context.Context) error {
	current := m.CurrentRoom()
	if current == nil {
		return nil
	}
	actor := m.currentActor()
	m.setRoom(nil)

	err := m.withLock(ctx, current.ID, func(r *model.Room) (bool, error) {
		i := r.ActorIndex(actor.SessionID)
		if i < 0 {
			return false, nil
		}
		r.Actors = append(r.Actors[:i], r.Actors[i+1:]...)
		return true, nil
	}, eventActors, eventList)
	if errors.Is(err, transport.ErrRoomNotFound) {
		return nil
	}
	return err
}

func (m *RedisMatchmaker) ListRooms(ctx context.Context) ([]model.Room, error) {
	ids, err := m.rdb.SMembers(ctx, RoomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list room ids: %w", err)
	}
	if len(ids) == 0 {
		return []model.Room{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BuildRoomKey(id)
	}
	values, err := m.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	rooms := make([]model.Room, 0, len(values))
	var stale []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// expired room, the index entry outlived it
			stale = append(stale, ids[i])
			continue
		}
		var r model.Room
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			m.logger.Warn("Skipping undecodable room", "roomId", ids[i], "error", err)
			continue
		}
		rooms = append(rooms, r)
	}
	if len(stale) > 0 {
		m.rdb.SRem(ctx, RoomIndexKey, stale...)
	}

	sort.Slice(rooms, func(a, b int) bool {
		if rooms[a].CreatedAt.Equal(rooms[b].CreatedAt) {
			return rooms[a].ID < rooms[b].ID
		}
		return rooms[a].CreatedAt.Before(rooms[b].CreatedAt)
	})
	return rooms, nil
}

func (m *RedisMatchmaker) StartGame(ctx context.Context) error {
	current := m.CurrentRoom()
	if current == nil {
		return transport.ErrNotInRoom
	}
	actor := m.currentActor()

	var started *model.Room
	err := m.withLock(ctx, current.ID, func(r *model.Room) (bool, error) {
		if !r.CreatedBy(actor.SessionID) {
			return false, transport.ErrNotRoomCreator
		}
		if r.GameStarted {
			return false, transport.ErrGameStarted
		}
		r.Closed = true
		r.GameStarted = true
		started = r
		return true, nil
	}, eventStart, eventList)
	if err != nil {
		return err
	}

	m.setRoom(started)
	m.logger.Info("Game started", "roomId", started.ID, "actors", len(started.Actors))
	return nil
}

func (m *RedisMatchmaker) CurrentRoom() *model.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room.Clone()
}

func (m *RedisMatchmaker) InLobby() bool {
	return m.CurrentRoom() == nil
}

func (m *RedisMatchmaker) Watch(h transport.RoomHandler) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.watchers[id] = h
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// Close leaves the current room and stops the event loop.
func (m *RedisMatchmaker) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := m.LeaveRoom(ctx)

	if m.cancel != nil {
		m.cancel()
	}
	if m.pubsub != nil {
		err = errors.Join(err, m.pubsub.Close())
	}
	m.wg.Wait()
	return err
}

// withLock loads roomID under the room lock, applies mutate and saves when
// it reports a change, then publishes events.
func (m *RedisMatchmaker) withLock(ctx context.Context, roomID string, mutate func(r *model.Room) (bool, error), events ...eventKind) error {
	lockKey := BuildRoomLockKey(roomID)
	locked, err := m.rdb.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		m.logger.Error("Failed to acquire room lock", "error", err, "roomId", roomID)
		return fmt.Errorf("acquire room lock: %w", err)
	}
	if !locked {
		m.logger.Warn("Room is locked by another operation", "roomId", roomID)
		return transport.ErrRoomBusy
	}
	defer m.rdb.Del(ctx, lockKey)

	r, err := m.getRoom(ctx, roomID)
	if err != nil {
		return err
	}

	changed, err := mutate(r)
	if err != nil || !changed {
		return err
	}

	if len(r.Actors) == 0 {
		if err := m.rdb.Del(ctx, BuildRoomKey(roomID)).Err(); err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
		m.rdb.SRem(ctx, RoomIndexKey, roomID)
		m.publish(ctx, roomEvent{Kind: eventList})
		return nil
	}

	if err := m.saveRoom(ctx, r); err != nil {
		return err
	}
	for _, kind := range events {
		m.publish(ctx, roomEvent{Kind: kind, RoomID: roomID})
	}
	return nil
}

func (m *RedisMatchmaker) getRoom(ctx context.Context, roomID string) (*model.Room, error) {
	data, err := m.rdb.Get(ctx, BuildRoomKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, transport.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	var r model.Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	return &r, nil
}

func (m *RedisMatchmaker) saveRoom(ctx context.Context, r *model.Room) error {
	r.UpdatedAt = time.Now()
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	if err := m.rdb.Set(ctx, BuildRoomKey(r.ID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

func (m *RedisMatchmaker) publish(ctx context.Context, ev roomEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := m.rdb.Publish(ctx, RoomEventsChannel, data).Err(); err != nil {
		m.logger.Warn("Failed to publish room event", "kind", ev.Kind, "roomId", ev.RoomID, "error", err)
	}
}

func (m *RedisMatchmaker) eventLoop(ctx context.Context, ch <-chan *redis.Message) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev roomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				m.logger.Warn("Dropping malformed room event", "error", err)
				continue
			}
			m.handleEvent(ctx, ev)
		}
	}
}

func (m *RedisMatchmaker) handleEvent(ctx context.Context, ev roomEvent) {
	switch ev.Kind {
	case eventList:
		rooms, err := m.ListRooms(ctx)
		if err != nil {
			m.logger.Warn("Failed to refresh room list", "error", err)
			return
		}
		for _, w := range m.handlers() {
			w.HandleRoomList(rooms)
		}

	case eventActors, eventStart:
		actor := m.currentActor()
		r, err := m.getRoom(ctx, ev.RoomID)
		if err != nil || !r.HasActor(actor.SessionID) {
			return
		}
		m.setRoom(r)
		for _, w := range m.handlers() {
			if ev.Kind == eventStart {
				w.HandleGameStart(*r.Clone())
			} else {
				w.HandleRoomActors(*r.Clone())
			}
		}
	}
}

func (m *RedisMatchmaker) handlers() []transport.RoomHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]transport.RoomHandler, 0, len(m.watchers))
	for _, w := range m.watchers {
		out = append(out, w)
	}
	return out
}

func (m *RedisMatchmaker) currentActor() model.Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actor
}

func (m *RedisMatchmaker) setRoom(r *model.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = r.Clone()
}
