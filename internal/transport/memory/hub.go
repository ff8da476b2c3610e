// Package memory is an in-process relay and room registry with explicit,
// test-driven delivery. Nothing moves until Flush is called.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/transport"
)

// maxFlush bounds a single Flush so a handler that always replies cannot spin forever.
const maxFlush = 100000

// Filter decides per recipient whether a message is delivered.
type Filter func(channelID, sender, recipient string, msg protocol.Message) bool

// GameRequestHandler answers game module requests, e.g. gamemodule.Service.
type GameRequestHandler interface {
	HandleGameRequest(ctx context.Context, req *protocol.GameRequest)
}

type delivery struct {
	target *Channel
	fn     func()
}

// Hub is a shared relay for any number of in-process peers.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[string]*Channel // channel id -> session id -> member
	queue    []delivery
	dropNext int
	filter   Filter
	requests map[string][]protocol.GameRequest
	games    GameRequestHandler
	lobby    *lobby
	logger   *slog.Logger
}

func NewHub() *Hub {
	h := &Hub{
		channels: make(map[string]map[string]*Channel),
		requests: make(map[string][]protocol.GameRequest),
		logger:   slog.Default().With("component", "memory.hub"),
	}
	h.lobby = newLobby(h)
	return h
}

var _ transport.ChannelDialer = (*Hub)(nil)

// Join adds sessionID to the channel. Joining twice replaces the earlier membership.
func (h *Hub) Join(_ context.Context, channelID, sessionID string, handler transport.ChannelHandler) (transport.Channel, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[channelID]
	if !ok {
		members = make(map[string]*Channel)
		h.channels[channelID] = members
	}
	if old, ok := members[sessionID]; ok {
		old.closed = true
	}

	ch := &Channel{hub: h, id: channelID, session: sessionID, handler: handler}
	members[sessionID] = ch
	return ch, nil
}

// DropNext discards the next n sends before they reach anyone.
func (h *Hub) DropNext(n int) {
	h.mu.Lock()
	h.dropNext = n
	h.mu.Unlock()
}

// SetFilter installs a per-recipient loss rule. Nil delivers everything.
func (h *Hub) SetFilter(f Filter) {
	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
}

// SetGameHandler routes recorded game requests to h during Flush.
func (h *Hub) SetGameHandler(g GameRequestHandler) {
	h.mu.Lock()
	h.games = g
	h.mu.Unlock()
}

// Publish makes the hub usable as the game module service's notifier.
func (h *Hub) Publish(channelID string, n protocol.Notification) error {
	h.Notify(channelID, n)
	return nil
}

// Notify queues a game module notification for every member of channelID.
func (h *Hub) Notify(channelID string, n protocol.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sid := range h.sortedMembers(channelID) {
		member := h.channels[channelID][sid]
		h.queue = append(h.queue, delivery{
			target: member,
			fn:     func() { member.handler.HandleNotification(n) },
		})
	}
}

// Flush delivers queued traffic, including anything queued while
// delivering, and returns how many deliveries ran.
func (h *Hub) Flush() int {
	delivered := 0
	for delivered < maxFlush {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return delivered
		}
		d := h.queue[0]
		h.queue = h.queue[1:]
		closed := d.target != nil && d.target.closed
		h.mu.Unlock()

		// members that left in the meantime miss the delivery
		if closed {
			continue
		}
		d.fn()
		delivered++
	}
	h.logger.Warn("Flush limit reached", "limit", maxFlush)
	return delivered
}

// Pending is the number of queued deliveries.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Members returns the sorted session ids in channelID.
func (h *Hub) Members(channelID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sortedMembers(channelID)
}

// GameRequests returns what peers asked of channelID's game module.
func (h *Hub) GameRequests(channelID string) []protocol.GameRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.GameRequest(nil), h.requests[channelID]...)
}

func (h *Hub) sortedMembers(channelID string) []string {
	ids := make([]string, 0, len(h.channels[channelID]))
	for sid := range h.channels[channelID] {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) publish(from *Channel, msg protocol.Message) error {
	data, err := protocol.Encode(from.session, msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if from.closed {
		return transport.ErrChannelClosed
	}
	if h.dropNext > 0 {
		h.dropNext--
		return nil
	}

	for _, sid := range h.sortedMembers(from.id) {
		member := h.channels[from.id][sid]
		// every recipient decodes its own copy, as it would off the wire
		sender, decoded, err := protocol.Decode(data)
		if err != nil {
			return err
		}
		if h.filter != nil && !h.filter(from.id, sender, sid, decoded) {
			continue
		}
		h.queue = append(h.queue, delivery{
			target: member,
			fn:     func() { member.handler.HandleMessage(sender, decoded) },
		})
	}
	return nil
}

func (h *Hub) leave(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch.closed {
		return
	}
	ch.closed = true
	if members, ok := h.channels[ch.id]; ok && members[ch.session] == ch {
		delete(members, ch.session)
		if len(members) == 0 {
			delete(h.channels, ch.id)
		}
	}
}

func (h *Hub) recordRequest(req protocol.GameRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests[req.Channel] = append(h.requests[req.Channel], req)
	if g := h.games; g != nil {
		h.queue = append(h.queue, delivery{
			fn: func() { g.HandleGameRequest(context.Background(), &req) },
		})
	}
}

// Channel is one peer's membership in a hub channel.
type Channel struct {
	hub     *Hub
	id      string
	session string
	handler transport.ChannelHandler
	closed  bool // guarded by hub.mu
}

var _ transport.Channel = (*Channel)(nil)

func (c *Channel) ID() string { return c.id }

func (c *Channel) Send(_ context.Context, msg protocol.Message) error {
	return c.hub.publish(c, msg)
}

func (c *Channel) Game() transport.GameModule {
	return &gameModule{ch: c}
}

func (c *Channel) Close(context.Context) error {
	c.hub.leave(c)
	return nil
}

// gameModule records requests; tests answer them with Hub.Notify.
type gameModule struct {
	ch *Channel
}

func (g *gameModule) request(action protocol.GameAction, opts *protocol.GameOptions) error {
	g.ch.hub.mu.Lock()
	closed := g.ch.closed
	g.ch.hub.mu.Unlock()
	if closed {
		return transport.ErrChannelClosed
	}

	g.ch.hub.recordRequest(protocol.GameRequest{
		Action:    action,
		Channel:   g.ch.id,
		SessionID: g.ch.session,
		Options:   opts,
	})
	return nil
}

func (g *gameModule) Join(_ context.Context, opts protocol.GameOptions) error {
	return g.request(protocol.ActionJoin, &opts)
}

func (g *gameModule) Start(context.Context) error {
	return g.request(protocol.ActionStart, nil)
}

func (g *gameModule) End(context.Context) error {
	return g.request(protocol.ActionEnd, nil)
}

func (g *gameModule) Restart(context.Context) error {
	return g.request(protocol.ActionRestart, nil)
}

func (g *gameModule) Leave(context.Context) error {
	return g.request(protocol.ActionLeave, nil)
}
