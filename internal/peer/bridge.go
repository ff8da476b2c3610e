package peer

import (
	"context"
	"log/slog"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
	"github.com/jjweiting/hackthon001/internal/transport"
)

// serialTimer schedules on the shared timer but runs every firing inside
// the peer loop.
type serialTimer struct {
	timer task.Timer
	loop  *Loop
}

func (t serialTimer) AddTask(tk *task.Task) error {
	if tk == nil {
		return task.ErrInvalidTask
	}
	wrapped := task.NewTask(tk.ID, tk.Delay, func(context.Context) error {
		t.loop.Post(func() { _ = tk.Execute(context.Background()) })
		return nil
	}).WithOwner(tk.Owner)
	return t.timer.AddTask(wrapped)
}

func (t serialTimer) RemoveTask(taskID string) error {
	return t.timer.RemoveTask(taskID)
}

// inbound is the delivery target handed to channels and matchmaking. Each
// callback is posted into the loop before it reaches the manager. Delivery
// never blocks the calling transport worker; a callback that finds the
// inbox full is dropped.
type inbound struct {
	loop    *Loop
	channel transport.ChannelHandler
	rooms   transport.RoomHandler
	logger  *slog.Logger
}

var (
	_ transport.ChannelHandler = (*inbound)(nil)
	_ transport.RoomHandler    = (*inbound)(nil)
)

func newInbound(loop *Loop, channel transport.ChannelHandler, rooms transport.RoomHandler) *inbound {
	return &inbound{
		loop:    loop,
		channel: channel,
		rooms:   rooms,
		logger:  slog.Default().With("component", "peer.inbound"),
	}
}

func (b *inbound) deliver(kind string, fn func()) {
	if !b.loop.TryPost(fn) {
		b.logger.Warn("Inbound dropped, loop busy or stopped", "kind", kind)
	}
}

func (b *inbound) HandleMessage(sender string, msg protocol.Message) {
	b.deliver("message", func() { b.channel.HandleMessage(sender, msg) })
}

func (b *inbound) HandleNotification(n protocol.Notification) {
	b.deliver("notification", func() { b.channel.HandleNotification(n) })
}

func (b *inbound) HandleRoomList(rooms []model.Room) {
	b.deliver("roomList", func() { b.rooms.HandleRoomList(rooms) })
}

func (b *inbound) HandleRoomActors(room model.Room) {
	b.deliver("roomActors", func() { b.rooms.HandleRoomActors(room) })
}

func (b *inbound) HandleGameStart(room model.Room) {
	b.deliver("gameStart", func() { b.rooms.HandleGameStart(room) })
}
