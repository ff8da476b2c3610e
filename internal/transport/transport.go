// Package transport defines the relay and matchmaking collaborators a peer
// depends on. Implementations live in internal/nats, internal/matchmaking and
// transport/memory.
package transport

import (
	"context"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
)

// ChannelHandler receives everything a joined channel delivers. Calls may
// come from any goroutine; duplicates and reordering are possible.
type ChannelHandler interface {
	HandleMessage(sender string, msg protocol.Message)
	HandleNotification(n protocol.Notification)
}

// ChannelDialer joins broadcast channels.
type ChannelDialer interface {
	Join(ctx context.Context, channelID, sessionID string, h ChannelHandler) (Channel, error)
}

// Channel is one joined broadcast group. Sends are best effort, unordered,
// and echoed back to the sender.
type Channel interface {
	ID() string
	Send(ctx context.Context, msg protocol.Message) error
	Game() GameModule
	Close(ctx context.Context) error
}

// GameModule is the channel's hosted countdown and timer service.
type GameModule interface {
	Join(ctx context.Context, opts protocol.GameOptions) error
	Start(ctx context.Context) error
	End(ctx context.Context) error
	Restart(ctx context.Context) error
	Leave(ctx context.Context) error
}

// RoomHandler receives matchmaking updates.
type RoomHandler interface {
	HandleRoomList(rooms []model.Room)
	HandleRoomActors(room model.Room)
	HandleGameStart(room model.Room)
}

// Matchmaker is the room registry client of one peer.
type Matchmaker interface {
	SetActor(ctx context.Context, actor model.Actor) error
	CreateRoom(ctx context.Context, opts model.RoomOptions) (*model.Room, error)
	JoinRoom(ctx context.Context, roomID string) (*model.Room, error)
	LeaveRoom(ctx context.Context) error
	ListRooms(ctx context.Context) ([]model.Room, error)
	// StartGame closes the current room and announces the start. Only the
	// creator may call it.
	StartGame(ctx context.Context) error
	CurrentRoom() *model.Room
	InLobby() bool
	Watch(h RoomHandler) (stop func())
	Close() error
}
