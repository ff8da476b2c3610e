package network

import (
	"context"
	"fmt"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/transport"
)

var _ transport.RoomHandler = (*Manager)(nil)

// HandleRoomList keeps the last room list and purges remote actors that
// belong to other rooms already closed or in a match. It only collects
// while this peer is in the lobby or in a room that has not started.
func (m *Manager) HandleRoomList(rooms []model.Room) {
	m.roomList = rooms

	current := m.rooms.CurrentRoom()
	inUnstartedRoom := current != nil && !current.Closed && !current.GameStarted
	if !m.rooms.InLobby() && !inUnstartedRoom {
		return
	}

	purged := 0
	for _, r := range rooms {
		if current != nil && r.ID == current.ID {
			continue
		}
		if !r.Closed && !r.GameStarted {
			continue
		}
		for _, a := range r.Actors {
			if a.SessionID == m.opts.SessionID {
				continue
			}
			if m.purgeRemote(a.SessionID) {
				purged++
			}
		}
	}
	if purged > 0 {
		m.logger.Debug("Purged stale remote actors", "count", purged)
	}
}

// HandleRoomActors recomputes teams from the ordered roster.
func (m *Manager) HandleRoomActors(room model.Room) {
	if current := m.rooms.CurrentRoom(); current == nil || current.ID != room.ID {
		return
	}
	if m.game != nil {
		m.game.AssignTeams(room.Actors)
	}
}

// HandleGameStart moves the peer into the room's channel. The host seeds
// the static arena locally, repeats the seed, and every peer joins the
// channel's game module.
func (m *Manager) HandleGameStart(room model.Room) {
	current := m.rooms.CurrentRoom()
	if current == nil || current.ID != room.ID {
		m.logger.Debug("Game start for another room ignored", "room", room.ID)
		return
	}

	ctx, cancel := m.ioContext()
	defer cancel()

	if err := m.EnterChannel(ctx, room.ID); err != nil {
		m.logger.Error("Enter game channel failed", "room", room.ID, "error", err)
		return
	}
	m.logger.Info("Game started, entered room channel", "room", room.ID)

	if m.game != nil {
		m.game.AssignTeams(room.Actors)
	}
	if m.IsHost() {
		seed := m.opts.Seed()
		if m.game != nil {
			m.game.HandleMapInit(seed)
		}
		m.ScheduleMapInitBroadcast(seed)
	}
	m.joinGame(ctx)
}

// Rooms is the last room list pushed by matchmaking.
func (m *Manager) Rooms() []model.Room {
	return m.roomList
}

func (m *Manager) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := m.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (m *Manager) CreateRoom(ctx context.Context, opts model.RoomOptions) (*model.Room, error) {
	room, err := m.rooms.CreateRoom(ctx, opts.WithDefaults())
	if err != nil {
		return nil, err
	}
	m.logger.Info("Room created", "room", room.ID, "mode", room.Mode)
	return room, nil
}

func (m *Manager) JoinRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := m.rooms.JoinRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Room joined", "room", room.ID)
	return room, nil
}

// StartGame closes the current room and starts its game. Creator only.
func (m *Manager) StartGame(ctx context.Context) error {
	room := m.rooms.CurrentRoom()
	if room == nil {
		return transport.ErrNotInRoom
	}
	if !room.CreatedBy(m.opts.SessionID) {
		return transport.ErrNotRoomCreator
	}
	return m.rooms.StartGame(ctx)
}

// StartMatch has the host build and broadcast the dynamic arena, then asks
// the game module to start the countdown.
func (m *Manager) StartMatch(ctx context.Context) error {
	if m.channel == nil {
		return transport.ErrNotConnected
	}
	if m.game != nil && m.IsHost() {
		m.game.GenerateAndBroadcastDynamicArena()
	}
	if err := m.channel.Game().Start(ctx); err != nil {
		return fmt.Errorf("game start: %w", err)
	}
	return nil
}

// EndGame announces the end of the match to the game module.
func (m *Manager) EndGame() {
	m.gameRequest("end", func(ctx context.Context, g transport.GameModule) error { return g.End(ctx) })
}

// RestartGame asks the game module for a new round.
func (m *Manager) RestartGame() {
	m.gameRequest("restart", func(ctx context.Context, g transport.GameModule) error { return g.Restart(ctx) })
}

func (m *Manager) gameRequest(action string, fn func(context.Context, transport.GameModule) error) {
	if m.channel == nil {
		m.logger.Warn("No channel, game request dropped", "action", action)
		return
	}
	ctx, cancel := m.ioContext()
	defer cancel()
	if err := fn(ctx, m.channel.Game()); err != nil {
		m.logger.Warn("Game request failed", "action", action, "error", err)
	}
}

// LeaveGameAndEnterLobby resets the game, leaves the game channel and goes
// back to the lobby. Quick game mode is switched off on the way out.
func (m *Manager) LeaveGameAndEnterLobby(ctx context.Context) error {
	if m.game != nil {
		m.game.Reset()
	}
	if m.channel != nil {
		if err := m.channel.Game().Leave(ctx); err != nil {
			m.logger.Warn("Game module leave failed", "error", err)
		}
	}
	if err := m.LeaveChannel(ctx); err != nil {
		m.logger.Warn("Leave channel failed", "error", err)
	}
	m.quickGame = false
	return m.EnterLobby(ctx)
}
