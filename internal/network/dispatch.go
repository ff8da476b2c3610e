package network

import (
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/transport"
)

var _ transport.ChannelHandler = (*Manager)(nil)

// HandleMessage demultiplexes one channel message. Every branch tolerates
// duplicates and reordering.
func (m *Manager) HandleMessage(sender string, msg protocol.Message) {
	self := sender == m.opts.SessionID

	switch v := msg.(type) {
	case *protocol.TransformUpdate:
		if self {
			return
		}
		r := m.remote(sender)
		r.Profile = v.Profile
		r.Position = v.Position
		r.Rotation = v.Rotation
		r.State = v.Animation

	case *protocol.AnimationUpdate:
		if self {
			return
		}
		r := m.remote(sender)
		if r.Animation == nil {
			r.Animation = make(map[string]any, len(v.AnimationParams))
		}
		for k, val := range v.AnimationParams {
			r.Animation[k] = val
		}

	case *protocol.ActorLeaveChannel:
		if self {
			return
		}
		if m.purgeRemote(sender) {
			m.logger.Info("Remote actor left channel", "remote", sender)
		}

	case *protocol.MapInit:
		if m.game != nil {
			m.game.HandleMapInit(v.Seed)
		}
	case *protocol.MapConfig:
		if m.game != nil {
			m.game.HandleMapConfig(v.MapConfig)
		}
	case *protocol.PlayerShoot:
		if v.PlayerID == "" {
			v.PlayerID = sender
		}
		if m.game != nil {
			m.game.HandlePlayerShoot(v)
		}
	case *protocol.PlayerHit:
		if m.game != nil {
			m.game.HandlePlayerHit(v)
		}
	case *protocol.PlayerKilled:
		if m.game != nil {
			m.game.HandlePlayerKilled(v)
		}
	case *protocol.ScoreUpdate:
		if m.game != nil {
			m.game.HandleScoreUpdate(v)
		}
	case *protocol.WeaponPickup:
		if m.game != nil {
			m.game.HandleWeaponPickup(v)
		}
	case *protocol.TeamAssignment:
		if m.game != nil {
			m.game.HandleTeamAssignment(v)
		}

	case *protocol.Unknown:
		m.logger.Warn("Unknown message type dropped", "type", v.Kind, "sender", sender)
	default:
		m.logger.Warn("Unhandled message dropped", "type", msg.Type(), "sender", sender)
	}
}

// HandleNotification records game module state and forwards the
// notification to the game.
func (m *Manager) HandleNotification(n protocol.Notification) {
	switch v := n.(type) {
	case *protocol.WaitForPlayers:
		m.wait = m.waitStatus(v)
		m.logger.Info("Waiting for players", "joined", m.wait.Joined, "expected", m.wait.Expected)
	case *protocol.AllPlayersReady:
		m.wait.Remaining = 0
	case *protocol.MasterNotify:
		m.masterID = v.MasterID
	case *protocol.GameError:
		m.gameError = v
		m.logger.Warn("Game module error", "kind", v.Kind, "message", v.Message)
	case *protocol.CountdownStart:
		m.gameError = nil
	}

	if m.game != nil {
		m.game.HandleNotification(n)
	}
}

// waitStatus prefers the room roster size as the expected player count.
func (m *Manager) waitStatus(n *protocol.WaitForPlayers) WaitStatus {
	joined := len(n.PlayerIDs)
	expected := n.Expected
	if room := m.rooms.CurrentRoom(); room != nil && len(room.Actors) > 0 {
		expected = len(room.Actors)
	}
	if expected <= 0 {
		expected = joined
	}
	return WaitStatus{
		Joined:    joined,
		Expected:  expected,
		Remaining: max(0, expected-joined),
	}
}
