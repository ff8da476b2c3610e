// Package network moves a peer between the lobby and game channels and
// demultiplexes everything the relay delivers.
//
// A Manager is not safe for concurrent use. The peer runtime calls it from a
// single loop, and every transport callback is posted into that loop.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
	"github.com/jjweiting/hackthon001/internal/transport"
)

// SessionPrefix starts every generated session id.
const SessionPrefix = "player-session-"

// NewSessionID returns a fresh peer identity.
func NewSessionID() string {
	return SessionPrefix + uuid.NewString()
}

// LobbyChannel is the shared lobby channel for an application.
func LobbyChannel(appID string) string {
	return "lobby-" + orDefault(appID)
}

// QuickGameChannel is the shared game channel used when matchmaking is skipped.
func QuickGameChannel(appID string) string {
	return "battle-game-" + orDefault(appID)
}

func orDefault(appID string) string {
	if appID == "" {
		return "default"
	}
	return appID
}

// HostPolicy picks which roster member acts as host.
type HostPolicy string

const (
	// HostCreator makes the room creator the host. No failover if it leaves.
	HostCreator HostPolicy = "creator"
	// HostLowestSession derives the host from the live roster on every call.
	HostLowestSession HostPolicy = "lowest-session"
)

// Game receives the gameplay traffic the manager does not own itself.
type Game interface {
	HandleMapInit(seed int64)
	HandleMapConfig(doc *arena.MapConfig)
	HandlePlayerShoot(msg *protocol.PlayerShoot)
	HandlePlayerHit(msg *protocol.PlayerHit)
	HandlePlayerKilled(msg *protocol.PlayerKilled)
	HandleScoreUpdate(msg *protocol.ScoreUpdate)
	HandleWeaponPickup(msg *protocol.WeaponPickup)
	HandleTeamAssignment(msg *protocol.TeamAssignment)
	HandleNotification(n protocol.Notification)
	AssignTeams(actors []model.Actor)
	GenerateAndBroadcastDynamicArena() bool
	Reset()
}

type Options struct {
	AppID               string
	SessionID           string
	DisplayName         string
	RebroadcastInterval int // seconds
	RebroadcastTimes    int
	HostPolicy          HostPolicy
	QuickGame           bool
	GameOptions         protocol.GameOptions
	IOTimeout           time.Duration
	// Seed picks the host's arena seed. Nil draws a random positive seed.
	Seed func() int64
	Now  func() time.Time
}

// OptionsFromConfig builds Options from the app, network and game module sections.
func OptionsFromConfig(cfg *config.Config, sessionID string) Options {
	return Options{
		AppID:               cfg.App.AppID,
		SessionID:           sessionID,
		DisplayName:         cfg.App.PlayerName,
		RebroadcastInterval: cfg.Network.RebroadcastInterval,
		RebroadcastTimes:    cfg.Network.RebroadcastTimes,
		HostPolicy:          HostPolicy(cfg.Network.HostPolicy),
		QuickGame:           cfg.Network.QuickGame,
		GameOptions: protocol.GameOptions{
			ReadySeconds:      cfg.GameModule.ReadySeconds,
			PlaySeconds:       cfg.GameModule.PlaySeconds,
			MinPlayers:        cfg.GameModule.MinPlayers,
			MaxPlayers:        cfg.GameModule.MaxPlayers,
			WaitPlayerTimeout: cfg.GameModule.WaitPlayerTimeout,
		},
	}
}

func (o Options) withDefaults() Options {
	if o.SessionID == "" {
		o.SessionID = NewSessionID()
	}
	if o.RebroadcastInterval <= 0 {
		o.RebroadcastInterval = 1
	}
	if o.RebroadcastTimes <= 0 {
		o.RebroadcastTimes = 2
	}
	if o.HostPolicy == "" {
		o.HostPolicy = HostCreator
	}
	if o.IOTimeout <= 0 {
		o.IOTimeout = 5 * time.Second
	}
	if o.Seed == nil {
		o.Seed = func() int64 { return rand.Int64N(1_000_000_000) + 1 }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// WaitStatus is the latest wait-for-players report.
type WaitStatus struct {
	Joined    int `json:"joined"`
	Expected  int `json:"expected"`
	Remaining int `json:"remaining"`
}

type Manager struct {
	dialer  transport.ChannelDialer
	rooms   transport.Matchmaker
	timer   task.Timer
	opts    Options
	handler transport.ChannelHandler
	game    Game
	logger  *slog.Logger

	channel   transport.Channel
	quickGame bool
	remotes   map[string]*RemoteActor
	roomList  []model.Room

	mapInit   *task.Handle
	mapConfig *task.Handle

	wait      WaitStatus
	masterID  string
	gameError *protocol.GameError
}

func New(dialer transport.ChannelDialer, rooms transport.Matchmaker, timer task.Timer, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		dialer:    dialer,
		rooms:     rooms,
		timer:     timer,
		opts:      opts,
		quickGame: opts.QuickGame,
		remotes:   make(map[string]*RemoteActor),
		logger:    slog.Default().With("component", "network", "sessionId", opts.SessionID),
	}
	m.handler = m
	return m
}

// SetChannelHandler replaces the handler given to joined channels. The peer
// runtime uses it to route deliveries through its loop.
func (m *Manager) SetChannelHandler(h transport.ChannelHandler) {
	if h == nil {
		h = m
	}
	m.handler = h
}

func (m *Manager) SetGame(g Game) {
	m.game = g
}

func (m *Manager) SessionID() string {
	return m.opts.SessionID
}

func (m *Manager) Actor() model.Actor {
	return model.Actor{SessionID: m.opts.SessionID, Name: m.opts.DisplayName}
}

// CurrentChannel is the joined channel id, empty when disconnected.
func (m *Manager) CurrentChannel() string {
	if m.channel == nil {
		return ""
	}
	return m.channel.ID()
}

func (m *Manager) QuickGame() bool {
	return m.quickGame
}

// CurrentRoom is the matchmaking room the peer sits in, nil in the lobby.
func (m *Manager) CurrentRoom() *model.Room {
	return m.rooms.CurrentRoom()
}

func (m *Manager) ioContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.IOTimeout)
}

// Connect registers the peer with matchmaking and enters the lobby.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.rooms.SetActor(ctx, m.Actor()); err != nil {
		return fmt.Errorf("register actor: %w", err)
	}
	return m.EnterLobby(ctx)
}

// EnterLobby leaves the current channel and room and joins the lobby
// channel. In quick game mode it joins the shared game channel instead.
func (m *Manager) EnterLobby(ctx context.Context) error {
	if m.quickGame {
		if err := m.LeaveChannel(ctx); err != nil {
			m.logger.Warn("Leave channel failed", "error", err)
		}
		id := QuickGameChannel(m.opts.AppID)
		m.logger.Info("Quick game, entering game channel", "channel", id)
		if err := m.EnterChannel(ctx, id); err != nil {
			return err
		}
		m.joinGame(ctx)
		return nil
	}

	if err := m.LeaveChannel(ctx); err != nil {
		m.logger.Warn("Leave channel failed", "error", err)
	}
	if err := m.rooms.LeaveRoom(ctx); err != nil && !errors.Is(err, transport.ErrNotInRoom) {
		m.logger.Warn("Leave room failed", "error", err)
	}

	id := LobbyChannel(m.opts.AppID)
	if err := m.EnterChannel(ctx, id); err != nil {
		return err
	}
	m.logger.Info("Entered lobby", "channel", id)
	return nil
}

// EnterChannel joins id, leaving any other channel first. Joining the
// current channel again does nothing.
func (m *Manager) EnterChannel(ctx context.Context, id string) error {
	if m.channel != nil && m.channel.ID() == id {
		return nil
	}
	if m.channel != nil {
		if err := m.LeaveChannel(ctx); err != nil {
			m.logger.Warn("Leave channel failed", "error", err)
		}
	}

	ch, err := m.dialer.Join(ctx, id, m.opts.SessionID, m.handler)
	if err != nil {
		return fmt.Errorf("join channel %s: %w", id, err)
	}
	m.channel = ch
	m.logger.Debug("Entered channel", "channel", id)
	return nil
}

// LeaveChannel announces the departure, stops rebroadcasts, forgets every
// remote actor and closes the channel.
func (m *Manager) LeaveChannel(ctx context.Context) error {
	if m.channel != nil {
		m.Send(&protocol.ActorLeaveChannel{})
	}

	m.mapInit.Cancel()
	m.mapConfig.Cancel()
	m.mapInit, m.mapConfig = nil, nil

	for id := range m.remotes {
		m.purgeRemote(id)
	}
	m.wait = WaitStatus{}
	m.masterID = ""

	ch := m.channel
	m.channel = nil
	if ch == nil {
		return nil
	}
	if err := ch.Close(ctx); err != nil {
		return fmt.Errorf("close channel %s: %w", ch.ID(), err)
	}
	return nil
}

// Send broadcasts msg on the current channel. Without a channel the message
// is dropped with a warning; nothing is queued or retried.
func (m *Manager) Send(msg protocol.Message) {
	if m.channel == nil {
		m.logger.Warn("No channel, message dropped", "type", msg.Type())
		return
	}
	ctx, cancel := m.ioContext()
	defer cancel()
	if err := m.channel.Send(ctx, msg); err != nil {
		m.logger.Warn("Send failed", "type", msg.Type(), "channel", m.channel.ID(), "error", err)
	}
}

// IsHost reports whether this peer is the host under the configured policy.
// It is derived on every call, never stored.
func (m *Manager) IsHost() bool {
	room := m.rooms.CurrentRoom()
	if room == nil {
		if !m.quickGame || m.channel == nil {
			return false
		}
		ids := make([]string, 0, len(m.remotes)+1)
		ids = append(ids, m.opts.SessionID)
		for id := range m.remotes {
			ids = append(ids, id)
		}
		return lowest(ids) == m.opts.SessionID
	}

	if m.opts.HostPolicy == HostLowestSession {
		ids := make([]string, 0, len(room.Actors))
		for _, a := range room.Actors {
			ids = append(ids, a.SessionID)
		}
		return lowest(ids) == m.opts.SessionID
	}
	return room.CreatedBy(m.opts.SessionID)
}

func lowest(ids []string) string {
	best := ""
	for _, id := range ids {
		if best == "" || id < best {
			best = id
		}
	}
	return best
}

func (m *Manager) joinGame(ctx context.Context) {
	if m.channel == nil {
		return
	}
	if err := m.channel.Game().Join(ctx, m.opts.GameOptions); err != nil {
		m.logger.Warn("Game module join failed", "channel", m.channel.ID(), "error", err)
	}
}

// WaitStatus is the last wait-for-players report.
func (m *Manager) WaitStatus() WaitStatus {
	return m.wait
}

// MasterID is the game module's master, empty until announced.
func (m *Manager) MasterID() string {
	return m.masterID
}

// LastGameError is the latest game module error, cleared by a countdown start.
func (m *Manager) LastGameError() *protocol.GameError {
	return m.gameError
}
