// Package peer runs one player: the network manager, the match coordinator
// and the arena, all driven from a single loop.
//
// Transport callbacks, timer firings and frame ticks are posted into the
// loop; the exported methods are safe to call from any goroutine.
package peer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/match"
	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/network"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
	"github.com/jjweiting/hackthon001/internal/transport"
)

var (
	_ network.Game  = (*match.Coordinator)(nil)
	_ match.Network = (*network.Manager)(nil)
)

type Options struct {
	Network network.Options
	Match   match.Options
	Arena   arena.Options
	// TickRate is the match clock frequency in frames per second.
	TickRate int
	// InboxSize bounds the loop queue. Zero uses 1024.
	InboxSize int
}

// OptionsFromConfig assembles peer options from every config section.
func OptionsFromConfig(cfg *config.Config, sessionID string) Options {
	return Options{
		Network:  network.OptionsFromConfig(cfg, sessionID),
		Match:    match.OptionsFromConfig(cfg.Match),
		Arena:    arena.OptionsFromConfig(cfg.Arena),
		TickRate: cfg.Network.TickRate,
	}
}

// State is everything a control surface shows about the peer.
type State struct {
	SessionID string                `json:"sessionId"`
	Channel   string                `json:"channel"`
	QuickGame bool                  `json:"quickGame"`
	Room      *model.Room           `json:"room,omitempty"`
	Remotes   []network.RemoteActor `json:"remotes"`
	Wait      network.WaitStatus    `json:"wait"`
	MasterID  string                `json:"masterId,omitempty"`
	GameError *protocol.GameError   `json:"gameError,omitempty"`
	Match     match.Snapshot        `json:"match"`
}

type Peer struct {
	opts   Options
	loop   *Loop
	rooms  transport.Matchmaker
	net    *network.Manager
	match  *match.Coordinator
	arena  *arena.Generator
	local  *match.StaticEntity
	stop   func()
	logger *slog.Logger

	started atomic.Bool
}

// New wires a peer. timer is shared and may serve other peers; firings are
// moved into this peer's loop.
func New(dialer transport.ChannelDialer, rooms transport.Matchmaker, timer task.Timer, opts Options) *Peer {
	if opts.TickRate <= 0 {
		opts.TickRate = 20
	}
	loop := NewLoop(opts.InboxSize)
	st := serialTimer{timer: timer, loop: loop}

	mgr := network.New(dialer, rooms, st, opts.Network)
	gen := arena.NewGenerator(opts.Arena, nil)
	coord := match.NewCoordinator(opts.Match, mgr, gen, st)
	mgr.SetGame(coord)

	in := newInbound(loop, mgr, mgr)
	mgr.SetChannelHandler(in)

	p := &Peer{
		opts:   opts,
		loop:   loop,
		rooms:  rooms,
		net:    mgr,
		match:  coord,
		arena:  gen,
		local:  &match.StaticEntity{},
		logger: slog.Default().With("component", "peer", "sessionId", mgr.SessionID()),
	}
	coord.SetLocalPlayer(p.local)
	coord.SetEventSink(p.logEvent)
	p.stop = rooms.Watch(in)
	return p
}

func (p *Peer) logEvent(e match.Event) {
	p.logger.Debug("Match event", "seq", e.Seq, "kind", e.Kind, "phase", e.Phase,
		"actor", e.Actor, "target", e.Target)
}

// SessionID is the immutable identity of this peer.
func (p *Peer) SessionID() string {
	return p.net.SessionID()
}

// Start launches the loop and connects to matchmaking and the lobby.
func (p *Peer) Start(ctx context.Context) error {
	if p.started.Swap(true) {
		return errors.New("peer already started")
	}
	go p.loop.Run()
	return p.loop.Call(ctx, func() error {
		return p.net.Connect(ctx)
	})
}

// Run starts the peer and ticks the match clock at the configured rate
// until ctx is done.
func (p *Peer) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	p.logger.Info("Peer running", "tickRate", p.opts.TickRate)

	ticker := time.NewTicker(time.Second / time.Duration(p.opts.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			p.Tick(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Tick advances the match clock by dt seconds.
func (p *Peer) Tick(dt float64) {
	p.loop.Post(func() { p.match.Update(dt) })
}

// Sync returns once everything posted before it has run.
func (p *Peer) Sync(ctx context.Context) error {
	return p.loop.Call(ctx, func() error { return nil })
}

// Close leaves the current channel, stops watching matchmaking and stops
// the loop.
func (p *Peer) Close(ctx context.Context) error {
	var err error
	if p.started.Load() {
		err = p.loop.Call(ctx, func() error {
			return p.net.LeaveChannel(ctx)
		})
		if errors.Is(err, ErrLoopStopped) {
			err = nil
		}
	}
	p.stop()
	if cerr := p.rooms.Close(); cerr != nil && err == nil {
		err = cerr
	}
	p.loop.Stop()
	return err
}

func (p *Peer) CreateRoom(ctx context.Context, opts model.RoomOptions) (*model.Room, error) {
	var room *model.Room
	err := p.loop.Call(ctx, func() error {
		var err error
		room, err = p.net.CreateRoom(ctx, opts)
		return err
	})
	return room, err
}

func (p *Peer) JoinRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room *model.Room
	err := p.loop.Call(ctx, func() error {
		var err error
		room, err = p.net.JoinRoom(ctx, roomID)
		return err
	})
	return room, err
}

func (p *Peer) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := p.loop.Call(ctx, func() error {
		var err error
		rooms, err = p.net.ListRooms(ctx)
		return err
	})
	return rooms, err
}

// StartGame closes the current room and moves everyone into its channel.
func (p *Peer) StartGame(ctx context.Context) error {
	return p.loop.Call(ctx, func() error {
		return p.net.StartGame(ctx)
	})
}

// StartMatch builds the arena when hosting and asks the game module to
// begin the countdown.
func (p *Peer) StartMatch(ctx context.Context) error {
	return p.loop.Call(ctx, func() error {
		return p.net.StartMatch(ctx)
	})
}

// LeaveMatch abandons the match and returns to the lobby.
func (p *Peer) LeaveMatch(ctx context.Context) error {
	return p.loop.Call(ctx, func() error {
		p.match.EndMatch(match.ReasonLeft)
		return p.net.LeaveGameAndEnterLobby(ctx)
	})
}

// PlayAgain asks for another round after a finished match. Host only.
func (p *Peer) PlayAgain(ctx context.Context) error {
	return p.loop.Call(ctx, func() error {
		return p.match.PlayAgain()
	})
}

// Fire shoots at targetID; an empty target is a miss.
func (p *Peer) Fire(ctx context.Context, targetID string) (match.Shot, error) {
	var shot match.Shot
	err := p.loop.Call(ctx, func() error {
		var err error
		shot, err = p.match.Fire(targetID)
		return err
	})
	return shot, err
}

func (p *Peer) Pickup(ctx context.Context, boxName string) error {
	return p.loop.Call(ctx, func() error {
		return p.match.PickupWeapon(boxName)
	})
}

// Move sets the local position and broadcasts it to the channel.
func (p *Peer) Move(ctx context.Context, pos model.Vec3, rot model.Quat) error {
	return p.loop.Call(ctx, func() error {
		p.local.SetPosition(pos)
		p.net.Send(&protocol.TransformUpdate{
			Profile:  protocol.Profile{DisplayName: p.net.Actor().Name},
			Position: pos,
			Rotation: rot,
		})
		return nil
	})
}

func (p *Peer) State(ctx context.Context) (State, error) {
	var s State
	err := p.loop.Call(ctx, func() error {
		s = State{
			SessionID: p.net.SessionID(),
			Channel:   p.net.CurrentChannel(),
			QuickGame: p.net.QuickGame(),
			Room:      p.net.CurrentRoom(),
			Remotes:   p.net.Remotes(),
			Wait:      p.net.WaitStatus(),
			MasterID:  p.net.MasterID(),
			GameError: p.net.LastGameError(),
			Match:     p.match.Snapshot(),
		}
		return nil
	})
	return s, err
}

// Events returns match events with a sequence number above since.
func (p *Peer) Events(ctx context.Context, since uint64) ([]match.Event, error) {
	var events []match.Event
	err := p.loop.Call(ctx, func() error {
		events = p.match.Events(since)
		return nil
	})
	return events, err
}

// Arena returns a copy of the live arena document.
func (p *Peer) Arena(ctx context.Context) (*arena.MapConfig, error) {
	var doc *arena.MapConfig
	err := p.loop.Call(ctx, func() error {
		doc = p.arena.ExportMapConfig()
		return nil
	})
	return doc, err
}
