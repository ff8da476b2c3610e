// Package gamemodule runs the per-channel countdown and match timers that
// peers drive through game requests.
package gamemodule

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
)

// Phase is the lifecycle of one channel's game session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseEnded     Phase = "ended"
)

// Notifier delivers notifications to a channel's members.
type Notifier interface {
	Publish(channelID string, n protocol.Notification) error
}

type session struct {
	channel   string
	opts      protocol.GameOptions
	players   []string
	phase     Phase
	countdown *task.Handle
	timeUp    *task.Handle
}

func (s *session) has(sessionID string) bool {
	for _, p := range s.players {
		if p == sessionID {
			return true
		}
	}
	return false
}

func (s *session) cancelTimers() {
	s.countdown.Cancel()
	s.timeUp.Cancel()
	s.countdown, s.timeUp = nil, nil
}

// SessionInfo is a read-only view of one session.
type SessionInfo struct {
	Channel string   `json:"channel"`
	Players []string `json:"players"`
	Phase   Phase    `json:"phase"`
}

// Service owns every channel's game session.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	notifier Notifier
	timer    task.Timer
	defaults protocol.GameOptions
	logger   *slog.Logger
}

// DefaultsFromConfig maps the game_module config section onto request options.
func DefaultsFromConfig(cfg config.GameModuleConfig) protocol.GameOptions {
	return protocol.GameOptions{
		ReadySeconds:      cfg.ReadySeconds,
		PlaySeconds:       cfg.PlaySeconds,
		MinPlayers:        cfg.MinPlayers,
		MaxPlayers:        cfg.MaxPlayers,
		WaitPlayerTimeout: cfg.WaitPlayerTimeout,
	}
}

func NewService(notifier Notifier, timer task.Timer, defaults protocol.GameOptions) *Service {
	return &Service{
		sessions: make(map[string]*session),
		notifier: notifier,
		timer:    timer,
		defaults: defaults,
		logger:   slog.Default().With("component", "gamemodule"),
	}
}

func (s *Service) HandleGameRequest(_ context.Context, req *protocol.GameRequest) {
	if req == nil || req.Channel == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Action {
	case protocol.ActionJoin:
		s.join(req)
	case protocol.ActionLeave:
		s.leave(req)
	case protocol.ActionStart:
		s.start(req)
	case protocol.ActionEnd:
		s.end(req)
	case protocol.ActionRestart:
		s.restart(req)
	default:
		s.logger.Warn("Unknown game action", "action", req.Action, "channel", req.Channel)
	}
}

// Session returns the current state of channel's session.
func (s *Service) Session(channel string) (SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[channel]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		Channel: sess.channel,
		Players: append([]string(nil), sess.players...),
		Phase:   sess.phase,
	}, true
}

// Count is the number of live sessions.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) join(req *protocol.GameRequest) {
	sess, ok := s.sessions[req.Channel]
	if !ok {
		sess = &session{channel: req.Channel, opts: s.merge(req.Options), phase: PhaseIdle}
		s.sessions[req.Channel] = sess
	}
	if sess.has(req.SessionID) {
		return
	}
	if sess.opts.MaxPlayers > 0 && len(sess.players) >= sess.opts.MaxPlayers {
		s.notify(sess, &protocol.GameError{Kind: "session_full"})
		return
	}

	sess.players = append(sess.players, req.SessionID)
	players := append([]string(nil), sess.players...)
	s.logger.Info("Player joined game session", "channel", sess.channel, "session", req.SessionID, "players", len(players))

	s.notify(sess, &protocol.WaitForPlayers{PlayerIDs: players, Expected: sess.opts.MinPlayers})
	if len(players) >= sess.opts.MinPlayers {
		s.notify(sess, &protocol.AllPlayersReady{PlayerIDs: players})
		s.notify(sess, &protocol.MasterNotify{MasterID: players[0]})
	}
}

func (s *Service) leave(req *protocol.GameRequest) {
	sess, ok := s.sessions[req.Channel]
	if !ok {
		return
	}
	for i, p := range sess.players {
		if p == req.SessionID {
			sess.players = append(sess.players[:i], sess.players[i+1:]...)
			break
		}
	}
	if len(sess.players) == 0 {
		sess.cancelTimers()
		delete(s.sessions, req.Channel)
		s.logger.Info("Game session closed", "channel", req.Channel)
		return
	}
	s.notify(sess, &protocol.MasterNotify{MasterID: sess.players[0]})
}

func (s *Service) start(req *protocol.GameRequest) {
	sess, ok := s.sessions[req.Channel]
	if !ok || len(sess.players) < sess.opts.MinPlayers {
		target := sess
		if target == nil {
			target = &session{channel: req.Channel}
		}
		s.notify(target, &protocol.GameError{Kind: protocol.GameErrorNotAllPlayersReady})
		return
	}
	if sess.phase == PhaseCountdown || sess.phase == PhasePlaying {
		return
	}

	sess.phase = PhaseCountdown
	ready, play := sess.opts.ReadySeconds, sess.opts.PlaySeconds
	s.notify(sess, &protocol.CountdownStart{Seconds: ready})

	channel := sess.channel
	sess.countdown = task.After(s.timer, "game:"+channel+":countdown", ready, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		cur, ok := s.sessions[channel]
		if !ok || cur != sess || cur.phase != PhaseCountdown {
			return
		}
		cur.phase = PhasePlaying
		s.notify(cur, &protocol.CountdownEnd{PlaySeconds: play})

		cur.timeUp = task.After(s.timer, "game:"+channel+":timeup", play, func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if cur.phase != PhasePlaying {
				return
			}
			cur.phase = PhaseEnded
			s.notify(cur, &protocol.TimeUp{})
		})
	})
	s.logger.Info("Game countdown started", "channel", channel, "ready", ready, "play", play)
}

func (s *Service) end(req *protocol.GameRequest) {
	sess, ok := s.sessions[req.Channel]
	if !ok || sess.phase == PhaseEnded {
		return
	}
	sess.cancelTimers()
	sess.phase = PhaseEnded
	s.notify(sess, &protocol.GameEnd{})
}

func (s *Service) restart(req *protocol.GameRequest) {
	sess, ok := s.sessions[req.Channel]
	if !ok {
		return
	}
	sess.cancelTimers()
	sess.phase = PhaseIdle
	s.notify(sess, &protocol.GameRestart{})
}

func (s *Service) merge(opts *protocol.GameOptions) protocol.GameOptions {
	out := s.defaults
	if opts == nil {
		return out
	}
	if opts.ReadySeconds > 0 {
		out.ReadySeconds = opts.ReadySeconds
	}
	if opts.PlaySeconds > 0 {
		out.PlaySeconds = opts.PlaySeconds
	}
	if opts.MinPlayers > 0 {
		out.MinPlayers = opts.MinPlayers
	}
	if opts.MaxPlayers > 0 {
		out.MaxPlayers = opts.MaxPlayers
	}
	if opts.WaitPlayerTimeout > 0 {
		out.WaitPlayerTimeout = opts.WaitPlayerTimeout
	}
	return out
}

func (s *Service) notify(sess *session, n protocol.Notification) {
	if err := s.notifier.Publish(sess.channel, n); err != nil {
		s.logger.Warn("Failed to notify channel", "channel", sess.channel, "type", n.NotificationType(), "error", err)
	}
}
