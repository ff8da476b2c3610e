package protocol

import (
	"encoding/json"
	"fmt"
)

// NotificationType names a game module lifecycle event.
type NotificationType string

const (
	NotifyCountdownStart  NotificationType = "countdown-start"
	NotifyCountdownEnd    NotificationType = "countdown-end"
	NotifyTimeUp          NotificationType = "time-up"
	NotifyGameEnd         NotificationType = "game-end"
	NotifyGameRestart     NotificationType = "game-restart"
	NotifyGameError       NotificationType = "game-error"
	NotifyWaitForPlayers  NotificationType = "wait-for-players"
	NotifyAllPlayersReady NotificationType = "all-players-ready"
	NotifyMasterNotify    NotificationType = "master-notify"
)

// Game module error kinds.
const (
	GameErrorNotAllPlayersReady = "not_all_players_ready"
	GameErrorNotStarted         = "game_not_started"
)

// Notification is the closed set of lifecycle events a channel's game
// module delivers. They never travel on the generic message bus.
type Notification interface {
	NotificationType() NotificationType
	isNotification()
}

type CountdownStart struct {
	Seconds int `json:"seconds"`
}

type CountdownEnd struct {
	PlaySeconds int `json:"playSeconds"`
}

type TimeUp struct{}

type GameEnd struct{}

type GameRestart struct{}

type GameError struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// WaitForPlayers reports who has joined the game session so far.
type WaitForPlayers struct {
	PlayerIDs []string `json:"playerIds"`
	Expected  int      `json:"expected"`
}

type AllPlayersReady struct {
	PlayerIDs []string `json:"playerIds"`
}

// MasterNotify names the player the game module considers master.
type MasterNotify struct {
	MasterID string `json:"masterId"`
}

func (*CountdownStart) NotificationType() NotificationType  { return NotifyCountdownStart }
func (*CountdownEnd) NotificationType() NotificationType    { return NotifyCountdownEnd }
func (*TimeUp) NotificationType() NotificationType          { return NotifyTimeUp }
func (*GameEnd) NotificationType() NotificationType         { return NotifyGameEnd }
func (*GameRestart) NotificationType() NotificationType     { return NotifyGameRestart }
func (*GameError) NotificationType() NotificationType       { return NotifyGameError }
func (*WaitForPlayers) NotificationType() NotificationType  { return NotifyWaitForPlayers }
func (*AllPlayersReady) NotificationType() NotificationType { return NotifyAllPlayersReady }
func (*MasterNotify) NotificationType() NotificationType    { return NotifyMasterNotify }

func (*CountdownStart) isNotification()  {}
func (*CountdownEnd) isNotification()    {}
func (*TimeUp) isNotification()          {}
func (*GameEnd) isNotification()         {}
func (*GameRestart) isNotification()     {}
func (*GameError) isNotification()       {}
func (*WaitForPlayers) isNotification()  {}
func (*AllPlayersReady) isNotification() {}
func (*MasterNotify) isNotification()    {}

var notificationFactories = map[NotificationType]func() Notification{
	NotifyCountdownStart:  func() Notification { return &CountdownStart{} },
	NotifyCountdownEnd:    func() Notification { return &CountdownEnd{} },
	NotifyTimeUp:          func() Notification { return &TimeUp{} },
	NotifyGameEnd:         func() Notification { return &GameEnd{} },
	NotifyGameRestart:     func() Notification { return &GameRestart{} },
	NotifyGameError:       func() Notification { return &GameError{} },
	NotifyWaitForPlayers:  func() Notification { return &WaitForPlayers{} },
	NotifyAllPlayersReady: func() Notification { return &AllPlayersReady{} },
	NotifyMasterNotify:    func() Notification { return &MasterNotify{} },
}

type notificationEnvelope struct {
	Type    NotificationType `json:"type"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

// EncodeNotification frames a lifecycle event for the game event subject.
func EncodeNotification(n Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil notification", ErrMalformedNotification)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notificationEnvelope{Type: n.NotificationType(), Payload: payload})
}

// DecodeNotification parses a framed lifecycle event.
func DecodeNotification(data []byte) (Notification, error) {
	var env notificationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}

	factory, ok := notificationFactories[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotification, env.Type)
	}

	n := factory()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, n); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedNotification, env.Type, err)
		}
	}
	return n, nil
}
