package protocol

// GameAction is what a peer asks of the game module service.
type GameAction string

const (
	ActionJoin    GameAction = "join"
	ActionLeave   GameAction = "leave"
	ActionStart   GameAction = "start"
	ActionEnd     GameAction = "end"
	ActionRestart GameAction = "restart"
)

// GameOptions configures a channel's game session. Zero fields fall back to
// the service defaults.
type GameOptions struct {
	ReadySeconds      int `json:"readySeconds,omitempty"`
	PlaySeconds       int `json:"playSeconds,omitempty"`
	MinPlayers        int `json:"minPlayers,omitempty"`
	MaxPlayers        int `json:"maxPlayers,omitempty"`
	WaitPlayerTimeout int `json:"waitPlayerTimeout,omitempty"`
}

// GameRequest is published by peers to the game module service.
type GameRequest struct {
	Action    GameAction   `json:"action"`
	Channel   string       `json:"channel"`
	SessionID string       `json:"sessionId"`
	Options   *GameOptions `json:"options,omitempty"`
}
