package model

import "time"

// Actor is one peer as seen by matchmaking.
type Actor struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// Room is a matchmaking-level grouping. Actors keep join order; the order
// drives team assignment on every peer.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Mode        string    `json:"mode"`
	CreatorID   string    `json:"creator_id"`
	Actors      []Actor   `json:"actors"`
	MaxPlayers  int       `json:"max_players"`
	MinPlayers  int       `json:"min_players"`
	Closed      bool      `json:"is_closed"`
	GameStarted bool      `json:"is_game_started"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomOptions are the caller-supplied parameters of a new room.
type RoomOptions struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	MaxPlayers int    `json:"max_players"`
	MinPlayers int    `json:"min_players"`
}

// WithDefaults fills unset fields: mode solo, 4 max, 1 min.
func (o RoomOptions) WithDefaults() RoomOptions {
	if o.Mode == "" {
		o.Mode = "solo"
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = 4
	}
	if o.MinPlayers <= 0 {
		o.MinPlayers = 1
	}
	if o.MinPlayers > o.MaxPlayers {
		o.MinPlayers = o.MaxPlayers
	}
	return o
}

// CreatedBy reports whether sessionID created the room.
func (r *Room) CreatedBy(sessionID string) bool {
	return r != nil && sessionID != "" && r.CreatorID == sessionID
}

// HasActor reports whether sessionID is on the roster.
func (r *Room) HasActor(sessionID string) bool {
	return r.ActorIndex(sessionID) >= 0
}

// ActorIndex returns the roster position of sessionID, -1 if absent.
func (r *Room) ActorIndex(sessionID string) int {
	if r == nil {
		return -1
	}
	for i, a := range r.Actors {
		if a.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// IsFull reports whether no more actors can join.
func (r *Room) IsFull() bool {
	return r.MaxPlayers > 0 && len(r.Actors) >= r.MaxPlayers
}

// Joinable reports whether the room still accepts actors.
func (r *Room) Joinable() bool {
	return !r.Closed && !r.GameStarted && !r.IsFull()
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Actors = append([]Actor(nil), r.Actors...)
	return &c
}
