package match

import (
	"sort"

	"github.com/jjweiting/hackthon001/internal/model"
)

// EventKind names what happened in the match.
type EventKind string

const (
	EventPhase          EventKind = "phase"
	EventCountdown      EventKind = "countdown"
	EventArena          EventKind = "arena"
	EventTeams          EventKind = "teams"
	EventShot           EventKind = "shot"
	EventDamage         EventKind = "damage"
	EventDeath          EventKind = "death"
	EventKill           EventKind = "kill"
	EventRespawn        EventKind = "respawn"
	EventScore          EventKind = "score"
	EventPickup         EventKind = "pickup"
	EventResult         EventKind = "result"
	EventStartAvailable EventKind = "start-available"
	EventGameError      EventKind = "game-error"
)

// Event is one observable change, for HUDs and logs.
type Event struct {
	Seq      uint64     `json:"seq"`
	Kind     EventKind  `json:"kind"`
	Time     float64    `json:"time"`
	Phase    Phase      `json:"phase,omitempty"`
	Team     model.Team `json:"team,omitempty"`
	Score    int        `json:"score,omitempty"`
	Seconds  int        `json:"seconds,omitempty"`
	Actor    string     `json:"actor,omitempty"`
	Target   string     `json:"target,omitempty"`
	Weapon   string     `json:"weapon,omitempty"`
	Damage   float64    `json:"damage,omitempty"`
	Position model.Vec3 `json:"position,omitzero"`
	Reason   EndReason  `json:"reason,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

const eventLogSize = 256

// eventLog keeps the most recent events and forwards each to an optional sink.
type eventLog struct {
	seq    uint64
	events []Event
	sink   func(Event)
}

func (l *eventLog) emit(e Event) {
	l.seq++
	e.Seq = l.seq
	l.events = append(l.events, e)
	if len(l.events) > eventLogSize {
		l.events = l.events[len(l.events)-eventLogSize:]
	}
	if l.sink != nil {
		l.sink(e)
	}
}

func (l *eventLog) since(seq uint64) []Event {
	i := sort.Search(len(l.events), func(i int) bool { return l.events[i].Seq > seq })
	return append([]Event(nil), l.events[i:]...)
}

// Result is the outcome of a finished match. Winner is TeamNone on a draw.
type Result struct {
	Reason EndReason  `json:"reason"`
	Winner model.Team `json:"winner"`
	ScoreA int        `json:"scoreA"`
	ScoreB int        `json:"scoreB"`
}

// Snapshot is the queryable match state.
type Snapshot struct {
	Phase          Phase    `json:"phase"`
	ScoreA         int      `json:"scoreA"`
	ScoreB         int      `json:"scoreB"`
	TargetScore    int      `json:"targetScore"`
	TeamA          []string `json:"teamA"`
	TeamB          []string `json:"teamB"`
	MatchTime      float64  `json:"matchTime"`
	Remaining      float64  `json:"remaining"`
	Countdown      int      `json:"countdown"`
	RespawnIn      float64  `json:"respawnIn"`
	MapSeed        int64    `json:"mapSeed"`
	ArenaGenerated bool     `json:"arenaGenerated"`
	Obstacles      int      `json:"obstacles"`
	WeaponBoxes    int      `json:"weaponBoxes"`
	Local          *Player  `json:"local,omitempty"`
	Hidden         []string `json:"hidden"`
	Result         *Result  `json:"result,omitempty"`
	IsHost         bool     `json:"isHost"`
	Events         uint64   `json:"events"`
}
