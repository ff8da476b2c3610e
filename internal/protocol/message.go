package protocol

import (
	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/model"
)

// MessageType is the discriminator carried in every channel message.
type MessageType string

const (
	TypeTransformUpdate   MessageType = "transform-update"
	TypeAnimationUpdate   MessageType = "animation-update"
	TypeActorLeaveChannel MessageType = "actor-leave-channel"
	TypeMapInit           MessageType = "map-init"
	TypeMapConfig         MessageType = "map-config"
	TypePlayerShoot       MessageType = "player-shoot"
	TypePlayerHit         MessageType = "player-hit"
	TypePlayerKilled      MessageType = "player-killed"
	TypeScoreUpdate       MessageType = "score-update"
	TypeWeaponPickup      MessageType = "weapon-pickup"
	TypeTeamAssignment    MessageType = "team-assignment"
)

// Message is the closed set of payloads exchanged over a channel.
type Message interface {
	Type() MessageType
	isMessage()
}

// Profile is the display data attached to pose updates.
type Profile struct {
	DisplayName   string  `json:"displayName,omitempty"`
	AvatarURL     string  `json:"avatarUrl,omitempty"`
	NameTagHeight float64 `json:"nameTagHeight,omitempty"`
}

// TransformUpdate is the periodic pose of a remote peer.
type TransformUpdate struct {
	Profile   Profile    `json:"profile"`
	Position  model.Vec3 `json:"position"`
	Rotation  model.Quat `json:"rotation"`
	Animation string     `json:"animation,omitempty"`
}

// AnimationUpdate carries animation parameter deltas.
type AnimationUpdate struct {
	AnimationParams map[string]any `json:"animationParams"`
}

// ActorLeaveChannel announces a voluntary departure. It has no payload.
type ActorLeaveChannel struct{}

// MapInit is the host seed for static arena generation.
type MapInit struct {
	Seed int64 `json:"seed"`
}

// MapConfig is the host reconciliation document.
type MapConfig struct {
	MapConfig *arena.MapConfig `json:"mapConfig"`
}

// PlayerShoot is a fire event, used for remote effects only.
type PlayerShoot struct {
	PlayerID   string     `json:"playerId"`
	Direction  model.Vec3 `json:"direction"`
	WeaponType string     `json:"weaponType"`
	Position   model.Vec3 `json:"position"`
}

// PlayerHit is a damage claim applied only by the named target.
type PlayerHit struct {
	TargetID  string  `json:"targetId"`
	Damage    float64 `json:"damage"`
	ShooterID string  `json:"shooterId"`
}

// PlayerKilled is a death claim sent by the victim.
type PlayerKilled struct {
	VictimID string `json:"victimId"`
	KillerID string `json:"killerId"`
}

// ScoreUpdate is the host-authoritative score for one team.
type ScoreUpdate struct {
	Team  model.Team `json:"team"`
	Score int        `json:"score"`
}

// WeaponPickup is a pickup claim; every peer removes the matching box.
type WeaponPickup struct {
	PlayerID   string `json:"playerId"`
	WeaponType string `json:"weaponType"`
	BoxName    string `json:"boxName"`
	SpawnIndex int    `json:"spawnIndex"`
}

// TeamAssignment is the host roster broadcast.
type TeamAssignment struct {
	Assignments map[string]model.Team `json:"assignments"`
}

// Unknown holds a message whose type this build does not understand.
type Unknown struct {
	Kind MessageType
	Raw  []byte
}

func (*TransformUpdate) Type() MessageType   { return TypeTransformUpdate }
func (*AnimationUpdate) Type() MessageType   { return TypeAnimationUpdate }
func (*ActorLeaveChannel) Type() MessageType { return TypeActorLeaveChannel }
func (*MapInit) Type() MessageType           { return TypeMapInit }
func (*MapConfig) Type() MessageType         { return TypeMapConfig }
func (*PlayerShoot) Type() MessageType       { return TypePlayerShoot }
func (*PlayerHit) Type() MessageType         { return TypePlayerHit }
func (*PlayerKilled) Type() MessageType      { return TypePlayerKilled }
func (*ScoreUpdate) Type() MessageType       { return TypeScoreUpdate }
func (*WeaponPickup) Type() MessageType      { return TypeWeaponPickup }
func (*TeamAssignment) Type() MessageType    { return TypeTeamAssignment }
func (u *Unknown) Type() MessageType         { return u.Kind }

func (*TransformUpdate) isMessage()   {}
func (*AnimationUpdate) isMessage()   {}
func (*ActorLeaveChannel) isMessage() {}
func (*MapInit) isMessage()           {}
func (*MapConfig) isMessage()         {}
func (*PlayerShoot) isMessage()       {}
func (*PlayerHit) isMessage()         {}
func (*PlayerKilled) isMessage()      {}
func (*ScoreUpdate) isMessage()       {}
func (*WeaponPickup) isMessage()      {}
func (*TeamAssignment) isMessage()    {}
func (*Unknown) isMessage()           {}

var messageFactories = map[MessageType]func() Message{
	TypeTransformUpdate:   func() Message { return &TransformUpdate{} },
	TypeAnimationUpdate:   func() Message { return &AnimationUpdate{} },
	TypeActorLeaveChannel: func() Message { return &ActorLeaveChannel{} },
	TypeMapInit:           func() Message { return &MapInit{} },
	TypeMapConfig:         func() Message { return &MapConfig{} },
	TypePlayerShoot:       func() Message { return &PlayerShoot{} },
	TypePlayerHit:         func() Message { return &PlayerHit{} },
	TypePlayerKilled:      func() Message { return &PlayerKilled{} },
	TypeScoreUpdate:       func() Message { return &ScoreUpdate{} },
	TypeWeaponPickup:      func() Message { return &WeaponPickup{} },
	TypeTeamAssignment:    func() Message { return &TeamAssignment{} },
}
