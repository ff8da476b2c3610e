package match

import "github.com/jjweiting/hackthon001/internal/model"

// Entity is the controllable body of a player in the host application.
type Entity interface {
	Position() model.Vec3
	SetPosition(p model.Vec3)
	// LocallyDriven reports whether local input moves the entity. Respawn
	// never teleports such entities.
	LocallyDriven() bool
}

// Facing is implemented by entities that know where they aim.
type Facing interface {
	Forward() model.Vec3
}

// Player is the local player's match record.
type Player struct {
	SessionID string     `json:"sessionId"`
	Entity    Entity     `json:"-"`
	Team      model.Team `json:"team"`
	Health    float64    `json:"health"`
	MaxHealth float64    `json:"maxHealth"`
	Kills     int        `json:"kills"`
	Deaths    int        `json:"deaths"`
	Weapon    string     `json:"weapon"`
	Alive     bool       `json:"alive"`
}

// ApplyDamage subtracts amount, clamping at zero, and returns the health left.
func (p *Player) ApplyDamage(amount float64) float64 {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
	return p.Health
}

// Ghost is the death bookkeeping of a remote peer.
type Ghost struct {
	LastKillerID string  `json:"lastKillerId"`
	DeathEnd     float64 `json:"deathEnd"` // coordinator clock, seconds
}

// claim remembers the last accepted kill claim for a victim.
type claim struct {
	killer string
	until  float64
}

// StaticEntity is a plain Entity for headless peers and tests.
type StaticEntity struct {
	Pos    model.Vec3
	Facing model.Vec3
	Local  bool
}

func (e *StaticEntity) Position() model.Vec3     { return e.Pos }
func (e *StaticEntity) SetPosition(p model.Vec3) { e.Pos = p }
func (e *StaticEntity) LocallyDriven() bool      { return e.Local }
func (e *StaticEntity) Forward() model.Vec3      { return e.Facing }
