package arena

import "github.com/jjweiting/hackthon001/internal/model"

// EntityKind classifies generator-owned entities.
type EntityKind string

const (
	KindFloor       EntityKind = "floor"
	KindWall        EntityKind = "wall"
	KindObstacle    EntityKind = "obstacle"
	KindSpawnMarker EntityKind = "spawn-marker"
	KindWeaponBox   EntityKind = "weapon-box"
)

// Entity tags, kept from the scene graph naming.
const (
	TagArena       = "arena"
	TagWeaponBox   = "weapon-box"
	TagSpawnMarker = "spawn-marker"
)

// Entity is one piece of generated arena state.
type Entity struct {
	Name       string        `json:"name"`
	Kind       EntityKind    `json:"kind"`
	Tags       []string      `json:"tags"`
	Position   model.Vec3    `json:"position"`
	Scale      model.Vec3    `json:"scale"`
	RotationY  float64       `json:"rotationY"`
	Shape      ObstacleShape `json:"shape,omitempty"`
	ColorIndex int           `json:"colorIndex,omitempty"`
	Team       model.Team    `json:"team,omitempty"`
	WeaponType string        `json:"weaponType,omitempty"`
	SpawnIndex int           `json:"spawnIndex"`
}

// HasTag reports whether the entity carries tag.
func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WeaponSlot is a fixed pickup location. A slot is consumed at most once per match.
type WeaponSlot struct {
	Index    int        `json:"index"`
	Position model.Vec3 `json:"position"`
	Occupied bool       `json:"occupied"`
	Box      *Entity    `json:"-"`
}

// Sink mirrors generator output into a renderer or physics scene.
type Sink interface {
	Spawned(e *Entity)
	Destroyed(e *Entity)
}

type nopSink struct{}

func (nopSink) Spawned(*Entity)   {}
func (nopSink) Destroyed(*Entity) {}
