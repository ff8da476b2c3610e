package arena

import (
	"errors"
	"fmt"

	"github.com/jjweiting/hackthon001/internal/model"
)

var (
	// ErrInvalidMapConfig is returned for documents that cannot be rebuilt.
	ErrInvalidMapConfig = errors.New("INVALID_MAP_CONFIG")
)

// ObstacleShape enumerates the obstacle primitives.
type ObstacleShape string

const (
	ShapeBox      ObstacleShape = "box"
	ShapeCylinder ObstacleShape = "cylinder"
	ShapeWall     ObstacleShape = "wall"
)

// shapeSpecs holds scale and height per shape, indexed by the seeded roll.
var shapeSpecs = []struct {
	shape  ObstacleShape
	scale  model.Vec3
	height float64
}{
	{ShapeBox, model.V3(4, 2, 4), 2},
	{ShapeCylinder, model.V3(1.5, 4, 1.5), 4},
	{ShapeWall, model.V3(4, 3, 1), 3},
}

// ObstaclePalette is the number of colors an obstacle may be tinted with.
const ObstaclePalette = 4

// MapConfig is the host-produced description of one match's arena. Once
// broadcast it is treated as immutable until the next reset.
type MapConfig struct {
	Seed         int64                       `json:"seed" yaml:"seed"`
	ArenaSize    float64                     `json:"arenaSize" yaml:"arena_size"`
	SpawnPoints  map[model.Team][]model.Vec3 `json:"spawnPoints" yaml:"spawn_points"`
	Obstacles    []ObstacleSpec              `json:"obstacles" yaml:"obstacles"`
	WeaponSpawns []model.Vec3                `json:"weaponSpawns" yaml:"weapon_spawns"`
	WeaponBoxes  []WeaponBoxSpec             `json:"weaponBoxes" yaml:"weapon_boxes"`
}

// ObstacleSpec is one obstacle in a MapConfig.
type ObstacleSpec struct {
	Name       string        `json:"name" yaml:"name"`
	Shape      ObstacleShape `json:"shape" yaml:"shape"`
	Position   model.Vec3    `json:"position" yaml:"position"`
	Scale      model.Vec3    `json:"scale" yaml:"scale"`
	RotationY  float64       `json:"rotationY" yaml:"rotation_y"`
	ColorIndex int           `json:"colorIndex" yaml:"color_index"`
}

// WeaponBoxSpec is one pickup box sitting on a weapon spawn slot.
type WeaponBoxSpec struct {
	Name       string     `json:"name" yaml:"name"`
	WeaponType string     `json:"weaponType" yaml:"weapon_type"`
	SpawnIndex int        `json:"spawnIndex" yaml:"spawn_index"`
	Position   model.Vec3 `json:"position" yaml:"position"`
}

// Validate checks that the document can be rebuilt verbatim.
func (c *MapConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidMapConfig)
	}
	if c.ArenaSize <= 0 {
		return fmt.Errorf("%w: arena size %v", ErrInvalidMapConfig, c.ArenaSize)
	}
	for i, o := range c.Obstacles {
		if o.Shape != ShapeBox && o.Shape != ShapeCylinder && o.Shape != ShapeWall {
			return fmt.Errorf("%w: obstacle %d has shape %q", ErrInvalidMapConfig, i, o.Shape)
		}
	}
	seen := make(map[int]bool, len(c.WeaponBoxes))
	for _, b := range c.WeaponBoxes {
		if b.SpawnIndex < 0 || b.SpawnIndex >= len(c.WeaponSpawns) {
			return fmt.Errorf("%w: box %s spawn index %d of %d", ErrInvalidMapConfig, b.Name, b.SpawnIndex, len(c.WeaponSpawns))
		}
		if seen[b.SpawnIndex] {
			return fmt.Errorf("%w: spawn slot %d used twice", ErrInvalidMapConfig, b.SpawnIndex)
		}
		seen[b.SpawnIndex] = true
		if b.WeaponType == "" {
			return fmt.Errorf("%w: box %s has no weapon type", ErrInvalidMapConfig, b.Name)
		}
	}
	return nil
}

// Equal reports whether two documents describe the same arena.
func (c *MapConfig) Equal(o *MapConfig) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Seed != o.Seed || c.ArenaSize != o.ArenaSize ||
		len(c.Obstacles) != len(o.Obstacles) ||
		len(c.WeaponSpawns) != len(o.WeaponSpawns) ||
		len(c.WeaponBoxes) != len(o.WeaponBoxes) {
		return false
	}
	for i := range c.Obstacles {
		if c.Obstacles[i] != o.Obstacles[i] {
			return false
		}
	}
	for i := range c.WeaponSpawns {
		if c.WeaponSpawns[i] != o.WeaponSpawns[i] {
			return false
		}
	}
	for i := range c.WeaponBoxes {
		if c.WeaponBoxes[i] != o.WeaponBoxes[i] {
			return false
		}
	}
	for _, team := range model.Teams {
		a, b := c.SpawnPoints[team], o.SpawnPoints[team]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}
