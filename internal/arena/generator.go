package arena

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/model"
)

// Options control arena dimensions and population.
type Options struct {
	Size            float64
	ObstacleCount   int
	WeaponBoxCount  int
	PickupChance    float64
	CenterExclusion float64
	WallHeight      float64
	WallThickness   float64
	// WeaponTypes are the pickup types a box may roll. Empty uses DefaultWeaponTypes.
	WeaponTypes []string
	// MaxPlacementAttempts bounds the center-exclusion rejection loop per obstacle.
	MaxPlacementAttempts int
}

// DefaultWeaponTypes are the pickup types a weapon box may roll.
var DefaultWeaponTypes = []string{"shotgun", "rifle", "sniper", "rocket"}

const (
	spawnPointsPerTeam = 4
	spawnOffsetX       = 20
	spawnSpacingZ      = 3
	spawnHeight        = 2
	obstacleMargin     = 4
	weaponMargin       = 5
	weaponBoxHeight    = 1
)

// DefaultOptions returns the stock 50x50 arena.
func DefaultOptions() Options {
	return Options{
		Size:                 50,
		ObstacleCount:        20,
		WeaponBoxCount:       10,
		PickupChance:         0.5,
		CenterExclusion:      10,
		WallHeight:           6,
		WallThickness:        1,
		WeaponTypes:          DefaultWeaponTypes,
		MaxPlacementAttempts: 50,
	}
}

// OptionsFromConfig overlays the arena config section on the defaults.
func OptionsFromConfig(cfg config.ArenaConfig) Options {
	o := DefaultOptions()
	o.Size = cfg.Size
	o.ObstacleCount = cfg.ObstacleCount
	o.WeaponBoxCount = cfg.WeaponBoxCount
	o.PickupChance = cfg.PickupChance
	o.CenterExclusion = cfg.CenterExclusion
	return o.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.ObstacleCount < 0 {
		o.ObstacleCount = 0
	}
	if o.WeaponBoxCount < 0 {
		o.WeaponBoxCount = 0
	}
	if o.PickupChance < 0 {
		o.PickupChance = 0
	}
	if o.WallHeight <= 0 {
		o.WallHeight = d.WallHeight
	}
	if o.WallThickness <= 0 {
		o.WallThickness = d.WallThickness
	}
	if len(o.WeaponTypes) == 0 {
		o.WeaponTypes = d.WeaponTypes
	}
	if o.MaxPlacementAttempts <= 0 {
		o.MaxPlacementAttempts = d.MaxPlacementAttempts
	}
	return o
}

// Generator builds and rebuilds the arena. It exclusively owns every entity it
// creates; callers only go through its operations. Not safe for concurrent use.
type Generator struct {
	opts   Options
	sink   Sink
	logger *slog.Logger

	seed        int64
	size        float64
	entities    []*Entity
	spawnPoints map[model.Team][]model.Vec3
	slots       []*WeaponSlot
	static      bool
	dynamic     bool
}

// NewGenerator creates a generator. sink may be nil.
func NewGenerator(opts Options, sink Sink) *Generator {
	if sink == nil {
		sink = nopSink{}
	}
	opts = opts.withDefaults()
	return &Generator{
		opts:        opts,
		sink:        sink,
		logger:      slog.Default().With("component", "arena"),
		size:        opts.Size,
		spawnPoints: make(map[model.Team][]model.Vec3),
	}
}

// GenerateStatic creates floor, boundary walls and per-team spawn points.
// Each call appends geometry; callers guard against calling it twice per match.
func (g *Generator) GenerateStatic(seed int64) {
	g.seed = seed
	g.size = g.opts.Size
	g.buildBounds(g.size)

	for _, team := range model.Teams {
		x := float64(-spawnOffsetX)
		if team == model.TeamB {
			x = spawnOffsetX
		}
		for i := 0; i < spawnPointsPerTeam; i++ {
			z := (float64(i) - 1.5) * spawnSpacingZ
			g.addSpawnPoint(team, i, model.V3(x, spawnHeight, z))
		}
	}

	g.static = true
	g.logger.Debug("Static arena generated", "seed", seed, "entities", len(g.entities))
}

// GenerateDynamic creates obstacles and weapon spawn slots from seed. The
// rolled slots and weapon types are what ExportMapConfig later publishes.
func (g *Generator) GenerateDynamic(seed int64) {
	g.seed = seed
	rng := NewSeededRandom(seed)

	half := math.Max(0, g.size/2-obstacleMargin)
	excl := g.opts.CenterExclusion
	for i := 0; i < g.opts.ObstacleCount; i++ {
		spec := shapeSpecs[rng.Intn(len(shapeSpecs))]

		var x, z float64
		placed := false
		for attempt := 0; attempt < g.opts.MaxPlacementAttempts; attempt++ {
			x = (rng.Next() - 0.5) * half * 2
			z = (rng.Next() - 0.5) * half * 2
			if !(math.Abs(x) < excl && math.Abs(z) < excl) {
				placed = true
				break
			}
		}
		if !placed {
			g.logger.Debug("Obstacle skipped, no free position", "index", i)
			continue
		}

		g.addObstacle(ObstacleSpec{
			Name:       fmt.Sprintf("arena-obstacle-%d", i),
			Shape:      spec.shape,
			Position:   model.V3(x, spec.height/2, z),
			Scale:      spec.scale,
			RotationY:  rng.Next() * 360,
			ColorIndex: rng.Intn(ObstaclePalette),
		})
	}

	wHalf := math.Max(0, g.size/2-weaponMargin)
	for i := 0; i < g.opts.WeaponBoxCount; i++ {
		x := (rng.Next() - 0.5) * wHalf * 2
		z := (rng.Next() - 0.5) * wHalf * 2
		slot := g.addSlot(model.V3(x, weaponBoxHeight, z))

		if rng.Next() < g.opts.PickupChance {
			weaponType := g.opts.WeaponTypes[rng.Intn(len(g.opts.WeaponTypes))]
			g.addWeaponBox(slot, fmt.Sprintf("weapon-box-%d", i), weaponType, slot.Position)
		}
	}

	g.dynamic = true
	g.logger.Info("Dynamic arena generated",
		"seed", seed,
		"obstacles", len(g.Obstacles()),
		"weaponBoxes", len(g.WeaponBoxes()))
}

// ExportMapConfig serializes the current arena into a document that
// GenerateFromConfig can rebuild without any random roll.
func (g *Generator) ExportMapConfig() *MapConfig {
	doc := &MapConfig{
		Seed:        g.seed,
		ArenaSize:   g.size,
		SpawnPoints: make(map[model.Team][]model.Vec3, len(g.spawnPoints)),
	}

	for team, points := range g.spawnPoints {
		doc.SpawnPoints[team] = append([]model.Vec3(nil), points...)
	}

	for _, e := range g.entities {
		if e.Kind != KindObstacle {
			continue
		}
		doc.Obstacles = append(doc.Obstacles, ObstacleSpec{
			Name:       e.Name,
			Shape:      e.Shape,
			Position:   e.Position,
			Scale:      e.Scale,
			RotationY:  e.RotationY,
			ColorIndex: e.ColorIndex,
		})
	}

	for _, slot := range g.slots {
		doc.WeaponSpawns = append(doc.WeaponSpawns, slot.Position)
		if slot.Occupied && slot.Box != nil {
			doc.WeaponBoxes = append(doc.WeaponBoxes, WeaponBoxSpec{
				Name:       slot.Box.Name,
				WeaponType: slot.Box.WeaponType,
				SpawnIndex: slot.Index,
				Position:   slot.Box.Position,
			})
		}
	}

	return doc
}

// GenerateFromConfig clears the arena and rebuilds it strictly from doc.
// Floor and walls are rebuilt the fixed way; everything else comes from doc.
func (g *Generator) GenerateFromConfig(doc *MapConfig) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	g.Cleanup()
	g.seed = doc.Seed
	g.size = doc.ArenaSize
	g.buildBounds(g.size)

	for _, team := range model.Teams {
		for i, p := range doc.SpawnPoints[team] {
			g.addSpawnPoint(team, i, p)
		}
	}
	g.static = true

	for _, o := range doc.Obstacles {
		g.addObstacle(o)
	}

	for _, p := range doc.WeaponSpawns {
		g.addSlot(p)
	}
	for _, b := range doc.WeaponBoxes {
		g.addWeaponBox(g.slots[b.SpawnIndex], b.Name, b.WeaponType, b.Position)
	}
	g.dynamic = true

	g.logger.Info("Arena rebuilt from map config",
		"seed", doc.Seed,
		"obstacles", len(doc.Obstacles),
		"weaponBoxes", len(doc.WeaponBoxes))
	return nil
}

// Cleanup destroys every generator-owned entity and clears spawn bookkeeping.
func (g *Generator) Cleanup() {
	for _, e := range g.entities {
		g.sink.Destroyed(e)
	}
	g.entities = nil
	g.spawnPoints = make(map[model.Team][]model.Vec3)
	g.slots = nil
	g.static = false
	g.dynamic = false
}

// RemoveWeaponBox consumes a pickup box, looked up by name first and by spawn
// index second. The slot stays empty for the rest of the match.
func (g *Generator) RemoveWeaponBox(name string, spawnIndex int) (*Entity, bool) {
	var target *WeaponSlot
	if name != "" {
		for _, slot := range g.slots {
			if slot.Occupied && slot.Box != nil && slot.Box.Name == name {
				target = slot
				break
			}
		}
	}
	if target == nil && spawnIndex >= 0 && spawnIndex < len(g.slots) {
		if slot := g.slots[spawnIndex]; slot.Occupied && slot.Box != nil {
			target = slot
		}
	}
	if target == nil {
		return nil, false
	}

	box := target.Box
	target.Occupied = false
	target.Box = nil
	g.removeEntity(box)
	return box, true
}

// SpawnPoints returns the spawn points of team.
func (g *Generator) SpawnPoints(team model.Team) []model.Vec3 {
	return append([]model.Vec3(nil), g.spawnPoints[team]...)
}

// Obstacles returns the live obstacle entities.
func (g *Generator) Obstacles() []*Entity {
	return g.byKind(KindObstacle)
}

// WeaponBoxes returns the live pickup boxes.
func (g *Generator) WeaponBoxes() []*Entity {
	return g.byKind(KindWeaponBox)
}

// WeaponSlots returns a snapshot of the weapon spawn slots.
func (g *Generator) WeaponSlots() []WeaponSlot {
	out := make([]WeaponSlot, 0, len(g.slots))
	for _, s := range g.slots {
		out = append(out, *s)
	}
	return out
}

// Entities returns every live entity in creation order.
func (g *Generator) Entities() []*Entity {
	return append([]*Entity(nil), g.entities...)
}

func (g *Generator) HasStatic() bool  { return g.static }
func (g *Generator) HasDynamic() bool { return g.dynamic }
func (g *Generator) Seed() int64      { return g.seed }

func (g *Generator) buildBounds(size float64) {
	g.spawn(&Entity{
		Name:     "arena-floor",
		Kind:     KindFloor,
		Tags:     []string{TagArena},
		Position: model.V3(0, -0.5, 0),
		Scale:    model.V3(size, 1, size),
	})

	half := size / 2
	h := g.opts.WallHeight
	th := g.opts.WallThickness
	walls := []struct {
		pos   model.Vec3
		scale model.Vec3
	}{
		{model.V3(0, h/2, half), model.V3(size, h, th)},
		{model.V3(0, h/2, -half), model.V3(size, h, th)},
		{model.V3(half, h/2, 0), model.V3(th, h, size)},
		{model.V3(-half, h/2, 0), model.V3(th, h, size)},
	}
	for i, w := range walls {
		g.spawn(&Entity{
			Name:     fmt.Sprintf("arena-wall-%d", i),
			Kind:     KindWall,
			Tags:     []string{TagArena},
			Position: w.pos,
			Scale:    w.scale,
		})
	}
}

func (g *Generator) addSpawnPoint(team model.Team, index int, p model.Vec3) {
	g.spawnPoints[team] = append(g.spawnPoints[team], p)
	g.spawn(&Entity{
		Name:       fmt.Sprintf("spawn-%s-%d", team, index),
		Kind:       KindSpawnMarker,
		Tags:       []string{TagArena, TagSpawnMarker},
		Position:   p,
		Scale:      model.V3(1, 0.1, 1),
		Team:       team,
		SpawnIndex: index,
	})
}

func (g *Generator) addObstacle(o ObstacleSpec) {
	g.spawn(&Entity{
		Name:       o.Name,
		Kind:       KindObstacle,
		Tags:       []string{TagArena},
		Position:   o.Position,
		Scale:      o.Scale,
		RotationY:  o.RotationY,
		Shape:      o.Shape,
		ColorIndex: o.ColorIndex,
	})
}

func (g *Generator) addSlot(p model.Vec3) *WeaponSlot {
	slot := &WeaponSlot{Index: len(g.slots), Position: p}
	g.slots = append(g.slots, slot)
	return slot
}

func (g *Generator) addWeaponBox(slot *WeaponSlot, name, weaponType string, pos model.Vec3) *Entity {
	box := &Entity{
		Name:       name,
		Kind:       KindWeaponBox,
		Tags:       []string{TagArena, TagWeaponBox},
		Position:   pos,
		Scale:      model.V3(1, 1, 1),
		WeaponType: weaponType,
		SpawnIndex: slot.Index,
	}
	slot.Occupied = true
	slot.Box = box
	g.spawn(box)
	return box
}

func (g *Generator) spawn(e *Entity) {
	g.entities = append(g.entities, e)
	g.sink.Spawned(e)
}

func (g *Generator) removeEntity(e *Entity) {
	for i, cur := range g.entities {
		if cur == e {
			g.entities = append(g.entities[:i], g.entities[i+1:]...)
			g.sink.Destroyed(e)
			return
		}
	}
}

func (g *Generator) byKind(kind EntityKind) []*Entity {
	var out []*Entity
	for _, e := range g.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
