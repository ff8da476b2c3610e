package match

import (
	"time"

	"github.com/jjweiting/hackthon001/internal/arena"
)

// HandleMapInit builds the static arena from the host seed. Repeats of the
// current seed are ignored, and once a map config has been applied the seed
// is only recorded since the document is authoritative.
func (c *Coordinator) HandleMapInit(seed int64) {
	if c.hasSeed && c.mapSeed == seed && c.arena.HasStatic() {
		return
	}
	c.mapSeed = seed
	c.hasSeed = true
	if c.applied != nil {
		return
	}

	c.arena.Cleanup()
	c.arena.GenerateStatic(seed)
	c.logger.Debug("Static arena generated", "seed", seed)
	c.emit(Event{Kind: EventArena, Detail: "static"})
}

// HandleMapConfig rebuilds the arena from the host document. The same
// document arriving again is a no-op.
func (c *Coordinator) HandleMapConfig(doc *arena.MapConfig) {
	if doc == nil {
		return
	}
	if c.applied != nil && c.applied.Equal(doc) {
		return
	}
	if err := c.arena.GenerateFromConfig(doc); err != nil {
		c.logger.Warn("Map config rejected", "error", err)
		return
	}
	c.applied = doc
	c.mapSeed = doc.Seed
	c.hasSeed = true
	c.logger.Info("Map config applied", "seed", doc.Seed,
		"obstacles", len(doc.Obstacles), "weaponBoxes", len(doc.WeaponBoxes))
	c.emit(Event{Kind: EventArena, Detail: "config"})
}

// GenerateAndBroadcastDynamicArena has the host roll obstacles and weapon
// boxes, apply the exported document locally and broadcast it. It runs at
// most once per match, never after the match finished, and reports whether
// it did.
func (c *Coordinator) GenerateAndBroadcastDynamicArena() bool {
	if !c.net.IsHost() || c.arenaGenerated {
		return false
	}
	if c.phase == PhaseFinished {
		c.logger.Debug("Arena generation ignored after match end")
		return false
	}
	c.arenaGenerated = true

	seed := c.mapSeed
	if !c.hasSeed {
		seed = time.Now().UnixMilli()
		c.mapSeed, c.hasSeed = seed, true
	}
	if !c.arena.HasStatic() {
		c.arena.GenerateStatic(seed)
	}
	c.arena.GenerateDynamic(seed)

	doc := c.arena.ExportMapConfig()
	c.logger.Info("Dynamic arena generated", "seed", seed,
		"obstacles", len(doc.Obstacles), "weaponBoxes", len(doc.WeaponBoxes))

	c.HandleMapConfig(doc)
	c.net.BroadcastMapConfig(doc)
	return true
}

// ArenaGenerated reports whether the host already produced this match's arena.
func (c *Coordinator) ArenaGenerated() bool {
	return c.arenaGenerated
}
