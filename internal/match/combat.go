package match

import (
	"fmt"
	"sort"

	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
)

// HandlePlayerShoot surfaces a remote shot for effects. Own shots are ignored.
func (c *Coordinator) HandlePlayerShoot(msg *protocol.PlayerShoot) {
	if msg == nil || msg.PlayerID == c.net.SessionID() {
		return
	}
	c.emit(Event{Kind: EventShot, Actor: msg.PlayerID, Weapon: msg.WeaponType, Position: msg.Position})
}

// HandlePlayerHit applies a damage claim when this peer is the living target.
func (c *Coordinator) HandlePlayerHit(msg *protocol.PlayerHit) {
	if msg == nil || c.local == nil || msg.Damage <= 0 {
		return
	}
	if msg.TargetID != c.local.SessionID || !c.local.Alive {
		return
	}

	before := c.local.Health
	left := c.local.ApplyDamage(msg.Damage)
	c.logger.Debug("Local player hit", "from", msg.ShooterID, "damage", msg.Damage, "before", before)
	c.emit(Event{Kind: EventDamage, Actor: msg.ShooterID, Target: c.local.SessionID, Damage: msg.Damage})

	if left <= 0 {
		c.onLocalDeath(msg.ShooterID)
	}
}

// onLocalDeath runs once per life: it broadcasts the kill claim and
// schedules the respawn.
func (c *Coordinator) onLocalDeath(killerID string) {
	if !c.local.Alive {
		return
	}
	c.local.Alive = false
	c.local.Deaths++
	c.local.Health = 0
	c.respawnIn = c.opts.RespawnTime.Seconds()

	c.net.Send(&protocol.PlayerKilled{VictimID: c.local.SessionID, KillerID: killerID})
	c.emit(Event{Kind: EventDeath, Actor: killerID, Target: c.local.SessionID})

	c.respawn.Cancel()
	id := fmt.Sprintf("match:%s:respawn", c.local.SessionID)
	c.respawn = task.After(c.timer, id, c.opts.respawnSeconds(), func() {
		c.RespawnPlayer(c.local)
	})
}

// HandlePlayerKilled processes a kill claim. A repeat of the same claim
// inside the victim's death window is dropped. Only the host turns claims
// into score, and only while playing; everyone else waits for the
// score-update broadcast.
func (c *Coordinator) HandlePlayerKilled(msg *protocol.PlayerKilled) {
	if msg == nil || msg.VictimID == "" {
		return
	}
	if prev, ok := c.claims[msg.VictimID]; ok && prev.killer == msg.KillerID && prev.until > c.now {
		c.logger.Debug("Duplicate kill claim ignored", "victim", msg.VictimID, "killer", msg.KillerID)
		return
	}
	c.claims[msg.VictimID] = claim{killer: msg.KillerID, until: c.now + c.opts.RespawnTime.Seconds()}

	self := c.net.SessionID()
	if c.local != nil && msg.KillerID == self && msg.VictimID != self {
		c.local.Kills++
		c.emit(Event{Kind: EventKill, Actor: self, Target: msg.VictimID})
	}

	team := c.TeamOf(msg.KillerID)
	if team.Valid() && c.phase == PhasePlaying && c.net.IsHost() {
		c.scores[team]++
		score := c.scores[team]
		c.net.Send(&protocol.ScoreUpdate{Team: team, Score: score})
		c.emit(Event{Kind: EventScore, Team: team, Score: score})
		c.checkTargetScore()
	}

	c.markDeath(msg.VictimID, msg.KillerID)
}

// markDeath opens the ghost window of a remote victim.
func (c *Coordinator) markDeath(victimID, killerID string) {
	if victimID == c.net.SessionID() {
		return
	}
	g, ok := c.ghosts[victimID]
	if !ok {
		g = &Ghost{}
		c.ghosts[victimID] = g
	}
	g.DeathEnd = c.now + c.opts.RespawnTime.Seconds()
	if killerID != "" {
		g.LastKillerID = killerID
	}
}

// Ghost returns the death bookkeeping of a remote peer.
func (c *Coordinator) Ghost(sessionID string) (Ghost, bool) {
	g, ok := c.ghosts[sessionID]
	if !ok {
		return Ghost{}, false
	}
	return *g, true
}

// RemoteVisible reports whether a remote peer is outside its ghost window.
func (c *Coordinator) RemoteVisible(sessionID string) bool {
	g, ok := c.ghosts[sessionID]
	return !ok || g.DeathEnd <= c.now
}

// HiddenRemotes lists remote peers currently inside their ghost window.
func (c *Coordinator) HiddenRemotes() []string {
	hidden := []string{}
	for id, g := range c.ghosts {
		if g.DeathEnd > c.now {
			hidden = append(hidden, id)
		}
	}
	sort.Strings(hidden)
	return hidden
}

// HandleScoreUpdate applies the host score. Replicated scores never go
// down: a lower or negative value is dropped, so any delivery order
// converges on the highest score sent.
func (c *Coordinator) HandleScoreUpdate(msg *protocol.ScoreUpdate) {
	if msg == nil || !msg.Team.Valid() {
		return
	}
	if msg.Score < 0 {
		c.logger.Warn("Negative score rejected", "team", msg.Team, "score", msg.Score)
		return
	}
	if c.phase == PhaseWaiting || c.phase == PhaseCountdown {
		c.logger.Debug("Score update outside a match ignored", "phase", c.phase, "team", msg.Team, "score", msg.Score)
		return
	}
	if msg.Score <= c.scores[msg.Team] {
		return
	}
	c.scores[msg.Team] = msg.Score
	c.emit(Event{Kind: EventScore, Team: msg.Team, Score: msg.Score})
	c.checkTargetScore()
}

// HandleWeaponPickup removes the claimed box, by name first and then by
// spawn slot. The picker switches weapon.
func (c *Coordinator) HandleWeaponPickup(msg *protocol.WeaponPickup) {
	if msg == nil {
		return
	}
	self := c.net.SessionID()
	if _, ok := c.arena.RemoveWeaponBox(msg.BoxName, msg.SpawnIndex); !ok {
		if msg.PlayerID == self {
			// our own echo, the box went when we picked it up
			c.logger.Debug("Picked box already removed", "box", msg.BoxName)
		} else {
			c.logger.Warn("Weapon box not found", "box", msg.BoxName, "spawnIndex", msg.SpawnIndex)
		}
	}
	if c.local != nil && msg.PlayerID == self {
		c.local.Weapon = msg.WeaponType
	}
	c.emit(Event{Kind: EventPickup, Actor: msg.PlayerID, Weapon: msg.WeaponType, Detail: msg.BoxName})
}

// PickupWeapon picks up the named box for the local player and broadcasts
// the claim.
func (c *Coordinator) PickupWeapon(boxName string) error {
	if c.local == nil {
		return ErrLocalPlayerMissing
	}
	if !c.local.Alive {
		return ErrPlayerDead
	}
	box, ok := c.arena.RemoveWeaponBox(boxName, -1)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBoxNotFound, boxName)
	}

	c.local.Weapon = box.WeaponType
	c.net.Send(&protocol.WeaponPickup{
		PlayerID:   c.local.SessionID,
		WeaponType: box.WeaponType,
		BoxName:    box.Name,
		SpawnIndex: box.SpawnIndex,
	})
	c.emit(Event{Kind: EventPickup, Actor: c.local.SessionID, Weapon: box.WeaponType, Detail: box.Name})
	return nil
}

// Shot describes a local shot that went out.
type Shot struct {
	Weapon string  `json:"weapon"`
	Target string  `json:"target,omitempty"`
	Damage float64 `json:"damage"`
}

// Fire shoots the current weapon, optionally claiming a hit on targetID.
// Shots faster than the weapon's fire rate are refused.
func (c *Coordinator) Fire(targetID string) (Shot, error) {
	if c.local == nil {
		return Shot{}, ErrLocalPlayerMissing
	}
	if c.phase != PhasePlaying {
		return Shot{}, ErrNotPlaying
	}
	if !c.local.Alive {
		return Shot{}, ErrPlayerDead
	}

	w := WeaponFor(c.local.Weapon, c.opts.DefaultWeapon)
	if c.now-c.lastShot < w.FireRate {
		return Shot{}, ErrWeaponCooldown
	}
	c.lastShot = c.now

	shot := Shot{Weapon: c.local.Weapon, Target: targetID}
	if targetID != "" && targetID != c.local.SessionID {
		shot.Damage = w.HitDamage()
		c.net.Send(&protocol.PlayerHit{TargetID: targetID, Damage: shot.Damage, ShooterID: c.local.SessionID})
	}

	var pos, dir model.Vec3
	if c.local.Entity != nil {
		pos = c.local.Entity.Position()
		if f, ok := c.local.Entity.(Facing); ok {
			dir = f.Forward()
		}
	}
	c.net.Send(&protocol.PlayerShoot{
		PlayerID:   c.local.SessionID,
		Direction:  dir,
		WeaponType: c.local.Weapon,
		Position:   pos,
	})
	return shot, nil
}

// RespawnPlayer restores health and, for entities not moved by local
// input, teleports to a team spawn point. Calling it twice is harmless.
func (c *Coordinator) RespawnPlayer(p *Player) {
	if p == nil {
		return
	}
	p.Health = p.MaxHealth
	p.Alive = true
	if p == c.local {
		c.respawnIn = 0
	}

	spawn := c.SpawnPoint(p.Team)
	if p.Entity != nil && !p.Entity.LocallyDriven() {
		p.Entity.SetPosition(spawn)
	}
	c.emit(Event{Kind: EventRespawn, Actor: p.SessionID, Team: p.Team, Position: spawn})
}

// SpawnPoint picks a random spawn point of team, or the fixed fallback
// when no arena exists yet.
func (c *Coordinator) SpawnPoint(team model.Team) model.Vec3 {
	if points := c.arena.SpawnPoints(team); len(points) > 0 {
		return points[c.rnd.IntN(len(points))]
	}
	if team == model.TeamA {
		return FallbackSpawnA
	}
	return FallbackSpawnB
}
