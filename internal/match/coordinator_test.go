package match

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task/tasktest"
)

type fakeNet struct {
	id       string
	host     bool
	sent     []protocol.Message
	configs  []*arena.MapConfig
	ends     int
	restarts int
}

func (n *fakeNet) SessionID() string                     { return n.id }
func (n *fakeNet) IsHost() bool                          { return n.host }
func (n *fakeNet) Send(msg protocol.Message)             { n.sent = append(n.sent, msg) }
func (n *fakeNet) BroadcastMapConfig(d *arena.MapConfig) { n.configs = append(n.configs, d) }
func (n *fakeNet) EndGame()                              { n.ends++ }
func (n *fakeNet) RestartGame()                          { n.restarts++ }

func (n *fakeNet) sentOf(t protocol.MessageType) []protocol.Message {
	var out []protocol.Message
	for _, m := range n.sent {
		if m.Type() == t {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	c     *Coordinator
	net   *fakeNet
	timer *tasktest.Manual
}

func newFixture(t *testing.T, id string, host bool) *fixture {
	t.Helper()
	net := &fakeNet{id: id, host: host}
	timer := tasktest.New()
	c := NewCoordinator(DefaultOptions(), net, arena.NewGenerator(arena.DefaultOptions(), nil), timer)
	return &fixture{c: c, net: net, timer: timer}
}

func roster(ids ...string) []model.Actor {
	actors := make([]model.Actor, 0, len(ids))
	for _, id := range ids {
		actors = append(actors, model.Actor{SessionID: id})
	}
	return actors
}

// playing puts the coordinator in a running match with teams assigned.
func (f *fixture) playing(ids ...string) {
	f.c.AssignTeams(roster(ids...))
	f.c.OnCountdownStart(3)
	f.c.OnCountdownEnd(0)
}

func countEvents(c *Coordinator, kind EventKind) int {
	n := 0
	for _, e := range c.Events(0) {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestAssignTeams_DeterministicParity(t *testing.T) {
	actors := roster("p0", "p1", "p2", "p3", "p4", "p5")

	a := newFixture(t, "p0", true)
	b := newFixture(t, "p3", false)
	a.c.SetLocalPlayer(nil)
	b.c.SetLocalPlayer(nil)
	a.c.AssignTeams(actors)
	b.c.AssignTeams(actors)

	for _, f := range []*fixture{a, b} {
		assert.Equal(t, []string{"p0", "p2"}, f.c.Roster(model.TeamA))
		assert.Equal(t, []string{"p1", "p3"}, f.c.Roster(model.TeamB))
		assert.Equal(t, model.TeamNone, f.c.TeamOf("p4"), "over capacity in 2v2")
	}
	assert.Equal(t, model.TeamA, a.c.LocalPlayer().Team)
	assert.Equal(t, model.TeamB, b.c.LocalPlayer().Team)

	require.Len(t, a.net.sentOf(protocol.TypeTeamAssignment), 1, "host broadcasts the roster")
	assert.Empty(t, b.net.sentOf(protocol.TypeTeamAssignment))

	msg := a.net.sentOf(protocol.TypeTeamAssignment)[0].(*protocol.TeamAssignment)
	assert.Equal(t, map[string]model.Team{"p0": model.TeamA, "p1": model.TeamB, "p2": model.TeamA, "p3": model.TeamB}, msg.Assignments)
}

func TestHandleTeamAssignment_LateJoiner(t *testing.T) {
	f := newFixture(t, "late", false)
	f.c.SetLocalPlayer(nil)

	f.c.HandleTeamAssignment(&protocol.TeamAssignment{Assignments: map[string]model.Team{
		"h": model.TeamA, "late": model.TeamB, "x": "Z",
	}})

	assert.Equal(t, model.TeamB, f.c.LocalPlayer().Team)
	assert.Equal(t, model.TeamA, f.c.TeamOf("h"))
	assert.Equal(t, model.TeamNone, f.c.TeamOf("x"))

	// a player moved by the host leaves its old team
	f.c.HandleTeamAssignment(&protocol.TeamAssignment{Assignments: map[string]model.Team{"h": model.TeamB}})
	assert.Equal(t, model.TeamB, f.c.TeamOf("h"))
	assert.NotContains(t, f.c.Roster(model.TeamA), "h")
}

func TestCountdownToPlaying(t *testing.T) {
	f := newFixture(t, "h", true)
	local := f.c.SetLocalPlayer(&StaticEntity{})
	f.c.AssignTeams(roster("h", "g"))
	f.c.HandleMapInit(77)

	f.c.OnCountdownStart(3)
	assert.Equal(t, PhaseCountdown, f.c.Phase())

	f.c.Update(0.5)
	assert.Equal(t, 3, f.c.Snapshot().Countdown)
	f.c.Update(1)
	assert.Equal(t, 2, f.c.Snapshot().Countdown)
	ticks := countEvents(f.c, EventCountdown)
	f.c.Update(0.1)
	assert.Equal(t, ticks, countEvents(f.c, EventCountdown), "no event without an integer change")

	f.c.OnCountdownEnd(120)
	assert.Equal(t, PhasePlaying, f.c.Phase())
	assert.True(t, f.c.ArenaGenerated())
	require.Len(t, f.net.configs, 1)
	assert.Equal(t, int64(77), f.net.configs[0].Seed)
	assert.NotEmpty(t, f.c.Arena().Obstacles())
	assert.Contains(t, f.c.Arena().SpawnPoints(model.TeamA), local.Entity.Position())

	snap := f.c.Snapshot()
	assert.Equal(t, 120.0, snap.Remaining)

	// duplicate countdown notifications change nothing
	f.c.OnCountdownEnd(120)
	f.c.OnCountdownStart(3)
	assert.Equal(t, PhasePlaying, f.c.Phase())
	assert.Len(t, f.net.configs, 1)
}

func TestGenerateDynamicArena_OncePerMatch(t *testing.T) {
	f := newFixture(t, "h", true)
	f.c.HandleMapInit(2024)

	require.True(t, f.c.GenerateAndBroadcastDynamicArena())
	obstacles := len(f.c.Arena().Obstacles())
	boxes := len(f.c.Arena().WeaponBoxes())
	entities := len(f.c.Arena().Entities())
	require.NotZero(t, obstacles)

	assert.False(t, f.c.GenerateAndBroadcastDynamicArena())
	assert.Equal(t, obstacles, len(f.c.Arena().Obstacles()))
	assert.Equal(t, boxes, len(f.c.Arena().WeaponBoxes()))
	assert.Equal(t, entities, len(f.c.Arena().Entities()))
	assert.Len(t, f.net.configs, 1)

	// the echo of our own broadcast is a no-op
	f.c.HandleMapConfig(f.net.configs[0])
	assert.Equal(t, entities, len(f.c.Arena().Entities()))

	guest := newFixture(t, "g", false)
	assert.False(t, guest.c.GenerateAndBroadcastDynamicArena())
	assert.Empty(t, guest.c.Arena().Entities())
}

func TestMapInit_DuplicatesAndConfigPriority(t *testing.T) {
	f := newFixture(t, "g", false)

	f.c.HandleMapInit(5)
	static := len(f.c.Arena().Entities())
	f.c.HandleMapInit(5)
	assert.Equal(t, static, len(f.c.Arena().Entities()), "repeated seed is ignored")

	host := newFixture(t, "h", true)
	host.c.HandleMapInit(9)
	require.True(t, host.c.GenerateAndBroadcastDynamicArena())
	doc := host.net.configs[0]

	f.c.HandleMapConfig(doc)
	assert.True(t, doc.Equal(f.c.Arena().ExportMapConfig()))

	// a late seed from a rebroadcast must not wipe the reconciled arena
	f.c.HandleMapInit(9)
	f.c.HandleMapInit(123)
	assert.True(t, doc.Equal(f.c.Arena().ExportMapConfig()))
}

func TestKillClaim_CountedOncePerDeathWindow(t *testing.T) {
	f := newFixture(t, "h", true)
	f.c.SetLocalPlayer(&StaticEntity{Local: true})
	f.playing("h", "v")

	claim := &protocol.PlayerKilled{VictimID: "v", KillerID: "h"}
	f.c.HandlePlayerKilled(claim)
	f.c.HandlePlayerKilled(&protocol.PlayerKilled{VictimID: "v", KillerID: "h"})

	assert.Equal(t, 1, f.c.Score(model.TeamA))
	assert.Equal(t, 1, f.c.LocalPlayer().Kills)
	updates := f.net.sentOf(protocol.TypeScoreUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, &protocol.ScoreUpdate{Team: model.TeamA, Score: 1}, updates[0])

	ghost, ok := f.c.Ghost("v")
	require.True(t, ok)
	assert.Equal(t, "h", ghost.LastKillerID)
	assert.False(t, f.c.RemoteVisible("v"))
	assert.Equal(t, []string{"v"}, f.c.HiddenRemotes())

	// once the window has passed the same pair is a new kill
	f.c.Update(6)
	assert.True(t, f.c.RemoteVisible("v"))
	f.c.HandlePlayerKilled(claim)
	assert.Equal(t, 2, f.c.Score(model.TeamA))
}

func TestKillClaim_NonHostNeverScores(t *testing.T) {
	f := newFixture(t, "g", false)
	f.playing("h", "g")

	f.c.HandlePlayerKilled(&protocol.PlayerKilled{VictimID: "h", KillerID: "g"})
	assert.Equal(t, 0, f.c.Score(model.TeamB))
	assert.Empty(t, f.net.sentOf(protocol.TypeScoreUpdate))

	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamB, Score: 1})
	assert.Equal(t, 1, f.c.Score(model.TeamB))
}

func TestKillClaim_NoScoreOutsidePlaying(t *testing.T) {
	f := newFixture(t, "h", true)
	f.c.AssignTeams(roster("h", "v"))

	f.c.HandlePlayerKilled(&protocol.PlayerKilled{VictimID: "v", KillerID: "h"})
	assert.Equal(t, 0, f.c.Score(model.TeamA))
}

func TestScoreUpdate_MonotonicUnderReordering(t *testing.T) {
	orders := map[string][]int{
		"in order": {1, 2},
		"reversed": {2, 1},
		"repeated": {2, 2, 1, 2},
	}
	for name, scores := range orders {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "g", false)
			f.playing("h", "g")
			for _, s := range scores {
				f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamA, Score: s})
			}
			assert.Equal(t, 2, f.c.Score(model.TeamA))
		})
	}

	f := newFixture(t, "g", false)
	f.playing("h", "g")
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamB, Score: -4})
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: "C", Score: 9})
	assert.Equal(t, 0, f.c.Score(model.TeamB))
}

func TestMatchEnd_TriggersAreEquivalent(t *testing.T) {
	triggers := []struct {
		name   string
		fire   func(c *Coordinator)
		reason EndReason
	}{
		{"elapsed time", func(c *Coordinator) { c.Update(601) }, ReasonTimeLimit},
		{"target score", func(c *Coordinator) {
			c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamB, Score: 3})
		}, ReasonTeamBWin},
		{"time up", func(c *Coordinator) { c.HandleNotification(&protocol.TimeUp{}) }, ReasonTimeLimit},
		{"game end", func(c *Coordinator) { c.HandleNotification(&protocol.GameEnd{}) }, ReasonServerGameEnd},
	}

	for _, tt := range triggers {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "g", false)
			f.playing("h", "g")

			tt.fire(f.c)
			require.Equal(t, PhaseFinished, f.c.Phase())
			require.NotNil(t, f.c.Result())
			assert.Equal(t, tt.reason, f.c.Result().Reason)

			// every other trigger afterwards is ignored
			for _, other := range triggers {
				other.fire(f.c)
			}
			f.c.OnCountdownEnd(60)
			f.c.Update(1)

			assert.Equal(t, PhaseFinished, f.c.Phase())
			assert.Equal(t, tt.reason, f.c.Result().Reason)
			assert.Equal(t, 1, countEvents(f.c, EventResult))
		})
	}
}

func TestMatchEnd_HostAnnouncesTargetScore(t *testing.T) {
	f := newFixture(t, "h", true)
	f.playing("h", "v")

	for i := 0; i < 3; i++ {
		f.c.HandlePlayerKilled(&protocol.PlayerKilled{VictimID: "v", KillerID: "h"})
		f.c.Update(6)
	}

	assert.Equal(t, PhaseFinished, f.c.Phase())
	assert.Equal(t, ReasonTeamAWin, f.c.Result().Reason)
	assert.Equal(t, model.TeamA, f.c.Result().Winner)
	assert.Equal(t, 1, f.net.ends)
}

func TestMatchEnd_WinnerByScore(t *testing.T) {
	f := newFixture(t, "g", false)
	f.playing("h", "g")
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamB, Score: 1})
	f.c.HandleNotification(&protocol.TimeUp{})
	assert.Equal(t, model.TeamB, f.c.Result().Winner)

	draw := newFixture(t, "g", false)
	draw.playing("h", "g")
	draw.c.HandleNotification(&protocol.GameEnd{})
	assert.Equal(t, model.TeamNone, draw.c.Result().Winner)
}

func TestRespawnPlayer(t *testing.T) {
	t.Run("fallback without arena", func(t *testing.T) {
		f := newFixture(t, "g", false)
		for _, team := range model.Teams {
			e := &StaticEntity{}
			p := &Player{Entity: e, Team: team, MaxHealth: 100}
			f.c.RespawnPlayer(p)
			assert.Equal(t, 100.0, p.Health)
			assert.True(t, p.Alive)
			want := FallbackSpawnA
			if team == model.TeamB {
				want = FallbackSpawnB
			}
			assert.Equal(t, want, e.Pos)
		}
	})

	t.Run("team spawn point", func(t *testing.T) {
		f := newFixture(t, "g", false)
		f.c.HandleMapInit(3)
		e := &StaticEntity{Pos: model.V3(99, 99, 99)}
		p := &Player{Entity: e, Team: model.TeamB, MaxHealth: 100}
		f.c.RespawnPlayer(p)
		assert.Contains(t, f.c.Arena().SpawnPoints(model.TeamB), e.Pos)
	})

	t.Run("locally driven entity stays put", func(t *testing.T) {
		f := newFixture(t, "g", false)
		e := &StaticEntity{Pos: model.V3(1, 1, 1), Local: true}
		p := &Player{Entity: e, Team: model.TeamA, MaxHealth: 100}
		f.c.RespawnPlayer(p)
		f.c.RespawnPlayer(p)
		assert.Equal(t, model.V3(1, 1, 1), e.Pos)
		assert.True(t, p.Alive)
	})
}

func TestLocalDeath_ClaimOnceThenRespawn(t *testing.T) {
	f := newFixture(t, "g", false)
	local := f.c.SetLocalPlayer(&StaticEntity{})
	f.playing("h", "g")

	f.c.HandlePlayerHit(&protocol.PlayerHit{TargetID: "g", Damage: 60, ShooterID: "h"})
	assert.Equal(t, 40.0, local.Health)
	f.c.HandlePlayerHit(&protocol.PlayerHit{TargetID: "g", Damage: 60, ShooterID: "h"})
	f.c.HandlePlayerHit(&protocol.PlayerHit{TargetID: "g", Damage: 60, ShooterID: "h"})
	f.c.HandlePlayerHit(&protocol.PlayerHit{TargetID: "other", Damage: 60, ShooterID: "h"})

	assert.False(t, local.Alive)
	assert.Equal(t, 0.0, local.Health)
	assert.Equal(t, 1, local.Deaths)
	claims := f.net.sentOf(protocol.TypePlayerKilled)
	require.Len(t, claims, 1)
	assert.Equal(t, &protocol.PlayerKilled{VictimID: "g", KillerID: "h"}, claims[0])
	assert.Equal(t, 5.0, f.c.Snapshot().RespawnIn)

	f.timer.Advance(4)
	assert.False(t, local.Alive)
	f.timer.Advance(1)
	assert.True(t, local.Alive)
	assert.Equal(t, 100.0, local.Health)
	assert.Equal(t, 0.0, f.c.Snapshot().RespawnIn)
}

func TestReset_ClearsTransientState(t *testing.T) {
	f := newFixture(t, "h", true)
	local := f.c.SetLocalPlayer(&StaticEntity{})
	f.playing("h", "v", "w")
	require.NoError(t, pickupAny(f.c))
	f.c.HandlePlayerKilled(&protocol.PlayerKilled{VictimID: "v", KillerID: "h"})
	f.c.HandlePlayerHit(&protocol.PlayerHit{TargetID: "h", Damage: 200, ShooterID: "v"})
	f.c.HandleNotification(&protocol.GameEnd{})
	require.Equal(t, PhaseFinished, f.c.Phase())

	f.c.HandleNotification(&protocol.GameRestart{})

	assert.Equal(t, PhaseWaiting, f.c.Phase())
	assert.Empty(t, f.c.HiddenRemotes())
	_, ok := f.c.Ghost("v")
	assert.False(t, ok)
	assert.False(t, f.c.ArenaGenerated())
	assert.Empty(t, f.c.Arena().Entities())
	assert.Equal(t, 0, local.Kills)
	assert.Equal(t, 0, local.Deaths)
	assert.True(t, local.Alive)
	assert.Equal(t, "pistol", local.Weapon)
	assert.Equal(t, 0, f.c.Score(model.TeamA))
	assert.Nil(t, f.c.Result())
	assert.Equal(t, []string{"h", "w"}, f.c.Roster(model.TeamA), "rosters survive the reset")
	assert.Equal(t, []string{"v"}, f.c.Roster(model.TeamB))
	assert.Equal(t, model.TeamA, local.Team)
	assert.Equal(t, 0, f.timer.Pending(), "pending respawn is cancelled")

	// the next match generates its arena again
	f.c.HandleMapInit(11)
	f.c.OnCountdownStart(3)
	f.c.OnCountdownEnd(0)
	assert.True(t, f.c.ArenaGenerated())
	assert.Len(t, f.net.configs, 2)
}

// pickupAny picks the first box on the field, if there is one.
func pickupAny(c *Coordinator) error {
	boxes := c.Arena().WeaponBoxes()
	if len(boxes) == 0 {
		return nil
	}
	return c.PickupWeapon(boxes[0].Name)
}

func TestCountdownStartIgnoredWhileFinished(t *testing.T) {
	f := newFixture(t, "g", false)
	f.playing("h", "g")
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamA, Score: 2})
	f.c.HandleNotification(&protocol.GameEnd{})
	require.Equal(t, PhaseFinished, f.c.Phase())

	// a late or duplicated countdown keeps the result on screen
	f.c.HandleNotification(&protocol.CountdownStart{Seconds: 3})
	f.c.HandleNotification(&protocol.CountdownEnd{PlaySeconds: 60})
	assert.Equal(t, PhaseFinished, f.c.Phase())
	require.NotNil(t, f.c.Result())
	assert.Equal(t, ReasonServerGameEnd, f.c.Result().Reason)
	assert.Equal(t, 2, f.c.Score(model.TeamA))

	f.c.HandleNotification(&protocol.GameRestart{})
	f.c.HandleNotification(&protocol.CountdownStart{Seconds: 3})
	assert.Equal(t, PhaseCountdown, f.c.Phase())
	assert.Equal(t, 0, f.c.Score(model.TeamA))
}

func TestDynamicArena_NotRegeneratedAfterMatchEnd(t *testing.T) {
	f := newFixture(t, "h", true)
	f.c.HandleMapInit(5)
	f.playing("h", "g")
	require.Len(t, f.net.configs, 1)
	obstacles := len(f.c.Arena().Obstacles())
	require.NotZero(t, obstacles)

	f.c.EndMatch(ReasonTimeLimit)
	require.Equal(t, PhaseFinished, f.c.Phase())
	assert.True(t, f.c.ArenaGenerated(), "the flag survives until reset")

	assert.False(t, f.c.GenerateAndBroadcastDynamicArena())
	assert.Len(t, f.c.Arena().Obstacles(), obstacles)
	assert.Len(t, f.net.configs, 1)

	f.c.Reset()
	f.c.HandleMapInit(5)
	assert.True(t, f.c.GenerateAndBroadcastDynamicArena())
	assert.Len(t, f.c.Arena().Obstacles(), obstacles, "cleanup precedes the next roll")
	assert.Len(t, f.net.configs, 2)
}

func TestScoreUpdate_IgnoredDuringCountdown(t *testing.T) {
	f := newFixture(t, "g", false)
	f.c.AssignTeams(roster("h", "g"))
	f.c.OnCountdownStart(3)

	// left over from the previous match
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamA, Score: 2})
	assert.Equal(t, 0, f.c.Score(model.TeamA))

	f.c.OnCountdownEnd(0)
	f.c.HandleScoreUpdate(&protocol.ScoreUpdate{Team: model.TeamA, Score: 1})
	assert.Equal(t, 1, f.c.Score(model.TeamA))
}

func TestAssignTeams_LocalOverCapacityStaysUnassigned(t *testing.T) {
	f := newFixture(t, "p4", false)
	local := f.c.SetLocalPlayer(nil)

	f.c.AssignTeams(roster("p0", "p1", "p2", "p3", "p4"))
	assert.Equal(t, model.TeamNone, f.c.TeamOf("p4"))
	assert.Equal(t, model.TeamNone, local.Team)
}

func TestHandleTeamAssignment_RespectsCapacity(t *testing.T) {
	f := newFixture(t, "late", false)
	local := f.c.SetLocalPlayer(nil)

	f.c.HandleTeamAssignment(&protocol.TeamAssignment{Assignments: map[string]model.Team{
		"a1": model.TeamA, "a2": model.TeamA, "late": model.TeamA, "b1": model.TeamB,
	}})
	assert.Equal(t, []string{"a1", "a2"}, f.c.Roster(model.TeamA))
	assert.Equal(t, []string{"b1"}, f.c.Roster(model.TeamB))
	assert.Equal(t, model.TeamNone, local.Team)

	// a repeat of an existing member is not an overflow
	f.c.HandleTeamAssignment(&protocol.TeamAssignment{Assignments: map[string]model.Team{"a1": model.TeamA}})
	assert.Equal(t, []string{"a1", "a2"}, f.c.Roster(model.TeamA))

	f.c.HandleTeamAssignment(&protocol.TeamAssignment{Assignments: map[string]model.Team{"late": model.TeamB}})
	assert.Equal(t, model.TeamB, local.Team)
	assert.Equal(t, []string{"b1", "late"}, f.c.Roster(model.TeamB))
}

func TestWeaponPickup(t *testing.T) {
	doc := &arena.MapConfig{
		ArenaSize:    50,
		WeaponSpawns: []model.Vec3{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}},
		WeaponBoxes: []arena.WeaponBoxSpec{
			{Name: "weapon-box-0", WeaponType: "rifle", SpawnIndex: 0},
			{Name: "weapon-box-1", WeaponType: "shotgun", SpawnIndex: 1},
			{Name: "weapon-box-2", WeaponType: "sniper", SpawnIndex: 2},
		},
	}
	f := newFixture(t, "g", false)
	local := f.c.SetLocalPlayer(&StaticEntity{})
	f.c.HandleMapConfig(doc)
	require.Len(t, f.c.Arena().WeaponBoxes(), 3)

	// remote pickup, found by name
	f.c.HandleWeaponPickup(&protocol.WeaponPickup{PlayerID: "h", WeaponType: "rifle", BoxName: "weapon-box-0", SpawnIndex: 0})
	// remote pickup, name mismatch falls back to the slot
	f.c.HandleWeaponPickup(&protocol.WeaponPickup{PlayerID: "h", WeaponType: "sniper", BoxName: "renamed", SpawnIndex: 2})
	// duplicate delivery is harmless
	f.c.HandleWeaponPickup(&protocol.WeaponPickup{PlayerID: "h", WeaponType: "sniper", BoxName: "renamed", SpawnIndex: 2})
	assert.Len(t, f.c.Arena().WeaponBoxes(), 1)
	assert.Equal(t, "pistol", local.Weapon)

	require.NoError(t, f.c.PickupWeapon("weapon-box-1"))
	assert.Equal(t, "shotgun", local.Weapon)
	assert.Empty(t, f.c.Arena().WeaponBoxes())
	pickups := f.net.sentOf(protocol.TypeWeaponPickup)
	require.Len(t, pickups, 1)
	assert.Equal(t, &protocol.WeaponPickup{PlayerID: "g", WeaponType: "shotgun", BoxName: "weapon-box-1", SpawnIndex: 1}, pickups[0])

	// own echo
	f.c.HandleWeaponPickup(pickups[0].(*protocol.WeaponPickup))
	assert.Equal(t, "shotgun", local.Weapon)

	err := f.c.PickupWeapon("weapon-box-1")
	assert.True(t, errors.Is(err, ErrBoxNotFound))
}

func TestFire_CatalogAndCooldown(t *testing.T) {
	f := newFixture(t, "g", false)
	local := f.c.SetLocalPlayer(&StaticEntity{Pos: model.V3(1, 2, 3), Facing: model.V3(0, 0, -1), Local: true})

	_, err := f.c.Fire("h")
	assert.ErrorIs(t, err, ErrNotPlaying)

	f.playing("h", "g")
	shot, err := f.c.Fire("h")
	require.NoError(t, err)
	assert.Equal(t, Shot{Weapon: "pistol", Target: "h", Damage: 15}, shot)

	_, err = f.c.Fire("h")
	assert.ErrorIs(t, err, ErrWeaponCooldown)

	f.c.Update(0.4)
	local.Weapon = "shotgun"
	f.c.Update(0.9)
	shot, err = f.c.Fire("h")
	require.NoError(t, err)
	assert.Equal(t, 48.0, shot.Damage)

	hits := f.net.sentOf(protocol.TypePlayerHit)
	require.Len(t, hits, 2)
	assert.Equal(t, &protocol.PlayerHit{TargetID: "h", Damage: 15, ShooterID: "g"}, hits[0])
	shots := f.net.sentOf(protocol.TypePlayerShoot)
	require.Len(t, shots, 2)
	assert.Equal(t, model.V3(0, 0, -1), shots[0].(*protocol.PlayerShoot).Direction)
	assert.Equal(t, model.V3(1, 2, 3), shots[0].(*protocol.PlayerShoot).Position)

	// a miss still fires
	f.c.Update(1)
	shot, err = f.c.Fire("")
	require.NoError(t, err)
	assert.Zero(t, shot.Damage)
	assert.Len(t, f.net.sentOf(protocol.TypePlayerHit), 2)
}

func TestPlayAgain(t *testing.T) {
	guest := newFixture(t, "g", false)
	assert.ErrorIs(t, guest.c.PlayAgain(), ErrNotHost)

	host := newFixture(t, "h", true)
	host.playing("h", "g")
	assert.ErrorIs(t, host.c.PlayAgain(), ErrMatchNotFinished)

	host.c.HandleNotification(&protocol.TimeUp{})
	require.NoError(t, host.c.PlayAgain())
	assert.Equal(t, 1, host.net.restarts)
}

func TestHandleNotification_StartControl(t *testing.T) {
	f := newFixture(t, "h", true)

	f.c.HandleNotification(&protocol.AllPlayersReady{PlayerIDs: []string{"h", "g"}})
	f.c.HandleNotification(&protocol.GameError{Kind: protocol.GameErrorNotAllPlayersReady})

	assert.Equal(t, 2, countEvents(f.c, EventStartAvailable))
	assert.Equal(t, 1, countEvents(f.c, EventGameError))
	assert.Equal(t, PhaseWaiting, f.c.Phase())
}

func TestEvents_SinceAndSink(t *testing.T) {
	f := newFixture(t, "g", false)
	var sunk []Event
	f.c.SetEventSink(func(e Event) { sunk = append(sunk, e) })

	f.playing("h", "g")
	all := f.c.Events(0)
	require.NotEmpty(t, all)
	assert.Equal(t, len(all), len(sunk))

	last := all[len(all)-1].Seq
	assert.Empty(t, f.c.Events(last))
	f.c.HandleNotification(&protocol.GameEnd{})
	assert.NotEmpty(t, f.c.Events(last))
}
