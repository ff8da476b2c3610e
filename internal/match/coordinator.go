// Package match runs one peer's view of a team match: phases, teams, scores,
// kill claims, respawns and the arena lifecycle.
//
// A Coordinator is not safe for concurrent use; the peer loop owns it.
package match

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/jjweiting/hackthon001/internal/arena"
	"github.com/jjweiting/hackthon001/internal/model"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task"
)

// Phase is the match lifecycle: waiting, countdown, playing, finished, and
// back to waiting on reset.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// EndReason says what finished a match.
type EndReason string

const (
	ReasonTimeLimit     EndReason = "time_limit"
	ReasonTeamAWin      EndReason = "team_a_win"
	ReasonTeamBWin      EndReason = "team_b_win"
	ReasonServerGameEnd EndReason = "server_game_end"
	ReasonLeft          EndReason = "left"
)

// Network is what the coordinator needs from the channel layer.
type Network interface {
	SessionID() string
	IsHost() bool
	Send(msg protocol.Message)
	BroadcastMapConfig(doc *arena.MapConfig)
	// EndGame announces the end of the match to the game module.
	EndGame()
	// RestartGame asks the game module for a new round.
	RestartGame()
}

// Fallback spawn positions used before any arena exists.
var (
	FallbackSpawnA = model.V3(-20, 2, 0)
	FallbackSpawnB = model.V3(20, 2, 0)
)

type Coordinator struct {
	opts   Options
	net    Network
	arena  *arena.Generator
	timer  task.Timer
	rnd    *rand.Rand
	logger *slog.Logger

	phase    Phase
	now      float64
	scores   map[model.Team]int
	rosters  map[model.Team][]string
	duration float64

	matchTime     float64
	countdownLeft float64
	countdownShow int

	mapSeed        int64
	hasSeed        bool
	applied        *arena.MapConfig
	arenaGenerated bool
	matchStarted   bool

	local     *Player
	lastShot  float64
	respawnIn float64
	respawn   *task.Handle

	ghosts map[string]*Ghost
	claims map[string]claim

	result *Result
	events eventLog
}

func NewCoordinator(opts Options, net Network, gen *arena.Generator, timer task.Timer) *Coordinator {
	opts = opts.withDefaults()
	if gen == nil {
		gen = arena.NewGenerator(arena.DefaultOptions(), nil)
	}
	return &Coordinator{
		opts:     opts,
		net:      net,
		arena:    gen,
		timer:    timer,
		rnd:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		logger:   slog.Default().With("component", "match", "sessionId", net.SessionID()),
		phase:    PhaseWaiting,
		scores:   map[model.Team]int{model.TeamA: 0, model.TeamB: 0},
		rosters:  map[model.Team][]string{model.TeamA: nil, model.TeamB: nil},
		duration: opts.MatchDuration.Seconds(),
		lastShot: math.Inf(-1),
		ghosts:   make(map[string]*Ghost),
		claims:   make(map[string]claim),
	}
}

// SetEventSink forwards every future event to fn as well as the event log.
func (c *Coordinator) SetEventSink(fn func(Event)) {
	c.events.sink = fn
}

// SetLocalPlayer installs the controllable entity once the host application
// has one. Team membership already computed from the roster is kept.
func (c *Coordinator) SetLocalPlayer(e Entity) *Player {
	self := c.net.SessionID()
	c.local = &Player{
		SessionID: self,
		Entity:    e,
		Team:      c.TeamOf(self),
		Health:    c.opts.MaxHealth,
		MaxHealth: c.opts.MaxHealth,
		Weapon:    c.opts.DefaultWeapon,
		Alive:     true,
	}
	return c.local
}

func (c *Coordinator) LocalPlayer() *Player { return c.local }
func (c *Coordinator) Phase() Phase         { return c.phase }
func (c *Coordinator) Arena() *arena.Generator {
	return c.arena
}

func (c *Coordinator) Score(team model.Team) int {
	return c.scores[team]
}

func (c *Coordinator) emit(e Event) {
	e.Time = c.now
	if e.Phase == "" {
		e.Phase = c.phase
	}
	c.events.emit(e)
}

// Events returns the retained events with a sequence number above seq.
func (c *Coordinator) Events(seq uint64) []Event {
	return c.events.since(seq)
}

func (c *Coordinator) setPhase(p Phase) {
	if c.phase == p {
		return
	}
	c.logger.Info("Match phase", "from", c.phase, "to", p)
	c.phase = p
	c.emit(Event{Kind: EventPhase})
}

// AssignTeams applies the alternating-parity rule to the ordered roster, up
// to the game mode's per-team capacity. The host also broadcasts the result.
func (c *Coordinator) AssignTeams(actors []model.Actor) {
	if actors == nil {
		return
	}
	capacity := model.TeamCapacity(c.opts.GameMode)
	rosters := map[model.Team][]string{model.TeamA: nil, model.TeamB: nil}

	self := c.net.SessionID()
	localTeam := model.TeamNone
	for i, a := range actors {
		team := model.TeamForIndex(i)
		if len(rosters[team]) >= capacity {
			continue
		}
		rosters[team] = append(rosters[team], a.SessionID)
		if a.SessionID == self {
			localTeam = team
		}
	}
	c.rosters = rosters
	if c.local != nil {
		c.local.Team = localTeam
	}
	c.emit(Event{Kind: EventTeams})

	if c.net.IsHost() {
		c.broadcastTeamAssignment()
	}
}

func (c *Coordinator) broadcastTeamAssignment() {
	assignments := make(map[string]model.Team)
	for _, team := range model.Teams {
		for _, id := range c.rosters[team] {
			assignments[id] = team
		}
	}
	c.net.Send(&protocol.TeamAssignment{Assignments: assignments})
}

// HandleTeamAssignment merges the host roster so late joiners converge.
// Players that would overflow a full team are left unassigned.
func (c *Coordinator) HandleTeamAssignment(msg *protocol.TeamAssignment) {
	if msg == nil || len(msg.Assignments) == 0 {
		return
	}
	capacity := model.TeamCapacity(c.opts.GameMode)
	ids := make([]string, 0, len(msg.Assignments))
	for id := range msg.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		team := msg.Assignments[id]
		if !team.Valid() || contains(c.rosters[team], id) {
			continue
		}
		if len(c.rosters[team]) >= capacity {
			c.logger.Warn("Team assignment over capacity ignored", "sessionId", id, "team", team)
			continue
		}
		c.rosters[team.Opponent()] = without(c.rosters[team.Opponent()], id)
		c.rosters[team] = append(c.rosters[team], id)
	}
	if c.local != nil {
		c.local.Team = c.TeamOf(c.local.SessionID)
	}
}

// TeamOf returns the team sessionID plays for, TeamNone if unassigned.
func (c *Coordinator) TeamOf(sessionID string) model.Team {
	for _, team := range model.Teams {
		if contains(c.rosters[team], sessionID) {
			return team
		}
	}
	return model.TeamNone
}

// Roster returns a copy of a team's session ids.
func (c *Coordinator) Roster(team model.Team) []string {
	return append([]string(nil), c.rosters[team]...)
}

// OnCountdownStart arms the local countdown. It only applies while waiting;
// a finished match stays finished until a restart or Reset.
func (c *Coordinator) OnCountdownStart(seconds int) {
	if c.phase != PhaseWaiting {
		c.logger.Debug("Countdown start ignored", "phase", c.phase)
		return
	}
	if seconds <= 0 {
		seconds = c.opts.DefaultCountdown
	}
	c.countdownLeft = float64(seconds)
	c.countdownShow = seconds
	c.setPhase(PhaseCountdown)
	c.emit(Event{Kind: EventCountdown, Seconds: seconds})
}

// OnCountdownEnd enters playing once per match. playSeconds, when positive,
// overrides the configured match duration.
func (c *Coordinator) OnCountdownEnd(playSeconds int) {
	if c.phase == PhasePlaying || c.phase == PhaseFinished {
		return
	}
	if playSeconds > 0 {
		c.duration = float64(playSeconds)
	}
	c.enterPlaying()
}

func (c *Coordinator) enterPlaying() {
	if c.matchStarted {
		return
	}
	c.matchStarted = true
	c.matchTime = 0
	c.countdownLeft = 0
	c.setPhase(PhasePlaying)

	if c.net.IsHost() {
		c.GenerateAndBroadcastDynamicArena()
	}
	if c.local != nil {
		c.RespawnPlayer(c.local)
	}
}

// Update advances the match clock by dt seconds.
func (c *Coordinator) Update(dt float64) {
	if dt < 0 {
		return
	}
	c.now += dt

	switch c.phase {
	case PhaseCountdown:
		c.countdownLeft -= dt
		shown := max(0, int(math.Ceil(c.countdownLeft)))
		if shown != c.countdownShow {
			c.countdownShow = shown
			c.emit(Event{Kind: EventCountdown, Seconds: shown})
		}
	case PhasePlaying:
		c.matchTime += dt
		if c.respawnIn > 0 {
			c.respawnIn = max(0, c.respawnIn-dt)
		}
		if c.matchTime >= c.duration {
			c.EndMatch(ReasonTimeLimit)
			return
		}
		c.checkTargetScore()
	}
}

// checkTargetScore ends the match when a team reaches the target. Only the
// host tells the game module; every peer finishes locally.
func (c *Coordinator) checkTargetScore() {
	if c.phase != PhasePlaying {
		return
	}
	var reason EndReason
	switch {
	case c.scores[model.TeamA] >= c.opts.TargetScore:
		reason = ReasonTeamAWin
	case c.scores[model.TeamB] >= c.opts.TargetScore:
		reason = ReasonTeamBWin
	default:
		return
	}
	if c.net.IsHost() {
		c.net.EndGame()
	}
	c.EndMatch(reason)
}

// EndMatch finishes a running match exactly once.
func (c *Coordinator) EndMatch(reason EndReason) {
	if c.phase != PhaseCountdown && c.phase != PhasePlaying {
		c.logger.Debug("End trigger ignored", "reason", reason, "phase", c.phase)
		return
	}
	c.matchStarted = false
	c.respawnIn = 0

	c.result = &Result{
		Reason: reason,
		Winner: c.winner(reason),
		ScoreA: c.scores[model.TeamA],
		ScoreB: c.scores[model.TeamB],
	}
	c.setPhase(PhaseFinished)
	c.emit(Event{Kind: EventResult, Reason: reason, Team: c.result.Winner})
	c.logger.Info("Match finished", "reason", reason, "winner", c.result.Winner,
		"scoreA", c.result.ScoreA, "scoreB", c.result.ScoreB)
}

func (c *Coordinator) winner(reason EndReason) model.Team {
	switch reason {
	case ReasonTeamAWin:
		return model.TeamA
	case ReasonTeamBWin:
		return model.TeamB
	}
	a, b := c.scores[model.TeamA], c.scores[model.TeamB]
	switch {
	case a > b:
		return model.TeamA
	case b > a:
		return model.TeamB
	default:
		return model.TeamNone
	}
}

// Result is the last match outcome, nil until a match finishes.
func (c *Coordinator) Result() *Result {
	return c.result
}

// HandleNotification applies a game module lifecycle notification.
func (c *Coordinator) HandleNotification(n protocol.Notification) {
	switch v := n.(type) {
	case *protocol.CountdownStart:
		c.OnCountdownStart(v.Seconds)
	case *protocol.CountdownEnd:
		c.OnCountdownEnd(v.PlaySeconds)
	case *protocol.TimeUp:
		c.EndMatch(ReasonTimeLimit)
	case *protocol.GameEnd:
		c.EndMatch(ReasonServerGameEnd)
	case *protocol.GameRestart:
		c.Reset()
	case *protocol.AllPlayersReady:
		c.emit(Event{Kind: EventStartAvailable})
	case *protocol.GameError:
		// recoverable, the start control comes back
		c.emit(Event{Kind: EventGameError, Detail: v.Kind})
		c.emit(Event{Kind: EventStartAvailable})
	}
}

// PlayAgain asks the game module for a new round. Host only.
func (c *Coordinator) PlayAgain() error {
	if !c.net.IsHost() {
		return ErrNotHost
	}
	if c.phase != PhaseFinished {
		return ErrMatchNotFinished
	}
	c.net.RestartGame()
	return nil
}

// Reset returns to waiting. Team rosters survive, everything scoped to
// the finished match does not.
func (c *Coordinator) Reset() {
	c.respawn.Cancel()
	c.respawn = nil

	c.scores = map[model.Team]int{model.TeamA: 0, model.TeamB: 0}
	c.matchTime = 0
	c.countdownLeft = 0
	c.countdownShow = 0
	c.duration = c.opts.MatchDuration.Seconds()
	c.mapSeed = 0
	c.hasSeed = false
	c.applied = nil
	c.arenaGenerated = false
	c.matchStarted = false
	c.respawnIn = 0
	c.lastShot = math.Inf(-1)
	c.result = nil
	clear(c.ghosts)
	clear(c.claims)

	if c.local != nil {
		c.local.Health = c.local.MaxHealth
		c.local.Alive = true
		c.local.Kills = 0
		c.local.Deaths = 0
		c.local.Weapon = c.opts.DefaultWeapon
	}

	c.arena.Cleanup()
	c.setPhase(PhaseWaiting)
}

// Snapshot returns the queryable HUD state.
func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		Phase:          c.phase,
		ScoreA:         c.scores[model.TeamA],
		ScoreB:         c.scores[model.TeamB],
		TargetScore:    c.opts.TargetScore,
		TeamA:          c.Roster(model.TeamA),
		TeamB:          c.Roster(model.TeamB),
		MatchTime:      c.matchTime,
		Countdown:      c.countdownShow,
		RespawnIn:      c.respawnIn,
		MapSeed:        c.mapSeed,
		ArenaGenerated: c.arenaGenerated,
		Obstacles:      len(c.arena.Obstacles()),
		WeaponBoxes:    len(c.arena.WeaponBoxes()),
		Hidden:         c.HiddenRemotes(),
		Result:         c.result,
		IsHost:         c.net.IsHost(),
		Events:         c.events.seq,
	}
	if c.phase == PhasePlaying {
		s.Remaining = max(0, c.duration-c.matchTime)
	}
	if c.local != nil {
		p := *c.local
		s.Local = &p
	}
	return s
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
