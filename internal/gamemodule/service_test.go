package gamemodule

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/protocol"
	"github.com/jjweiting/hackthon001/internal/task/tasktest"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]protocol.Notification
}

func (r *recordingNotifier) Publish(channelID string, n protocol.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string][]protocol.Notification)
	}
	r.sent[channelID] = append(r.sent[channelID], n)
	return nil
}

func (r *recordingNotifier) types(channelID string) []protocol.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.NotificationType
	for _, n := range r.sent[channelID] {
		out = append(out, n.NotificationType())
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

func newService(t *testing.T) (*Service, *recordingNotifier, *tasktest.Manual) {
	t.Helper()
	notifier := &recordingNotifier{}
	timer := tasktest.New()
	defaults := DefaultsFromConfig(config.GameModuleConfig{ReadySeconds: 3, PlaySeconds: 10, MinPlayers: 2, MaxPlayers: 4})
	return NewService(notifier, timer, defaults), notifier, timer
}

func request(action protocol.GameAction, session string) *protocol.GameRequest {
	return &protocol.GameRequest{Action: action, Channel: "battle", SessionID: session}
}

func TestService_JoinAnnouncesReadiness(t *testing.T) {
	svc, notifier, _ := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	assert.Equal(t, []protocol.NotificationType{protocol.NotifyWaitForPlayers}, notifier.types("battle"))

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	assert.Equal(t, []protocol.NotificationType{
		protocol.NotifyWaitForPlayers,
		protocol.NotifyWaitForPlayers,
		protocol.NotifyAllPlayersReady,
		protocol.NotifyMasterNotify,
	}, notifier.types("battle"))

	info, ok := svc.Session("battle")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, info.Players)
	assert.Equal(t, PhaseIdle, info.Phase)
}

func TestService_StartRequiresPlayers(t *testing.T) {
	svc, notifier, _ := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))

	var kinds []string
	for _, n := range notifier.sent["battle"] {
		if e, ok := n.(*protocol.GameError); ok {
			kinds = append(kinds, e.Kind)
		}
	}
	assert.Equal(t, []string{protocol.GameErrorNotAllPlayersReady, protocol.GameErrorNotAllPlayersReady}, kinds)
}

func TestService_CountdownThenTimeUp(t *testing.T) {
	svc, notifier, timer := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	notifier.reset()

	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "b"))
	assert.Equal(t, []protocol.NotificationType{protocol.NotifyCountdownStart}, notifier.types("battle"))

	timer.Advance(3)
	info, _ := svc.Session("battle")
	assert.Equal(t, PhasePlaying, info.Phase)
	assert.Equal(t, &protocol.CountdownEnd{PlaySeconds: 10}, notifier.sent["battle"][1])

	timer.Advance(10)
	assert.Equal(t, []protocol.NotificationType{
		protocol.NotifyCountdownStart,
		protocol.NotifyCountdownEnd,
		protocol.NotifyTimeUp,
	}, notifier.types("battle"))
	info, _ = svc.Session("battle")
	assert.Equal(t, PhaseEnded, info.Phase)
}

func TestService_EndCancelsTimers(t *testing.T) {
	svc, notifier, timer := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))
	timer.Advance(3)
	notifier.reset()

	svc.HandleGameRequest(ctx, request(protocol.ActionEnd, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionEnd, "a"))
	timer.Advance(20)

	assert.Equal(t, []protocol.NotificationType{protocol.NotifyGameEnd}, notifier.types("battle"))
	assert.Zero(t, timer.Pending())
}

func TestService_RestartAllowsNewMatch(t *testing.T) {
	svc, notifier, timer := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionRestart, "a"))
	notifier.reset()

	timer.Advance(5)
	assert.Empty(t, notifier.types("battle"), "restart cancels the countdown")

	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "a"))
	timer.Advance(3)
	assert.Equal(t, []protocol.NotificationType{protocol.NotifyCountdownStart, protocol.NotifyCountdownEnd}, notifier.types("battle"))
}

func TestService_LeaveClosesEmptySession(t *testing.T) {
	svc, notifier, _ := newService(t)
	ctx := context.Background()

	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "a"))
	svc.HandleGameRequest(ctx, request(protocol.ActionJoin, "b"))
	assert.Equal(t, 1, svc.Count())
	notifier.reset()

	svc.HandleGameRequest(ctx, request(protocol.ActionLeave, "a"))
	assert.Equal(t, []protocol.Notification{&protocol.MasterNotify{MasterID: "b"}}, notifier.sent["battle"])

	svc.HandleGameRequest(ctx, request(protocol.ActionLeave, "b"))
	_, ok := svc.Session("battle")
	assert.False(t, ok)
	assert.Zero(t, svc.Count())
}

func TestService_JoinOptionsOverrideDefaults(t *testing.T) {
	svc, notifier, timer := newService(t)
	ctx := context.Background()

	req := request(protocol.ActionJoin, "solo")
	req.Options = &protocol.GameOptions{MinPlayers: 1, ReadySeconds: 1, PlaySeconds: 2}
	svc.HandleGameRequest(ctx, req)
	svc.HandleGameRequest(ctx, request(protocol.ActionStart, "solo"))
	timer.Advance(3)

	assert.Contains(t, notifier.types("battle"), protocol.NotifyTimeUp)
}
