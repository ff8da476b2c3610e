package task_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjweiting/hackthon001/internal/task"
	"github.com/jjweiting/hackthon001/internal/task/tasktest"
)

func TestRepeat_BoundedRepetitions(t *testing.T) {
	timer := tasktest.New()
	var rounds []int

	h := task.Repeat(timer, "map-init", 1, 2, func(round int) {
		rounds = append(rounds, round)
	})
	assert.True(t, h.Active())

	timer.Advance(5)

	assert.Equal(t, []int{1, 2}, rounds)
	assert.Equal(t, 2, h.Fired())
	assert.False(t, h.Active())
	assert.Zero(t, timer.Pending())
}

func TestRepeat_CancelStopsFurtherRounds(t *testing.T) {
	timer := tasktest.New()
	fired := 0

	h := task.Repeat(timer, "map-config", 1, 3, func(int) { fired++ })
	timer.Advance(1)
	h.Cancel()
	h.Cancel()
	timer.Advance(5)

	assert.Equal(t, 1, fired)
	assert.False(t, timer.Has("map-config"))
}

func TestRepeat_CancelFromInsideRound(t *testing.T) {
	timer := tasktest.New()
	var h *task.Handle
	fired := 0

	h = task.Repeat(timer, "self-cancel", 1, 0, func(round int) {
		fired++
		if round == 2 {
			h.Cancel()
		}
	})
	timer.Advance(10)

	assert.Equal(t, 2, fired)
	assert.Zero(t, timer.Pending())
}

func TestRepeat_Unbounded(t *testing.T) {
	timer := tasktest.New()
	fired := 0

	h := task.Repeat(timer, "heartbeat", 2, 0, func(int) { fired++ })
	timer.Advance(10)

	assert.Equal(t, 5, fired)
	assert.True(t, h.Active())
}

func TestAfter(t *testing.T) {
	timer := tasktest.New()
	fired := false

	h := task.After(timer, "respawn", 5, func() { fired = true })
	timer.Advance(4)
	assert.False(t, fired)
	timer.Advance(1)
	assert.True(t, fired)
	assert.False(t, h.Active())
}

func TestNilHandle(t *testing.T) {
	var h *task.Handle
	h.Cancel()
	assert.False(t, h.Active())
	assert.Zero(t, h.Fired())
	assert.Empty(t, h.ID())
}

func TestAfter_OnScheduler(t *testing.T) {
	s := task.NewScheduler(2, task.WithTickInterval(10*time.Millisecond))
	require.NoError(t, s.Start())
	defer s.Stop()

	var fired atomic.Bool
	task.After(s, "later", 3, func() { fired.Store(true) })

	assert.Eventually(t, fired.Load, 2*time.Second, 5*time.Millisecond)
}
