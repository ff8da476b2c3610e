package task

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Handle owns scheduled work so it can be cancelled. A nil Handle is valid
// and cancelling it does nothing.
type Handle struct {
	timer     Timer
	id        string
	cancelled atomic.Bool
	done      atomic.Bool
	fired     atomic.Int32
}

// ID is the task id the handle schedules under.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// Cancel stops further firings. A firing already running completes.
func (h *Handle) Cancel() {
	if h == nil || h.cancelled.Swap(true) {
		return
	}
	if h.done.Load() {
		return
	}
	// the task may be mid-flight and off the wheel, the flag covers that case
	_ = h.timer.RemoveTask(h.id)
}

// Active reports whether more firings may still happen.
func (h *Handle) Active() bool {
	return h != nil && !h.cancelled.Load() && !h.done.Load()
}

// Fired is how many times the work has run.
func (h *Handle) Fired() int {
	if h == nil {
		return 0
	}
	return int(h.fired.Load())
}

// Repeat runs fn every interval seconds, times times in total. A times of
// zero or less repeats until cancelled. fn receives the 1-based round.
func Repeat(timer Timer, id string, interval, times int, fn func(round int)) *Handle {
	h := &Handle{timer: timer, id: id}

	var schedule func()
	schedule = func() {
		t := NewTask(id, interval, func(ctx context.Context) error {
			if h.cancelled.Load() {
				return nil
			}
			round := int(h.fired.Add(1))
			fn(round)

			if times > 0 && round >= times {
				h.done.Store(true)
				return nil
			}
			if !h.cancelled.Load() {
				schedule()
			}
			return nil
		})
		if err := timer.AddTask(t); err != nil {
			slog.Default().Warn("Repeat task not scheduled", "task", id, "error", err)
			h.done.Store(true)
		}
	}
	schedule()

	return h
}

// After runs fn once, seconds from now.
func After(timer Timer, id string, seconds int, fn func()) *Handle {
	return Repeat(timer, id, seconds, 1, func(int) { fn() })
}
