package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func noop(context.Context) error { return nil }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestTimeWheelTick(t *testing.T) {
	wheel := NewTimeWheel()
	wheel.AddTask(NewTask("task-1", 1, noop))
	wheel.AddTask(NewTask("task-3", 3, noop))

	if got := wheel.Tick(); len(got) != 1 || got[0].ID != "task-1" {
		t.Fatalf("first tick = %v, want task-1", got)
	}
	if got := wheel.Tick(); len(got) != 0 {
		t.Fatalf("second tick = %v, want nothing", got)
	}
	if got := wheel.Tick(); len(got) != 1 || got[0].ID != "task-3" {
		t.Fatalf("third tick = %v, want task-3", got)
	}
	if wheel.Pending() != 0 {
		t.Errorf("pending = %d, want 0", wheel.Pending())
	}
}

func TestTimeWheelLongDelayUsesRounds(t *testing.T) {
	wheel := NewTimeWheel()
	wheel.AddTask(NewTask("long", SlotCount+5, noop))

	for i := 1; i < SlotCount+5; i++ {
		if got := wheel.Tick(); len(got) != 0 {
			t.Fatalf("tick %d fired %v early", i, got)
		}
	}
	if got := wheel.Tick(); len(got) != 1 {
		t.Fatalf("tick %d fired %d tasks, want 1", SlotCount+5, len(got))
	}
}

func TestTimeWheelSameIDReplaces(t *testing.T) {
	wheel := NewTimeWheel()
	wheel.AddTask(NewTask("dup", 1, noop))
	wheel.AddTask(NewTask("dup", 2, noop))

	if wheel.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", wheel.Pending())
	}
	if got := wheel.Tick(); len(got) != 0 {
		t.Fatalf("replaced task still fired at its old slot")
	}
	if got := wheel.Tick(); len(got) != 1 {
		t.Fatalf("replacement did not fire")
	}
}

func TestTimeWheelRemove(t *testing.T) {
	wheel := NewTimeWheel()
	wheel.AddTask(NewTask("gone", 2, noop))

	if !wheel.RemoveTask("gone") {
		t.Fatal("expected remove to succeed")
	}
	if wheel.RemoveTask("gone") {
		t.Fatal("second remove should report nothing removed")
	}
	wheel.Tick()
	if got := wheel.Tick(); len(got) != 0 {
		t.Fatalf("removed task fired: %v", got)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(2, WithTickInterval(10*time.Millisecond))

	if err := s.AddTask(NewTask("early", 1, noop)); !errors.Is(err, ErrSchedulerNotRunning) {
		t.Fatalf("AddTask before Start = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start should fail")
	}
	if !s.IsRunning() {
		t.Error("expected running")
	}

	s.Stop()
	s.Stop()
	if s.IsRunning() {
		t.Error("expected stopped")
	}
}

func TestSchedulerValidation(t *testing.T) {
	s := NewScheduler(1, WithTickInterval(10*time.Millisecond))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	tests := []struct {
		name string
		task *Task
	}{
		{"nil", nil},
		{"empty id", NewTask("", 1, noop)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AddTask(tt.task); !errors.Is(err, ErrInvalidTask) {
				t.Errorf("AddTask = %v, want ErrInvalidTask", err)
			}
		})
	}

	if err := s.RemoveTask("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("RemoveTask = %v, want ErrTaskNotFound", err)
	}
}

func TestSchedulerExecutesTasks(t *testing.T) {
	s := NewScheduler(4, WithTickInterval(10*time.Millisecond))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	var executed atomic.Int32
	for i := 0; i < 50; i++ {
		task := NewTask(fmt.Sprintf("task-%d", i), 1+i%3, func(context.Context) error {
			executed.Add(1)
			return nil
		})
		if err := s.AddTask(task.WithOwner("channel-1")); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, 2*time.Second, func() bool { return executed.Load() == 50 })
	if stats := s.Stats(); stats.Pending != 0 || stats.Workers != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWorkerPoolRecoversFromPanic(t *testing.T) {
	s := NewScheduler(2, WithTickInterval(10*time.Millisecond))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	var executed atomic.Int32
	s.AddTask(NewTask("panics", 1, func(context.Context) error {
		executed.Add(1)
		panic("boom")
	}))
	s.AddTask(NewTask("fails", 1, func(context.Context) error {
		executed.Add(1)
		return errors.New("nope")
	}))
	s.AddTask(NewTask("fine", 2, func(context.Context) error {
		executed.Add(1)
		return nil
	}))

	waitFor(t, 2*time.Second, func() bool { return executed.Load() == 3 })
}

func BenchmarkTimeWheelTick(b *testing.B) {
	wheel := NewTimeWheel()
	for i := 0; i < 1000; i++ {
		wheel.AddTask(NewTask(fmt.Sprintf("task-%d", i), 1+i%120, noop))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wheel.Tick()
	}
}
