package task

import "sync"

// SlotCount is the number of positions on the wheel, one per tick.
const SlotCount = 60

// TimeWheel is a single level hashed wheel. Delays longer than one
// revolution are parked with a round counter.
type TimeWheel struct {
	mu      sync.Mutex
	slots   [SlotCount]*Slot
	current int
	index   map[string]int // task id -> slot
}

func NewTimeWheel() *TimeWheel {
	tw := &TimeWheel{index: make(map[string]int)}
	for i := range tw.slots {
		tw.slots[i] = NewSlot()
	}
	return tw
}

// AddTask places the task Delay ticks ahead of the current position.
func (tw *TimeWheel) AddTask(task *Task) {
	delay := task.Delay
	if delay < 1 {
		delay = 1
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[task.ID]; ok {
		tw.slots[old].remove(task.ID)
	}

	slot := (tw.current + delay) % SlotCount
	task.rounds = (delay - 1) / SlotCount
	tw.slots[slot].add(task)
	tw.index[task.ID] = slot
}

// RemoveTask drops a pending task wherever it sits on the wheel.
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].remove(taskID)
}

// Tick advances one position and returns the tasks that are due.
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.current = (tw.current + 1) % SlotCount
	due := tw.slots[tw.current].expire()
	for _, task := range due {
		delete(tw.index, task.ID)
	}
	return due
}

func (tw *TimeWheel) CurrentSlot() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.current
}

// Pending is the number of tasks still waiting to fire.
func (tw *TimeWheel) Pending() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return len(tw.index)
}

func (tw *TimeWheel) Has(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	_, ok := tw.index[taskID]
	return ok
}
