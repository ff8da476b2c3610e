// Package tasktest provides a task.Timer that only moves when a test says so.
package tasktest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jjweiting/hackthon001/internal/task"
)

type entry struct {
	task *task.Task
	due  int
	seq  int
}

// Manual fires tasks synchronously from Advance, in scheduling order.
type Manual struct {
	mu      sync.Mutex
	now     int
	seq     int
	pending map[string]entry
}

func New() *Manual {
	return &Manual{pending: make(map[string]entry)}
}

func (m *Manual) AddTask(t *task.Task) error {
	if t == nil || t.ID == "" {
		return task.ErrInvalidTask
	}
	delay := t.Delay
	if delay < 1 {
		delay = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending[t.ID] = entry{task: t, due: m.now + delay, seq: m.seq}
	return nil
}

func (m *Manual) RemoveTask(taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[taskID]; !ok {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, taskID)
	}
	delete(m.pending, taskID)
	return nil
}

// Advance moves the clock one second at a time, running whatever comes due.
// Tasks scheduled by a firing task are honored within the same call.
func (m *Manual) Advance(seconds int) {
	for i := 0; i < seconds; i++ {
		m.mu.Lock()
		m.now++
		var due []entry
		for id, e := range m.pending {
			if e.due <= m.now {
				due = append(due, e)
				delete(m.pending, id)
			}
		}
		m.mu.Unlock()

		sort.Slice(due, func(a, b int) bool { return due[a].seq < due[b].seq })
		for _, e := range due {
			_ = e.task.Execute(context.Background())
		}
	}
}

// Pending is the number of tasks waiting to fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) Has(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[taskID]
	return ok
}

// Now is the number of seconds advanced so far.
func (m *Manual) Now() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
