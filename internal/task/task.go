package task

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSchedulerNotRunning = errors.New("SCHEDULER_NOT_RUNNING")
	ErrInvalidTask         = errors.New("INVALID_TASK")
	ErrTaskNotFound        = errors.New("TASK_NOT_FOUND")
)

// TaskFunc is the work a task runs when it fires.
type TaskFunc func(ctx context.Context) error

// Task is one delayed unit of work. IDs are unique per timer; adding a task
// with an ID already scheduled replaces the earlier one.
type Task struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"` // channel or session the work belongs to, for logs
	Delay     int       `json:"delay"` // seconds, values below 1 fire on the next tick
	Fn        TaskFunc  `json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	rounds int
}

// NewTask creates a task firing delay seconds after it is added.
func NewTask(id string, delay int, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// WithOwner tags the task for logging.
func (t *Task) WithOwner(owner string) *Task {
	t.Owner = owner
	return t
}

// Execute runs the task function.
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx)
}

// Timer is what delayed work is scheduled on. Scheduler is the real one,
// tasktest.Manual the one tests drive by hand.
type Timer interface {
	AddTask(task *Task) error
	RemoveTask(taskID string) error
}

func validate(task *Task) error {
	if task == nil {
		return errors.Join(ErrInvalidTask, errors.New("nil task"))
	}
	if task.ID == "" {
		return errors.Join(ErrInvalidTask, errors.New("empty task id"))
	}
	return nil
}
