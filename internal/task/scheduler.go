package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	Running     bool `json:"running"`
	CurrentSlot int  `json:"currentSlot"`
	Pending     int  `json:"pending"`
	Workers     int  `json:"workers"`
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithTickInterval changes the wheel resolution. Delays stay expressed in ticks.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Scheduler drives a TimeWheel from a ticker and runs due tasks on a
// worker pool.
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	interval   time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

func NewScheduler(workerCount int, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		wheel:      NewTimeWheel(),
		workerPool: NewWorkerPool(workerCount),
		interval:   time.Second,
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "task.scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.runningMu.Unlock()

	s.workerPool.Start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("Scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.onTick()
		}
	}
}

func (s *Scheduler) onTick() {
	tasks := s.wheel.Tick()
	if len(tasks) == 0 {
		return
	}

	s.logger.Debug("Tick", "slot", s.wheel.CurrentSlot(), "due", len(tasks))
	s.workerPool.SubmitBatch(tasks)
}

func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.workerPool.Stop()

	s.logger.Info("Scheduler stopped", "pending", s.wheel.Pending())
}

func (s *Scheduler) AddTask(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if err := validate(task); err != nil {
		return err
	}

	s.wheel.AddTask(task)
	return nil
}

func (s *Scheduler) RemoveTask(taskID string) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if !s.wheel.RemoveTask(taskID) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()
	return s.running
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Running:     s.IsRunning(),
		CurrentSlot: s.wheel.CurrentSlot(),
		Pending:     s.wheel.Pending(),
		Workers:     s.workerPool.workerCount,
	}
}
