package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPool executes fired tasks off the tick goroutine.
type WorkerPool struct {
	workerCount int
	taskChan    chan *Task
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      *slog.Logger
}

func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workerCount: workerCount,
		taskChan:    make(chan *Task, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		logger:      slog.Default().With("component", "task.workers"),
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Debug("Worker pool started", "workers", wp.workerCount)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task := <-wp.taskChan:
			if task == nil {
				continue
			}
			wp.execute(id, task)
		}
	}
}

func (wp *WorkerPool) execute(workerID int, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Task panicked",
				"worker", workerID,
				"task", task.ID,
				"owner", task.Owner,
				"panic", r)
		}
	}()

	if err := task.Execute(wp.ctx); err != nil {
		wp.logger.Warn("Task failed",
			"worker", workerID,
			"task", task.ID,
			"owner", task.Owner,
			"error", err)
	}
}

// Submit hands a task to the pool, blocking while the queue is full.
func (wp *WorkerPool) Submit(task *Task) {
	select {
	case wp.taskChan <- task:
	case <-wp.ctx.Done():
		wp.logger.Warn("Worker pool stopped, task dropped", "task", task.ID)
	default:
		wp.logger.Warn("Worker queue full, task delayed", "task", task.ID)
		select {
		case wp.taskChan <- task:
		case <-wp.ctx.Done():
		}
	}
}

func (wp *WorkerPool) SubmitBatch(tasks []*Task) {
	for _, task := range tasks {
		wp.Submit(task)
	}
}

// Stop cancels the workers and waits for running tasks to return.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}
