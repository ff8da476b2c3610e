package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrLoopStopped = errors.New("LOOP_STOPPED")
	ErrLoopPanic   = errors.New("LOOP_PANIC")
)

// Loop runs posted functions one at a time, in posting order, on a single
// goroutine. Everything a peer owns is only touched from inside it.
type Loop struct {
	inbox    chan func()
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 1024
	}
	return &Loop{
		inbox:   make(chan func(), size),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  slog.Default().With("component", "peer.loop"),
	}
}

// Run processes the inbox until Stop is called.
func (l *Loop) Run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.inbox:
			l.exec(fn)
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Loop function panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn. It blocks while the inbox is full and reports false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// TryPost queues fn without waiting. It reports false when the inbox is full
// or the loop has stopped.
func (l *Loop) TryPost(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	default:
		return false
	}
}

// Call runs fn inside the loop and waits for its result. It must not be
// called from the loop itself.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	posted := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrLoopPanic, r)
			}
		}()
		done <- fn()
	})
	if !posted {
		return ErrLoopStopped
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Stop ends Run. Functions still queued are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}
