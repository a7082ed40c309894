// Package mainloop provides the single execution context that owns broadcast
// controller state. Every task runs on one goroutine, in the order posted.
package mainloop

import (
	"context"
	"errors"
)

// ErrStopped is returned when a task is submitted after the loop has exited.
var ErrStopped = errors.New("main loop stopped")

// DefaultQueueSize is the task buffer used when New is given a size <= 0.
const DefaultQueueSize = 64

// Loop runs posted tasks serially on the goroutine that calls Run.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New returns a Loop whose queue holds up to queueSize pending tasks.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is done. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post enqueues fn without waiting for it to run. It reports false if the loop
// has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The loop may have run the task right before exiting.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
