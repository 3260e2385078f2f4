package switchctl

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueSize is the number of intents a worker will hold while one is running.
const DefaultQueueSize = 4

var (
	ErrQueueFull = errors.New("switch command queue full")
	ErrStopped   = errors.New("switch worker stopped")
)

type job struct {
	done   chan Outcome
	intent Intent
}

// Worker runs interactions for one controller off the caller's goroutine,
// one at a time, in submission order.
type Worker struct {
	ctrl    *Controller
	jobs    chan job
	mu      sync.RWMutex
	stopped bool
}

func NewWorker(ctrl *Controller, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Worker{
		ctrl: ctrl,
		jobs: make(chan job, queueSize),
	}
}

func (w *Worker) Controller() *Controller { return w.ctrl }

// Submit queues intent without blocking. The returned channel yields the
// outcome once the interaction finishes, or is closed without a value if the
// worker stops first.
func (w *Worker) Submit(intent Intent) (<-chan Outcome, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return nil, ErrStopped
	}
	j := job{intent: intent, done: make(chan Outcome, 1)}
	select {
	case w.jobs <- j:
		return j.done, nil
	default:
		return nil, ErrQueueFull
	}
}

// Run processes queued intents until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-w.jobs:
			j.done <- w.ctrl.Apply(ctx, j.intent)
			close(j.done)
		}
	}
}

func (w *Worker) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for {
		select {
		case j := <-w.jobs:
			close(j.done)
		default:
			return
		}
	}
}
