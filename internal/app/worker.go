package app

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by Submit while a previous task is still running.
var ErrBusy = errors.New("a task is already in flight")

// Task is a unit of background work: an LLM request, speech playback.
type Task func(ctx context.Context) (any, error)

// TaskResult is posted on the completion channel exactly once.
type TaskResult struct {
	Value any
	Err   error
}

// Worker runs one task at a time off the UI loop. The caller submits
// work and receives the result on a single-consumer channel; the UI
// disables its send control while Busy and re-enables it when the
// result arrives. Mid-task cancellation goes through the context the
// caller supplied.
type Worker struct {
	mu   sync.Mutex
	busy bool
}

func NewWorker() *Worker {
	return &Worker{}
}

func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Submit starts the task on its own goroutine and returns the channel
// the result will arrive on. Only one task may be in flight; a second
// Submit fails with ErrBusy instead of queueing.
func (w *Worker) Submit(ctx context.Context, task Task) (<-chan TaskResult, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.busy = true
	w.mu.Unlock()

	ch := make(chan TaskResult, 1)
	go func() {
		value, err := task(ctx)
		// Buffer the result before clearing busy, under one lock, so
		// Busy never reads false while the outcome is still undelivered.
		w.mu.Lock()
		ch <- TaskResult{Value: value, Err: err}
		close(ch)
		w.busy = false
		w.mu.Unlock()
	}()
	return ch, nil
}
