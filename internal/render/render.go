// Package render routes work that must run on the graphics thread.
//
// Events that declare "requires graphics-thread execution" are posted to a
// Poster instead of being called directly. Queue owns a single worker
// goroutine that plays the role of the graphics thread; Inline runs work on
// the caller and is used when the caller already is that thread.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Errors for render posting.
var (
	// ErrQueueClosed is returned when posting to a closed queue.
	ErrQueueClosed = errors.New("render: queue is closed")

	// ErrQueueFull is returned by PostAsync when the queue is saturated.
	ErrQueueFull = errors.New("render: queue is full")
)

// Poster runs fn on the graphics thread and returns its error.
type Poster interface {
	Post(ctx context.Context, fn func() error) error
}

// Inline is a Poster that runs work on the calling goroutine.
type Inline struct{}

// Post runs fn immediately, converting a panic into an error.
func (Inline) Post(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(fn)
}

type job struct {
	fn     func() error
	result chan error
}

// Queue serializes work onto one worker goroutine.
//
//	q := render.NewQueue(64)
//	go q.Run(ctx)
//	defer q.Close()
//
//	err := q.Post(ctx, func() error { return ev.Do() })
type Queue struct {
	jobs      chan *job
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	processed atomic.Int64
}

// NewQueue creates a queue buffering up to size pending jobs.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		jobs: make(chan *job, size),
		done: make(chan struct{}),
	}
}

// Run executes queued jobs until ctx is cancelled or Close is called.
// The goroutine calling Run is the graphics thread.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.drain(ctx.Err())
			return
		case <-q.done:
			q.drain(ErrQueueClosed)
			return
		case j := <-q.jobs:
			j.result <- call(j.fn)
			close(j.result)
			q.processed.Add(1)
		}
	}
}

func (q *Queue) drain(err error) {
	for {
		select {
		case j := <-q.jobs:
			j.result <- err
			close(j.result)
		default:
			return
		}
	}
}

// Post queues fn and waits for it to finish.
func (q *Queue) Post(ctx context.Context, fn func() error) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	j := &job{fn: fn, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	case q.jobs <- j:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-j.result:
		if !ok {
			return ErrQueueClosed
		}
		return err
	}
}

// PostAsync queues fn without waiting. Failures of fn are delivered to
// onErr when it is non-nil.
func (q *Queue) PostAsync(fn func() error, onErr func(error)) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	j := &job{fn: fn, result: make(chan error, 1)}
	select {
	case <-q.done:
		return ErrQueueClosed
	case q.jobs <- j:
		go func() {
			if err := <-j.result; err != nil && onErr != nil {
				onErr(err)
			}
		}()
		return nil
	default:
		return ErrQueueFull
	}
}

// Processed returns the number of jobs the worker has run.
func (q *Queue) Processed() int64 { return q.processed.Load() }

// Close stops the queue. Pending jobs fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}

// call runs fn, converting a panic into an error so a failing script never
// takes the worker down.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render: panic: %v", r)
		}
	}()
	return fn()
}
