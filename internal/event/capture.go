package event

import "sync"

// CaptureState is the lifecycle of an event's "previous state" snapshot.
type CaptureState int

const (
	// Uninitialized means Do has never run.
	Uninitialized CaptureState = iota
	// Captured means the snapshot was taken by the first Do.
	Captured
)

// String returns the state name.
func (s CaptureState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Captured:
		return "captured"
	default:
		return "unknown"
	}
}

// Capture guards a lazily taken snapshot of type T. The first successful
// call to Ensure runs the capture function; later calls (redo) reuse the
// stored value.
type Capture[T any] struct {
	state CaptureState
	value T
}

// Ensure returns the captured value, taking it with fn on first use. A
// failing fn leaves the state Uninitialized.
func (c *Capture[T]) Ensure(fn func() (T, error)) (T, error) {
	if c.state == Captured {
		return c.value, nil
	}
	v, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.state = Captured
	return v, nil
}

// State returns the current capture state.
func (c *Capture[T]) State() CaptureState { return c.state }

// Value returns the captured value and whether it has been captured.
func (c *Capture[T]) Value() (T, bool) {
	return c.value, c.state == Captured
}

// Once makes a release function safe to call more than once: only the
// first call runs it.
type Once struct {
	once sync.Once
	err  error
}

// Do runs fn on the first call and returns its error on every call.
func (o *Once) Do(fn func() error) error {
	o.once.Do(func() { o.err = fn() })
	return o.err
}
