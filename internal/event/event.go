// Package event defines the do/undo contract every script event satisfies.
//
// An Event applies its effect in Do. Events retained for undo also
// implement Undoer; events holding external resources implement ShutDowner.
// The two immutable flags a script declares, "requires graphics-thread
// execution" and "is transient", travel with the event as Flags.
//
// Redo is a second call to Do after Undo. Events that capture prior state
// must capture it on the first Do only; Capture implements that guard.
package event

import (
	"errors"
	"fmt"
	"sync"
)

// Errors for event handling.
var (
	// ErrNotUndoable is returned when undo is requested of an event that
	// does not implement Undoer.
	ErrNotUndoable = errors.New("event: event cannot be undone")

	// ErrNilEvent is returned when a factory produced no event.
	ErrNilEvent = errors.New("event: factory returned nil event")
)

// Event applies a change.
type Event interface {
	Do() error
}

// Undoer reverts a change made by Do.
type Undoer interface {
	Undo() error
}

// ShutDowner releases resources an event acquired.
type ShutDowner interface {
	ShutDown() error
}

// Flags are the immutable execution properties of an event.
type Flags struct {
	// RenderThread requires Do, Undo and ShutDown to run on the graphics thread.
	RenderThread bool
	// Transient events are discarded after Do and never undone.
	Transient bool
}

// Flagged is implemented by events that carry their own flags.
type Flagged interface {
	Flags() Flags
}

// FlagsOf returns the flags of ev, falling back to def when ev carries none.
func FlagsOf(ev Event, def Flags) Flags {
	if f, ok := ev.(Flagged); ok {
		return f.Flags()
	}
	return def
}

// Validate checks that ev can honour flags: a non-transient event must be
// undoable.
func Validate(ev Event, flags Flags) error {
	if ev == nil {
		return ErrNilEvent
	}
	if !flags.Transient {
		if _, ok := ev.(Undoer); !ok {
			return fmt.Errorf("%w: %T is not transient and has no Undo", ErrNotUndoable, ev)
		}
	}
	return nil
}

// Undo reverts ev if it is undoable.
func Undo(ev Event) error {
	u, ok := ev.(Undoer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotUndoable, ev)
	}
	return u.Undo()
}

// ShutDown releases ev's resources if it holds any.
func ShutDown(ev Event) error {
	if s, ok := ev.(ShutDowner); ok {
		return s.ShutDown()
	}
	return nil
}

// Func builds an event from closures. Undo and ShutDown may be nil.
type Func struct {
	DoFunc       func() error
	UndoFunc     func() error
	ShutDownFunc func() error
	EventFlags   Flags

	once sync.Once
}

// Do calls DoFunc.
func (f *Func) Do() error {
	if f.DoFunc == nil {
		return nil
	}
	return f.DoFunc()
}

// Undo calls UndoFunc.
func (f *Func) Undo() error {
	if f.UndoFunc == nil {
		return ErrNotUndoable
	}
	return f.UndoFunc()
}

// ShutDown calls ShutDownFunc at most once.
func (f *Func) ShutDown() error {
	var err error
	f.once.Do(func() {
		if f.ShutDownFunc != nil {
			err = f.ShutDownFunc()
		}
	})
	return err
}

// Flags returns EventFlags.
func (f *Func) Flags() Flags { return f.EventFlags }
