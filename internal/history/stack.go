package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/render"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 100

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// EventError reports a failure inside a script event.
type EventError struct {
	Op   string // "do", "undo" or "shutdown"
	Name string
	Err  error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

// Info describes a stack entry.
type Info struct {
	ID        string
	Name      string
	Timestamp time.Time
}

type entry struct {
	id        string
	name      string
	ev        event.Event
	flags     event.Flags
	timestamp time.Time
	shutdown  event.Once
}

func (e *entry) info() Info {
	return Info{ID: e.id, Name: e.name, Timestamp: e.timestamp}
}

// Stack runs events and manages undo/redo state.
type Stack struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry
	capacity  int

	poster render.Poster
	logger *logging.Logger
}

// Option configures a Stack.
type Option func(*Stack)

// WithPoster routes render-thread events through p.
func WithPoster(p render.Poster) Option {
	return func(s *Stack) { s.poster = p }
}

// WithLogger sets the logger used for failures.
func WithLogger(l *logging.Logger) Option {
	return func(s *Stack) { s.logger = l }
}

// New creates a stack holding at most capacity undo entries.
func New(capacity int, opts ...Option) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Stack{
		capacity: capacity,
		poster:   render.Inline{},
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("history")
	return s
}

// Execute runs ev and retains it for undo unless flags mark it transient.
// A failing Do aborts only this event: it is shut down, logged and the
// error returned.
func (s *Stack) Execute(ctx context.Context, name string, ev event.Event, flags event.Flags) error {
	if err := event.Validate(ev, flags); err != nil {
		s.logger.WithField("event", name).Error("rejected: %v", err)
		return &EventError{Op: "do", Name: name, Err: err}
	}

	e := &entry{
		id:        uuid.New().String(),
		name:      name,
		ev:        ev,
		flags:     flags,
		timestamp: time.Now(),
	}

	if err := s.run(ctx, flags, ev.Do); err != nil {
		s.logger.WithField("event", name).Warn("do failed: %v", err)
		s.shutDown(ctx, e)
		return &EventError{Op: "do", Name: name, Err: err}
	}

	if flags.Transient {
		s.logger.WithField("event", name).Debug("transient event done")
		s.shutDown(ctx, e)
		return nil
	}

	s.push(ctx, e)
	return nil
}

// push adds e to the undo stack, clears the redo stack and evicts overflow.
func (s *Stack) push(ctx context.Context, e *entry) {
	s.mu.Lock()
	discarded := s.redoStack
	s.redoStack = nil
	s.undoStack = append(s.undoStack, e)
	if excess := len(s.undoStack) - s.capacity; excess > 0 {
		discarded = append(discarded, s.undoStack[:excess]...)
		s.undoStack = append([]*entry(nil), s.undoStack[excess:]...)
	}
	s.mu.Unlock()

	for _, d := range discarded {
		s.shutDown(ctx, d)
	}
}

// Undo reverts the most recent retained event. The stack lock is not held
// while the event runs.
func (s *Stack) Undo(ctx context.Context) error {
	s.mu.Lock()
	if len(s.undoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	e := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.mu.Unlock()

	if err := s.run(ctx, e.flags, func() error { return event.Undo(e.ev) }); err != nil {
		s.mu.Lock()
		s.undoStack = append(s.undoStack, e)
		s.mu.Unlock()
		s.logger.WithField("event", e.name).Warn("undo failed: %v", err)
		return &EventError{Op: "undo", Name: e.name, Err: err}
	}

	s.mu.Lock()
	s.redoStack = append(s.redoStack, e)
	s.mu.Unlock()
	return nil
}

// Redo re-runs the most recently undone event.
func (s *Stack) Redo(ctx context.Context) error {
	s.mu.Lock()
	if len(s.redoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	e := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.mu.Unlock()

	if err := s.run(ctx, e.flags, e.ev.Do); err != nil {
		s.mu.Lock()
		s.redoStack = append(s.redoStack, e)
		s.mu.Unlock()
		s.logger.WithField("event", e.name).Warn("redo failed: %v", err)
		return &EventError{Op: "do", Name: e.name, Err: err}
	}

	s.mu.Lock()
	s.undoStack = append(s.undoStack, e)
	s.mu.Unlock()
	return nil
}

// ShutDown releases every retained event and empties both stacks.
func (s *Stack) ShutDown(ctx context.Context) {
	s.mu.Lock()
	all := append(append([]*entry(nil), s.undoStack...), s.redoStack...)
	s.undoStack = nil
	s.redoStack = nil
	s.mu.Unlock()

	for _, e := range all {
		s.shutDown(ctx, e)
	}
}

// shutDown releases e's resources once. Failures are logged only.
func (s *Stack) shutDown(ctx context.Context, e *entry) {
	if _, ok := e.ev.(event.ShutDowner); !ok {
		return
	}
	err := e.shutdown.Do(func() error {
		return s.run(ctx, e.flags, func() error { return event.ShutDown(e.ev) })
	})
	if err != nil {
		s.logger.WithField("event", e.name).Warn("shutdown failed: %v", err)
	}
}

// run executes fn on the graphics thread when flags require it.
func (s *Stack) run(ctx context.Context, flags event.Flags, fn func() error) error {
	if flags.RenderThread {
		return s.poster.Post(ctx, fn)
	}
	return render.Inline{}.Post(ctx, fn)
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (s *Stack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo entries.
func (s *Stack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// Capacity returns the maximum number of undo entries.
func (s *Stack) Capacity() int { return s.capacity }

// UndoInfo describes the undo stack, oldest first.
func (s *Stack) UndoInfo() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return infos(s.undoStack)
}

// RedoInfo describes the redo stack, oldest first.
func (s *Stack) RedoInfo() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return infos(s.redoStack)
}

// PeekUndo describes the entry Undo would revert.
func (s *Stack) PeekUndo() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undoStack) == 0 {
		return Info{}, false
	}
	return s.undoStack[len(s.undoStack)-1].info(), true
}

func infos(entries []*entry) []Info {
	out := make([]Info, len(entries))
	for i, e := range entries {
		out[i] = e.info()
	}
	return out
}
