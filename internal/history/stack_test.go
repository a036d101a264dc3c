package history

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/render"
)

// counterEvent adds delta to a shared counter.
type counterEvent struct {
	value    *int
	delta    int
	doErr    error
	undoErr  error
	shutdown int
}

func (c *counterEvent) Do() error {
	if c.doErr != nil {
		return c.doErr
	}
	*c.value += c.delta
	return nil
}

func (c *counterEvent) Undo() error {
	if c.undoErr != nil {
		return c.undoErr
	}
	*c.value -= c.delta
	return nil
}

func (c *counterEvent) ShutDown() error {
	c.shutdown++
	return nil
}

func TestExecuteUndoRedo(t *testing.T) {
	ctx := context.Background()
	s := New(10)
	v := 0

	if err := s.Execute(ctx, "add", &counterEvent{value: &v, delta: 5}, event.Flags{}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if v != 5 || s.UndoCount() != 1 {
		t.Fatalf("after Execute v = %d, undo = %d", v, s.UndoCount())
	}

	if err := s.Undo(ctx); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if v != 0 || !s.CanRedo() {
		t.Fatalf("after Undo v = %d, CanRedo = %v", v, s.CanRedo())
	}

	if err := s.Redo(ctx); err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if v != 5 || s.CanRedo() || !s.CanUndo() {
		t.Errorf("after Redo v = %d, CanRedo = %v, CanUndo = %v", v, s.CanRedo(), s.CanUndo())
	}
}

func TestEmptyStacks(t *testing.T) {
	s := New(1)
	if err := s.Undo(context.Background()); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if err := s.Redo(context.Background()); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestTransientIsNotRetained(t *testing.T) {
	s := New(10)
	v := 0
	ev := &counterEvent{value: &v, delta: 1}

	if err := s.Execute(context.Background(), "t", ev, event.Flags{Transient: true}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if s.UndoCount() != 0 {
		t.Errorf("UndoCount() = %d, want 0", s.UndoCount())
	}
	if ev.shutdown != 1 {
		t.Errorf("transient event shut down %d times, want 1", ev.shutdown)
	}
}

func TestRetainedWithoutUndoRejected(t *testing.T) {
	s := New(10)
	ran := false
	ev := &event.Func{DoFunc: func() error { ran = true; return nil }}
	// Func implements Undo, so use a bare Do-only type.
	var bare struct{ event.Event }
	bare.Event = ev

	err := s.Execute(context.Background(), "bare", bare, event.Flags{})
	if !errors.Is(err, event.ErrNotUndoable) {
		t.Errorf("Execute() error = %v, want ErrNotUndoable", err)
	}
	if ran {
		t.Error("rejected event ran")
	}
}

func TestDoFailureIsIsolated(t *testing.T) {
	var logs bytes.Buffer
	s := New(10, WithLogger(logging.New(logging.Config{Level: logging.LevelDebug, Output: &logs})))
	v := 0
	boom := errors.New("boom")
	bad := &counterEvent{value: &v, delta: 1, doErr: boom}

	err := s.Execute(context.Background(), "bad", bad, event.Flags{})
	var evErr *EventError
	if !errors.As(err, &evErr) || evErr.Op != "do" || !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want do EventError wrapping boom", err)
	}
	if s.UndoCount() != 0 {
		t.Errorf("failed event retained")
	}
	if !strings.Contains(logs.String(), "do failed") {
		t.Errorf("failure not logged: %q", logs.String())
	}

	if err := s.Execute(context.Background(), "good", &counterEvent{value: &v, delta: 2}, event.Flags{}); err != nil {
		t.Fatalf("stack unusable after failure: %v", err)
	}
	if v != 2 {
		t.Errorf("v = %d, want 2", v)
	}
}

func TestUndoFailureKeepsEntry(t *testing.T) {
	s := New(10)
	v := 0
	ev := &counterEvent{value: &v, delta: 1, undoErr: errors.New("stuck")}
	_ = s.Execute(context.Background(), "e", ev, event.Flags{})

	if err := s.Undo(context.Background()); err == nil {
		t.Fatal("Undo() error = nil, want failure")
	}
	if s.UndoCount() != 1 || s.RedoCount() != 0 {
		t.Errorf("undo = %d, redo = %d after failed undo", s.UndoCount(), s.RedoCount())
	}
}

func TestCapacityEvictsAndShutsDown(t *testing.T) {
	s := New(2)
	v := 0
	events := []*counterEvent{
		{value: &v, delta: 1},
		{value: &v, delta: 1},
		{value: &v, delta: 1},
	}
	for i, ev := range events {
		if err := s.Execute(context.Background(), "e", ev, event.Flags{}); err != nil {
			t.Fatalf("Execute(%d) error = %v", i, err)
		}
	}

	if s.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", s.UndoCount())
	}
	if events[0].shutdown != 1 {
		t.Errorf("evicted event shut down %d times, want 1", events[0].shutdown)
	}
	if events[1].shutdown != 0 || events[2].shutdown != 0 {
		t.Error("retained events were shut down")
	}
}

func TestPushClearsRedo(t *testing.T) {
	s := New(10)
	v := 0
	first := &counterEvent{value: &v, delta: 1}
	_ = s.Execute(context.Background(), "first", first, event.Flags{})
	_ = s.Undo(context.Background())

	_ = s.Execute(context.Background(), "second", &counterEvent{value: &v, delta: 3}, event.Flags{})
	if s.CanRedo() {
		t.Error("redo stack survived a new push")
	}
	if first.shutdown != 1 {
		t.Errorf("discarded redo entry shut down %d times, want 1", first.shutdown)
	}
}

func TestShutDownReleasesAllOnce(t *testing.T) {
	s := New(10)
	v := 0
	a := &counterEvent{value: &v, delta: 1}
	b := &counterEvent{value: &v, delta: 1}
	_ = s.Execute(context.Background(), "a", a, event.Flags{})
	_ = s.Execute(context.Background(), "b", b, event.Flags{})
	_ = s.Undo(context.Background())

	s.ShutDown(context.Background())
	s.ShutDown(context.Background())

	if a.shutdown != 1 || b.shutdown != 1 {
		t.Errorf("shutdown counts = %d, %d; want 1, 1", a.shutdown, b.shutdown)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("stacks not empty after ShutDown")
	}
}

func TestRenderEventsUseQueue(t *testing.T) {
	q := render.NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)
	defer q.Close()

	s := New(10, WithPoster(q))
	v := 0
	_ = s.Execute(ctx, "render", &counterEvent{value: &v, delta: 1}, event.Flags{RenderThread: true})
	_ = s.Execute(ctx, "plain", &counterEvent{value: &v, delta: 1}, event.Flags{})
	_ = s.Undo(ctx)
	_ = s.Undo(ctx)

	if q.Processed() != 2 {
		t.Errorf("queue processed %d jobs, want 2 (render do + render undo)", q.Processed())
	}
	if v != 0 {
		t.Errorf("v = %d, want 0", v)
	}
}

func TestInfo(t *testing.T) {
	s := New(10)
	v := 0
	_ = s.Execute(context.Background(), "one", &counterEvent{value: &v, delta: 1}, event.Flags{})
	_ = s.Execute(context.Background(), "two", &counterEvent{value: &v, delta: 1}, event.Flags{})

	info := s.UndoInfo()
	if len(info) != 2 || info[0].Name != "one" || info[1].Name != "two" {
		t.Fatalf("UndoInfo() = %+v", info)
	}
	if info[0].ID == "" || info[0].ID == info[1].ID {
		t.Errorf("entry ids not unique: %q, %q", info[0].ID, info[1].ID)
	}
	top, ok := s.PeekUndo()
	if !ok || top.Name != "two" {
		t.Errorf("PeekUndo() = %+v, %v", top, ok)
	}
}
