package event

import (
	"errors"
	"testing"
)

type doOnly struct{ runs int }

func (d *doOnly) Do() error { d.runs++; return nil }

type undoable struct{ doOnly }

func (u *undoable) Undo() error { return nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		flags   Flags
		wantErr error
	}{
		{"nil", nil, Flags{}, ErrNilEvent},
		{"transient without undo", &doOnly{}, Flags{Transient: true}, nil},
		{"retained without undo", &doOnly{}, Flags{}, ErrNotUndoable},
		{"retained with undo", &undoable{}, Flags{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.ev, tt.flags)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFlagsOf(t *testing.T) {
	def := Flags{RenderThread: true}
	if got := FlagsOf(&doOnly{}, def); got != def {
		t.Errorf("FlagsOf(plain) = %+v, want %+v", got, def)
	}
	f := &Func{EventFlags: Flags{Transient: true}}
	if got := FlagsOf(f, def); got != f.EventFlags {
		t.Errorf("FlagsOf(Func) = %+v, want %+v", got, f.EventFlags)
	}
}

func TestFuncShutDownOnce(t *testing.T) {
	calls := 0
	f := &Func{ShutDownFunc: func() error { calls++; return nil }}

	_ = f.ShutDown()
	_ = f.ShutDown()
	if calls != 1 {
		t.Errorf("ShutDownFunc called %d times, want 1", calls)
	}
}

func TestFuncUndoMissing(t *testing.T) {
	f := &Func{}
	if err := f.Undo(); !errors.Is(err, ErrNotUndoable) {
		t.Errorf("Undo() error = %v, want ErrNotUndoable", err)
	}
	if err := Undo(&doOnly{}); !errors.Is(err, ErrNotUndoable) {
		t.Errorf("Undo(doOnly) error = %v, want ErrNotUndoable", err)
	}
}

func TestCaptureRunsOnce(t *testing.T) {
	var c Capture[int]
	calls := 0
	fn := func() (int, error) { calls++; return calls * 10, nil }

	if c.State() != Uninitialized {
		t.Fatalf("initial state = %v", c.State())
	}
	v1, _ := c.Ensure(fn)
	v2, _ := c.Ensure(fn)
	if v1 != 10 || v2 != 10 || calls != 1 {
		t.Errorf("Ensure() = %d, %d with %d calls; want 10, 10 with 1 call", v1, v2, calls)
	}
	if c.State() != Captured {
		t.Errorf("state = %v, want captured", c.State())
	}
}

func TestCaptureFailureStaysUninitialized(t *testing.T) {
	var c Capture[string]
	boom := errors.New("boom")
	if _, err := c.Ensure(func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("Ensure() error = %v, want boom", err)
	}
	if c.State() != Uninitialized {
		t.Errorf("state = %v after failure, want uninitialized", c.State())
	}
	if _, ok := c.Value(); ok {
		t.Error("Value() reported captured after failure")
	}
}

func TestParseMeta(t *testing.T) {
	m, err := ParseMeta("Mandelbrot", map[string]any{
		KeyIsRenderEvent:        true,
		KeyIsTransientEvent:     false,
		KeyTakesArguments:       true,
		KeyArgumentDialogueText: "Input the number of iterations.",
	})
	if err != nil {
		t.Fatalf("ParseMeta() error = %v", err)
	}
	if !m.IsRenderEvent || m.IsTransientEvent || !m.TakesArguments {
		t.Errorf("ParseMeta() = %+v", m)
	}
	if m.Flags() != (Flags{RenderThread: true}) {
		t.Errorf("Flags() = %+v", m.Flags())
	}
}

func TestParseMetaRejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		key    string
	}{
		{"missing render flag", map[string]any{}, KeyIsRenderEvent},
		{"wrong type", map[string]any{KeyIsRenderEvent: "yes"}, KeyIsRenderEvent},
		{"transient wrong type", map[string]any{KeyIsRenderEvent: true, KeyIsTransientEvent: 1}, KeyIsTransientEvent},
		{"arguments without text", map[string]any{KeyIsRenderEvent: true, KeyTakesArguments: true}, KeyArgumentDialogueText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMeta("s", tt.values)
			if !errors.Is(err, ErrInvalidMeta) {
				t.Fatalf("ParseMeta() error = %v, want ErrInvalidMeta", err)
			}
			var me *MetaError
			if !errors.As(err, &me) || me.Key != tt.key {
				t.Errorf("ParseMeta() error key = %v, want %s", err, tt.key)
			}
		})
	}
}

func TestOnce(t *testing.T) {
	var o Once
	calls := 0
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if err := o.Do(func() error { calls++; return boom }); !errors.Is(err, boom) {
			t.Errorf("Do() error = %v, want boom", err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
