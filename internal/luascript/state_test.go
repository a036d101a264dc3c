package luascript

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/logging"
)

func TestStateSandbox(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os", "debug"} {
		if v := s.Global(name); v != lua.LNil {
			t.Errorf("global %s = %v, want nil", name, v.Type())
		}
	}
	for _, name := range []string{"string", "table", "math", "sprite"} {
		if v := s.Global(name); v.Type() != lua.LTTable {
			t.Errorf("global %s type = %v, want table", name, v.Type())
		}
	}
}

func TestStateDoString(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`x = sprite.doubleToByte(-1) + 1`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if got := s.Global("x"); got != lua.LNumber(256) {
		t.Errorf("x = %v, want 256", got)
	}
	if err := s.DoString(`this is not lua`); err == nil {
		t.Error("DoString() with bad syntax returned nil")
	}
}

func TestStateTimeout(t *testing.T) {
	s := NewState(WithTimeout(50 * time.Millisecond))
	defer s.Close()

	err := s.DoString(`while true do end`)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("DoString() error = %v, want ErrTimeout", err)
	}
	// The state stays usable after a timeout.
	if err := s.DoString(`y = 1`); err != nil {
		t.Errorf("DoString() after timeout error = %v", err)
	}
}

func TestStateClosed(t *testing.T) {
	s := NewState()
	s.Close()
	s.Close()

	if !s.IsClosed() {
		t.Error("IsClosed() = false")
	}
	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() error = %v", err)
	}
	if _, err := s.Call(lua.LNil, 0); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() error = %v", err)
	}
}

func TestStateCall(t *testing.T) {
	s := NewState()
	defer s.Close()

	if err := s.DoString(`function pair(a) return a, a * 2 end`); err != nil {
		t.Fatal(err)
	}
	res, err := s.Call(s.Global("pair"), 2, lua.LNumber(3))
	if err != nil {
		t.Fatal(err)
	}
	if res[0] != lua.LNumber(3) || res[1] != lua.LNumber(6) {
		t.Errorf("Call() = %v", res)
	}

	if err := s.DoString(`function boom() error("bad brush") end`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Call(s.Global("boom"), 0); err == nil || !strings.Contains(err.Error(), "bad brush") {
		t.Errorf("Call() error = %v", err)
	}
}

func TestPrintLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})
	s := NewState(WithLogger(logger))
	defer s.Close()

	if err := s.DoString(`print("hello", 42) sprite.log("done")`); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "hello\t42") || !strings.Contains(out, "done") {
		t.Errorf("log output = %q", out)
	}
}
