package luascript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/logging"
)

// DefaultTimeout bounds a single call into a script.
const DefaultTimeout = 5 * time.Second

// State is a sandboxed Lua runtime owned by one script. Calls are
// serialized; Lua values obtained from one State must only be passed back
// to the same State.
type State struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	logger  *logging.Logger
	closed  bool
}

// Option configures a State.
type Option func(*State)

// WithTimeout bounds every call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *State) { s.timeout = d }
}

// WithLogger routes script print output and host warnings.
func WithLogger(l *logging.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a sandboxed state with the sprite table installed.
func NewState(opts ...Option) *State {
	s := &State{timeout: DefaultTimeout, logger: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       256,
		RegistrySize:        1024 * 20,
		IncludeGoStackTrace: false,
	})
	openSafeLibraries(s.L)
	installSandbox(s.L, s.logger)
	registerTypes(s.L)
	s.L.SetGlobal("sprite", newSpriteTable(s.L, s.logger))
	return s
}

// openSafeLibraries opens the libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes the loaders and routes print to the logger.
func installSandbox(L *lua.LState, logger *logging.Logger) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info("%s", strings.Join(parts, "\t"))
		return 0
	}))
}

// DoFile executes a script file.
func (s *State) DoFile(path string) error {
	return s.run(func(L *lua.LState) error { return L.DoFile(path) })
}

// DoString executes a chunk of Lua source.
func (s *State) DoString(code string) error {
	return s.run(func(L *lua.LState) error { return L.DoString(code) })
}

// Global returns a global value, or LNil once closed.
func (s *State) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// Call invokes fn with args and returns exactly nret results.
func (s *State) Call(fn lua.LValue, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	return s.CallWith(fn, nret, func(*lua.LState) []lua.LValue { return args })
}

// CallWith is Call with arguments built under the state's lock, for
// arguments that wrap host objects.
func (s *State) CallWith(fn lua.LValue, nret int, build func(L *lua.LState) []lua.LValue) ([]lua.LValue, error) {
	var out []lua.LValue
	err := s.run(func(L *lua.LState) error {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, build(L)...); err != nil {
			return err
		}
		out = make([]lua.LValue, nret)
		for i := range nret {
			out[i] = L.Get(-nret + i)
		}
		return nil
	})
	return out, err
}

func (s *State) run(fn func(L *lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		s.L.SetTop(top)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}()
	return fn(s.L)
}

// Close releases the state. It is safe to call more than once.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
