package luascript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/event"
)

// Event table fields. "do" is a Lua keyword, so the action is _do.
const (
	fieldDo       = "_do"
	fieldUndo     = "undo"
	fieldShutDown = "shutDown"
)

// luaEvent runs the functions of an event table. Each function receives
// the table as its only argument.
type luaEvent struct {
	state    *State
	table    *lua.LTable
	do       lua.LValue
	shutDown lua.LValue
}

func (e *luaEvent) Do() error {
	_, err := e.state.Call(e.do, 0, e.table)
	return err
}

func (e *luaEvent) ShutDown() error {
	if e.shutDown == lua.LNil {
		return nil
	}
	_, err := e.state.Call(e.shutDown, 0, e.table)
	return err
}

// undoableEvent is a luaEvent whose table has an undo function.
type undoableEvent struct {
	*luaEvent
	undo lua.LValue
}

func (e *undoableEvent) Undo() error {
	_, err := e.state.Call(e.undo, 0, e.table)
	return err
}

// newEvent wraps an event table. A nil return becomes a nil event so the
// caller reports it the same way as for built-in scripts.
func newEvent(s *State, v lua.LValue) (event.Event, error) {
	if v == lua.LNil {
		return nil, nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: event must be a table, got %s", ErrBadReturn, v.Type())
	}
	do := t.RawGetString(fieldDo)
	if do.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: event.%s", ErrMissingFunc, fieldDo)
	}
	shut := t.RawGetString(fieldShutDown)
	if shut.Type() != lua.LTFunction {
		shut = lua.LNil
	}
	ev := &luaEvent{state: s, table: t, do: do, shutDown: shut}
	if undo := t.RawGetString(fieldUndo); undo.Type() == lua.LTFunction {
		return &undoableEvent{luaEvent: ev, undo: undo}, nil
	}
	return ev, nil
}
