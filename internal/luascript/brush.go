package luascript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
)

// Brush table fields.
const (
	fieldUse    = "use"
	fieldCanUse = "canUse"
	fieldUpdate = "update"
)

// Fields of the table passed to a brush entry function.
const (
	fieldRadius  = "radius"
	fieldBounder = "bounder"
)

// luaBrush calls the functions of a brush table. Functions receive the
// table first, then the host arguments.
type luaBrush struct {
	name     string
	state    *State
	logger   *logging.Logger
	table    *lua.LTable
	use      lua.LValue
	canUse   lua.LValue
	update   lua.LValue
	shutDown lua.LValue
}

func (b *luaBrush) args(ab artboard.Artboard, ed editor.Editor, extra ...lua.LValue) func(L *lua.LState) []lua.LValue {
	return func(L *lua.LState) []lua.LValue {
		out := []lua.LValue{b.table, lua.LNil, wrap(L, typeEditor, ed)}
		if ab != nil {
			out[1] = wrap(L, typeArtboard, ab)
		}
		return append(out, extra...)
	}
}

// CanUse treats a script error as "not applicable" and logs it.
func (b *luaBrush) CanUse(ab artboard.Artboard, ed editor.Editor, x, y int) bool {
	res, err := b.state.CallWith(b.canUse, 1, b.args(ab, ed, lua.LNumber(x), lua.LNumber(y)))
	if err != nil {
		b.logger.WithField("brush", b.name).Warn("canUse failed: %v", err)
		return false
	}
	return lua.LVAsBool(res[0])
}

func (b *luaBrush) Use(ab artboard.Artboard, ed editor.Editor, x, y int) (event.Event, error) {
	res, err := b.state.CallWith(b.use, 1, b.args(ab, ed, lua.LNumber(x), lua.LNumber(y)))
	if err != nil {
		return nil, err
	}
	return newEvent(b.state, res[0])
}

func (b *luaBrush) Update(ab artboard.Artboard, ed editor.Editor) error {
	if b.update == lua.LNil {
		return nil
	}
	_, err := b.state.CallWith(b.update, 0, b.args(ab, ed))
	return err
}

func (b *luaBrush) ShutDown() error {
	if b.shutDown == lua.LNil {
		return nil
	}
	_, err := b.state.Call(b.shutDown, 0, b.table)
	return err
}

type modifyingBrush struct {
	*luaBrush
	radius *brush.Radius
}

func (b *modifyingBrush) Radius() *brush.Radius { return b.radius }

type selectingBrush struct {
	*luaBrush
	selection *brush.SelectionBounder
}

func (b *selectingBrush) Selection() *brush.SelectionBounder { return b.selection }

// newBrush calls the entry function with a table carrying the brush's
// radius or selection and wraps the table it returns.
func newBrush(sc *Script, kind brush.Kind) (brush.Brush, error) {
	var (
		radius *brush.Radius
		sel    *brush.SelectionBounder
	)
	res, err := sc.state.CallWith(sc.entry, 1, func(L *lua.LState) []lua.LValue {
		t := L.NewTable()
		switch kind {
		case brush.Modifying:
			radius = brush.NewRadius(1)
			t.RawSetString(fieldRadius, wrap(L, typeRadius, radius))
		case brush.Selecting:
			sel = brush.NewSelectionBounder()
			t.RawSetString(fieldBounder, wrap(L, typeBounder, sel))
		}
		return []lua.LValue{t}
	})
	if err != nil {
		return nil, err
	}

	t, ok := res[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: brush must be a table, got %s", ErrBadReturn, res[0].Type())
	}
	b := &luaBrush{name: sc.Name, state: sc.state, logger: sc.logger, table: t}
	for _, f := range []struct {
		name     string
		dst      *lua.LValue
		required bool
	}{
		{fieldUse, &b.use, true},
		{fieldCanUse, &b.canUse, true},
		{fieldUpdate, &b.update, false},
		{fieldShutDown, &b.shutDown, false},
	} {
		v := t.RawGetString(f.name)
		if v.Type() != lua.LTFunction {
			if f.required {
				return nil, fmt.Errorf("%w: brush.%s", ErrMissingFunc, f.name)
			}
			v = lua.LNil
		}
		*f.dst = v
	}

	switch kind {
	case brush.Modifying:
		return &modifyingBrush{luaBrush: b, radius: radius}, nil
	case brush.Selecting:
		return &selectingBrush{luaBrush: b, selection: sel}, nil
	default:
		return b, nil
	}
}
