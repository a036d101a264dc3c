package luascript

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/pixel"
)

// flagKeys are the globals a script may declare.
var flagKeys = []string{
	event.KeyIsRenderEvent,
	event.KeyIsTransientEvent,
	event.KeyTakesArguments,
	event.KeyArgumentDialogueText,
	brush.KeyTooltip,
	brush.KeyStateful,
	keyName,
	keyInitialValueScale,
	keyExtension,
}

// Palette globals.
const (
	keyName              = "name"
	keyInitialValueScale = "initialValueScale"
)

// declaredFlags reads the flag globals a script set. Undeclared globals are
// left out so required-flag checks see them as missing.
func declaredFlags(s *State) map[string]any {
	out := make(map[string]any)
	for _, k := range flagKeys {
		if v := toGo(s.Global(k)); v != nil {
			out[k] = v
		}
	}
	return out
}

// toGo converts scalars; tables and functions map to nil.
func toGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LString:
		return string(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int(f)
		}
		return f
	default:
		return nil
	}
}

// colorTable converts a colour into a 1-based array of channel bytes.
func colorTable(L *lua.LState, c pixel.Color) *lua.LTable {
	t := L.CreateTable(len(c), 0)
	for _, b := range c {
		t.Append(lua.LNumber(b))
	}
	return t
}

// tableColor converts an array of channel values. Values are truncated to
// bytes the way signed 8-bit values wrap, so -1 is 0xff.
func tableColor(v lua.LValue) (pixel.Color, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: colour must be a table, got %s", ErrBadReturn, v.Type())
	}
	n := t.Len()
	if !pixel.ValidChannels(n) {
		return nil, fmt.Errorf("%w: %d", pixel.ErrChannels, n)
	}
	c := make(pixel.Color, n)
	for i := range n {
		num, ok := t.RawGetInt(i + 1).(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("%w: colour channel %d is not a number", ErrBadReturn, i+1)
		}
		c[i] = pixel.DoubleToByte(float64(num))
	}
	return c, nil
}

// bufferTable converts a palette slot into {r, g, b, a}.
func bufferTable(L *lua.LState, b pixel.Buffer) *lua.LTable {
	return colorTable(L, pixel.Color{b.R, b.G, b.B, b.A})
}

// tableBuffer converts a colour table into a palette slot; missing
// channels are Full.
func tableBuffer(v lua.LValue) (pixel.Buffer, error) {
	c, err := tableColor(v)
	if err != nil {
		return pixel.Buffer{}, err
	}
	return pixel.BufferOf(c), nil
}

// indexValue converts a reference; unset is false so it survives in
// arrays.
func indexValue(L *lua.LState, idx *pixel.Index) lua.LValue {
	if idx == nil {
		return lua.LFalse
	}
	t := L.CreateTable(0, 2)
	t.RawSetString("x", lua.LNumber(idx.X))
	t.RawSetString("y", lua.LNumber(idx.Y))
	return t
}

// valueIndex is the inverse of indexValue.
func valueIndex(v lua.LValue) (*pixel.Index, error) {
	switch v := v.(type) {
	case *lua.LNilType, lua.LBool:
		if v == lua.LTrue {
			return nil, fmt.Errorf("%w: index must be a table or false", ErrBadReturn)
		}
		return nil, nil
	case *lua.LTable:
		x, xok := v.RawGetString("x").(lua.LNumber)
		y, yok := v.RawGetString("y").(lua.LNumber)
		if !xok || !yok {
			return nil, fmt.Errorf("%w: index needs numeric x and y", ErrBadReturn)
		}
		return &pixel.Index{X: int(x), Y: int(y)}, nil
	default:
		return nil, fmt.Errorf("%w: index must be a table, got %s", ErrBadReturn, v.Type())
	}
}

// regionTable converts a [row][column] region into nested arrays.
func regionTable(L *lua.LState, region [][]*pixel.Index) *lua.LTable {
	t := L.CreateTable(len(region), 0)
	for _, row := range region {
		r := L.CreateTable(len(row), 0)
		for _, idx := range row {
			r.Append(indexValue(L, idx))
		}
		t.Append(r)
	}
	return t
}

// tableRegion is the inverse of regionTable.
func tableRegion(v lua.LValue) ([][]*pixel.Index, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: region must be a table, got %s", ErrBadReturn, v.Type())
	}
	region := make([][]*pixel.Index, t.Len())
	for i := range region {
		rt, ok := t.RawGetInt(i + 1).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: region row %d is not a table", ErrBadReturn, i+1)
		}
		// Len stops at the first nil; unset entries are false, so the
		// row length is the highest set key.
		row := make([]*pixel.Index, rt.MaxN())
		for j := range row {
			idx, err := valueIndex(rt.RawGetInt(j + 1))
			if err != nil {
				return nil, err
			}
			row[j] = idx
		}
		region[i] = row
	}
	return region, nil
}

// stringsTable converts a string slice into an array.
func stringsTable(L *lua.LState, ss []string) *lua.LTable {
	t := L.CreateTable(len(ss), 0)
	for _, s := range ss {
		t.Append(lua.LString(s))
	}
	return t
}
