package luascript

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/export"
)

// Exporter globals.
const (
	entryExport  = "export"
	keyExtension = "extension"
)

// luaExporter calls the script's export function:
//
//	export(path, buffer, width, height, channels) -> string
//
// The returned string is written to path. The host creates and closes the
// file and rewinds buffer whatever the script does.
type luaExporter struct {
	name  string
	ext   string
	state *State
	fn    lua.LValue
	opts  []export.Option
}

func newExporter(sc *Script) (export.Exporter, error) {
	ext := "." + strings.ToLower(sc.Name)
	if v, ok := sc.Flags[keyExtension]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: %s must be a non-empty string", event.ErrInvalidMeta, keyExtension)
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		ext = s
	}
	return &luaExporter{
		name:  sc.Name,
		ext:   ext,
		state: sc.state,
		fn:    sc.entry,
		opts:  []export.Option{export.WithLogger(sc.logger)},
	}, nil
}

func (e *luaExporter) Name() string      { return e.name }
func (e *luaExporter) Extension() string { return e.ext }

func (e *luaExporter) Export(path string, buf *export.PixelBuffer, width, height, channels int) error {
	encode := func(w io.Writer, buf *export.PixelBuffer, width, height, channels int) error {
		res, err := e.state.CallWith(e.fn, 1, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{
				lua.LString(path),
				wrap(L, typeBuffer, buf),
				lua.LNumber(width),
				lua.LNumber(height),
				lua.LNumber(channels),
			}
		})
		if err != nil {
			return err
		}
		switch v := res[0].(type) {
		case lua.LString:
			_, err := io.WriteString(w, string(v))
			return err
		case *lua.LNilType:
			return nil
		default:
			return fmt.Errorf("%w: export must return a string, got %s", ErrBadReturn, v.Type())
		}
	}
	return export.New(e.name, e.ext, encode, e.opts...).Export(path, buf, width, height, channels)
}

func checkBuffer(L *lua.LState) *export.PixelBuffer {
	return self[*export.PixelBuffer](L, typeBuffer)
}

var bufferMethods = map[string]lua.LGFunction{
	"get": func(L *lua.LState) int {
		v, err := checkBuffer(L).Get()
		raise(L, err)
		return pushInts(L, int(v))
	},
	"hasRemaining": func(L *lua.LState) int {
		L.Push(lua.LBool(checkBuffer(L).HasRemaining()))
		return 1
	},
	"remaining": func(L *lua.LState) int { return pushInts(L, checkBuffer(L).Remaining()) },
	"len":       func(L *lua.LState) int { return pushInts(L, checkBuffer(L).Len()) },
	// position() reads the position; position(n) moves it.
	"position": func(L *lua.LState) int {
		b := checkBuffer(L)
		if L.GetTop() >= 2 {
			raise(L, b.SetPosition(L.CheckInt(2)))
			return 0
		}
		return pushInts(L, b.Position())
	},
}
