package luascript

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/pixel"
)

// Host type names, used as metatable keys.
const (
	typeArtboard = "sprite.artboard"
	typeEditor   = "sprite.editor"
	typeProject  = "sprite.project"
	typeBounder  = "sprite.bounder"
	typeRadius   = "sprite.radius"
	typeBuffer   = "sprite.buffer"
)

// registerTypes installs a metatable per host type. Methods take the
// object as their first argument, so scripts use colon calls.
func registerTypes(L *lua.LState) {
	for name, methods := range map[string]map[string]lua.LGFunction{
		typeArtboard: artboardMethods,
		typeEditor:   editorMethods,
		typeProject:  projectMethods,
		typeBounder:  bounderMethods,
		typeRadius:   radiusMethods,
		typeBuffer:   bufferMethods,
	} {
		mt := L.NewTypeMetatable(name)
		L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
		L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LString(name))
			return 1
		}))
	}
}

// wrap boxes a host object as userdata of the given type.
func wrap(L *lua.LState, typeName string, v any) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, L.GetTypeMetatable(typeName))
	return ud
}

// self unboxes the receiver of a method call.
func self[T any](L *lua.LState, typeName string) T {
	ud := L.CheckUserData(1)
	v, ok := ud.Value.(T)
	if !ok {
		L.ArgError(1, typeName+" expected")
	}
	return v
}

// raise converts a host error into a Lua error.
func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func checkColor(L *lua.LState, n int) pixel.Color {
	c, err := tableColor(L.Get(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func checkRect(L *lua.LState, from int) (int, int, int, int) {
	return L.CheckInt(from), L.CheckInt(from + 1), L.CheckInt(from + 2), L.CheckInt(from + 3)
}

func pushInts(L *lua.LState, vs ...int) int {
	for _, v := range vs {
		L.Push(lua.LNumber(v))
	}
	return len(vs)
}

func pushFloats(L *lua.LState, vs ...float64) int {
	for _, v := range vs {
		L.Push(lua.LNumber(v))
	}
	return len(vs)
}

func checkArtboard(L *lua.LState) artboard.Artboard { return self[artboard.Artboard](L, typeArtboard) }

var artboardMethods = map[string]lua.LGFunction{
	"id":       func(L *lua.LState) int { L.Push(lua.LString(checkArtboard(L).ID())); return 1 },
	"width":    func(L *lua.LState) int { return pushInts(L, checkArtboard(L).Width()) },
	"height":   func(L *lua.LState) int { return pushInts(L, checkArtboard(L).Height()) },
	"channels": func(L *lua.LState) int { return pushInts(L, checkArtboard(L).ActiveLayerChannels()) },
	"leftX":    func(L *lua.LState) int { return pushFloats(L, checkArtboard(L).LeftX()) },
	"rightX":   func(L *lua.LState) int { return pushFloats(L, checkArtboard(L).RightX()) },
	"bottomY":  func(L *lua.LState) int { return pushFloats(L, checkArtboard(L).BottomY()) },
	"topY":     func(L *lua.LState) int { return pushFloats(L, checkArtboard(L).TopY()) },
	"putInPalette": func(L *lua.LState) int {
		idx, err := checkArtboard(L).PutInPalette(checkColor(L, 2))
		raise(L, err)
		L.Push(indexValue(L, &idx))
		return 1
	},
	"putColor": func(L *lua.LState) int {
		b := checkArtboard(L)
		x, y, w, h := checkRect(L, 2)
		raise(L, b.PutColorInImage(x, y, w, h, checkColor(L, 6)))
		return 0
	},
	"putIndex": func(L *lua.LState) int {
		b := checkArtboard(L)
		x, y, w, h := checkRect(L, 2)
		idx, err := valueIndex(L.Get(6))
		if err != nil || idx == nil {
			L.ArgError(6, "index expected")
		}
		raise(L, b.PutIndexInImage(x, y, w, h, *idx))
		return 0
	},
	"putRegion": func(L *lua.LState) int {
		b := checkArtboard(L)
		x, y, w, h := checkRect(L, 2)
		region, err := tableRegion(L.Get(6))
		if err != nil {
			L.ArgError(6, err.Error())
		}
		raise(L, b.PutColorsInImage(x, y, w, h, region))
		return 0
	},
	"removePixel": func(L *lua.LState) int {
		raise(L, checkArtboard(L).RemovePixel(L.CheckInt(2), L.CheckInt(3)))
		return 0
	},
	"layerPixel": func(L *lua.LState) int {
		L.Push(indexValue(L, checkArtboard(L).LayerPixel(L.CheckInt(2), L.CheckInt(3))))
		return 1
	},
	"region": func(L *lua.LState) int {
		b := checkArtboard(L)
		x, y, w, h := checkRect(L, 2)
		region, err := b.RegionOfLayerPixels(x, y, w, h)
		raise(L, err)
		L.Push(regionTable(L, region))
		return 1
	},
	"colorAt": func(L *lua.LState) int {
		L.Push(colorTable(L, checkArtboard(L).ColorAt(L.CheckInt(2), L.CheckInt(3))))
		return 1
	},
	"checkered": func(L *lua.LState) int {
		checkArtboard(L).SetToCheckeredBackground()
		return 0
	},
	"worldToPixel": func(L *lua.LState) int {
		x, y := checkArtboard(L).WorldToPixelIndices(L.CheckInt(2), L.CheckInt(3))
		return pushInts(L, x, y)
	},
}

func checkEditor(L *lua.LState) editor.Editor { return self[editor.Editor](L, typeEditor) }

func checkControl(L *lua.LState, n int) editor.Control {
	name := L.CheckString(n)
	for _, c := range []editor.Control{editor.ArtboardInteract, editor.MoveSelectionArea} {
		if c.String() == name {
			return c
		}
	}
	L.ArgError(n, "unknown control "+name)
	return 0
}

var editorMethods = map[string]lua.LGFunction{
	"selectedColor": func(L *lua.LState) int {
		L.Push(colorTable(L, checkEditor(L).SelectedColor()))
		return 1
	},
	"cursor": func(L *lua.LState) int {
		x, y := checkEditor(L).CursorCoords()
		return pushFloats(L, x, y)
	},
	"project": func(L *lua.LState) int {
		L.Push(wrap(L, typeProject, checkEditor(L).Project()))
		return 1
	},
	"pressed": func(L *lua.LState) int {
		e := checkEditor(L)
		L.Push(lua.LBool(e.Pressed(checkControl(L, 2))))
		return 1
	},
	"struck": func(L *lua.LState) int {
		e := checkEditor(L)
		L.Push(lua.LBool(e.Struck(checkControl(L, 2))))
		return 1
	},
}

func checkProject(L *lua.LState) artboard.Project { return self[artboard.Project](L, typeProject) }

var projectMethods = map[string]lua.LGFunction{
	"createArtboard": func(L *lua.LState) int {
		p := checkProject(L)
		b, err := p.CreateArtboard(L.CheckInt(2), L.CheckInt(3))
		raise(L, err)
		L.Push(wrap(L, typeArtboard, b))
		return 1
	},
	"artboards": func(L *lua.LState) int {
		boards := checkProject(L).Artboards()
		t := L.CreateTable(len(boards), 0)
		for _, b := range boards {
			t.Append(wrap(L, typeArtboard, b))
		}
		L.Push(t)
		return 1
	},
	"animations": func(L *lua.LState) int {
		L.Push(stringsTable(L, checkProject(L).Animations()))
		return 1
	},
	"visualLayers": func(L *lua.LState) int {
		L.Push(stringsTable(L, checkProject(L).VisualLayers()))
		return 1
	},
	"nonVisualLayers": func(L *lua.LState) int {
		L.Push(stringsTable(L, checkProject(L).NonVisualLayers()))
		return 1
	},
}

func checkBounder(L *lua.LState) *brush.SelectionBounder {
	return self[*brush.SelectionBounder](L, typeBounder)
}

var bounderMethods = map[string]lua.LGFunction{
	"lx":     func(L *lua.LState) int { return pushInts(L, checkBounder(L).LX()) },
	"rx":     func(L *lua.LState) int { return pushInts(L, checkBounder(L).RX()) },
	"by":     func(L *lua.LState) int { return pushInts(L, checkBounder(L).BY()) },
	"ty":     func(L *lua.LState) int { return pushInts(L, checkBounder(L).TY()) },
	"width":  func(L *lua.LState) int { return pushInts(L, checkBounder(L).Width()) },
	"height": func(L *lua.LState) int { return pushInts(L, checkBounder(L).Height()) },
	"midpoint": func(L *lua.LState) int {
		x, y := checkBounder(L).Midpoint()
		return pushFloats(L, x, y)
	},
	"moveCorner": func(L *lua.LState) int {
		checkBounder(L).MoveCorner(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		return 0
	},
	"moveTo": func(L *lua.LState) int {
		checkBounder(L).MoveTo(float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		return 0
	},
	"snap": func(L *lua.LState) int {
		s := checkBounder(L)
		l, r, b, t := checkRect(L, 2)
		s.Snap(l, r, b, t)
		return 0
	},
	"setColor": func(L *lua.LState) int {
		s := checkBounder(L)
		s.Color = uint32(L.CheckInt64(2))
		return 0
	},
}

func checkRadius(L *lua.LState) *brush.Radius { return self[*brush.Radius](L, typeRadius) }

var radiusMethods = map[string]lua.LGFunction{
	"get": func(L *lua.LState) int { return pushInts(L, checkRadius(L).Get()) },
	"set": func(L *lua.LState) int {
		checkRadius(L).Set(L.CheckInt(2))
		return 0
	},
	"centerAround": func(L *lua.LState) int {
		r := checkRadius(L)
		x, y, w, h := checkRect(L, 2)
		b := r.CenterAround(x, y, w, h)
		return pushInts(L, b.X, b.Y, b.Width, b.Height)
	},
}

// newSpriteTable builds the global sprite table of helpers.
func newSpriteTable(L *lua.LState, logger *logging.Logger) *lua.LTable {
	t := L.NewTable()
	L.SetFuncs(t, map[string]lua.LGFunction{
		"doubleToByte": func(L *lua.LState) int {
			return pushInts(L, int(pixel.DoubleToByte(float64(L.CheckNumber(1)))))
		},
		"doubleToInt": func(L *lua.LState) int {
			return pushInts(L, pixel.DoubleToInt(float64(L.CheckNumber(1))))
		},
		"log": func(L *lua.LState) int {
			logger.Info("%s", L.CheckString(1))
			return 0
		},
	})
	L.SetField(t, "FULL", lua.LNumber(pixel.Full))
	return t
}
