package luascript

import (
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/palette"
	"github.com/dshills/spritestudio/internal/scripts"
)

// Ext is the script file extension.
const Ext = ".lua"

// Script is one loaded script file and its state.
type Script struct {
	Path string
	// Name is the registered name: the file name without extension, or
	// the declared name for palettes.
	Name  string
	Kind  scripts.Kind
	Flags map[string]any

	state  *State
	entry  lua.LValue
	logger *logging.Logger
}

// Load executes the file at path and resolves its entry function, the
// global named after the file. Exporters use the global export instead.
func Load(path string, kind scripts.Kind, logger *logging.Logger, opts ...Option) (*Script, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	logger = logger.WithField("script", stem)

	s := NewState(append([]Option{WithLogger(logger)}, opts...)...)
	if err := s.DoFile(path); err != nil {
		s.Close()
		return nil, &scripts.ScriptError{Kind: kind, Name: stem, Err: err}
	}

	entryName := stem
	if kind == scripts.Exporters {
		entryName = entryExport
	}
	entry := s.Global(entryName)
	if entry.Type() != lua.LTFunction {
		s.Close()
		return nil, &scripts.ScriptError{Kind: kind, Name: stem, Err: fmt.Errorf("%w: %s", ErrNoEntry, entryName)}
	}

	sc := &Script{
		Path:   path,
		Name:   stem,
		Kind:   kind,
		Flags:  declaredFlags(s),
		state:  s,
		entry:  entry,
		logger: logger,
	}
	if kind == scripts.Palettes {
		if n, ok := sc.Flags[keyName].(string); ok && n != "" {
			sc.Name = n
		}
	}
	return sc, nil
}

// Register adds the script to r under its kind.
func (sc *Script) Register(r *scripts.Registry) error {
	switch sc.Kind {
	case scripts.Artboards:
		return r.RegisterArtboard(sc.Name, sc.Flags, sc.newArtboardEvent)
	case scripts.Projects:
		return r.RegisterProject(sc.Name, sc.Flags, sc.newProjectEvent)
	case scripts.Palettes:
		scale := palette.DefaultValueScale
		if v, ok := sc.Flags[keyInitialValueScale]; ok {
			n, ok := v.(int)
			if !ok {
				return &scripts.ScriptError{Kind: sc.Kind, Name: sc.Name, Err: fmt.Errorf("%w: %s must be an integer", event.ErrInvalidMeta, keyInitialValueScale)}
			}
			scale = n
		}
		return r.RegisterPalette(sc.Name, scale, func(valueScale int) (palette.Generator, error) {
			return newPalette(sc, sc.Name, valueScale)
		})
	case scripts.Exporters:
		e, err := newExporter(sc)
		if err != nil {
			return &scripts.ScriptError{Kind: sc.Kind, Name: sc.Name, Err: err}
		}
		return r.RegisterExporter(e)
	default:
		bk, ok := sc.Kind.BrushKind()
		if !ok {
			return &scripts.ScriptError{Kind: sc.Kind, Name: sc.Name, Err: fmt.Errorf("unsupported kind %d", sc.Kind)}
		}
		return r.RegisterBrush(sc.Kind, sc.Name, sc.Flags, func() (brush.Brush, error) {
			return newBrush(sc, bk)
		})
	}
}

// Unregister removes the script from r.
func (sc *Script) Unregister(r *scripts.Registry) bool {
	return r.Unregister(sc.Kind, sc.Name)
}

// Close releases the script's state. Events and brushes created from it
// fail with ErrStateClosed afterwards.
func (sc *Script) Close() { sc.state.Close() }

// newArtboardEvent calls entry(artboard, editor[, args]).
func (sc *Script) newArtboardEvent(ab artboard.Artboard, ed editor.Editor, args []string) (event.Event, error) {
	res, err := sc.state.CallWith(sc.entry, 1, func(L *lua.LState) []lua.LValue {
		out := []lua.LValue{wrap(L, typeArtboard, ab), wrap(L, typeEditor, ed)}
		if args != nil {
			out = append(out, stringsTable(L, args))
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return newEvent(sc.state, res[0])
}

// newProjectEvent calls entry(project, editor).
func (sc *Script) newProjectEvent(p artboard.Project, ed editor.Editor) (event.Event, error) {
	res, err := sc.state.CallWith(sc.entry, 1, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{wrap(L, typeProject, p), wrap(L, typeEditor, ed)}
	})
	if err != nil {
		return nil, err
	}
	return newEvent(sc.state, res[0])
}
