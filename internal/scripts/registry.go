// Package scripts holds the script registry and the built-in scripts.
//
// Every script is registered under a kind (the folder it would live in)
// and a name. Registration parses the flags the script declares into an
// immutable record; scripts with missing or malformed flags are rejected
// there and never reach the editor.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/export"
	"github.com/dshills/spritestudio/internal/history"
	"github.com/dshills/spritestudio/internal/palette"
)

// Registry errors.
var (
	// ErrDuplicate is returned when a name is registered twice in a kind.
	ErrDuplicate = errors.New("scripts: script already registered")

	// ErrNotFound is returned for unknown script names.
	ErrNotFound = errors.New("scripts: script not found")
)

// Kind is the folder a script is loaded from.
type Kind int

const (
	Artboards Kind = iota
	Projects
	SimpleBrushes
	ModifyingBrushes
	SelectingBrushes
	Palettes
	Exporters
)

// Kinds lists every script kind.
var Kinds = []Kind{Artboards, Projects, SimpleBrushes, ModifyingBrushes, SelectingBrushes, Palettes, Exporters}

// Folder returns the directory name scripts of this kind live in.
func (k Kind) Folder() string {
	switch k {
	case Artboards:
		return "artboards"
	case Projects:
		return "projects"
	case SimpleBrushes:
		return "simple brushes"
	case ModifyingBrushes:
		return "modifying brushes"
	case SelectingBrushes:
		return "selecting brushes"
	case Palettes:
		return "palettes"
	case Exporters:
		return "exporters"
	default:
		return "unknown"
	}
}

func (k Kind) String() string { return k.Folder() }

// KindForFolder maps a directory name back to its kind.
func KindForFolder(folder string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Folder() == folder {
			return k, true
		}
	}
	return 0, false
}

// BrushKind returns the brush variant of a brush folder.
func (k Kind) BrushKind() (brush.Kind, bool) {
	switch k {
	case SimpleBrushes:
		return brush.Simple, true
	case ModifyingBrushes:
		return brush.Modifying, true
	case SelectingBrushes:
		return brush.Selecting, true
	default:
		return 0, false
	}
}

// ScriptError wraps a failure raised by a script.
type ScriptError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s script %s: %v", e.Kind, e.Name, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// ArtboardFactory builds an event for one artboard. args is nil unless the
// script takes arguments.
type ArtboardFactory func(ab artboard.Artboard, ed editor.Editor, args []string) (event.Event, error)

// ProjectFactory builds an event operating on a whole project.
type ProjectFactory func(p artboard.Project, ed editor.Editor) (event.Event, error)

// BrushFactory creates a fresh brush instance.
type BrushFactory func() (brush.Brush, error)

// PaletteFactory creates a generator at the given value scale.
type PaletteFactory func(valueScale int) (palette.Generator, error)

// ArtboardScript is a registered artboard script.
type ArtboardScript struct {
	Meta event.Meta
	New  ArtboardFactory
}

// ProjectScript is a registered project script.
type ProjectScript struct {
	Meta event.Meta
	New  ProjectFactory
}

// BrushScript is a registered brush script.
type BrushScript struct {
	Meta brush.Meta
	New  BrushFactory
}

// PaletteScript is a registered palette script.
type PaletteScript struct {
	Name              string
	InitialValueScale int
	New               PaletteFactory
}

// Registry maps script names to factories, per kind.
type Registry struct {
	mu        sync.RWMutex
	artboards map[string]ArtboardScript
	projects  map[string]ProjectScript
	brushes   map[Kind]map[string]BrushScript
	palettes  map[string]PaletteScript
	exporters map[string]export.Exporter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		artboards: make(map[string]ArtboardScript),
		projects:  make(map[string]ProjectScript),
		brushes: map[Kind]map[string]BrushScript{
			SimpleBrushes:    {},
			ModifyingBrushes: {},
			SelectingBrushes: {},
		},
		palettes:  make(map[string]PaletteScript),
		exporters: make(map[string]export.Exporter),
	}
}

// RegisterArtboard registers an artboard script with its declared flags.
func (r *Registry) RegisterArtboard(name string, flags map[string]any, fn ArtboardFactory) error {
	meta, err := event.ParseMeta(name, flags)
	if err != nil {
		return &ScriptError{Kind: Artboards, Name: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.artboards[name]; exists {
		return &ScriptError{Kind: Artboards, Name: name, Err: ErrDuplicate}
	}
	r.artboards[name] = ArtboardScript{Meta: meta, New: fn}
	return nil
}

// RegisterProject registers a project script with its declared flags.
func (r *Registry) RegisterProject(name string, flags map[string]any, fn ProjectFactory) error {
	meta, err := event.ParseMeta(name, flags)
	if err != nil {
		return &ScriptError{Kind: Projects, Name: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[name]; exists {
		return &ScriptError{Kind: Projects, Name: name, Err: ErrDuplicate}
	}
	r.projects[name] = ProjectScript{Meta: meta, New: fn}
	return nil
}

// RegisterBrush registers a brush script under one of the brush kinds.
func (r *Registry) RegisterBrush(kind Kind, name string, flags map[string]any, fn BrushFactory) error {
	bk, ok := kind.BrushKind()
	if !ok {
		return &ScriptError{Kind: kind, Name: name, Err: fmt.Errorf("%s is not a brush folder", kind)}
	}
	meta, err := brush.ParseMeta(name, bk, flags)
	if err != nil {
		return &ScriptError{Kind: kind, Name: name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brushes[kind][name]; exists {
		return &ScriptError{Kind: kind, Name: name, Err: ErrDuplicate}
	}
	r.brushes[kind][name] = BrushScript{Meta: meta, New: fn}
	return nil
}

// RegisterPalette registers a palette script.
func (r *Registry) RegisterPalette(name string, initialValueScale int, fn PaletteFactory) error {
	if initialValueScale <= 0 {
		return &ScriptError{Kind: Palettes, Name: name, Err: palette.ErrValueScale}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.palettes[name]; exists {
		return &ScriptError{Kind: Palettes, Name: name, Err: ErrDuplicate}
	}
	r.palettes[name] = PaletteScript{Name: name, InitialValueScale: initialValueScale, New: fn}
	return nil
}

// RegisterExporter registers a scripted export format under its name.
func (r *Registry) RegisterExporter(e export.Exporter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exporters[e.Name()]; exists {
		return &ScriptError{Kind: Exporters, Name: e.Name(), Err: ErrDuplicate}
	}
	r.exporters[e.Name()] = e
	return nil
}

// Unregister removes a script so a reloaded version can take its place.
// It reports whether the script existed.
func (r *Registry) Unregister(kind Kind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ok bool
	switch kind {
	case Artboards:
		_, ok = r.artboards[name]
		delete(r.artboards, name)
	case Projects:
		_, ok = r.projects[name]
		delete(r.projects, name)
	case Palettes:
		_, ok = r.palettes[name]
		delete(r.palettes, name)
	case Exporters:
		_, ok = r.exporters[name]
		delete(r.exporters, name)
	default:
		if m, exists := r.brushes[kind]; exists {
			_, ok = m[name]
			delete(m, name)
		}
	}
	return ok
}

func brushFolder(k brush.Kind) Kind {
	switch k {
	case brush.Modifying:
		return ModifyingBrushes
	case brush.Selecting:
		return SelectingBrushes
	default:
		return SimpleBrushes
	}
}

// Artboard looks up an artboard script.
func (r *Registry) Artboard(name string) (ArtboardScript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.artboards[name]
	if !ok {
		return ArtboardScript{}, &ScriptError{Kind: Artboards, Name: name, Err: ErrNotFound}
	}
	return s, nil
}

// Project looks up a project script.
func (r *Registry) Project(name string) (ProjectScript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.projects[name]
	if !ok {
		return ProjectScript{}, &ScriptError{Kind: Projects, Name: name, Err: ErrNotFound}
	}
	return s, nil
}

// Brush looks up a brush script in any brush folder.
func (r *Registry) Brush(name string) (BrushScript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range []Kind{SimpleBrushes, ModifyingBrushes, SelectingBrushes} {
		if s, ok := r.brushes[k][name]; ok {
			return s, nil
		}
	}
	return BrushScript{}, &ScriptError{Kind: SimpleBrushes, Name: name, Err: ErrNotFound}
}

// Palette looks up a palette script.
func (r *Registry) Palette(name string) (PaletteScript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.palettes[name]
	if !ok {
		return PaletteScript{}, &ScriptError{Kind: Palettes, Name: name, Err: ErrNotFound}
	}
	return s, nil
}

// Exporters returns the scripted exporters sorted by name.
func (r *Registry) Exporters() []export.Exporter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]export.Exporter, 0, len(r.exporters))
	for _, e := range r.exporters {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b export.Exporter) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// Names returns the sorted names registered under kind.
func (r *Registry) Names(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	switch kind {
	case Artboards:
		for n := range r.artboards {
			names = append(names, n)
		}
	case Projects:
		for n := range r.projects {
			names = append(names, n)
		}
	case Palettes:
		for n := range r.palettes {
			names = append(names, n)
		}
	case Exporters:
		for n := range r.exporters {
			names = append(names, n)
		}
	default:
		for n := range r.brushes[kind] {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// RunArtboard builds the named artboard script's event for ab and executes
// it through stack. args are only passed to scripts that take arguments.
func (r *Registry) RunArtboard(ctx context.Context, stack *history.Stack, name string, ab artboard.Artboard, ed editor.Editor, args []string) error {
	s, err := r.Artboard(name)
	if err != nil {
		return err
	}
	if !s.Meta.TakesArguments {
		args = nil
	}
	ev, err := s.New(ab, ed, args)
	if err != nil {
		return &ScriptError{Kind: Artboards, Name: name, Err: err}
	}
	if ev == nil {
		return &ScriptError{Kind: Artboards, Name: name, Err: event.ErrNilEvent}
	}
	return stack.Execute(ctx, name, ev, event.FlagsOf(ev, s.Meta.Flags()))
}

// RunProject builds and executes the named project script's event.
func (r *Registry) RunProject(ctx context.Context, stack *history.Stack, name string, p artboard.Project, ed editor.Editor) error {
	s, err := r.Project(name)
	if err != nil {
		return err
	}
	ev, err := s.New(p, ed)
	if err != nil {
		return &ScriptError{Kind: Projects, Name: name, Err: err}
	}
	if ev == nil {
		return &ScriptError{Kind: Projects, Name: name, Err: event.ErrNilEvent}
	}
	return stack.Execute(ctx, name, ev, event.FlagsOf(ev, s.Meta.Flags()))
}

// NewDriver instantiates the named brush and binds it to stack.
func (r *Registry) NewDriver(name string, stack *history.Stack, opts ...DriverOption) (*brush.Driver, error) {
	s, err := r.Brush(name)
	if err != nil {
		return nil, err
	}
	b, err := s.New()
	if err != nil {
		return nil, &ScriptError{Kind: brushFolder(s.Meta.Kind), Name: name, Err: err}
	}
	cfg := driverConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.radius > 0 {
		if m, ok := b.(brush.Modifier); ok {
			m.Radius().Set(cfg.radius)
		}
	}
	return brush.NewDriver(b, s.Meta, stack, cfg.logger), nil
}
