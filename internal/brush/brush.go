// Package brush defines the brush use/canUse protocol.
//
// A brush is polled by the host every frame the cursor is over an
// artboard. CanUse is a pure predicate that returns false whenever Use
// would have no visible effect, which keeps no-op events off the undo
// stack. Use is only called after CanUse returned true and must return an
// event. Stateful brushes also receive Update once per frame before either
// call; the artboard passed to Update is nil when the cursor is not over one.
//
// Three variants exist: Simple brushes have no bounding region, Modifying
// brushes work inside a radius around the clicked pixel (Radius), and
// Selecting brushes work inside a user-dragged rectangle (SelectionBounder).
package brush

import (
	"errors"
	"fmt"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
)

// Brush turns clicks on an artboard into events.
type Brush interface {
	CanUse(ab artboard.Artboard, ed editor.Editor, x, y int) bool
	Use(ab artboard.Artboard, ed editor.Editor, x, y int) (event.Event, error)
}

// Updater is implemented by stateful brushes. ab may be nil.
type Updater interface {
	Update(ab artboard.Artboard, ed editor.Editor) error
}

// ShutDowner is implemented by brushes holding resources; it runs when the
// brush is replaced or reloaded.
type ShutDowner interface {
	ShutDown() error
}

// Modifier is implemented by modifying brushes.
type Modifier interface {
	Radius() *Radius
}

// Selector is implemented by selecting brushes.
type Selector interface {
	Selection() *SelectionBounder
}

// Kind is the brush variant.
type Kind int

const (
	Simple Kind = iota
	Modifying
	Selecting
)

// String returns the folder-style name of the kind.
func (k Kind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Modifying:
		return "modifying"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// KindOf derives the variant from the interfaces b implements.
func KindOf(b Brush) Kind {
	switch b.(type) {
	case Selector:
		return Selecting
	case Modifier:
		return Modifying
	default:
		return Simple
	}
}

// Declared brush flag names.
const (
	KeyTooltip  = "tooltip"
	KeyStateful = "stateful"
)

// ErrInvalidMeta is returned for malformed brush flags.
var ErrInvalidMeta = errors.New("brush: invalid script flags")

// Meta is the immutable registration record of a brush script.
type Meta struct {
	Name     string
	Tooltip  string
	Stateful bool
	Kind     Kind
	// Event holds the flags of the events the brush returns.
	Event event.Flags
}

// ParseMeta builds a Meta from declared values. The event flags follow
// event.ParseMeta; tooltip and stateful are optional.
func ParseMeta(name string, kind Kind, values map[string]any) (Meta, error) {
	em, err := event.ParseMeta(name, values)
	if err != nil {
		return Meta{}, err
	}
	m := Meta{Name: name, Kind: kind, Event: em.Flags()}

	if v, ok := values[KeyTooltip]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Meta{}, fmt.Errorf("%w: %s: tooltip must be a string, got %T", ErrInvalidMeta, name, v)
		}
		m.Tooltip = s
	}
	if v, ok := values[KeyStateful]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return Meta{}, fmt.Errorf("%w: %s: stateful must be a bool, got %T", ErrInvalidMeta, name, v)
		}
		m.Stateful = b
	}
	return m, nil
}
