// Package editor defines the editor-side collaborator brushes query: the
// selected colour, the cursor, the project and the state of bound controls.
package editor

import (
	"sync"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/pixel"
)

// Control is an input binding brushes react to.
type Control int

const (
	// ArtboardInteract is the binding that applies a brush.
	ArtboardInteract Control = iota
	// MoveSelectionArea drags the nearest corner of a selection.
	MoveSelectionArea
)

// String returns the control name.
func (c Control) String() string {
	switch c {
	case ArtboardInteract:
		return "artboard_interact"
	case MoveSelectionArea:
		return "move_selection_area"
	default:
		return "unknown"
	}
}

// Editor is what the host exposes to brushes.
type Editor interface {
	// SelectedColor is the colour chosen in the colour picker, sized to
	// the active layer.
	SelectedColor() pixel.Color

	// CursorCoords is the cursor position in world space.
	CursorCoords() (float64, float64)

	Project() artboard.Project

	// Pressed reports whether the control is held this frame.
	Pressed(c Control) bool

	// Struck reports whether the control went down this frame.
	Struck(c Control) bool
}

// State is an in-memory Editor driven by the caller.
type State struct {
	mu sync.RWMutex

	selected pixel.Color
	cursorX  float64
	cursorY  float64
	project  artboard.Project
	pressed  map[Control]bool
	struck   map[Control]bool
}

// NewState creates an editor for project with the given selected colour.
func NewState(project artboard.Project, selected pixel.Color) *State {
	return &State{
		selected: selected.Clone(),
		project:  project,
		pressed:  make(map[Control]bool),
		struck:   make(map[Control]bool),
	}
}

func (s *State) SelectedColor() pixel.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected.Clone()
}

func (s *State) CursorCoords() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursorX, s.cursorY
}

func (s *State) Project() artboard.Project { return s.project }

func (s *State) Pressed(c Control) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pressed[c]
}

func (s *State) Struck(c Control) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.struck[c]
}

// SetSelectedColor changes the picker colour.
func (s *State) SetSelectedColor(c pixel.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = c.Clone()
}

// SetCursor moves the cursor in world space.
func (s *State) SetCursor(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorX, s.cursorY = x, y
}

// Press holds a control down. The first frame it is held also counts as a
// strike.
func (s *State) Press(c Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pressed[c] {
		s.struck[c] = true
	}
	s.pressed[c] = true
}

// Release lets go of a control.
func (s *State) Release(c Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed[c] = false
	s.struck[c] = false
}

// EndFrame clears strikes; held controls stay pressed.
func (s *State) EndFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.struck {
		s.struck[c] = false
	}
}
