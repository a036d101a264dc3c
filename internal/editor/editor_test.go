package editor

import (
	"testing"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/pixel"
)

func TestPressAndStrike(t *testing.T) {
	s := NewState(artboard.NewMemoryProject(4), pixel.MustColor(4))

	s.Press(ArtboardInteract)
	if !s.Pressed(ArtboardInteract) || !s.Struck(ArtboardInteract) {
		t.Fatal("first frame of press should be pressed and struck")
	}

	s.EndFrame()
	s.Press(ArtboardInteract)
	if !s.Pressed(ArtboardInteract) {
		t.Error("held control not pressed")
	}
	if s.Struck(ArtboardInteract) {
		t.Error("held control struck again")
	}

	s.Release(ArtboardInteract)
	if s.Pressed(ArtboardInteract) {
		t.Error("released control still pressed")
	}
}

func TestSelectedColorIsCopied(t *testing.T) {
	c := pixel.RGBA(4, 1, 2, 3, 4)
	s := NewState(nil, c)
	c[0] = 99

	got := s.SelectedColor()
	if got[0] != 1 {
		t.Errorf("SelectedColor()[0] = %d, want 1", got[0])
	}
	got[1] = 99
	if s.SelectedColor()[1] != 2 {
		t.Error("mutating returned colour changed editor state")
	}
}

func TestControlString(t *testing.T) {
	if ArtboardInteract.String() != "artboard_interact" || MoveSelectionArea.String() != "move_selection_area" {
		t.Error("unexpected control names")
	}
	if Control(9).String() != "unknown" {
		t.Error("unknown control name")
	}
}
