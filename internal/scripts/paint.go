package scripts

import (
	"iter"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/pixel"
)

// paintEvent writes to a known set of positions. The layer references at
// those positions are captured on the first Do and written back by Undo,
// so redo repaints over the same snapshot.
type paintEvent struct {
	ab     artboard.Artboard
	region iter.Seq[artboard.Point]
	paint  func(ab artboard.Artboard) error
	flags  event.Flags

	prev event.Capture[*artboard.Snapshot]
}

func (e *paintEvent) Do() error {
	if _, err := e.prev.Ensure(func() (*artboard.Snapshot, error) {
		return artboard.Capture(e.ab, e.region)
	}); err != nil {
		return err
	}
	return e.paint(e.ab)
}

func (e *paintEvent) Undo() error {
	snap, ok := e.prev.Value()
	if !ok {
		return nil
	}
	return snap.Restore(e.ab)
}

func (e *paintEvent) Flags() event.Flags { return e.flags }

// oneShot runs fn once and is never retained.
type oneShot struct {
	fn    func() error
	flags event.Flags
}

func (e *oneShot) Do() error          { return e.fn() }
func (e *oneShot) Flags() event.Flags { return e.flags }

// shade returns a gray of the given width: colour channels hold v and
// alpha, when the width has one, is Full.
func shade(channels int, v byte) pixel.Color {
	c := make(pixel.Color, channels)
	for i := range c {
		c[i] = v
	}
	if pixel.HasAlpha(channels) {
		c[channels-1] = pixel.Full
	}
	return c
}

// opaque narrows an RGB colour to the layer width with a Full alpha.
func opaque(channels int, r, g, b byte) pixel.Color {
	switch channels {
	case 1:
		return pixel.Color{r}
	case 2:
		return pixel.Color{r, pixel.Full}
	default:
		return pixel.RGBA(channels, r, g, b, pixel.Full)
	}
}

// differs reports whether the layer at (x, y) does not already show c.
// Unset positions always differ.
func differs(ab artboard.Artboard, x, y int, c pixel.Color) bool {
	if ab.LayerPixel(x, y) == nil {
		return true
	}
	return !ab.ColorAt(x, y).Equal(c)
}
