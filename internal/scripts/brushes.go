package scripts

import (
	"errors"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/pixel"
)

// errSelectOnly is returned by brushes that only move their selection.
var errSelectOnly = errors.New("brush only selects and never applies")

// Declared flags of the built-in brushes.
var (
	simpleBrushFlags = map[string]any{
		brush.KeyTooltip:          "Colors the clicked pixel with the selected color.",
		brush.KeyStateful:         false,
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: false,
	}
	diagonalBrushFlags = map[string]any{
		brush.KeyTooltip:          "Draws a diagonal line on the artboard.",
		brush.KeyStateful:         false,
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: false,
	}
	gradientRegionFlags = map[string]any{
		brush.KeyTooltip:          "Colors a region to a gradient",
		brush.KeyStateful:         true,
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: false,
	}
	subRegionFlags = map[string]any{
		brush.KeyTooltip:          "Copies the contents of the selected region into a new artboard.",
		brush.KeyStateful:         true,
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: true,
	}
	simpleSelectorFlags = map[string]any{
		brush.KeyTooltip:          "Simple Brush",
		brush.KeyStateful:         true,
		event.KeyIsRenderEvent:    false,
		event.KeyIsTransientEvent: false,
	}
)

// DriverOption configures a brush driver built from the registry.
type DriverOption func(*driverConfig)

type driverConfig struct {
	radius int
	logger *logging.Logger
}

// WithRadius sets the initial radius of modifying brushes.
func WithRadius(r int) DriverOption {
	return func(c *driverConfig) { c.radius = r }
}

// WithDriverLogger sets the driver's logger.
func WithDriverLogger(l *logging.Logger) DriverOption {
	return func(c *driverConfig) { c.logger = l }
}

// SimpleBrush colours the clicked pixel.
type SimpleBrush struct{}

func NewSimpleBrush() (brush.Brush, error) { return &SimpleBrush{}, nil }

func (SimpleBrush) CanUse(ab artboard.Artboard, ed editor.Editor, x, y int) bool {
	return ed.Pressed(editor.ArtboardInteract) && differs(ab, x, y, ed.SelectedColor())
}

func (SimpleBrush) Use(ab artboard.Artboard, ed editor.Editor, x, y int) (event.Event, error) {
	color := ed.SelectedColor()
	return &paintEvent{
		ab:     ab,
		region: artboard.Region(x, y, 1, 1),
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			return ab.PutColorInImage(x, y, 1, 1, color)
		},
	}, nil
}

// DiagonalBrush draws a rising diagonal through the radius square around
// the clicked pixel.
type DiagonalBrush struct {
	radius *brush.Radius
}

// NewDiagonalBrush creates a diagonal brush with radius 1.
func NewDiagonalBrush() (brush.Brush, error) {
	return &DiagonalBrush{radius: brush.NewRadius(1)}, nil
}

func (d *DiagonalBrush) Radius() *brush.Radius { return d.radius }

func (d *DiagonalBrush) CanUse(ab artboard.Artboard, ed editor.Editor, x, y int) bool {
	if !ed.Pressed(editor.ArtboardInteract) {
		return false
	}
	color := ed.SelectedColor()
	b := d.radius.CenterAround(x, y, ab.Width(), ab.Height())
	for p := range artboard.Diagonal(b.X, b.Y, b.Width, b.Height) {
		if differs(ab, p.X, p.Y, color) {
			return true
		}
	}
	return false
}

func (d *DiagonalBrush) Use(ab artboard.Artboard, ed editor.Editor, x, y int) (event.Event, error) {
	color := ed.SelectedColor()
	b := d.radius.CenterAround(x, y, ab.Width(), ab.Height())
	line := artboard.Diagonal(b.X, b.Y, b.Width, b.Height)
	return &paintEvent{
		ab:     ab,
		region: line,
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			for p := range line {
				if err := ab.PutColorInImage(p.X, p.Y, 1, 1, color); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// followCursor is the update step shared by selecting brushes: drag the
// nearest corner while the move control is held, then keep the selection
// on the artboard under the cursor.
func followCursor(s *brush.SelectionBounder, ab artboard.Artboard, ed editor.Editor) {
	if ed.Pressed(editor.MoveSelectionArea) {
		cx, cy := ed.CursorCoords()
		s.MoveCorner(float64(pixel.DoubleToInt(cx)), float64(pixel.DoubleToInt(cy)))
	}
	if ab == nil {
		return
	}
	snapTo(s, ab)
}

func snapTo(s *brush.SelectionBounder, ab artboard.Artboard) {
	s.Snap(
		pixel.DoubleToInt(ab.LeftX()),
		pixel.DoubleToInt(ab.RightX()),
		pixel.DoubleToInt(ab.BottomY()),
		pixel.DoubleToInt(ab.TopY()),
	)
}

// selectedRegion converts the selection to pixel indices on ab, clipped
// to the board.
func selectedRegion(s *brush.SelectionBounder, ab artboard.Artboard) brush.Bounds {
	x, y := ab.WorldToPixelIndices(s.LX(), s.BY())
	left, bottom := max(x, 0), max(y, 0)
	right := min(x+s.Width(), ab.Width())
	top := min(y+s.Height(), ab.Height())
	return brush.Bounds{X: left, Y: bottom, Width: max(right-left, 0), Height: max(top-bottom, 0)}
}

// RegionGradientColor is the colour GradientRegionBrush writes at (col,
// row) of a width*height selection.
func RegionGradientColor(channels, col, row, width, height int) pixel.Color {
	v := pixel.DoubleToByte(float64(col)/float64(width)*127 + float64(row)/float64(height)*127)
	return shade(channels, v)
}

// GradientRegionBrush fills the selection with a gradient.
type GradientRegionBrush struct {
	selection *brush.SelectionBounder
}

func NewGradientRegionBrush() (brush.Brush, error) {
	return &GradientRegionBrush{selection: brush.NewSelectionBounder()}, nil
}

func (g *GradientRegionBrush) Selection() *brush.SelectionBounder { return g.selection }

func (g *GradientRegionBrush) Update(ab artboard.Artboard, ed editor.Editor) error {
	followCursor(g.selection, ab, ed)
	return nil
}

func (g *GradientRegionBrush) CanUse(ab artboard.Artboard, ed editor.Editor, _, _ int) bool {
	if !ed.Pressed(editor.ArtboardInteract) {
		return false
	}
	r := selectedRegion(g.selection, ab)
	if r.Empty() {
		return false
	}
	ch := ab.ActiveLayerChannels()
	for p := range artboard.Region(0, 0, r.Width, r.Height) {
		if differs(ab, r.X+p.X, r.Y+p.Y, RegionGradientColor(ch, p.X, p.Y, r.Width, r.Height)) {
			return true
		}
	}
	return false
}

func (g *GradientRegionBrush) Use(ab artboard.Artboard, _ editor.Editor, _, _ int) (event.Event, error) {
	r := selectedRegion(g.selection, ab)
	return &paintEvent{
		ab:     ab,
		region: artboard.Region(r.X, r.Y, r.Width, r.Height),
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			ch := ab.ActiveLayerChannels()
			for p := range artboard.Region(0, 0, r.Width, r.Height) {
				c := RegionGradientColor(ch, p.X, p.Y, r.Width, r.Height)
				if err := ab.PutColorInImage(r.X+p.X, r.Y+p.Y, 1, 1, c); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// SubRegionToArtboard copies the selected region into a new artboard of
// the same project.
type SubRegionToArtboard struct {
	selection *brush.SelectionBounder
}

func NewSubRegionToArtboard() (brush.Brush, error) {
	return &SubRegionToArtboard{selection: brush.NewSelectionBounder()}, nil
}

func (s *SubRegionToArtboard) Selection() *brush.SelectionBounder { return s.selection }

func (s *SubRegionToArtboard) Update(ab artboard.Artboard, ed editor.Editor) error {
	followCursor(s.selection, ab, ed)
	return nil
}

// CanUse fires once per click rather than every held frame.
func (s *SubRegionToArtboard) CanUse(ab artboard.Artboard, ed editor.Editor, _, _ int) bool {
	snapTo(s.selection, ab)
	return ed.Struck(editor.ArtboardInteract) && !selectedRegion(s.selection, ab).Empty()
}

func (s *SubRegionToArtboard) Use(ab artboard.Artboard, ed editor.Editor, _, _ int) (event.Event, error) {
	r := selectedRegion(s.selection, ab)
	region, err := ab.RegionOfLayerPixels(r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return nil, err
	}
	project := ed.Project()
	if project == nil {
		return nil, errors.New("editor has no project")
	}
	return &oneShot{
		flags: event.Flags{RenderThread: true, Transient: true},
		fn: func() error {
			dst, err := project.CreateArtboard(r.Width, r.Height)
			if err != nil {
				return err
			}
			return dst.PutColorsInImage(0, 0, r.Width, r.Height, region)
		},
	}, nil
}

// SimpleSelector only drags its selection; it never applies.
type SimpleSelector struct {
	selection *brush.SelectionBounder
}

func NewSimpleSelector() (brush.Brush, error) {
	s := brush.NewSelectionBounder()
	s.Color = 0xff
	return &SimpleSelector{selection: s}, nil
}

func (s *SimpleSelector) Selection() *brush.SelectionBounder { return s.selection }

func (s *SimpleSelector) Update(_ artboard.Artboard, ed editor.Editor) error {
	if ed.Pressed(editor.MoveSelectionArea) {
		s.selection.MoveCorner(ed.CursorCoords())
	}
	return nil
}

func (*SimpleSelector) CanUse(artboard.Artboard, editor.Editor, int, int) bool { return false }

func (*SimpleSelector) Use(artboard.Artboard, editor.Editor, int, int) (event.Event, error) {
	return nil, errSelectOnly
}
