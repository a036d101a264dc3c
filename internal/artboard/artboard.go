// Package artboard defines the host collaborators scripts operate on
// (Artboard and Project) together with an in-memory reference host used by
// the command line tool and the tests.
//
// Coordinates are pixel indices with (0, 0) at the bottom-left corner of an
// artboard. Artboards also occupy a rectangle in world space; selecting
// brushes work in world coordinates and convert with WorldToPixelIndices.
package artboard

import (
	"errors"

	"github.com/dshills/spritestudio/internal/pixel"
)

// Errors returned by artboard operations.
var (
	// ErrOutOfBounds is returned when a position or region leaves the board.
	ErrOutOfBounds = errors.New("artboard: position out of bounds")

	// ErrChannelMismatch is returned when a colour's width differs from the
	// active layer's channel count.
	ErrChannelMismatch = errors.New("artboard: colour width does not match layer")

	// ErrUnknownIndex is returned for palette references the palette never issued.
	ErrUnknownIndex = errors.New("artboard: unknown palette index")

	// ErrInvalidSize is returned for non-positive artboard dimensions.
	ErrInvalidSize = errors.New("artboard: width and height must be positive")
)

// Artboard is a single editable pixel canvas.
type Artboard interface {
	// ID uniquely identifies the artboard within its project.
	ID() string

	Width() int
	Height() int

	// ActiveLayerChannels is the channel count of the active layer.
	ActiveLayerChannels() int

	// PutInPalette returns the palette index for c, adding it if needed.
	PutInPalette(c pixel.Color) (pixel.Index, error)

	// PutColorInImage writes c to every position of the w*h region at (x, y).
	PutColorInImage(x, y, w, h int, c pixel.Color) error

	// PutIndexInImage writes an existing palette reference to a region.
	PutIndexInImage(x, y, w, h int, idx pixel.Index) error

	// PutColorsInImage writes a region of layer pixels, indexed
	// [row][column]. Unset entries remove the pixel at that position.
	PutColorsInImage(x, y, w, h int, region [][]*pixel.Index) error

	// RemovePixel clears the active layer at (x, y) so lower layers or the
	// background show through.
	RemovePixel(x, y int) error

	// LayerPixel returns the active layer's reference at (x, y); nil means unset.
	LayerPixel(x, y int) *pixel.Index

	// RegionOfLayerPixels copies a region of references, indexed [row][column].
	RegionOfLayerPixels(x, y, w, h int) ([][]*pixel.Index, error)

	// ColorAt returns the visible colour at (x, y).
	ColorAt(x, y int) pixel.Color

	// SetToCheckeredBackground clears the active layer.
	SetToCheckeredBackground()

	// World-space bounds of the artboard.
	LeftX() float64
	RightX() float64
	BottomY() float64
	TopY() float64

	// WorldToPixelIndices converts world coordinates to pixel indices.
	WorldToPixelIndices(worldX, worldY int) (int, int)
}

// Project is the collection of artboards and layers a project script sees.
type Project interface {
	// CreateArtboard adds a new artboard to the project.
	CreateArtboard(width, height int) (Artboard, error)

	Artboards() []Artboard
	Animations() []string
	VisualLayers() []string
	NonVisualLayers() []string
}

// InBounds reports whether the region lies entirely on ab.
func InBounds(ab Artboard, x, y, w, h int) bool {
	return x >= 0 && y >= 0 && w >= 0 && h >= 0 &&
		x+w <= ab.Width() && y+h <= ab.Height()
}
