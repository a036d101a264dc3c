package artboard

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/spritestudio/internal/pixel"
)

// DefaultCheckerSize is the edge length, in pixels, of a background square.
const DefaultCheckerSize = 4

// Background checker colours (RGBA).
var (
	checkerLight = [pixel.MaxChannels]byte{0xcc, 0xcc, 0xcc, 0xff}
	checkerDark  = [pixel.MaxChannels]byte{0x99, 0x99, 0x99, 0xff}
)

// Board is the in-memory Artboard: a single active layer of palette
// references over a checkered background.
type Board struct {
	mu sync.RWMutex

	id       string
	width    int
	height   int
	channels int
	palette  *Palette
	layer    []*pixel.Index

	// world-space position of the bottom-left corner
	originX int
	originY int

	checkerSize int
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithPalette shares an existing palette with the board.
func WithPalette(p *Palette) BoardOption {
	return func(b *Board) { b.palette = p }
}

// WithOrigin places the board's bottom-left corner in world space.
func WithOrigin(x, y int) BoardOption {
	return func(b *Board) {
		b.originX = x
		b.originY = y
	}
}

// WithCheckerSize sets the background square size.
func WithCheckerSize(n int) BoardOption {
	return func(b *Board) {
		if n > 0 {
			b.checkerSize = n
		}
	}
}

// NewBoard creates a board whose active layer has the given channel count.
func NewBoard(width, height, channels int, opts ...BoardOption) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if !pixel.ValidChannels(channels) {
		return nil, fmt.Errorf("%w: %d", pixel.ErrChannels, channels)
	}

	b := &Board{
		id:          uuid.New().String(),
		width:       width,
		height:      height,
		channels:    channels,
		layer:       make([]*pixel.Index, width*height),
		checkerSize: DefaultCheckerSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.palette == nil {
		b.palette = NewPalette()
	}
	return b, nil
}

func (b *Board) ID() string               { return b.id }
func (b *Board) Width() int               { return b.width }
func (b *Board) Height() int              { return b.height }
func (b *Board) ActiveLayerChannels() int { return b.channels }

// Palette returns the palette backing the board.
func (b *Board) Palette() *Palette { return b.palette }

func (b *Board) LeftX() float64   { return float64(b.originX) }
func (b *Board) RightX() float64  { return float64(b.originX + b.width) }
func (b *Board) BottomY() float64 { return float64(b.originY) }
func (b *Board) TopY() float64    { return float64(b.originY + b.height) }

// WorldToPixelIndices converts world coordinates to pixel indices. The
// result is not clamped.
func (b *Board) WorldToPixelIndices(worldX, worldY int) (int, int) {
	return worldX - b.originX, worldY - b.originY
}

// PutInPalette returns the palette reference for c.
func (b *Board) PutInPalette(c pixel.Color) (pixel.Index, error) {
	if len(c) != b.channels {
		return pixel.Index{}, fmt.Errorf("%w: got %d channels, layer has %d", ErrChannelMismatch, len(c), b.channels)
	}
	return b.palette.Put(c), nil
}

// PutColorInImage writes c over the region.
func (b *Board) PutColorInImage(x, y, w, h int, c pixel.Color) error {
	idx, err := b.PutInPalette(c)
	if err != nil {
		return err
	}
	return b.PutIndexInImage(x, y, w, h, idx)
}

// PutIndexInImage writes idx over the region.
func (b *Board) PutIndexInImage(x, y, w, h int, idx pixel.Index) error {
	if _, err := b.palette.Get(idx); err != nil {
		return err
	}
	if !InBounds(b, x, y, w, h) {
		return b.boundsError(x, y, w, h)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			v := idx
			b.layer[row*b.width+col] = &v
		}
	}
	return nil
}

// PutColorsInImage writes a [row][column] region of references.
func (b *Board) PutColorsInImage(x, y, w, h int, region [][]*pixel.Index) error {
	if !InBounds(b, x, y, w, h) {
		return b.boundsError(x, y, w, h)
	}
	if len(region) < h {
		return fmt.Errorf("%w: region has %d rows, need %d", ErrOutOfBounds, len(region), h)
	}
	for row := 0; row < h; row++ {
		if len(region[row]) < w {
			return fmt.Errorf("%w: region row %d has %d columns, need %d", ErrOutOfBounds, row, len(region[row]), w)
		}
		for col := 0; col < w; col++ {
			if idx := region[row][col]; idx != nil {
				if _, err := b.palette.Get(*idx); err != nil {
					return err
				}
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			b.layer[(y+row)*b.width+x+col] = cloneIndex(region[row][col])
		}
	}
	return nil
}

// RemovePixel unsets the active layer at (x, y).
func (b *Board) RemovePixel(x, y int) error {
	if !InBounds(b, x, y, 1, 1) {
		return b.boundsError(x, y, 1, 1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.layer[y*b.width+x] = nil
	return nil
}

// LayerPixel returns a copy of the reference at (x, y), nil when unset or
// out of bounds.
func (b *Board) LayerPixel(x, y int) *pixel.Index {
	if !InBounds(b, x, y, 1, 1) {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	return cloneIndex(b.layer[y*b.width+x])
}

// RegionOfLayerPixels copies a [row][column] region of references.
func (b *Board) RegionOfLayerPixels(x, y, w, h int) ([][]*pixel.Index, error) {
	if !InBounds(b, x, y, w, h) {
		return nil, b.boundsError(x, y, w, h)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	region := make([][]*pixel.Index, h)
	for row := 0; row < h; row++ {
		region[row] = make([]*pixel.Index, w)
		for col := 0; col < w; col++ {
			region[row][col] = cloneIndex(b.layer[(y+row)*b.width+x+col])
		}
	}
	return region, nil
}

// ColorAt returns the layer colour at (x, y), or the background checker
// colour when the layer is unset there.
func (b *Board) ColorAt(x, y int) pixel.Color {
	if idx := b.LayerPixel(x, y); idx != nil {
		if c, err := b.palette.Get(*idx); err == nil {
			return c.Clone()
		}
	}
	return b.checker(x, y)
}

// SetToCheckeredBackground unsets every position of the active layer.
func (b *Board) SetToCheckeredBackground() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.layer {
		b.layer[i] = nil
	}
}

// SetCount returns the number of set positions on the active layer.
func (b *Board) SetCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, idx := range b.layer {
		if idx != nil {
			n++
		}
	}
	return n
}

func (b *Board) checker(x, y int) pixel.Color {
	src := checkerLight
	if ((x/b.checkerSize)+(y/b.checkerSize))%2 == 1 {
		src = checkerDark
	}
	c := make(pixel.Color, b.channels)
	switch b.channels {
	case 1:
		c[0] = src[0]
	case 2:
		c[0], c[1] = src[0], src[3]
	default:
		copy(c, src[:b.channels])
	}
	return c
}

func (b *Board) boundsError(x, y, w, h int) error {
	return fmt.Errorf("%w: region (%d, %d, %d, %d) on %dx%d board", ErrOutOfBounds, x, y, w, h, b.width, b.height)
}

func cloneIndex(idx *pixel.Index) *pixel.Index {
	if idx == nil {
		return nil
	}
	v := *idx
	return &v
}
