package artboard

import (
	"fmt"
	"sync"

	"github.com/dshills/spritestudio/internal/pixel"
)

// paletteRow is the width of the palette grid; indices wrap onto the next row.
const paletteRow = 256

// Palette deduplicates colours and hands out stable index references. A
// project shares one palette between its artboards so layer pixels can be
// copied from one artboard to another.
type Palette struct {
	mu      sync.RWMutex
	colors  []pixel.Color
	indices map[[pixel.MaxChannels + 1]byte]int
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{indices: make(map[[pixel.MaxChannels + 1]byte]int)}
}

// Put returns the index of c, adding a copy of it on first sight.
func (p *Palette) Put(c pixel.Color) pixel.Index {
	key := c.Key()

	p.mu.Lock()
	defer p.mu.Unlock()

	if i, ok := p.indices[key]; ok {
		return indexOf(i)
	}
	i := len(p.colors)
	p.colors = append(p.colors, c.Clone())
	p.indices[key] = i
	return indexOf(i)
}

// Get returns the colour an index references.
func (p *Palette) Get(idx pixel.Index) (pixel.Color, error) {
	i := idx.Y*paletteRow + idx.X

	p.mu.RLock()
	defer p.mu.RUnlock()

	if idx.X < 0 || idx.X >= paletteRow || i < 0 || i >= len(p.colors) {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrUnknownIndex, idx.X, idx.Y)
	}
	return p.colors[i], nil
}

// Len returns the number of distinct colours.
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.colors)
}

func indexOf(i int) pixel.Index {
	return pixel.Index{X: i % paletteRow, Y: i / paletteRow}
}
