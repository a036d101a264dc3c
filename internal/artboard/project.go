package artboard

import (
	"sync"
)

// boardGap is the world-space distance between adjacent artboards.
const boardGap = 16

// MemoryProject is the in-memory Project. Artboards share one palette and
// are laid out left to right in world space.
type MemoryProject struct {
	mu sync.RWMutex

	channels int
	palette  *Palette
	boards   []Artboard
	nextX    int
	checker  int

	animations      []string
	visualLayers    []string
	nonVisualLayers []string
}

// NewMemoryProject creates an empty project whose artboards use the given
// channel count.
func NewMemoryProject(channels int) *MemoryProject {
	return &MemoryProject{
		channels:     channels,
		palette:      NewPalette(),
		visualLayers: []string{"Layer 0"},
	}
}

// SetCheckerSize sets the checker square size of artboards created after
// the call. Zero keeps the board default.
func (p *MemoryProject) SetCheckerSize(n int) {
	p.mu.Lock()
	p.checker = n
	p.mu.Unlock()
}

// Palette returns the palette shared by the project's artboards.
func (p *MemoryProject) Palette() *Palette { return p.palette }

// Channels returns the channel count of new artboards.
func (p *MemoryProject) Channels() int { return p.channels }

// CreateArtboard adds a board to the right of the existing ones.
func (p *MemoryProject) CreateArtboard(width, height int) (Artboard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, err := NewBoard(width, height, p.channels,
		WithPalette(p.palette), WithOrigin(p.nextX, 0), WithCheckerSize(p.checker))
	if err != nil {
		return nil, err
	}
	p.nextX += width + boardGap
	p.boards = append(p.boards, b)
	return b, nil
}

// Artboards returns the project's artboards in creation order.
func (p *MemoryProject) Artboards() []Artboard {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Artboard(nil), p.boards...)
}

// ArtboardAt returns the artboard containing the world position, or nil.
func (p *MemoryProject) ArtboardAt(worldX, worldY float64) Artboard {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, b := range p.boards {
		if worldX >= b.LeftX() && worldX < b.RightX() && worldY >= b.BottomY() && worldY < b.TopY() {
			return b
		}
	}
	return nil
}

// AddAnimation records an animation name.
func (p *MemoryProject) AddAnimation(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.animations = append(p.animations, name)
}

// AddVisualLayer records a visual layer name.
func (p *MemoryProject) AddVisualLayer(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visualLayers = append(p.visualLayers, name)
}

// AddNonVisualLayer records a non-visual layer name.
func (p *MemoryProject) AddNonVisualLayer(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nonVisualLayers = append(p.nonVisualLayers, name)
}

func (p *MemoryProject) Animations() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.animations...)
}

func (p *MemoryProject) VisualLayers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.visualLayers...)
}

func (p *MemoryProject) NonVisualLayers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.nonVisualLayers...)
}
