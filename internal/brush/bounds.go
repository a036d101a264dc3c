package brush

import (
	"math"
	"sync"
)

// Bounds is a pixel rectangle: left x, bottom y, width and height.
type Bounds struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (b Bounds) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Radius is the bounder of a modifying brush.
type Radius struct {
	mu     sync.RWMutex
	radius int
}

// NewRadius creates a bounder with radius r (negative values become 0).
func NewRadius(r int) *Radius {
	return &Radius{radius: max(r, 0)}
}

// Get returns the radius.
func (r *Radius) Get() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.radius
}

// Set changes the radius; the host's slider calls this.
func (r *Radius) Set(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.radius = max(n, 0)
}

// CenterAround returns the square of side 2r+1 centred on (x, y), clipped
// to a width*height artboard so that iterating it never leaves the board.
func (r *Radius) CenterAround(x, y, width, height int) Bounds {
	rad := r.Get()
	left := max(x-rad, 0)
	bottom := max(y-rad, 0)
	right := min(x+rad+1, width)
	top := min(y+rad+1, height)
	return Bounds{
		X:      left,
		Y:      bottom,
		Width:  max(right-left, 0),
		Height: max(top-bottom, 0),
	}
}

// SelectionBounder is the draggable rectangle of a selecting brush, kept in
// world coordinates. Its left edge is always left of its right edge and its
// bottom below its top.
type SelectionBounder struct {
	mu sync.RWMutex

	lx, rx, by, ty float64

	// Color is the outline colour the host draws the selection with.
	Color uint32
	// Thickness is the outline width.
	Thickness float64
}

// NewSelectionBounder returns the default 100x100 selection at (100, 100).
func NewSelectionBounder() *SelectionBounder {
	return &SelectionBounder{lx: 100, rx: 200, by: 100, ty: 200, Color: 0xffffffff, Thickness: 1}
}

// MoveCorner moves the corner nearest the cursor to the cursor.
func (s *SelectionBounder) MoveCorner(cursorX, cursorY float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if math.Abs(s.lx-cursorX) < math.Abs(s.rx-cursorX) {
		s.lx = cursorX
	} else {
		s.rx = cursorX
	}
	if math.Abs(s.by-cursorY) < math.Abs(s.ty-cursorY) {
		s.by = cursorY
	} else {
		s.ty = cursorY
	}

	if s.lx >= s.rx {
		s.lx = s.rx - 1
	}
	if s.by >= s.ty {
		s.by = s.ty - 1
	}
}

// MoveTo centres the selection on a point, keeping its size.
func (s *SelectionBounder) MoveTo(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	halfW := (s.rx - s.lx) / 2
	halfH := (s.ty - s.by) / 2
	s.lx, s.rx = x-halfW, x+halfW
	s.by, s.ty = y-halfH, y+halfH
}

// Snap pulls any edge lying outside [left, right] x [bottom, top] back onto
// that rectangle.
func (s *SelectionBounder) Snap(left, right, bottom, top int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, r, b, t := float64(left), float64(right), float64(bottom), float64(top)
	if s.lx < l || s.lx >= r {
		s.lx = l
	}
	if s.rx > r || s.rx <= l {
		s.rx = r
	}
	if s.by < b || s.by >= t {
		s.by = b
	}
	if s.ty > t || s.ty <= b {
		s.ty = t
	}
}

// Positions sets all four edges.
func (s *SelectionBounder) Positions(left, right, bottom, top int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lx, s.rx, s.by, s.ty = float64(left), float64(right), float64(bottom), float64(top)
}

// Midpoint returns the centre of the selection.
func (s *SelectionBounder) Midpoint() (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lx + float64(int(s.rx-s.lx))/2, s.by + float64(int(s.ty-s.by))/2
}

func (s *SelectionBounder) LX() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.lx)
}

func (s *SelectionBounder) RX() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.rx)
}

func (s *SelectionBounder) BY() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.by)
}

func (s *SelectionBounder) TY() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.ty)
}

func (s *SelectionBounder) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.rx - s.lx)
}

func (s *SelectionBounder) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.ty - s.by)
}

// Bounds returns the selection in world coordinates.
func (s *SelectionBounder) Bounds() Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Bounds{X: int(s.lx), Y: int(s.by), Width: int(s.rx - s.lx), Height: int(s.ty - s.by)}
}
