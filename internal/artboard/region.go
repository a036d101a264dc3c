package artboard

import (
	"fmt"
	"iter"

	"github.com/dshills/spritestudio/internal/pixel"
)

// Point is a pixel position.
type Point struct {
	X, Y int
}

// Region yields every position of the w*h rectangle at (x, y), left to right
// within a row and rows bottom to top.
func Region(x, y, w, h int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for row := y; row < y+h; row++ {
			for col := x; col < x+w; col++ {
				if !yield(Point{X: col, Y: row}) {
					return
				}
			}
		}
	}
}

// Diagonal yields the positions of the rising diagonal that starts at
// (x, y), stepping x and y together. The diagonal stops at the shorter of
// the two extents so it never leaves the w*h rectangle.
func Diagonal(x, y, w, h int) iter.Seq[Point] {
	n := min(w, h)
	return func(yield func(Point) bool) {
		for i := 0; i < n; i++ {
			if !yield(Point{X: x + i, Y: y + i}) {
				return
			}
		}
	}
}

// Snapshot is a captured set of layer references that can be written back.
// Unset references are restored by removing the pixel, never by writing a
// colour.
type Snapshot struct {
	points []Point
	pixels []*pixel.Index
}

// Capture records the active layer references at every point of seq.
func Capture(ab Artboard, seq iter.Seq[Point]) (*Snapshot, error) {
	s := &Snapshot{}
	for p := range seq {
		if !InBounds(ab, p.X, p.Y, 1, 1) {
			return nil, fmt.Errorf("%w: capture at (%d, %d)", ErrOutOfBounds, p.X, p.Y)
		}
		s.points = append(s.points, p)
		s.pixels = append(s.pixels, ab.LayerPixel(p.X, p.Y))
	}
	return s, nil
}

// Len returns the number of captured positions.
func (s *Snapshot) Len() int { return len(s.points) }

// Restore writes the captured references back in capture order.
func (s *Snapshot) Restore(ab Artboard) error {
	for i, p := range s.points {
		var err error
		if idx := s.pixels[i]; idx == nil {
			err = ab.RemovePixel(p.X, p.Y)
		} else {
			err = ab.PutIndexInImage(p.X, p.Y, 1, 1, *idx)
		}
		if err != nil {
			return fmt.Errorf("restore (%d, %d): %w", p.X, p.Y, err)
		}
	}
	return nil
}
