// Package palette provides colour palette generators.
//
// A generator owns an ordered buffer of colour slots whose length is its
// value scale. Generate fills every slot from a source colour; Get returns
// the last generated buffer. Changing the value scale resizes the buffer
// and keeps the overlapping prefix.
package palette

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/spritestudio/internal/pixel"
)

// Palette errors.
var (
	// ErrValueScale is returned for non-positive value scales.
	ErrValueScale = errors.New("palette: value scale must be positive")

	// ErrUnknown is returned by New for names that are not built in.
	ErrUnknown = errors.New("palette: unknown generator")
)

// Generator produces a palette of colours from a source colour.
type Generator interface {
	Name() string
	ValueScale() int
	SetValueScale(n int) error

	// Generate fills every slot and returns the buffer. channels is the
	// active layer's channel count; slots for channels the layer cannot
	// show are Full.
	Generate(source pixel.Color, channels int) ([]pixel.Buffer, error)

	// Get returns the last generated buffer.
	Get() []pixel.Buffer
}

// Resize returns a buffer of length n holding the first min(n, len(old))
// entries of old; new slots are zero.
func Resize(old []pixel.Buffer, n int) []pixel.Buffer {
	out := make([]pixel.Buffer, n)
	copy(out, old)
	return out
}

// slots holds the shared state of the built-in generators.
type slots struct {
	mu     sync.RWMutex
	name   string
	colors []pixel.Buffer
}

func newSlots(name string, valueScale int) slots {
	return slots{name: name, colors: make([]pixel.Buffer, max(valueScale, 1))}
}

func (s *slots) Name() string { return s.name }

func (s *slots) ValueScale() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colors)
}

func (s *slots) SetValueScale(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrValueScale, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colors = Resize(s.colors, n)
	return nil
}

func (s *slots) Get() []pixel.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]pixel.Buffer(nil), s.colors...)
}

// fill runs fn over every slot under the write lock, sets the channels a
// channels-wide layer cannot show to Full and returns a copy.
func (s *slots) fill(channels int, fn func(colors []pixel.Buffer)) []pixel.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.colors)
	for i := range s.colors {
		s.colors[i] = s.colors[i].Narrow(channels)
	}
	return append([]pixel.Buffer(nil), s.colors...)
}

func checkChannels(channels int) error {
	if !pixel.ValidChannels(channels) {
		return fmt.Errorf("%w: got %d", pixel.ErrChannels, channels)
	}
	return nil
}

// channelOr returns v when the layer has more than k channels and Full otherwise.
func channelOr(channels, k int, v byte) byte {
	if channels > k {
		return v
	}
	return pixel.Full
}
