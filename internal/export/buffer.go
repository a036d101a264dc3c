// Package export writes flattened artboard pixels to files.
//
// Exporters drain a position-tracked PixelBuffer into a newly created file
// and always leave the buffer's position at zero, on success or failure, so
// the caller can reuse it. Files are closed on every path.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/spritestudio/internal/artboard"
)

// Buffer errors.
var (
	// ErrUnderflow is returned by Get when no bytes remain.
	ErrUnderflow = errors.New("export: buffer underflow")

	// ErrPosition is returned for positions outside the buffer.
	ErrPosition = errors.New("export: position out of range")
)

// PixelBuffer is a byte buffer with a read position.
type PixelBuffer struct {
	data []byte
	pos  int
}

// NewPixelBuffer wraps data; the position starts at zero.
func NewPixelBuffer(data []byte) *PixelBuffer {
	return &PixelBuffer{data: data}
}

// Get returns the byte at the position and advances it.
func (b *PixelBuffer) Get() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, ErrUnderflow
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

// Read drains remaining bytes into p.
func (b *PixelBuffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *PixelBuffer) HasRemaining() bool { return b.pos < len(b.data) }
func (b *PixelBuffer) Remaining() int     { return len(b.data) - b.pos }
func (b *PixelBuffer) Position() int      { return b.pos }
func (b *PixelBuffer) Len() int           { return len(b.data) }

// SetPosition moves the read position.
func (b *PixelBuffer) SetPosition(p int) error {
	if p < 0 || p > len(b.data) {
		return fmt.Errorf("%w: %d of %d", ErrPosition, p, len(b.data))
	}
	b.pos = p
	return nil
}

// Bytes returns the whole backing slice regardless of position.
func (b *PixelBuffer) Bytes() []byte { return b.data }

// FromBoard flattens the visible colours of ab, one byte per channel per
// pixel, row by row starting at the bottom row.
func FromBoard(ab artboard.Artboard) *PixelBuffer {
	w, h, ch := ab.Width(), ab.Height(), ab.ActiveLayerChannels()
	data := make([]byte, 0, w*h*ch)
	for p := range artboard.Region(0, 0, w, h) {
		data = append(data, ab.ColorAt(p.X, p.Y)...)
	}
	return NewPixelBuffer(data)
}
