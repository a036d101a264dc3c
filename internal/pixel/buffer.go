package pixel

// Buffer is a four-channel palette slot. Palette generators fill a slice of
// these; channels a layer cannot display are stored as Full.
type Buffer struct {
	R, G, B, A byte
}

// Set assigns all four channels.
func (b *Buffer) Set(r, g, bl, a byte) {
	b.R, b.G, b.B, b.A = r, g, bl, a
}

// Channel returns channel i (0=R .. 3=A).
func (b Buffer) Channel(i int) byte {
	switch i {
	case 0:
		return b.R
	case 1:
		return b.G
	case 2:
		return b.B
	case 3:
		return b.A
	default:
		return Full
	}
}

// Color narrows the buffer to a colour of the given width.
func (b Buffer) Color(channels int) Color {
	return RGBA(channels, b.R, b.G, b.B, b.A)
}

// Narrow returns b with every channel at index channels or above set to
// Full.
func (b Buffer) Narrow(channels int) Buffer {
	if channels < 2 {
		b.G = Full
	}
	if channels < 3 {
		b.B = Full
	}
	if channels < 4 {
		b.A = Full
	}
	return b
}

// BufferOf widens a colour into a buffer, filling missing channels with Full.
func BufferOf(c Color) Buffer {
	return Buffer{R: c.Channel(0), G: c.Channel(1), B: c.Channel(2), A: c.Channel(3)}
}

// Index is a palette index reference stored by a layer. A nil *Index is the
// unset state: nothing has been written at that position of the layer.
type Index struct {
	X, Y int
}

// Compare orders two indices; 0 means they reference the same palette slot.
func (i Index) Compare(o Index) int {
	switch {
	case i.Y != o.Y:
		if i.Y < o.Y {
			return -1
		}
		return 1
	case i.X != o.X:
		if i.X < o.X {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// SameIndex compares possibly-unset references. Two unset references are
// equal; an unset reference never equals a set one.
func SameIndex(a, b *Index) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Compare(*b) == 0
}
