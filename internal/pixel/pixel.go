// Package pixel defines the colour values scripts exchange with an artboard:
// fixed-width channel colours, four-channel palette buffers and palette
// index references.
package pixel

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxChannels is the widest pixel format a layer supports (RGBA).
const MaxChannels = 4

// Full is the value channels take when the layer format does not carry them.
const Full byte = 0xff

// ErrChannels is returned for channel counts outside 1..MaxChannels.
var ErrChannels = errors.New("pixel: channel count must be between 1 and 4")

// ValidChannels reports whether n is a supported channel count.
func ValidChannels(n int) bool {
	return n >= 1 && n <= MaxChannels
}

// HasAlpha reports whether a colour of the given width carries alpha.
// Widths 1 to 4 are gray, gray+alpha, RGB and RGBA; alpha is always the
// last byte when present.
func HasAlpha(channels int) bool {
	return channels == 2 || channels == 4
}

// Color is one pixel's channel bytes laid out as described by HasAlpha.
type Color []byte

// NewColor returns an opaque black colour of the given width.
func NewColor(channels int) (Color, error) {
	if !ValidChannels(channels) {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}
	c := make(Color, channels)
	if HasAlpha(channels) {
		c[channels-1] = Full
	}
	return c, nil
}

// MustColor is NewColor for widths known to be valid.
func MustColor(channels int) Color {
	c, err := NewColor(channels)
	if err != nil {
		panic(err)
	}
	return c
}

// RGBA builds a colour from explicit channel bytes truncated to channels.
// Missing channels of a narrower format are dropped.
func RGBA(channels int, r, g, b, a byte) Color {
	full := [MaxChannels]byte{r, g, b, a}
	c := make(Color, channels)
	copy(c, full[:channels])
	return c
}

// Channels returns the width of the colour.
func (c Color) Channels() int { return len(c) }

// Channel returns channel i, or Full when the colour does not carry it.
func (c Color) Channel(i int) byte {
	if i < 0 || i >= len(c) {
		return Full
	}
	return c[i]
}

// Equal reports whether two colours have identical width and bytes.
func (c Color) Equal(o Color) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c Color) Clone() Color {
	out := make(Color, len(c))
	copy(out, c)
	return out
}

// Key returns a comparable representation used for palette lookups.
func (c Color) Key() [MaxChannels + 1]byte {
	var k [MaxChannels + 1]byte
	k[0] = byte(len(c))
	copy(k[1:], c)
	return k
}

// NRGBA expands the colour to a standard library colour. One channel is
// gray, two are gray+alpha, three are RGB and four are RGBA.
func (c Color) NRGBA() color.NRGBA {
	switch len(c) {
	case 1:
		return color.NRGBA{R: c[0], G: c[0], B: c[0], A: Full}
	case 2:
		return color.NRGBA{R: c[0], G: c[0], B: c[0], A: c[1]}
	case 3:
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: Full}
	case 4:
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
	default:
		return color.NRGBA{}
	}
}

// Colorful converts the colour channels to a go-colorful colour, ignoring
// alpha.
func (c Color) Colorful() colorful.Color {
	n := c.NRGBA()
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}
}

// FromColorful converts a go-colorful colour into a colour of the given
// width with the supplied alpha.
func FromColorful(cf colorful.Color, channels int, alpha byte) Color {
	r, g, b := cf.Clamped().RGB255()
	switch channels {
	case 1:
		return Color{gray(r, g, b)}
	case 2:
		return Color{gray(r, g, b), alpha}
	case 3:
		return Color{r, g, b}
	default:
		return Color{r, g, b, alpha}
	}
}

func gray(r, g, b byte) byte {
	return byte((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// DoubleToByte narrows a float the way the host's scripting bridge does:
// truncate toward zero into a 32-bit integer (saturating, NaN is 0) and
// keep the low eight bits.
func DoubleToByte(v float64) byte {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return byte(int32(math.MaxInt32) & 0xff)
	case v <= math.MinInt32:
		return 0
	}
	return byte(int32(v))
}

// DoubleToInt truncates toward zero with the same saturation as DoubleToByte.
func DoubleToInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(int32(v))
}
