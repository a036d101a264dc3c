package palette

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/spritestudio/internal/pixel"
)

// DefaultValueScale is the value scale built-in generators start with.
const DefaultValueScale = 15

// Random fills every slot with a random colour.
type Random struct {
	slots
	rmu sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random palette seeded with seed.
func NewRandom(valueScale int, seed uint64) *Random {
	return &Random{
		slots: newSlots(NameRandom, valueScale),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *Random) channel() byte {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	return pixel.DoubleToByte(r.rng.Float64() * 255)
}

func (r *Random) Generate(_ pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	return r.fill(channels, func(colors []pixel.Buffer) {
		for i := range colors {
			colors[i].Set(
				r.channel(),
				channelOr(channels, 1, r.channel()),
				channelOr(channels, 2, r.channel()),
				channelOr(channels, 3, r.channel()),
			)
		}
	}), nil
}

// Example fills every slot with 0xCAFEBABE.
type Example struct {
	slots
}

func NewExample(valueScale int) *Example {
	return &Example{slots: newSlots(NameExample, valueScale)}
}

func (e *Example) Generate(_ pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	return e.fill(channels, func(colors []pixel.Buffer) {
		for i := range colors {
			colors[i].Set(0xca, 0xfe, 0xba, 0xbe)
		}
	}), nil
}

// Complementary swaps pairs of the source's channels, cycling through the
// swaps until every slot is filled. Only channels the layer shows take
// part; layers with fewer than three channels get the source in every
// slot.
type Complementary struct {
	slots
}

func NewComplementary(valueScale int) *Complementary {
	return &Complementary{slots: newSlots(NameComplementary, valueScale)}
}

// channelPairs lists the channel swaps of an n-channel colour in order.
func channelPairs(n int) [][2]int {
	var pairs [][2]int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

func (c *Complementary) Generate(source pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	src := pixel.BufferOf(source)
	var swaps [][2]int
	if channels >= 3 {
		swaps = channelPairs(channels)
	}
	return c.fill(channels, func(colors []pixel.Buffer) {
		for i := range colors {
			if len(swaps) == 0 {
				colors[i] = src
				continue
			}
			v := [pixel.MaxChannels]byte{src.R, src.G, src.B, src.A}
			p := swaps[i%len(swaps)]
			v[p[0]], v[p[1]] = v[p[1]], v[p[0]]
			colors[i].Set(v[0], v[1], v[2], v[3])
		}
	}), nil
}

// Analogous keeps the greatest colour channel and steps the second
// greatest toward it across the palette.
type Analogous struct {
	slots
}

func NewAnalogous(valueScale int) *Analogous {
	return &Analogous{slots: newSlots(NameAnalogous, valueScale)}
}

func (an *Analogous) Generate(source pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	src := pixel.BufferOf(source)
	ur, ug, ub := int(src.R), int(src.G), int(src.B)
	sorted := []int{ur, ug, ub}
	slices.Sort(sorted)
	greatest, second := sorted[2], sorted[1]

	step := func(v, i, diff int) byte {
		if v == greatest || v != second {
			return byte(v)
		}
		return byte(v + i*diff)
	}

	return an.fill(channels, func(colors []pixel.Buffer) {
		diff := (greatest - second) / len(colors)
		for i := range colors {
			colors[i].Set(
				step(ur, i, diff),
				channelOr(channels, 1, step(ug, i, diff)),
				channelOr(channels, 2, step(ub, i, diff)),
				channelOr(channels, 3, src.A),
			)
		}
	}), nil
}

// Monochromatic ramps every channel from black up to the source, which
// occupies the last slot.
type Monochromatic struct {
	slots
}

func NewMonochromatic(valueScale int) *Monochromatic {
	return &Monochromatic{slots: newSlots(NameMonochromatic, valueScale)}
}

func (m *Monochromatic) Generate(source pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	src := pixel.BufferOf(source)
	return m.fill(channels, func(colors []pixel.Buffer) {
		n := len(colors)
		sr, sg, sb, sa := int(src.R)/n, int(src.G)/n, int(src.B)/n, int(src.A)/n
		for i := 0; i < n-1; i++ {
			colors[i].Set(
				byte(i*sr),
				channelOr(channels, 1, byte(i*sg)),
				channelOr(channels, 2, byte(i*sb)),
				channelOr(channels, 3, byte(i*sa)),
			)
		}
		colors[n-1] = src
	}), nil
}

// Tint blends the source toward white in Lab space, from the source in the
// first slot to white in the last.
type Tint struct {
	slots
}

func NewTint(valueScale int) *Tint {
	return &Tint{slots: newSlots(NameTint, valueScale)}
}

var white = colorful.Color{R: 1, G: 1, B: 1}

func (t *Tint) Generate(source pixel.Color, channels int) ([]pixel.Buffer, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	base := source.Colorful()
	alpha := pixel.BufferOf(source).A
	return t.fill(channels, func(colors []pixel.Buffer) {
		n := len(colors)
		for i := range colors {
			f := 0.0
			if n > 1 {
				f = float64(i) / float64(n-1)
			}
			colors[i] = pixel.BufferOf(pixel.FromColorful(base.BlendLab(white, f), channels, alpha))
		}
	}), nil
}

// Built-in generator names.
const (
	NameRandom        = "Random Colors"
	NameExample       = "Example"
	NameComplementary = "Complementary"
	NameAnalogous     = "Analogous"
	NameMonochromatic = "Monochromatic"
	NameTint          = "Tint"
)

// Names lists the built-in generators.
var Names = []string{NameRandom, NameExample, NameComplementary, NameAnalogous, NameMonochromatic, NameTint}

// New creates the named built-in generator. seed only affects the random
// palette.
func New(name string, valueScale int, seed uint64) (Generator, error) {
	if valueScale <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrValueScale, valueScale)
	}
	switch name {
	case NameRandom:
		return NewRandom(valueScale, seed), nil
	case NameExample:
		return NewExample(valueScale), nil
	case NameComplementary:
		return NewComplementary(valueScale), nil
	case NameAnalogous:
		return NewAnalogous(valueScale), nil
	case NameMonochromatic:
		return NewMonochromatic(valueScale), nil
	case NameTint:
		return NewTint(valueScale), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// Builtins returns one of each built-in generator at the given value scale.
func Builtins(valueScale int, seed uint64) []Generator {
	out := make([]Generator, 0, len(Names))
	for _, name := range Names {
		g, err := New(name, max(valueScale, 1), seed)
		if err == nil {
			out = append(out, g)
		}
	}
	return out
}
