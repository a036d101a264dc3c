package luascript

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spritestudio/internal/palette"
	"github.com/dshills/spritestudio/internal/pixel"
)

const fieldGenerate = "generate"

// luaPalette is a generator backed by a table with a generate function:
//
//	generate(self, source, channels, valueScale) -> { {r, g, b, a}, ... }
//
// The returned array must hold exactly valueScale colours.
type luaPalette struct {
	name     string
	state    *State
	table    *lua.LTable
	generate lua.LValue

	mu     sync.RWMutex
	colors []pixel.Buffer
}

func newPalette(sc *Script, name string, valueScale int) (palette.Generator, error) {
	if valueScale <= 0 {
		return nil, fmt.Errorf("%w: %d", palette.ErrValueScale, valueScale)
	}
	res, err := sc.state.Call(sc.entry, 1, lua.LNumber(valueScale))
	if err != nil {
		return nil, err
	}
	t, ok := res[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: palette must be a table, got %s", ErrBadReturn, res[0].Type())
	}
	gen := t.RawGetString(fieldGenerate)
	if gen.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: palette.%s", ErrMissingFunc, fieldGenerate)
	}
	return &luaPalette{
		name:     name,
		state:    sc.state,
		table:    t,
		generate: gen,
		colors:   make([]pixel.Buffer, valueScale),
	}, nil
}

func (p *luaPalette) Name() string { return p.name }

func (p *luaPalette) ValueScale() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.colors)
}

func (p *luaPalette) SetValueScale(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", palette.ErrValueScale, n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors = palette.Resize(p.colors, n)
	return nil
}

func (p *luaPalette) Generate(source pixel.Color, channels int) ([]pixel.Buffer, error) {
	if !pixel.ValidChannels(channels) {
		return nil, fmt.Errorf("%w: %d", pixel.ErrChannels, channels)
	}
	n := p.ValueScale()
	res, err := p.state.CallWith(p.generate, 1, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{p.table, colorTable(L, source), lua.LNumber(channels), lua.LNumber(n)}
	})
	if err != nil {
		return nil, err
	}
	t, ok := res[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: generate must return a table, got %s", ErrBadReturn, res[0].Type())
	}
	if t.Len() != n {
		return nil, fmt.Errorf("%w: generate returned %d colours, want %d", ErrBadReturn, t.Len(), n)
	}

	out := make([]pixel.Buffer, n)
	for i := range out {
		b, err := tableBuffer(t.RawGetInt(i + 1))
		if err != nil {
			return nil, fmt.Errorf("colour %d: %w", i+1, err)
		}
		// Channels the layer cannot show are Full.
		for c := channels; c < pixel.MaxChannels; c++ {
			switch c {
			case 1:
				b.G = pixel.Full
			case 2:
				b.B = pixel.Full
			case 3:
				b.A = pixel.Full
			}
		}
		out[i] = b
	}

	p.mu.Lock()
	p.colors = out
	p.mu.Unlock()
	return p.Get(), nil
}

func (p *luaPalette) Get() []pixel.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]pixel.Buffer, len(p.colors))
	copy(out, p.colors)
	return out
}
