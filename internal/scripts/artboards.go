package scripts

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/pixel"
)

// ErrBadArgument is returned when a script argument cannot be parsed.
var ErrBadArgument = errors.New("scripts: invalid argument")

// Declared flags of the built-in artboard scripts.
var (
	grayGradientFlags = map[string]any{
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: false,
		event.KeyTakesArguments:   false,
	}
	coloredGradientFlags = map[string]any{
		event.KeyIsRenderEvent:    true,
		event.KeyIsTransientEvent: true,
	}
	mandelbrotFlags = map[string]any{
		event.KeyIsRenderEvent:        true,
		event.KeyIsTransientEvent:     false,
		event.KeyTakesArguments:       true,
		event.KeyArgumentDialogueText: "Input the number of iterations. Default iterations to 1000.",
	}
	animationDebugFlags = map[string]any{
		event.KeyIsRenderEvent: true,
	}
	gridFlags = map[string]any{
		event.KeyIsRenderEvent: true,
	}
)

// GradientValue is the channel value of the artboard gradients at column
// col and row row of a width*height board.
func GradientValue(col, row, width, height int) byte {
	return pixel.DoubleToByte(float64(col)/float64(width)*127 + float64(row)/float64(height)*128)
}

// GrayGradient fills the artboard with a gray ramp that brightens to the
// right and upward.
func GrayGradient(ab artboard.Artboard, _ editor.Editor, _ []string) (event.Event, error) {
	w, h := ab.Width(), ab.Height()
	return &paintEvent{
		ab:     ab,
		region: artboard.Region(0, 0, w, h),
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			ch := ab.ActiveLayerChannels()
			for p := range artboard.Region(0, 0, w, h) {
				if err := ab.PutColorInImage(p.X, p.Y, 1, 1, shade(ch, GradientValue(p.X, p.Y, w, h))); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// ColoredGradient paints the gradient into the blue channel. It is
// transient: nothing is captured and it cannot be undone.
func ColoredGradient(ab artboard.Artboard, _ editor.Editor, _ []string) (event.Event, error) {
	return &oneShot{
		flags: event.Flags{RenderThread: true, Transient: true},
		fn: func() error {
			w, h := ab.Width(), ab.Height()
			ch := ab.ActiveLayerChannels()
			for p := range artboard.Region(0, 0, w, h) {
				v := GradientValue(p.X, p.Y, w, h)
				c := opaque(ch, 0, 0, v)
				if ch < 3 {
					c = shade(ch, v)
				}
				if err := ab.PutColorInImage(p.X, p.Y, 1, 1, c); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// Mandelbrot view window.
const (
	mandelbrotXMin = -2.0
	mandelbrotXMax = 0.47
	mandelbrotYMin = -1.12
	mandelbrotYMax = 1.12

	// DefaultIterations is used when no iteration count is supplied.
	DefaultIterations = 1000
)

// ParseIterations reads the iteration count argument. An empty argument
// list selects DefaultIterations.
func ParseIterations(args []string) (int, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return DefaultIterations, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: iterations %q: %v", ErrBadArgument, args[0], err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: iterations must be positive, got %d", ErrBadArgument, n)
	}
	return n, nil
}

// MandelbrotColor is the palette colour for escape count i.
func MandelbrotColor(channels, i int) pixel.Color {
	f := float64(i)
	return opaque(channels,
		pixel.DoubleToByte(math.Abs(math.Pow(f, f))),
		pixel.DoubleToByte(math.Abs(math.Pow(f, 2))),
		pixel.DoubleToByte(math.Abs(math.Pow(f, 3))),
	)
}

// Escape returns the escape count of pixel (col, row) of a width*height
// view, clamped to iterations-1.
func Escape(col, row, width, height, iterations int) int {
	x0 := float64(col)/float64(width)*(mandelbrotXMax-mandelbrotXMin) + mandelbrotXMin
	y0 := float64(row)/float64(height)*(mandelbrotYMax-mandelbrotYMin) + mandelbrotYMin

	var x, y float64
	i := 0
	for x*x+y*y <= 4 && i < iterations {
		x, y = x*x-y*y+x0, 2*x*y+y0
		i++
	}
	if i == iterations {
		i = iterations - 1
	}
	return i
}

// Mandelbrot renders the Mandelbrot set. The first argument is the
// iteration count.
func Mandelbrot(ab artboard.Artboard, _ editor.Editor, args []string) (event.Event, error) {
	iterations, err := ParseIterations(args)
	if err != nil {
		return nil, err
	}
	w, h := ab.Width(), ab.Height()

	var colors event.Capture[[]pixel.Index]
	return &paintEvent{
		ab:     ab,
		region: artboard.Region(0, 0, w, h),
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			palette, err := colors.Ensure(func() ([]pixel.Index, error) {
				ch := ab.ActiveLayerChannels()
				out := make([]pixel.Index, iterations)
				for i := range out {
					idx, err := ab.PutInPalette(MandelbrotColor(ch, i))
					if err != nil {
						return nil, err
					}
					out[i] = idx
				}
				return out, nil
			})
			if err != nil {
				return err
			}
			for p := range artboard.Region(0, 0, w, h) {
				if err := ab.PutIndexInImage(p.X, p.Y, 1, 1, palette[Escape(p.X, p.Y, w, h, iterations)]); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}

// AnimationDebug marks the first column red and the last column green so
// frame edges are visible during playback.
func AnimationDebug(ab artboard.Artboard, _ editor.Editor, _ []string) (event.Event, error) {
	w, h := ab.Width(), ab.Height()
	edges := func(yield func(artboard.Point) bool) {
		for p := range artboard.Region(0, 0, 1, h) {
			if !yield(p) {
				return
			}
		}
		for p := range artboard.Region(w-1, 0, 1, h) {
			if !yield(p) {
				return
			}
		}
	}
	return &paintEvent{
		ab:     ab,
		region: edges,
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			ch := ab.ActiveLayerChannels()
			if err := ab.PutColorInImage(0, 0, 1, h, opaque(ch, 0xff, 0, 0)); err != nil {
				return err
			}
			return ab.PutColorInImage(w-1, 0, 1, h, opaque(ch, 0, 0xff, 0))
		},
	}, nil
}

// Grid draws red lines on every even column and every even row.
func Grid(ab artboard.Artboard, _ editor.Editor, _ []string) (event.Event, error) {
	w, h := ab.Width(), ab.Height()
	return &paintEvent{
		ab:     ab,
		region: artboard.Region(0, 0, w, h),
		flags:  event.Flags{RenderThread: true},
		paint: func(ab artboard.Artboard) error {
			red := opaque(ab.ActiveLayerChannels(), 0xff, 0, 0)
			for x := 0; x < w; x += 2 {
				if err := ab.PutColorInImage(x, 0, 1, h, red); err != nil {
					return err
				}
			}
			for y := 0; y < h; y += 2 {
				if err := ab.PutColorInImage(0, y, w, 1, red); err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}
