// Package preview draws an artboard in the terminal.
//
// Each terminal cell shows two vertically stacked pixels using an upper
// half block: the foreground is the upper pixel and the background the
// lower one. Boards larger than the screen are sampled down.
//
// Mouse clicks and drags are reported in board pixels. A cell maps to the
// upper pixel it shows.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/pixel"
)

const halfBlock = '▀'

// ErrQuit is returned by Run when the user quits.
var ErrQuit = errors.New("preview: quit")

// MouseFunc receives a board pixel under the mouse. pressed is false once
// for the release that ends a press.
type MouseFunc func(x, y int, pressed bool) error

// Binding is a key action shown in the status line.
type Binding struct {
	Help string
	Fn   func() error
}

// Preview renders artboards to a tcell screen.
type Preview struct {
	mu       sync.Mutex
	screen   tcell.Screen
	title    string
	status   string
	bindings map[rune]Binding
	mouse    MouseFunc
	down     bool
}

// New wraps an initialized screen and turns on mouse reporting.
func New(screen tcell.Screen, title string) *Preview {
	screen.EnableMouse()
	return &Preview{screen: screen, title: title, bindings: make(map[rune]Binding)}
}

// NewTerminal opens and initializes the terminal screen.
func NewTerminal(title string) (*Preview, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return New(screen, title), nil
}

// Close restores the terminal.
func (p *Preview) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen.Fini()
}

// Bind runs fn when r is pressed during Run. q is reserved for quitting.
func (p *Preview) Bind(r rune, help string, fn func() error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings[r] = Binding{Help: help, Fn: fn}
}

// OnMouse sets the handler for presses and drags over the board.
func (p *Preview) OnMouse(fn MouseFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mouse = fn
}

// SetStatus replaces the status message.
func (p *Preview) SetStatus(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

// Refresh asks a running preview to redraw. It is safe to call from any
// goroutine.
func (p *Preview) Refresh() {
	_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func cellColor(c pixel.Color) tcell.Color {
	n := c.NRGBA()
	return tcell.NewRGBColor(int32(n.R), int32(n.G), int32(n.B))
}

// scale is the number of board pixels per terminal column.
func scale(bw, bh, sw, sh int) int {
	s := 1
	for bw > sw*s || bh > 2*sh*s {
		s++
	}
	return s
}

// BoardPoint maps a screen cell to the board pixel drawn in its upper
// half. ok is false for cells off the board and the status line.
func (p *Preview) BoardPoint(ab artboard.Artboard, tx, ty int) (x, y int, ok bool) {
	sw, sh := p.screen.Size()
	rows := sh - 1
	if tx < 0 || ty < 0 || tx >= sw || ty >= rows {
		return 0, 0, false
	}
	w, h := ab.Width(), ab.Height()
	s := scale(w, h, sw, rows)
	x, y = tx*s, h-1-2*ty*s
	if x >= w || y < 0 {
		return 0, 0, false
	}
	return x, y, true
}

// handleMouse forwards presses and drags over the board, plus the release
// that ends them.
func (p *Preview) handleMouse(ab artboard.Artboard, ev *tcell.EventMouse) error {
	p.mu.Lock()
	fn := p.mouse
	wasDown := p.down
	pressed := ev.Buttons()&tcell.Button1 != 0
	p.down = pressed
	p.mu.Unlock()

	if fn == nil || (!pressed && !wasDown) {
		return nil
	}
	tx, ty := ev.Position()
	x, y, ok := p.BoardPoint(ab, tx, ty)
	if !ok {
		if !pressed {
			// Released off the board; still end the press.
			return fn(-1, -1, false)
		}
		return nil
	}
	return fn(x, y, pressed)
}

// Draw renders ab and the status line. The board's top row is drawn at the
// top of the screen.
func (p *Preview) Draw(ab artboard.Artboard) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.screen.Clear()
	sw, sh := p.screen.Size()
	rows := sh - 1
	if rows < 1 || sw < 1 {
		return
	}

	w, h := ab.Width(), ab.Height()
	s := scale(w, h, sw, rows)
	for ty := 0; ty < rows; ty++ {
		upper := h - 1 - 2*ty*s
		lower := upper - s
		if upper < 0 {
			break
		}
		for tx := 0; tx*s < w && tx < sw; tx++ {
			x := tx * s
			style := tcell.StyleDefault.Foreground(cellColor(ab.ColorAt(x, upper)))
			if lower >= 0 {
				style = style.Background(cellColor(ab.ColorAt(x, lower)))
			}
			p.screen.SetContent(tx, ty, halfBlock, nil, style)
		}
	}
	p.drawStatus(sw, sh-1, fmt.Sprintf("%s %dx%d 1:%d", p.title, w, h, s))
	p.screen.Show()
}

func (p *Preview) drawStatus(width, y int, head string) {
	line := head
	keys := make([]rune, 0, len(p.bindings))
	for r := range p.bindings {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, r := range keys {
		line += fmt.Sprintf("  %c:%s", r, p.bindings[r].Help)
	}
	line += "  q:quit"
	if p.status != "" {
		line += "  | " + p.status
	}
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= width {
			break
		}
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		p.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (p *Preview) binding(r rune) (Binding, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.bindings[r]
	return b, ok
}

// Run draws ab and handles keys and the mouse until ctx is done or the user
// quits with q, Escape or Ctrl-C, which returns ErrQuit.
func (p *Preview) Run(ctx context.Context, ab artboard.Artboard) error {
	events := make(chan tcell.Event)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	p.Draw(ab)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				p.screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return ErrQuit
				}
				if ev.Key() != tcell.KeyRune {
					continue
				}
				b, ok := p.binding(ev.Rune())
				if !ok {
					continue
				}
				if err := b.Fn(); err != nil {
					p.SetStatus(err.Error())
				} else {
					p.SetStatus(b.Help)
				}
			case *tcell.EventMouse:
				if err := p.handleMouse(ab, ev); err != nil {
					p.SetStatus(err.Error())
				}
			}
			p.Draw(ab)
		}
	}
}
