package brush

import (
	"context"
	"fmt"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/history"
	"github.com/dshills/spritestudio/internal/logging"
)

// UseError wraps a failure raised by a brush's Use.
type UseError struct {
	Brush string
	X, Y  int
	Err   error
}

func (e *UseError) Error() string {
	return fmt.Sprintf("brush %s: use at (%d, %d): %v", e.Brush, e.X, e.Y, e.Err)
}

func (e *UseError) Unwrap() error { return e.Err }

// Driver applies the per-frame protocol for one brush: update when
// stateful, then canUse, then use, then hand the event to the history.
type Driver struct {
	brush  Brush
	meta   Meta
	stack  *history.Stack
	logger *logging.Logger
}

// NewDriver binds b and its registration record to a history stack.
func NewDriver(b Brush, meta Meta, stack *history.Stack, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Driver{
		brush:  b,
		meta:   meta,
		stack:  stack,
		logger: logger.WithComponent("brush").WithField("brush", meta.Name),
	}
}

// Brush returns the driven brush.
func (d *Driver) Brush() Brush { return d.brush }

// Meta returns the brush registration record.
func (d *Driver) Meta() Meta { return d.meta }

// Frame runs one polling frame at pixel (x, y) of ab. ab is nil when the
// cursor is off every artboard; only Update sees that frame. It reports
// whether an event was executed.
func (d *Driver) Frame(ctx context.Context, ab artboard.Artboard, ed editor.Editor, x, y int) (bool, error) {
	if d.meta.Stateful {
		if u, ok := d.brush.(Updater); ok {
			if err := u.Update(ab, ed); err != nil {
				d.logger.Warn("update failed: %v", err)
			}
		}
	}
	if ab == nil {
		return false, nil
	}
	if !d.brush.CanUse(ab, ed, x, y) {
		return false, nil
	}

	ev, err := d.brush.Use(ab, ed, x, y)
	if err != nil {
		d.logger.Error("use at (%d, %d) failed: %v", x, y, err)
		return false, &UseError{Brush: d.meta.Name, X: x, Y: y, Err: err}
	}
	if ev == nil {
		return false, &UseError{Brush: d.meta.Name, X: x, Y: y, Err: event.ErrNilEvent}
	}

	if err := d.stack.Execute(ctx, d.meta.Name, ev, event.FlagsOf(ev, d.meta.Event)); err != nil {
		return false, err
	}
	return true, nil
}

// ShutDown releases the brush's own resources.
func (d *Driver) ShutDown() error {
	if sd, ok := d.brush.(ShutDowner); ok {
		return sd.ShutDown()
	}
	return nil
}
