package watch

import (
	"context"

	"github.com/dshills/spritestudio/internal/logging"
)

// Target is what a Reloader keeps in sync with the file system.
type Target interface {
	Load(path string) error
	Remove(path string) bool
}

// Reloader loads changed scripts and removes deleted ones.
type Reloader struct {
	w      *Watcher
	target Target
	logger *logging.Logger
	change func(path string)
}

// NewReloader connects w to target.
func NewReloader(w *Watcher, target Target, logger *logging.Logger) *Reloader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Reloader{w: w, target: target, logger: logger.WithComponent("watch")}
}

// OnChange sets fn to run after each script that is loaded or removed.
// Call it before Run.
func (r *Reloader) OnChange(fn func(path string)) *Reloader {
	r.change = fn
	return r
}

func (r *Reloader) changed(path string) {
	if r.change != nil {
		r.change(path)
	}
}

// Run applies events until ctx is done or the watcher is closed.
func (r *Reloader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.w.Events():
			if !ok {
				return
			}
			r.Apply(ev)
		case err, ok := <-r.w.Errors():
			if !ok {
				return
			}
			r.logger.Warn("watch error: %v", err)
		}
	}
}

// Apply handles a single event.
func (r *Reloader) Apply(ev Event) {
	if ev.Gone() {
		if r.target.Remove(ev.Path) {
			r.logger.Info("removed %s", ev.Path)
			r.changed(ev.Path)
		}
		return
	}
	if err := r.target.Load(ev.Path); err != nil {
		r.logger.Warn("reload %s failed: %v", ev.Path, err)
		return
	}
	r.logger.Info("reloaded %s (%s)", ev.Path, ev.Op)
	r.changed(ev.Path)
}
