// Package watch reports changes to script files so they can be reloaded
// without restarting.
//
// A Watcher observes directories with fsnotify, drops paths its filter
// rejects and coalesces bursts of operations on one path into a single
// event delivered after a quiet period.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher errors.
var (
	ErrClosed          = errors.New("watch: watcher is closed")
	ErrAlreadyWatching = errors.New("watch: path is already being watched")
	ErrPathNotExist    = errors.New("watch: path does not exist")
)

// DefaultDelay is the quiet period before a change is delivered.
const DefaultDelay = 100 * time.Millisecond

// Op is a set of file system operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Has reports whether op includes o.
func (op Op) Has(o Op) bool { return op&o == o }

func (op Op) String() string {
	switch {
	case op.Has(OpRemove):
		return "REMOVE"
	case op.Has(OpRename):
		return "RENAME"
	case op.Has(OpCreate):
		return "CREATE"
	case op.Has(OpWrite):
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Event is a debounced change to one path. Op combines every operation
// seen during the quiet period.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Gone reports whether the path no longer exists after the change.
func (e Event) Gone() bool {
	_, err := os.Stat(e.Path)
	return errors.Is(err, os.ErrNotExist)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithFilter keeps only paths for which keep returns true.
func WithFilter(keep func(path string) bool) Option {
	return func(w *Watcher) { w.filter = keep }
}

// WithBufferSize sets the capacity of the event channel.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

type pending struct {
	op    Op
	timer *time.Timer
}

// Watcher delivers debounced changes in watched directories.
type Watcher struct {
	fs      *fsnotify.Watcher
	delay   time.Duration
	filter  func(string) bool
	bufSize int

	mu      sync.Mutex
	paths   map[string]bool
	pending map[string]*pending
	closed  bool

	events  chan Event
	errors  chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher. Nothing is watched until Watch is called.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fsw,
		delay:   DefaultDelay,
		bufSize: 64,
		paths:   make(map[string]bool),
		pending: make(map[string]*pending),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = make(chan Event, w.bufSize)
	w.errors = make(chan error, w.bufSize)

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds a directory. Changes to files directly inside it are
// reported.
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrPathNotExist
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.paths[abs] {
		return ErrAlreadyWatching
	}
	if err := w.fs.Add(abs); err != nil {
		return err
	}
	w.paths[abs] = true
	return nil
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and drops pending changes.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	return out
}

func (w *Watcher) handle(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}
	if w.filter != nil && !w.filter(ev.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if p, ok := w.pending[ev.Name]; ok {
		p.op |= op
		p.timer.Reset(w.delay)
		return
	}
	path := ev.Name
	w.pending[path] = &pending{
		op:    op,
		timer: time.AfterFunc(w.delay, func() { w.flush(path) }),
	}
}

func (w *Watcher) flush(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	// Sending under the lock keeps Close from closing the channel
	// mid-send.
	defer w.mu.Unlock()

	select {
	case w.events <- Event{Path: path, Op: p.op, Time: time.Now()}:
	default:
		select {
		case w.errors <- errors.New("watch: event channel full, dropped " + path):
		default:
		}
	}
}
