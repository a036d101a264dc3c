package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/brush"
	"github.com/dshills/spritestudio/internal/config"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/export"
	"github.com/dshills/spritestudio/internal/history"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/luascript"
	"github.com/dshills/spritestudio/internal/palette"
	"github.com/dshills/spritestudio/internal/pixel"
	"github.com/dshills/spritestudio/internal/preview"
	"github.com/dshills/spritestudio/internal/render"
	"github.com/dshills/spritestudio/internal/scripts"
	"github.com/dshills/spritestudio/internal/watch"
)

// shutdownTimeout bounds event shutdown when the application exits.
const shutdownTimeout = 5 * time.Second

// Application wires scripts, the history stack and a board together.
// It manages component lifecycles and runs one script per invocation.
type Application struct {
	mu sync.Mutex

	// Core infrastructure
	config *config.Config
	logger *logging.Logger

	// Script components
	registry *scripts.Registry
	loader   *luascript.Loader
	watcher  *watch.Watcher

	// Editing components
	queue     *render.Queue
	stopQueue context.CancelFunc
	stack     *history.Stack
	project   *artboard.MemoryProject
	board     artboard.Artboard
	editor    *editor.State
	palette   palette.Generator
	source    pixel.Color
	colorIdx  int
	exporters *export.Set

	// Interactive components
	brush    *brush.Driver
	brushIdx int
	view     *preview.Preview

	// State
	running atomic.Bool
	closed  atomic.Bool

	// Options
	opts Options
}

// Options configures the application. Zero values defer to the loaded
// configuration.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// Environ supplies SPRITESTUDIO_* overrides. Nil reads the process
	// environment.
	Environ []string

	// Script is the artboard or project script to run.
	Script string

	// Args are passed to scripts that take arguments.
	Args []string

	// Width, Height and Channels size the board.
	Width    int
	Height   int
	Channels int

	// Output is the export path; Format overrides the format implied by
	// its extension.
	Output string
	Format string

	// ScriptsDir is the root of the Lua script folders.
	ScriptsDir string

	// Preview shows the board in the terminal after the script runs.
	Preview bool

	// Watch reloads Lua scripts as they change.
	Watch bool

	// List prints the registered scripts and export formats to Stdout.
	List bool

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Stdout receives listings. Defaults to os.Stdout.
	Stdout io.Writer
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	app := &Application{opts: opts}

	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run executes the configured script, exports the board and, when asked,
// previews it and watches the script folders until ctx is done.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if app.opts.List {
		return app.list(app.opts.Stdout)
	}
	watching := app.watchEnabled()
	if app.opts.Script == "" && !app.opts.Preview && !watching {
		return ErrNoScript
	}

	if watching {
		if err := app.startWatching(ctx); err != nil {
			return err
		}
	}

	if app.opts.Script != "" {
		if err := app.RunScript(ctx, app.opts.Script); err != nil {
			return err
		}
		if err := app.Export(); err != nil {
			return err
		}
	}

	switch {
	case app.opts.Preview:
		return app.runPreview(ctx)
	case watching:
		<-ctx.Done()
		return nil
	}
	return nil
}

// RunScript runs the named artboard script on the board, or the named
// project script on the project.
func (app *Application) RunScript(ctx context.Context, name string) error {
	log := app.logger.WithField("script", name)

	err := app.registry.RunArtboard(ctx, app.stack, name, app.board, app.editor, app.opts.Args)
	if errors.Is(err, scripts.ErrNotFound) {
		err = app.registry.RunProject(ctx, app.stack, name, app.project, app.editor)
	}
	if err != nil {
		log.Error("run failed: %v", err)
		return &OperationError{Op: "run", Target: name, Err: err}
	}
	log.Info("ran on %dx%d board", app.board.Width(), app.board.Height())
	return nil
}

// Export writes the board to the configured path.
func (app *Application) Export() error {
	cfg, err := app.config.Export()
	if err != nil {
		return err
	}
	if cfg.Path == "" {
		return nil
	}

	exp, err := app.exporterFor(cfg.Path, cfg.Format)
	if err != nil {
		return &OperationError{Op: "export", Target: cfg.Path, Err: err}
	}
	b := app.board
	if err := exp.Export(cfg.Path, export.FromBoard(b), b.Width(), b.Height(), b.ActiveLayerChannels()); err != nil {
		return err
	}
	app.logger.Info("exported %s", cfg.Path)
	return nil
}

// exportSet returns the built-in formats plus the scripted exporters
// loaded right now. Scripts cannot replace a built-in format.
func (app *Application) exportSet() *export.Set {
	set := app.exporters.Clone()
	for _, e := range app.registry.Exporters() {
		if err := set.Register(e); err != nil {
			app.logger.Warn("exporter script %s skipped: %v", e.Name(), err)
		}
	}
	return set
}

// exporterFor picks the exporter named by an explicit -format, then the
// one matching the path's extension, then the configured default.
func (app *Application) exporterFor(path, format string) (export.Exporter, error) {
	set := app.exportSet()
	if app.opts.Format != "" {
		return set.Lookup(app.opts.Format)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, name := range set.Names() {
		e, _ := set.Lookup(name)
		if strings.ToLower(e.Extension()) == ext || (ext == ".tif" && name == "tiff") {
			return e, nil
		}
	}
	return set.Lookup(format)
}

func (app *Application) list(w io.Writer) error {
	for _, k := range scripts.Kinds {
		names := app.registry.Names(k)
		if len(names) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", k.Folder()); err != nil {
			return err
		}
		for _, n := range names {
			if _, err := fmt.Fprintf(w, "  %s\n", n); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "formats: %s\n", strings.Join(app.exportSet().Names(), ", "))
	return err
}

// watchEnabled reports whether scripts.watch is set by the options, the
// file or the environment.
func (app *Application) watchEnabled() bool {
	sc, err := app.config.Scripts()
	return err == nil && sc.Watch && app.loader != nil
}

func (app *Application) startWatching(ctx context.Context) error {
	if app.loader == nil {
		return nil
	}
	sc, err := app.config.Scripts()
	if err != nil {
		return err
	}
	w, err := watch.New(watch.WithDelay(sc.Debounce), watch.WithFilter(luascript.IsScript))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	for _, dir := range app.loader.Dirs() {
		if err := w.Watch(dir); err != nil && !errors.Is(err, watch.ErrPathNotExist) {
			_ = w.Close()
			return &InitError{Component: "watcher", Err: err}
		}
	}

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()

	go watch.NewReloader(w, app.loader, app.logger).OnChange(app.scriptChanged).Run(ctx)
	app.logger.Info("watching %s", app.loader.Root())
	return nil
}

// scriptChanged redraws the preview after a hot reload. The refresh is
// queued behind graphics work already posted.
func (app *Application) scriptChanged(path string) {
	app.mu.Lock()
	p := app.view
	app.mu.Unlock()
	if p == nil {
		return
	}
	name := filepath.Base(path)
	err := app.queue.PostAsync(func() error {
		p.SetStatus("reloaded " + name)
		p.Refresh()
		return nil
	}, nil)
	switch {
	case errors.Is(err, render.ErrQueueFull):
		// The next redraw shows the reloaded script anyway.
		app.logger.Debug("render queue full, refresh for %s dropped", name)
	case err != nil:
		app.logger.Warn("refresh after reloading %s: %v", name, err)
	}
}

func (app *Application) runPreview(ctx context.Context) error {
	p, err := preview.NewTerminal("spritestudio")
	if err != nil {
		return &InitError{Component: "preview", Err: err}
	}
	defer p.Close()
	app.bindPreview(ctx, p)
	return app.preview(ctx, p)
}

// bindPreview installs the preview keys and routes mouse presses to the
// selected brush.
func (app *Application) bindPreview(ctx context.Context, p *preview.Preview) {
	p.Bind('u', "undo", func() error { return app.stack.Undo(ctx) })
	p.Bind('r', "redo", func() error { return app.stack.Redo(ctx) })
	p.Bind('e', "export", app.Export)
	p.Bind('c', "colour", func() error {
		_, err := app.NextColor()
		return err
	})
	p.Bind('b', "brush", func() error {
		name, err := app.NextBrush()
		if err == nil {
			app.logger.Debug("brush %s selected", name)
		}
		return err
	})
	if app.opts.Script != "" {
		p.Bind('g', "rerun", func() error { return app.RunScript(ctx, app.opts.Script) })
	}
	p.OnMouse(func(x, y int, pressed bool) error {
		return app.Paint(ctx, x, y, pressed)
	})
}

func (app *Application) preview(ctx context.Context, p *preview.Preview) error {
	app.mu.Lock()
	app.view = p
	app.mu.Unlock()
	defer func() {
		app.mu.Lock()
		app.view = nil
		app.mu.Unlock()
	}()

	err := p.Run(ctx, app.board)
	switch {
	case errors.Is(err, preview.ErrQuit):
		return ErrQuit
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}

// BrushNames lists every registered brush: simple, then modifying, then
// selecting, each sorted by name.
func (app *Application) BrushNames() []string {
	var names []string
	for _, k := range []scripts.Kind{scripts.SimpleBrushes, scripts.ModifyingBrushes, scripts.SelectingBrushes} {
		names = append(names, app.registry.Names(k)...)
	}
	return names
}

// SelectBrush replaces the active brush with a fresh instance of name.
func (app *Application) SelectBrush(name string) error {
	d, err := app.registry.NewDriver(name, app.stack, scripts.WithDriverLogger(app.logger))
	if err != nil {
		return err
	}
	app.mu.Lock()
	old := app.brush
	app.brush = d
	app.mu.Unlock()
	if old != nil {
		if err := old.ShutDown(); err != nil {
			app.logger.Warn("brush %s shutdown: %v", old.Meta().Name, err)
		}
	}
	return nil
}

// NextBrush selects the brush after the active one and returns its name.
func (app *Application) NextBrush() (string, error) {
	names := app.BrushNames()
	if len(names) == 0 {
		return "", &OperationError{Op: "select brush", Err: scripts.ErrNotFound}
	}
	app.mu.Lock()
	if app.brush != nil {
		app.brushIdx = (app.brushIdx + 1) % len(names)
	}
	name := names[app.brushIdx%len(names)]
	app.mu.Unlock()
	if err := app.SelectBrush(name); err != nil {
		return "", err
	}
	return name, nil
}

// Brush returns the active brush driver, or nil before one is selected.
func (app *Application) Brush() *brush.Driver {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.brush
}

// Paint runs one brush frame at board pixel (x, y) with the interact
// control held while pressed. Negative coordinates mean the cursor is off
// the board. The first brush is selected on first use.
func (app *Application) Paint(ctx context.Context, x, y int, pressed bool) error {
	d := app.Brush()
	if d == nil {
		if _, err := app.NextBrush(); err != nil {
			return err
		}
		d = app.Brush()
	}

	if pressed {
		app.editor.Press(editor.ArtboardInteract)
	} else {
		app.editor.Release(editor.ArtboardInteract)
	}
	defer app.editor.EndFrame()

	var ab artboard.Artboard
	if x >= 0 && y >= 0 {
		ab = app.board
		app.editor.SetCursor(ab.LeftX()+float64(x), ab.BottomY()+float64(y))
	}
	if _, err := d.Frame(ctx, ab, app.editor, x, y); err != nil {
		return &OperationError{Op: "paint", Target: d.Meta().Name, Err: err}
	}
	return nil
}

// NextColor selects the next colour of the palette generated from the
// configured source colour.
func (app *Application) NextColor() (pixel.Color, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	ch := app.board.ActiveLayerChannels()
	colors, err := app.palette.Generate(app.source, ch)
	if err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return app.editor.SelectedColor(), nil
	}
	app.colorIdx = (app.colorIdx + 1) % len(colors)
	c := colors[app.colorIdx].Color(ch)
	app.editor.SetSelectedColor(c)
	return c, nil
}

// Shutdown releases every component. It is safe to call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}
	app.shutdown()
}

// shutdown performs cleanup in reverse initialization order.
func (app *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}

	app.mu.Lock()
	d := app.brush
	app.brush = nil
	app.mu.Unlock()
	if d != nil {
		_ = d.ShutDown()
	}

	// Events shut down before the states and queue they may need.
	if app.stack != nil {
		app.stack.ShutDown(ctx)
	}
	if app.loader != nil {
		app.loader.Close()
	}
	if app.queue != nil {
		app.logger.Debug("render queue ran %d jobs", app.queue.Processed())
		app.queue.Close()
		app.stopQueue()
	}
}

// IsRunning returns true if Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the merged configuration.
func (app *Application) Config() *config.Config { return app.config }

// Registry returns the script registry.
func (app *Application) Registry() *scripts.Registry { return app.registry }

// Stack returns the history stack.
func (app *Application) Stack() *history.Stack { return app.stack }

// Board returns the board scripts run on.
func (app *Application) Board() artboard.Artboard { return app.board }

// Editor returns the editor state.
func (app *Application) Editor() *editor.State { return app.editor }
