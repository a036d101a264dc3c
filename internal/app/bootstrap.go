package app

import (
	"context"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/config"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/export"
	"github.com/dshills/spritestudio/internal/history"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/luascript"
	"github.com/dshills/spritestudio/internal/palette"
	"github.com/dshills/spritestudio/internal/pixel"
	"github.com/dshills/spritestudio/internal/render"
	"github.com/dshills/spritestudio/internal/scripts"
)

// renderQueueSize is the number of graphics-thread jobs buffered.
const renderQueueSize = 64

// bootstrapper initializes application components in dependency order.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initRender,
		b.initHistory,
		b.initScripts,
		b.initBoard,
		b.initExporters,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// overrides turns explicit options into a settings layer.
func (b *bootstrapper) overrides() map[string]any {
	o := b.opts
	canvas := map[string]any{}
	setInt(canvas, "width", o.Width)
	setInt(canvas, "height", o.Height)
	setInt(canvas, "channels", o.Channels)

	scriptsCfg := map[string]any{}
	if o.ScriptsDir != "" {
		scriptsCfg["dir"] = o.ScriptsDir
	}
	if o.Watch {
		scriptsCfg["watch"] = true
	}

	exportCfg := map[string]any{}
	if o.Output != "" {
		exportCfg["path"] = o.Output
	}
	if o.Format != "" {
		exportCfg["format"] = o.Format
	}

	values := map[string]any{
		"canvas":  canvas,
		"scripts": scriptsCfg,
		"export":  exportCfg,
	}
	if o.LogLevel != "" {
		values["log"] = map[string]any{"level": o.LogLevel}
	}
	return values
}

func setInt(m map[string]any, key string, v int) {
	if v != 0 {
		m[key] = v
	}
}

// initConfig loads defaults, the file, the environment and the options.
func (b *bootstrapper) initConfig() error {
	cfg, err := config.Load(b.opts.ConfigPath, b.opts.Environ)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	cfg.Merge(b.overrides())
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	lc, err := b.app.config.Log()
	if err != nil {
		return &InitError{Component: "logger", Err: err}
	}
	out := b.opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	b.app.logger = logging.New(logging.Config{
		Level:  logging.ParseLevel(lc.Level),
		Output: out,
		Prefix: "spritestudio",
	})
	return nil
}

// initRender starts the graphics-thread queue.
func (b *bootstrapper) initRender() error {
	ctx, cancel := context.WithCancel(context.Background())
	b.app.queue = render.NewQueue(renderQueueSize)
	b.app.stopQueue = cancel
	go b.app.queue.Run(ctx)
	b.initOrder = append(b.initOrder, "render")
	return nil
}

func (b *bootstrapper) initHistory() error {
	hc, err := b.app.config.History()
	if err != nil {
		return &InitError{Component: "history", Err: err}
	}
	b.app.stack = history.New(hc.Capacity,
		history.WithPoster(b.app.queue),
		history.WithLogger(b.app.logger.WithComponent("history")))
	b.initOrder = append(b.initOrder, "history")
	return nil
}

// initScripts registers the built-ins and loads the Lua folders. Broken
// Lua scripts are logged and skipped.
func (b *bootstrapper) initScripts() error {
	pc, err := b.app.config.Palette()
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	registry, err := scripts.Builtins(b.app.logger.WithComponent("scripts"), pc.Seed)
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	b.app.registry = registry

	sc, err := b.app.config.Scripts()
	if err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	if sc.Dir == "" {
		return nil
	}
	loader := luascript.NewLoader(sc.Dir, registry, b.app.logger, luascript.WithTimeout(sc.Timeout))
	loader.IncludeExamples(sc.IncludeExamples)
	n, err := loader.LoadAll()
	if err != nil {
		b.app.logger.Warn("some scripts failed to load: %v", err)
	}
	b.app.logger.Debug("loaded %d lua scripts from %s", n, sc.Dir)
	b.app.loader = loader
	b.initOrder = append(b.initOrder, "loader")
	return nil
}

// initBoard creates the project, its board and the editor, whose selected
// colour is the first colour of the configured palette.
func (b *bootstrapper) initBoard() error {
	cc, err := b.app.config.Canvas()
	if err != nil {
		return &InitError{Component: "board", Err: err}
	}
	b.app.project = artboard.NewMemoryProject(cc.Channels)
	b.app.project.SetCheckerSize(cc.CheckerSize)
	board, err := b.app.project.CreateArtboard(cc.Width, cc.Height)
	if err != nil {
		return &InitError{Component: "board", Err: err}
	}
	b.app.board = board

	selected, err := b.initPalette(cc.Channels)
	if err != nil {
		return &InitError{Component: "palette", Err: err}
	}
	b.app.editor = editor.NewState(b.app.project, selected)
	return nil
}

// initPalette builds the configured generator and returns the colour the
// editor starts with.
func (b *bootstrapper) initPalette(channels int) (pixel.Color, error) {
	pc, err := b.app.config.Palette()
	if err != nil {
		return nil, err
	}
	cf, err := colorful.Hex(pc.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadColor, pc.Source)
	}
	source := pixel.FromColorful(cf, channels, 0xff)
	b.app.source = source

	gen, err := b.app.paletteGenerator(pc)
	if err != nil {
		return nil, err
	}
	b.app.palette = gen
	colors, err := gen.Generate(source, channels)
	if err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return source, nil
	}
	return colors[0].Color(channels), nil
}

// paletteGenerator resolves the generator through the registry so Lua
// palettes can be selected by name.
func (app *Application) paletteGenerator(pc config.PaletteConfig) (palette.Generator, error) {
	s, err := app.registry.Palette(pc.Generator)
	if err != nil {
		return nil, err
	}
	return s.New(pc.ValueScale)
}

func (b *bootstrapper) initExporters() error {
	b.app.exporters = export.Builtins(export.WithLogger(b.app.logger))
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "config":
		b.app.config = nil
	case "render":
		if b.app.queue != nil {
			b.app.queue.Close()
			b.app.stopQueue()
			b.app.queue = nil
		}
	case "history":
		b.app.stack = nil
	case "loader":
		if b.app.loader != nil {
			b.app.loader.Close()
			b.app.loader = nil
		}
	}
}
