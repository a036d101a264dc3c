package scripts

import (
	"github.com/dshills/spritestudio/internal/artboard"
	"github.com/dshills/spritestudio/internal/editor"
	"github.com/dshills/spritestudio/internal/event"
	"github.com/dshills/spritestudio/internal/logging"
	"github.com/dshills/spritestudio/internal/palette"
)

var projectInfoFlags = map[string]any{
	event.KeyIsRenderEvent:    false,
	event.KeyIsTransientEvent: true,
}

// ProjectInfo returns a project script that logs the project's animations
// and layers.
func ProjectInfo(logger *logging.Logger) ProjectFactory {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(p artboard.Project, _ editor.Editor) (event.Event, error) {
		return &oneShot{
			flags: event.Flags{Transient: true},
			fn: func() error {
				for _, a := range p.Animations() {
					logger.Info("animation %s", a)
				}
				for _, l := range p.VisualLayers() {
					logger.Info("visual layer %s", l)
				}
				for _, l := range p.NonVisualLayers() {
					logger.Info("nonvisual layer %s", l)
				}
				logger.Info("%d artboards", len(p.Artboards()))
				return nil
			},
		}, nil
	}
}

// Builtin script names.
const (
	NameGrayGradient    = "GrayGradient"
	NameColoredGradient = "ColoredGradient"
	NameMandelbrot      = "Mandelbrot"
	NameAnimationDebug  = "AnimationDebug"
	NameGrid            = "Grid"
	NameProjectInfo     = "ProjectInfo"
	NameSimpleBrush     = "SimpleBrush"
	NameDiagonalBrush   = "DiagonalBrush"
	NameGradientRegion  = "GradientRegionBrush"
	NameSubRegion       = "SubRegionToArtboard"
	NameSimpleSelector  = "SimpleSelectorBrush"
)

// RegisterBuiltins adds every built-in script to r. seed seeds the random
// palette.
func RegisterBuiltins(r *Registry, logger *logging.Logger, seed uint64) error {
	artboards := []struct {
		name  string
		flags map[string]any
		fn    ArtboardFactory
	}{
		{NameGrayGradient, grayGradientFlags, GrayGradient},
		{NameColoredGradient, coloredGradientFlags, ColoredGradient},
		{NameMandelbrot, mandelbrotFlags, Mandelbrot},
		{NameAnimationDebug, animationDebugFlags, AnimationDebug},
		{NameGrid, gridFlags, Grid},
	}
	for _, a := range artboards {
		if err := r.RegisterArtboard(a.name, a.flags, a.fn); err != nil {
			return err
		}
	}

	if err := r.RegisterProject(NameProjectInfo, projectInfoFlags, ProjectInfo(logger)); err != nil {
		return err
	}

	brushes := []struct {
		kind  Kind
		name  string
		flags map[string]any
		fn    BrushFactory
	}{
		{SimpleBrushes, NameSimpleBrush, simpleBrushFlags, NewSimpleBrush},
		{ModifyingBrushes, NameDiagonalBrush, diagonalBrushFlags, NewDiagonalBrush},
		{SelectingBrushes, NameGradientRegion, gradientRegionFlags, NewGradientRegionBrush},
		{SelectingBrushes, NameSubRegion, subRegionFlags, NewSubRegionToArtboard},
		{SelectingBrushes, NameSimpleSelector, simpleSelectorFlags, NewSimpleSelector},
	}
	for _, b := range brushes {
		if err := r.RegisterBrush(b.kind, b.name, b.flags, b.fn); err != nil {
			return err
		}
	}

	for _, name := range palette.Names {
		err := r.RegisterPalette(name, palette.DefaultValueScale, func(valueScale int) (palette.Generator, error) {
			return palette.New(name, valueScale, seed)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Builtins returns a registry holding every built-in script.
func Builtins(logger *logging.Logger, seed uint64) (*Registry, error) {
	r := NewRegistry()
	if err := RegisterBuiltins(r, logger, seed); err != nil {
		return nil, err
	}
	return r, nil
}
