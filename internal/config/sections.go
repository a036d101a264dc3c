package config

import "time"

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration.

// CanvasConfig describes the board scripts run on.
type CanvasConfig struct {
	Width    int
	Height   int
	Channels int
	// CheckerSize is the side of one background checker square.
	CheckerSize int
}

// HistoryConfig sizes the undo stack.
type HistoryConfig struct {
	Capacity int
}

// ScriptsConfig locates and runs Lua scripts.
type ScriptsConfig struct {
	Dir   string
	Watch bool
	// Debounce is the quiet period before a changed script reloads.
	Debounce time.Duration
	// Timeout bounds a single call into a script.
	Timeout         time.Duration
	IncludeExamples bool
}

// PaletteConfig selects the palette generated from the selected colour.
type PaletteConfig struct {
	Generator  string
	ValueScale int
	Seed       uint64
	// Source is the hex colour palettes are generated from.
	Source string
}

// ExportConfig is the default output.
type ExportConfig struct {
	Format string
	Path   string
}

// LogConfig configures logging.
type LogConfig struct {
	Level string
}

// Canvas returns the canvas section.
func (c *Config) Canvas() (CanvasConfig, error) {
	a := &accessor{c: c}
	s := CanvasConfig{
		Width:       a.getInt("canvas.width"),
		Height:      a.getInt("canvas.height"),
		Channels:    a.getInt("canvas.channels"),
		CheckerSize: a.getInt("canvas.checkerSize"),
	}
	return s, a.err
}

// History returns the history section.
func (c *Config) History() (HistoryConfig, error) {
	a := &accessor{c: c}
	return HistoryConfig{Capacity: a.getInt("history.capacity")}, a.err
}

// Scripts returns the scripts section.
func (c *Config) Scripts() (ScriptsConfig, error) {
	a := &accessor{c: c}
	s := ScriptsConfig{
		Dir:             a.getString("scripts.dir"),
		Watch:           a.getBool("scripts.watch"),
		Debounce:        a.getDuration("scripts.debounce"),
		Timeout:         a.getDuration("scripts.timeout"),
		IncludeExamples: a.getBool("scripts.includeExamples"),
	}
	return s, a.err
}

// Palette returns the palette section.
func (c *Config) Palette() (PaletteConfig, error) {
	a := &accessor{c: c}
	s := PaletteConfig{
		Generator:  a.getString("palette.generator"),
		ValueScale: a.getInt("palette.valueScale"),
		Seed:       uint64(a.getInt("palette.seed")),
		Source:     a.getString("palette.source"),
	}
	return s, a.err
}

// Export returns the export section.
func (c *Config) Export() (ExportConfig, error) {
	a := &accessor{c: c}
	return ExportConfig{Format: a.getString("export.format"), Path: a.getString("export.path")}, a.err
}

// Log returns the log section.
func (c *Config) Log() (LogConfig, error) {
	a := &accessor{c: c}
	return LogConfig{Level: a.getString("log.level")}, a.err
}
