// Package config loads spritestudio settings.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then SPRITESTUDIO_* environment variables. Typed section
// accessors return snapshot structs.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is a merged settings tree.
type Config struct {
	values map[string]any
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{values: defaultConfig()}
}

// Load layers the file at path (if non-empty) and environ over the
// defaults and validates the result.
func Load(path string, environ []string) (*Config, error) {
	c := Default()
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		c.values = DeepMerge(c.values, file)
	}
	c.values = DeepMerge(c.values, LoadEnv(environ))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge layers values over the current settings.
func (c *Config) Merge(values map[string]any) {
	c.values = DeepMerge(c.values, values)
}

func defaultConfig() map[string]any {
	return map[string]any{
		"canvas": map[string]any{
			"width":       64,
			"height":      64,
			"channels":    4,
			"checkerSize": 4,
		},
		"history": map[string]any{
			"capacity": 100,
		},
		"scripts": map[string]any{
			"dir":             "scripts",
			"watch":           false,
			"debounce":        "100ms",
			"timeout":         "5s",
			"includeExamples": false,
		},
		"palette": map[string]any{
			"generator":  "Random Colors",
			"valueScale": 15,
			"seed":       1,
			"source":     "#3366cc",
		},
		"export": map[string]any{
			"format": "png",
			"path":   "out.png",
		},
		"log": map[string]any{
			"level": "info",
		},
	}
}

// Get returns the raw value at a dot-separated path.
func (c *Config) Get(path string) (any, bool) {
	current := any(c.values)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: fmt.Sprintf("%T", v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: fmt.Sprintf("%T", v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: fmt.Sprintf("%T", v)}
	}
	return b, nil
}

// GetDuration accepts a duration string ("150ms") or a number of
// milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: val}
		}
		return d, nil
	case int, int64, float64:
		ms, _ := c.GetInt(path)
		return time.Duration(ms) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%T", v)}
	}
}

// accessor collects the first error across several reads.
type accessor struct {
	c   *Config
	err error
}

func (a *accessor) getString(path string) string {
	v, err := a.c.GetString(path)
	a.keep(err)
	return v
}

func (a *accessor) getInt(path string) int {
	v, err := a.c.GetInt(path)
	a.keep(err)
	return v
}

func (a *accessor) getBool(path string) bool {
	v, err := a.c.GetBool(path)
	a.keep(err)
	return v
}

func (a *accessor) getDuration(path string) time.Duration {
	v, err := a.c.GetDuration(path)
	a.keep(err)
	return v
}

func (a *accessor) keep(err error) {
	if err != nil && a.err == nil {
		a.err = err
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	canvas, err := c.Canvas()
	if err != nil {
		return err
	}
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidValue, canvas.Width, canvas.Height)
	}
	if canvas.Channels < 1 || canvas.Channels > 4 {
		return fmt.Errorf("%w: canvas.channels %d", ErrInvalidValue, canvas.Channels)
	}
	h, err := c.History()
	if err != nil {
		return err
	}
	if h.Capacity <= 0 {
		return fmt.Errorf("%w: history.capacity %d", ErrInvalidValue, h.Capacity)
	}
	if _, err := c.Scripts(); err != nil {
		return err
	}
	p, err := c.Palette()
	if err != nil {
		return err
	}
	if p.ValueScale <= 0 {
		return fmt.Errorf("%w: palette.valueScale %d", ErrInvalidValue, p.ValueScale)
	}
	if _, err := c.Export(); err != nil {
		return err
	}
	_, err = c.Log()
	return err
}
