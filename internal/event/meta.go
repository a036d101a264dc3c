package event

import (
	"errors"
	"fmt"
)

// ErrInvalidMeta is returned when a script's declared flags are missing or
// have the wrong type. Scripts with invalid flags are rejected at load time.
var ErrInvalidMeta = errors.New("event: invalid script flags")

// Declared flag names, as scripts spell them.
const (
	KeyIsRenderEvent        = "isRenderEvent"
	KeyIsTransientEvent     = "isTransientEvent"
	KeyTakesArguments       = "takesArguments"
	KeyArgumentDialogueText = "argumentDialogueText"
)

// Meta is the immutable registration record of an event script. It is
// built once when the script is registered and never mutated.
type Meta struct {
	ScriptName           string
	IsRenderEvent        bool
	IsTransientEvent     bool
	TakesArguments       bool
	ArgumentDialogueText string
}

// Flags returns the event flags declared by the script.
func (m Meta) Flags() Flags {
	return Flags{RenderThread: m.IsRenderEvent, Transient: m.IsTransientEvent}
}

// MetaError describes which declared flag was rejected.
type MetaError struct {
	Script string
	Key    string
	Reason string
}

func (e *MetaError) Error() string {
	return fmt.Sprintf("script %s: flag %s: %s", e.Script, e.Key, e.Reason)
}

func (e *MetaError) Unwrap() error { return ErrInvalidMeta }

// ParseMeta builds a Meta from the values a script declared.
//
// isRenderEvent is required. isTransientEvent and takesArguments default to
// false. argumentDialogueText is required when takesArguments is true.
func ParseMeta(script string, values map[string]any) (Meta, error) {
	m := Meta{ScriptName: script}

	var err error
	if m.IsRenderEvent, err = boolFlag(script, values, KeyIsRenderEvent, true); err != nil {
		return Meta{}, err
	}
	if m.IsTransientEvent, err = boolFlag(script, values, KeyIsTransientEvent, false); err != nil {
		return Meta{}, err
	}
	if m.TakesArguments, err = boolFlag(script, values, KeyTakesArguments, false); err != nil {
		return Meta{}, err
	}

	if v, ok := values[KeyArgumentDialogueText]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Meta{}, &MetaError{Script: script, Key: KeyArgumentDialogueText, Reason: fmt.Sprintf("want string, got %T", v)}
		}
		m.ArgumentDialogueText = s
	}
	if m.TakesArguments && m.ArgumentDialogueText == "" {
		return Meta{}, &MetaError{Script: script, Key: KeyArgumentDialogueText, Reason: "required when takesArguments is true"}
	}

	return m, nil
}

func boolFlag(script string, values map[string]any, key string, required bool) (bool, error) {
	v, ok := values[key]
	if !ok || v == nil {
		if required {
			return false, &MetaError{Script: script, Key: key, Reason: "missing"}
		}
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &MetaError{Script: script, Key: key, Reason: fmt.Sprintf("want bool, got %T", v)}
	}
	return b, nil
}
