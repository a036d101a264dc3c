package luascript

import "errors"

// Script errors.
var (
	// ErrStateClosed is returned when calling into a closed state.
	ErrStateClosed = errors.New("luascript: state is closed")

	// ErrTimeout is returned when a call runs past the state's timeout.
	ErrTimeout = errors.New("luascript: execution timeout")

	// ErrNoEntry is returned when a script defines no entry function.
	ErrNoEntry = errors.New("luascript: entry function not defined")

	// ErrBadReturn is returned when a script returns the wrong shape.
	ErrBadReturn = errors.New("luascript: unexpected return value")

	// ErrMissingFunc is returned when a returned table lacks a required
	// function.
	ErrMissingFunc = errors.New("luascript: required function missing")
)
