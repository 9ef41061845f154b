// Package bherr defines the sentinel error kinds shared across bhist's
// components, checked with errors.Is and wrapped with fmt.Errorf at the
// boundary of whichever primitive failed.
package bherr

import "errors"

var (
	// ErrTtyUnavailable means stdin has no controlling tty. Fatal at startup.
	ErrTtyUnavailable = errors.New("no controlling tty")

	// ErrTerminfo means the terminfo database could not be loaded for $TERM.
	// Fatal at startup.
	ErrTerminfo = errors.New("terminfo unavailable")

	// ErrHistoryMissing means HISTFILE could not be opened. Non-fatal: the
	// event loop continues with an empty search base.
	ErrHistoryMissing = errors.New("history file missing")

	// ErrCompletionsCorrupt means the completions JSON file failed to parse.
	// Non-fatal: the event loop continues with an empty store.
	ErrCompletionsCorrupt = errors.New("completions file corrupt")

	// ErrNotATty means an operation that requires a tty (input injection)
	// was attempted on a non-tty file descriptor.
	ErrNotATty = errors.New("not a tty")
)
