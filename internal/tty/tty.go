// Package tty wraps the small set of privileged terminal operations bhist
// needs: putting the controlling tty into raw mode (and restoring it),
// querying window size, waiting for SIGINT on a dedicated goroutine, and
// injecting bytes into the tty's pending input queue so the host shell
// reads them as if typed.
//
// Raw mode and window size follow the usual term.MakeRaw/term.Restore
// pairing. Input injection has no analogue in ordinary raw-mode code:
// nothing here spawns a child shell under a pty, it types directly into
// its own parent's tty, and it borrows the numeric-ioctl-constant style
// common to low-level termios code; see tty_unix.go.
package tty

import (
	"fmt"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/kir-gadjello/bhist/internal/bherr"
)

// Guard holds the tty's prior attributes and restores them exactly once.
// It is safe to call Restore from multiple goroutines and from more than
// one exit path.
type Guard struct {
	fd    int
	state *term.State
	once  sync.Once
	err   error
}

// Prepare switches fd (expected to be stdin) into raw mode, remembering
// its prior attributes. It fails with ErrTtyUnavailable if fd is not a
// controlling tty.
func Prepare(fd int) (*Guard, error) {
	if !isatty.IsTerminal(uintptr(fd)) {
		return nil, bherr.ErrTtyUnavailable
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("prepare terminal: %w", err)
	}

	return &Guard{fd: fd, state: state}, nil
}

// Restore reinstates the attributes captured by Prepare. Idempotent.
func (g *Guard) Restore() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		g.err = term.Restore(g.fd, g.state)
	})
	return g.err
}

// WindowSize returns the (rows, cols) of fd's controlling tty.
func WindowSize(fd int) (rows, cols int, err error) {
	cols, rows, err = term.GetSize(fd)
	if err != nil {
		return 0, 0, fmt.Errorf("get terminal size: %w", err)
	}
	return rows, cols, nil
}
