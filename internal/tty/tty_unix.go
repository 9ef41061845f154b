//go:build linux || darwin

package tty

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unsafe"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"

	"github.com/kir-gadjello/bhist/internal/bherr"
)

// InjectInput pushes data into fd's controlling tty input queue, one byte
// at a time, via the TIOCSTI ioctl. Once this process releases the tty,
// the host shell reads the bytes as if typed. data must contain no
// embedded NUL and fd must be a tty.
func InjectInput(fd int, data []byte) error {
	if !isatty.IsTerminal(uintptr(fd)) {
		return bherr.ErrNotATty
	}
	if strings.IndexByte(string(data), 0) != -1 {
		return fmt.Errorf("inject input: embedded NUL byte")
	}

	for _, b := range data {
		c := b
		_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), unix.TIOCSTI, uintptr(unsafe.Pointer(&c)))
		if errno != 0 {
			return fmt.Errorf("inject input: %w", errno)
		}
	}

	return nil
}

// NotifyInterrupt arms SIGINT delivery on a dedicated channel so that only
// the caller's goroutine (the dedicated waiter) ever observes it; the
// stop func undoes the registration.
func NotifyInterrupt() (ch <-chan os.Signal, stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT)
	return c, func() { signal.Stop(c) }
}

// WaitInterrupt blocks until a signal arrives on ch, once.
func WaitInterrupt(ch <-chan os.Signal) {
	<-ch
}

// NotifyResize arms SIGWINCH delivery on a dedicated channel, used here to
// re-query the window size whenever it changes.
func NotifyResize() (ch <-chan os.Signal, stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGWINCH)
	return c, func() { signal.Stop(c) }
}
