// Package input turns a raw-mode tty's byte stream into the small set of
// typed events the event loop understands: printable characters, arrow
// keys decoded from their escape sequences, and the fixed control-key
// bindings.
package input

import (
	"bufio"
	"errors"
	"io"
	"sync/atomic"
	"syscall"
	"unicode/utf8"

	"github.com/kir-gadjello/bhist/internal/event"
)

// Decoder reads from a single io.Reader (the raw-mode tty) and sends
// decoded events to out. It runs on its own goroutine, started by Run.
type Decoder struct {
	r   *bufio.Reader
	out chan<- event.Event
}

// New wraps r with a Decoder that sends to out.
func New(r io.Reader, out chan<- event.Event) *Decoder {
	return &Decoder{r: bufio.NewReader(r), out: out}
}

// Run reads and dispatches events until a quit key is seen, the stream
// ends, or stop is observed set between reads. Run is meant to be woken
// out of a blocked read by a sacrificial byte injected into the tty; that
// byte is decoded and discarded like any other once stop is set.
func (d *Decoder) Run(stop *atomic.Bool) {
	var escaping bool
	var escBuf []byte

	for {
		if stop.Load() {
			return
		}

		c, ok, err := d.readRune()
		if err != nil {
			d.out <- event.Quit{Success: false}
			return
		}
		if !ok {
			continue
		}
		if stop.Load() {
			return
		}

		if d.dispatch(c, &escaping, &escBuf) {
			return
		}
	}
}

// dispatch handles one decoded rune, returning true when the decoder
// should terminate.
func (d *Decoder) dispatch(c rune, escaping *bool, buf *[]byte) bool {
	if *escaping {
		*buf = append(*buf, byte(c))
		switch string(*buf) {
		case "[":
			return false
		case "[A":
			d.out <- event.KeyUp{}
		case "[B":
			d.out <- event.KeyDown{}
		default:
			d.out <- event.Bell{}
			d.out <- event.Input{Char: c}
		}
		*escaping = false
		*buf = nil
		return false
	}

	switch c {
	case 0x1B: // ESC
		*escaping = true
		*buf = (*buf)[:0]
		return false
	case 0x04, 0x03: // EOT, Ctrl-C
		d.out <- event.Quit{Success: false}
		return true
	case 0x15: // Ctrl-U
		d.out <- event.Clear{}
	case 0x12: // Ctrl-R
		d.out <- event.KeyDown{}
	case 0x13: // Ctrl-S
		d.out <- event.KeyUp{}
	case '\n', '\r':
		d.out <- event.Quit{Success: true}
		return true
	case 0x08, 0x7F: // BS, DEL
		d.out <- event.Backspace{}
	default:
		if c < 0x20 {
			d.out <- event.Bell{}
		} else {
			d.out <- event.Input{Char: c}
		}
	}
	return false
}

// readRune assembles one UTF-8 rune from the stream, retrying on
// interrupted reads. ok is false only when the read was interrupted and
// should simply be retried by the caller's loop (used so Run can observe
// the stop flag between attempts); err is non-nil only on a genuine I/O
// failure (EOF, closed fd).
func (d *Decoder) readRune() (rune, bool, error) {
	first, err := d.readByte()
	if err != nil {
		if errors.Is(err, errInterrupted) {
			return 0, false, nil
		}
		return 0, false, err
	}

	if first < utf8.RuneSelf {
		return rune(first), true, nil
	}

	n := utf8SeqLen(first)
	if n <= 1 {
		return utf8.RuneError, true, nil
	}

	buf := make([]byte, n)
	buf[0] = first
	for i := 1; i < n; i++ {
		b, err := d.readByte()
		if err != nil {
			if errors.Is(err, errInterrupted) {
				i--
				continue
			}
			return 0, false, err
		}
		buf[i] = b
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		return utf8.RuneError, true, nil
	}
	return r, true, nil
}

var errInterrupted = syscall.EINTR

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil && isEINTR(err) {
		return 0, errInterrupted
	}
	return b, err
}

func isEINTR(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

// utf8SeqLen returns the expected total byte length of a UTF-8 sequence
// starting with the given leading byte, or 0 if it is not a valid
// leading byte.
func utf8SeqLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}
