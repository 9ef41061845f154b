// Package terminfo loads the handful of terminal capability strings the
// renderer needs and exposes a minimal parameterized-string expander over
// them.
//
// Database loading, resolving $TERM against the compiled terminfo
// database, is delegated to github.com/xo/terminfo rather than
// hand-parsed; everything downstream of that raw lookup, the %p/%d
// expansion and fragment composition, is local to this module (see the
// render package).
package terminfo

import (
	"fmt"
	"log"
	"os"

	xoterminfo "github.com/xo/terminfo"

	"github.com/kir-gadjello/bhist/internal/bherr"
)

// Capability names used by the renderer.
const (
	CapCursorUp    = "cuu"
	CapCursorDown  = "cud"
	CapCursorLeft  = "cub"
	CapSaveCursor  = "sc"
	CapRestCursor  = "rc"
	CapClearToEOS  = "ed"
	CapClearToEOL  = "el"
)

// DB is a name→raw-capability-string mapping, unexpanded: callers run the
// strings through Expand before writing them to the terminal.
type DB map[string][]byte

// Load resolves $TERM (consulting $TERMINFO) into a DB holding the
// capabilities the renderer uses. It fails with bherr.ErrTerminfo if the
// terminal type cannot be resolved.
func Load() (DB, error) {
	ti, err := xoterminfo.Load(os.Getenv("TERM"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bherr.ErrTerminfo, err)
	}

	db := DB{
		CapCursorUp:   []byte(ti.Strings[xoterminfo.ParmUpCursor]),
		CapCursorDown: []byte(ti.Strings[xoterminfo.ParmDownCursor]),
		CapCursorLeft: []byte(ti.Strings[xoterminfo.ParmLeftCursor]),
		CapSaveCursor: []byte(ti.Strings[xoterminfo.SaveCursor]),
		CapRestCursor: []byte(ti.Strings[xoterminfo.RestoreCursor]),
		CapClearToEOS: []byte(ti.Strings[xoterminfo.ClrEos]),
		CapClearToEOL: []byte(ti.Strings[xoterminfo.ClrEol]),
	}

	// A handful of terminfo entries omit the parameterized cursor-motion
	// caps and only define the single-step form (cuu1/cub1); fall back to
	// that instead of leaving the capability empty. Expand has no notion
	// of repeating a capability, so this fallback only ever moves one
	// row/column regardless of the n passed to it, a known limitation
	// affecting the rare terminfo entry that lacks the parameterized form.
	if len(db[CapCursorUp]) == 0 {
		db[CapCursorUp] = []byte(ti.Strings[xoterminfo.CursorUp])
	}
	if len(db[CapCursorLeft]) == 0 {
		db[CapCursorLeft] = []byte(ti.Strings[xoterminfo.CursorBack1])
	}

	return db, nil
}

// Expand runs a terminfo parameterized string through the minimal subset
// of the parameter language this system's capabilities actually use:
// %% for a literal percent, %p1-%p9 to push an argument, and %d to pop
// the top of the stack and print it as decimal. Any other %-sequence is
// dropped and logged rather than rejected outright, since an
// unrecognized escape in a third-party terminfo entry shouldn't make the
// renderer unusable.
func Expand(seq []byte, args ...int) []byte {
	var out []byte
	var stack []int

	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if c != '%' || i == len(seq)-1 {
			out = append(out, c)
			continue
		}

		i++
		switch next := seq[i]; {
		case next == '%':
			out = append(out, '%')
		case next == 'd':
			if len(stack) == 0 {
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out = append(out, []byte(fmt.Sprintf("%d", top))...)
		case next == 'p' && i+1 < len(seq) && seq[i+1] >= '1' && seq[i+1] <= '9':
			idx := int(seq[i+1] - '1')
			i++
			if idx < len(args) {
				stack = append(stack, args[idx])
			}
		default:
			logUnknownSequence(next)
		}
	}

	return out
}

func logUnknownSequence(b byte) {
	log.Printf("terminfo: ignoring unsupported parameter sequence %%%c", b)
}
