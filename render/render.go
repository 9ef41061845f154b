// Package render turns event-loop state transitions into terminal escape
// sequences, using a loaded terminfo.DB for the capability bytes and
// go-runewidth to measure and truncate match lines to the window's column
// count.
//
// Every public method appends to an internal buffer rather than writing
// straight to the terminal; callers flush once per event-loop iteration,
// matching a single batched write per keystroke instead of many small
// syscalls.
package render

import (
	"bufio"
	"io"
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/kir-gadjello/bhist/internal/terminfo"
)

const bell = 0x07

// Renderer owns the output stream and the terminal's current dimensions.
// It is used from a single goroutine (the event loop) and holds no
// locks.
type Renderer struct {
	w          *bufio.Writer
	db         terminfo.DB
	rows, cols int
}

// New wraps w with a Renderer driven by the capabilities in db, sized to
// rows x cols.
func New(w io.Writer, db terminfo.DB, rows, cols int) *Renderer {
	return &Renderer{w: bufio.NewWriter(w), db: db, rows: rows, cols: cols}
}

// Resize updates the window dimensions used for match-line truncation and
// prompt placement.
func (r *Renderer) Resize(rows, cols int) {
	r.rows, r.cols = rows, cols
}

// Flush writes any buffered output to the underlying stream.
func (r *Renderer) Flush() error {
	return r.w.Flush()
}

func (r *Renderer) raw(s string) {
	r.w.WriteString(s)
}

func (r *Renderer) capability(name string, args ...int) {
	r.w.Write(terminfo.Expand(r.db[name], args...))
}

func (r *Renderer) bell() {
	r.w.WriteByte(bell)
}

func matchListRows(rows int) int {
	if n := rows - 1; n < 10 {
		if n < 0 {
			return 0
		}
		return n
	}
	return 10
}

// PromptStart renders the startup fragment: reserves matchListRows blank
// rows below the prompt, returns the cursor to the prompt row, writes the
// prompt literal, and marks the save point just past it.
func (r *Renderer) PromptStart() {
	n := matchListRows(r.rows)
	for i := 0; i < n; i++ {
		r.raw("\n")
	}
	if n > 0 {
		r.capability(terminfo.CapCursorUp, n)
	}
	r.raw("Match: ")
	r.capability(terminfo.CapSaveCursor)
	r.capability(terminfo.CapClearToEOS)
}

// CharTyped renders one appended query character.
func (r *Renderer) CharTyped(c rune) {
	r.raw(string(c))
	r.capability(terminfo.CapSaveCursor)
	r.capability(terminfo.CapClearToEOS)
}

// Matches redraws the full match list below the prompt, marking row
// selected with an arrow, then restores the cursor to the save point.
func (r *Renderer) Matches(lines []string, selected int) {
	r.capability(terminfo.CapClearToEOS)

	for i, line := range lines {
		r.raw("\n")
		if i == selected {
			r.raw("-> ")
		}
		r.raw(r.truncate(line))
	}

	r.capability(terminfo.CapRestCursor)
}

// SelectionMove re-renders exactly the two affected rows when the
// selection moves from prevSelected to newSelected by one, then restores
// the cursor.
func (r *Renderer) SelectionMove(lines []string, prevSelected, newSelected int) {
	r.renderRow(lines, prevSelected, false)
	r.renderRow(lines, newSelected, true)
	r.capability(terminfo.CapRestCursor)
}

func (r *Renderer) renderRow(lines []string, row int, withArrow bool) {
	if row < 0 || row >= len(lines) {
		return
	}
	r.capability(terminfo.CapCursorDown, row+1)
	r.raw("\r")
	if withArrow {
		r.raw("-> ")
	}
	r.raw(r.truncate(lines[row]))
	r.capability(terminfo.CapClearToEOL)
	r.capability(terminfo.CapCursorUp, row+1)
}

// Backspace renders one removed query character, or a bell if the query
// was already empty.
func (r *Renderer) Backspace(emptyBefore bool) {
	if emptyBefore {
		r.bell()
		return
	}
	r.capability(terminfo.CapCursorLeft, 1)
	r.capability(terminfo.CapSaveCursor)
	r.capability(terminfo.CapClearToEOS)
}

// Clear renders a full query reset (cursor back queryLen columns), or a
// bell if the query was already empty. Callers follow a non-empty Clear
// with a Matches call rendering the recent list.
func (r *Renderer) Clear(queryLen int) {
	if queryLen == 0 {
		r.bell()
		return
	}
	r.capability(terminfo.CapCursorLeft, queryLen)
	r.capability(terminfo.CapSaveCursor)
	r.capability(terminfo.CapClearToEOS)
}

// Bell renders a plain terminal bell with no other state change.
func (r *Renderer) Bell() {
	r.bell()
}

// Exit renders the final fragment on loop termination: the selected line
// (annotated as coming from the recent list when the query was empty) or
// just a newline when nothing was selected.
func (r *Renderer) Exit(selected string, hasSelection, fromRecent bool) {
	if hasSelection {
		prefix := " -> "
		if fromRecent {
			prefix = " -> (recent) "
		}
		r.raw(prefix)
		r.raw(selected)
	}
	r.raw("\n")
	r.capability(terminfo.CapClearToEOS)
}

func (r *Renderer) truncate(line string) string {
	cols := r.cols
	if cols <= 0 {
		return line
	}
	for runewidth.StringWidth(line) > cols && len(line) > 0 {
		_, size := utf8.DecodeLastRuneInString(line)
		line = line[:len(line)-size]
	}
	return line
}
