// Package event defines the typed messages that flow from bhist's
// producers (input decoder, signal waiter, history loader, completions
// loader, worker pool) to the single event-loop consumer over one
// channel.
//
// A closed interface with a type switch, rather than a tagged union,
// keeps dispatch exhaustive-by-construction and lets each variant carry
// its own payload fields without a shared discriminant.
package event

import (
	"github.com/kir-gadjello/bhist/fuzzy"
	"github.com/kir-gadjello/bhist/store"
)

// Event is implemented by every message the event loop can receive.
type Event interface {
	isEvent()
}

// CompletionsReady carries the loaded (or empty, on load failure)
// completions store. Received once, early, before the history loader
// starts.
type CompletionsReady struct {
	Completions *store.Completions
}

// HistoryReady carries the recent-lines list, most recent first.
type HistoryReady struct {
	Recent []string
}

// SearchReady carries the fully built, now-immutable search base.
type SearchReady struct {
	Base *fuzzy.SearchBase
}

// Input is one decoded input character.
type Input struct {
	Char rune
}

// Resize carries a new terminal window size, observed on SIGWINCH.
type Resize struct {
	Rows, Cols int
}

// Match carries a query's ranked results, tagged with the query string
// that produced them so the event loop can drop stale results.
type Match struct {
	Matches []*fuzzy.LineInfo
	Query   string
}

// KeyDown requests moving the selection down (Ctrl-R, or the down arrow).
type KeyDown struct{}

// KeyUp requests moving the selection up (Ctrl-S, or the up arrow).
type KeyUp struct{}

// Clear requests resetting the query to empty (Ctrl-U).
type Clear struct{}

// Backspace requests removing the last query character.
type Backspace struct{}

// Bell requests an audible/visual bell with no state change.
type Bell struct{}

// Quit requests loop termination. Success is true when the user
// confirmed a selection (Enter) and false on cancel (Ctrl-C/Ctrl-D) or a
// read error.
type Quit struct {
	Success bool
}

func (CompletionsReady) isEvent() {}
func (HistoryReady) isEvent()     {}
func (SearchReady) isEvent()      {}
func (Input) isEvent()            {}
func (Resize) isEvent()           {}
func (Match) isEvent()            {}
func (KeyDown) isEvent()          {}
func (KeyUp) isEvent()            {}
func (Clear) isEvent()            {}
func (Backspace) isEvent()        {}
func (Bell) isEvent()             {}
func (Quit) isEvent()             {}
