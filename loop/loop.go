// Package loop implements the single event-loop goroutine that owns all
// UI state and serializes every terminal write. It starts the decoder,
// the signal waiter, the completions loader and (once completions are
// ready) the history loader as separate goroutines, all funneling into
// one channel.
package loop

import (
	"io"
	"log"
	"os"
	"sync/atomic"
	"unicode/utf8"

	"github.com/kir-gadjello/bhist/fuzzy"
	"github.com/kir-gadjello/bhist/history"
	"github.com/kir-gadjello/bhist/input"
	"github.com/kir-gadjello/bhist/internal/event"
	"github.com/kir-gadjello/bhist/internal/latch"
	"github.com/kir-gadjello/bhist/internal/tty"
	"github.com/kir-gadjello/bhist/internal/workerpool"
	"github.com/kir-gadjello/bhist/render"
	"github.com/kir-gadjello/bhist/store"
)

// NumThreads bounds how many query jobs the worker pool runs at once.
const NumThreads = 4

// Result is what the loop produces on exit.
type Result struct {
	Success bool
	Line    string
}

// Loop owns the query/matches/selection state and the channel every
// producer sends to.
type Loop struct {
	ttyFd           int
	histPath        string
	completionsPath string
	cwd             string

	events   chan event.Event
	renderer *render.Renderer
	pool     *workerpool.Pool

	inputStop atomic.Bool
	inputDone *latch.Latch

	query       string
	selected    int
	displayed   []string
	usingRecent bool
	recentList  []string
	base        *fuzzy.SearchBase
	completions *store.Completions
	success     bool
}

// New builds a Loop wired to render through rdr and read raw bytes from
// stdin. ttyFd is the fd used for window-size queries and input
// injection (normally os.Stdin's fd).
func New(ttyFd int, rdr *render.Renderer, histPath, completionsPath, cwd string) *Loop {
	return &Loop{
		ttyFd:           ttyFd,
		histPath:        histPath,
		completionsPath: completionsPath,
		cwd:             cwd,
		events:          make(chan event.Event, 64),
		renderer:        rdr,
		pool:            workerpool.New(NumThreads),
		selected:        -1,
	}
}

// Run starts every producer, renders the initial prompt, and consumes
// events until a quit key is seen. It returns the user's final choice.
// Input is read from os.Stdin and window resizes are watched via
// SIGWINCH; see RunWith to drive the loop from a different reader
// (tests) or without a resize watcher.
func (l *Loop) Run() Result {
	return l.RunWith(os.Stdin, true)
}

// RunWith is Run with the input source and resize-watching made
// explicit, so tests can drive the loop from an in-memory reader
// without touching a real tty.
func (l *Loop) RunWith(stdin io.Reader, watchResize bool) Result {
	l.renderer.PromptStart()
	l.renderer.Flush()

	go l.loadCompletions()
	go l.waitInterrupt()
	if watchResize {
		go l.watchResize()
	}

	dec := input.New(stdin, l.events)
	l.inputDone = latch.New(1)
	go func() {
		dec.Run(&l.inputStop)
		l.inputDone.CountDown()
	}()

	for ev := range l.events {
		if l.handle(ev) {
			break
		}
		l.renderer.Flush()
	}

	l.shutdown()
	return Result{Success: l.success, Line: l.selectedLine()}
}

func (l *Loop) loadCompletions() {
	c, err := store.Load(l.completionsPath)
	if err != nil {
		log.Printf("completions: %v", err)
	}
	l.events <- event.CompletionsReady{Completions: c}
}

func (l *Loop) waitInterrupt() {
	ch, stop := tty.NotifyInterrupt()
	defer stop()
	tty.WaitInterrupt(ch)
	select {
	case l.events <- event.Quit{Success: false}:
	default:
	}
}

// watchResize re-queries the window size on each SIGWINCH and forwards
// it as an event, so the resize is applied on the event-loop goroutine
// like every other state change instead of racing the renderer's own
// fields from a second goroutine.
func (l *Loop) watchResize() {
	ch, stop := tty.NotifyResize()
	defer stop()
	for range ch {
		if rows, cols, err := tty.WindowSize(l.ttyFd); err == nil {
			select {
			case l.events <- event.Resize{Rows: rows, Cols: cols}:
			default:
			}
		}
	}
}

// handle applies one event to the loop's state, returning true when the
// loop should terminate.
func (l *Loop) handle(ev event.Event) bool {
	switch e := ev.(type) {
	case event.CompletionsReady:
		l.completions = e.Completions
		go func() {
			if err := history.Load(l.histPath, l.completions, l.cwd, l.events); err != nil {
				log.Printf("history: %v", err)
			}
		}()

	case event.HistoryReady:
		l.recentList = e.Recent
		if l.query == "" {
			l.setDisplayed(l.recentList, true)
			l.renderer.Matches(l.displayed, l.selected)
		}

	case event.SearchReady:
		l.base = e.Base
		if l.query != "" {
			l.dispatchQuery()
		}

	case event.Input:
		l.query += string(e.Char)
		l.renderer.CharTyped(e.Char)
		l.dispatchQuery()

	case event.Resize:
		l.renderer.Resize(e.Rows, e.Cols)

	case event.Match:
		if e.Query == l.query {
			lines := make([]string, len(e.Matches))
			for i, m := range e.Matches {
				lines[i] = m.Line
			}
			l.setDisplayed(lines, false)
			l.renderer.Matches(l.displayed, l.selected)
		}

	case event.KeyDown:
		if l.selected >= 0 && l.selected+1 < len(l.displayed) {
			prev := l.selected
			l.selected++
			l.renderer.SelectionMove(l.displayed, prev, l.selected)
		} else {
			l.renderer.Bell()
		}

	case event.KeyUp:
		if l.selected > 0 {
			prev := l.selected
			l.selected--
			l.renderer.SelectionMove(l.displayed, prev, l.selected)
		} else {
			l.renderer.Bell()
		}

	case event.Clear:
		if l.query == "" {
			l.renderer.Bell()
		} else {
			l.renderer.Clear(utf8.RuneCountInString(l.query))
			l.query = ""
			l.setDisplayed(l.recentList, true)
			l.renderer.Matches(l.displayed, l.selected)
		}

	case event.Backspace:
		if l.query == "" {
			l.renderer.Backspace(true)
		} else {
			l.renderer.Backspace(false)
			_, size := utf8.DecodeLastRuneInString(l.query)
			l.query = l.query[:len(l.query)-size]
			if l.query == "" {
				l.setDisplayed(l.recentList, true)
				l.renderer.Matches(l.displayed, l.selected)
			} else {
				l.dispatchQuery()
			}
		}

	case event.Bell:
		l.renderer.Bell()

	case event.Quit:
		l.success = e.Success
		return true
	}

	return false
}

func (l *Loop) setDisplayed(lines []string, usingRecent bool) {
	l.displayed = lines
	l.usingRecent = usingRecent
	if len(lines) == 0 {
		l.selected = -1
	} else {
		l.selected = 0
	}
}

func (l *Loop) dispatchQuery() {
	if l.base == nil || l.query == "" {
		return
	}
	q := l.query
	base := l.base
	l.pool.Submit(func() {
		results := base.Query(q, fuzzy.MatchNumber)
		l.events <- event.Match{Matches: results, Query: q}
	})
}

func (l *Loop) selectedLine() string {
	if l.selected < 0 || l.selected >= len(l.displayed) {
		return ""
	}
	return l.displayed[l.selected]
}

// shutdown stops the input decoder, waits for it to exit, renders the
// final fragment, and, on a successful exit with a selection, persists
// the completions store and injects the chosen line into the tty.
func (l *Loop) shutdown() {
	l.inputStop.Store(true)
	if err := tty.InjectInput(l.ttyFd, []byte{' '}); err != nil {
		log.Printf("shutdown: wake input decoder: %v", err)
	}
	if l.inputDone != nil {
		l.inputDone.Wait()
	}

	line := l.selectedLine()
	hasSelection := line != ""
	l.renderer.Exit(line, hasSelection, l.usingRecent)
	l.renderer.Flush()

	if !l.success || !hasSelection {
		return
	}

	if l.completions != nil {
		l.completions.AddCompletion(line, l.cwd)
		if err := l.completions.Save(); err != nil {
			log.Printf("completions: save: %v", err)
		}
	}

	if err := tty.InjectInput(l.ttyFd, []byte(line)); err != nil {
		log.Printf("shutdown: inject selected line: %v", err)
	}
}
