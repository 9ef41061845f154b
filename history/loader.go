// Package history streams a shell history file into a fuzzy.SearchBase,
// biasing each line's rank by recency and, when a completions store is
// available, by how often it was previously chosen from the current
// working directory.
package history

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kir-gadjello/bhist/fuzzy"
	"github.com/kir-gadjello/bhist/internal/bherr"
	"github.com/kir-gadjello/bhist/internal/event"
	"github.com/kir-gadjello/bhist/internal/recent"
	"github.com/kir-gadjello/bhist/store"
)

const recentCap = 10

// ResolvePath returns $HISTFILE if set, else $HOME/.bash_history.
func ResolvePath() string {
	if h := os.Getenv("HISTFILE"); h != "" {
		return h
	}
	return filepath.Join(os.Getenv("HOME"), ".bash_history")
}

// Load streams path line by line, builds a fuzzy.SearchBase biased by
// recency and completions affinity, and sends HistoryReady followed by
// SearchReady on out. If path cannot be opened, it sends nothing and
// returns a wrapped bherr.ErrHistoryMissing; the event loop is expected
// to carry on with an empty search.
func Load(path string, completions *store.Completions, cwd string, out chan<- event.Event) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", bherr.ErrHistoryMissing, err)
	}
	defer f.Close()

	lines := make(map[string]*fuzzy.LineInfo)
	order := make([]string, 0, 1024)
	recentList := recent.New(recentCap)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var counter float64
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		li, ok := lines[line]
		if !ok {
			li = fuzzy.NewLineInfo(line, 0)
			lines[line] = li
			order = append(order, line)
		}

		li.Factor += counter
		counter++

		if completions != nil && cwd != "" {
			li.Factor += completions.GetScore(line, cwd)
		}

		recentList.Push(line)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("history: stopped reading %s early: %v", path, err)
	}

	out <- event.HistoryReady{Recent: recentList.Reversed()}

	base := make([]*fuzzy.LineInfo, 0, len(order))
	for _, line := range order {
		base = append(base, lines[line])
	}
	out <- event.SearchReady{Base: fuzzy.NewSearchBase(base)}

	return nil
}
