// Package store implements the persistent completions store: a mapping
// from a history line to the directories it was chosen from, used to bias
// ranking toward lines previously run in the current working directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kir-gadjello/bhist/internal/bherr"
)

// completionScoreFactor scales the raw path-affinity sum into a bias
// comparable in magnitude to the scoring engine's heat-weighted scores.
const completionScoreFactor = 10.0

// entry is one (directory, weight) record for a line.
type entry struct {
	Path   string
	Weight float64
}

// MarshalJSON renders an entry as a ["path", weight] pair, the on-disk
// shape expected by the persisted completions file.
func (e entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Path, e.Weight})
}

func (e *entry) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Path); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Weight)
}

// Completions is the shared map from line to its recorded directory
// weights. It is safe for concurrent use: the history loader reads it
// while building recency factors, and the event loop writes to it once at
// shutdown.
type Completions struct {
	mu      sync.Mutex
	entries map[string][]entry

	path     string
	existed  bool // a file existed at the load path
	loadedOK bool // the load, if any, parsed successfully
}

// New returns an empty, unbacked Completions store.
func New() *Completions {
	return &Completions{entries: make(map[string][]entry)}
}

// Load reads the JSON completions file at path. A missing file yields an
// empty store with no error. A corrupt file yields ErrCompletionsCorrupt
// and an empty store; the original file is left untouched by a later Save
// (see DESIGN.md's Open Question resolution).
func Load(path string) (*Completions, error) {
	c := New()
	c.path = path

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read completions file: %w", err)
	}
	c.existed = true

	var doc map[string][]entry
	if err := json.Unmarshal(raw, &doc); err != nil {
		return c, fmt.Errorf("%w: %v", bherr.ErrCompletionsCorrupt, err)
	}

	c.entries = doc
	c.loadedOK = true
	return c, nil
}

// GetScore returns the path-affinity boost for line at the given
// directory: the sum, over every stored (scorePath, weight) pair for
// line, of max(0, 2*commonPrefixComponents - components(path)) * weight,
// scaled by completionScoreFactor.
func (c *Completions) GetScore(line, path string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	pComponents := splitComponents(path)
	p := len(pComponents)

	var sum float64
	for _, e := range c.entries[line] {
		b := commonPrefixLen(pComponents, splitComponents(e.Path))
		boost := 2*b - p
		if boost > 0 {
			sum += float64(boost) * e.Weight
		}
	}

	return sum * completionScoreFactor
}

// AddCompletion records that line was chosen while cwd was path, bumping
// an existing (line, path) entry's weight by one or appending a new entry
// with weight one.
func (c *Completions) AddCompletion(line, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries[line] {
		if e.Path == path {
			c.entries[line][i].Weight++
			return
		}
	}
	c.entries[line] = append(c.entries[line], entry{Path: path, Weight: 1.0})
}

// Save writes the store to its backing path, best-effort. It acquires the
// internal mutex non-blockingly: if a concurrent reader (the history
// loader) still holds it, Save returns immediately without writing rather
// than blocking process exit.
//
// If the file previously existed but failed to parse on Load, Save is a
// no-op: we never overwrite a possibly-recoverable corrupt file with an
// empty store.
func (c *Completions) Save() error {
	if c.existed && !c.loadedOK {
		return nil
	}

	if !c.mu.TryLock() {
		return nil
	}
	defer c.mu.Unlock()

	if c.path == "" {
		return nil
	}

	raw, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal completions: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create completions dir: %w", err)
		}
	}

	return os.WriteFile(c.path, raw, 0o600)
}

func splitComponents(path string) []string {
	path = strings.Trim(path, string(filepath.Separator))
	if path == "" {
		return nil
	}
	return strings.Split(path, string(filepath.Separator))
}

func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
