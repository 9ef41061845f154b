package loop

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kir-gadjello/bhist/render"
)

// settleDelay is how long each subtest waits after a keystroke before
// sending the next one, giving the completions/history/search pipeline
// and the worker pool time to land a ranked Match before a later
// keystroke (notably LF) ends the loop. The event loop has no externally
// observable "query settled" signal, so this is the one place this suite
// relies on wall-clock timing rather than channel synchronization.
const settleDelay = 30 * time.Millisecond

// driveLoop wires a Loop to a temp history file (and, if completionsJSON
// is non-empty, a temp completions file), feeds keys one byte at a time
// through a pipe standing in for the tty, and returns the final Loop (for
// inspecting post-exit state) and Result.
func driveLoop(t *testing.T, histLines []string, completionsJSON, cwd, keys string) (*Loop, Result, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	histPath := filepath.Join(dir, "bash_history")
	if err := os.WriteFile(histPath, []byte(strings.Join(histLines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write history file: %v", err)
	}

	completionsPath := filepath.Join(dir, "completions.json")
	if completionsJSON != "" {
		if err := os.WriteFile(completionsPath, []byte(completionsJSON), 0o644); err != nil {
			t.Fatalf("write completions file: %v", err)
		}
	}

	var buf bytes.Buffer
	rdr := render.New(&buf, testDB(), 24, 80)
	l := New(-1, rdr, histPath, completionsPath, cwd)

	r, w := io.Pipe()
	done := make(chan Result, 1)
	go func() { done <- l.RunWith(r, false) }()

	for i := 0; i < len(keys); i++ {
		if _, err := w.Write([]byte{keys[i]}); err != nil {
			t.Fatalf("write key %d: %v", i, err)
		}
		time.Sleep(settleDelay)
	}

	return l, <-done, &buf
}

// TestEndToEndScenarios drives a fake terminal and fake on-disk history
// through the event loop's full wiring (decoder, history/completions
// loaders, worker pool, renderer) rather than exercising handle() in
// isolation, covering the literal input/history combinations the rest of
// this package's invariant tests don't reach on their own.
func TestEndToEndScenarios(t *testing.T) {
	t.Run("typed query selects the highest-ranked match", func(t *testing.T) {
		l, result, _ := driveLoop(t, []string{"echo a", "ls", "echo b"}, "", "/tmp", "e\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "echo b" {
			t.Fatalf("selected line = %q, want %q", result.Line, "echo b")
		}
		if len(l.displayed) != 2 || l.displayed[0] != "echo b" || l.displayed[1] != "echo a" {
			t.Fatalf("displayed = %v, want [echo b echo a]", l.displayed)
		}
	})

	t.Run("empty history quits with no selection", func(t *testing.T) {
		l, result, _ := driveLoop(t, nil, "", "/tmp", "\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "" {
			t.Fatalf("line = %q, want empty", result.Line)
		}
		if len(l.displayed) != 0 {
			t.Fatalf("displayed = %v, want empty", l.displayed)
		}
	})

	t.Run("duplicate history lines are deduped in matches", func(t *testing.T) {
		l, result, _ := driveLoop(t, []string{"grep foo", "grep bar", "grep foo"}, "", "/tmp", "gf\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "grep foo" {
			t.Fatalf("selected line = %q, want %q", result.Line, "grep foo")
		}
		if len(l.displayed) != 1 {
			t.Fatalf("displayed = %v, want exactly one deduped match", l.displayed)
		}
	})

	t.Run("Ctrl-U resets to the empty recent list before quitting", func(t *testing.T) {
		l, result, _ := driveLoop(t, nil, "", "/tmp", "x\x15\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "" {
			t.Fatalf("line = %q, want empty after Ctrl-U cleared the query", result.Line)
		}
		if l.query != "" {
			t.Fatalf("query = %q, want empty", l.query)
		}
	})

	t.Run("KeyDown at the last match rings the bell without moving selection", func(t *testing.T) {
		l, result, buf := driveLoop(t, []string{"ls"}, "", "/tmp", "l\x12\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "ls" {
			t.Fatalf("selected line = %q, want %q", result.Line, "ls")
		}
		if l.selected != 0 {
			t.Fatalf("selected index = %d, want 0 (unmoved)", l.selected)
		}
		if !bytes.ContainsRune(buf.Bytes(), 0x07) {
			t.Fatal("expected a bell byte in the rendered output")
		}
	})

	t.Run("a completion record breaks a score tie over recency", func(t *testing.T) {
		completionsJSON := `{"make test": [["/proj", 1.0]]}`
		l, result, _ := driveLoop(t, []string{"make test", "make rest"}, completionsJSON, "/proj", "make\n")

		if !result.Success {
			t.Fatal("expected a successful exit")
		}
		if result.Line != "make test" {
			t.Fatalf("selected line = %q, want %q (boosted by its completion record)", result.Line, "make test")
		}
		if len(l.displayed) != 2 || l.displayed[0] != "make test" {
			t.Fatalf("displayed = %v, want make test ranked first", l.displayed)
		}
	})
}
