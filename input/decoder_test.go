package input

import (
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kir-gadjello/bhist/internal/event"
)

func drain(t *testing.T, in string) []event.Event {
	t.Helper()
	out := make(chan event.Event, 32)
	d := New(strings.NewReader(in), out)

	var stop atomic.Bool
	d.Run(&stop)
	close(out)

	var got []event.Event
	for ev := range out {
		got = append(got, ev)
	}
	return got
}

func TestPlainCharactersEmitInput(t *testing.T) {
	got := drain(t, "ab")
	if len(got) < 2 {
		t.Fatalf("expected at least 2 events, got %#v", got)
	}
	for i, want := range []rune{'a', 'b'} {
		in, ok := got[i].(event.Input)
		if !ok || in.Char != want {
			t.Fatalf("event %d = %#v, want Input(%q)", i, got[i], want)
		}
	}
}

func TestUpArrowEscapeSequence(t *testing.T) {
	got := drain(t, "\x1b[A")
	if len(got) == 0 {
		t.Fatal("expected at least one event")
	}
	if _, ok := got[0].(event.KeyUp); !ok {
		t.Fatalf("first event = %#v, want KeyUp", got[0])
	}
}

func TestDownArrowEscapeSequence(t *testing.T) {
	got := drain(t, "\x1b[B")
	if _, ok := got[0].(event.KeyDown); !ok {
		t.Fatalf("first event = %#v, want KeyDown", got[0])
	}
}

func TestUnmatchedEscapeRingsBellThenEmitsChar(t *testing.T) {
	got := drain(t, "\x1bX")
	if len(got) < 2 {
		t.Fatalf("expected bell + input, got %#v", got)
	}
	if _, ok := got[0].(event.Bell); !ok {
		t.Fatalf("first event = %#v, want Bell", got[0])
	}
	in, ok := got[1].(event.Input)
	if !ok || in.Char != 'X' {
		t.Fatalf("second event = %#v, want Input('X')", got[1])
	}
}

func TestCtrlUEmitsClear(t *testing.T) {
	got := drain(t, "\x15")
	if _, ok := got[0].(event.Clear); !ok {
		t.Fatalf("got %#v, want Clear", got[0])
	}
}

func TestCtrlRMeansKeyDown(t *testing.T) {
	got := drain(t, "\x12")
	if _, ok := got[0].(event.KeyDown); !ok {
		t.Fatalf("got %#v, want KeyDown", got[0])
	}
}

func TestCtrlSMeansKeyUp(t *testing.T) {
	got := drain(t, "\x13")
	if _, ok := got[0].(event.KeyUp); !ok {
		t.Fatalf("got %#v, want KeyUp", got[0])
	}
}

func TestEnterQuitsWithSuccess(t *testing.T) {
	got := drain(t, "\r")
	q, ok := got[0].(event.Quit)
	if !ok || !q.Success {
		t.Fatalf("got %#v, want Quit{Success: true}", got[0])
	}
	if len(got) != 1 {
		t.Fatalf("decoder should stop after quitting, got %#v", got)
	}
}

func TestCtrlCQuitsWithoutSuccess(t *testing.T) {
	got := drain(t, "\x03")
	q, ok := got[0].(event.Quit)
	if !ok || q.Success {
		t.Fatalf("got %#v, want Quit{Success: false}", got[0])
	}
}

func TestBackspaceKey(t *testing.T) {
	got := drain(t, "\x7f")
	if _, ok := got[0].(event.Backspace); !ok {
		t.Fatalf("got %#v, want Backspace", got[0])
	}
}

func TestMultiByteUTF8Character(t *testing.T) {
	got := drain(t, "é")
	in, ok := got[0].(event.Input)
	if !ok || in.Char != 'é' {
		t.Fatalf("got %#v, want Input('é')", got[0])
	}
}

func TestEOFTerminatesWithQuitFalse(t *testing.T) {
	got := drain(t, "")
	if len(got) != 1 {
		t.Fatalf("expected exactly one event on empty input, got %#v", got)
	}
	q, ok := got[0].(event.Quit)
	if !ok || q.Success {
		t.Fatalf("got %#v, want Quit{Success: false}", got[0])
	}
}
