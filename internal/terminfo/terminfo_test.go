package terminfo

import "testing"

func TestExpandLiteralPercent(t *testing.T) {
	got := Expand([]byte("100%%"))
	if string(got) != "100%" {
		t.Fatalf("got %q, want %q", got, "100%")
	}
}

func TestExpandPushParamThenPrint(t *testing.T) {
	got := Expand([]byte("\x1b[%p1%dA"), 5)
	want := "\x1b[5A"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandMultipleParams(t *testing.T) {
	got := Expand([]byte("%p2%d;%p1%d"), 3, 7)
	want := "7;3"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandUnknownSequenceIsDropped(t *testing.T) {
	got := Expand([]byte("a%xb"))
	if string(got) != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func TestExpandDPopOnEmptyStackIsNoop(t *testing.T) {
	got := Expand([]byte("x%dy"))
	if string(got) != "xy" {
		t.Fatalf("got %q, want %q", got, "xy")
	}
}

func TestExpandPassesThroughPlainText(t *testing.T) {
	got := Expand([]byte("no params here"))
	if string(got) != "no params here" {
		t.Fatalf("got %q", got)
	}
}
