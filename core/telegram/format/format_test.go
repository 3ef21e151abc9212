package format

import (
	"testing"
	"time"
)

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("john_doe *bold* [x] `code`", MarkdownV1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "john\\_doe \\*bold\\* \\[x] \\`code\\`"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("a.b-c!", MarkdownV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a\\.b\\-c\\!" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMDLeavesPlainText(t *testing.T) {
	if got := MD("JOHN DOE"); got != "JOHN DOE" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestDeref(t *testing.T) {
	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := Deref(&ts, time.Time{}); !got.Equal(ts) {
		t.Fatalf("unexpected %v", got)
	}
	if got := Deref[time.Time](nil, time.Time{}); !got.IsZero() {
		t.Fatalf("expected zero time")
	}
}

func TestEscapeMarkdownV2Backslash(t *testing.T) {
	got, err := EscapeMarkdown(`a\b`, MarkdownV2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `a\\b` {
		t.Fatalf("unexpected %q", got)
	}
}
