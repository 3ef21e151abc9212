package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseRatio(t *testing.T) {
	cases := []struct {
		in          string
		keep, every int
	}{
		{"", 1, 50},
		{"off", 0, 0},
		{"0", 0, 0},
		{"10", 1, 10},
		{"3/4", 3, 4},
		{"9/4", 4, 4},
		{"x/4", 1, 50},
		{"junk", 1, 50},
	}
	for _, tc := range cases {
		keep, every := parseRatio(tc.in)
		if keep != tc.keep || every != tc.every {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", tc.in, keep, every, tc.keep, tc.every)
		}
	}
}

func TestSamplerRatio(t *testing.T) {
	s := &sampler{}
	s.Set(2, 5)
	allowed := 0
	for range 50 {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 20 {
		t.Fatalf("allowed = %d, want 20", allowed)
	}

	s.Set(0, 0)
	for range 5 {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestPickFormat(t *testing.T) {
	orig := stdoutIsTerminal
	t.Cleanup(func() { stdoutIsTerminal = orig })

	stdoutIsTerminal = func() bool { return false }
	if got := pickFormat("", "prod"); got != formatJSON {
		t.Fatalf("pipe default = %s, want json", got)
	}
	if got := pickFormat("", "dev"); got != formatKV {
		t.Fatalf("dev profile = %s, want kv", got)
	}
	if got := pickFormat("text", "prod"); got != formatKV {
		t.Fatalf("explicit text = %s, want kv", got)
	}

	stdoutIsTerminal = func() bool { return true }
	if got := pickFormat("", "prod"); got != formatKV {
		t.Fatalf("terminal default = %s, want kv", got)
	}
	if got := pickFormat("json", "dev"); got != formatJSON {
		t.Fatalf("explicit json = %s, want json", got)
	}
}

func TestParseKeyOrder(t *testing.T) {
	if got := parseKeyOrder(" ts, level ,,event "); strings.Join(got, ",") != "ts,level,event" {
		t.Fatalf("parseKeyOrder = %v", got)
	}
	if got := parseKeyOrder("default"); len(got) != len(defaultKeyOrder) {
		t.Fatalf("default order len = %d", len(got))
	}
}

func TestHelpersWithoutInitAreNoops(t *testing.T) {
	orig := L
	t.Cleanup(func() { L = orig })
	L = nil
	Info(Background(), "app", "nothing")
	Error(Background(), "app", "nothing", slog.String("err", "x"))
}

func TestHelpersAddComponentAndEvent(t *testing.T) {
	orig := L
	t.Cleanup(func() { L = orig })

	buf := &bytes.Buffer{}
	aw := newAsyncWriter(buf, 4)
	L = slog.New(newStructuredHandler(handlerConfig{level: slog.LevelInfo, writer: aw, format: formatKV}))

	Warn(WithHandler(Background(), "menu"), "bot", "menu.unknown", slog.String("payload", "x"))
	Debug(Background(), "bot", "hidden")
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	for _, part := range []string{"level=WARN", "component=bot", "event=menu.unknown", "handler=menu", "payload=x"} {
		if !strings.Contains(line, part) {
			t.Fatalf("missing %s in %s", part, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line leaked: %s", line)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	aw := newAsyncWriter(&bytes.Buffer{}, 1)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := aw.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close = %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bcдеф", 5); got != "abcде" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("tab\tok", 0); got != "" {
		t.Fatalf("zero limit = %q", got)
	}
}
