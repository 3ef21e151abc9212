package netutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"flood", tele.FloodError{RetryAfter: 1}, 429},
		{"suffix", errors.New("telegram: Forbidden: bot was blocked by the user (403)"), 403},
		{"wrapped suffix", fmt.Errorf("send: %w", errors.New("telegram: Bad Request: chat not found (400)")), 400},
		{"no code", errors.New("connection reset"), 0},
		{"not a status", errors.New("retry (later)"), 0},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("%s: StatusCode = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{dialErr, "dial"},
		{errors.New("telegram: Internal Server Error (502)"), "http_5xx"},
		{errors.New("telegram: Bad Request (400)"), "http_4xx"},
		{errors.New("odd"), "unknown"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRedact(t *testing.T) {
	msg := `Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": EOF`
	want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`
	if got := Redact(msg); got != want {
		t.Fatalf("Redact = %q, want %q", got, want)
	}
}
