package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

var dialErr = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func fastRetry(attempts int) Retry {
	return Retry{Attempts: attempts, MinInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"dial", dialErr, true},
		{"wrapped dial", fmt.Errorf("send: %w", dialErr), true},
		{"url dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dialErr}, true},
		{"flood", tele.FloodError{RetryAfter: 3}, true},
	}
	for _, tc := range cases {
		if got := Transient(tc.err); got != tc.want {
			t.Fatalf("%s: Transient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFloodWaitIsCapped(t *testing.T) {
	if got := FloodWait(tele.FloodError{RetryAfter: 2}); got != 2*time.Second {
		t.Fatalf("FloodWait = %v", got)
	}
	if got := FloodWait(tele.FloodError{RetryAfter: 3600}); got != maxFloodWait {
		t.Fatalf("FloodWait = %v, want cap %v", got, maxFloodWait)
	}
	if got := FloodWait(dialErr); got != 0 {
		t.Fatalf("FloodWait(dial) = %v", got)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	n, err := fastRetry(5).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return dialErr
		}
		return nil
	})
	if err != nil || n != 3 || calls != 3 {
		t.Fatalf("Do = (%d, %v), calls %d", n, err, calls)
	}
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	n, err := fastRetry(3).Do(context.Background(), func() error {
		calls++
		return dialErr
	})
	if !errors.Is(err, dialErr) || n != 3 || calls != 3 {
		t.Fatalf("Do = (%d, %v), calls %d", n, err, calls)
	}
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	boom := errors.New("chat not found")
	calls := 0
	n, err := fastRetry(4).Do(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || n != 1 || calls != 1 {
		t.Fatalf("Do = (%d, %v), calls %d", n, err, calls)
	}
}

func TestRetrySingleAttempt(t *testing.T) {
	n, err := Retry{}.Do(context.Background(), func() error { return dialErr })
	if n != 1 || !errors.Is(err, dialErr) {
		t.Fatalf("Do = (%d, %v)", n, err)
	}
}

func TestRetryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry{Attempts: 10, MinInterval: time.Hour}.Do(ctx, func() error {
		calls++
		cancel()
		return dialErr
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, dialErr) {
		t.Fatalf("err = %v", err)
	}
}
