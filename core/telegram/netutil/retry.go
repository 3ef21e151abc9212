// Package netutil decides which Telegram API failures are transient and
// retries them under an exponential backoff policy.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/lestrrat-go/backoff/v2"
	tele "gopkg.in/telebot.v4"
)

// maxFloodWait caps how long a single 429 response may pause a caller.
const maxFloodWait = 30 * time.Second

// Transient reports whether err is worth retrying: network timeouts, dial
// failures and Telegram flood control.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if FloodWait(err) > 0 {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Timeout() || opErr.Op == "dial") {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return Transient(urlErr.Err)
		}
	}
	return false
}

// FloodWait returns the pause Telegram requested with a 429, or 0.
func FloodWait(err error) time.Duration {
	var flood tele.FloodError
	if !errors.As(err, &flood) || flood.RetryAfter <= 0 {
		return 0
	}
	return min(time.Duration(flood.RetryAfter)*time.Second, maxFloodWait)
}

// Retry describes how often and how patiently a call is retried.
type Retry struct {
	// Attempts is the total number of calls, including the first one.
	Attempts    int
	MinInterval time.Duration
	MaxInterval time.Duration
}

func (r Retry) policy() backoff.Policy {
	if r.Attempts <= 1 {
		return backoff.Null()
	}
	minInterval := r.MinInterval
	if minInterval <= 0 {
		minInterval = time.Second
	}
	maxInterval := r.MaxInterval
	if maxInterval < minInterval {
		maxInterval = minInterval
	}
	return backoff.Exponential(
		backoff.WithMinInterval(minInterval),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithJitterFactor(0.1),
		backoff.WithMaxRetries(0),
	)
}

// Do calls fn until it succeeds, fails permanently, runs out of attempts
// or ctx ends. It returns the number of calls made and the last error.
// Flood errors pause for the requested time before the next attempt.
func (r Retry) Do(ctx context.Context, fn func() error) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	attempts := max(r.Attempts, 1)
	ctrl := r.policy().Start(ctx)

	var (
		calls   int
		lastErr error
	)
	for backoff.Continue(ctrl) {
		calls++
		lastErr = fn()
		if lastErr == nil || !Transient(lastErr) || calls >= attempts {
			return calls, lastErr
		}
		if wait := FloodWait(lastErr); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return calls, lastErr
			}
		}
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return calls, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
