// Package reveal shows protected content for a bounded time: the message is
// refreshed in place with the remaining time and removed when it runs out.
package reveal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/tracing"
	"github.com/gogermany/gobot/internal/jobs"
	"github.com/gogermany/gobot/internal/transport"
)

const (
	component = "svc.reveal"

	DefaultDuration = 60 * time.Second
	DefaultTick     = 10 * time.Second

	cleanupTimeout = 5 * time.Second
)

// Outcome is how a countdown ended.
type Outcome int

const (
	// Expired: the message was deleted and a fresh notice was sent.
	Expired Outcome = iota + 1
	// ExpiredEdited: deletion failed and the message was edited to the expired text.
	ExpiredEdited
	// Aborted: an in-place refresh failed, the countdown stopped early.
	Aborted
	// Cancelled: the context was cancelled at a sleep boundary.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Expired:
		return "expired"
	case ExpiredEdited:
		return "expired_edited"
	case Aborted:
		return "aborted"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Content renders the messages of one reveal.
type Content struct {
	// Countdown renders the revealed message with the remaining time.
	Countdown func(remaining time.Duration) transport.Message
	// Expired replaces the message when it cannot be deleted.
	Expired transport.Message
	// Notice is sent as a new message after a successful delete.
	Notice transport.Message
}

// Report summarizes a finished countdown.
type Report struct {
	Outcome Outcome
	Edits   int
}

// Option customizes a Timer.
type Option func(*Timer)

// WithSleep replaces the sleep function, mostly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Timer) {
		if sleep != nil {
			t.sleep = sleep
		}
	}
}

// Timer runs countdowns. It holds no per-reveal state, so one Timer serves
// any number of concurrent reveals.
type Timer struct {
	messenger transport.Messenger
	duration  time.Duration
	tick      time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewTimer builds a Timer; non-positive durations fall back to the defaults.
func NewTimer(m transport.Messenger, duration, tick time.Duration, opts ...Option) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	t := &Timer{messenger: m, duration: duration, tick: tick, sleep: jobs.Sleep}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Duration returns the total display time.
func (t *Timer) Duration() time.Duration { return t.duration }

// Reveal sends the protected message showing the full duration.
func (t *Timer) Reveal(ctx context.Context, chatID int64, content Content) (transport.Ref, error) {
	ref, err := t.messenger.Send(ctx, chatID, content.Countdown(t.duration))
	if err != nil {
		return transport.Ref{}, fmt.Errorf("reveal: send: %w", err)
	}
	logger.Info(ctx, component, "reveal.started",
		slog.Int64("chat_id", chatID),
		slog.Int("message_id", ref.MessageID),
		slog.Int("remaining_s", int(t.duration/time.Second)),
	)
	return ref, nil
}

// Run counts down from the full duration, refreshing ref after every tick
// while time remains and removing it at zero. A final tick shorter than the
// configured one is used when the tick does not divide the duration.
func (t *Timer) Run(ctx context.Context, ref transport.Ref, content Content) Report {
	ctx, span := tracing.Start(ctx, "reveal.countdown",
		attribute.Int64("chat_id", ref.ChatID),
		attribute.Int("message_id", ref.MessageID),
	)
	rep := t.run(ctx, ref, content)
	span.SetAttributes(
		attribute.String("outcome", rep.Outcome.String()),
		attribute.Int("edits", rep.Edits),
	)
	tracing.End(span, nil)

	logger.Info(ctx, component, "reveal.finished",
		slog.Int64("chat_id", ref.ChatID),
		slog.Int("message_id", ref.MessageID),
		slog.String("outcome", rep.Outcome.String()),
		slog.Int("edits", rep.Edits),
	)
	return rep
}

func (t *Timer) run(ctx context.Context, ref transport.Ref, content Content) Report {
	var rep Report
	remaining := t.duration
	for remaining > 0 {
		step := min(t.tick, remaining)
		if err := t.sleep(ctx, step); err != nil {
			t.cleanup(ctx, ref)
			rep.Outcome = Cancelled
			return rep
		}
		remaining -= step
		if remaining <= 0 {
			break
		}

		err := t.messenger.Edit(ctx, ref, content.Countdown(remaining))
		rep.Edits++
		switch {
		case err == nil:
		case transport.IsNotModified(err):
			logger.Debug(ctx, component, "reveal.unchanged",
				slog.Int("message_id", ref.MessageID),
				slog.Int("remaining_s", int(remaining/time.Second)),
			)
		default:
			logger.Warn(ctx, component, "reveal.edit_failed",
				slog.Int("message_id", ref.MessageID),
				slog.Int("remaining_s", int(remaining/time.Second)),
				slog.String("err", err.Error()),
			)
			rep.Outcome = Aborted
			return rep
		}
	}

	if err := t.messenger.Delete(ctx, ref); err != nil {
		logger.Warn(ctx, component, "reveal.delete_failed",
			slog.Int("message_id", ref.MessageID),
			slog.String("err", err.Error()),
		)
		if err := t.messenger.Edit(ctx, ref, content.Expired); err != nil {
			logger.Warn(ctx, component, "reveal.expire_edit_failed",
				slog.Int("message_id", ref.MessageID),
				slog.String("err", err.Error()),
			)
		}
		rep.Outcome = ExpiredEdited
		return rep
	}
	if _, err := t.messenger.Send(ctx, ref.ChatID, content.Notice); err != nil {
		logger.Warn(ctx, component, "reveal.notice_failed",
			slog.Int64("chat_id", ref.ChatID),
			slog.String("err", err.Error()),
		)
	}
	rep.Outcome = Expired
	return rep
}

// cleanup removes the revealed message after cancellation so the link does
// not outlive the process.
func (t *Timer) cleanup(ctx context.Context, ref transport.Ref) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := t.messenger.Delete(cctx, ref); err != nil {
		logger.Warn(ctx, component, "reveal.cleanup_failed",
			slog.Int("message_id", ref.MessageID),
			slog.String("err", err.Error()),
		)
	}
}
