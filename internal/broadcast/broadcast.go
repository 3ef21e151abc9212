// Package broadcast fans one message out to every recipient, one at a time,
// with a fixed delay between deliveries.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/tracing"
	"github.com/gogermany/gobot/internal/jobs"
	"github.com/gogermany/gobot/internal/transport"
)

const (
	component = "svc.broadcast"

	DefaultDelay         = 50 * time.Millisecond
	DefaultProgressEvery = 50
)

// Summary holds cumulative delivery counters.
type Summary struct {
	ID      string
	Total   int
	Success int
	Failed  int
	Blocked int
}

// Progress is reported every N recipients.
type Progress struct {
	Summary
	Current int
}

// ProgressFunc receives progress checkpoints. It runs on the broadcast
// goroutine; slow callbacks slow the broadcast down.
type ProgressFunc func(ctx context.Context, p Progress)

// Option customizes an Engine.
type Option func(*Engine)

// WithSleep replaces the delay function, mostly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithBlockedClassifier overrides how delivery errors are recognized as blocked.
func WithBlockedClassifier(fn func(error) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.isBlocked = fn
		}
	}
}

// Engine delivers broadcasts through a Copier.
type Engine struct {
	copier        transport.Copier
	delay         time.Duration
	progressEvery int
	sleep         func(ctx context.Context, d time.Duration) error
	isBlocked     func(error) bool
}

// NewEngine builds an Engine. A negative delay or non-positive cadence
// falls back to the defaults.
func NewEngine(copier transport.Copier, delay time.Duration, progressEvery int, opts ...Option) *Engine {
	if delay < 0 {
		delay = DefaultDelay
	}
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}
	e := &Engine{
		copier:        copier,
		delay:         delay,
		progressEvery: progressEvery,
		sleep:         jobs.Sleep,
		isBlocked:     transport.IsBlocked,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Broadcast copies source to every recipient in order. Per-recipient
// failures are counted and never stop the run. If ctx is cancelled the
// counts computed so far are returned together with the context error.
func (e *Engine) Broadcast(ctx context.Context, source transport.Ref, recipients []int64, onProgress ProgressFunc) (Summary, error) {
	sum := Summary{ID: uuid.NewString(), Total: len(recipients)}
	ctx, span := tracing.Start(ctx, "broadcast.run",
		attribute.String("broadcast_id", sum.ID),
		attribute.Int("total", sum.Total),
	)
	start := time.Now()
	logger.Info(ctx, component, "broadcast.started",
		slog.String("broadcast_id", sum.ID),
		slog.Int64("chat_id", source.ChatID),
		slog.Int("message_id", source.MessageID),
		slog.Int("total", sum.Total),
	)

	var runErr error
	for i, id := range recipients {
		e.deliver(ctx, &sum, source, id)

		current := i + 1
		if onProgress != nil && current%e.progressEvery == 0 {
			onProgress(ctx, Progress{Summary: sum, Current: current})
		}
		if err := e.sleep(ctx, e.delay); err != nil {
			runErr = err
			break
		}
	}

	span.SetAttributes(
		attribute.Int("success", sum.Success),
		attribute.Int("failed", sum.Failed),
		attribute.Int("blocked", sum.Blocked),
	)
	tracing.End(span, runErr)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(runErr)),
		slog.String("broadcast_id", sum.ID),
		slog.Int("total", sum.Total),
		slog.Int("success", sum.Success),
		slog.Int("failed", sum.Failed),
		slog.Int("blocked", sum.Blocked),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if runErr != nil {
		attrs = append(attrs, slog.String("err", runErr.Error()))
	}
	logger.Info(ctx, component, "broadcast.done", attrs...)
	return sum, runErr
}

func (e *Engine) deliver(ctx context.Context, sum *Summary, source transport.Ref, recipient int64) {
	err := e.copier.Copy(ctx, recipient, source)
	switch {
	case err == nil:
		sum.Success++
	case e.isBlocked(err):
		sum.Blocked++
		logger.Debug(ctx, component, "broadcast.blocked",
			slog.String("broadcast_id", sum.ID),
			slog.Int64("recipient_id", recipient),
		)
	default:
		sum.Failed++
		logger.Warn(ctx, component, "broadcast.delivery_failed",
			slog.String("broadcast_id", sum.ID),
			slog.Int64("recipient_id", recipient),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
