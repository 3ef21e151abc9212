// Package jobs runs the bot's long-lived background work (broadcasts,
// reveal countdowns) so it can be cancelled and awaited on shutdown.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gogermany/gobot/core/logger"
)

const component = "jobs"

// Group owns a set of background jobs sharing one cancellation signal.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{ctx: ctx, cancel: cancel}
}

// Go starts fn in the background. The job context keeps the values of
// parent (request id, trace) but is cancelled only when the group stops.
func (g *Group) Go(parent context.Context, name string, fn func(ctx context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("jobs: group stopped, %s not started", name)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(g.ctx, cancel)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer cancel()
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, component, "job.panic",
					slog.String("job", name),
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		start := time.Now()
		fn(ctx)
		logger.Debug(ctx, component, "job.done",
			slog.String("job", name),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}()
	return nil
}

// Stop cancels running jobs and waits for them until ctx is done.
func (g *Group) Stop(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.cancel()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs: stop: %w", ctx.Err())
	}
}

// Sleep waits for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
