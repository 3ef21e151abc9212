package helpers

import (
	"context"
	"sync/atomic"
)

type countersKey struct{}

// Counters tracks the replies produced while one update is handled.
type Counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// Snapshot returns the message count and whether any reply carried a keyboard.
func (c *Counters) Snapshot() (int, bool) {
	if c == nil {
		return 0, false
	}
	return int(c.messages.Load()), c.keyboard.Load()
}

// WithCounters attaches fresh counters to ctx.
func WithCounters(ctx context.Context) (context.Context, *Counters) {
	c := &Counters{}
	return context.WithValue(ctx, countersKey{}, c), c
}

// CountersFrom returns the counters attached by WithCounters, or nil.
func CountersFrom(ctx context.Context) *Counters {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(countersKey{}).(*Counters)
	return c
}

// CountMessage records one outgoing message for the update behind ctx.
func CountMessage(ctx context.Context, keyboard bool) {
	c := CountersFrom(ctx)
	if c == nil {
		return
	}
	c.messages.Add(1)
	if keyboard {
		c.keyboard.Store(true)
	}
}
