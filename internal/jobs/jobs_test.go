package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ridKey struct{}

func TestStopCancelsJobsAndKeepsValues(t *testing.T) {
	g := NewGroup()
	parent, cancelParent := context.WithCancel(context.WithValue(context.Background(), ridKey{}, "rid-1"))
	cancelParent()

	started := make(chan struct{})
	var seen atomic.Value
	var cancelled atomic.Bool
	require.NoError(t, g.Go(parent, "wait", func(ctx context.Context) {
		seen.Store(ctx.Value(ridKey{}))
		close(started)
		if err := Sleep(ctx, time.Hour); err != nil {
			cancelled.Store(true)
		}
	}))

	<-started
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Stop(stopCtx))
	assert.True(t, cancelled.Load())
	assert.Equal(t, "rid-1", seen.Load())

	assert.Error(t, g.Go(context.Background(), "late", func(context.Context) {}))
}

func TestPanicIsContained(t *testing.T) {
	g := NewGroup()
	require.NoError(t, g.Go(context.Background(), "boom", func(context.Context) { panic("boom") }))
	require.NoError(t, g.Stop(context.Background()))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
