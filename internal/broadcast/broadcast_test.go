package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogermany/gobot/internal/transport"
)

type fakeCopier struct {
	errs   map[int64]error
	copied []int64
}

func (f *fakeCopier) Copy(_ context.Context, to int64, _ transport.Ref) error {
	f.copied = append(f.copied, to)
	return f.errs[to]
}

func noSleep(context.Context, time.Duration) error { return nil }

var source = transport.Ref{ChatID: 1, MessageID: 99}

func TestBroadcastClassifiesOutcomes(t *testing.T) {
	copier := &fakeCopier{errs: map[int64]error{
		20: errors.New("telegram: Forbidden: bot was blocked by the user (403)"),
	}}
	var delays []time.Duration
	e := NewEngine(copier, 50*time.Millisecond, 50, WithSleep(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))

	sum, err := e.Broadcast(context.Background(), source, []int64{10, 20, 30}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 1, sum.Blocked)
	assert.NotEmpty(t, sum.ID)
	assert.Equal(t, []int64{10, 20, 30}, copier.copied)
	assert.Len(t, delays, 3)
}

func TestBroadcastCountsFailuresAndContinues(t *testing.T) {
	copier := &fakeCopier{errs: map[int64]error{
		1: errors.New("telegram: Bad Request: chat not found (400)"),
		2: transport.ErrBlocked,
	}}
	e := NewEngine(copier, 0, 50, WithSleep(noSleep))

	sum, err := e.Broadcast(context.Background(), source, []int64{1, 2, 3, 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{ID: sum.ID, Total: 4, Success: 2, Failed: 1, Blocked: 1}, sum)
}

func TestBroadcastReportsProgress(t *testing.T) {
	recipients := make([]int64, 7)
	for i := range recipients {
		recipients[i] = int64(i + 1)
	}
	var got []Progress
	e := NewEngine(&fakeCopier{}, 0, 3, WithSleep(noSleep))

	_, err := e.Broadcast(context.Background(), source, recipients, func(_ context.Context, p Progress) {
		got = append(got, p)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Current)
	assert.Equal(t, 3, got[0].Success)
	assert.Equal(t, 7, got[0].Total)
	assert.Equal(t, 6, got[1].Current)
}

func TestBroadcastCancelKeepsPartialCounts(t *testing.T) {
	copier := &fakeCopier{}
	calls := 0
	e := NewEngine(copier, time.Second, 50, WithSleep(func(context.Context, time.Duration) error {
		calls++
		if calls == 2 {
			return context.Canceled
		}
		return nil
	}))

	sum, err := e.Broadcast(context.Background(), source, []int64{1, 2, 3, 4}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, []int64{1, 2}, copier.copied)
}

func TestBroadcastCustomClassifier(t *testing.T) {
	copier := &fakeCopier{errs: map[int64]error{1: errors.New("gone")}}
	e := NewEngine(copier, 0, 50, WithSleep(noSleep), WithBlockedClassifier(func(err error) bool {
		return err.Error() == "gone"
	}))

	sum, err := e.Broadcast(context.Background(), source, []int64{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Blocked)
}

func TestBroadcastEmpty(t *testing.T) {
	sum, err := NewEngine(&fakeCopier{}, 0, 0).Broadcast(context.Background(), source, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
}
