package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/storage"
)

func TestBulkInsertCountsNormalizedDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	res, err := s.BulkInsert(ctx, []string{"JOHN DOE", "john doe", "JANE SMITH"}, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportResult{Added: 2, Duplicates: 1}, res)

	res, err = s.BulkInsert(ctx, []string{"  jane   smith ", "", "Alex Johnson"}, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportResult{Added: 1, Duplicates: 1}, res)

	list, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "ALEX JOHNSON", list[0].FullName)
	assert.Equal(t, "Alex Johnson", list[0].OriginalEntry)
	assert.Equal(t, int64(2), list[0].AddedBy)
	assert.Equal(t, "JANE SMITH", list[1].FullName)
	assert.Equal(t, "JOHN DOE", list[2].FullName)
}

func TestIsAllowedNormalizesLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.BulkInsert(ctx, []string{"Jane Smith"}, 1)
	require.NoError(t, err)

	ok, err := s.IsAllowed(ctx, "jane  smith")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAllowed(ctx, "JANE SMYTH")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IsAllowed(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FindUser(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.SaveUser(ctx, domain.NewUser(42, now)), storage.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, domain.NewUser(42, now)))
	u, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingStarted, u.OnboardingState)

	u.PrimaryPhone = "+998901234567"
	require.NoError(t, s.SaveUser(ctx, u))

	later := now.Add(time.Hour)
	require.NoError(t, s.TouchActivity(ctx, 42, later))

	got, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", got.PrimaryPhone)
	assert.Equal(t, later, got.LastActivityAt)

	got.PrimaryPhone = "mutated"
	again, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", again.PrimaryPhone)
}

func TestCreateUserKeepsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()
	u := domain.NewUser(1, now)
	u.Username = "first"
	require.NoError(t, s.CreateUser(ctx, u))

	dup := domain.NewUser(1, now)
	dup.Username = "second"
	require.NoError(t, s.CreateUser(ctx, dup))

	got, err := s.FindUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Username)
}

func TestStatsAndOnboardedListing(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)

	add := func(id int64, registered time.Time, onboarded bool) {
		u := domain.NewUser(id, registered)
		if onboarded {
			u.OnboardingState = domain.OnboardingCompleted
			u.IsOnboarded = true
		}
		require.NoError(t, s.CreateUser(ctx, u))
	}
	add(1, now.Add(-48*time.Hour), true)
	add(2, now.Add(-2*time.Hour), true)
	add(3, now.Add(-time.Hour), false)
	add(4, now.Add(-20*time.Hour), false)

	st, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Total: 4, Onboarded: 2, Pending: 2, RegisteredToday: 2}, st)

	ids, err := s.ListOnboardedUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.FindUser(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.BulkInsert(ctx, []string{"A B"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
