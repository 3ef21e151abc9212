package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/storage"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestExpectRow(t *testing.T) {
	assert.NoError(t, expectRow(fakeResult{rows: 1}))
	assert.ErrorIs(t, expectRow(fakeResult{rows: 0}), storage.ErrNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, expectRow(fakeResult{err: boom}), boom)
}

func TestSaveUserKeepsOriginalNamesWriteOnce(t *testing.T) {
	for _, col := range []string{"original_passport_first_name", "original_passport_last_name"} {
		assert.Contains(t, querySaveUser, "CASE WHEN "+col+" = '' THEN :"+col+" ELSE "+col+" END")
	}
	assert.NotContains(t, querySaveUser, "registered_at")
}

func TestInsertNameIgnoresConflicts(t *testing.T) {
	assert.True(t, strings.Contains(queryInsertName, "ON CONFLICT (full_name) DO NOTHING"))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	first, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSQLiteUserLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.FindUser(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.SaveUser(ctx, domain.NewUser(42, now)), storage.ErrNotFound)
	assert.ErrorIs(t, s.TouchActivity(ctx, 42, now), storage.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, domain.NewUser(42, now)))
	u, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingStarted, u.OnboardingState)
	assert.Equal(t, domain.ActionNone, u.ActionState)
	assert.True(t, u.RegisteredAt.Equal(now))
	assert.Nil(t, u.OnboardedAt)

	u.PrimaryPhone = "+998901234567"
	u.PassportFirstName, u.OriginalPassportFirstName = "JOHN", "John"
	u.PassportLastName, u.OriginalPassportLastName = "DOE", "Doe"
	require.NoError(t, s.SaveUser(ctx, u))

	later := now.Add(time.Hour)
	require.NoError(t, s.TouchActivity(ctx, 42, later))

	got, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", got.PrimaryPhone)
	assert.True(t, got.LastActivityAt.Equal(later))
	assert.Equal(t, "John", got.OriginalPassportFirstName)

	got.PassportFirstName, got.OriginalPassportFirstName = "JACK", "Jack"
	require.NoError(t, s.SaveUser(ctx, got))
	again, err := s.FindUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "JACK", again.PassportFirstName)
	assert.Equal(t, "John", again.OriginalPassportFirstName)
}

func TestSQLiteCreateUserKeepsExisting(t *testing.T) {
	s := openTestStore(t)
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

func TestSQLiteStatsAndOnboardedListing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)

	add := func(id int64, registered time.Time, onboarded bool) {
		u := domain.NewUser(id, registered)
		u.FirstName = "user"
		if onboarded {
			at := registered.Add(time.Minute)
			u.OnboardingState = domain.OnboardingCompleted
			u.IsOnboarded = true
			u.OnboardedAt = &at
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

	users, err := s.ListOnboarded(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[0].TelegramID)
	require.NotNil(t, users[0].OnboardedAt)
	assert.True(t, users[0].OnboardedAt.Equal(now.Add(-2*time.Hour+time.Minute)))
}

func TestSQLiteAllowlist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.BulkInsert(ctx, []string{"JOHN DOE", "john doe", "JANE SMITH", "  "}, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportResult{Added: 2, Duplicates: 1}, res)

	ok, err := s.IsAllowed(ctx, "jane   smith")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsAllowed(ctx, "JANE SMYTH")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "JANE SMITH", list[0].FullName)
	assert.Equal(t, "JOHN DOE", list[1].FullName)
	assert.Equal(t, "JOHN DOE", list[1].OriginalEntry)
	assert.Equal(t, int64(7), list[1].AddedBy)
	assert.True(t, list[1].IsActive)
	assert.False(t, list[1].CreatedAt.IsZero())
}
