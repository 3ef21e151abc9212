// Package memory is a process-local Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/storage"
	"github.com/gogermany/gobot/internal/validation"
)

// Store keeps users and allow-list entries in maps guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]domain.User
	names   map[string]domain.AllowedName
	nextID  int64
	nowFunc func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[int64]domain.User),
		names:   make(map[string]domain.AllowedName),
		nowFunc: time.Now,
	}
}

func (s *Store) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[telegramID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.TelegramID]; ok {
		return nil
	}
	s.users[u.TelegramID] = *u
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.TelegramID]; !ok {
		return storage.ErrNotFound
	}
	s.users[u.TelegramID] = *u
	return nil
}

func (s *Store) TouchActivity(ctx context.Context, telegramID int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return storage.ErrNotFound
	}
	u.LastActivityAt = at
	s.users[telegramID] = u
	return nil
}

func (s *Store) ListOnboardedUserIDs(ctx context.Context) ([]int64, error) {
	users, err := s.ListOnboarded(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.TelegramID
	}
	return ids, nil
}

func (s *Store) ListOnboarded(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if u.IsOnboarded {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].TelegramID < out[j].TelegramID
		}
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *Store) Stats(ctx context.Context, now time.Time) (domain.Stats, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stats{}, err
	}
	since := storage.StartOfDay(now)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st domain.Stats
	for _, u := range s.users {
		st.Total++
		if u.IsOnboarded {
			st.Onboarded++
		}
		if !u.RegisteredAt.Before(since) {
			st.RegisteredToday++
		}
	}
	st.Pending = st.Total - st.Onboarded
	return st, nil
}

func (s *Store) IsAllowed(ctx context.Context, fullName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := validation.NormalizeFullName(fullName)
	if key == "" {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.names[key]
	return ok && n.IsActive, nil
}

func (s *Store) BulkInsert(ctx context.Context, entries []string, adminID int64) (domain.ImportResult, error) {
	var res domain.ImportResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc()
	for _, entry := range entries {
		key := validation.NormalizeFullName(entry)
		if key == "" {
			continue
		}
		if _, ok := s.names[key]; ok {
			res.Duplicates++
			continue
		}
		s.nextID++
		s.names[key] = domain.AllowedName{
			ID:            s.nextID,
			FullName:      key,
			OriginalEntry: strings.TrimSpace(entry),
			AddedBy:       adminID,
			IsActive:      true,
			CreatedAt:     now,
		}
		res.Added++
	}
	return res, nil
}

func (s *Store) ListActive(ctx context.Context) ([]domain.AllowedName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.AllowedName, 0, len(s.names))
	for _, n := range s.names {
		if n.IsActive {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
