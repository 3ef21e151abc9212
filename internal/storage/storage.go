// Package storage declares the persistence capabilities the bot consumes.
// Implementations live in the sqlstore (PostgreSQL, SQLite) and memory
// subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gogermany/gobot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Users persists conversation records.
type Users interface {
	// FindUser returns ErrNotFound for unknown ids.
	FindUser(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	SaveUser(ctx context.Context, u *domain.User) error
	TouchActivity(ctx context.Context, telegramID int64, at time.Time) error
	ListOnboardedUserIDs(ctx context.Context) ([]int64, error)
	// ListOnboarded returns onboarded users, newest registration first.
	ListOnboarded(ctx context.Context) ([]domain.User, error)
	// Stats counts users; "today" starts at the midnight preceding now in now's location.
	Stats(ctx context.Context, now time.Time) (domain.Stats, error)
}

// Allowlist persists the names allowed through the gated reveal.
type Allowlist interface {
	IsAllowed(ctx context.Context, fullName string) (bool, error)
	// BulkInsert normalizes entries and inserts them; entries whose
	// normalized key already exists are counted as duplicates.
	BulkInsert(ctx context.Context, entries []string, adminID int64) (domain.ImportResult, error)
	// ListActive returns active entries sorted by full name.
	ListActive(ctx context.Context) ([]domain.AllowedName, error)
}

// Store is the full persistence surface.
type Store interface {
	Users
	Allowlist
	Close() error
}

// StartOfDay truncates now to local midnight.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
