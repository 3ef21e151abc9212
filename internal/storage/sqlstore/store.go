// Package sqlstore implements storage.Store through sqlx. The same queries
// run on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite); positional
// placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/storage"
	"github.com/gogermany/gobot/internal/validation"
)

const component = "db"

// Store is a storage.Store backed by a *sqlx.DB.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

const userColumns = `telegram_id, username, first_name, last_name, primary_phone, secondary_phone,
	passport_first_name, passport_last_name, original_passport_first_name, original_passport_last_name,
	onboarding_state, is_onboarded, action_state, current_service,
	whatsapp_first_name, whatsapp_last_name, registered_at, onboarded_at, last_activity_at`

const (
	queryFindUser = `SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`

	queryCreateUser = `INSERT INTO users (` + userColumns + `) VALUES (
	:telegram_id, :username, :first_name, :last_name, :primary_phone, :secondary_phone,
	:passport_first_name, :passport_last_name, :original_passport_first_name, :original_passport_last_name,
	:onboarding_state, :is_onboarded, :action_state, :current_service,
	:whatsapp_first_name, :whatsapp_last_name, :registered_at, :onboarded_at, :last_activity_at)
	ON CONFLICT (telegram_id) DO NOTHING`

	// original_* columns only move from empty to set.
	querySaveUser = `UPDATE users SET
	username = :username,
	first_name = :first_name,
	last_name = :last_name,
	primary_phone = :primary_phone,
	secondary_phone = :secondary_phone,
	passport_first_name = :passport_first_name,
	passport_last_name = :passport_last_name,
	original_passport_first_name = CASE WHEN original_passport_first_name = '' THEN :original_passport_first_name ELSE original_passport_first_name END,
	original_passport_last_name = CASE WHEN original_passport_last_name = '' THEN :original_passport_last_name ELSE original_passport_last_name END,
	onboarding_state = :onboarding_state,
	is_onboarded = :is_onboarded,
	action_state = :action_state,
	current_service = :current_service,
	whatsapp_first_name = :whatsapp_first_name,
	whatsapp_last_name = :whatsapp_last_name,
	onboarded_at = :onboarded_at,
	last_activity_at = :last_activity_at
	WHERE telegram_id = :telegram_id`

	queryTouchActivity = `UPDATE users SET last_activity_at = ? WHERE telegram_id = ?`

	queryOnboardedIDs = `SELECT telegram_id FROM users WHERE is_onboarded ORDER BY registered_at DESC, telegram_id`

	queryOnboarded = `SELECT ` + userColumns + ` FROM users WHERE is_onboarded ORDER BY registered_at DESC, telegram_id`

	queryStats = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE is_onboarded) AS onboarded,
	COUNT(*) FILTER (WHERE NOT is_onboarded) AS pending,
	COUNT(*) FILTER (WHERE registered_at >= ?) AS registered_today
	FROM users`

	queryIsAllowed = `SELECT EXISTS (SELECT 1 FROM allowed_names WHERE full_name = ? AND is_active)`

	queryInsertName = `INSERT INTO allowed_names (full_name, original_entry, added_by)
	VALUES (?, ?, ?) ON CONFLICT (full_name) DO NOTHING`

	queryListActive = `SELECT id, full_name, original_entry, added_by, is_active, created_at
	FROM allowed_names WHERE is_active ORDER BY full_name`
)

func (s *Store) observe(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if errors.Is(err, sql.ErrNoRows) {
		err = storage.ErrNotFound
	}
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("driver", s.db.DriverName()),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	switch {
	case err == nil, errors.Is(err, storage.ErrNotFound):
		logger.Debug(ctx, component, "db.query", attrs...)
	default:
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Warn(ctx, component, "db.query", attrs...)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %s: %w", s.db.DriverName(), op, err)
	}
	return err
}

func (s *Store) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := s.observe(ctx, "find_user", func() error {
		return s.db.GetContext(ctx, &u, s.q(queryFindUser), telegramID)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return s.observe(ctx, "create_user", func() error {
		_, err := s.db.NamedExecContext(ctx, queryCreateUser, utcRow(u))
		return err
	})
}

func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	return s.observe(ctx, "save_user", func() error {
		res, err := s.db.NamedExecContext(ctx, querySaveUser, utcRow(u))
		if err != nil {
			return err
		}
		return expectRow(res)
	})
}

func (s *Store) TouchActivity(ctx context.Context, telegramID int64, at time.Time) error {
	return s.observe(ctx, "touch_activity", func() error {
		res, err := s.db.ExecContext(ctx, s.q(queryTouchActivity), at.UTC(), telegramID)
		if err != nil {
			return err
		}
		return expectRow(res)
	})
}

func (s *Store) ListOnboardedUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.observe(ctx, "list_onboarded_ids", func() error {
		return s.db.SelectContext(ctx, &ids, queryOnboardedIDs)
	})
	return ids, err
}

func (s *Store) ListOnboarded(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.observe(ctx, "list_onboarded", func() error {
		return s.db.SelectContext(ctx, &users, queryOnboarded)
	})
	return users, err
}

func (s *Store) Stats(ctx context.Context, now time.Time) (domain.Stats, error) {
	var st domain.Stats
	err := s.observe(ctx, "stats", func() error {
		return s.db.GetContext(ctx, &st, s.q(queryStats), storage.StartOfDay(now).UTC())
	})
	return st, err
}

func (s *Store) IsAllowed(ctx context.Context, fullName string) (bool, error) {
	key := validation.NormalizeFullName(fullName)
	if key == "" {
		return false, nil
	}
	var ok bool
	err := s.observe(ctx, "is_allowed", func() error {
		return s.db.GetContext(ctx, &ok, s.q(queryIsAllowed), key)
	})
	return ok, err
}

func (s *Store) BulkInsert(ctx context.Context, entries []string, adminID int64) (domain.ImportResult, error) {
	var res domain.ImportResult
	err := s.observe(ctx, "bulk_insert_names", func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, entry := range entries {
			key := validation.NormalizeFullName(entry)
			if key == "" {
				continue
			}
			r, err := tx.ExecContext(ctx, s.q(queryInsertName), key, strings.TrimSpace(entry), adminID)
			if err != nil {
				return err
			}
			n, err := r.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				res.Duplicates++
				continue
			}
			res.Added++
		}
		return tx.Commit()
	})
	if err != nil {
		return domain.ImportResult{}, err
	}
	return res, nil
}

func (s *Store) ListActive(ctx context.Context) ([]domain.AllowedName, error) {
	var names []domain.AllowedName
	err := s.observe(ctx, "list_active_names", func() error {
		return s.db.SelectContext(ctx, &names, queryListActive)
	})
	return names, err
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// utcRow copies u with every timestamp in UTC so stored values compare
// consistently on drivers that keep times as text.
func utcRow(u *domain.User) *domain.User {
	row := *u
	row.RegisteredAt = row.RegisteredAt.UTC()
	row.LastActivityAt = row.LastActivityAt.UTC()
	if row.OnboardedAt != nil {
		at := row.OnboardedAt.UTC()
		row.OnboardedAt = &at
	}
	return &row
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
