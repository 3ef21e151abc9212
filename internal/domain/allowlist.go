package domain

import "time"

// AllowedName is an allow-list entry consulted by the gated reveal.
type AllowedName struct {
	ID            int64     `db:"id"`
	FullName      string    `db:"full_name"`
	OriginalEntry string    `db:"original_entry"`
	AddedBy       int64     `db:"added_by"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
}

// ImportResult reports a bulk allow-list import. Duplicates are expected
// and counted, never treated as failures.
type ImportResult struct {
	Added      int
	Duplicates int
}
