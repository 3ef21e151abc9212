// Package admin implements the administrator panel use cases: statistics,
// allow-list management, user export and broadcast sessions.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/export"
	"github.com/gogermany/gobot/internal/storage"
	"github.com/gogermany/gobot/internal/validation"
)

const component = "svc.admin"

// ChunkLimit keeps listing messages under Telegram's 4096 character cap.
const ChunkLimit = 3500

// ErrNoNames is returned when an import contains no usable lines.
var ErrNoNames = errors.New("admin: no names found")

// ImportReport describes one bulk allow-list import.
type ImportReport struct {
	domain.ImportResult
	Processed int
}

// NameList is the active allow-list rendered as numbered lines.
type NameList struct {
	Total  int
	Chunks []string
}

// Export is a generated user spreadsheet.
type Export struct {
	FileName string
	Data     []byte
	Rows     int
}

// Service runs admin operations against the stores.
type Service struct {
	users storage.Users
	names storage.Allowlist
	now   func() time.Time
}

// NewService wires the admin use cases.
func NewService(users storage.Users, names storage.Allowlist, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, names: names, now: now}
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	st, err := s.users.Stats(ctx, s.now())
	if err != nil {
		return domain.Stats{}, fmt.Errorf("admin: stats: %w", err)
	}
	return st, nil
}

// ImportNames parses one name per line and bulk inserts them.
func (s *Service) ImportNames(ctx context.Context, text string, adminID int64) (ImportReport, error) {
	entries := validation.ParseNameList(text)
	if len(entries) == 0 {
		return ImportReport{}, ErrNoNames
	}
	res, err := s.names.BulkInsert(ctx, entries, adminID)
	if err != nil {
		return ImportReport{}, fmt.Errorf("admin: import names: %w", err)
	}
	logger.Info(ctx, component, "allowlist.imported",
		slog.Int64("admin_id", adminID),
		slog.Int("processed", len(entries)),
		slog.Int("added", res.Added),
		slog.Int("duplicates", res.Duplicates),
	)
	return ImportReport{ImportResult: res, Processed: len(entries)}, nil
}

// ListNames renders the active allow-list split into chunks of at most limit characters.
func (s *Service) ListNames(ctx context.Context, limit int) (NameList, error) {
	names, err := s.names.ListActive(ctx)
	if err != nil {
		return NameList{}, fmt.Errorf("admin: list names: %w", err)
	}
	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = strconv.Itoa(i+1) + ". " + n.FullName
	}
	return NameList{Total: len(names), Chunks: ChunkLines(lines, limit)}, nil
}

// ExportUsers renders every onboarded user as CSV.
func (s *Service) ExportUsers(ctx context.Context) (Export, error) {
	users, err := s.users.ListOnboarded(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("admin: export users: %w", err)
	}
	data, err := export.UsersCSV(users)
	if err != nil {
		return Export{}, err
	}
	return Export{FileName: export.FileName(s.now()), Data: data, Rows: len(users)}, nil
}

// Recipients lists the broadcast audience.
func (s *Service) Recipients(ctx context.Context) ([]int64, error) {
	ids, err := s.users.ListOnboardedUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: recipients: %w", err)
	}
	return ids, nil
}

// ChunkLines joins lines with newlines into chunks no longer than limit.
// A single line longer than limit becomes its own chunk.
func ChunkLines(lines []string, limit int) []string {
	if len(lines) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = ChunkLimit
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	for _, line := range lines {
		if cur.Len() > 0 && cur.Len()+1+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
