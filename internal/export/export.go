// Package export renders onboarded users as a CSV spreadsheet.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gogermany/gobot/core/telegram/format"
	"github.com/gogermany/gobot/internal/domain"
)

const dateLayout = "2006-01-02"

// Header lists the exported columns in order.
var Header = []string{
	"#",
	"Telegram ID",
	"Username",
	"Telegram Name",
	"Primary Phone",
	"Secondary Phone",
	"Passport First Name",
	"Passport Last Name",
	"Original Passport First Name",
	"Original Passport Last Name",
	"Registered At",
	"Onboarded At",
	"Last Activity",
}

// FileName returns the attachment name for an export generated at now.
func FileName(now time.Time) string {
	return "users_export_" + now.UTC().Format(dateLayout) + ".csv"
}

// UsersCSV writes one row per user in the given order.
func UsersCSV(users []domain.User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}
	for i, u := range users {
		if err := w.Write(row(i+1, u)); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}
	return buf.Bytes(), nil
}

func row(n int, u domain.User) []string {
	username := "N/A"
	if u.Username != "" {
		username = "@" + u.Username
	}
	return []string{
		strconv.Itoa(n),
		strconv.FormatInt(u.TelegramID, 10),
		username,
		orDefault(u.TelegramName(), "N/A"),
		orDefault(u.PrimaryPhone, "N/A"),
		orDefault(u.SecondaryPhone, "N/A"),
		orDefault(u.PassportFirstName, "N/A"),
		orDefault(u.PassportLastName, "N/A"),
		orDefault(u.OriginalPassportFirstName, "Same"),
		orDefault(u.OriginalPassportLastName, "Same"),
		date(u.RegisteredAt),
		date(format.Deref(u.OnboardedAt, time.Time{})),
		date(u.LastActivityAt),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func date(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(dateLayout)
}
